package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/model"
)

// TokenRepository defines the interface for the outstanding and blacklisted
// session token sets.
type TokenRepository interface {
	// RecordOutstanding remembers a freshly issued session JTI for its user.
	RecordOutstanding(ctx context.Context, token *model.OutstandingToken) (*model.OutstandingToken, error)

	// ListOutstandingByUserID returns every session JTI recorded for a user.
	ListOutstandingByUserID(ctx context.Context, userID string) ([]model.OutstandingToken, error)

	// DeleteOutstandingByUserID removes a user's outstanding records, used
	// when the account itself is deleted. The blacklist is never touched.
	DeleteOutstandingByUserID(ctx context.Context, userID string) error

	// Blacklist permanently revokes a session JTI. Revoking an already
	// revoked JTI is a no-op.
	Blacklist(ctx context.Context, jti string) error

	// IsBlacklisted reports whether a session JTI has been revoked.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

const (
	outstandingTokenCollection = "outstanding_tokens"
	blacklistedTokenCollection = "blacklisted_tokens"
)

type tokenMongoRepository struct {
	db *mongo.Database
}

// NewTokenMongoRepository creates a MongoDB repository for the session token
// sets, making sure both JTI indexes exist.
func NewTokenMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) TokenRepository {
	outstandingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "jti", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	if _, err := db.Collection(outstandingTokenCollection).Indexes().CreateMany(ctx, outstandingIndexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create outstanding token indexes")
	}

	blacklistedIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "jti", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := db.Collection(blacklistedTokenCollection).Indexes().CreateMany(ctx, blacklistedIndexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create blacklisted token indexes")
	}

	return &tokenMongoRepository{db: db}
}

func (r *tokenMongoRepository) RecordOutstanding(
	ctx context.Context,
	token *model.OutstandingToken,
) (*model.OutstandingToken, error) {
	token.CreatedAt = time.Now()

	result, err := r.db.Collection(outstandingTokenCollection).InsertOne(ctx, token)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		token.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return token, nil
}

func (r *tokenMongoRepository) ListOutstandingByUserID(
	ctx context.Context,
	userID string,
) ([]model.OutstandingToken, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	cursor, err := r.db.Collection(outstandingTokenCollection).Find(ctx, bson.M{"user_id": objectID})
	if err != nil {
		return nil, err
	}

	var tokens []model.OutstandingToken
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *tokenMongoRepository) DeleteOutstandingByUserID(ctx context.Context, userID string) error {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(outstandingTokenCollection).DeleteMany(ctx, bson.M{"user_id": objectID})
	return err
}

func (r *tokenMongoRepository) Blacklist(ctx context.Context, jti string) error {
	update := bson.M{
		"$setOnInsert": bson.M{
			"jti":            jti,
			"blacklisted_at": time.Now(),
		},
	}

	_, err := r.db.Collection(blacklistedTokenCollection).UpdateOne(
		ctx,
		bson.M{"jti": jti},
		update,
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *tokenMongoRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	count, err := r.db.Collection(blacklistedTokenCollection).CountDocuments(
		ctx,
		bson.M{"jti": jti},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
