package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/model"
)

// OneTimeCodeRepository defines the interface for one-time code operations.
// An account owns at most one live code; Replace overwrites it, and Consume
// is a single atomic compare-and-remove so two racing consumers can never
// both succeed.
type OneTimeCodeRepository interface {
	// Replace stores the code for its account, overwriting any previous one.
	Replace(ctx context.Context, code *model.OneTimeCode) (*model.OneTimeCode, error)

	// GetByUserID retrieves the live code for an account, if any.
	GetByUserID(ctx context.Context, userID string) (*model.OneTimeCode, error)

	// Consume atomically removes the live code iff its value and purpose
	// match, returning the removed record. Exactly one of any set of
	// concurrent callers observes the match; the rest get ErrNoDocuments.
	Consume(ctx context.Context, userID, code string, purpose model.CodePurpose) (*model.OneTimeCode, error)

	// DeleteByUserID drops the live code. Deleting when none exists is a no-op.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired drops the account's code only if it carries a finite
	// expiry that has already passed. It reports whether a code was removed.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (bool, error)
}

const oneTimeCodeCollection = "one_time_codes"

type oneTimeCodeMongoRepository struct {
	db *mongo.Database
}

// NewOneTimeCodeMongoRepository creates a MongoDB repository for one-time
// codes. The unique user_id index is what makes "one live code per account"
// hold under concurrent issuance.
func NewOneTimeCodeMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) OneTimeCodeRepository {
	collection := db.Collection(oneTimeCodeCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create one-time code indexes")
	}

	return &oneTimeCodeMongoRepository{db: db}
}

func (r *oneTimeCodeMongoRepository) Replace(
	ctx context.Context,
	code *model.OneTimeCode,
) (*model.OneTimeCode, error) {
	result := r.db.Collection(oneTimeCodeCollection).FindOneAndReplace(
		ctx,
		bson.M{"user_id": code.UserID},
		code,
		options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var stored model.OneTimeCode
	if err := result.Decode(&stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *oneTimeCodeMongoRepository) GetByUserID(ctx context.Context, userID string) (*model.OneTimeCode, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(oneTimeCodeCollection).FindOne(ctx, bson.M{"user_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var code model.OneTimeCode
	if err := result.Decode(&code); err != nil {
		return nil, err
	}

	return &code, nil
}

func (r *oneTimeCodeMongoRepository) Consume(
	ctx context.Context,
	userID, code string,
	purpose model.CodePurpose,
) (*model.OneTimeCode, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"user_id": objectID,
		"code":    code,
		"purpose": purpose,
	}

	result := r.db.Collection(oneTimeCodeCollection).FindOneAndDelete(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var consumed model.OneTimeCode
	if err := result.Decode(&consumed); err != nil {
		return nil, err
	}

	return &consumed, nil
}

func (r *oneTimeCodeMongoRepository) DeleteByUserID(ctx context.Context, userID string) error {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(oneTimeCodeCollection).DeleteOne(ctx, bson.M{"user_id": objectID})
	return err
}

func (r *oneTimeCodeMongoRepository) DeleteExpired(
	ctx context.Context,
	userID string,
	now time.Time,
) (bool, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return false, err
	}

	// The $gt zero-time guard keeps indefinite activation codes (zero
	// expires_at) out of reach of the expiry sweep.
	filter := bson.M{
		"user_id": objectID,
		"expires_at": bson.M{
			"$gt":  time.Time{},
			"$lte": now,
		},
	}

	result, err := r.db.Collection(oneTimeCodeCollection).DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}

	return result.DeletedCount > 0, nil
}
