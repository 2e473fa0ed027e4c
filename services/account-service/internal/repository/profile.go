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

// ProfileRepository defines the interface for profile-related database
// operations.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.Profile, error)
	DeleteProfileByUserID(ctx context.Context, userID string) error
}

// UpdateProfileParams defines the optional parameters for updating a profile.
// Only the fields that are not nil will be updated.
type UpdateProfileParams struct {
	Competence    *string
	Language      *string
	SiteURL       *string
	TwitterURL    *string
	FacebookURL   *string
	LinkedinURL   *string
	YoutubeURL    *string
	Hidden        *bool
	HiddenCourses *bool
	Promotions    *bool
	MentorAds     *bool
	EmailAds      *bool
}

const profileCollection = "profiles"

type profileMongoRepository struct {
	db *mongo.Database
}

// NewProfileMongoRepository creates a MongoDB repository for profiles with a
// unique user_id index, so each account owns at most one profile.
func NewProfileMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) ProfileRepository {
	collection := db.Collection(profileCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create profile indexes")
	}

	return &profileMongoRepository{db: db}
}

func (r *profileMongoRepository) CreateProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	result, err := r.db.Collection(profileCollection).InsertOne(ctx, profile)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		profile.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return profile, nil
}

func (r *profileMongoRepository) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(profileCollection).FindOne(ctx, bson.M{"user_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileMongoRepository) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.Profile, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	updateMap := bson.M{}
	setIfPresent := func(key string, value *string) {
		if value != nil {
			updateMap[key] = *value
		}
	}
	setFlagIfPresent := func(key string, value *bool) {
		if value != nil {
			updateMap[key] = *value
		}
	}

	setIfPresent("competence", params.Competence)
	setIfPresent("language", params.Language)
	setIfPresent("site_url", params.SiteURL)
	setIfPresent("twitter_url", params.TwitterURL)
	setIfPresent("facebook_url", params.FacebookURL)
	setIfPresent("linkedin_url", params.LinkedinURL)
	setIfPresent("youtube_url", params.YoutubeURL)
	setFlagIfPresent("hidden", params.Hidden)
	setFlagIfPresent("hidden_courses", params.HiddenCourses)
	setFlagIfPresent("promotions", params.Promotions)
	setFlagIfPresent("mentor_ads", params.MentorAds)
	setFlagIfPresent("email_ads", params.EmailAds)

	if len(updateMap) == 0 {
		return nil, errors.New("no profile fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(profileCollection).FindOneAndUpdate(
		ctx,
		bson.M{"user_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileMongoRepository) DeleteProfileByUserID(ctx context.Context, userID string) error {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(profileCollection).DeleteOne(ctx, bson.M{"user_id": objectID})
	return err
}
