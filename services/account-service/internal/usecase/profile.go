package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/model"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/repository"
	"github.com/mentorlink/mentorlink-api/shared/validate"
)

// ProfileUsecase defines the profile operations the account owns. Anyone may
// read a profile; only its owner may change it.
type ProfileUsecase interface {
	CreateProfile(ctx context.Context, userID string, params ProfileParams) (*model.Profile, error)
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, actorID, ownerID string, params UpdateProfileParams) (*model.Profile, error)
}

// ProfileParams defines the parameters for creating a profile.
type ProfileParams struct {
	Competence    string `validate:"max=255"`
	Language      string `validate:"omitempty,oneof=ru en kg"`
	SiteURL       string `validate:"omitempty,startswith=https://"`
	TwitterURL    string `validate:"omitempty,startswith=https://twitter.com/"`
	FacebookURL   string `validate:"omitempty,startswith=https://www.facebook.com/"`
	LinkedinURL   string `validate:"omitempty,startswith=https://www.linkedin.com/"`
	YoutubeURL    string `validate:"omitempty,startswith=https://www.youtube.com/@"`
	Hidden        bool
	HiddenCourses bool
	Promotions    bool
	MentorAds     bool
	EmailAds      bool
}

// UpdateProfileParams defines the optional parameters for updating a
// profile. Only the fields that are not nil are touched.
type UpdateProfileParams struct {
	Competence    *string `validate:"omitempty,max=255"`
	Language      *string `validate:"omitempty,oneof=ru en kg"`
	SiteURL       *string `validate:"omitempty,startswith=https://"`
	TwitterURL    *string `validate:"omitempty,startswith=https://twitter.com/"`
	FacebookURL   *string `validate:"omitempty,startswith=https://www.facebook.com/"`
	LinkedinURL   *string `validate:"omitempty,startswith=https://www.linkedin.com/"`
	YoutubeURL    *string `validate:"omitempty,startswith=https://www.youtube.com/@"`
	Hidden        *bool
	HiddenCourses *bool
	Promotions    *bool
	MentorAds     *bool
	EmailAds      *bool
}

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrNotProfileOwner      = errors.New("profile does not belong to the requesting user")
)

type profileUsecase struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	validator   *validate.Validator
}

// NewProfileUsecase creates a new instance of ProfileUsecase.
func NewProfileUsecase(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	validator *validate.Validator,
) ProfileUsecase {
	return &profileUsecase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		validator:   validator,
	}
}

func (u *profileUsecase) CreateProfile(ctx context.Context, userID string, params ProfileParams) (*model.Profile, error) {
	if err := u.validator.Struct(params); err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	profile, err := u.profileRepo.CreateProfile(ctx, &model.Profile{
		UserID:        user.ID,
		Competence:    params.Competence,
		Language:      params.Language,
		SiteURL:       params.SiteURL,
		TwitterURL:    params.TwitterURL,
		FacebookURL:   params.FacebookURL,
		LinkedinURL:   params.LinkedinURL,
		YoutubeURL:    params.YoutubeURL,
		Hidden:        params.Hidden,
		HiddenCourses: params.HiddenCourses,
		Promotions:    params.Promotions,
		MentorAds:     params.MentorAds,
		EmailAds:      params.EmailAds,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrProfileAlreadyExists
		}
		return nil, err
	}

	return profile, nil
}

func (u *profileUsecase) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := u.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return profile, nil
}

func (u *profileUsecase) UpdateProfile(
	ctx context.Context,
	actorID, ownerID string,
	params UpdateProfileParams,
) (*model.Profile, error) {
	if actorID != ownerID {
		return nil, ErrNotProfileOwner
	}

	if err := u.validator.Struct(params); err != nil {
		return nil, err
	}

	profile, err := u.profileRepo.UpdateProfile(ctx, ownerID, repository.UpdateProfileParams{
		Competence:    params.Competence,
		Language:      params.Language,
		SiteURL:       params.SiteURL,
		TwitterURL:    params.TwitterURL,
		FacebookURL:   params.FacebookURL,
		LinkedinURL:   params.LinkedinURL,
		YoutubeURL:    params.YoutubeURL,
		Hidden:        params.Hidden,
		HiddenCourses: params.HiddenCourses,
		Promotions:    params.Promotions,
		MentorAds:     params.MentorAds,
		EmailAds:      params.EmailAds,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return profile, nil
}
