package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/config"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/model"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/repository"
	"github.com/mentorlink/mentorlink-api/shared/security"
	"github.com/mentorlink/mentorlink-api/shared/validate"
)

// AccountUsecase defines the account lifecycle use cases: registration,
// email activation, password change and account removal.
type AccountUsecase interface {
	// Register creates an inactive account and emails it an activation code.
	Register(ctx context.Context, params RegisterParams) (*model.User, error)

	// Activate redeems an activation code and marks the account active.
	Activate(ctx context.Context, email, code string) error

	// ChangePassword replaces the password of an authenticated account.
	ChangePassword(ctx context.Context, userID string, params ChangePasswordParams) error

	// DeleteAccount removes the account and everything it owns: live codes,
	// profile, and outstanding sessions (which are revoked, not forgotten).
	DeleteAccount(ctx context.Context, userID string) error
}

// RegisterParams defines the parameters for user registration. Mentors must
// additionally answer the experience and audience survey questions.
type RegisterParams struct {
	Username        string `validate:"required,max=50"`
	FirstName       string `validate:"required,max=30"`
	LastName        string `validate:"required,max=30"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=4"`
	PasswordConfirm string `validate:"required,eqfield=Password"`
	Mentor          bool
	Experience      string `validate:"required_if=Mentor true,max=50"`
	Audience        string `validate:"required_if=Mentor true,max=50"`
}

// ChangePasswordParams defines the parameters for a password change.
type ChangePasswordParams struct {
	OldPassword        string `validate:"required,min=4"`
	NewPassword        string `validate:"required,min=4"`
	NewPasswordConfirm string `validate:"required,eqfield=NewPassword"`
}

var (
	ErrEmailAlreadyExists    = errors.New("email is already registered")
	ErrUsernameAlreadyExists = errors.New("username is already taken")
	ErrAccountNotFound       = errors.New("account not found")
	ErrWrongPassword         = errors.New("old password is incorrect")

	// ErrInvalidCodeOrAccount deliberately does not say which part failed,
	// so callers cannot probe for registered emails or live codes.
	ErrInvalidCodeOrAccount = errors.New("account not found or invalid code")
)

type accountUsecase struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	tokenRepo   repository.TokenRepository
	issuer      *codeIssuer
	notifier    Notifier
	validator   *validate.Validator
	clock       Clock
	logger      *zerolog.Logger
	cfg         *config.AccountServiceConfig
}

// NewAccountUsecase creates a new instance of AccountUsecase.
func NewAccountUsecase(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	tokenRepo repository.TokenRepository,
	codeRepo repository.OneTimeCodeRepository,
	scheduler *ExpiryScheduler,
	notifier Notifier,
	validator *validate.Validator,
	clock Clock,
	logger *zerolog.Logger,
	cfg *config.AccountServiceConfig,
) AccountUsecase {
	return &accountUsecase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		issuer:      &codeIssuer{codes: codeRepo, scheduler: scheduler, clock: clock},
		notifier:    notifier,
		validator:   validator,
		clock:       clock,
		logger:      logger,
		cfg:         cfg,
	}
}

func (u *accountUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	if err := u.validator.Struct(params); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        params.Email,
		Username:     params.Username,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: passwordHash,
		Active:       false,
		Mentor:       params.Mentor,
		Experience:   params.Experience,
		Audience:     params.Audience,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			switch repository.DuplicateKeyField(err) {
			case "email":
				return nil, ErrEmailAlreadyExists
			case "username":
				return nil, ErrUsernameAlreadyExists
			}
		}
		return nil, err
	}

	// Activation codes carry no ttl of their own; they die on use or when
	// the account is deleted.
	code, err := u.issuer.Issue(ctx, user.ID, model.PurposeActivation, 0)
	if err != nil {
		return nil, err
	}

	u.dispatchEmail(user.Email, "Confirm your registration", activationEmailBody(code.Code, u.cfg.AppActivationURL))

	return user, nil
}

func (u *accountUsecase) Activate(ctx context.Context, email, code string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidCodeOrAccount
		}
		return err
	}

	consumed, err := u.issuer.Consume(ctx, user.ID, code, model.PurposeActivation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidCodeOrAccount
		}
		return err
	}

	if consumed.Expired(u.clock.Now()) {
		return ErrInvalidCodeOrAccount
	}

	active := true
	if _, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{Active: &active}); err != nil {
		return err
	}

	return nil
}

func (u *accountUsecase) ChangePassword(ctx context.Context, userID string, params ChangePasswordParams) error {
	if err := u.validator.Struct(params); err != nil {
		return err
	}

	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAccountNotFound
		}
		return err
	}

	if ok, err := security.VerifyPassword(params.OldPassword, user.PasswordHash); err != nil {
		return err
	} else if !ok {
		return ErrWrongPassword
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return err
	}

	// Existing sessions stay alive across a password change; revoking them
	// is an explicit "log out everywhere".
	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{PasswordHash: &passwordHash}); err != nil {
		return err
	}

	return nil
}

func (u *accountUsecase) DeleteAccount(ctx context.Context, userID string) error {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAccountNotFound
		}
		return err
	}

	// Revoke every outstanding session before the account disappears; the
	// blacklist outlives the account.
	tokens, err := u.tokenRepo.ListOutstandingByUserID(ctx, userID)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if err := u.tokenRepo.Blacklist(ctx, token.JTI); err != nil {
			return err
		}
	}
	if err := u.tokenRepo.DeleteOutstandingByUserID(ctx, userID); err != nil {
		return err
	}

	if err := u.issuer.Clear(ctx, user.ID); err != nil {
		return err
	}

	if err := u.profileRepo.DeleteProfileByUserID(ctx, userID); err != nil {
		return err
	}

	if _, err := u.userRepo.DeleteUser(ctx, userID); err != nil {
		return err
	}

	return nil
}

// dispatchEmail hands the message to the notification sink without holding
// up the request; failures are logged, not returned.
func (u *accountUsecase) dispatchEmail(to, subject, htmlBody string) {
	go func() {
		if err := u.notifier.SendHTML([]string{to}, subject, htmlBody); err != nil {
			u.logger.Error().Err(err).Msg("failed to send account email")
		}
	}()
}

func activationEmailBody(code, activationURL string) string {
	return fmt.Sprintf(`
		<p>Hi,</p>
		<p>Thanks for signing up. Use the code below to activate your account:</p>

		<p><strong>%s</strong></p>

		<p>Or follow this link: <a href="%s?code=%s">%s?code=%s</a></p>

		<p>Thank you,</p>
		<p>MentorLink Team</p>
	`, code, activationURL, code, activationURL, code)
}
