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

// PasswordResetUsecase defines the password recovery flow: request a
// short-lived code, optionally pre-check it, and redeem it for a new
// password.
type PasswordResetUsecase interface {
	// RequestPasswordReset emails the account a recovery code that stays
	// redeemable for the configured ttl.
	RequestPasswordReset(ctx context.Context, email string) error

	// VerifyRecoveryCode checks a code without consuming it, for callers
	// that want to validate before showing the new-password form.
	VerifyRecoveryCode(ctx context.Context, email, code string) error

	// CompletePasswordReset redeems the code and sets the new password. Of
	// two racing submissions of the same code, exactly one succeeds.
	CompletePasswordReset(ctx context.Context, params CompletePasswordResetParams) error
}

// CompletePasswordResetParams defines the parameters for completing a
// password recovery.
type CompletePasswordResetParams struct {
	Email              string `validate:"required,email"`
	Code               string `validate:"required,len=10"`
	NewPassword        string `validate:"required,min=4"`
	NewPasswordConfirm string `validate:"required,eqfield=NewPassword"`
}

type passwordResetUsecase struct {
	userRepo  repository.UserRepository
	issuer    *codeIssuer
	notifier  Notifier
	validator *validate.Validator
	clock     Clock
	logger    *zerolog.Logger
	cfg       *config.AccountServiceConfig
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	codeRepo repository.OneTimeCodeRepository,
	scheduler *ExpiryScheduler,
	notifier Notifier,
	validator *validate.Validator,
	clock Clock,
	logger *zerolog.Logger,
	cfg *config.AccountServiceConfig,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:  userRepo,
		issuer:    &codeIssuer{codes: codeRepo, scheduler: scheduler, clock: clock},
		notifier:  notifier,
		validator: validator,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAccountNotFound
		}
		return err
	}

	// Overwrites any previous live code and re-arms its expiry timer.
	code, err := u.issuer.Issue(ctx, user.ID, model.PurposeRecovery, u.cfg.RecoveryCodeTTL)
	if err != nil {
		return err
	}

	go func() {
		htmlBody := recoveryEmailBody(code.Code, u.cfg.AppPasswordResetURL, u.cfg)
		if err := u.notifier.SendHTML([]string{user.Email}, "Password Reset Request", htmlBody); err != nil {
			u.logger.Error().Err(err).Msg("failed to send password recovery email")
		}
	}()

	return nil
}

func (u *passwordResetUsecase) VerifyRecoveryCode(ctx context.Context, email, code string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidCodeOrAccount
		}
		return err
	}

	ok, err := u.issuer.Verify(ctx, user.ID, code, model.PurposeRecovery)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCodeOrAccount
	}

	return nil
}

func (u *passwordResetUsecase) CompletePasswordReset(ctx context.Context, params CompletePasswordResetParams) error {
	if err := u.validator.Struct(params); err != nil {
		return err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidCodeOrAccount
		}
		return err
	}

	// A concurrent submission of the same code loses this race and lands on
	// ErrInvalidCodeOrAccount; the code is gone by the time it looks.
	consumed, err := u.issuer.Consume(ctx, user.ID, params.Code, model.PurposeRecovery)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidCodeOrAccount
		}
		return err
	}

	if consumed.Expired(u.clock.Now()) {
		return ErrInvalidCodeOrAccount
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return err
	}

	return nil
}

func recoveryEmailBody(code, resetURL string, cfg *config.AccountServiceConfig) string {
	return fmt.Sprintf(`
		<p>Hi,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>If you made this request, use the code below to choose a new password:</p>

		<p><strong>%s</strong></p>

		<p>Or follow this link: <a href="%s?code=%s">%s?code=%s</a></p>

		<p>This code will expire in %s for your security.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>MentorLink Team</p>
	`, code, resetURL, code, resetURL, code, cfg.RecoveryCodeTTL)
}
