package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/config"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/model"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/repository"
	"github.com/mentorlink/mentorlink-api/services/account-service/pkg/types"
	"github.com/mentorlink/mentorlink-api/shared/auth"
	"github.com/mentorlink/mentorlink-api/shared/security"
	"github.com/mentorlink/mentorlink-api/shared/validate"
)

// SessionUsecase defines issuance, validation and revocation of session
// tokens. A session is identified by the JTI shared between its access and
// refresh tokens; revocation is a permanent blacklist entry for that JTI.
type SessionUsecase interface {
	// Login verifies credentials and issues a session token pair.
	Login(ctx context.Context, params LoginParams) (*types.Tokens, error)

	// Authorize validates an access token, including the blacklist check,
	// and returns the account it belongs to.
	Authorize(ctx context.Context, accessToken string) (*model.User, error)

	// Refresh exchanges a valid refresh token for a fresh access token
	// carrying the same, still revocable, session JTI.
	Refresh(ctx context.Context, refreshToken string) (*types.Tokens, error)

	// Logout revokes the presented refresh token's session, or with all set,
	// every outstanding session of the account. Revoking twice is a no-op.
	Logout(ctx context.Context, userID, refreshToken string, all bool) error

	// RevokeAll blacklists every outstanding session of the account.
	RevokeAll(ctx context.Context, userID string) error
}

// LoginParams defines the parameters for user login. Identifier is the
// account email or username.
type LoginParams struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotActive   = errors.New("account has not been activated")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrTokenExpired       = errors.New("session token has expired")
	ErrTokenRevoked       = errors.New("session token has been revoked")
)

type sessionUsecase struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtAuth   auth.JWTAuthenticator
	validator *validate.Validator
	clock     Clock
	cfg       *config.AccountServiceConfig
}

// NewSessionUsecase creates a new instance of SessionUsecase.
func NewSessionUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtAuth auth.JWTAuthenticator,
	validator *validate.Validator,
	clock Clock,
	cfg *config.AccountServiceConfig,
) SessionUsecase {
	return &sessionUsecase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtAuth:   jwtAuth,
		validator: validator,
		clock:     clock,
		cfg:       cfg,
	}
}

func (u *sessionUsecase) Login(ctx context.Context, params LoginParams) (*types.Tokens, error) {
	if err := u.validator.Struct(params); err != nil {
		return nil, err
	}

	user, err := u.lookupByIdentifier(ctx, params.Identifier)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Pay the hash cost anyway so an unknown identifier is not
			// distinguishable from a wrong password by response time.
			security.VerifyDummy(params.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrAccountNotActive
	}

	return u.issueSession(ctx, user)
}

func (u *sessionUsecase) Authorize(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := u.parseToken(accessToken, u.cfg.Token.AccessTokenSecret, types.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	// Blacklisted sessions fail even while the token itself is well formed
	// and unexpired.
	if blacklisted, err := u.tokenRepo.IsBlacklisted(ctx, claims.ID); err != nil {
		return nil, err
	} else if blacklisted {
		return nil, ErrTokenRevoked
	}

	user, err := u.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

func (u *sessionUsecase) Refresh(ctx context.Context, refreshToken string) (*types.Tokens, error) {
	claims, err := u.parseToken(refreshToken, u.cfg.Token.RefreshTokenSecret, types.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	if blacklisted, err := u.tokenRepo.IsBlacklisted(ctx, claims.ID); err != nil {
		return nil, err
	} else if blacklisted {
		return nil, ErrTokenRevoked
	}

	user, err := u.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !user.Active {
		return nil, ErrAccountNotActive
	}

	accessToken, err := u.signToken(user.ID.Hex(), claims.ID, types.TokenTypeAccess,
		u.cfg.Token.AccessTokenSecret, u.cfg.Token.AccessTokenExpiresIn)
	if err != nil {
		return nil, err
	}

	return &types.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (u *sessionUsecase) Logout(ctx context.Context, userID, refreshToken string, all bool) error {
	if all {
		return u.RevokeAll(ctx, userID)
	}

	claims, err := u.parseToken(refreshToken, u.cfg.Token.RefreshTokenSecret, types.TokenTypeRefresh)
	if err != nil {
		return err
	}

	if claims.UserID != userID {
		return ErrInvalidToken
	}

	return u.tokenRepo.Blacklist(ctx, claims.ID)
}

func (u *sessionUsecase) RevokeAll(ctx context.Context, userID string) error {
	tokens, err := u.tokenRepo.ListOutstandingByUserID(ctx, userID)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		if err := u.tokenRepo.Blacklist(ctx, token.JTI); err != nil {
			return err
		}
	}

	return nil
}

func (u *sessionUsecase) lookupByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if strings.Contains(identifier, "@") {
		return u.userRepo.GetUserByEmail(ctx, identifier)
	}
	return u.userRepo.GetUserByUsername(ctx, identifier)
}

func (u *sessionUsecase) issueSession(ctx context.Context, user *model.User) (*types.Tokens, error) {
	jti := uuid.NewString()
	now := u.clock.Now()

	accessToken, err := u.signToken(user.ID.Hex(), jti, types.TokenTypeAccess,
		u.cfg.Token.AccessTokenSecret, u.cfg.Token.AccessTokenExpiresIn)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.signToken(user.ID.Hex(), jti, types.TokenTypeRefresh,
		u.cfg.Token.RefreshTokenSecret, u.cfg.Token.RefreshTokenExpiresIn)
	if err != nil {
		return nil, err
	}

	if _, err := u.tokenRepo.RecordOutstanding(ctx, &model.OutstandingToken{
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: now.Add(u.cfg.Token.RefreshTokenExpiresIn),
	}); err != nil {
		return nil, err
	}

	return &types.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (u *sessionUsecase) signToken(userID, jti, tokenType, secret string, expiresIn time.Duration) (string, error) {
	now := u.clock.Now()
	claims := types.SessionClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    u.cfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{u.cfg.Token.Issuer},
		},
	}

	return u.jwtAuth.GenerateToken(claims, secret)
}

func (u *sessionUsecase) parseToken(tokenStr, secret, wantType string) (*types.SessionClaims, error) {
	claims := &types.SessionClaims{}
	if _, err := u.jwtAuth.ValidateTokenWithClaims(tokenStr, secret, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims.TokenType != wantType || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
