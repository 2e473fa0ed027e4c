package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// AccountServiceConfig holds the account service configuration parsed from
// environment variables.
type AccountServiceConfig struct {
	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"account_service"`

	AppActivationURL    string `env:"APP_ACTIVATION_URL"`
	AppPasswordResetURL string `env:"APP_PASSWORD_RESET_URL"`

	// RecoveryCodeTTL is how long a password recovery code stays redeemable.
	RecoveryCodeTTL time.Duration `env:"RECOVERY_CODE_TTL" envDefault:"120s"`

	Token TokenConfig `envPrefix:"TOKEN_"`
}

// TokenConfig holds session token signing settings.
type TokenConfig struct {
	Issuer                string        `env:"ISSUER"             envDefault:"account-service"`
	AccessTokenSecret     string        `env:"ACCESS_SECRET"`
	AccessTokenExpiresIn  time.Duration `env:"ACCESS_EXPIRES_IN"  envDefault:"15m"`
	RefreshTokenSecret    string        `env:"REFRESH_SECRET"`
	RefreshTokenExpiresIn time.Duration `env:"REFRESH_EXPIRES_IN" envDefault:"720h"`
}

// NewAccountServiceConfig parses and validates the configuration from
// environment variables.
func NewAccountServiceConfig(logger *zerolog.Logger) *AccountServiceConfig {
	cfg, err := env.ParseAs[AccountServiceConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate account service configuration")
	}

	return &cfg
}

// validate checks that the settings without usable defaults are present.
func (c *AccountServiceConfig) validate() error {
	if c.Token.AccessTokenSecret == "" {
		return fmt.Errorf("missing TOKEN_ACCESS_SECRET environment variable")
	}
	if c.Token.RefreshTokenSecret == "" {
		return fmt.Errorf("missing TOKEN_REFRESH_SECRET environment variable")
	}
	if c.RecoveryCodeTTL <= 0 {
		return fmt.Errorf("RECOVERY_CODE_TTL must be positive")
	}

	return nil
}
