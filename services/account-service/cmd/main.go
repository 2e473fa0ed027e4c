package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/config"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/repository"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/usecase"
	"github.com/mentorlink/mentorlink-api/shared/auth"
	"github.com/mentorlink/mentorlink-api/shared/logger"
	"github.com/mentorlink/mentorlink-api/shared/mailer"
	"github.com/mentorlink/mentorlink-api/shared/mongodb"
	"github.com/mentorlink/mentorlink-api/shared/validate"
)

// service groups the usecases a delivery layer (gateway handlers) consumes.
type service struct {
	accounts usecase.AccountUsecase
	resets   usecase.PasswordResetUsecase
	sessions usecase.SessionUsecase
	profiles usecase.ProfileUsecase
}

func main() {
	log := logger.New("account-service")

	cfg := config.NewAccountServiceConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongodb.Disconnect(context.Background(), client); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	db := client.Database(cfg.MongoDatabase)

	userRepo := repository.NewUserMongoRepository(ctx, log, db)
	codeRepo := repository.NewOneTimeCodeMongoRepository(ctx, log, db)
	tokenRepo := repository.NewTokenMongoRepository(ctx, log, db)
	profileRepo := repository.NewProfileMongoRepository(ctx, log, db)

	validator, err := validate.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	clock := usecase.SystemClock()
	notifier := mailer.NewMailer(log)
	scheduler := usecase.NewExpiryScheduler(codeRepo, clock, log)
	defer scheduler.Stop()

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)

	svc := &service{
		accounts: usecase.NewAccountUsecase(
			userRepo, profileRepo, tokenRepo, codeRepo, scheduler, notifier, validator, clock, log, cfg),
		resets: usecase.NewPasswordResetUsecase(
			userRepo, codeRepo, scheduler, notifier, validator, clock, log, cfg),
		sessions: usecase.NewSessionUsecase(userRepo, tokenRepo, jwtAuth, validator, clock, cfg),
		profiles: usecase.NewProfileUsecase(userRepo, profileRepo, validator),
	}

	run(ctx, log, svc)
}

// run blocks until a shutdown signal arrives. The delivery layer mounts the
// service's usecases here once it lands.
func run(ctx context.Context, log *zerolog.Logger, svc *service) {
	if svc.accounts == nil || svc.resets == nil || svc.sessions == nil || svc.profiles == nil {
		log.Fatal().Msg("service is not fully wired")
	}

	log.Info().Msg("account service started")

	<-ctx.Done()

	log.Info().Msg("account service shutting down")
}
