package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/handler"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/middleware"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/router"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/usecase"
	"github.com/vasapolrittideah/healthify-api/shared/auth"
	"github.com/vasapolrittideah/healthify-api/shared/discovery"
	"github.com/vasapolrittideah/healthify-api/shared/logger"
	"github.com/vasapolrittideah/healthify-api/shared/mailer"
	"github.com/vasapolrittideah/healthify-api/shared/security"
	"github.com/vasapolrittideah/healthify-api/shared/sms"
	"github.com/vasapolrittideah/healthify-api/shared/utilities"
	"github.com/vasapolrittideah/healthify-api/shared/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel, cfg.Discovery.ServiceName)

	hasher, err := security.NewPasswordHasher(cfg.PasswordHasherConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create password hasher")
	}

	jwtAuth, err := auth.NewJWTAuthenticator(
		cfg.Token.Secret,
		cfg.Token.Audience,
		cfg.Token.Issuer,
		auth.WithTTL(cfg.Token.ExpiresIn),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create jwt authenticator")
	}

	ctx := context.Background()

	var userRepo repository.UserRepository
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory user store; data is lost on restart")
		userRepo = repository.NewUserMemoryRepository(hasher)
	default:
		client, err := connectMongo(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to disconnect from mongodb")
			}
		}()

		log.Info().Str("database", cfg.Database.Name).Msg("connected to mongodb")
		userRepo = repository.NewUserMongoRepository(ctx, log, client.Database(cfg.Database.Name), hasher)
	}

	validator := validation.New()
	exposeErrors := cfg.ExposeErrorDetails()

	authUsecase := usecase.NewAuthUsecase(userRepo, hasher, jwtAuth, validator, log)
	profileUsecase := usecase.NewProfileUsecase(userRepo, validator, log)

	var sosHandler *handler.SOSHandler
	if smsSender := newSMSSender(&cfg.SMS, log); smsSender != nil {
		sosUsecase := usecase.NewSOSUsecase(userRepo, smsSender, newEmailSender(&cfg.Mailer, log), cfg.SMS.TestNumber, log)
		sosHandler = handler.NewSOSHandler(sosUsecase, log, exposeErrors)
	} else {
		log.Warn().Msg("twilio credentials not configured; SOS routes are disabled")
	}

	authRateLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create auth rate limiter")
	}

	httpRouter := router.NewRouter(router.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authUsecase, log, exposeErrors),
		ProfileHandler: handler.NewProfileHandler(profileUsecase, log, exposeErrors),
		SOSHandler:     sosHandler,
		HealthHandler:  handler.NewHealthHandler(userRepo, cfg.Server.Environment, log),
		Authenticator:  middleware.NewAuthenticator(jwtAuth, userRepo, log, exposeErrors),
		Logger:         log,
		Secure:         middleware.NewSecure(middleware.SecureOptions(cfg.IsDevelopment())),
		CORS:           middleware.NewCORS(cfg.Server.CORSAllowedOrigins),
		AuthRateLimit:  authRateLimit,
		Metrics:        true,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           httpRouter,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	var grpcServer *grpc.Server
	var healthServer *health.Server
	if cfg.Server.GRPCHealthPort > 0 {
		grpcServer, healthServer = startGRPCHealth(cfg, log)
	}

	var registry *discovery.Registry
	var instanceID string
	if cfg.Discovery.ConsulAddr != "" {
		registry, instanceID = registerService(cfg, log)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	if registry != nil && instanceID != "" {
		if err := registry.Deregister(instanceID); err != nil {
			log.Error().Err(err).Msg("failed to deregister service")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if grpcServer != nil {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}

	log.Info().Msg("server stopped")
}

func connectMongo(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

func newSMSSender(cfg *sms.Config, log *zerolog.Logger) usecase.SMSSender {
	if !cfg.Enabled() {
		return nil
	}

	sender, err := sms.NewTwilioSender(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize twilio client")
		return nil
	}

	log.Info().Msg("twilio client initialized")
	return sender
}

func newEmailSender(cfg *mailer.Config, log *zerolog.Logger) usecase.EmailSender {
	if !cfg.Enabled() {
		return nil
	}

	m, err := mailer.NewMailer(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("smtp settings incomplete; SOS alerts are sent by SMS only")
		return nil
	}

	return m
}

func startGRPCHealth(cfg *config.UserServiceConfig, log *zerolog.Logger) (*grpc.Server, *health.Server) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCHealthPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen for grpc health")
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, cfg.Discovery.ServiceName)

	go func() {
		log.Info().Int("port", cfg.Server.GRPCHealthPort).Msg("grpc health server starting")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc health server")
		}
	}()

	return grpcServer, healthServer
}

func registerService(cfg *config.UserServiceConfig, log *zerolog.Logger) (*discovery.Registry, string) {
	registry, err := discovery.NewConsulRegistry(cfg.Discovery.ConsulAddr)
	if err != nil {
		log.Error().Err(err).Msg("failed to create consul registry")
		return nil, ""
	}

	instanceID, err := registry.Register(discovery.Registration{
		Name:       cfg.Discovery.ServiceName,
		Address:    cfg.Discovery.ServiceAddress,
		Port:       cfg.Server.Port,
		HealthPath: "/api/v1/health",
		Tags:       []string{"http", cfg.Server.Environment},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to register service with consul")
		return nil, ""
	}

	log.Info().Str("instance_id", instanceID).Msg("registered with consul")
	return registry, instanceID
}
