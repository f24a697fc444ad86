package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chantier-rapports/internal/api"
	"chantier-rapports/internal/auth"
	"chantier-rapports/internal/config"
	"chantier-rapports/internal/database"
	"chantier-rapports/internal/logging"
	"chantier-rapports/internal/rapports"
	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/storage/provisioner"
)

// @title Chantier Rapports API
// @version 1.0.0
// @description Rangement des rapports de chantier : noms dérivés, dossiers provisionnés, PDF et photos.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Le .env est optionnel
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger, err := logging.NewLogger(
		logging.WithLevel(cfg.LogLevel),
		logging.WithConsole(!cfg.IsProduction()),
		logging.WithField("service", "chantier-rapports"),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create logger")
	}
	zerolog.DefaultContextLogger = logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx)

	if envErr != nil {
		logger.Debug().Err(envErr).Msg(".env file not loaded")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	store, err := storage.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	prov := provisioner.New(store, cfg.Provisioner)
	storageService := storage.NewStorageService(store, prov, cfg.Upload).
		WithPhotoConcurrency(cfg.PhotoConcurrency)

	routerCfg := api.RouterConfig{
		StorageService: storageService,
		Logger:         *logger,
		Environment:    cfg.Environment,
		StorageType:    cfg.Storage.Type,
		AllowedOrigin:  cfg.AllowedOrigin,
		RateLimit:      cfg.RateLimit,
		Swagger:        !cfg.IsProduction(),
	}

	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}

		rapportService := rapports.NewRapportService(rapports.NewRapportRepository(db.DB), storageService)

		cleanup := rapports.NewCleanupService(rapportService, cfg.CleanupInterval, cfg.PurgeAfter)
		go cleanup.Start(ctx)
		defer cleanup.Stop()

		routerCfg.RapportService = rapportService
		routerCfg.DB = db
	} else {
		logger.Warn().Msg("DATABASE_URL empty, rapport routes disabled")
	}

	if cfg.Auth.Disabled {
		logger.Warn().Msg("authentication disabled")
	} else {
		routerCfg.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.SetupRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Environment).
		Str("storage", cfg.Storage.Type).
		Bool("database", cfg.DatabaseURL != "").
		Msg("starting chantier-rapports")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("server shutdown complete")
	return nil
}
