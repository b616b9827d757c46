package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Drmedkit/Bouw/internal/catalog"
	"github.com/Drmedkit/Bouw/internal/conversation"
	"github.com/Drmedkit/Bouw/internal/http/handlers"
	httpapi "github.com/Drmedkit/Bouw/internal/http/httpapi"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/infra/credentials"
	"github.com/Drmedkit/Bouw/internal/infra/geoip"
	"github.com/Drmedkit/Bouw/internal/jobs"
	"github.com/Drmedkit/Bouw/internal/middleware"
	"github.com/Drmedkit/Bouw/internal/notify"
	"github.com/Drmedkit/Bouw/internal/providers/genai"
	"github.com/Drmedkit/Bouw/internal/storage"
	"github.com/Drmedkit/Bouw/internal/theme"
)

const jobDrainTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}

	// Postgres backs both the lead store and stored provider keys.
	var (
		pool  *pgxpool.Pool
		creds *credentials.Store
	)
	if cfg.LeadStore == infra.LeadStorePostgres {
		pool, err = infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		creds = credentials.NewStore(infra.NewSQLRunner(pool, logger))
		if err := creds.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare integration_tokens")
		}
	}

	keys, err := resolveKeys(ctx, cfg, creds)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve provider keys")
	}

	gemini, err := genai.NewClient(genai.Options{
		APIKey:            keys.gemini,
		BaseURL:           cfg.GeminiBaseURL,
		Model:             cfg.GeminiModel,
		ImageModel:        cfg.GeminiImageModel,
		Logger:            &logger,
		SyntheticFallback: cfg.SyntheticImages,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}
	completer := buildCompleter(cfg, keys, gemini, logger)

	var files *storage.FileStore
	if cfg.ImageProvider != "none" {
		files, err = storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare asset storage")
		}
	}
	images, err := buildImages(cfg, gemini, files)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image generator")
	}

	leads, closer, err := openLeadStore(ctx, cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.LeadStore).Msg("failed to open lead store")
	}
	defer closer.Close()

	orchOpts := jobs.Options{
		Documents:      completer,
		Images:         images,
		Catalog:        cat,
		Logger:         &logger,
		PrimaryTimeout: cfg.JobPrimaryTimeout,
		AssetTimeout:   cfg.JobAssetTimeout,
	}
	if leads != nil {
		orchOpts.Persister = leads
	}
	if cfg.NotifyWebhookURL != "" {
		orchOpts.Notifier = notify.NewWebhook(cfg.NotifyWebhookURL, cfg.NotifyWebhookSecret)
	}

	store := jobs.NewStore()
	orch, err := jobs.NewOrchestrator(store, orchOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	turns, err := conversation.NewHandler(conversation.Options{
		Completer: completer,
		Jobs:      orch,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build conversation handler")
	}

	designer, err := theme.NewDesigner(completer, cat)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build theme designer")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, falling back to accept-language")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := &handlers.App{
		Conversations:  turns,
		Jobs:           store,
		Designer:       designer,
		Logger:         &logger,
		RequireContact: cfg.RequireContactForArtifact,
		Started:        time.Now(),
	}
	if leads != nil {
		app.Archive = leads
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		Static:          staticFiles(files, images),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("prompt_provider", cfg.PromptProvider).
			Str("image_provider", cfg.ImageProvider).
			Str("lead_store", cfg.LeadStore).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := orch.Shutdown(jobDrainTimeout); err != nil {
		logger.Warn().Err(err).Msg("jobs still running at shutdown")
	}
	logger.Info().Msg("server stopped")
}
