package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"modelhub-backend/internal/auth"
	"modelhub-backend/internal/cache"
	"modelhub-backend/internal/config"
	"modelhub-backend/internal/handlers"
	"modelhub-backend/internal/metrics"
	"modelhub-backend/internal/middleware"
	"modelhub-backend/internal/notify"
	"modelhub-backend/internal/repository"
	"modelhub-backend/internal/services"
	"modelhub-backend/internal/session"
	"modelhub-backend/internal/storage"
	"modelhub-backend/internal/tracing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultConfigPath = "config.yaml"

func Run() {
	// Load configuration
	path := os.Getenv("MODELHUB_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Tracing
	shutdownTracer := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		shutdownTracer, err = tracing.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
	}

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := repository.RunMigrations(cfg.Database.MigrationURL()); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	modelRepo := repository.NewModelRepository(db)
	downloadRepo := repository.NewDownloadRepository(db)

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to create blob store")
	}

	modelCache, closeCache, err := newModelCache(ctx, cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Cache.Driver).Msg("Failed to create model cache")
	}
	defer closeCache()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Notifications
	wsHub := services.NewWSHub()
	var pusher notify.Pusher
	if cfg.APNs.Enabled {
		apns, err := notify.NewAPNsPusher(cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pusher = apns
	}

	// Initialize services
	profileService := services.NewProfileService(profileRepo)
	dispatcher := notify.NewDispatcher(wsHub, profileService, pusher)
	modelService := services.NewModelService(modelRepo, downloadRepo, blobs, modelCache, dispatcher, collector)
	authService := auth.NewService(accountRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	sessions := session.NewFactory(authService, profileService, session.Options{
		InitTimeout: cfg.Session.InitTimeout,
		Metrics:     collector,
	})

	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	defer loginLimiter.Stop()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics(collector))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler(registry))

	handlers.Mount(r, handlers.Routes{
		Auth:         handlers.NewAuthHandler(sessions),
		Profiles:     handlers.NewProfileHandler(profileService),
		Models:       handlers.NewModelHandler(modelService),
		Sessions:     handlers.NewSessionHandler(sessions, wsHub),
		Validator:    authService,
		LoginLimiter: loginLimiter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(r, "modelhub"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// pending download notices
	dispatcher.Wait()

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown tracer")
	}

	log.Info().Msg("Server exited")
}

func newBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, error) {
	switch cfg.Driver {
	case "minio":
		return storage.NewMinioStore(ctx, cfg)
	default:
		return storage.NewS3Store(ctx, cfg)
	}
}

func newModelCache(ctx context.Context, cfg config.CacheConfig) (cache.ModelCache, func(), error) {
	switch cfg.Driver {
	case "redis":
		c, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {
			if err := c.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close redis")
			}
		}, nil
	case "none":
		return cache.Nop{}, func() {}, nil
	default:
		return cache.NewLRU(cfg.Size, cfg.TTL), func() {}, nil
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
