package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/config"
	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/handlers"
	"github.com/breachlens/breachlens-api/internal/identity"
	"github.com/breachlens/breachlens-api/internal/logger"
	"github.com/breachlens/breachlens-api/internal/middleware"
	"github.com/breachlens/breachlens-api/internal/queue"
	"github.com/breachlens/breachlens-api/internal/services/advice"
	"github.com/breachlens/breachlens-api/internal/services/breach"
	"github.com/breachlens/breachlens-api/internal/services/google"
	"github.com/breachlens/breachlens-api/internal/session"
	"github.com/breachlens/breachlens-api/internal/telemetry"
	"github.com/breachlens/breachlens-api/internal/vault"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for verbose logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing, optional
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "breachlens-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		zapLogger.Fatal("failed_to_apply_migrations", zap.Error(err))
	}
	migrateCancel()
	zapLogger.Info("connected_to_database")

	// Redis backs both sessions and rate limiting
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	pingCancel()
	zapLogger.Info("connected_to_redis")

	jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// Repositories
	userRepo := database.NewUserRepository(db)
	vaultRepo := database.NewVaultRepository(db)
	reportRepo := database.NewBreachReportRepository(db)
	oauthConfigRepo := database.NewOAuthConfigRepository(db)

	// Identity and session services
	provisioner := vault.NewProvisioner(cfg.VaultSaltBytes, cfg.VaultKDFCost)
	googleStrategy := identity.NewGoogleStrategy(userRepo, provisioner, zapLogger)
	localService := identity.NewLocalService(userRepo, provisioner, cfg.BcryptCost, zapLogger)
	sessionManager := session.NewManager(redisClient, cfg.SessionSecret, cfg.SessionTTL)

	// Google sign-in is optional; without a stored provider config the
	// Google routes answer 503 and local auth carries the service.
	var oauthClient handlers.OAuthClient
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 5*time.Second)
	providerCfg, err := oauthConfigRepo.GetByProvider(loadCtx, "google")
	loadCancel()
	switch {
	case err == nil:
		oauthClient = google.NewClient(providerCfg)
		zapLogger.Info("google_sign_in_enabled", zap.String("client_id", providerCfg.ClientID))
	case errors.Is(err, sql.ErrNoRows):
		zapLogger.Warn("google_sign_in_not_configured")
	default:
		zapLogger.Fatal("failed_to_load_oauth_config", zap.Error(err))
	}

	breachClient := breach.NewClient(cfg.BreachAPIBaseURL, cfg.BreachDirURL, cfg.BreachAPIKey, zapLogger)

	var advisor advice.Provider
	if cfg.OpenAIKey != "" {
		advisor = advice.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		zapLogger.Info("ai_advice_enabled", zap.String("model", cfg.AIModel))
	} else {
		advisor = advice.NewStaticProvider()
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(oauthClient, googleStrategy, localService, sessionManager, jobQueue, cfg.FrontendURL, zapLogger)
	vaultHandler := handlers.NewVaultHandler(vaultRepo, zapLogger)
	analysisHandler := handlers.NewAnalysisHandler(breachClient, advisor, reportRepo, jobQueue, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, jobQueue)

	r := mux.NewRouter()

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("breachlens-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimitRate)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.Use(rateLimitMW)
	authHandler.RegisterRoutes(authRouter)

	authMW := middleware.Auth(sessionManager, userRepo, zapLogger)

	meRouter := apiRouter.PathPrefix("/auth/me").Subrouter()
	meRouter.Use(authMW)
	meRouter.HandleFunc("", authHandler.Me).Methods("GET")

	vaultRouter := apiRouter.PathPrefix("/vault").Subrouter()
	vaultRouter.Use(authMW)
	vaultRouter.Use(rateLimitMW)
	vaultHandler.RegisterRoutes(vaultRouter)

	analysisRouter := apiRouter.PathPrefix("/analysis").Subrouter()
	analysisRouter.Use(authMW)
	analysisRouter.Use(rateLimitMW)
	analysisHandler.RegisterRoutes(analysisRouter)

	// Preflight requests fall through to this after CORS has set headers
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	gcCtx, gcCancel := context.WithCancel(context.Background())
	defer gcCancel()

	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(gcCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector")
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	gcCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff to ride out broker
// startup delays.
func connectQueue(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}
