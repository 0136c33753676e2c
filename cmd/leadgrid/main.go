package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/config"
	"github.com/cybernet-io/leadgrid/internal/db"
	"github.com/cybernet-io/leadgrid/internal/grid"
	logpkg "github.com/cybernet-io/leadgrid/internal/logger"
	"github.com/cybernet-io/leadgrid/internal/metrics"
	"github.com/cybernet-io/leadgrid/internal/queue"
	leadrepo "github.com/cybernet-io/leadgrid/internal/repository/lead"
	notificationrepo "github.com/cybernet-io/leadgrid/internal/repository/notification"
	chiTransport "github.com/cybernet-io/leadgrid/internal/transport/chi"
	"github.com/cybernet-io/leadgrid/internal/transport/message"
	leaduc "github.com/cybernet-io/leadgrid/internal/usecase/lead"
	notificationuc "github.com/cybernet-io/leadgrid/internal/usecase/notification"
	"github.com/cybernet-io/leadgrid/internal/version"
	"github.com/cybernet-io/leadgrid/internal/worker"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting leadgrid API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("leads_table", cfg.Database.LeadsTable),
	)

	conn, err := db.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() { _ = conn.Close() }()

	ctx := context.Background()
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := db.WaitForReady(ctx, conn, readiness); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register notification metrics explicitly (no init())
	metrics.RegisterNotificationMetrics()

	// Lead repository: live column types drive the filter grid
	leadRepo := leadrepo.New(conn, cfg.Database.LeadsTable)
	if err := leadRepo.LoadSchema(ctx); err != nil {
		logger.Fatal("Failed to introspect leads schema", zap.Error(err))
	}
	custom, err := customFieldsFromConfig(cfg.Grid.CustomFields)
	if err != nil {
		logger.Fatal("Invalid custom field config", zap.Error(err))
	}
	leadRepo = leadRepo.WithCustomFields(custom)
	logger.Info("Leads schema loaded", zap.Int("custom_fields", len(custom)))

	notifRepo := notificationrepo.New(conn)

	// Retry queue is optional; without Redis failed notifications are not
	// redelivered automatically.
	var retryQueue notificationuc.RetryQueue = noopQueue{logger: logger}
	var streamQueue *queue.Queue
	if len(cfg.Redis.Addrs) > 0 {
		streamQueue, err = queue.New(queue.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			Stream:   cfg.Redis.Stream,
			Group:    cfg.Redis.Group,
		})
		if err != nil {
			logger.Fatal("Failed to create retry queue", zap.Error(err))
		}
		defer streamQueue.Close()

		if err := streamQueue.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Retry queue not ready", zap.Error(err))
		}
		if err := streamQueue.EnsureGroup(ctx); err != nil {
			logger.Fatal("Failed to create consumer group", zap.Error(err))
		}
		retryQueue = streamQueue
		logger.Info("Connected to retry queue",
			zap.String("stream", cfg.Redis.Stream),
			zap.String("group", cfg.Redis.Group))
	} else {
		logger.Warn("Retry queue not configured, failed notifications will not be retried")
	}

	providers := buildProviders(cfg.Messaging, logger)
	if len(providers) == 0 {
		logger.Warn("No messaging providers configured, notification dispatch is disabled")
	}

	leadSvc := leaduc.New(leadRepo, cfg.Grid.DefaultPageSize, cfg.Grid.MaxPageSize)
	notifSvc := notificationuc.New(leadRepo, notifRepo, providers, retryQueue, logger)

	health := map[string]chiTransport.HealthCheck{
		"database": conn.PingContext,
	}
	if streamQueue != nil {
		health["queue"] = streamQueue.Ping
	}

	server := chiTransport.NewServer(leadSvc, notifSvc, health)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	// Retry worker shares the process; its lifetime follows the server's.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if streamQueue != nil {
		w := worker.NewNotifier(
			streamQueue, notifSvc, consumerName(), cfg.Messaging.MaxAttempts, logger)
		go w.Run(workerCtx)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// customFieldsFromConfig maps configured aliases onto grid custom fields.
func customFieldsFromConfig(cfgFields map[string]config.CustomFieldConfig) (grid.CustomFields, error) {
	if len(cfgFields) == 0 {
		return nil, nil
	}
	custom := make(grid.CustomFields, len(cfgFields))
	for name, cf := range cfgFields {
		ft, ok := grid.ParseFieldType(cf.Type)
		if !ok {
			return nil, fmt.Errorf("custom field %q has unknown type %q", name, cf.Type)
		}
		custom[name] = grid.CustomField{Type: ft, Column: cf.Column}
	}
	return custom, nil
}

func buildProviders(cfg config.MessagingConfig, logger *zap.Logger) []notificationuc.Provider {
	var providers []notificationuc.Provider
	if cfg.SMS.BaseURL != "" {
		providers = append(providers, message.NewSMSClient(message.SMSConfig{
			BaseURL:    cfg.SMS.BaseURL,
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			FromNumber: cfg.SMS.FromNumber,
			Logger:     logger,
		}))
	}
	if cfg.Email.BaseURL != "" {
		providers = append(providers, message.NewEmailClient(message.EmailConfig{
			BaseURL:     cfg.Email.BaseURL,
			APIKey:      cfg.Email.APIKey,
			FromAddress: cfg.Email.FromAddress,
			Logger:      logger,
		}))
	}
	return providers
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "leadgrid-worker"
	}
	return host
}

// noopQueue drops retry jobs when no queue backend is configured.
type noopQueue struct {
	logger *zap.Logger
}

func (q noopQueue) Enqueue(_ context.Context, job queue.Job) error {
	q.logger.Warn("dropping retry job, no queue configured",
		zap.String("notification_id", job.NotificationID.String()))
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// The filter grid rides the query string, so the canonical
			// line keeps it alongside the path.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
