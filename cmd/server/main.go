package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appservice "enrollment/internal/application/service"
	appstore "enrollment/internal/application/store"
	"enrollment/internal/document/extractor"
	"enrollment/internal/document/llm"
	docmetrics "enrollment/internal/document/metrics"
	"enrollment/internal/document/ocr"
	"enrollment/internal/document/pipeline"
	"enrollment/internal/document/storage"
	"enrollment/internal/evidence/linkage"
	"enrollment/internal/intake/handler"
	"enrollment/internal/intake/messages"
	intakemetrics "enrollment/internal/intake/metrics"
	"enrollment/internal/intake/service"
	"enrollment/internal/intake/store/prefill"
	"enrollment/internal/intake/store/session"
	jwttoken "enrollment/internal/jwt_token"
	"enrollment/internal/platform/config"
	"enrollment/internal/platform/httpserver"
	"enrollment/internal/platform/logger"
	"enrollment/internal/platform/metrics"
	"enrollment/internal/platform/middleware"
	"enrollment/internal/ratelimit"
	redisclient "enrollment/internal/platform/redis"
	"enrollment/pkg/platform/audit"
	"enrollment/pkg/platform/audit/publishers/kafka"
	auditmemory "enrollment/pkg/platform/audit/store/memory"
	auditpostgres "enrollment/pkg/platform/audit/store/postgres"
	"enrollment/pkg/platform/audit/worker"
	"enrollment/pkg/platform/httputil"
	"enrollment/pkg/platform/middleware/metadata"
	"enrollment/pkg/platform/middleware/requesttime"
	"enrollment/pkg/platform/pii"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("intake server stopped", "error", err)
		os.Exit(1)
	}
}

// closers run in reverse order on shutdown.
type closers []func(context.Context) error

func (c closers) closeAll(ctx context.Context, log *slog.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			log.Warn("failed to release resource", "error", err)
		}
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var release closers
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		release.closeAll(shutdownCtx, log)
	}()

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		release = append(release, func(context.Context) error { return rdb.Close() })
	}

	sessions, prefills := buildSessionStores(rdb, cfg, log)

	db, err := openDatabase(cfg, log, &release)
	if err != nil {
		return err
	}
	finalizerStore := buildApplicationStore(db)

	registry, err := buildRegistry(ctx, cfg, log, &release)
	if err != nil {
		return err
	}

	objects, err := buildObjectStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	auditor, err := buildAuditor(ctx, cfg, db, log, &release)
	if err != nil {
		return err
	}

	docMetrics := docmetrics.New()
	intakeMetrics := intakemetrics.New()
	httpMetrics := metrics.New()

	chat := llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, log)

	var extractorLLM extractor.LLM
	catalogOpts := []messages.Option{}
	if cfg.LLM.APIKey != "" {
		extractorLLM = chat
		catalogOpts = append(catalogOpts, messages.WithTranslator(chat, cfg.LLM.Timeout))
	} else {
		log.Info("no LLM key configured, extraction runs on patterns and texts stay untranslated")
	}

	recognizer := ocr.NewEngine(ocr.Config{
		Tesseract:  cfg.OCR.Binary,
		Rasterizer: cfg.OCR.Rasterizer,
		Languages:  cfg.OCR.Languages,
		Timeout:    cfg.OCR.Timeout,
	}, log)
	fields := extractor.New(extractorLLM, log,
		extractor.WithTimeout(cfg.LLM.Timeout),
		extractor.WithMetrics(docMetrics),
	)
	docs := pipeline.New(recognizer, fields, log, pipeline.WithMetrics(docMetrics))

	hasher := pii.NewHasher(cfg.Intake.HashKey)
	finalizer := appservice.New(finalizerStore, cfg.Intake.IncomeCeiling, hasher, log,
		appservice.WithMetrics(intakeMetrics),
	)

	machine := service.New(sessions, docs, registry, objects, finalizer,
		messages.NewCatalog(log, catalogOpts...), log,
		service.WithPrefill(prefills),
		service.WithAudit(auditor),
		service.WithHasher(hasher),
		service.WithMetrics(intakeMetrics),
		service.WithIncomeCeiling(cfg.Intake.IncomeCeiling),
		service.WithIdentityCapture(service.IdentityCapture(cfg.Intake.IdentityCapture)),
		service.WithTimeouts(service.Timeouts{
			Document: cfg.OCR.Timeout + cfg.LLM.Timeout,
			Registry: cfg.Registry.Timeout,
			Storage:  cfg.Storage.Timeout,
		}),
	)

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "intake", "intake-dispatcher")
	limiter := ratelimit.NewMiddleware(buildRateLimitStore(rdb), log)
	intake := handler.New(machine, jwt, jwttoken.NewJWTServiceAdapter(jwt), log, httpMetrics,
		handler.WithTokenTTL(cfg.Server.SessionTokenTTL),
		handler.WithRateLimits(
			limiter.PerClientIP("open", ratelimit.Policy{Limit: cfg.RateLimit.SessionsPerIP, Window: cfg.RateLimit.SessionsWindow}),
			limiter.PerSession("messages", ratelimit.Policy{Limit: cfg.RateLimit.MessagesPerSession, Window: cfg.RateLimit.MessagesWindow}),
		),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Get("/health", healthHandler(rdb))
	r.Handle("/metrics", promhttp.Handler())
	intake.Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting intake service", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down intake service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildSessionStores(rdb *redisclient.Client, cfg config.Config, log *slog.Logger) (service.Store, service.PrefillSource) {
	if rdb == nil {
		log.Info("no REDIS_URL configured, sessions are kept in memory")
		return session.NewInMemoryStore(), prefill.NewInMemorySource()
	}
	return session.NewRedis(rdb.Client, cfg.Redis.SessionTTL, session.WithLockTTL(cfg.Redis.SessionLockTTL)), prefill.NewRedisSource(rdb.Client, cfg.Redis.SessionTTL)
}

// openDatabase returns nil when no DATABASE_URL is configured.
func openDatabase(cfg config.Config, log *slog.Logger, release *closers) (*sql.DB, error) {
	if cfg.Postgres.URL == "" {
		log.Info("no DATABASE_URL configured, applications are kept in memory")
		return nil, nil
	}
	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("open application database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	*release = append(*release, func(context.Context) error { return db.Close() })

	for _, schema := range []string{appstore.Schema, auditpostgres.Schema} {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}

func buildRateLimitStore(rdb *redisclient.Client) ratelimit.Store {
	if rdb == nil {
		return ratelimit.NewInMemoryStore()
	}
	return ratelimit.NewRedisStore(rdb.Client)
}

func buildApplicationStore(db *sql.DB) appservice.Store {
	if db == nil {
		return appstore.NewInMemoryStore()
	}
	return appstore.NewPostgres(db)
}

func buildRegistry(ctx context.Context, cfg config.Config, log *slog.Logger, release *closers) (service.Linkage, error) {
	if cfg.Registry.URL == "" {
		log.Warn("no REGISTRY_DATABASE_URL configured, using an empty in-memory linkage registry")
		return linkage.NewInMemoryRegistry(), nil
	}
	pool, err := linkage.Connect(ctx, cfg.Registry.URL)
	if err != nil {
		return nil, err
	}
	*release = append(*release, func(context.Context) error { pool.Close(); return nil })
	if err := linkage.EnsureSchema(ctx, pool); err != nil {
		return nil, err
	}
	return linkage.NewCachedRegistry(linkage.NewPostgresRegistry(pool, cfg.Registry.Timeout), cfg.Registry.CacheTTL), nil
}

func buildObjectStore(ctx context.Context, cfg config.Config, log *slog.Logger) (service.ObjectStore, error) {
	if cfg.Storage.Endpoint == "" {
		log.Warn("no STORAGE_ENDPOINT configured, documents are kept in memory")
		return storage.NewInMemoryStore(), nil
	}
	s3, err := storage.NewS3Store(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		Timeout:   cfg.Storage.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3, nil
}

// buildAuditor prefers the Kafka topic, then the audit table behind a
// background writer, then memory.
func buildAuditor(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger, release *closers) (audit.Emitter, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, kafka.WithLogger(log))
		if err != nil {
			return nil, err
		}
		*release = append(*release, pub.Close)
		if err := pub.EnsureTopic(ctx, 3, 1); err != nil {
			return nil, err
		}
		return pub, nil
	}
	if db != nil {
		w := worker.New(auditpostgres.New(db), 512, log)
		runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
		go w.Run(runCtx)
		*release = append(*release, func(ctx context.Context) error {
			stop()
			return w.Wait(ctx)
		})
		return w, nil
	}
	log.Info("no KAFKA_BROKERS or DATABASE_URL configured, audit events are kept in memory")
	return auditmemory.NewInMemoryStore(), nil
}

func healthHandler(rdb *redisclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "redis": "disabled"}
		code := http.StatusOK
		if rdb != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := rdb.Health(ctx); err != nil {
				status["status"], status["redis"] = "degraded", "unreachable"
				code = http.StatusServiceUnavailable
			} else {
				status["redis"] = "ok"
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
