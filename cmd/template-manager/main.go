// cmd/template-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"template-manager/internal/common/config"
	"template-manager/internal/common/database"
	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/common/logger"
	"template-manager/internal/common/observability"
	"template-manager/internal/manager"
	"template-manager/internal/models"
	"template-manager/internal/store"
	"template-manager/internal/validation"
	"template-manager/internal/versioning"
	"template-manager/pkg/catalog"
)

// retryWithBackoff retries an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = operation()
		if err == nil {
			if attempt > 1 {
				log.Info("Operation succeeded after retry",
					zap.String("operation", operationName),
					zap.Int("attempt", attempt))
			}
			return nil
		}

		if attempt < maxRetries {
			log.Warn("Operation failed, retrying",
				zap.String("operation", operationName),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Duration("retry_delay", delay),
				zap.Error(err))
			time.Sleep(delay)
			delay *= 2
		}
	}

	log.Error("Operation failed after all retries",
		zap.String("operation", operationName),
		zap.Int("max_retries", maxRetries),
		zap.Error(err))
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting template manager",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// PostgreSQL is the system of record; refuse to start without it.
	var pgClient *database.PostgresClient
	err = retryWithBackoff(func() error {
		var initErr error
		pgClient, initErr = database.NewPostgres(cfg.Database.Postgres)
		if initErr != nil {
			return initErr
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pgClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "postgres_init")
	if err != nil {
		zapLog.Fatal("Failed to initialize PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()

	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var initErr error
		redisClient, initErr = database.NewRedis(cfg.Database.Redis)
		if initErr != nil {
			return initErr
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "redis_init")
	if err != nil {
		zapLog.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var initErr error
			esClient, initErr = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if initErr != nil {
				return initErr
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "elasticsearch_init")
		if err != nil {
			zapLog.Fatal("Failed to initialize Elasticsearch", zap.Error(err))
		}
	}

	templateStore := store.NewPostgres(pgClient)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = templateStore.EnsureSchema(ctx)
		cancel()
		if err != nil {
			zapLog.Fatal("Failed to ensure database schema", zap.Error(err))
		}
	}

	validator, err := validation.New(validation.WithWeightOverrides(cfg.Scoring.Weights))
	if err != nil {
		zapLog.Fatal("Failed to build validation engine", zap.Error(err))
	}

	opts := []manager.Option{
		manager.WithCache(redisClient, cfg.Cache.PopularTTL),
	}
	if esClient != nil {
		opts = append(opts, manager.WithIndexer(
			manager.NewIndexer(esClient, cfg.Database.Elasticsearch.Index, log)))
	}

	svc := manager.New(
		templateStore,
		versioning.NewService(templateStore, log),
		validator,
		cfg.Search,
		log,
		opts...,
	)

	if cfg.Catalog.Seed {
		if err := seedCatalog(context.Background(), cfg.Catalog.Path, templateStore, validator, zapLog); err != nil {
			zapLog.Fatal("Failed to seed starter catalog", zap.Error(err))
		}
	}

	// Health, metrics, and read-only template listener.
	httpServer := startHTTPServer(cfg.Metrics.Address, pgClient, svc, zapLog)

	zapLog.Info("Template manager started",
		zap.String("metrics_address", cfg.Metrics.Address),
		zap.Bool("elasticsearch", esClient != nil))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down template manager")
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			zapLog.Warn("HTTP server shutdown failed", zap.Error(err))
		}
	}
	zapLog.Info("Template manager stopped")
}

// seedCatalog loads the starter catalog and inserts any template not already
// present. Existing templates are never overwritten.
func seedCatalog(ctx context.Context, path string, st store.TemplateStore, validator *validation.Engine, log *zap.Logger) error {
	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}

	seeded := 0
	for _, tpl := range cat.Seeds("system") {
		if _, err := st.GetLatest(ctx, tpl.TemplateID); err == nil {
			continue
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		if result := validator.Validate(tpl); !result.IsValid {
			log.Warn("Skipping invalid catalog entry",
				zap.String("template_id", tpl.TemplateID),
				zap.Int("critical_errors", len(result.CriticalErrors())))
			continue
		}

		if err := st.Insert(ctx, tpl); err != nil {
			if apperrors.IsConflict(err) {
				continue
			}
			return err
		}
		seeded++
	}

	log.Info("Starter catalog seeded",
		zap.String("path", path),
		zap.Int("entries", len(cat.Templates)),
		zap.Int("seeded", seeded))
	return nil
}

func startHTTPServer(address string, pgClient *database.PostgresClient, svc *manager.Service, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := pgClient.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	mux.HandleFunc("/templates/popular", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		templates, err := svc.GetPopularTemplates(r.Context(), limit)
		writeJSON(w, templates, err)
	})

	mux.HandleFunc("/templates/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		filters := models.SearchFilters{
			Query:      q.Get("q"),
			Creator:    q.Get("creator"),
			Industries: q["industry"],
			Tags:       q["tag"],
		}
		for _, status := range q["status"] {
			filters.Statuses = append(filters.Statuses, models.TemplateStatus(status))
		}

		result, err := svc.SearchTemplates(r.Context(), filters, page, limit)
		writeJSON(w, result, err)
	})

	mux.HandleFunc("/templates/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/templates/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		tpl, err := svc.GetTemplate(r.Context(), id)
		writeJSON(w, tpl, err)
	})

	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: address, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()
	return server
}

func writeJSON(w http.ResponseWriter, payload interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsNotFound(err) {
			status = http.StatusNotFound
		} else if apperrors.IsValidationFailed(err) {
			status = http.StatusBadRequest
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(payload)
}
