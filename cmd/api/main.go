//	@title			Wireframe-to-Code API
//	@version		1.0
//	@description	Image upload backend for the wireframe-to-code tool.
//
//	@host		localhost:8080
//	@BasePath	/api

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/wireframe/service/internal/config"
	"github.com/wireframe/service/internal/keygen"
	"github.com/wireframe/service/internal/logger"
	"github.com/wireframe/service/internal/metrics"
	appMiddleware "github.com/wireframe/service/internal/middleware"
	"github.com/wireframe/service/internal/storage"
	"github.com/wireframe/service/internal/upload"

	_ "github.com/wireframe/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// The storage client is built once and shared by every request.
	store, err := storage.New(context.Background(), storage.Config{
		Driver:       cfg.StorageDriver,
		AccountID:    cfg.StorageAccountID,
		Endpoint:     cfg.StorageEndpoint,
		AccessKey:    cfg.StorageAccessKey,
		SecretKey:    cfg.StorageSecretKey,
		Bucket:       cfg.StorageBucket,
		PublicBase:   cfg.StoragePublicBase,
		UseSSL:       cfg.StorageUseSSL,
		EnsureBucket: cfg.StorageEnsureBucket,
		Logger:       log.Named("storage"),
	})
	if err != nil {
		log.Fatal("object storage init failed", zap.Error(err))
	}

	m := metrics.New(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	// Wire dependencies: storage → service → handler
	uploadSvc := upload.NewService(store, keygen.New(), cfg.UploadTimeout, m, log)
	uploadHandler := upload.NewHandler(uploadSvc, cfg.UploadMaxBytes, log)

	r := newRouter(cfg, log, m, uploadHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.UploadTimeout,
		WriteTimeout: cfg.UploadTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("storage_driver", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newRouter(cfg *config.Config, log *zap.Logger, m *metrics.Metrics, uploadHandler *upload.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(appMiddleware.Metrics(m))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.Upload)
	})

	return r
}
