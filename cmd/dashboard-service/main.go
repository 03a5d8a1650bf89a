package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/zyntel-ai/labops/pkg/analytics/dates"
	"github.com/zyntel-ai/labops/pkg/analytics/opday"
	"github.com/zyntel-ai/labops/pkg/analytics/units"
	"github.com/zyntel-ai/labops/pkg/common/config"
	"github.com/zyntel-ai/labops/pkg/common/database"
	"github.com/zyntel-ai/labops/pkg/common/kafka"
	"github.com/zyntel-ai/labops/pkg/common/logger"
	"github.com/zyntel-ai/labops/pkg/common/models"
	"github.com/zyntel-ai/labops/pkg/dashboard"
	"github.com/zyntel-ai/labops/pkg/gateway/httpclient"
	"github.com/zyntel-ai/labops/pkg/gateway/middleware"
	"github.com/zyntel-ai/labops/pkg/observability/metrics"
	"github.com/zyntel-ai/labops/pkg/source"
	"gorm.io/gorm"
)

func main() {
	logger.Init()
	cfg := config.Load()
	m := metrics.New()

	catalog, err := units.Load(cfg.UnitCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load unit catalog")
	}

	days := opday.NewResolver(config.Location(cfg.LabTimezone), opday.WithDayStart(time.Duration(cfg.DayStartHour)*time.Hour))
	normalizer := dates.NewNormalizer(dates.WithSourceZone(config.Location(cfg.SourceTimezone)))

	specs := map[dashboard.Kind]string{
		dashboard.TAT:     cfg.TATSource,
		dashboard.Revenue: cfg.RevenueSource,
		dashboard.Numbers: cfg.NumbersSource,
	}

	var db *gorm.DB
	for _, spec := range specs {
		if strings.HasPrefix(spec, "table:") {
			if db, err = database.GetPostgres(cfg); err != nil {
				logger.Log.WithError(err).Fatal("Failed to connect to reporting database")
			}
			break
		}
	}
	deps := source.Deps{
		DB:          db,
		HTTP:        httpclient.New(cfg.UpstreamTimeout),
		Retries:     cfg.UpstreamRetries,
		RetryDelay:  250 * time.Millisecond,
		BearerToken: cfg.UpstreamToken,
	}

	var cache source.Cache
	if cfg.SourceCacheTTL > 0 {
		cache = source.NewRedisCache(database.GetRedis(cfg))
	}

	opts := []dashboard.Option{
		dashboard.WithNormalizer(normalizer),
		dashboard.WithResolver(days),
		dashboard.WithCatalog(catalog),
		dashboard.WithMetrics(m),
		dashboard.WithDefaultTopN(cfg.DefaultTopN),
	}
	for kind, spec := range specs {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		src, err := source.Open(spec, deps)
		if err != nil {
			logger.Log.WithError(err).WithField("dashboard", kind).Fatal("Invalid dashboard source")
		}
		if cache != nil {
			src = source.NewCachedSource(src, cache, string(kind), cfg.SourceCacheTTL, m)
		}
		logger.WithDashboard(string(kind)).WithField("source", src.Describe()).Info("Dashboard source configured")
		opts = append(opts, dashboard.WithSource(kind, src))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var producer *kafka.Producer
	var consumer *kafka.Consumer
	if cfg.DatasetTopic != "" {
		producer = kafka.NewProducer(cfg.DatasetTopic)
		opts = append(opts, dashboard.WithPublisher(producer))
	}
	svc := dashboard.NewService(opts...)

	if cfg.DatasetTopic != "" {
		consumer = kafka.NewConsumer(cfg.DatasetTopic, cfg.KafkaGroupID)
		go func() {
			if err := consumer.Consume(ctx, svc.HandleDatasetEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.WithError(err).Error("Dataset event consumer stopped")
			}
		}()
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := models.HealthResponse{
			Status:    "healthy",
			Service:   "dashboard-service",
			Sources:   svc.Sources(),
			Timestamp: time.Now().UTC(),
		}
		status := http.StatusOK
		if db != nil {
			pingCtx, pingCancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer pingCancel()
			if err := database.PingPostgres(pingCtx, db); err != nil {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	dashboard.NewHTTPHandler(svc, cfg.MaxRequestBody).Register(router)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      cors(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":     cfg.ServerHost,
			"port":     cfg.ServerPort,
			"timezone": days.Location().String(),
		}).Info("Dashboard service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down dashboard service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	if consumer != nil {
		consumer.Close()
	}
	if producer != nil {
		producer.Close()
	}
	if cache != nil {
		database.CloseRedis()
	}
	if db != nil {
		database.ClosePostgres()
	}

	logger.Log.Info("Dashboard service stopped")
}
