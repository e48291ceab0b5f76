package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/SeeSense-AK/dublin-dashboard/internal/adapter/groq"
	"github.com/SeeSense-AK/dublin-dashboard/internal/adapter/httpapi"
	kafkaadapter "github.com/SeeSense-AK/dublin-dashboard/internal/adapter/kafka"
	"github.com/SeeSense-AK/dublin-dashboard/internal/adapter/postgres"
	"github.com/SeeSense-AK/dublin-dashboard/internal/adapter/rediscache"
	"github.com/SeeSense-AK/dublin-dashboard/internal/analysis"
	"github.com/SeeSense-AK/dublin-dashboard/internal/config"
	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
	"github.com/SeeSense-AK/dublin-dashboard/internal/loader"
	"github.com/SeeSense-AK/dublin-dashboard/internal/observability"
	"github.com/SeeSense-AK/dublin-dashboard/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Initialize the AI insighter (feature-flagged via GROQ_API_KEY /
	// INSIGHT_ENABLED). When disabled, hotspots get the rule-based fallback.
	var insighter domain.Insighter
	var redisCache *rediscache.CachedInsighter
	if cfg.InsightEnabled {
		client := groq.NewClient(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqTimeout, logger)
		if cfg.RedisAddr != "" {
			redisCache, err = rediscache.New(client, cfg.RedisAddr, cfg.InsightTTL, logger)
			if err != nil {
				logger.Error("redis unavailable, falling back to in-process cache", "addr", cfg.RedisAddr, "error", err)
				insighter = groq.NewCachedInsighter(client, cfg.InsightCacheSize)
			} else {
				insighter = redisCache
				logger.Info("redis insight cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.InsightTTL)
			}
		} else {
			insighter = groq.NewCachedInsighter(client, cfg.InsightCacheSize)
		}
		logger.Info("ai insights enabled", "model", cfg.GroqModel, "max_hotspots", cfg.InsightMaxHotspots)
	} else {
		logger.Info("ai insights disabled, using rule-based summaries")
	}

	var publisher analysis.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var store analysis.Store
	var pgStore *postgres.Store
	if cfg.PostgresDSN != "" {
		pgStore, err = postgres.New(cfg.PostgresDSN, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		store = pgStore
		logger.Info("postgres persistence enabled")
	}

	reports, err := report.NewGenerator(cfg.ReportDir)
	if err != nil {
		logger.Error("failed to create report directory", "dir", cfg.ReportDir, "error", err)
		os.Exit(1)
	}

	svc := analysis.New(analysis.Params{
		Loader: loader.New(logger),
		Paths: loader.Paths{
			SensorCSV: cfg.SensorCSV,
			InfraCSV:  cfg.InfraCSV,
			RideCSV:   cfg.RideCSV,
		},
		Cluster: domain.ClusterConfig{
			RadiusM:           cfg.ClusterRadiusM,
			MinClusterSize:    cfg.MinClusterSize,
			SeverityThreshold: cfg.SeverityThreshold,
			SeverityWeight:    cfg.SeverityWeight,
		},
		MatchRadiusM: cfg.MatchRadiusM,
		Trend: domain.TrendConfig{
			Granularity: cfg.TrendGranularity,
			Window:      cfg.TrendWindow,
			ZThreshold:  cfg.AnomalyThreshold,
		},
		Insighter:          insighter,
		InsightMaxHotspots: cfg.InsightMaxHotspots,
		InsightConcurrency: cfg.InsightConcurrency,
		Publisher:          publisher,
		Store:              store,
		Logger:             logger,
		Metrics:            metrics,
	})

	srv := httpapi.NewServer(cfg.HTTPAddr, svc, reports, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial analysis run.
	go func() {
		if err := svc.Run(ctx); err != nil {
			logger.Error("analysis run failed", "error", err)
		}
	}()

	// Scheduled refresh (empty schedule disables it).
	var scheduler *cron.Cron
	if cfg.RefreshSchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.RefreshSchedule, func() {
			if err := svc.Run(ctx); err != nil {
				logger.Error("scheduled analysis run failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("invalid refresh schedule", "schedule", cfg.RefreshSchedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		logger.Info("scheduled refresh enabled", "schedule", cfg.RefreshSchedule)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		// Wait for any in-flight scheduled run to finish.
		<-scheduler.Stop().Done()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if pgStore != nil {
		if err := pgStore.Close(); err != nil {
			logger.Error("postgres close error", "error", err)
		}
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
