package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/analysis"
	"github.com/trogers1052/largecap-roi-service/internal/api"
	"github.com/trogers1052/largecap-roi-service/internal/cache"
	"github.com/trogers1052/largecap-roi-service/internal/config"
	"github.com/trogers1052/largecap-roi-service/internal/database"
	"github.com/trogers1052/largecap-roi-service/internal/kafka"
	"github.com/trogers1052/largecap-roi-service/internal/logging"
	"github.com/trogers1052/largecap-roi-service/internal/marketdata"
	"github.com/trogers1052/largecap-roi-service/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	log.WithField("watchlist", cfg.Analysis.Watchlist).Info("Large-cap ROI service starting")

	// prices and ROI values are emitted as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database migrations applied")

	resultCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to redis")
	}
	defer resultCache.Close()

	gateway := marketdata.NewYahooGateway(cfg.MarketData.BaseURL, cfg.MarketData.Timeout)

	svc := analysis.NewService(gateway, db, analysis.Options{
		Watchlist:          cfg.Analysis.Watchlist,
		MarketCapThreshold: cfg.Analysis.MarketCapThreshold,
		ROIWindowDays:      cfg.Analysis.ROIWindowDays,
		TopN:               cfg.Analysis.TopN,
	}, log.WithField("component", "analysis")).
		WithInvalidator(resultCache)

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		svc.WithPublisher(producer)

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.RefreshTopic, cfg.Kafka.GroupID, svc, log.WithField("component", "kafka"))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.WithError(err).Error("Kafka consumer stopped")
			}
		}()
		log.WithField("brokers", cfg.Kafka.Brokers).Info("Kafka enabled")
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(ctx, svc, db, cfg.Analysis.ROIWindowDays, log.WithField("component", "scheduler"))
		if err := sched.Register(cfg.Scheduler.UpdateCron); err != nil {
			log.WithError(err).Fatal("Failed to register scheduled update")
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Scheduler.RunOnStart {
			go func() {
				if _, err := sched.RunNow(ctx); err != nil {
					log.WithError(err).Error("Startup update failed")
				}
			}()
		}
	}

	handler := api.NewHandler(svc, db, resultCache, log.WithField("component", "api"))
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.SetupRoutes(handler, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	log.Info("Large-cap ROI service stopped")
}
