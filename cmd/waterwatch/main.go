package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/blueridgecivic/waterwatch-service/internal/adapter/httpapi"
	kafkaadapter "github.com/blueridgecivic/waterwatch-service/internal/adapter/kafka"
	mongoadapter "github.com/blueridgecivic/waterwatch-service/internal/adapter/mongo"
	"github.com/blueridgecivic/waterwatch-service/internal/adapter/ops"
	"github.com/blueridgecivic/waterwatch-service/internal/config"
	"github.com/blueridgecivic/waterwatch-service/internal/consensus"
	"github.com/blueridgecivic/waterwatch-service/internal/gateway"
	"github.com/blueridgecivic/waterwatch-service/internal/locations"
	"github.com/blueridgecivic/waterwatch-service/internal/observability"
	"github.com/blueridgecivic/waterwatch-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	registry := locations.NewRegistry(locations.DefaultWaterbodies())

	engine, err := consensus.New(registry.SeedStatuses(), consensus.DefaultThresholds(), cfg.VerificationWindow, logger, metrics)
	if err != nil {
		logger.Error("failed to build consensus engine", "error", err)
		os.Exit(1)
	}

	reports := store.New(cfg.DisplayRetention, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document archive (feature-flagged via MONGO_URI / MONGO_ENABLED).
	var archive *mongoadapter.Archive
	var gwArchive gateway.Archiver
	var events httpapi.EventsBoard
	if cfg.MongoEnabled {
		archive, err = mongoadapter.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("mongo archive connect failed", "error", err)
			os.Exit(1)
		}
		gwArchive = archive
		events = archive
	} else {
		logger.Info("mongo archive disabled, running in-memory only")
	}

	// Report stream (feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED).
	var publisher gateway.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("report stream enabled", "topic", cfg.KafkaReportsTopic)
	} else {
		logger.Info("report stream disabled")
	}

	gw := gateway.New(reports, engine, gwArchive, publisher, gateway.ContextIdentity{}, clock, logger, metrics)

	// Replay the in-window report history so consensus state survives
	// restarts, then recompute once to mark the service ready.
	if archive != nil {
		cutoff := clock.Now().UTC().Add(-cfg.VerificationWindow)
		history, err := archive.ReportsSince(ctx, cutoff)
		if err != nil {
			logger.Error("report history replay failed", "error", err)
			os.Exit(1)
		}
		for _, r := range history {
			reports.Append(r)
		}
		logger.Info("report history replayed", "reports", len(history))
	}
	engine.RecomputeAll(reports.Snapshot(), clock.Now().UTC())

	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, gw, logger, metrics)
		go func() {
			if err := reader.Run(ctx); err != nil {
				logger.Error("report stream consumer error", "error", err)
			}
		}()
	}

	checks := []ops.ReadinessCheck{{Name: "consensus", Check: engine.CheckReadiness}}
	if archive != nil {
		checks = append(checks, ops.ReadinessCheck{Name: "archive", Check: archive.Ping})
	}

	apiSrv := httpapi.NewServer(cfg.APIAddr, gw, reports, engine, registry, events, clock, logger)
	opsSrv := ops.NewServer(cfg.OpsAddr, logger, checks...)

	go func() {
		if err := apiSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
		}
	}()
	go func() {
		if err := opsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	// Hourly prune of out-of-window reports. Memory hygiene only: window
	// filtering is re-derived from timestamps at evaluation time.
	go func() {
		ticker := clock.NewTicker(cfg.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				removed := reports.Prune(clock.Now().UTC(), cfg.VerificationWindow)
				if removed > 0 {
					logger.Info("pruned out-of-window reports", "removed", removed)
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("report stream reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("report stream writer close error", "error", err)
		}
	}
	if archive != nil {
		if err := archive.Disconnect(shutdownCtx); err != nil {
			logger.Error("mongo archive disconnect error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
