package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/blueridgecivic/waterwatch-service/internal/config"
	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/observability"
)

// Ingester receives reports consumed from the stream. Delivery is
// at-least-once; the store deduplicates by report ID and recomputation is
// idempotent, so replays are harmless.
type Ingester interface {
	Ingest(r domain.Report)
}

// Reader consumes the reports topic and feeds each report to the ingester.
type Reader struct {
	reader   *kafkago.Reader
	ingester Ingester
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewReader creates a consumer-group reader for the reports topic.
func NewReader(cfg *config.Config, ingester Ingester, logger *slog.Logger, metrics *observability.Metrics) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaReportsTopic,
		GroupID: cfg.KafkaGroupID,
	})
	return &Reader{reader: r, ingester: ingester, logger: logger, metrics: metrics}
}

// Run consumes until the context is cancelled. Malformed messages are
// logged and skipped; the stream is external input and must not be able to
// wedge the consumer.
func (r *Reader) Run(ctx context.Context) error {
	r.logger.Info("report stream consumer started")
	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("report stream consumer stopping", "reason", ctx.Err())
				return nil
			}
			return fmt.Errorf("read report stream: %w", err)
		}

		report, err := deserializeMessage(msg)
		if err != nil {
			r.logger.Warn("skipping malformed stream message",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			continue
		}

		r.metrics.StreamConsumed.Inc()
		r.ingester.Ingest(report)
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// deserializeMessage unmarshals a stream message into a Report and rejects
// records missing the fields consensus depends on.
func deserializeMessage(msg kafkago.Message) (domain.Report, error) {
	var report domain.Report
	if err := json.Unmarshal(msg.Value, &report); err != nil {
		return domain.Report{}, fmt.Errorf("deserialize report: %w", err)
	}
	if report.ID == "" || report.Location == "" {
		return domain.Report{}, fmt.Errorf("report missing id or location")
	}
	if !report.Status.Valid() {
		return domain.Report{}, fmt.Errorf("report has unknown status %q", report.Status)
	}
	if report.Timestamp.IsZero() {
		return domain.Report{}, fmt.Errorf("report missing timestamp")
	}
	return report, nil
}
