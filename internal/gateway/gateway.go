// Package gateway turns raw citizen observations into well-formed reports
// and feeds them to the store and the consensus engine.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/blueridgecivic/waterwatch-service/internal/consensus"
	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/observability"
	"github.com/blueridgecivic/waterwatch-service/internal/store"
)

// Archiver is the durable document-store collaborator. A failed append
// aborts the submission before anything is counted toward consensus.
type Archiver interface {
	AppendReport(ctx context.Context, r domain.Report) error
}

// Publisher fans an accepted report out to the report stream. Publishing is
// best-effort: the local store already holds the report, so a stream outage
// degrades replica convergence, not correctness.
type Publisher interface {
	Publish(ctx context.Context, r domain.Report) error
}

// User identifies a submitter.
type User struct {
	ID        string
	Anonymous bool
}

// Identity is the opaque auth collaborator. It stamps SubmitterID on new
// reports and is never consulted for consensus weighting.
type Identity interface {
	CurrentUser(ctx context.Context) (User, bool)
}

// Receipt is returned for every accepted submission so callers can render
// the verification state and, when unverified, how many more corroborating
// reports are needed.
type Receipt struct {
	Report       domain.Report    `json:"report"`
	Verification consensus.Result `json:"verification"`
}

// Gateway validates, normalizes, and submits observations. Archive,
// publisher, and identity are optional; a nil collaborator disables that
// step.
type Gateway struct {
	store     *store.Store
	engine    *consensus.Engine
	archive   Archiver
	publisher Publisher
	identity  Identity
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Gateway.
func New(st *store.Store, engine *consensus.Engine, archive Archiver, publisher Publisher, identity Identity, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		store:     st,
		engine:    engine,
		archive:   archive,
		publisher: publisher,
		identity:  identity,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Submit normalizes a raw observation into a Report, persists it, and
// triggers a consensus recomputation. ID and timestamp are assigned here,
// never taken from the client. On a validation or persistence error nothing
// reaches the store, so a failed submission is never counted.
func (g *Gateway) Submit(ctx context.Context, obs domain.RawObservation) (Receipt, error) {
	if err := obs.Validate(); err != nil {
		g.metrics.ReportsRejected.Inc()
		return Receipt{}, err
	}

	now := g.clock.Now().UTC()
	report := domain.Report{
		ID:             uuid.NewString(),
		Location:       obs.Location,
		Status:         domain.DeriveStatus(obs.WaterCondition),
		WaterCondition: obs.WaterCondition,
		Coordinates:    obs.Coordinates,
		Description:    obs.Description,
		Odor:           obs.Odor,
		Contact:        obs.Contact,
		Timestamp:      now,
		Anonymous:      true,
	}
	if g.identity != nil {
		if user, ok := g.identity.CurrentUser(ctx); ok {
			report.SubmitterID = user.ID
			report.Anonymous = user.Anonymous
		}
	}

	if g.archive != nil {
		if err := g.archive.AppendReport(ctx, report); err != nil {
			g.metrics.PersistenceError.Inc()
			g.logger.Error("archive append failed", "error", err, "location", report.Location)
			return Receipt{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
	}

	g.store.Append(report)

	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, report); err != nil {
			g.metrics.StreamPublishFailures.Inc()
			g.logger.Warn("report stream publish failed", "error", err, "report_id", report.ID)
		} else {
			g.metrics.StreamPublished.Inc()
		}
	}

	snapshot := g.store.Snapshot()
	g.engine.RecomputeAll(snapshot, now)
	result := g.engine.Evaluate(report.Location, snapshot, now)

	g.metrics.ReportsSubmitted.Inc()
	g.logger.Info("report accepted",
		"report_id", report.ID,
		"location", report.Location,
		"status", report.Status,
		"verified", result.IsVerified,
		"remaining", result.Remaining,
	)

	return Receipt{Report: report, Verification: result}, nil
}

// Ingest adds a report that originated elsewhere (the report stream) to the
// local store and recomputes. Replayed reports are deduplicated by ID in
// the store, and recomputation is idempotent, so at-least-once delivery is
// safe.
func (g *Gateway) Ingest(r domain.Report) {
	g.store.Append(r)
	g.engine.RecomputeAll(g.store.Snapshot(), g.clock.Now().UTC())
}
