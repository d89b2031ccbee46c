// Package mongo is the document-store collaborator: durable report history
// and the community-events board. The in-memory store and consensus engine
// never read from here on the hot path; the archive exists so report
// history survives restarts and so dashboards can page through it.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blueridgecivic/waterwatch-service/internal/config"
	"github.com/blueridgecivic/waterwatch-service/internal/domain"
)

const (
	reportsCollection = "waterReports"
	eventsCollection  = "communityEvents"
)

// Archive wraps the MongoDB collections backing report history and events.
type Archive struct {
	client  *mongo.Client
	reports *mongo.Collection
	events  *mongo.Collection
	timeout time.Duration
	logger  *slog.Logger
}

// Connect establishes the MongoDB connection, pings it, and ensures
// indexes. Index failures are logged, not fatal: queries still work, just
// slower.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Archive, error) {
	dctx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	a := &Archive{
		client:  client,
		reports: db.Collection(reportsCollection),
		events:  db.Collection(eventsCollection),
		timeout: cfg.MongoTimeout,
		logger:  logger,
	}

	if err := a.ensureIndexes(ctx); err != nil {
		logger.Warn("mongo index creation failed", "error", err)
	}

	logger.Info("mongo archive connected", "database", cfg.MongoDatabase)
	return a, nil
}

// Disconnect closes the underlying client.
func (a *Archive) Disconnect(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

// Ping verifies the connection is still healthy, for readiness probes.
func (a *Archive) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.client.Ping(ctx, nil)
}

// AppendReport durably stores one report. Called by the gateway before the
// report is counted anywhere.
func (a *Archive) AppendReport(ctx context.Context, r domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if _, err := a.reports.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// RecentReports returns up to limit reports, newest first.
func (a *Archive) RecentReports(ctx context.Context, limit int64) ([]domain.Report, error) {
	return a.findReports(ctx, bson.D{}, limit)
}

// ReportsByLocation returns up to limit reports for one location, newest
// first. Location matching is exact, mirroring the consensus engine.
func (a *Archive) ReportsByLocation(ctx context.Context, location string, limit int64) ([]domain.Report, error) {
	return a.findReports(ctx, bson.D{{Key: "location", Value: location}}, limit)
}

// ReportsSince returns every report stamped after the cutoff, oldest first,
// for replaying the in-window history into the store at startup.
func (a *Archive) ReportsSince(ctx context.Context, cutoff time.Time) ([]domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	filter := bson.D{{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: cutoff}}}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cur, err := a.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reports since %s: %w", cutoff.Format(time.RFC3339), err)
	}
	var out []domain.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return out, nil
}

// AppendEvent stores a community event.
func (a *Archive) AppendEvent(ctx context.Context, e domain.CommunityEvent) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if _, err := a.events.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns events newest first. With approvedOnly set, pending
// events are filtered out.
func (a *Archive) ListEvents(ctx context.Context, approvedOnly bool) ([]domain.CommunityEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	filter := bson.D{}
	if approvedOnly {
		filter = bson.D{{Key: "approved", Value: true}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := a.events.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	var out []domain.CommunityEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return out, nil
}

// ApproveEvent marks an event approved. Returns mongo.ErrNoDocuments when
// the ID is unknown.
func (a *Archive) ApproveEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.events.UpdateByID(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{{Key: "approved", Value: true}}},
	})
	if err != nil {
		return fmt.Errorf("approve event: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (a *Archive) findReports(ctx context.Context, filter bson.D, limit int64) ([]domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := a.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	var out []domain.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return out, nil
}

func (a *Archive) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "location", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = a.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}
