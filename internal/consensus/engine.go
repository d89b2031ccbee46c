// Package consensus derives a trustworthy per-location water-quality status
// from raw citizen reports. A status is "verified" for a location once
// enough reports inside the rolling window agree on it; verified entries are
// only ever overwritten by a newer verified result, never reverted.
package consensus

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/observability"
)

// Result is the outcome of evaluating one location at one instant.
type Result struct {
	Location string `json:"location"`

	// MostCommonStatus is the plurality status among in-window reports,
	// empty when the window holds no reports for the location.
	MostCommonStatus domain.Status `json:"most_common_status,omitempty"`

	// TotalReports counts every in-window report for the location,
	// regardless of status.
	TotalReports int `json:"total_reports"`

	// NeededReports is the verification threshold of the winning status.
	NeededReports int `json:"needed_reports"`

	// Remaining is how many more same-status reports would verify the
	// winner, floored at zero.
	Remaining int `json:"remaining"`

	IsVerified   bool                  `json:"is_verified"`
	StatusCounts map[domain.Status]int `json:"status_counts"`
}

// Engine owns the verified-status map. It is the only component that writes
// the map, and it does so exclusively through RecomputeAll's
// monotonic-on-success rule. Evaluation itself is delegated to the embedded
// pure Evaluator.
type Engine struct {
	Evaluator

	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	verified map[string]domain.Status

	recomputed atomic.Bool
}

// New creates an Engine seeded with the given baseline statuses. The seed is
// copied; callers keep no handle into the engine's state.
func New(seed map[string]domain.Status, thresholds Thresholds, window time.Duration, logger *slog.Logger, metrics *observability.Metrics) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if window <= 0 {
		return nil, errors.New("verification window must be positive")
	}

	verified := make(map[string]domain.Status, len(seed))
	maps.Copy(verified, seed)

	e := &Engine{
		Evaluator: NewEvaluator(thresholds, window),
		logger:    logger,
		metrics:   metrics,
		verified:  verified,
	}
	e.metrics.VerifiedLocations.Set(float64(len(verified)))
	return e, nil
}

// CheckReadiness returns nil once the engine has completed at least one
// recomputation over the report set.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.recomputed.Load() {
		return errors.New("consensus engine has not recomputed yet")
	}
	return nil
}

// RecomputeAll evaluates every location present in the report set and
// applies verified results to the status map. It returns the locations that
// verified this cycle with their status. Unverified locations and locations
// absent from the report set keep their prior value; the map never reverts
// to a default. Safe to call repeatedly: for a fixed report set and now,
// both the returned map and the engine state are identical each time.
func (e *Engine) RecomputeAll(reports []domain.Report, now time.Time) map[string]domain.Status {
	start := time.Now()

	byLocation := make(map[string][]domain.Report)
	for _, r := range reports {
		byLocation[r.Location] = append(byLocation[r.Location], r)
	}

	updates := make(map[string]domain.Status)
	var changed []string

	e.mu.Lock()
	for location, locReports := range byLocation {
		res := e.Evaluate(location, locReports, now)
		if !res.IsVerified {
			continue
		}
		if prev, ok := e.verified[location]; !ok || prev != res.MostCommonStatus {
			changed = append(changed, location)
		}
		e.verified[location] = res.MostCommonStatus
		updates[location] = res.MostCommonStatus
	}
	size := len(e.verified)
	e.mu.Unlock()

	e.recomputed.Store(true)
	e.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	e.metrics.VerifiedLocations.Set(float64(size))

	for _, location := range changed {
		e.metrics.VerificationTransitions.Inc()
		e.logger.Info("location status verified", "location", location, "status", updates[location])
	}
	return updates
}

// VerifiedStatuses returns a copy of the verified-status map.
func (e *Engine) VerifiedStatuses() map[string]domain.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]domain.Status, len(e.verified))
	maps.Copy(out, e.verified)
	return out
}

// VerifiedStatus looks up the current verified status of one location.
func (e *Engine) VerifiedStatus(location string) (domain.Status, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.verified[location]
	return s, ok
}
