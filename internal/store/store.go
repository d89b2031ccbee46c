// Package store holds the live, append-only collection of citizen reports.
//
// The store keeps two views over the same log: Snapshot, the uncapped set
// that feeds consensus, and Recent, a small capped slice for display
// surfaces. The display cap never gates consensus input: truncating the
// consensus view would silently undercount older-but-still-in-window
// reports once volume exceeds the cap.
package store

import (
	"sync"
	"time"

	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/observability"
)

// DefaultDisplayCap bounds the Recent view. Matches the dashboard's
// "recent reports" panel size.
const DefaultDisplayCap = 50

// Store is a mutex-guarded append-only report log. Reports are immutable
// after insertion; the only removals are out-of-window prunes.
type Store struct {
	mu          sync.RWMutex
	reports     []domain.Report
	ids         map[string]struct{}
	subscribers map[int]func([]domain.Report)
	nextSub     int

	displayCap int
	metrics    *observability.Metrics
}

// New creates an empty store. A displayCap of zero or less falls back to
// DefaultDisplayCap.
func New(displayCap int, metrics *observability.Metrics) *Store {
	if displayCap <= 0 {
		displayCap = DefaultDisplayCap
	}
	return &Store{
		ids:         make(map[string]struct{}),
		subscribers: make(map[int]func([]domain.Report)),
		displayCap:  displayCap,
		metrics:     metrics,
	}
}

// Append inserts a report and notifies subscribers with the new snapshot.
// Re-appending an ID already present is a no-op, which makes the
// at-least-once report stream safe to replay.
func (s *Store) Append(r domain.Report) {
	s.mu.Lock()
	if _, dup := s.ids[r.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.ids[r.ID] = struct{}{}
	s.reports = append(s.reports, r)
	snapshot := s.snapshotLocked()
	subs := make([]func([]domain.Report), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.metrics.StoredReports.Set(float64(len(snapshot)))
	for _, fn := range subs {
		fn(snapshot)
	}
}

// Snapshot returns a copy of the full report log. Consensus always runs on
// this view, never on the display-capped one.
func (s *Store) Snapshot() []domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Recent returns up to n reports, newest first, for display surfaces.
// A non-positive n uses the configured display cap.
func (s *Store) Recent(n int) []domain.Report {
	if n <= 0 {
		n = s.displayCap
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.reports) {
		n = len(s.reports)
	}
	out := make([]domain.Report, n)
	for i := 0; i < n; i++ {
		out[i] = s.reports[len(s.reports)-1-i]
	}
	return out
}

// Len returns the number of reports currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Prune drops reports older than maxAge at the given instant and returns
// how many were removed. Pruning is pure memory hygiene: window filtering is
// re-derived from timestamps at evaluation time, and a report past the
// verification window can never count again.
func (s *Store) Prune(now time.Time, maxAge time.Duration) int {
	s.mu.Lock()
	kept := s.reports[:0]
	removed := 0
	for _, r := range s.reports {
		if r.Age(now) > maxAge {
			delete(s.ids, r.ID)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.reports = kept
	size := len(s.reports)
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.PrunedReports.Add(float64(removed))
		s.metrics.StoredReports.Set(float64(size))
	}
	return removed
}

// Subscribe registers a callback invoked with the full snapshot after every
// append. The returned function unsubscribes.
func (s *Store) Subscribe(fn func([]domain.Report)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() []domain.Report {
	out := make([]domain.Report, len(s.reports))
	copy(out, s.reports)
	return out
}
