package consensus

import (
	"time"

	"github.com/blueridgecivic/waterwatch-service/internal/domain"
)

// Evaluator is the pure half of consensus: given a report set and an
// instant, compute the verification state of a location. It holds no
// mutable state; the Engine layers the verified-status map on top.
type Evaluator struct {
	thresholds Thresholds
	window     time.Duration
}

// NewEvaluator creates an Evaluator. Callers should validate thresholds
// first; the Engine constructor does.
func NewEvaluator(thresholds Thresholds, window time.Duration) Evaluator {
	return Evaluator{thresholds: thresholds, window: window}
}

// Window returns the configured verification window.
func (ev Evaluator) Window() time.Duration {
	return ev.window
}

// Threshold returns the verification threshold for a status.
func (ev Evaluator) Threshold(s domain.Status) int {
	return ev.thresholds[s]
}

// Evaluate computes the verification state of one location at the given
// instant. Results depend only on the report set and now: freshness is
// recomputed on every call, so the same report set can verify at one
// instant and not at a later one. Zero in-window reports yield a zero
// Result (no winner, not verified), never an error.
func (ev Evaluator) Evaluate(location string, reports []domain.Report, now time.Time) Result {
	counts := make(map[domain.Status]int)
	total := 0
	for _, r := range reports {
		if r.Location != location {
			continue
		}
		if r.Age(now) > ev.window {
			continue
		}
		counts[r.Status]++
		total++
	}

	if total == 0 {
		return Result{Location: location, StatusCounts: counts}
	}

	winner := pluralityStatus(counts)
	threshold := ev.thresholds[winner]
	remaining := threshold - counts[winner]
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Location:         location,
		MostCommonStatus: winner,
		TotalReports:     total,
		NeededReports:    threshold,
		Remaining:        remaining,
		IsVerified:       counts[winner] >= threshold,
		StatusCounts:     counts,
	}
}

// pluralityStatus picks the status with the highest count. Ties go to the
// more severe status, so a lone unsafe report beats a lone safe one.
func pluralityStatus(counts map[domain.Status]int) domain.Status {
	var winner domain.Status
	best := -1
	for _, s := range domain.Statuses {
		n, ok := counts[s]
		if !ok {
			continue
		}
		if n > best || (n == best && s.MoreSevere(winner)) {
			winner = s
			best = n
		}
	}
	return winner
}
