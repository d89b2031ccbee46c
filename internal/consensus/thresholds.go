package consensus

import (
	"fmt"
	"time"

	"github.com/blueridgecivic/waterwatch-service/internal/domain"
)

// DefaultWindow is the rolling lookback for counting reports toward
// consensus. Reports age out of relevance purely by the passage of time;
// nothing is deleted when they do.
const DefaultWindow = 24 * time.Hour

// Thresholds maps each status to the minimum number of corroborating
// in-window reports required to verify it for a location.
type Thresholds map[domain.Status]int

// DefaultThresholds returns the production threshold table. Unsafe needs a
// single report: one credible hazard sighting is enough to flag a location,
// while clearing it back to safe takes corroboration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		domain.StatusSafe:    2,
		domain.StatusCaution: 3,
		domain.StatusWarning: 2,
		domain.StatusUnsafe:  1,
	}
}

// Validate enforces the threshold invariants: every status has a positive
// threshold and unsafe carries the lowest one.
func (t Thresholds) Validate() error {
	for _, s := range domain.Statuses {
		n, ok := t[s]
		if !ok {
			return fmt.Errorf("missing threshold for status %q", s)
		}
		if n <= 0 {
			return fmt.Errorf("threshold for status %q must be positive, got %d", s, n)
		}
	}
	unsafe := t[domain.StatusUnsafe]
	for _, s := range domain.Statuses {
		if s != domain.StatusUnsafe && t[s] < unsafe {
			return fmt.Errorf("threshold for %q (%d) is below the unsafe threshold (%d)", s, t[s], unsafe)
		}
	}
	return nil
}
