package domain

import "fmt"

// Status is the verified water-quality classification of a water body.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusCaution Status = "caution"
	StatusWarning Status = "warning"
	StatusUnsafe  Status = "unsafe"
)

// Statuses lists all valid statuses in ascending severity order.
var Statuses = []Status{StatusSafe, StatusCaution, StatusWarning, StatusUnsafe}

// severityRank orders statuses for tie-breaking; higher is more severe.
var severityRank = map[Status]int{
	StatusSafe:    0,
	StatusCaution: 1,
	StatusWarning: 2,
	StatusUnsafe:  3,
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Severity returns the status rank, 0 (safe) through 3 (unsafe).
// Unknown statuses rank below safe so they never win a tie.
func (s Status) Severity() int {
	r, ok := severityRank[s]
	if !ok {
		return -1
	}
	return r
}

// MoreSevere reports whether s outranks other on the severity scale.
func (s Status) MoreSevere(other Status) bool {
	return s.Severity() > other.Severity()
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// conditionStatus maps an observed water condition to a Status. Unrecognized
// conditions fall back to safe; the gateway rejects empty conditions before
// this lookup runs.
var conditionStatus = map[string]Status{
	"clear":      StatusSafe,
	"greenish":   StatusCaution,
	"algae":      StatusWarning,
	"foam":       StatusWarning,
	"discolored": StatusCaution,
}

// DeriveStatus resolves a raw water condition to its Status. The result is
// stamped on the Report at submission time and never recomputed.
func DeriveStatus(condition string) Status {
	if s, ok := conditionStatus[condition]; ok {
		return s
	}
	return StatusSafe
}
