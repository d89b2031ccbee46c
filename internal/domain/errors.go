package domain

import (
	"errors"
	"fmt"
)

// ErrPersistence marks failures of the durable archive. Submissions that hit
// it are never counted toward consensus.
var ErrPersistence = errors.New("persistence failure")

// ValidationError describes a rejected submission field. It is surfaced to
// the submitter and never reaches the store or the consensus engine.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the required fields of a raw observation.
func (o RawObservation) Validate() error {
	if o.Location == "" {
		return &ValidationError{Field: "location", Reason: "must not be empty"}
	}
	if o.WaterCondition == "" {
		return &ValidationError{Field: "water_condition", Reason: "must not be empty"}
	}
	return nil
}
