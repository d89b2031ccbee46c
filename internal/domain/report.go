package domain

import "time"

// Coordinates is a WGS-84 latitude/longitude pair. Used by presentation
// surfaces only; consensus never reads it.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawObservation is the unvalidated submission payload from a citizen.
// Location and WaterCondition are required; everything else is optional.
type RawObservation struct {
	Location       string       `json:"location"`
	WaterCondition string       `json:"water_condition"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Description    string       `json:"description,omitempty"`
	Odor           string       `json:"odor,omitempty"`
	Contact        string       `json:"contact,omitempty"`
}

// Report is a normalized, immutable citizen observation. The gateway assigns
// ID and Timestamp at submission time; clients never supply either, which
// rules out backdating and forward-dating.
type Report struct {
	ID             string       `json:"id" bson:"_id"`
	Location       string       `json:"location" bson:"location"`
	Status         Status       `json:"status" bson:"status"`
	WaterCondition string       `json:"water_condition" bson:"water_condition"`
	Coordinates    *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	Description    string       `json:"description,omitempty" bson:"description,omitempty"`
	Odor           string       `json:"odor,omitempty" bson:"odor,omitempty"`
	Contact        string       `json:"contact,omitempty" bson:"contact,omitempty"`
	Timestamp      time.Time    `json:"timestamp" bson:"timestamp"`
	SubmitterID    string       `json:"submitter_id,omitempty" bson:"submitter_id,omitempty"`
	Anonymous      bool         `json:"anonymous" bson:"anonymous"`
}

// Age returns how old the report is at the given instant.
func (r Report) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}

// CommunityEvent is a cleanup party or awareness event posted to the
// community board. Events start unapproved and become visible to the public
// feed once a moderator approves them.
type CommunityEvent struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Location    string    `json:"location" bson:"location"`
	CreatedBy   string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Approved    bool      `json:"approved" bson:"approved"`
}
