// Package locations carries the seed registry of monitored Virginia water
// bodies: coordinates, baseline status, and proximity lookups for location
// alerts.
package locations

import (
	"sort"

	"github.com/golang/geo/s2"

	"github.com/blueridgecivic/waterwatch-service/internal/domain"
)

// earthRadiusMiles converts s2 angles to surface distance.
const earthRadiusMiles = 3959.0

// Waterbody is a monitored water body with its map position and baseline
// status.
type Waterbody struct {
	Name          string             `json:"name"`
	Coordinates   domain.Coordinates `json:"coordinates"`
	DefaultStatus domain.Status      `json:"default_status"`
	Description   string             `json:"description,omitempty"`
}

// Proximity is a water body annotated with its distance from a query point.
type Proximity struct {
	Waterbody
	DistanceMiles float64 `json:"distance_miles"`
}

// DefaultWaterbodies returns the seeded Virginia registry. The baseline
// statuses feed the consensus engine's initial verified-status map.
func DefaultWaterbodies() []Waterbody {
	return []Waterbody{
		{Name: "Lake Anna", Coordinates: domain.Coordinates{Lat: 38.0833, Lng: -77.9167}, DefaultStatus: domain.StatusWarning, Description: "Elevated algae levels detected. Avoid swimming in North Anna Branch."},
		{Name: "Occoquan Reservoir", Coordinates: domain.Coordinates{Lat: 38.7500, Lng: -77.4167}, DefaultStatus: domain.StatusCaution, Description: "PFAS levels above EPA limits. Monitor for updates."},
		{Name: "Chickahominy River", Coordinates: domain.Coordinates{Lat: 37.4167, Lng: -77.2500}, DefaultStatus: domain.StatusCaution, Description: "Moderate risk of algal bloom. Monitor conditions."},
		{Name: "James River", Coordinates: domain.Coordinates{Lat: 37.5333, Lng: -77.4333}, DefaultStatus: domain.StatusSafe, Description: "Water quality within normal parameters."},
		{Name: "Potomac River", Coordinates: domain.Coordinates{Lat: 38.8000, Lng: -77.0500}, DefaultStatus: domain.StatusSafe, Description: "Clear conditions, safe for recreation."},
		{Name: "Shenandoah River", Coordinates: domain.Coordinates{Lat: 38.9167, Lng: -78.1833}, DefaultStatus: domain.StatusSafe, Description: "Excellent water quality conditions."},
		{Name: "Smith Mountain Lake", Coordinates: domain.Coordinates{Lat: 37.0833, Lng: -79.7500}, DefaultStatus: domain.StatusCaution, Description: "Seasonal monitoring in progress."},
		{Name: "Kerr Reservoir", Coordinates: domain.Coordinates{Lat: 36.5833, Lng: -78.5833}, DefaultStatus: domain.StatusSafe, Description: "All clear for water activities."},
		{Name: "Claytor Lake", Coordinates: domain.Coordinates{Lat: 37.0833, Lng: -80.5833}, DefaultStatus: domain.StatusSafe, Description: "Good water quality maintained."},
		{Name: "Lake Gaston", Coordinates: domain.Coordinates{Lat: 36.5833, Lng: -78.0833}, DefaultStatus: domain.StatusWarning, Description: "Recent reports of algae presence. Use caution."},
	}
}

// Registry answers lookups over a fixed set of water bodies.
type Registry struct {
	bodies []Waterbody
	byName map[string]Waterbody
}

// NewRegistry builds a Registry from the given water bodies.
func NewRegistry(bodies []Waterbody) *Registry {
	byName := make(map[string]Waterbody, len(bodies))
	for _, wb := range bodies {
		byName[wb.Name] = wb
	}
	return &Registry{bodies: bodies, byName: byName}
}

// All returns the registered water bodies in seed order.
func (r *Registry) All() []Waterbody {
	out := make([]Waterbody, len(r.bodies))
	copy(out, r.bodies)
	return out
}

// Lookup finds a water body by exact name.
func (r *Registry) Lookup(name string) (Waterbody, bool) {
	wb, ok := r.byName[name]
	return wb, ok
}

// SeedStatuses returns the baseline location→status map for seeding the
// consensus engine.
func (r *Registry) SeedStatuses() map[string]domain.Status {
	out := make(map[string]domain.Status, len(r.bodies))
	for _, wb := range r.bodies {
		out[wb.Name] = wb.DefaultStatus
	}
	return out
}

// Nearby returns the water bodies within radiusMiles of the query point,
// sorted nearest first.
func (r *Registry) Nearby(lat, lng, radiusMiles float64) []Proximity {
	from := s2.LatLngFromDegrees(lat, lng)

	var out []Proximity
	for _, wb := range r.bodies {
		to := s2.LatLngFromDegrees(wb.Coordinates.Lat, wb.Coordinates.Lng)
		miles := from.Distance(to).Radians() * earthRadiusMiles
		if miles <= radiusMiles {
			out = append(out, Proximity{Waterbody: wb, DistanceMiles: miles})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMiles < out[j].DistanceMiles })
	return out
}
