package locations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/locations"
)

func TestDefaultWaterbodies_Seed(t *testing.T) {
	registry := locations.NewRegistry(locations.DefaultWaterbodies())

	all := registry.All()
	require.Len(t, all, 10)

	seed := registry.SeedStatuses()
	require.Len(t, seed, 10)
	assert.Equal(t, domain.StatusSafe, seed["James River"])
	assert.Equal(t, domain.StatusWarning, seed["Lake Anna"])
	assert.Equal(t, domain.StatusCaution, seed["Occoquan Reservoir"])
	assert.Equal(t, domain.StatusWarning, seed["Lake Gaston"])

	for name, status := range seed {
		assert.True(t, status.Valid(), "seed status for %s", name)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	registry := locations.NewRegistry(locations.DefaultWaterbodies())

	wb, ok := registry.Lookup("Shenandoah River")
	require.True(t, ok)
	assert.Equal(t, domain.StatusSafe, wb.DefaultStatus)
	assert.InDelta(t, 38.9167, wb.Coordinates.Lat, 1e-4)

	_, ok = registry.Lookup("Atlantic Ocean")
	assert.False(t, ok)

	_, ok = registry.Lookup("james river") // lookups are exact
	assert.False(t, ok)
}

func TestRegistry_Nearby(t *testing.T) {
	registry := locations.NewRegistry(locations.DefaultWaterbodies())

	// Downtown Richmond sits on the James River.
	richmond := struct{ lat, lng float64 }{37.5407, -77.4360}

	t.Run("small radius finds the James River first", func(t *testing.T) {
		got := registry.Nearby(richmond.lat, richmond.lng, 10)
		require.NotEmpty(t, got)
		assert.Equal(t, "James River", got[0].Name)
		assert.Less(t, got[0].DistanceMiles, 5.0)
	})

	t.Run("results sorted nearest first", func(t *testing.T) {
		got := registry.Nearby(richmond.lat, richmond.lng, 100)
		require.Greater(t, len(got), 2)
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, got[i-1].DistanceMiles, got[i].DistanceMiles)
		}
	})

	t.Run("zero radius finds nothing", func(t *testing.T) {
		assert.Empty(t, registry.Nearby(richmond.lat, richmond.lng, 0))
	})

	t.Run("statewide radius finds everything", func(t *testing.T) {
		got := registry.Nearby(richmond.lat, richmond.lng, 500)
		assert.Len(t, got, 10)
	})
}

func TestGuidanceFor(t *testing.T) {
	for _, status := range domain.Statuses {
		t.Run(string(status), func(t *testing.T) {
			g := locations.GuidanceFor(status)
			assert.Len(t, g.Activities, 5)
			assert.NotEmpty(t, g.SafetyTips)
		})
	}

	t.Run("swimming allowed only when safe", func(t *testing.T) {
		assert.True(t, locations.GuidanceFor(domain.StatusSafe).Activities["swimming"].Allowed)
		assert.False(t, locations.GuidanceFor(domain.StatusCaution).Activities["swimming"].Allowed)
		assert.False(t, locations.GuidanceFor(domain.StatusWarning).Activities["swimming"].Allowed)
		assert.False(t, locations.GuidanceFor(domain.StatusUnsafe).Activities["swimming"].Allowed)
	})

	t.Run("unknown status falls back to safe", func(t *testing.T) {
		g := locations.GuidanceFor(domain.Status("bogus"))
		assert.True(t, g.Activities["swimming"].Allowed)
	})
}
