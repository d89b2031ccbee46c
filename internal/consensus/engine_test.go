package consensus_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueridgecivic/waterwatch-service/internal/consensus"
	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, seed map[string]domain.Status) *consensus.Engine {
	t.Helper()
	e, err := consensus.New(seed, consensus.DefaultThresholds(), consensus.DefaultWindow, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	return e
}

func TestNew_RejectsBadConfig(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	_, err := consensus.New(nil, consensus.Thresholds{domain.StatusSafe: 2}, consensus.DefaultWindow, discardLogger(), metrics)
	assert.Error(t, err, "incomplete thresholds")

	_, err = consensus.New(nil, consensus.DefaultThresholds(), 0, discardLogger(), metrics)
	assert.Error(t, err, "zero window")
}

func TestEngine_SeededStatuses(t *testing.T) {
	seed := map[string]domain.Status{
		"James River": domain.StatusSafe,
		"Lake Anna":   domain.StatusWarning,
	}
	e := newEngine(t, seed)

	got := e.VerifiedStatuses()
	assert.Equal(t, seed, got)

	// The seed was copied; mutating the original does not leak in.
	seed["James River"] = domain.StatusUnsafe
	s, ok := e.VerifiedStatus("James River")
	require.True(t, ok)
	assert.Equal(t, domain.StatusSafe, s)
}

func TestEngine_RecomputeAll_VerifiesAndUpdates(t *testing.T) {
	e := newEngine(t, map[string]domain.Status{"James River": domain.StatusSafe})

	reports := makeReports("James River", domain.StatusWarning, 2)
	updates := e.RecomputeAll(reports, evalNow)

	assert.Equal(t, map[string]domain.Status{"James River": domain.StatusWarning}, updates)

	s, ok := e.VerifiedStatus("James River")
	require.True(t, ok)
	assert.Equal(t, domain.StatusWarning, s)
}

func TestEngine_RecomputeAll_MonotonicOnSuccess(t *testing.T) {
	e := newEngine(t, map[string]domain.Status{"Lake Anna": domain.StatusWarning})

	// One safe report: below threshold, the map keeps the warning.
	e.RecomputeAll(makeReports("Lake Anna", domain.StatusSafe, 1), evalNow)
	s, ok := e.VerifiedStatus("Lake Anna")
	require.True(t, ok)
	assert.Equal(t, domain.StatusWarning, s)

	// Two safe reports verify, overwriting the warning.
	e.RecomputeAll(makeReports("Lake Anna", domain.StatusSafe, 2), evalNow)
	s, _ = e.VerifiedStatus("Lake Anna")
	assert.Equal(t, domain.StatusSafe, s)

	// All reports age out: the last verified value stays, never reverts.
	e.RecomputeAll(makeReports("Lake Anna", domain.StatusSafe, 2), evalNow.Add(48*time.Hour))
	s, ok = e.VerifiedStatus("Lake Anna")
	require.True(t, ok)
	assert.Equal(t, domain.StatusSafe, s)
}

func TestEngine_RecomputeAll_Idempotent(t *testing.T) {
	e := newEngine(t, map[string]domain.Status{"James River": domain.StatusSafe})

	reports := append(
		makeReports("James River", domain.StatusWarning, 2),
		makeReports("Potomac River", domain.StatusCaution, 2)..., // below caution threshold
	)

	first := e.RecomputeAll(reports, evalNow)
	second := e.RecomputeAll(reports, evalNow)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated recompute diverged (-first +second):\n%s", diff)
	}
	assert.NotContains(t, first, "Potomac River", "unverified locations never enter the map")
}

func TestEngine_RecomputeAll_UntouchedLocationsKeepValue(t *testing.T) {
	e := newEngine(t, map[string]domain.Status{
		"James River":   domain.StatusSafe,
		"Potomac River": domain.StatusSafe,
	})

	// Reports only mention James River; Potomac keeps its seed.
	e.RecomputeAll(makeReports("James River", domain.StatusUnsafe, 1), evalNow)

	s, ok := e.VerifiedStatus("Potomac River")
	require.True(t, ok)
	assert.Equal(t, domain.StatusSafe, s)

	s, _ = e.VerifiedStatus("James River")
	assert.Equal(t, domain.StatusUnsafe, s)
}

func TestEngine_RecomputeAll_NewLocationEntersOnVerification(t *testing.T) {
	e := newEngine(t, nil)

	_, ok := e.VerifiedStatus("Hidden Creek")
	require.False(t, ok)

	// One caution report: visible to evaluation but not to the map.
	e.RecomputeAll(makeReports("Hidden Creek", domain.StatusCaution, 1), evalNow)
	_, ok = e.VerifiedStatus("Hidden Creek")
	assert.False(t, ok)

	e.RecomputeAll(makeReports("Hidden Creek", domain.StatusCaution, 3), evalNow)
	s, ok := e.VerifiedStatus("Hidden Creek")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCaution, s)
}

func TestEngine_CheckReadiness(t *testing.T) {
	e := newEngine(t, nil)

	assert.Error(t, e.CheckReadiness(context.Background()), "not ready before first recompute")

	e.RecomputeAll(nil, evalNow)
	assert.NoError(t, e.CheckReadiness(context.Background()))
}
