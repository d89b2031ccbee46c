package gateway_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueridgecivic/waterwatch-service/internal/consensus"
	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/gateway"
	"github.com/blueridgecivic/waterwatch-service/internal/observability"
	"github.com/blueridgecivic/waterwatch-service/internal/store"
)

// --- mocks ---

type mockArchiver struct {
	appended []domain.Report
	err      error
}

func (m *mockArchiver) AppendReport(_ context.Context, r domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, r)
	return nil
}

type mockPublisher struct {
	published []domain.Report
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, r domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, r)
	return nil
}

type staticIdentity struct {
	user gateway.User
	ok   bool
}

func (s staticIdentity) CurrentUser(context.Context) (gateway.User, bool) {
	return s.user, s.ok
}

// --- fixture ---

var submitTime = time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	gateway *gateway.Gateway
	store   *store.Store
	engine  *consensus.Engine
	archive *mockArchiver
	stream  *mockPublisher
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T, identity gateway.Identity) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(submitTime)

	engine, err := consensus.New(nil, consensus.DefaultThresholds(), consensus.DefaultWindow, logger, metrics)
	require.NoError(t, err)

	st := store.New(store.DefaultDisplayCap, metrics)
	archive := &mockArchiver{}
	stream := &mockPublisher{}

	return &fixture{
		gateway: gateway.New(st, engine, archive, stream, identity, clock, logger, metrics),
		store:   st,
		engine:  engine,
		archive: archive,
		stream:  stream,
		clock:   clock,
	}
}

func clearWater(location string) domain.RawObservation {
	return domain.RawObservation{Location: location, WaterCondition: "clear"}
}

// --- tests ---

func TestGateway_Submit_AssignsIDAndTimestamp(t *testing.T) {
	f := newFixture(t, nil)

	receipt, err := f.gateway.Submit(context.Background(), domain.RawObservation{
		Location:       "James River",
		WaterCondition: "algae",
		Description:    "green mats near the boat ramp",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.Report.ID)
	assert.Equal(t, submitTime, receipt.Report.Timestamp)
	assert.Equal(t, domain.StatusWarning, receipt.Report.Status)
	assert.Equal(t, "algae", receipt.Report.WaterCondition)
	assert.True(t, receipt.Report.Anonymous)
	assert.Empty(t, receipt.Report.SubmitterID)

	// A second submission gets a distinct ID.
	second, err := f.gateway.Submit(context.Background(), clearWater("James River"))
	require.NoError(t, err)
	assert.NotEqual(t, receipt.Report.ID, second.Report.ID)
}

func TestGateway_Submit_RejectsInvalid(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.gateway.Submit(context.Background(), domain.RawObservation{WaterCondition: "clear"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	assert.Zero(t, f.store.Len(), "rejected submissions never reach the store")
	assert.Empty(t, f.archive.appended)
	assert.Empty(t, f.stream.published)
}

func TestGateway_Submit_PersistenceFailureNotCounted(t *testing.T) {
	f := newFixture(t, nil)
	f.archive.err = errors.New("mongo down")

	_, err := f.gateway.Submit(context.Background(), clearWater("James River"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))

	assert.Zero(t, f.store.Len(), "failed submissions never count toward consensus")
	assert.Empty(t, f.stream.published)

	res := f.engine.Evaluate("James River", f.store.Snapshot(), submitTime)
	assert.Zero(t, res.TotalReports)
}

func TestGateway_Submit_PublishFailureIsBestEffort(t *testing.T) {
	f := newFixture(t, nil)
	f.stream.err = errors.New("broker unreachable")

	receipt, err := f.gateway.Submit(context.Background(), clearWater("James River"))
	require.NoError(t, err, "a stream outage must not reject the submission")

	assert.Equal(t, 1, f.store.Len())
	assert.Len(t, f.archive.appended, 1)
	assert.False(t, receipt.Verification.IsVerified)
	assert.Equal(t, 1, receipt.Verification.Remaining)
}

func TestGateway_Submit_ReceiptTracksVerification(t *testing.T) {
	f := newFixture(t, nil)

	first, err := f.gateway.Submit(context.Background(), clearWater("Potomac River"))
	require.NoError(t, err)
	assert.False(t, first.Verification.IsVerified)
	assert.Equal(t, 1, first.Verification.Remaining)
	assert.Equal(t, 2, first.Verification.NeededReports)

	second, err := f.gateway.Submit(context.Background(), clearWater("Potomac River"))
	require.NoError(t, err)
	assert.True(t, second.Verification.IsVerified)
	assert.Zero(t, second.Verification.Remaining)

	s, ok := f.engine.VerifiedStatus("Potomac River")
	require.True(t, ok)
	assert.Equal(t, domain.StatusSafe, s)
}

func TestGateway_Submit_StampsIdentity(t *testing.T) {
	f := newFixture(t, staticIdentity{user: gateway.User{ID: "citizen-7"}, ok: true})

	receipt, err := f.gateway.Submit(context.Background(), clearWater("James River"))
	require.NoError(t, err)

	assert.Equal(t, "citizen-7", receipt.Report.SubmitterID)
	assert.False(t, receipt.Report.Anonymous)
}

func TestGateway_Submit_AnonymousWithoutIdentity(t *testing.T) {
	f := newFixture(t, staticIdentity{ok: false})

	receipt, err := f.gateway.Submit(context.Background(), clearWater("James River"))
	require.NoError(t, err)

	assert.True(t, receipt.Report.Anonymous)
	assert.Empty(t, receipt.Report.SubmitterID)
}

func TestGateway_Ingest_DeduplicatesReplays(t *testing.T) {
	f := newFixture(t, nil)

	r := domain.Report{
		ID:        "stream-1",
		Location:  "Lake Anna",
		Status:    domain.StatusUnsafe,
		Timestamp: submitTime.Add(-time.Hour),
	}
	f.gateway.Ingest(r)
	f.gateway.Ingest(r) // at-least-once delivery replays

	assert.Equal(t, 1, f.store.Len())

	s, ok := f.engine.VerifiedStatus("Lake Anna")
	require.True(t, ok)
	assert.Equal(t, domain.StatusUnsafe, s)
}

func TestContextIdentity(t *testing.T) {
	id := gateway.ContextIdentity{}

	_, ok := id.CurrentUser(context.Background())
	assert.False(t, ok)

	ctx := gateway.WithUser(context.Background(), gateway.User{ID: "citizen-9", Anonymous: false})
	user, ok := id.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "citizen-9", user.ID)
	assert.False(t, user.Anonymous)
}
