package service

import (
	"coinwatch/config"
	"coinwatch/internal/dto"
	"coinwatch/internal/model"
	"coinwatch/internal/repository"
	"coinwatch/pkg/logger"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubPriceSource struct {
	mu      sync.Mutex
	calls   int
	points  map[string]dto.PricePoint
	err     error
	gate    chan struct{}
	fetched chan struct{}
}

func (s *stubPriceSource) FetchPrices(ctx context.Context, assetIDs []string) (map[string]dto.PricePoint, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first && s.fetched != nil {
		close(s.fetched)
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

func (s *stubPriceSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubWatchlist struct {
	mu   sync.Mutex
	snap *WatchSnapshot
	err  error
}

func (s *stubWatchlist) Snapshot(ctx context.Context, userID uint) (*WatchSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	snap := *s.snap
	return &snap, nil
}

func (s *stubWatchlist) set(snap *WatchSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

type capturingPublisher struct {
	batches chan dto.SignalBatch
	cmds    chan dto.ActuatorCommand
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{
		batches: make(chan dto.SignalBatch, 32),
		cmds:    make(chan dto.ActuatorCommand, 32),
	}
}

func (p *capturingPublisher) Publish(userID uint, batch dto.SignalBatch) {
	select {
	case p.batches <- batch:
	default:
	}
}

func (p *capturingPublisher) PublishActuatorCommand(userID uint, cmd dto.ActuatorCommand) {
	select {
	case p.cmds <- cmd:
	default:
	}
}

type stubRecorder struct {
	mu     sync.Mutex
	points []dto.PricePoint
}

func (r *stubRecorder) Record(ctx context.Context, points []dto.PricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, points...)
	return nil
}

func (r *stubRecorder) recorded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}

func testMonitorConfig() config.Monitor {
	return config.Monitor{
		PollInterval:    10 * time.Millisecond,
		BackoffInterval: 500 * time.Millisecond,
	}
}

func waitForBatch(t *testing.T, pub *capturingPublisher) dto.SignalBatch {
	t.Helper()
	select {
	case batch := <-pub.batches:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal batch")
		return dto.SignalBatch{}
	}
}

func TestMonitorWorker_EmptyWatchlistSkipsFetch(t *testing.T) {
	source := &stubPriceSource{}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{}}
	pub := newCapturingPublisher()

	worker := NewMonitorWorker(1, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)
	worker.Start()
	time.Sleep(60 * time.Millisecond)
	worker.Stop()

	assert.Equal(t, 0, source.callCount(), "no price fetch for an empty watchlist")
	assert.Empty(t, pub.batches)
	status := worker.Status()
	assert.False(t, status.Running)
	assert.NoError(t, status.LastError)
	assert.False(t, status.LastPollAt.IsZero(), "empty cycles still count as successful polls")
}

func TestMonitorWorker_PublishesClassifiedBatch(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{
			"bitcoin":  {AssetID: "bitcoin", Price: 105, Change24h: 2.5},
			"ethereum": {AssetID: "ethereum", Price: 10, Change24h: -1.2},
			"dogecoin": {AssetID: "dogecoin", Price: 2, Change24h: 0},
		},
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{
			{UserID: 9, AssetID: "bitcoin", ThresholdPrice: 100},
			{UserID: 9, AssetID: "ethereum", ThresholdPrice: 100, IsInvested: true},
			{UserID: 9, AssetID: "dogecoin", ThresholdPrice: 2},
		},
		Prefs: dto.DevicePrefs{EnableLED: true, LEDBrightness: 80},
	}}
	pub := newCapturingPublisher()
	recorder := &stubRecorder{}

	worker := NewMonitorWorker(9, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, recorder)
	worker.Start()
	defer worker.Stop()

	batch := waitForBatch(t, pub)
	assert.Equal(t, uint(9), batch.UserID)
	assert.Len(t, batch.Signals, 3)

	assert.Equal(t, dto.ClassificationAbove, batch.Signals["bitcoin"].Classification)
	assert.Equal(t, dto.ActuatorGreen, batch.Signals["bitcoin"].ActuatorColor)
	assert.Equal(t, 105.0, batch.Signals["bitcoin"].Price)
	assert.Equal(t, 100.0, batch.Signals["bitcoin"].Threshold)

	assert.Equal(t, dto.ClassificationInvested, batch.Signals["ethereum"].Classification)
	assert.Equal(t, dto.ActuatorBlue, batch.Signals["ethereum"].ActuatorColor)

	assert.Equal(t, dto.ClassificationNeutral, batch.Signals["dogecoin"].Classification)
	assert.Equal(t, dto.ActuatorOff, batch.Signals["dogecoin"].ActuatorColor)

	select {
	case cmd := <-pub.cmds:
		assert.Equal(t, uint(9), cmd.UserID)
		assert.Equal(t, dto.ActuatorGreen, cmd.Colors["bitcoin"])
		assert.Equal(t, dto.ActuatorBlue, cmd.Colors["ethereum"])
		assert.Equal(t, dto.ActuatorOff, cmd.Colors["dogecoin"])
		assert.True(t, cmd.Prefs.EnableLED)
		assert.Equal(t, 80, cmd.Prefs.LEDBrightness)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for actuator command")
	}

	assert.GreaterOrEqual(t, recorder.recorded(), 3, "observed prices are recorded for history")
}

func TestMonitorWorker_SkipsAssetsMissingFromResponse(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{
			"bitcoin": {AssetID: "bitcoin", Price: 105},
		},
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{
			{UserID: 4, AssetID: "bitcoin", ThresholdPrice: 100},
			{UserID: 4, AssetID: "unlisted-coin", ThresholdPrice: 1},
		},
	}}
	pub := newCapturingPublisher()

	worker := NewMonitorWorker(4, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)
	worker.Start()
	defer worker.Stop()

	batch := waitForBatch(t, pub)
	assert.Len(t, batch.Signals, 1)
	assert.Contains(t, batch.Signals, "bitcoin")
	assert.NotContains(t, batch.Signals, "unlisted-coin")
}

func TestMonitorWorker_NoActuatorCommandWhenOutputsDisabled(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{
			"bitcoin": {AssetID: "bitcoin", Price: 105},
		},
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{{UserID: 2, AssetID: "bitcoin", ThresholdPrice: 100}},
	}}
	pub := newCapturingPublisher()

	worker := NewMonitorWorker(2, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)
	worker.Start()

	waitForBatch(t, pub)
	worker.Stop()

	select {
	case cmd := <-pub.cmds:
		t.Fatalf("unexpected actuator command with all outputs disabled: %+v", cmd)
	default:
	}
}

func TestMonitorWorker_RateLimitBacksOffAndKeepsRunning(t *testing.T) {
	source := &stubPriceSource{
		err:     &repository.RateLimitedError{RetryAfter: time.Second},
		fetched: make(chan struct{}),
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{{UserID: 6, AssetID: "bitcoin", ThresholdPrice: 100}},
	}}
	pub := newCapturingPublisher()

	worker := NewMonitorWorker(6, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)
	worker.Start()
	defer worker.Stop()

	select {
	case <-source.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first fetch")
	}

	// The failing cycle must stretch the next attempt to the backoff
	// interval instead of the normal cadence.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, source.callCount())
	assert.Empty(t, pub.batches, "no batch published on a failed cycle")

	status := worker.Status()
	assert.True(t, status.Running, "transient failures never terminate the worker")
	assert.ErrorIs(t, status.LastError, repository.ErrRateLimited)
}

func TestMonitorWorker_StopDiscardsInflightFetch(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{
			"bitcoin": {AssetID: "bitcoin", Price: 105},
		},
		gate:    make(chan struct{}),
		fetched: make(chan struct{}),
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{{UserID: 3, AssetID: "bitcoin", ThresholdPrice: 100}},
	}}
	pub := newCapturingPublisher()

	worker := NewMonitorWorker(3, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)
	worker.Start()

	select {
	case <-source.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch to start")
	}

	// Stop while the fetch is held open; the fetch completes on cancel
	// and its result must be thrown away.
	worker.Stop()

	assert.Empty(t, pub.batches, "no publish after Stop returned")
	assert.False(t, worker.Status().Running)
}

func TestMonitorWorker_StopIsIdempotentAndStartAfterStopIsNoop(t *testing.T) {
	source := &stubPriceSource{}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{}}
	pub := newCapturingPublisher()

	worker := NewMonitorWorker(8, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)

	done := make(chan struct{})
	go func() {
		worker.Stop()
		worker.Stop()
		worker.Start()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop on a never-started worker must not block")
	}

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, source.callCount())
	assert.False(t, worker.Status().Running)
}

func TestMonitorWorker_SnapshotErrorBacksOff(t *testing.T) {
	watchlist := &stubWatchlist{err: errors.New("db unavailable")}
	source := &stubPriceSource{}
	pub := newCapturingPublisher()

	worker := NewMonitorWorker(5, testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)
	worker.Start()
	time.Sleep(100 * time.Millisecond)
	worker.Stop()

	assert.Equal(t, 0, source.callCount())
	assert.Empty(t, pub.batches)
	assert.EqualError(t, worker.Status().LastError, "db unavailable")
}
