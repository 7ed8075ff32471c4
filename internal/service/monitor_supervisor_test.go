package service

import (
	"coinwatch/internal/dto"
	"coinwatch/internal/model"
	"coinwatch/pkg/logger"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestSupervisor(watchlist WatchlistReader, source PriceSource, pub SignalPublisher) *MonitorSupervisor {
	return NewMonitorSupervisor(testMonitorConfig(), logger.NewNop(), source, watchlist, pub, nil)
}

func TestMonitorSupervisor_EnsureStartedIsIdempotent(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{"bitcoin": {AssetID: "bitcoin", Price: 105}},
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{{UserID: 1, AssetID: "bitcoin", ThresholdPrice: 100}},
	}}
	pub := newCapturingPublisher()
	sup := newTestSupervisor(watchlist, source, pub)
	defer sup.StopAll()

	assert.NoError(t, sup.EnsureStarted(context.Background(), 1))
	assert.NoError(t, sup.EnsureStarted(context.Background(), 1))
	assert.NoError(t, sup.EnsureStarted(context.Background(), 1))

	assert.Equal(t, 1, sup.ActiveWorkers())

	status, ok := sup.Status(1)
	assert.True(t, ok)
	assert.True(t, status.Running)
	assert.Equal(t, uint(1), status.UserID)
}

func TestMonitorSupervisor_EmptyWatchlistStartsNothing(t *testing.T) {
	source := &stubPriceSource{}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{}}
	pub := newCapturingPublisher()
	sup := newTestSupervisor(watchlist, source, pub)

	assert.NoError(t, sup.EnsureStarted(context.Background(), 2))
	assert.Equal(t, 0, sup.ActiveWorkers())

	_, ok := sup.Status(2)
	assert.False(t, ok)
	assert.Equal(t, 0, source.callCount())
}

func TestMonitorSupervisor_StopUnknownUserIsNoop(t *testing.T) {
	sup := newTestSupervisor(&stubWatchlist{snap: &WatchSnapshot{}}, &stubPriceSource{}, newCapturingPublisher())

	assert.NotPanics(t, func() {
		sup.Stop(42)
		sup.Stop(42)
	})
}

func TestMonitorSupervisor_RestartPicksUpNewWatchlist(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{
			"bitcoin":  {AssetID: "bitcoin", Price: 105},
			"ethereum": {AssetID: "ethereum", Price: 3000},
		},
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{{UserID: 3, AssetID: "bitcoin", ThresholdPrice: 100}},
	}}
	pub := newCapturingPublisher()
	sup := newTestSupervisor(watchlist, source, pub)
	defer sup.StopAll()

	assert.NoError(t, sup.EnsureStarted(context.Background(), 3))
	batch := waitForBatch(t, pub)
	assert.Contains(t, batch.Signals, "bitcoin")

	watchlist.set(&WatchSnapshot{
		Entries: []model.WatchEntry{{UserID: 3, AssetID: "ethereum", ThresholdPrice: 2500}},
	})
	assert.NoError(t, sup.Restart(context.Background(), 3))
	assert.Equal(t, 1, sup.ActiveWorkers())

	// Drain anything the old worker published before it was drained, then
	// the next batch must reflect the new watch-list.
	drained := false
	for !drained {
		select {
		case <-pub.batches:
		default:
			drained = true
		}
	}

	batch = waitForBatch(t, pub)
	assert.Contains(t, batch.Signals, "ethereum")
	assert.NotContains(t, batch.Signals, "bitcoin")
}

func TestMonitorSupervisor_RestartRetiresWorkerWhenWatchlistEmptied(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{"bitcoin": {AssetID: "bitcoin", Price: 105}},
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{{UserID: 4, AssetID: "bitcoin", ThresholdPrice: 100}},
	}}
	pub := newCapturingPublisher()
	sup := newTestSupervisor(watchlist, source, pub)

	assert.NoError(t, sup.EnsureStarted(context.Background(), 4))
	assert.Equal(t, 1, sup.ActiveWorkers())

	watchlist.set(&WatchSnapshot{})
	assert.NoError(t, sup.Restart(context.Background(), 4))
	assert.Equal(t, 0, sup.ActiveWorkers(), "last entry removed retires the worker")
}

func TestMonitorSupervisor_StopAllDrainsEveryWorker(t *testing.T) {
	source := &stubPriceSource{
		points: map[string]dto.PricePoint{"bitcoin": {AssetID: "bitcoin", Price: 105}},
	}
	watchlist := &stubWatchlist{snap: &WatchSnapshot{
		Entries: []model.WatchEntry{{AssetID: "bitcoin", ThresholdPrice: 100}},
	}}
	pub := newCapturingPublisher()
	sup := newTestSupervisor(watchlist, source, pub)

	for userID := uint(1); userID <= 5; userID++ {
		assert.NoError(t, sup.EnsureStarted(context.Background(), userID))
	}
	assert.Equal(t, 5, sup.ActiveWorkers())

	done := make(chan struct{})
	go func() {
		sup.StopAll()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("StopAll did not drain all workers in time")
	}
	assert.Equal(t, 0, sup.ActiveWorkers())
}
