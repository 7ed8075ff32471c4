package service

import (
	"coinwatch/config"
	"coinwatch/pkg/logger"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MonitorSupervisor owns the set of live monitor workers, keyed by user id.
// It is the only component that starts or stops workers, which keeps the
// at-most-one-worker-per-user invariant by construction.
type MonitorSupervisor struct {
	cfg       config.Monitor
	log       *logger.Logger
	source    PriceSource
	watchlist WatchlistReader
	publisher SignalPublisher
	recorder  PriceRecorder

	mu      sync.Mutex
	workers map[uint]*MonitorWorker
}

func NewMonitorSupervisor(
	cfg config.Monitor,
	log *logger.Logger,
	source PriceSource,
	watchlist WatchlistReader,
	publisher SignalPublisher,
	recorder PriceRecorder,
) *MonitorSupervisor {
	return &MonitorSupervisor{
		cfg:       cfg,
		log:       log,
		source:    source,
		watchlist: watchlist,
		publisher: publisher,
		recorder:  recorder,
		workers:   make(map[uint]*MonitorWorker),
	}
}

// EnsureStarted starts a worker for the user if none exists and the user's
// watch-list is non-empty. Idempotent: a second call while a worker lives is
// a no-op.
func (s *MonitorSupervisor) EnsureStarted(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workers[userID]; exists {
		return nil
	}

	snapshot, err := s.watchlist.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	if len(snapshot.Entries) == 0 {
		s.log.Debug("Not starting monitor for empty watchlist", logger.IntField("user_id", int(userID)))
		return nil
	}

	worker := NewMonitorWorker(userID, s.cfg, s.log, s.source, s.watchlist, s.publisher, s.recorder)
	s.workers[userID] = worker
	worker.Start()

	s.log.Info("Monitor worker registered",
		logger.IntField("user_id", int(userID)),
		logger.IntField("watch_entries", len(snapshot.Entries)))
	return nil
}

// Stop removes the user's worker from the registry and waits for it to
// finish. Idempotent if no worker exists. No publish for the user occurs
// after Stop returns.
func (s *MonitorSupervisor) Stop(userID uint) {
	s.mu.Lock()
	worker, exists := s.workers[userID]
	if exists {
		delete(s.workers, userID)
	}
	s.mu.Unlock()

	if !exists {
		return
	}

	worker.Stop()
	s.log.Info("Monitor worker removed", logger.IntField("user_id", int(userID)))
}

// Restart fully stops any existing worker, then starts a fresh one so the
// next poll reflects the current watch-list instead of waiting out the old
// cadence. The old worker is drained before the new one registers, so a
// delayed publish from its in-flight cycle cannot land after the restart.
func (s *MonitorSupervisor) Restart(ctx context.Context, userID uint) error {
	s.Stop(userID)
	return s.EnsureStarted(ctx, userID)
}

// Status reports the worker state for a user, if one is registered.
func (s *MonitorSupervisor) Status(userID uint) (WorkerStatus, bool) {
	s.mu.Lock()
	worker, exists := s.workers[userID]
	s.mu.Unlock()

	if !exists {
		return WorkerStatus{UserID: userID}, false
	}
	return worker.Status(), true
}

// ActiveWorkers returns how many workers are currently registered.
func (s *MonitorSupervisor) ActiveWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// StopAll drains every worker, used during shutdown.
func (s *MonitorSupervisor) StopAll() {
	s.mu.Lock()
	workers := make([]*MonitorWorker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.workers = make(map[uint]*MonitorWorker)
	s.mu.Unlock()

	var g errgroup.Group
	for _, worker := range workers {
		worker := worker
		g.Go(func() error {
			worker.Stop()
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("All monitor workers stopped", logger.IntField("count", len(workers)))
}
