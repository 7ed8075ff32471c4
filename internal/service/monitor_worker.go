package service

import (
	"coinwatch/config"
	"coinwatch/internal/dto"
	"coinwatch/internal/model"
	"coinwatch/internal/repository"
	"coinwatch/pkg/logger"
	"coinwatch/pkg/utils"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samber/lo"
)

// PriceSource fetches current prices for a set of asset ids.
type PriceSource interface {
	FetchPrices(ctx context.Context, assetIDs []string) (map[string]dto.PricePoint, error)
}

// WatchSnapshot is one self-consistent read of a user's watch entries and
// device preferences, taken at the start of a poll cycle.
type WatchSnapshot struct {
	Entries []model.WatchEntry
	Prefs   dto.DevicePrefs
}

// WatchlistReader produces watch snapshots for a user.
type WatchlistReader interface {
	Snapshot(ctx context.Context, userID uint) (*WatchSnapshot, error)
}

// SignalPublisher receives the outcome of a poll cycle.
type SignalPublisher interface {
	Publish(userID uint, batch dto.SignalBatch)
	PublishActuatorCommand(userID uint, cmd dto.ActuatorCommand)
}

// PriceRecorder persists observed price points for the lookback history.
type PriceRecorder interface {
	Record(ctx context.Context, points []dto.PricePoint) error
}

// WorkerStatus is the observable state of one monitor worker.
type WorkerStatus struct {
	UserID     uint
	Running    bool
	LastPollAt time.Time
	LastError  error
}

// MonitorWorker polls the price source for one user's watch-list on a fixed
// cadence, classifies each asset and publishes the resulting signal batch.
// Transient fetch failures stretch the next interval to the degraded backoff
// but never terminate the worker; only Stop does.
type MonitorWorker struct {
	userID    uint
	cfg       config.Monitor
	log       *logger.Logger
	source    PriceSource
	watchlist WatchlistReader
	publisher SignalPublisher
	recorder  PriceRecorder

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	started    bool
	stopped    bool
	lastPollAt time.Time
	lastErr    error
}

func NewMonitorWorker(
	userID uint,
	cfg config.Monitor,
	log *logger.Logger,
	source PriceSource,
	watchlist WatchlistReader,
	publisher SignalPublisher,
	recorder PriceRecorder,
) *MonitorWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &MonitorWorker{
		userID:    userID,
		cfg:       cfg,
		log:       log.With(logger.IntField("user_id", int(userID))),
		source:    source,
		watchlist: watchlist,
		publisher: publisher,
		recorder:  recorder,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start launches the poll loop. Calling Start on a running worker is a
// no-op; a stopped worker stays stopped and the supervisor creates a fresh
// one instead.
func (w *MonitorWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	utils.GoSafe(w.run)
}

// Stop cancels the poll loop and waits for it to exit. After Stop returns no
// publish for this worker can occur: an in-flight fetch completes but its
// result is discarded. Idempotent.
func (w *MonitorWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	w.cancel()
	if !started {
		close(w.done)
		return
	}
	<-w.done
}

// Status returns the worker's observable state.
func (w *MonitorWorker) Status() WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WorkerStatus{
		UserID:     w.userID,
		Running:    w.started && !w.stopped,
		LastPollAt: w.lastPollAt,
		LastError:  w.lastErr,
	}
}

func (w *MonitorWorker) run() {
	defer close(w.done)

	w.log.Info("Market monitor started",
		logger.Field("poll_interval", w.cfg.PollInterval),
		logger.Field("backoff_interval", w.cfg.BackoffInterval))

	// First poll fires immediately.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Market monitor stopped")
			return
		case <-timer.C:
		}

		timer.Reset(w.poll(w.ctx))
	}
}

// poll runs one cycle and returns the wait before the next one: the normal
// cadence after a clean cycle, the degraded backoff after a transient
// failure.
func (w *MonitorWorker) poll(ctx context.Context) time.Duration {
	snapshot, err := w.watchlist.Snapshot(ctx, w.userID)
	if err != nil {
		w.recordFailure(err)
		w.log.Error("Failed to read watchlist snapshot", logger.ErrorField(err))
		return w.cfg.BackoffInterval
	}

	// Nothing to monitor this cycle. Not an error; the supervisor decides
	// whether an empty watch-list should retire the worker.
	if len(snapshot.Entries) == 0 {
		w.recordSuccess()
		return w.cfg.PollInterval
	}

	assetIDs := lo.Uniq(lo.Map(snapshot.Entries, func(e model.WatchEntry, _ int) string {
		return e.AssetID
	}))

	points, err := w.source.FetchPrices(ctx, assetIDs)
	if err != nil {
		w.recordFailure(err)
		if errors.Is(err, repository.ErrRateLimited) {
			w.log.Warn("Price source rate limited, backing off", logger.ErrorField(err))
		} else {
			w.log.Warn("Price fetch failed, backing off", logger.ErrorField(err))
		}
		return w.cfg.BackoffInterval
	}

	// The worker was stopped while the fetch was in flight; discard the
	// result rather than publishing after Stop.
	if ctx.Err() != nil {
		return w.cfg.PollInterval
	}

	now := time.Now().UTC()
	batch := dto.SignalBatch{
		UserID:      w.userID,
		Signals:     make(map[string]dto.Signal, len(snapshot.Entries)),
		GeneratedAt: now,
	}
	colors := make(map[string]dto.ActuatorColor, len(snapshot.Entries))

	for _, entry := range snapshot.Entries {
		point, ok := points[entry.AssetID]
		if !ok {
			// Asset missing from the response; skip it this cycle.
			continue
		}

		classification := Classify(point.Price, entry.ThresholdPrice, entry.IsInvested)
		signal := dto.Signal{
			AssetID:        entry.AssetID,
			Classification: classification,
			ActuatorColor:  classification.ActuatorColor(),
			Price:          point.Price,
			Change24h:      point.Change24h,
			Threshold:      entry.ThresholdPrice,
			IsInvested:     entry.IsInvested,
			GeneratedAt:    now,
		}
		batch.Signals[entry.AssetID] = signal
		colors[entry.AssetID] = signal.ActuatorColor
	}

	if w.recorder != nil {
		if err := w.recorder.Record(ctx, lo.Values(points)); err != nil {
			w.log.Warn("Failed to record market data history", logger.ErrorField(err))
		}
	}

	w.publisher.Publish(w.userID, batch)
	if snapshot.Prefs.Enabled() {
		w.publisher.PublishActuatorCommand(w.userID, dto.ActuatorCommand{
			UserID:      w.userID,
			Colors:      colors,
			Prefs:       snapshot.Prefs,
			GeneratedAt: now,
		})
	}

	w.recordSuccess()
	w.log.Debug("Poll cycle published",
		logger.IntField("signals", len(batch.Signals)),
		logger.IntField("assets_requested", len(assetIDs)))

	return w.cfg.PollInterval
}

func (w *MonitorWorker) recordSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastPollAt = time.Now().UTC()
	w.lastErr = nil
}

func (w *MonitorWorker) recordFailure(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastPollAt = time.Now().UTC()
	w.lastErr = err
}
