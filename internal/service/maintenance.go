package service

import (
	"coinwatch/config"
	"coinwatch/internal/repository"
	"coinwatch/pkg/logger"
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// MaintenanceService runs the background housekeeping jobs: pruning old
// market data rows past the retention window and keeping the available-coins
// cache warm.
type MaintenanceService struct {
	cfg            config.MaintenanceConfig
	log            *logger.Logger
	cron           *cron.Cron
	marketDataRepo repository.MarketDataRepository
	coinGeckoRepo  repository.CoinGeckoRepository
}

func NewMaintenanceService(
	cfg config.MaintenanceConfig,
	log *logger.Logger,
	marketDataRepo repository.MarketDataRepository,
	coinGeckoRepo repository.CoinGeckoRepository,
) *MaintenanceService {
	return &MaintenanceService{
		cfg:            cfg,
		log:            log,
		cron:           cron.New(),
		marketDataRepo: marketDataRepo,
		coinGeckoRepo:  coinGeckoRepo,
	}
}

func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.PruneSchedule, s.pruneMarketData); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.RefreshSchedule, s.refreshMarkets); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Maintenance scheduler started",
		logger.StringField("prune_schedule", s.cfg.PruneSchedule),
		logger.StringField("refresh_schedule", s.cfg.RefreshSchedule))
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Maintenance scheduler stopped")
}

func (s *MaintenanceService) pruneMarketData() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.cfg.MarketDataRetention)
	deleted, err := s.marketDataRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("Failed to prune market data", logger.ErrorField(err))
		return
	}
	s.log.Info("Pruned market data",
		logger.IntField("deleted", int(deleted)),
		logger.StringField("cutoff", cutoff.Format(time.RFC3339)))
}

func (s *MaintenanceService) refreshMarkets() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	coins, err := s.coinGeckoRepo.ListMarkets(ctx)
	if err != nil {
		s.log.Warn("Failed to refresh coin markets cache", logger.ErrorField(err))
		return
	}
	s.log.Debug("Refreshed coin markets cache", logger.IntField("coins", len(coins)))
}
