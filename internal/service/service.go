package service

import (
	"coinwatch/config"
	"coinwatch/internal/repository"
	"coinwatch/pkg/logger"
)

type Service struct {
	Supervisor    *MonitorSupervisor
	Bus           *SubscriberBus
	Maintenance   *MaintenanceService
	WatchlistRead WatchlistReader
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
) *Service {
	bus := NewSubscriberBus(log)
	watchlistReader := NewWatchlistReader(repo.WatchlistRepo, repo.UserRepo)
	supervisor := NewMonitorSupervisor(
		cfg.Monitor,
		log,
		repo.CoinGeckoRepo,
		watchlistReader,
		bus,
		repo.MarketDataRepo,
	)
	maintenance := NewMaintenanceService(cfg.Maintenance, log, repo.MarketDataRepo, repo.CoinGeckoRepo)

	return &Service{
		Supervisor:    supervisor,
		Bus:           bus,
		Maintenance:   maintenance,
		WatchlistRead: watchlistReader,
	}
}
