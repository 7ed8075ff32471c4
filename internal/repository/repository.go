package repository

import (
	"coinwatch/config"
	"coinwatch/pkg/cache"
	"coinwatch/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	CoinGeckoRepo    CoinGeckoRepository
	WatchlistRepo    WatchlistRepository
	UserRepo         UserRepository
	MarketDataRepo   MarketDataRepository
	UserActivityRepo UserActivityRepository
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	return &Repository{
		CoinGeckoRepo:    NewCoinGeckoRepository(cfg, log, inmemoryCache),
		WatchlistRepo:    NewWatchlistRepository(db),
		UserRepo:         NewUserRepository(db),
		MarketDataRepo:   NewMarketDataRepository(db),
		UserActivityRepo: NewUserActivityRepository(db),
	}, nil
}
