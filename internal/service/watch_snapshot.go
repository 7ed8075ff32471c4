package service

import (
	"coinwatch/internal/dto"
	"coinwatch/internal/repository"
	"context"
	"fmt"
)

// watchlistReader assembles per-cycle snapshots from the watchlist and user
// repositories. Each Snapshot is one read; the worker never mixes data from
// two points in time within a cycle.
type watchlistReader struct {
	watchlistRepo repository.WatchlistRepository
	userRepo      repository.UserRepository
}

func NewWatchlistReader(watchlistRepo repository.WatchlistRepository, userRepo repository.UserRepository) WatchlistReader {
	return &watchlistReader{
		watchlistRepo: watchlistRepo,
		userRepo:      userRepo,
	}
}

func (r *watchlistReader) Snapshot(ctx context.Context, userID uint) (*WatchSnapshot, error) {
	entries, err := r.watchlistRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read watch entries: %w", err)
	}

	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read user preferences: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	return &WatchSnapshot{
		Entries: entries,
		Prefs: dto.DevicePrefs{
			EnableLED:      user.EnableLED,
			EnableBuzzer:   user.EnableBuzzer,
			LEDBrightness:  user.LEDBrightness,
			BuzzerVolume:   user.BuzzerVolume,
			BuzzerDuration: user.BuzzerDuration,
			LEDBlinkSpeed:  user.LEDBlinkSpeed,
		},
	}, nil
}
