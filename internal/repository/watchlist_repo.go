package repository

import (
	"coinwatch/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchlistRepository interface {
	GetByUser(ctx context.Context, userID uint) ([]model.WatchEntry, error)
	Upsert(ctx context.Context, entry *model.WatchEntry) error
	Delete(ctx context.Context, userID uint, assetID string) error
}

type watchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{
		db: db,
	}
}

func (r *watchlistRepository) GetByUser(ctx context.Context, userID uint) ([]model.WatchEntry, error) {
	var entries []model.WatchEntry
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("asset_id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Upsert inserts the entry or, on a (user, asset) conflict, updates the
// threshold and invested flag in place. The unique index keeps the
// one-entry-per-pair invariant in the database.
func (r *watchlistRepository) Upsert(ctx context.Context, entry *model.WatchEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"threshold_price", "is_invested", "updated_at"}),
	}).Create(entry).Error
}

func (r *watchlistRepository) Delete(ctx context.Context, userID uint, assetID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND asset_id = ?", userID, assetID).
		Delete(&model.WatchEntry{}).Error
}
