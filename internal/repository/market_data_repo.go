package repository

import (
	"coinwatch/internal/dto"
	"coinwatch/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type MarketDataRepository interface {
	Record(ctx context.Context, points []dto.PricePoint) error
	LatestByAsset(ctx context.Context, assetID string) (*model.MarketData, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type marketDataRepository struct {
	db *gorm.DB
}

func NewMarketDataRepository(db *gorm.DB) MarketDataRepository {
	return &marketDataRepository{
		db: db,
	}
}

func (r *marketDataRepository) Record(ctx context.Context, points []dto.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]model.MarketData, 0, len(points))
	for _, p := range points {
		rows = append(rows, model.MarketData{
			AssetID:    p.AssetID,
			Price:      p.Price,
			Change24h:  p.Change24h,
			ObservedAt: p.ObservedAt,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *marketDataRepository) LatestByAsset(ctx context.Context, assetID string) (*model.MarketData, error) {
	var row model.MarketData
	result := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("observed_at DESC").
		First(&row)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &row, nil
}

func (r *marketDataRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("observed_at < ?", cutoff).Delete(&model.MarketData{})
	return result.RowsAffected, result.Error
}
