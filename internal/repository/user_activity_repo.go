package repository

import (
	"coinwatch/internal/model"
	"context"

	"gorm.io/gorm"
)

type UserActivityRepository interface {
	Create(ctx context.Context, activity *model.UserActivity) error
	RecentByUser(ctx context.Context, userID uint, limit int) ([]model.UserActivity, error)
}

type userActivityRepository struct {
	db *gorm.DB
}

func NewUserActivityRepository(db *gorm.DB) UserActivityRepository {
	return &userActivityRepository{
		db: db,
	}
}

func (r *userActivityRepository) Create(ctx context.Context, activity *model.UserActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *userActivityRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]model.UserActivity, error) {
	var activities []model.UserActivity
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
