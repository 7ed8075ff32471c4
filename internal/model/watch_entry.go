package model

import "time"

// WatchEntry is one asset a user monitors, with its own threshold price.
// At most one entry exists per (user, asset) pair.
type WatchEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_watch_user_asset" json:"user_id"`
	AssetID        string    `gorm:"not null;uniqueIndex:idx_watch_user_asset" json:"asset_id"`
	ThresholdPrice float64   `gorm:"not null" json:"threshold_price"`
	IsInvested     bool      `gorm:"not null;default:false" json:"is_invested"`
	User           User      `gorm:"foreignKey:UserID;references:ID" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WatchEntry) TableName() string {
	return "watch_entries"
}
