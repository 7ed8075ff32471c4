package model

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityLogin            ActivityType = "login"
	ActivityLogout           ActivityType = "logout"
	ActivitySettingsUpdate   ActivityType = "settings_update"
	ActivityWatchlistChange  ActivityType = "watchlist_change"
	ActivityDeviceConnect    ActivityType = "device_connect"
	ActivityDeviceDisconnect ActivityType = "device_disconnect"
)

type UserActivity struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	ActivityType ActivityType   `gorm:"not null" json:"activity_type"`
	Description  string         `json:"description"`
	Details      datatypes.JSON `json:"details"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (UserActivity) TableName() string {
	return "user_activities"
}
