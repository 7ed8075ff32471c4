package model

import "time"

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"not null" json:"username"`
	Email           string     `gorm:"not null" json:"email"`
	IsAdmin         bool       `gorm:"not null;default:false" json:"is_admin"`
	EnableLED       bool       `gorm:"column:enable_led;not null;default:true" json:"enable_led"`
	EnableBuzzer    bool       `gorm:"not null;default:true" json:"enable_buzzer"`
	LEDBrightness   int        `gorm:"column:led_brightness;not null;default:80" json:"led_brightness"`
	BuzzerVolume    int        `gorm:"not null;default:70" json:"buzzer_volume"`
	BuzzerDuration  int        `gorm:"not null;default:1000" json:"buzzer_duration_ms"`
	LEDBlinkSpeed   int        `gorm:"column:led_blink_speed;not null;default:500" json:"led_blink_speed_ms"`
	DeviceConnected bool       `gorm:"not null;default:false" json:"device_connected"`
	DeviceLastSeen  *time.Time `json:"device_last_seen"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
