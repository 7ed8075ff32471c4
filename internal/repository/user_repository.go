package repository

import (
	"coinwatch/internal/dto"
	"coinwatch/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, userID uint) (*model.User, error)
	UpdateDevicePrefs(ctx context.Context, userID uint, prefs dto.DevicePrefs) error
	SetDeviceConnected(ctx context.Context, userID uint, connected bool) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) GetByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).First(&user, userID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &user, nil
}

func (r *userRepository) UpdateDevicePrefs(ctx context.Context, userID uint, prefs dto.DevicePrefs) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"enable_led":      prefs.EnableLED,
		"enable_buzzer":   prefs.EnableBuzzer,
		"led_brightness":  prefs.LEDBrightness,
		"buzzer_volume":   prefs.BuzzerVolume,
		"buzzer_duration": prefs.BuzzerDuration,
		"led_blink_speed": prefs.LEDBlinkSpeed,
	}).Error
}

func (r *userRepository) SetDeviceConnected(ctx context.Context, userID uint, connected bool) error {
	updates := map[string]interface{}{
		"device_connected": connected,
	}
	if connected {
		updates["device_last_seen"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}
