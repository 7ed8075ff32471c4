package dto

// UpsertWatchEntryRequest creates or updates one watch entry for a user.
type UpsertWatchEntryRequest struct {
	ThresholdPrice float64 `json:"threshold_price" validate:"required,gt=0"`
	IsInvested     bool    `json:"is_invested"`
}

// UpdatePreferencesRequest updates the user's output-device preferences.
type UpdatePreferencesRequest struct {
	EnableLED      *bool `json:"enable_led" validate:"required"`
	EnableBuzzer   *bool `json:"enable_buzzer" validate:"required"`
	LEDBrightness  int   `json:"led_brightness" validate:"min=0,max=100"`
	BuzzerVolume   int   `json:"buzzer_volume" validate:"min=0,max=100"`
	BuzzerDuration int   `json:"buzzer_duration_ms" validate:"min=100,max=10000"`
	LEDBlinkSpeed  int   `json:"led_blink_speed_ms" validate:"min=100,max=2000"`
}

// MonitorStatusResponse reports a user's worker state for the dashboard's
// staleness indicator.
type MonitorStatusResponse struct {
	UserID     uint   `json:"user_id"`
	Running    bool   `json:"running"`
	LastPollAt string `json:"last_poll_at,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// ChartResponse wraps candlesticks with the coin context the dashboard needs.
type ChartResponse struct {
	CoinInfo     ChartCoinInfo `json:"coin_info"`
	Candlesticks []Candlestick `json:"candlesticks"`
	Timeframe    string        `json:"timeframe"`
}

type ChartCoinInfo struct {
	ID             string  `json:"id"`
	CurrentPrice   float64 `json:"current_price"`
	ThresholdPrice float64 `json:"threshold_price"`
	IsInvested     bool    `json:"is_invested"`
}
