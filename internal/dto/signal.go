package dto

import "time"

// Classification is the outcome of comparing an asset's current price
// against the user's threshold for it.
type Classification string

const (
	ClassificationInvested Classification = "invested"
	ClassificationAbove    Classification = "above"
	ClassificationBelow    Classification = "below"
	ClassificationNeutral  Classification = "neutral"
)

// ActuatorColor is the device-side rendering of a classification.
type ActuatorColor string

const (
	ActuatorBlue  ActuatorColor = "blue"
	ActuatorGreen ActuatorColor = "green"
	ActuatorRed   ActuatorColor = "red"
	ActuatorOff   ActuatorColor = "off"
)

// ActuatorColor maps each classification to exactly one actuator state.
func (c Classification) ActuatorColor() ActuatorColor {
	switch c {
	case ClassificationInvested:
		return ActuatorBlue
	case ClassificationAbove:
		return ActuatorGreen
	case ClassificationBelow:
		return ActuatorRed
	default:
		return ActuatorOff
	}
}

// PricePoint is the latest observed market state for one asset.
type PricePoint struct {
	AssetID    string    `json:"asset_id"`
	Price      float64   `json:"price"`
	Change24h  float64   `json:"change_24h"`
	ObservedAt time.Time `json:"observed_at"`
}

// Signal is the classified outcome for one asset in one poll cycle.
type Signal struct {
	AssetID        string         `json:"asset_id"`
	Classification Classification `json:"classification"`
	ActuatorColor  ActuatorColor  `json:"actuator_color"`
	Price          float64        `json:"price"`
	Change24h      float64        `json:"change_24h"`
	Threshold      float64        `json:"threshold"`
	IsInvested     bool           `json:"is_invested"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// SignalBatch holds the signals produced by one poll cycle for one user.
type SignalBatch struct {
	UserID      uint              `json:"user_id"`
	Signals     map[string]Signal `json:"signals"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// DevicePrefs are the user's output-device preferences, forwarded with each
// actuator command so the device can render signals without a second round
// trip.
type DevicePrefs struct {
	EnableLED      bool `json:"enable_led"`
	EnableBuzzer   bool `json:"enable_buzzer"`
	LEDBrightness  int  `json:"led_brightness"`
	BuzzerVolume   int  `json:"buzzer_volume"`
	BuzzerDuration int  `json:"buzzer_duration_ms"`
	LEDBlinkSpeed  int  `json:"led_blink_speed_ms"`
}

// Enabled reports whether any output on the device is switched on.
func (p DevicePrefs) Enabled() bool {
	return p.EnableLED || p.EnableBuzzer
}

// ActuatorCommand is the per-asset color set plus device preferences pushed
// to the user's device channel.
type ActuatorCommand struct {
	UserID      uint                     `json:"user_id"`
	Colors      map[string]ActuatorColor `json:"colors"`
	Prefs       DevicePrefs              `json:"prefs"`
	GeneratedAt time.Time                `json:"generated_at"`
}
