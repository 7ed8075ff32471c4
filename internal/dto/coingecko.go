package dto

// CoinGeckoSimplePrice is the raw /simple/price response:
// asset id -> {"usd": price, "usd_24h_change": change}.
type CoinGeckoSimplePrice map[string]map[string]float64

// MarketCoin is one row of the /coins/markets listing.
type MarketCoin struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	Change24h    float64 `json:"price_change_percentage_24h"`
	Volume24h    float64 `json:"total_volume"`
}

// MarketChart is the /coins/{id}/market_chart response. Each inner pair is
// [timestamp_ms, value].
type MarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// Candlestick is the chart shape the dashboard renders. The upstream chart
// endpoint only returns close prices, so high/low are approximated around
// the close the same way the dashboard always has.
type Candlestick struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}
