package model

import "time"

// MarketData is one observed price point for an asset. Rows are appended on
// each successful poll and pruned by the maintenance job after the retention
// window.
type MarketData struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AssetID    string    `gorm:"not null;index" json:"asset_id"`
	Price      float64   `gorm:"not null" json:"price"`
	Change24h  float64   `gorm:"not null" json:"change_24h"`
	ObservedAt time.Time `gorm:"not null;index" json:"observed_at"`
}

func (MarketData) TableName() string {
	return "market_data"
}
