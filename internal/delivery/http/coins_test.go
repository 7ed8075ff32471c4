package http

import (
	"coinwatch/internal/dto"
	"coinwatch/internal/model"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListCoins(t *testing.T) {
	f := newHandlerFixture(t)

	c, rec := f.newContext(http.MethodGet, "", nil, nil)
	assert.NoError(t, f.handler.ListCoins(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var coins []dto.MarketCoin
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &coins))
	assert.Len(t, coins, 1)
	assert.Equal(t, "bitcoin", coins[0].ID)
}

func TestGetChartData_RejectsUnwatchedAsset(t *testing.T) {
	f := newHandlerFixture(t)

	c, _ := f.newContext(http.MethodGet, "", []string{"userID", "assetID"}, []string{"1", "bitcoin"})
	err := f.handler.GetChartData(c)
	assert.Equal(t, http.StatusForbidden, httpErrorCode(t, err))
}

func TestGetChartData_WatchedAsset(t *testing.T) {
	f := newHandlerFixture(t)
	f.watchlist.entries[1] = []model.WatchEntry{
		{UserID: 1, AssetID: "bitcoin", ThresholdPrice: 100000, IsInvested: true},
	}

	c, rec := f.newContext(http.MethodGet, "", []string{"userID", "assetID"}, []string{"1", "bitcoin"})
	assert.NoError(t, f.handler.GetChartData(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ChartResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bitcoin", resp.CoinInfo.ID)
	assert.Equal(t, 100000.0, resp.CoinInfo.ThresholdPrice)
	assert.True(t, resp.CoinInfo.IsInvested)
	assert.Len(t, resp.Candlesticks, 2)

	// Unknown timeframes fall back to the default.
	assert.Equal(t, "1d", resp.Timeframe)

	last := resp.Candlesticks[len(resp.Candlesticks)-1]
	assert.Equal(t, 105.0, last.Close)
	assert.InDelta(t, 107.1, last.High, 0.001)
	assert.InDelta(t, 102.9, last.Low, 0.001)
	assert.Equal(t, last.Close, resp.CoinInfo.CurrentPrice)
}

func TestGetLatestMarketData(t *testing.T) {
	f := newHandlerFixture(t)
	f.watchlist.entries[1] = []model.WatchEntry{
		{UserID: 1, AssetID: "bitcoin", ThresholdPrice: 100000},
	}
	observedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f.marketData.latest["bitcoin"] = &model.MarketData{
		AssetID:    "bitcoin",
		Price:      104500,
		Change24h:  -1.3,
		ObservedAt: observedAt,
	}

	c, rec := f.newContext(http.MethodGet, "", []string{"userID", "assetID"}, []string{"1", "bitcoin"})
	assert.NoError(t, f.handler.GetLatestMarketData(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var row model.MarketData
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, "bitcoin", row.AssetID)
	assert.Equal(t, 104500.0, row.Price)
	assert.Equal(t, -1.3, row.Change24h)
	assert.True(t, row.ObservedAt.Equal(observedAt))
}

func TestGetLatestMarketData_NoObservationsYet(t *testing.T) {
	f := newHandlerFixture(t)
	f.watchlist.entries[1] = []model.WatchEntry{
		{UserID: 1, AssetID: "bitcoin", ThresholdPrice: 100000},
	}

	c, _ := f.newContext(http.MethodGet, "", []string{"userID", "assetID"}, []string{"1", "bitcoin"})
	err := f.handler.GetLatestMarketData(c)
	assert.Equal(t, http.StatusNotFound, httpErrorCode(t, err))
}

func TestGetLatestMarketData_RejectsUnwatchedAsset(t *testing.T) {
	f := newHandlerFixture(t)

	c, _ := f.newContext(http.MethodGet, "", []string{"userID", "assetID"}, []string{"1", "bitcoin"})
	err := f.handler.GetLatestMarketData(c)
	assert.Equal(t, http.StatusForbidden, httpErrorCode(t, err))
}

func TestBuildCandlesticks_VolumeAlignment(t *testing.T) {
	chart := &dto.MarketChart{
		Prices:       [][2]float64{{1, 100}, {2, 110}, {3, 120}},
		TotalVolumes: [][2]float64{{1, 5}, {2, 6}},
	}

	sticks := buildCandlesticks(chart)
	assert.Len(t, sticks, 3)
	assert.Equal(t, 5.0, sticks[0].Volume)
	assert.Equal(t, 6.0, sticks[1].Volume)
	assert.Equal(t, 0.0, sticks[2].Volume, "missing volume entries default to zero")
}
