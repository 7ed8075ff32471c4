package repository

import (
	"coinwatch/config"
	"coinwatch/internal/dto"
	"coinwatch/pkg/cache"
	"coinwatch/pkg/httpclient"
	"coinwatch/pkg/logger"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const keyMarketCoins = "coingecko:markets"

type CoinGeckoRepository interface {
	FetchPrices(ctx context.Context, assetIDs []string) (map[string]dto.PricePoint, error)
	ListMarkets(ctx context.Context) ([]dto.MarketCoin, error)
	GetMarketChart(ctx context.Context, assetID string, days int, interval string) (*dto.MarketChart, error)
}

type coinGeckoRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	inmemoryCache  cache.Cache
	requestLimiter *rate.Limiter
}

func NewCoinGeckoRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache) CoinGeckoRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.CoinGecko.MaxRequestPerMin)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &coinGeckoRepository{
		httpClient:     httpclient.New(log, cfg.CoinGecko.BaseURL, cfg.CoinGecko.Timeout),
		cfg:            cfg,
		logger:         log,
		inmemoryCache:  inmemoryCache,
		requestLimiter: requestLimiter,
	}
}

// FetchPrices returns the current price and 24h change for the given asset
// ids. Assets missing from the response are omitted, not an error. An empty
// id set short-circuits without a network call.
func (r *coinGeckoRepository) FetchPrices(ctx context.Context, assetIDs []string) (map[string]dto.PricePoint, error) {
	if len(assetIDs) == 0 {
		return map[string]dto.PricePoint{}, nil
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/simple/price"
	queryParams := map[string]string{
		"ids":                 strings.Join(assetIDs, ","),
		"vs_currencies":       "usd",
		"include_24hr_change": "true",
	}

	var respData dto.CoinGeckoSimplePrice
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &respData)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices from coingecko: %v: %w", err, ErrSourceUnavailable)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{RetryAfter: retryAfterHint(resp.Headers)}
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("CoinGecko API returned Non-OK status for prices",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("coingecko api returned status %d: %w", resp.StatusCode, ErrSourceUnavailable)
	}

	now := time.Now().UTC()
	result := make(map[string]dto.PricePoint, len(respData))
	for assetID, values := range respData {
		result[assetID] = dto.PricePoint{
			AssetID:    assetID,
			Price:      values["usd"],
			Change24h:  values["usd_24h_change"],
			ObservedAt: now,
		}
	}

	return result, nil
}

// ListMarkets returns the top coins by market cap for the settings UI. The
// listing changes slowly, so it is cached.
func (r *coinGeckoRepository) ListMarkets(ctx context.Context) ([]dto.MarketCoin, error) {
	if coins, ok := cache.GetFromCache[[]dto.MarketCoin](r.inmemoryCache, keyMarketCoins); ok {
		return coins, nil
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/coins/markets"
	queryParams := map[string]string{
		"vs_currency": "usd",
		"order":       "market_cap_desc",
		"per_page":    strconv.Itoa(r.cfg.CoinGecko.MarketsPerPage),
		"page":        "1",
		"sparkline":   "false",
	}

	var coins []dto.MarketCoin
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &coins)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coin markets from coingecko: %v: %w", err, ErrSourceUnavailable)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{RetryAfter: retryAfterHint(resp.Headers)}
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("CoinGecko API returned Non-OK status for markets",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("coingecko api returned status %d: %w", resp.StatusCode, ErrSourceUnavailable)
	}

	r.inmemoryCache.Set(keyMarketCoins, coins, r.cfg.CoinGecko.MarketsCacheTTL)
	return coins, nil
}

// GetMarketChart returns historical prices and volumes for one asset.
func (r *coinGeckoRepository) GetMarketChart(ctx context.Context, assetID string, days int, interval string) (*dto.MarketChart, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/coins/%s/market_chart", assetID)
	queryParams := map[string]string{
		"vs_currency": "usd",
		"days":        strconv.Itoa(days),
		"interval":    interval,
	}

	var chart dto.MarketChart
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &chart)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market chart from coingecko: %v: %w", err, ErrSourceUnavailable)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{RetryAfter: retryAfterHint(resp.Headers)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko api returned status %d: %w", resp.StatusCode, ErrSourceUnavailable)
	}

	return &chart, nil
}

func retryAfterHint(headers http.Header) time.Duration {
	raw := headers.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
