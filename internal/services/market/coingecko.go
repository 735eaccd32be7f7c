package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"MoodPulse/internal/domain/models"
	domsvc "MoodPulse/internal/domain/service"
	"MoodPulse/internal/service/cache"
	"MoodPulse/internal/service/ratelimit"
	xhttp "MoodPulse/pkg/http"
	applogger "MoodPulse/pkg/logger"
)

// coinIDs maps ticker symbols to CoinGecko coin ids. Unknown symbols fall
// back to their lowercase form, which works for most listed coins.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
}

// CoinGeckoConfig tunes the polling client.
type CoinGeckoConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	CacheTTL     time.Duration
	MaxRPS       float64
	MaxRetries   int
	RetryBackoff time.Duration
}

// CoinGecko implements DataSource against the CoinGecko simple price API.
// Responses are cached briefly so a burst of per-asset fetches within one
// cycle costs at most one upstream call per asset, and a token bucket
// keeps the client under the public API rate limit.
type CoinGecko struct {
	cfg     CoinGeckoConfig
	client  *xhttp.Client
	cache   *cache.TTLCache
	limiter *ratelimit.Limiter
	logger  *applogger.Logger
}

func NewCoinGecko(cfg CoinGeckoConfig, logger *applogger.Logger) *CoinGecko {
	return &CoinGecko{
		cfg:     cfg,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		cache:   cache.NewTTLCache(),
		limiter: ratelimit.New(),
		logger:  logger,
	}
}

type simplePriceEntry struct {
	USD           float64 `json:"usd"`
	USD24hVol     float64 `json:"usd_24h_vol"`
	LastUpdatedAt int64   `json:"last_updated_at"`
}

func (c *CoinGecko) Fetch(ctx context.Context, asset string) (models.Sample, error) {
	id := lo.ValueOr(coinIDs, strings.ToUpper(asset), strings.ToLower(asset))

	if v, ok := c.cache.Get(id); ok {
		if e, ok2 := v.(simplePriceEntry); ok2 {
			return entryToSample(asset, e), nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return models.Sample{}, ctx.Err()
			case <-time.After(c.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}
		if !c.limiter.Allow("coingecko", c.cfg.MaxRPS, c.cfg.MaxRPS) {
			lastErr = fmt.Errorf("coingecko rate limit exhausted")
			continue
		}

		e, err := c.fetchOnce(ctx, id)
		if err != nil {
			lastErr = err
			c.logger.Warn("coingecko fetch failed",
				applogger.String("asset", asset),
				applogger.Int("attempt", attempt+1),
				applogger.Error(err),
			)
			continue
		}
		c.cache.Set(id, e, c.cfg.CacheTTL)
		return entryToSample(asset, e), nil
	}
	return models.Sample{}, fmt.Errorf("fetch %s: %w", asset, lastErr)
}

func (c *CoinGecko) fetchOnce(ctx context.Context, id string) (simplePriceEntry, error) {
	headers := map[string]string{"Accept": "application/json"}
	if c.cfg.APIKey != "" {
		headers["x-cg-demo-api-key"] = c.cfg.APIKey
	}

	var resp map[string]simplePriceEntry
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     strings.TrimRight(c.cfg.BaseURL, "/") + "/simple/price",
		Headers: headers,
		QueryParams: map[string][]string{
			"ids":                     {id},
			"vs_currencies":           {"usd"},
			"include_24hr_vol":        {"true"},
			"include_last_updated_at": {"true"},
		},
	}, &resp)
	if err != nil {
		return simplePriceEntry{}, err
	}

	e, ok := resp[id]
	if !ok {
		return simplePriceEntry{}, fmt.Errorf("coin %q missing from response", id)
	}
	return e, nil
}

func entryToSample(asset string, e simplePriceEntry) models.Sample {
	ts := time.Unix(e.LastUpdatedAt, 0)
	if e.LastUpdatedAt == 0 {
		ts = time.Now()
	}
	return models.Sample{
		Asset:     strings.ToUpper(asset),
		Timestamp: ts,
		Price:     e.USD,
		Volume:    e.USD24hVol,
	}
}

var _ domsvc.DataSource = (*CoinGecko)(nil)
