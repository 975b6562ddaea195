package quotemedia

import (
	"context"
	"time"

	"VolSpike/internal/domain/models"
	"VolSpike/internal/domain/repository"
	"VolSpike/internal/service/ratelimit"
	pkgcache "VolSpike/pkg/cache"
	xhttp "VolSpike/pkg/http"
	xlogger "VolSpike/pkg/logger"
)

const historyPath = "/data/getExchangeHistory.json"

type historyResponse struct {
	Results struct {
		History []struct {
			SymbolString string `json:"symbolstring"`
			Symbol       string `json:"symbol"`
			Key          struct {
				Exchange string `json:"exchange"`
			} `json:"key"`
			EODData []struct {
				ShareVolume flexFloat `json:"sharevolume"`
				Close       flexFloat `json:"close"`
				Open        flexFloat `json:"open"`
				High        flexFloat `json:"high"`
				Low         flexFloat `json:"low"`
			} `json:"eoddata"`
		} `json:"history"`
	} `json:"results"`
}

// Option configures the shared fetch plumbing of a data client.
type Option func(*apiClient)

// WithLimiter bounds the request rate against the upstream.
func WithLimiter(l *ratelimit.Limiter, maxRPS, burst float64) Option {
	return func(c *apiClient) {
		c.limiter = l
		c.maxRPS = maxRPS
		c.burst = burst
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(c *apiClient) { c.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(l *xlogger.Logger) Option {
	return func(c *apiClient) { c.logger = l }
}

// HistoryClient retrieves one day of EOD records for an exchange code and
// normalizes the nested payload into flat DailyRecord rows.
type HistoryClient struct {
	api      apiClient
	cache    pkgcache.Service
	cacheTTL time.Duration
}

// NewHistoryClient creates an EOD history fetcher.
func NewHistoryClient(httpc *xhttp.Client, baseURL string, session *Session, opts ...Option) *HistoryClient {
	c := &HistoryClient{
		api: apiClient{http: httpc, baseURL: baseURL, session: session},
	}
	for _, opt := range opts {
		opt(&c.api)
	}
	return c
}

// SetCache enables cross-run caching of EOD responses. Closed trading days
// never change, so a TTL-bounded shared cache is safe here; broker reports
// are NOT cached this way.
func (c *HistoryClient) SetCache(svc pkgcache.Service, ttl time.Duration) {
	c.cache = svc
	c.cacheTTL = ttl
}

// FetchDay returns all EOD records for the exchange on one calendar date.
// An empty day yields an empty slice and a nil error.
func (c *HistoryClient) FetchDay(ctx context.Context, excode, date string) ([]models.DailyRecord, error) {
	cacheKey := pkgcache.GenerateKeyWithParams("history", excode, date)
	if c.cache != nil {
		var cached []models.DailyRecord
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	var resp historyResponse
	err := c.api.getJSON(ctx, "quotemedia.history", "history", historyPath, map[string]string{
		"excode": excode,
		"date":   date,
	}, &resp)
	if err != nil {
		return nil, err
	}

	records := make([]models.DailyRecord, 0, len(resp.Results.History))
	for _, item := range resp.Results.History {
		symbol := item.SymbolString
		if symbol == "" {
			symbol = item.Symbol
		}
		if symbol == "" {
			symbol = unknownIdentifier
		}
		exchange := item.Key.Exchange
		if exchange == "" {
			exchange = unknownIdentifier
		}
		for _, q := range item.EODData {
			records = append(records, models.DailyRecord{
				Symbol:      symbol,
				Exchange:    exchange,
				Date:        date,
				ShareVolume: float64(q.ShareVolume),
				Close:       float64(q.Close),
				Open:        float64(q.Open),
				High:        float64(q.High),
				Low:         float64(q.Low),
			})
		}
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, records, c.cacheTTL)
	}
	return records, nil
}
