// Package exchange fetches stablecoin/fiat conversion rates for reporting.
// Failures here only degrade analytics; nothing in the ledger depends on it.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"flexvest/utils/apperror"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Point is one day of a rate series.
type Point struct {
	Date string          `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// Source provides current and historical rates.
type Source interface {
	Rate(ctx context.Context, base, quote string) (decimal.Decimal, error)
	History(ctx context.Context, base, quote string, from, to time.Time) ([]Point, error)
}

// Client talks to an exchangerate-api style HTTP API, caching responses and
// throttling outbound calls.
type Client struct {
	http    *resty.Client
	apiKey  string
	cache   Cache
	ttl     time.Duration
	limiter *rate.Limiter
}

type Options struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Cache    Cache
	CacheTTL time.Duration
	// Outbound request budget.
	RequestsPerSecond float64
	Burst             int
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
			SetTimeout(opts.Timeout).
			SetHeader("Accept", "application/json"),
		apiKey:  opts.APIKey,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
	}
}

type latestResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

type historyResponse struct {
	Rates map[string]map[string]decimal.Decimal `json:"rates"`
}

func (c *Client) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	key := fmt.Sprintf("fx:latest:%s:%s", base, quote)
	if raw, ok := c.cache.Get(ctx, key); ok {
		if r, err := decimal.NewFromString(string(raw)); err == nil {
			return r, nil
		}
	}

	var body latestResponse
	if err := c.get(ctx, "/latest/"+base, &body); err != nil {
		return decimal.Zero, err
	}
	r, ok := body.Rates[quote]
	if !ok || !r.IsPositive() {
		return decimal.Zero, apperror.External(apperror.ErrRateUnavailable.Code, fmt.Errorf("no %s rate in response", quote))
	}
	c.cache.Set(ctx, key, []byte(r.String()), c.ttl)
	return r, nil
}

func (c *Client) History(ctx context.Context, base, quote string, from, to time.Time) ([]Point, error) {
	start, end := from.Format("2006-01-02"), to.Format("2006-01-02")
	key := fmt.Sprintf("fx:history:%s:%s:%s:%s", base, quote, start, end)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var points []Point
		if err := json.Unmarshal(raw, &points); err == nil {
			return points, nil
		}
	}

	var body historyResponse
	if err := c.get(ctx, fmt.Sprintf("/history/%s/%s/%s/%s", base, quote, start, end), &body); err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(body.Rates))
	for date, rates := range body.Rates {
		if r, ok := rates[quote]; ok {
			points = append(points, Point{Date: date, Rate: r})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	if raw, err := json.Marshal(points); err == nil {
		c.cache.Set(ctx, key, raw, c.ttl)
	}
	return points, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.External(apperror.ErrRateUnavailable.Code, err)
	}

	req := c.http.R().SetContext(ctx).SetResult(out)
	if c.apiKey != "" {
		req.SetQueryParam("apikey", c.apiKey)
	}
	resp, err := req.Get(path)
	if err != nil {
		return apperror.External(apperror.ErrRateUnavailable.Code, err)
	}
	if resp.IsError() {
		return apperror.External(apperror.ErrRateUnavailable.Code, fmt.Errorf("rate API status %d", resp.StatusCode()))
	}
	return nil
}
