package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	prevAggPathFmt  = "/v2/aggs/ticker/%s/prev"
	rangeAggPathFmt = "/v2/aggs/ticker/%s/range/1/%s/%d/%d"
	tickersPath     = "/v3/reference/tickers"
)

// PolygonOptions parameterise the Polygon.io client.
type PolygonOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Polygon fetches quotes from the Polygon.io aggregates API.
type Polygon struct {
	opts    PolygonOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewPolygon constructs a Polygon client.
func NewPolygon(opts PolygonOptions, logger zerolog.Logger) *Polygon {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.polygon.io"
	}

	return &Polygon{
		opts:    opts,
		logger:  logger.With().Str("component", "polygon").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type aggBar struct {
	Close         float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
	Volume        float64 `json:"v"`
}

type aggResponse struct {
	Ticker       string   `json:"ticker"`
	Status       string   `json:"status"`
	ResultsCount int      `json:"resultsCount"`
	Results      []aggBar `json:"results"`
}

// GetQuote retrieves the previous-day aggregate for a symbol.
func (p *Polygon) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	if symbol == "" {
		return Quote{}, fmt.Errorf("%w: empty symbol", ErrSymbolNotFound)
	}

	endpoint := p.baseURL + fmt.Sprintf(prevAggPathFmt, url.PathEscape(symbol))
	payload, status, err := p.get(ctx, endpoint, url.Values{"adjusted": {"true"}})
	if err != nil {
		return Quote{}, err
	}
	if status == http.StatusNotFound {
		return Quote{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if status != http.StatusOK {
		return Quote{}, parseHTTPError(status, payload)
	}

	var res aggResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return Quote{}, fmt.Errorf("decode quote response: %w", err)
	}
	if res.ResultsCount == 0 || len(res.Results) == 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	bar := res.Results[0]
	// The previous-day aggregate carries no close-to-close reference; fall
	// back to the bar's open, as the dashboard change figures expect.
	prevClose := bar.PreviousClose
	if prevClose == 0 {
		prevClose = bar.Open
	}

	return Quote{
		Symbol:        symbol,
		Current:       decimal.NewFromFloat(bar.Close),
		High:          decimal.NewFromFloat(bar.High),
		Low:           decimal.NewFromFloat(bar.Low),
		Open:          decimal.NewFromFloat(bar.Open),
		PreviousClose: decimal.NewFromFloat(prevClose),
		Timestamp:     time.UnixMilli(bar.Timestamp).UTC(),
	}, nil
}

// GetCandles retrieves historical bars between from and to.
func (p *Polygon) GetCandles(ctx context.Context, symbol, resolution string, from, to time.Time) ([]Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrSymbolNotFound)
	}
	if resolution == "" {
		resolution = "day"
	}

	endpoint := p.baseURL + fmt.Sprintf(rangeAggPathFmt, url.PathEscape(symbol), resolution, from.UnixMilli(), to.UnixMilli())
	payload, status, err := p.get(ctx, endpoint, url.Values{"adjusted": {"true"}, "sort": {"asc"}})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if status != http.StatusOK {
		return nil, parseHTTPError(status, payload)
	}

	var res aggResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode candles response: %w", err)
	}

	candles := make([]Candle, 0, len(res.Results))
	for _, bar := range res.Results {
		candles = append(candles, Candle{
			Close:     decimal.NewFromFloat(bar.Close),
			High:      decimal.NewFromFloat(bar.High),
			Low:       decimal.NewFromFloat(bar.Low),
			Open:      decimal.NewFromFloat(bar.Open),
			Volume:    decimal.NewFromFloat(bar.Volume),
			Timestamp: time.UnixMilli(bar.Timestamp).UTC(),
		})
	}
	return candles, nil
}

type tickerEntry struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Market string `json:"market"`
	Locale string `json:"locale"`
	Active bool   `json:"active"`
}

type tickersResponse struct {
	Results []tickerEntry `json:"results"`
	Status  string        `json:"status"`
}

// ListIndexSummaries lists index tickers and resolves their quotes in
// parallel. A failed quote leaves the entry zero-valued rather than failing
// the whole listing.
func (p *Polygon) ListIndexSummaries(ctx context.Context, limit int) ([]IndexSummary, error) {
	params := url.Values{
		"market": {"indices"},
		"active": {"true"},
		"order":  {"asc"},
		"limit":  {"100"},
		"sort":   {"ticker"},
	}

	payload, status, err := p.get(ctx, p.baseURL+tickersPath, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, parseHTTPError(status, payload)
	}

	var res tickersResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode tickers response: %w", err)
	}

	entries := res.Results
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	summaries := make([]IndexSummary, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		summaries[i] = IndexSummary{
			ID:     entry.Ticker,
			Name:   entry.Name,
			Market: entry.Market,
			Locale: entry.Locale,
		}

		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()

			quote, err := p.GetQuote(ctx, ticker)
			if err != nil {
				p.logger.Warn().Err(err).Str("symbol", ticker).Msg("index quote unavailable")
				return
			}

			change := quote.Current.Sub(quote.PreviousClose)
			summaries[i].Value = quote.Current
			summaries[i].Change = change
			if !quote.PreviousClose.IsZero() {
				summaries[i].ChangePercent = change.Div(quote.PreviousClose).Mul(decimal.NewFromInt(100))
			}
			summaries[i].IsUp = quote.Current.GreaterThan(quote.PreviousClose)
		}(i, entry.Ticker)
	}
	wg.Wait()

	return summaries, nil
}

func (p *Polygon) get(ctx context.Context, endpoint string, params url.Values) ([]byte, int, error) {
	if params == nil {
		params = url.Values{}
	}
	if p.opts.APIKey != "" {
		params.Set("apiKey", p.opts.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(p.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return payload, resp.StatusCode, nil
}

type errorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("polygon api error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("polygon api error (%d): %s", status, apiErr.Message)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("polygon api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("polygon api error (%d)", status)
}

var _ QuoteFetcher = (*Polygon)(nil)
var _ CandleFetcher = (*Polygon)(nil)
var _ IndexLister = (*Polygon)(nil)
