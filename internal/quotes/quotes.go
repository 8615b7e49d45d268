package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSymbolNotFound indicates the provider has no data for a symbol.
var ErrSymbolNotFound = errors.New("quotes: symbol not found")

// Quote is a point-in-time price observation for one symbol.
type Quote struct {
	Symbol        string
	Current       decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Open          decimal.Decimal
	PreviousClose decimal.Decimal
	Timestamp     time.Time
}

// Candle is one bar of historical price data.
type Candle struct {
	Close     decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Open      decimal.Decimal
	Volume    decimal.Decimal
	Timestamp time.Time
}

// IndexSummary describes one market index with its latest movement.
type IndexSummary struct {
	ID            string
	Name          string
	Market        string
	Locale        string
	Value         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	IsUp          bool
}

// QuoteFetcher retrieves the latest quote for a single symbol.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}

// CandleFetcher retrieves historical bars for a symbol.
type CandleFetcher interface {
	GetCandles(ctx context.Context, symbol, resolution string, from, to time.Time) ([]Candle, error)
}

// IndexLister produces per-index summaries for the dashboard views.
type IndexLister interface {
	ListIndexSummaries(ctx context.Context, limit int) ([]IndexSummary, error)
}
