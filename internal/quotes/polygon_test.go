package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestClient(baseURL string) *Polygon {
	return NewPolygon(PolygonOptions{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Timeout:   time.Second,
		UserAgent: "test",
	}, noopLogger())
}

func TestGetQuoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v2/aggs/ticker/AAPL/prev") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Fatal("apiKey 未附加到请求")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ticker":       "AAPL",
			"status":       "OK",
			"resultsCount": 1,
			"results": []map[string]any{
				{"c": 152.5, "h": 153.0, "l": 150.0, "o": 151.0, "t": 1700000000000},
			},
		})
	}))
	defer srv.Close()

	quote, err := newTestClient(srv.URL).GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetQuote 应成功: %v", err)
	}

	if quote.Current.Cmp(decimal.NewFromFloat(152.5)) != 0 {
		t.Fatalf("current = %s", quote.Current)
	}
	// No previous-close field in the aggregate; falls back to the open.
	if quote.PreviousClose.Cmp(decimal.NewFromFloat(151.0)) != 0 {
		t.Fatalf("previousClose = %s", quote.PreviousClose)
	}
	if quote.Timestamp.IsZero() {
		t.Fatal("timestamp 应被解析")
	}
}

func TestGetQuoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetQuote(context.Background(), "NOPE")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("404 应映射为 ErrSymbolNotFound, 实际 %v", err)
	}
}

func TestGetQuoteEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "resultsCount": 0, "results": []any{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetQuote(context.Background(), "EMPTY")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("空结果应映射为 ErrSymbolNotFound, 实际 %v", err)
	}
}

func TestGetQuoteProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetQuote(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("HTTP 429 应返回错误")
	}
	if errors.Is(err, ErrSymbolNotFound) {
		t.Fatal("限流不应映射为 ErrSymbolNotFound")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("错误信息应包含上游描述: %v", err)
	}
}

func TestGetCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/range/1/day/") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "OK",
			"resultsCount": 2,
			"results": []map[string]any{
				{"c": 150.0, "h": 151.0, "l": 149.0, "o": 149.5, "t": 1700000000000, "v": 1000},
				{"c": 152.0, "h": 152.5, "l": 150.0, "o": 150.5, "t": 1700086400000, "v": 1200},
			},
		})
	}))
	defer srv.Close()

	from := time.Now().Add(-48 * time.Hour)
	to := time.Now()
	candles, err := newTestClient(srv.URL).GetCandles(context.Background(), "AAPL", "day", from, to)
	if err != nil {
		t.Fatalf("GetCandles 应成功: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("len(candles) = %d", len(candles))
	}
	if candles[1].Close.Cmp(decimal.NewFromInt(152)) != 0 {
		t.Fatalf("close = %s", candles[1].Close)
	}
}

func TestListIndexSummaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v3/reference/tickers"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "OK",
				"results": []map[string]any{
					{"ticker": "I:SPX", "name": "S&P 500", "market": "indices", "locale": "us", "active": true},
					{"ticker": "I:BAD", "name": "Broken", "market": "indices", "locale": "us", "active": true},
				},
			})
		case strings.Contains(r.URL.Path, "I:BAD"):
			w.WriteHeader(http.StatusNotFound)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":       "OK",
				"resultsCount": 1,
				"results": []map[string]any{
					{"c": 5000.0, "h": 5010.0, "l": 4980.0, "o": 4990.0, "t": 1700000000000},
				},
			})
		}
	}))
	defer srv.Close()

	summaries, err := newTestClient(srv.URL).ListIndexSummaries(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListIndexSummaries 应成功: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len(summaries) = %d", len(summaries))
	}

	spx := summaries[0]
	if spx.ID != "I:SPX" {
		t.Fatalf("id = %s", spx.ID)
	}
	if spx.Value.Cmp(decimal.NewFromInt(5000)) != 0 {
		t.Fatalf("value = %s", spx.Value)
	}
	if !spx.IsUp {
		t.Fatal("5000 > 4990 应标记为上涨")
	}

	// The failing index stays in the listing with zero values.
	bad := summaries[1]
	if bad.ID != "I:BAD" {
		t.Fatalf("id = %s", bad.ID)
	}
	if !bad.Value.IsZero() {
		t.Fatalf("失败的指数应保持零值, 实际 %s", bad.Value)
	}
}
