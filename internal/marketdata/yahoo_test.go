package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appleQuote = `{
  "quoteSummary": {
    "result": [{
      "price": {"longName": "Apple Inc.", "marketCap": {"raw": 3400000000000, "fmt": "3.4T"}, "regularMarketPrice": {"raw": 229.5}},
      "financialData": {"currentPrice": {"raw": 230.1}, "targetMeanPrice": {"raw": 250.0}, "recommendationKey": "buy", "profitMargins": {"raw": 0.24}},
      "defaultKeyStatistics": {"forwardPE": {"raw": 31.5}}
    }],
    "error": null
  }
}`

const sparseQuote = `{
  "quoteSummary": {
    "result": [{
      "price": {"shortName": "Newco", "regularMarketPrice": {"raw": 12.5}},
      "financialData": {"targetMeanPrice": {}},
      "defaultKeyStatistics": {}
    }],
    "error": null
  }
}`

func newTestGateway(t *testing.T, handler http.HandlerFunc) *YahooGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewYahooGateway(srv.URL, 5*time.Second)
}

func TestGetQuote(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		assert.Equal(t, quoteModules, r.URL.Query().Get("modules"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(appleQuote))
	})

	q, err := gw.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", q.Name())
	assert.Equal(t, int64(3400000000000), q.MarketCapOrZero())
	assert.True(t, decimal.RequireFromString("230.1").Equal(q.Price()))
	assert.True(t, decimal.RequireFromString("250").Equal(q.TargetOr(decimal.Zero)))
	assert.True(t, decimal.RequireFromString("31.5").Equal(q.ForwardPEOrZero()))
	assert.True(t, decimal.RequireFromString("0.24").Equal(q.ProfitMarginOrZero()))
	assert.Equal(t, "buy", q.Rating())
}

func TestGetQuoteMissingFields(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sparseQuote))
	})

	q, err := gw.GetQuote(context.Background(), "NEW")
	require.NoError(t, err)

	assert.Equal(t, "Newco", q.Name())
	assert.Nil(t, q.MarketCap)
	assert.Equal(t, int64(0), q.MarketCapOrZero())
	assert.True(t, decimal.RequireFromString("12.5").Equal(q.Price()), "falls back to regular market price")
	assert.Nil(t, q.TargetPrice)
	assert.True(t, q.ForwardPEOrZero().IsZero())
	assert.True(t, q.ProfitMarginOrZero().IsZero())
	assert.Equal(t, "none", q.Rating())

	fallback := decimal.RequireFromString("13.75")
	assert.True(t, fallback.Equal(q.TargetOr(fallback)))
}

func TestGetQuoteErrors(t *testing.T) {
	t.Run("api error body", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for ticker symbol: ZZZZ"}}}`))
		})
		_, err := gw.GetQuote(context.Background(), "ZZZZ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Quote not found")
	})

	t.Run("server error", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := gw.GetQuote(context.Background(), "AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 502")
	})

	t.Run("malformed json", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		})
		_, err := gw.GetQuote(context.Background(), "AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode quote")
	})

	t.Run("empty result", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteSummary":{"result":[],"error":null}}`))
		})
		_, err := gw.GetQuote(context.Background(), "AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty result")
	})
}

func TestGetHistory(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/MSFT", r.URL.Path)
		assert.Equal(t, "1735689600", r.URL.Query().Get("period1"))
		assert.Equal(t, "1736467200", r.URL.Query().Get("period2"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		// out of order, with a null close
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1736208000,1736035200,1736121600],
			"indicators":{"quote":[{"close":[110.0,100.0,null]}]}}],"error":null}}`))
	})

	samples, err := gw.GetHistory(context.Background(), "MSFT", start, end)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), samples[0].Date)
	assert.True(t, decimal.NewFromInt(100).Equal(samples[0].Price))
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), samples[1].Date)
	assert.True(t, decimal.NewFromInt(110).Equal(samples[1].Price))
	assert.Equal(t, "MSFT", samples[1].Symbol)
}

func TestGetHistoryEmptyResult(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	samples, err := gw.GetHistory(context.Background(), "NEW", time.Now().AddDate(0, 0, -5), time.Now())
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestGetHistoryAPIError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := gw.GetHistory(context.Background(), "GONE", time.Now().AddDate(0, 0, -5), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestGetHistoryErrorBodyOnNotFound(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := gw.GetHistory(context.Background(), "NOSUCH", time.Now().AddDate(0, 0, -5), time.Now())
	require.Error(t, err)
	assert.Equal(t, "chart lookup failed: No data found, symbol may be delisted", err.Error())
	assert.NotContains(t, err.Error(), "NOSUCH")
}

func TestGetHistoryServerErrorWithoutBody(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := gw.GetHistory(context.Background(), "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	require.Error(t, err)
	assert.Equal(t, "unexpected status 503", err.Error())
}

func TestGetQuoteErrorBodyOnNotFound(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for ticker symbol: ZZZZ"}}}`))
	})

	_, err := gw.GetQuote(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Equal(t, "quote lookup failed: Quote not found for ticker symbol: ZZZZ", err.Error())
}
