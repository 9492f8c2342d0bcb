package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

const quoteModules = "price,financialData,defaultKeyStatistics"

// YahooGateway implements Gateway against the Yahoo Finance public API
type YahooGateway struct {
	client *resty.Client
}

// NewYahooGateway creates a gateway rooted at baseURL
func NewYahooGateway(baseURL string, timeout time.Duration) *YahooGateway {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	client.SetHeader("Accept", "application/json")

	return &YahooGateway{client: client}
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName           *string  `json:"longName"`
				ShortName          *string  `json:"shortName"`
				MarketCap          rawValue `json:"marketCap"`
				RegularMarketPrice rawValue `json:"regularMarketPrice"`
			} `json:"price"`
			FinancialData struct {
				CurrentPrice      rawValue `json:"currentPrice"`
				TargetMeanPrice   rawValue `json:"targetMeanPrice"`
				RecommendationKey *string  `json:"recommendationKey"`
				ProfitMargins     rawValue `json:"profitMargins"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				ForwardPE rawValue `json:"forwardPE"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current quote, key statistics and analyst data for symbol
func (g *YahooGateway) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParam("modules", quoteModules).
		Get("/v10/finance/quoteSummary/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}

	// error bodies come with non-200 statuses too
	var qs quoteSummaryResponse
	decodeErr := json.Unmarshal(resp.Body(), &qs)
	if decodeErr == nil && qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote lookup failed: %s", qs.QuoteSummary.Error.Description)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", decodeErr)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, errors.New("quote lookup returned an empty result")
	}

	r := qs.QuoteSummary.Result[0]
	q := &Quote{Symbol: symbol}

	q.DisplayName = r.Price.LongName
	if q.DisplayName == nil {
		q.DisplayName = r.Price.ShortName
	}
	if r.Price.MarketCap.Raw != nil {
		mc := int64(*r.Price.MarketCap.Raw)
		q.MarketCap = &mc
	}
	q.CurrentPrice = r.FinancialData.CurrentPrice.toDecimal()
	if q.CurrentPrice == nil {
		q.CurrentPrice = r.Price.RegularMarketPrice.toDecimal()
	}
	q.TargetPrice = r.FinancialData.TargetMeanPrice.toDecimal()
	q.ProfitMargin = r.FinancialData.ProfitMargins.toDecimal()
	q.ForwardPE = r.DefaultKeyStatistics.ForwardPE.toDecimal()
	q.AnalystRating = r.FinancialData.RecommendationKey

	return q, nil
}

// GetHistory fetches daily closes in [start, end], oldest first. Null closes
// (holidays, halted sessions) are dropped.
func (g *YahooGateway) GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceSample, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(start.Unix(), 10),
			"period2":  strconv.FormatInt(end.Unix(), 10),
			"interval": "1d",
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(resp.Body(), &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart lookup failed: %s", chart.Chart.Error.Description)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", decodeErr)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	samples := make([]models.PriceSample, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		samples = append(samples, models.PriceSample{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC(),
			Price:  decimal.NewFromFloat(*closes[i]),
		})
	}

	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })
	return samples, nil
}

func (v rawValue) toDecimal() *decimal.Decimal {
	if v.Raw == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v.Raw)
	return &d
}
