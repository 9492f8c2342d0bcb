package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// HistoryError reports that the gateway could not supply a symbol's history
type HistoryError struct {
	Symbol string
	Err    error
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("failed to fetch history for %s: %v", e.Symbol, e.Err)
}

func (e *HistoryError) Unwrap() error { return e.Err }

// CalculateROI computes the percentage change between the first and last close
// in [now - windowDays, now]. Fewer than two samples is reported through
// ROIResult.InsufficientData, not as an error; gateway failures are returned
// as *HistoryError.
func (s *Service) CalculateROI(ctx context.Context, symbol string, windowDays int) (*models.ROIResult, error) {
	samples, err := s.History(ctx, symbol, windowDays)
	if err != nil {
		return nil, err
	}
	return ComputeROI(symbol, samples), nil
}

// History fetches the trailing window of closes for symbol, oldest first
func (s *Service) History(ctx context.Context, symbol string, windowDays int) ([]models.PriceSample, error) {
	if windowDays <= 0 {
		windowDays = s.opts.ROIWindowDays
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -windowDays)

	samples, err := s.gateway.GetHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, &HistoryError{Symbol: symbol, Err: err}
	}

	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })
	return samples, nil
}

// ComputeROI derives the ROI result from a chronologically ordered series
func ComputeROI(symbol string, samples []models.PriceSample) *models.ROIResult {
	// a zero opening price has no defined return
	if len(samples) < 2 || samples[0].Price.IsZero() {
		return &models.ROIResult{
			Symbol:           symbol,
			InsufficientData: true,
			Error:            models.InsufficientDataMessage,
		}
	}

	initial := samples[0].Price
	final := samples[len(samples)-1].Price

	result := &models.ROIResult{
		Symbol:        symbol,
		InitialPrice:  initial,
		FinalPrice:    final,
		ROIPercentage: final.Sub(initial).Div(initial).Mul(hundred),
		Dates:         make([]string, len(samples)),
		Prices:        make([]decimal.Decimal, len(samples)),
	}
	for i, p := range samples {
		result.Dates[i] = p.Date.Format("2006-01-02")
		result.Prices[i] = p.Price
	}
	return result
}
