package analysis

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/marketdata"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// candidate is a large-cap stock together with the quote it was selected from
type candidate struct {
	stock models.LargeCapStock
	quote *marketdata.Quote
}

// FetchLargeCapStocks walks the watch-list in order and keeps the symbols whose
// market cap is strictly above the threshold. A gateway failure drops only that
// symbol; every symbol gets an outcome explaining what happened to it.
func (s *Service) FetchLargeCapStocks(ctx context.Context) ([]models.LargeCapStock, []models.FetchOutcome) {
	candidates, outcomes := s.fetchCandidates(ctx)

	stocks := make([]models.LargeCapStock, 0, len(candidates))
	for _, c := range candidates {
		stocks = append(stocks, c.stock)
	}
	return stocks, outcomes
}

func (s *Service) fetchCandidates(ctx context.Context) ([]candidate, []models.FetchOutcome) {
	candidates := make([]candidate, 0, len(s.opts.Watchlist))
	outcomes := make([]models.FetchOutcome, 0, len(s.opts.Watchlist))

	for _, symbol := range s.opts.Watchlist {
		quote, err := s.gateway.GetQuote(ctx, symbol)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Skipping symbol: quote fetch failed")
			outcomes = append(outcomes, models.FetchOutcome{Symbol: symbol, SkipReason: err.Error()})
			continue
		}

		marketCap := quote.MarketCapOrZero()
		if marketCap <= s.opts.MarketCapThreshold {
			outcomes = append(outcomes, models.FetchOutcome{
				Symbol:     symbol,
				SkipReason: fmt.Sprintf("market cap %d not above %d", marketCap, s.opts.MarketCapThreshold),
			})
			continue
		}

		stock := models.LargeCapStock{
			Symbol:       symbol,
			Name:         quote.Name(),
			MarketCap:    marketCap,
			CurrentPrice: quote.Price(),
		}
		candidates = append(candidates, candidate{stock: stock, quote: quote})
		outcomes = append(outcomes, models.FetchOutcome{Symbol: symbol, Stock: &stock})
	}

	return candidates, outcomes
}
