package analysis

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// UpdateStockData fetches the large-cap set and upserts every snapshot in a
// single transaction. A store failure fails the whole update and nothing is
// committed. Events and cache invalidation only follow a successful commit.
func (s *Service) UpdateStockData(ctx context.Context) (*models.UpdateReport, error) {
	stocks, outcomes := s.FetchLargeCapStocks(ctx)
	now := s.clock.Now().UTC()

	res, err := s.store.UpsertStocks(ctx, stocks, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock data: %w", err)
	}

	report := &models.UpdateReport{
		Inserted:  res.Inserted,
		Updated:   res.Updated,
		Symbols:   make([]string, 0, len(stocks)),
		Timestamp: now,
	}
	for _, o := range outcomes {
		if o.Skipped() {
			report.Skipped = append(report.Skipped, o)
		}
	}

	for _, st := range stocks {
		report.Symbols = append(report.Symbols, st.Symbol)
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.PublishStockUpdated(ctx, st.ToStock(now)); err != nil {
			s.log.WithFields(logrus.Fields{
				"symbol": st.Symbol,
				"error":  err.Error(),
			}).Warn("Failed to publish stock update")
		}
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateAnalysis(ctx); err != nil {
			s.log.WithError(err).Warn("Failed to invalidate cached analysis")
		}
	}

	s.log.WithFields(logrus.Fields{
		"inserted": report.Inserted,
		"updated":  report.Updated,
		"skipped":  len(report.Skipped),
	}).Info("Stock data updated")

	return report, nil
}
