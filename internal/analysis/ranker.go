package analysis

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// targetFallbackMultiplier is applied to the current price when the provider has no target
var targetFallbackMultiplier = decimal.RequireFromString("1.1")

// Ranking is the outcome of one opportunity analysis run
type Ranking struct {
	Top     []models.OpportunityAnalysis
	Skipped []models.FetchOutcome
}

// AnalyzeInvestmentOpportunities returns the top candidates by ROI potential, best first
func (s *Service) AnalyzeInvestmentOpportunities(ctx context.Context) ([]models.OpportunityAnalysis, error) {
	ranking, err := s.RankOpportunities(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Top, nil
}

// RankOpportunities scores every large-cap candidate and keeps the top N.
// Candidates whose history cannot be fetched are skipped; an insufficient
// history only zeroes the past-year factor.
func (s *Service) RankOpportunities(ctx context.Context) (*Ranking, error) {
	candidates, outcomes := s.fetchCandidates(ctx)

	ranking := &Ranking{}
	for _, o := range outcomes {
		if o.Skipped() {
			ranking.Skipped = append(ranking.Skipped, o)
		}
	}

	analyses := make([]models.OpportunityAnalysis, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		roi, err := s.CalculateROI(ctx, c.stock.Symbol, s.opts.ROIWindowDays)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"symbol": c.stock.Symbol,
				"error":  err.Error(),
			}).Warn("Skipping symbol: history fetch failed")
			ranking.Skipped = append(ranking.Skipped, models.FetchOutcome{Symbol: c.stock.Symbol, SkipReason: err.Error()})
			continue
		}

		pastYearROI := decimal.Zero
		if !roi.InsufficientData {
			pastYearROI = roi.ROIPercentage
		}

		current := c.stock.CurrentPrice
		target := c.quote.TargetOr(current.Mul(targetFallbackMultiplier))

		analysis := models.OpportunityAnalysis{
			Symbol:       c.stock.Symbol,
			Name:         c.stock.Name,
			CurrentPrice: current,
			TargetPrice:  target,
			AnalysisFactors: models.AnalysisFactors{
				PERatio:       c.quote.ForwardPEOrZero(),
				ProfitMargins: c.quote.ProfitMarginOrZero(),
				AnalystRating: c.quote.Rating(),
				PastYearROI:   pastYearROI,
			},
		}
		if potential, ok := ROIPotential(current, target); ok {
			analysis.ROIPotential = &potential
		} else {
			analysis.ROIPotentialUndefined = true
		}
		analyses = append(analyses, analysis)
	}

	ranking.Top = TopByROIPotential(analyses, s.opts.TopN)
	return ranking, nil
}

// ROIPotential is (target - current) / current * 100. ok is false when current is zero.
func ROIPotential(current, target decimal.Decimal) (decimal.Decimal, bool) {
	if current.IsZero() {
		return decimal.Zero, false
	}
	return target.Sub(current).Div(current).Mul(hundred), true
}

// TopByROIPotential stably sorts by ROI potential descending, undefined values
// last, and keeps at most n entries. The input slice is reordered.
func TopByROIPotential(analyses []models.OpportunityAnalysis, n int) []models.OpportunityAnalysis {
	sort.SliceStable(analyses, func(i, j int) bool {
		a, b := analyses[i].ROIPotential, analyses[j].ROIPotential
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.GreaterThan(*b)
		}
	})

	if len(analyses) > n {
		analyses = analyses[:n]
	}
	return analyses
}
