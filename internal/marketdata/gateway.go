package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// Gateway supplies current quotes and historical closes for a ticker
type Gateway interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceSample, error)
}

// Quote is the current snapshot for a symbol. Any field may be nil when the
// provider omits it; the accessors return the documented default instead.
type Quote struct {
	Symbol        string
	DisplayName   *string
	MarketCap     *int64
	CurrentPrice  *decimal.Decimal
	ForwardPE     *decimal.Decimal
	ProfitMargin  *decimal.Decimal
	AnalystRating *string
	TargetPrice   *decimal.Decimal
}

// Name defaults to ""
func (q *Quote) Name() string {
	if q.DisplayName == nil {
		return ""
	}
	return *q.DisplayName
}

// MarketCapOrZero defaults to 0
func (q *Quote) MarketCapOrZero() int64 {
	if q.MarketCap == nil {
		return 0
	}
	return *q.MarketCap
}

// Price defaults to 0
func (q *Quote) Price() decimal.Decimal {
	return orZero(q.CurrentPrice)
}

// ForwardPEOrZero defaults to 0
func (q *Quote) ForwardPEOrZero() decimal.Decimal {
	return orZero(q.ForwardPE)
}

// ProfitMarginOrZero defaults to 0
func (q *Quote) ProfitMarginOrZero() decimal.Decimal {
	return orZero(q.ProfitMargin)
}

// Rating defaults to "none"
func (q *Quote) Rating() string {
	if q.AnalystRating == nil || *q.AnalystRating == "" {
		return models.AnalystRatingNone
	}
	return *q.AnalystRating
}

// TargetOr returns the forward target price, or fallback when absent
func (q *Quote) TargetOr(fallback decimal.Decimal) decimal.Decimal {
	if q.TargetPrice == nil {
		return fallback
	}
	return *q.TargetPrice
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
