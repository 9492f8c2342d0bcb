package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/largecap-roi-service/internal/database"
	"github.com/trogers1052/largecap-roi-service/internal/logging"
	"github.com/trogers1052/largecap-roi-service/internal/marketdata"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

var fixedNow = time.Date(2026, 3, 2, 21, 30, 0, 0, time.UTC)

// MockGateway serves canned quotes and histories keyed by symbol
type MockGateway struct {
	quotes       map[string]*marketdata.Quote
	quoteErrs    map[string]error
	histories    map[string][]models.PriceSample
	historyErrs  map[string]error
	QuoteCalls   []string
	HistoryCalls []historyCall
}

type historyCall struct {
	Symbol     string
	Start, End time.Time
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		quotes:      make(map[string]*marketdata.Quote),
		quoteErrs:   make(map[string]error),
		histories:   make(map[string][]models.PriceSample),
		historyErrs: make(map[string]error),
	}
}

func (m *MockGateway) GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	m.QuoteCalls = append(m.QuoteCalls, symbol)
	if err, ok := m.quoteErrs[symbol]; ok {
		return nil, err
	}
	q, ok := m.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return q, nil
}

func (m *MockGateway) GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceSample, error) {
	m.HistoryCalls = append(m.HistoryCalls, historyCall{Symbol: symbol, Start: start, End: end})
	if err, ok := m.historyErrs[symbol]; ok {
		return nil, err
	}
	out := make([]models.PriceSample, len(m.histories[symbol]))
	copy(out, m.histories[symbol])
	return out, nil
}

// quote builds a full quote; target may be nil
func (m *MockGateway) quote(symbol string, marketCap int64, price string, target *string) *marketdata.Quote {
	name := symbol + " Inc."
	p := decimal.RequireFromString(price)
	pe := decimal.RequireFromString("25")
	margin := decimal.RequireFromString("0.2")
	rating := "buy"
	q := &marketdata.Quote{
		Symbol:        symbol,
		DisplayName:   &name,
		MarketCap:     &marketCap,
		CurrentPrice:  &p,
		ForwardPE:     &pe,
		ProfitMargin:  &margin,
		AnalystRating: &rating,
	}
	if target != nil {
		t := decimal.RequireFromString(*target)
		q.TargetPrice = &t
	}
	m.quotes[symbol] = q
	return q
}

func (m *MockGateway) history(symbol string, prices ...string) {
	samples := make([]models.PriceSample, len(prices))
	for i, p := range prices {
		samples[i] = models.PriceSample{
			Symbol: symbol,
			Date:   fixedNow.AddDate(0, 0, -len(prices)+i),
			Price:  decimal.RequireFromString(p),
		}
	}
	m.histories[symbol] = samples
}

// MockStore keeps snapshots in memory and applies a batch all-or-nothing
type MockStore struct {
	stocks     map[string]*models.Stock
	failOn     string
	UpsertCall int
}

func NewMockStore() *MockStore {
	return &MockStore{stocks: make(map[string]*models.Stock)}
}

func (m *MockStore) UpsertStocks(ctx context.Context, stocks []models.LargeCapStock, updatedAt time.Time) (database.UpsertResult, error) {
	m.UpsertCall++

	staged := make(map[string]*models.Stock, len(m.stocks))
	for k, v := range m.stocks {
		cp := *v
		staged[k] = &cp
	}

	var res database.UpsertResult
	for _, s := range stocks {
		if s.Symbol == m.failOn {
			return database.UpsertResult{}, errors.New("write failed for " + s.Symbol)
		}
		if existing, ok := staged[s.Symbol]; ok {
			existing.MarketCap = s.MarketCap
			existing.CurrentPrice = s.CurrentPrice
			existing.LastUpdated = updatedAt
			res.Updated++
			continue
		}
		st := s.ToStock(updatedAt)
		st.CreatedAt = updatedAt
		staged[s.Symbol] = st
		res.Inserted++
	}

	m.stocks = staged
	return res, nil
}

// MockPublisher records published events
type MockPublisher struct {
	Published []*models.Stock
	err       error
}

func (m *MockPublisher) PublishStockUpdated(ctx context.Context, stock *models.Stock) error {
	m.Published = append(m.Published, stock)
	return m.err
}

// MockInvalidator counts invalidations
type MockInvalidator struct {
	Calls int
}

func (m *MockInvalidator) InvalidateAnalysis(ctx context.Context) error {
	m.Calls++
	return nil
}

func newTestService(gw *MockGateway, store StockStore, watchlist ...string) *Service {
	return NewService(gw, store, Options{Watchlist: watchlist}, logging.Discard()).
		WithClock(ClockFunc(func() time.Time { return fixedNow }))
}

func strPtr(s string) *string { return &s }
