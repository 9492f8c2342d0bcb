// Package analysis implements the large-cap ranking and persistence pipeline:
// watch-list filtering, trailing ROI, forward ROI-potential ranking and the
// batched snapshot upsert.
package analysis

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/database"
	"github.com/trogers1052/largecap-roi-service/internal/marketdata"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

const (
	DefaultROIWindowDays = 365
	DefaultTopN          = 5
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// StockStore is the durable store the upserter writes to
type StockStore interface {
	UpsertStocks(ctx context.Context, stocks []models.LargeCapStock, updatedAt time.Time) (database.UpsertResult, error)
}

// Publisher is notified of every committed snapshot
type Publisher interface {
	PublishStockUpdated(ctx context.Context, stock *models.Stock) error
}

// Invalidator drops derived results once snapshots change
type Invalidator interface {
	InvalidateAnalysis(ctx context.Context) error
}

// Options configures the pipeline
type Options struct {
	Watchlist          []string
	MarketCapThreshold int64
	ROIWindowDays      int
	TopN               int
}

// Service runs the fetch, ROI, ranking and upsert operations
type Service struct {
	gateway     marketdata.Gateway
	store       StockStore
	clock       Clock
	log         logrus.FieldLogger
	opts        Options
	publisher   Publisher
	invalidator Invalidator
}

// NewService creates a Service. Zero option values fall back to defaults.
func NewService(gateway marketdata.Gateway, store StockStore, opts Options, log logrus.FieldLogger) *Service {
	if opts.ROIWindowDays <= 0 {
		opts.ROIWindowDays = DefaultROIWindowDays
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.MarketCapThreshold <= 0 {
		opts.MarketCapThreshold = 500_000_000_000
	}

	return &Service{
		gateway: gateway,
		store:   store,
		clock:   SystemClock{},
		log:     log,
		opts:    opts,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(c Clock) *Service {
	s.clock = c
	return s
}

// WithPublisher sets where committed snapshots are announced
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithInvalidator sets the cache to clear after an update
func (s *Service) WithInvalidator(i Invalidator) *Service {
	s.invalidator = i
	return s
}

// Watchlist returns the configured candidate symbols in order
func (s *Service) Watchlist() []string {
	return append([]string(nil), s.opts.Watchlist...)
}

// ROIWindowDays returns the default trailing window
func (s *Service) ROIWindowDays() int {
	return s.opts.ROIWindowDays
}
