package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock event type constants
const (
	EventStockUpdated     = "STOCK_UPDATED"
	EventRefreshRequested = "REFRESH_REQUESTED"
)

// StockEvent represents a Kafka event for stock changes
type StockEvent struct {
	EventType string    `json:"event_type"`
	Stock     *Stock    `json:"stock,omitempty"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
}

// RefreshRequest asks the service to run a data update
type RefreshRequest struct {
	EventType   string    `json:"event_type"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stock is the latest stored snapshot for a symbol
type Stock struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	MarketCap    int64           `json:"market_cap"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	LastUpdated  time.Time       `json:"last_updated"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LargeCapStock is a watch-list candidate that passed the market cap filter
type LargeCapStock struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	MarketCap    int64           `json:"market_cap"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// ToStock converts a fetched candidate into a snapshot stamped at updatedAt
func (l LargeCapStock) ToStock(updatedAt time.Time) *Stock {
	return &Stock{
		Symbol:       l.Symbol,
		Name:         l.Name,
		MarketCap:    l.MarketCap,
		CurrentPrice: l.CurrentPrice,
		LastUpdated:  updatedAt,
	}
}
