package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is one closing price in a historical series
type PriceSample struct {
	ID        int             `json:"id,omitempty"`
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}
