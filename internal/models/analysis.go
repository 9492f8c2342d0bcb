package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalystRatingNone is used when the data provider has no recommendation
const AnalystRatingNone = "none"

// InsufficientDataMessage is reported when a window has fewer than two samples
const InsufficientDataMessage = "Insufficient data"

// ROIResult holds the trailing return for a symbol over a window.
// InsufficientData is set (with Error) instead of the price fields when the
// window held fewer than two usable samples.
type ROIResult struct {
	Symbol           string            `json:"symbol"`
	InitialPrice     decimal.Decimal   `json:"initial_price"`
	FinalPrice       decimal.Decimal   `json:"final_price"`
	ROIPercentage    decimal.Decimal   `json:"roi_percentage"`
	Dates            []string          `json:"dates"`
	Prices           []decimal.Decimal `json:"prices"`
	InsufficientData bool              `json:"-"`
	Error            string            `json:"error,omitempty"`
}

// AnalysisFactors is the bag of named inputs reported with each analysis
type AnalysisFactors struct {
	PERatio       decimal.Decimal `json:"pe_ratio"`
	ProfitMargins decimal.Decimal `json:"profit_margins"`
	AnalystRating string          `json:"analyst_rating"`
	PastYearROI   decimal.Decimal `json:"past_year_roi"`
}

// OpportunityAnalysis is one ranked candidate.
// ROIPotential is nil when the current price is zero.
type OpportunityAnalysis struct {
	Symbol                string           `json:"symbol"`
	Name                  string           `json:"name"`
	CurrentPrice          decimal.Decimal  `json:"current_price"`
	TargetPrice           decimal.Decimal  `json:"target_price"`
	ROIPotential          *decimal.Decimal `json:"roi_potential"`
	ROIPotentialUndefined bool             `json:"roi_potential_undefined,omitempty"`
	AnalysisFactors       AnalysisFactors  `json:"analysis_factors"`
}

// AnalysisResult is a persisted OpportunityAnalysis
type AnalysisResult struct {
	ID              int              `json:"id"`
	RunID           string           `json:"run_id"`
	Symbol          string           `json:"symbol"`
	AnalysisDate    time.Time        `json:"analysis_date"`
	TargetPrice     decimal.Decimal  `json:"target_price"`
	Recommendation  string           `json:"recommendation"`
	ROIPotential    *decimal.Decimal `json:"roi_potential,omitempty"`
	AnalysisFactors AnalysisFactors  `json:"analysis_factors"`
}

// FetchOutcome records what happened to one watch-list symbol during a fetch.
// Exactly one of Stock or SkipReason is set.
type FetchOutcome struct {
	Symbol     string         `json:"symbol"`
	Stock      *LargeCapStock `json:"stock,omitempty"`
	SkipReason string         `json:"skip_reason,omitempty"`
}

// Skipped reports whether the symbol was dropped from the result
func (o FetchOutcome) Skipped() bool {
	return o.Stock == nil
}

// UpdateReport summarises one UpdateStockData run
type UpdateReport struct {
	Inserted  int            `json:"inserted"`
	Updated   int            `json:"updated"`
	Symbols   []string       `json:"symbols"`
	Skipped   []FetchOutcome `json:"skipped,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
