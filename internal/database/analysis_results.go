package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// SaveAnalysisResults stores one ranking run atomically
func (db *DB) SaveAnalysisResults(ctx context.Context, results []*models.AnalysisResult) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO analysis_results (
			run_id, symbol, analysis_date, target_price, recommendation, roi_potential, analysis_factors
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for _, r := range results {
		factors, err := json.Marshal(r.AnalysisFactors)
		if err != nil {
			return fmt.Errorf("failed to encode analysis factors for %s: %w", r.Symbol, err)
		}

		roi := decimal.NullDecimal{}
		if r.ROIPotential != nil {
			roi = decimal.NewNullDecimal(*r.ROIPotential)
		}

		err = tx.QueryRowContext(ctx, query,
			r.RunID, r.Symbol, r.AnalysisDate, r.TargetPrice, r.Recommendation, roi, string(factors),
		).Scan(&r.ID)
		if err != nil {
			return fmt.Errorf("failed to insert analysis result for %s: %w", r.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAnalysisHistory retrieves persisted analyses for a symbol, newest first
func (db *DB) GetAnalysisHistory(ctx context.Context, symbol string, limit int) ([]*models.AnalysisResult, error) {
	query := `
		SELECT id, run_id, symbol, analysis_date, target_price, recommendation, roi_potential, analysis_factors
		FROM analysis_results
		WHERE symbol = $1
		ORDER BY analysis_date DESC, id DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer rows.Close()

	results := []*models.AnalysisResult{}
	for rows.Next() {
		var r models.AnalysisResult
		var roi decimal.NullDecimal
		var factors []byte

		if err := rows.Scan(
			&r.ID, &r.RunID, &r.Symbol, &r.AnalysisDate, &r.TargetPrice, &r.Recommendation, &roi, &factors,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}

		if roi.Valid {
			r.ROIPotential = &roi.Decimal
		}
		if err := json.Unmarshal(factors, &r.AnalysisFactors); err != nil {
			return nil, fmt.Errorf("failed to decode analysis factors: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis results: %w", err)
	}
	return results, nil
}
