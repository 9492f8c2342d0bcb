package database

import (
	"context"
	"fmt"
	"time"

	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// CreatePriceSampleBatch records a series of closes in one transaction.
// Samples already recorded for the same (symbol, date) are left untouched.
func (db *DB) CreatePriceSampleBatch(ctx context.Context, samples []models.PriceSample) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO historical_prices (symbol, date, price, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, date) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	now := time.Now()
	for _, s := range samples {
		result, err := stmt.ExecContext(ctx, s.Symbol, s.Date, s.Price, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert price sample for %s: %w", s.Symbol, err)
		}
		n, _ := result.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// GetPriceSamples retrieves recorded closes for a symbol within a date range, oldest first
func (db *DB) GetPriceSamples(ctx context.Context, symbol string, startDate, endDate time.Time) ([]models.PriceSample, error) {
	query := `
		SELECT id, symbol, date, price, created_at
		FROM historical_prices
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get price samples: %w", err)
	}
	defer rows.Close()

	samples := []models.PriceSample{}
	for rows.Next() {
		var p models.PriceSample
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Date, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price sample: %w", err)
		}
		samples = append(samples, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price samples: %w", err)
	}
	return samples, nil
}
