package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// UpsertResult counts what an UpsertStocks batch changed
type UpsertResult struct {
	Inserted int
	Updated  int
}

// UpsertStocks writes the latest snapshot for every stock in one transaction.
// Existing rows keep their name and created_at; market cap, price and
// last_updated are overwritten. Any failure rolls back the whole batch.
func (db *DB) UpsertStocks(ctx context.Context, stocks []models.LargeCapStock, updatedAt time.Time) (UpsertResult, error) {
	var res UpsertResult

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, s := range stocks {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT symbol FROM stocks WHERE symbol = $1 FOR UPDATE`, s.Symbol,
		).Scan(&existing)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, `
				INSERT INTO stocks (symbol, name, market_cap, current_price, last_updated, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, s.Symbol, s.Name, s.MarketCap, s.CurrentPrice, updatedAt, updatedAt)
			if err != nil {
				return UpsertResult{}, fmt.Errorf("failed to insert stock %s: %w", s.Symbol, err)
			}
			res.Inserted++
		case err != nil:
			return UpsertResult{}, fmt.Errorf("failed to look up stock %s: %w", s.Symbol, err)
		default:
			_, err = tx.ExecContext(ctx, `
				UPDATE stocks
				SET market_cap = $2, current_price = $3, last_updated = $4
				WHERE symbol = $1
			`, s.Symbol, s.MarketCap, s.CurrentPrice, updatedAt)
			if err != nil {
				return UpsertResult{}, fmt.Errorf("failed to update stock %s: %w", s.Symbol, err)
			}
			res.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return res, nil
}

// GetStock retrieves a stored snapshot by symbol
func (db *DB) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	query := `
		SELECT symbol, name, market_cap, current_price, last_updated, created_at
		FROM stocks
		WHERE symbol = $1
	`
	var s models.Stock
	err := db.conn.QueryRowContext(ctx, query, symbol).Scan(
		&s.Symbol, &s.Name, &s.MarketCap, &s.CurrentPrice, &s.LastUpdated, &s.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stock %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &s, nil
}

// GetAllStocks retrieves every stored snapshot ordered by symbol
func (db *DB) GetAllStocks(ctx context.Context) ([]*models.Stock, error) {
	query := `
		SELECT symbol, name, market_cap, current_price, last_updated, created_at
		FROM stocks
		ORDER BY symbol ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := []*models.Stock{}
	for rows.Next() {
		var s models.Stock
		if err := rows.Scan(&s.Symbol, &s.Name, &s.MarketCap, &s.CurrentPrice, &s.LastUpdated, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stocks: %w", err)
	}
	return stocks, nil
}
