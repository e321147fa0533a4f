package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// InventoryStats is an aggregate report over the whole inventory.
type InventoryStats struct {
	TotalItems    int64           `json:"total_items"`
	NamedItems    int64           `json:"named_items"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalScans    int64           `json:"total_scans"`
}

// GetInventoryStats computes inventory-wide statistics. Total value is
// summed with decimal arithmetic in Go so prices never pass through
// floating point.
func GetInventoryStats(ctx context.Context, db *sql.DB) (*InventoryStats, error) {
	stats := &InventoryStats{TotalValue: decimal.Zero}

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN name IS NOT NULL AND name != '' THEN 1 END),
		        COALESCE(SUM(quantity), 0)
		 FROM items`,
	).Scan(&stats.TotalItems, &stats.NamedItems, &stats.TotalQuantity)
	if err != nil {
		return nil, fmt.Errorf("reading item statistics: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT quantity, price FROM items WHERE price IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("reading item values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var quantity int64
		var price decimal.Decimal
		if err := rows.Scan(&quantity, &price); err != nil {
			return nil, fmt.Errorf("scanning item value: %w", err)
		}
		stats.TotalValue = stats.TotalValue.Add(price.Mul(decimal.NewFromInt(quantity)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_events`).Scan(&stats.TotalScans)
	if err != nil {
		return nil, fmt.Errorf("reading scan statistics: %w", err)
	}

	return stats, nil
}
