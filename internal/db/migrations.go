package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: normalize legacy location values written before the
	// Storage/Show constraint existed. The CHECK only guards new writes;
	// rows from older databases can still hold free-form locations.
	`UPDATE items SET location = 'Storage'
	     WHERE location IS NOT NULL AND location NOT IN ('Storage', 'Show')`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
