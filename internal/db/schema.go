package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS batches (
    id              INTEGER PRIMARY KEY,
    name            TEXT NOT NULL,
    description     TEXT,
    target_location TEXT NOT NULL CHECK (target_location IN ('Storage', 'Show')),
    is_active       BOOLEAN NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    barcode     TEXT UNIQUE,
    name        TEXT,
    game        TEXT,
    set_name    TEXT,
    brand       TEXT,
    quantity    INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    location    TEXT CHECK (location IN ('Storage', 'Show')),
    notes       TEXT,
    price       TEXT,
    description TEXT,
    batch_id    INTEGER REFERENCES batches(id),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_barcode ON items(barcode);
CREATE INDEX IF NOT EXISTS idx_items_batch_id ON items(batch_id);

CREATE TABLE IF NOT EXISTS scan_events (
    id         INTEGER PRIMARY KEY,
    barcode    TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scan_events_barcode ON scan_events(barcode);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
