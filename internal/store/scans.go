package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ibrknu/card-inventory-app/internal/model"
)

// Quantity actions accepted by UpdateQuantity.
const (
	QuantityAdd  = "add"
	QuantitySell = "sell"
)

func insertScanEvent(ctx context.Context, q dbtx, barcode string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO scan_events (barcode) VALUES (?)`, barcode,
	)
	if err != nil {
		return fmt.Errorf("recording scan event: %w", err)
	}
	return nil
}

// IngestScan turns a raw barcode observation into an inventory change.
//
// Without a batch context a known barcode only surfaces the current
// record; a bare rescan never changes quantity (that is an explicit
// UpdateQuantity action). An unknown barcode creates a minimal item with
// quantity incrementBy.
//
// With a batch context a known barcode is assigned to the batch; an
// unknown one creates nothing and yields a synthetic placeholder echoing
// the barcode and the batch's target location, so the caller can render
// "not found" without a second round trip.
//
// A scan event is appended on every path. Returns the resulting (or
// placeholder) item and whether the barcode was new.
func IngestScan(ctx context.Context, db *sql.DB, rawBarcode string, incrementBy int, batchID *int64) (*model.Item, bool, error) {
	barcode := strings.TrimSpace(rawBarcode)
	if barcode == "" {
		return nil, false, fmt.Errorf("%w: barcode required", ErrValidation)
	}
	if incrementBy == 0 {
		incrementBy = 1
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var batch *model.Batch
	if batchID != nil {
		batch, err = requireActiveBatch(ctx, tx, *batchID)
		if err != nil {
			return nil, false, err
		}
	}

	item, err := getItemByBarcode(ctx, tx, barcode)
	if err != nil {
		return nil, false, err
	}

	var itemID int64
	isNew := item == nil
	switch {
	case item != nil && batch != nil:
		if err := assignItemTx(ctx, tx, item, batch, incrementBy); err != nil {
			return nil, false, err
		}
		itemID = item.ID
	case item != nil:
		itemID = item.ID
	case batch != nil:
		// Unknown barcode inside a batch: leave creation to the
		// add-with-details flow.
	default:
		qty := incrementBy
		itemID, err = insertItem(ctx, tx, model.ItemCreate{Barcode: &barcode, Quantity: &qty}, nil, nil)
		if err != nil {
			return nil, false, err
		}
	}

	if err := insertScanEvent(ctx, tx, barcode); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing scan: %w", err)
	}

	if isNew && batch != nil {
		now := time.Now().UTC()
		return &model.Item{
			Barcode:   barcode,
			Location:  batch.TargetLocation,
			BatchID:   batchID,
			CreatedAt: now,
			UpdatedAt: now,
		}, true, nil
	}

	result, err := getItem(ctx, db, itemID)
	if err != nil {
		return nil, false, err
	}
	return result, isNew, nil
}

// CreateScannedItem creates a fully described item from the "new item"
// scan flow and records the scan event in the same transaction. Unlike
// the batch path, a duplicate barcode here is a conflict.
func CreateScannedItem(ctx context.Context, db *sql.DB, f model.ItemCreate) (*model.Item, error) {
	if f.Barcode == nil || strings.TrimSpace(*f.Barcode) == "" {
		return nil, fmt.Errorf("%w: barcode required", ErrValidation)
	}
	barcode := strings.TrimSpace(*f.Barcode)
	f.Barcode = &barcode

	location, err := validateLocation(f.Location)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertItem(ctx, tx, f, location, nil)
	if err != nil {
		return nil, err
	}
	if err := insertScanEvent(ctx, tx, barcode); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing scanned item: %w", err)
	}
	return getItem(ctx, db, id)
}

// UpdateQuantity is the explicit quantity action that complements a bare
// scan: "add" increases the item's quantity by amount, "sell" decreases
// it. Overselling fails with ErrValidation and leaves the quantity
// unchanged. A scan event is logged afterward.
func UpdateQuantity(ctx context.Context, db *sql.DB, rawBarcode, action string, amount int) (*model.Item, error) {
	barcode := strings.TrimSpace(rawBarcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode required", ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	var delta int
	switch action {
	case QuantityAdd:
		delta = amount
	case QuantitySell:
		delta = -amount
	default:
		return nil, fmt.Errorf("%w: action must be %q or %q, got %q",
			ErrValidation, QuantityAdd, QuantitySell, action)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItemByBarcode(ctx, tx, barcode)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item with barcode %q", ErrNotFound, barcode)
	}

	if err := incrementQuantity(ctx, tx, item.ID, delta); err != nil {
		return nil, err
	}
	if err := insertScanEvent(ctx, tx, barcode); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing quantity update: %w", err)
	}
	return getItem(ctx, db, item.ID)
}

// ListScanEvents returns scan events newest first, optionally filtered by
// barcode. Scan events are append-only; there is no update or delete.
func ListScanEvents(ctx context.Context, db *sql.DB, barcode string, limit, offset int) ([]model.ScanEvent, error) {
	query := `SELECT id, barcode, created_at FROM scan_events`
	var args []any
	if barcode != "" {
		query += ` WHERE barcode = ?`
		args = append(args, barcode)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing scan events: %w", err)
	}
	defer rows.Close()

	var events []model.ScanEvent
	for rows.Next() {
		var e model.ScanEvent
		if err := rows.Scan(&e.ID, &e.Barcode, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
