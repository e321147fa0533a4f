package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ibrknu/card-inventory-app/internal/model"
)

const batchColumns = `id, name, description, target_location, is_active, created_at, updated_at`

func scanBatch(row interface{ Scan(dest ...any) error }) (*model.Batch, error) {
	b := &model.Batch{}
	var description sql.NullString
	err := row.Scan(&b.ID, &b.Name, &description, &b.TargetLocation,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Description = description.String
	return b, nil
}

func getBatch(ctx context.Context, q dbtx, id int64) (*model.Batch, error) {
	b, err := scanBatch(q.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return b, nil
}

func countBatchItems(ctx context.Context, q dbtx, batchID int64) (int64, error) {
	var count int64
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE batch_id = ?`, batchID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting batch items: %w", err)
	}
	return count, nil
}

// CreateBatch creates a new active batch.
func CreateBatch(ctx context.Context, db *sql.DB, name, description, targetLocation string) (*model.Batch, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: batch name required", ErrValidation)
	}
	if !model.ValidLocation(targetLocation) {
		return nil, fmt.Errorf("%w: target location must be %q or %q, got %q",
			ErrValidation, model.LocationStorage, model.LocationShow, targetLocation)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO batches (name, description, target_location) VALUES (?, ?, ?)`,
		name, emptyToNull(&description), targetLocation,
	)
	if err != nil {
		return nil, fmt.Errorf("creating batch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting batch id: %w", err)
	}
	return GetBatch(ctx, db, id)
}

// GetBatch returns a batch by ID with its current item count, or nil if
// absent.
func GetBatch(ctx context.Context, db *sql.DB, id int64) (*model.Batch, error) {
	b, err := getBatch(ctx, db, id)
	if err != nil || b == nil {
		return b, err
	}
	b.ItemCount, err = countBatchItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBatchWithItems returns a batch together with its member items.
func GetBatchWithItems(ctx context.Context, db *sql.DB, id int64) (*model.BatchWithItems, error) {
	b, err := GetBatch(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, id)
	}

	items, err := GetBatchItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return &model.BatchWithItems{Batch: *b, Items: items}, nil
}

// GetBatchItems returns all items currently referencing the batch,
// regardless of batch state.
func GetBatchItems(ctx context.Context, db *sql.DB, batchID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE batch_id = ? ORDER BY id`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing batch items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListBatches returns batches with their item counts, newest first.
func ListBatches(ctx context.Context, db *sql.DB, activeOnly bool, limit, offset int) ([]model.Batch, error) {
	query := `SELECT b.id, b.name, b.description, b.target_location, b.is_active,
	                 b.created_at, b.updated_at, COUNT(i.id)
	          FROM batches b
	          LEFT JOIN items i ON i.batch_id = b.id`
	if activeOnly {
		query += ` WHERE b.is_active = 1`
	}
	query += ` GROUP BY b.id ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		var b model.Batch
		var description sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &description, &b.TargetLocation,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt, &b.ItemCount); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		b.Description = description.String
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// UpdateBatch updates a batch's metadata. Membership and lifecycle state
// are never changed here.
func UpdateBatch(ctx context.Context, db *sql.DB, id int64, u model.BatchUpdate) (*model.Batch, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	b, err := getBatch(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, id)
	}

	if u.Name != nil {
		if *u.Name == "" {
			return nil, fmt.Errorf("%w: batch name required", ErrValidation)
		}
		b.Name = *u.Name
	}
	if u.Description != nil {
		b.Description = *u.Description
	}
	if u.TargetLocation != nil {
		if !model.ValidLocation(*u.TargetLocation) {
			return nil, fmt.Errorf("%w: target location must be %q or %q, got %q",
				ErrValidation, model.LocationStorage, model.LocationShow, *u.TargetLocation)
		}
		b.TargetLocation = *u.TargetLocation
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE batches SET name = ?, description = ?, target_location = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		b.Name, emptyToNull(&b.Description), b.TargetLocation, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch update: %w", err)
	}
	return GetBatch(ctx, db, id)
}

// DeleteBatch removes a batch. Member items are detached, never deleted.
func DeleteBatch(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	b, err := getBatch(ctx, tx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("%w: batch %d", ErrNotFound, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET batch_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE batch_id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("detaching batch items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch deletion: %w", err)
	}
	return nil
}

// assignItemTx moves item into batch: batch membership always wins, so the
// item's location is overwritten with the batch target. Quantity is
// adjusted by delta.
func assignItemTx(ctx context.Context, q dbtx, item *model.Item, batch *model.Batch, delta int) error {
	newQty := item.Quantity + delta
	if newQty < 0 {
		return fmt.Errorf("%w: quantity cannot go negative (%d%+d)", ErrValidation, item.Quantity, delta)
	}

	_, err := q.ExecContext(ctx,
		`UPDATE items SET batch_id = ?, location = ?, quantity = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		batch.ID, batch.TargetLocation, newQty, item.ID,
	)
	if err != nil {
		return fmt.Errorf("assigning item to batch: %w", err)
	}
	return nil
}

// requireActiveBatch loads a batch that must exist and still be active.
func requireActiveBatch(ctx context.Context, q dbtx, batchID int64) (*model.Batch, error) {
	batch, err := getBatch(ctx, q, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	if !batch.IsActive {
		return nil, fmt.Errorf("%w: batch %d is not active", ErrConflict, batchID)
	}
	return batch, nil
}

// AssignItemToBatch adds an existing item (looked up by barcode) to an
// active batch, moving it to the batch's target location and adjusting its
// quantity by delta.
func AssignItemToBatch(ctx context.Context, db *sql.DB, barcode string, batchID int64, delta int) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	batch, err := requireActiveBatch(ctx, tx, batchID)
	if err != nil {
		return nil, err
	}

	item, err := getItemByBarcode(ctx, tx, barcode)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item with barcode %q", ErrNotFound, barcode)
	}

	if err := assignItemTx(ctx, tx, item, batch, delta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch assignment: %w", err)
	}
	return getItem(ctx, db, item.ID)
}

// AddItemToBatch is the "add item with full details" path: inside one
// transaction it either creates the item as a member of the batch, or, if
// the barcode already exists, updates that item in place and moves it into
// the batch. Unlike CreateItem, an existing barcode is not a conflict
// here.
func AddItemToBatch(ctx context.Context, db *sql.DB, batchID int64, f model.ItemCreate) (*model.Item, error) {
	if f.Barcode == nil || *f.Barcode == "" {
		return nil, fmt.Errorf("%w: barcode required", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	batch, err := requireActiveBatch(ctx, tx, batchID)
	if err != nil {
		return nil, err
	}

	item, err := getItemByBarcode(ctx, tx, *f.Barcode)
	if err != nil {
		return nil, err
	}

	var itemID int64
	if item != nil {
		err := applyItemFields(item, model.ItemUpdate{
			Name: f.Name, Game: f.Game, SetName: f.SetName, Brand: f.Brand,
			Quantity: f.Quantity, Notes: f.Notes, Price: f.Price,
			Description: f.Description,
		})
		if err != nil {
			return nil, err
		}
		item.BatchID = &batch.ID
		item.Location = batch.TargetLocation
		if err := writeItemRow(ctx, tx, item); err != nil {
			return nil, err
		}
		itemID = item.ID
	} else {
		itemID, err = insertItem(ctx, tx, f, &batch.TargetLocation, &batch.ID)
		if err != nil {
			return nil, err
		}
		if err := insertScanEvent(ctx, tx, *f.Barcode); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch item: %w", err)
	}
	return getItem(ctx, db, itemID)
}

// TransferBatch moves every member item to the batch's target location,
// detaches it, and deactivates the batch. All rows move or none do.
// Returns the number of items moved. A batch that has already been
// transferred or cancelled is rejected with ErrConflict.
func TransferBatch(ctx context.Context, db *sql.DB, batchID int64) (int64, error) {
	return terminateBatch(ctx, db, batchID, true)
}

// CancelBatch detaches every member item without touching its location and
// deactivates the batch. Returns the number of items detached. Terminal
// batches are rejected with ErrConflict.
func CancelBatch(ctx context.Context, db *sql.DB, batchID int64) (int64, error) {
	return terminateBatch(ctx, db, batchID, false)
}

func terminateBatch(ctx context.Context, db *sql.DB, batchID int64, moveItems bool) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	batch, err := getBatch(ctx, tx, batchID)
	if err != nil {
		return 0, err
	}
	if batch == nil {
		return 0, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	if !batch.IsActive {
		return 0, fmt.Errorf("%w: batch %d already transferred or cancelled", ErrConflict, batchID)
	}

	var result sql.Result
	if moveItems {
		result, err = tx.ExecContext(ctx,
			`UPDATE items SET location = ?, batch_id = NULL, updated_at = CURRENT_TIMESTAMP
			 WHERE batch_id = ?`,
			batch.TargetLocation, batchID,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE items SET batch_id = NULL, updated_at = CURRENT_TIMESTAMP
			 WHERE batch_id = ?`,
			batchID,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("detaching batch items: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting detached items: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE batches SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		batchID,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivating batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch termination: %w", err)
	}
	return count, nil
}

// BatchStats returns the number of items currently referencing the batch,
// regardless of batch state.
func BatchStats(ctx context.Context, db *sql.DB, batchID int64) (int64, error) {
	batch, err := getBatch(ctx, db, batchID)
	if err != nil {
		return 0, err
	}
	if batch == nil {
		return 0, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	return countBatchItems(ctx, db, batchID)
}
