package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ibrknu/card-inventory-app/internal/model"
)

// dbtx is the method subset shared by *sql.DB and *sql.Tx, so row helpers
// can run both standalone and inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const itemColumns = `id, barcode, name, game, set_name, brand, quantity,
	location, notes, price, description, batch_id, created_at, updated_at`

// scanItem reads one item row. Works for both *sql.Row and *sql.Rows.
func scanItem(row interface{ Scan(dest ...any) error }) (*model.Item, error) {
	item := &model.Item{}
	var barcode, name, game, setName, brand, location, notes, description sql.NullString
	var price decimal.NullDecimal
	var batchID sql.NullInt64
	err := row.Scan(&item.ID, &barcode, &name, &game, &setName, &brand, &item.Quantity,
		&location, &notes, &price, &description, &batchID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Barcode = barcode.String
	item.Name = name.String
	item.Game = game.String
	item.SetName = setName.String
	item.Brand = brand.String
	item.Location = location.String
	item.Notes = notes.String
	item.Description = description.String
	if price.Valid {
		item.Price = &price.Decimal
	}
	if batchID.Valid {
		item.BatchID = &batchID.Int64
	}
	return item, nil
}

func getItem(ctx context.Context, q dbtx, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

func getItemByBarcode(ctx context.Context, q dbtx, barcode string) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE barcode = ?`, barcode))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item by barcode: %w", err)
	}
	return item, nil
}

// GetItem returns an item by ID, or nil if absent.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	return getItem(ctx, db, id)
}

// GetItemByBarcode returns the item with the given barcode, or nil if
// absent. Barcode uniqueness means at most one match.
func GetItemByBarcode(ctx context.Context, db *sql.DB, barcode string) (*model.Item, error) {
	return getItemByBarcode(ctx, db, barcode)
}

// categoryAliases maps common category spellings to known variants so a
// search for "pokemon" also matches items filed under "pokémon". Purely a
// relevance aid.
var categoryAliases = map[string][]string{
	"pokemon": {"pokémon"},
	"pokémon": {"pokemon"},
}

func searchTerms(term string) []string {
	t := strings.ToLower(strings.TrimSpace(term))
	return append([]string{t}, categoryAliases[t]...)
}

// ListItems returns items ordered by creation time, newest first. A
// non-empty search term matches case-insensitively against name, game,
// set_name, brand, barcode, description, and notes.
func ListItems(ctx context.Context, db *sql.DB, search string, limit, offset int) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any

	if strings.TrimSpace(search) != "" {
		var clauses []string
		for _, term := range searchTerms(search) {
			pattern := "%" + term + "%"
			clauses = append(clauses,
				`(LOWER(COALESCE(name, '')) LIKE ?
				  OR LOWER(COALESCE(game, '')) LIKE ?
				  OR LOWER(COALESCE(set_name, '')) LIKE ?
				  OR LOWER(COALESCE(brand, '')) LIKE ?
				  OR LOWER(COALESCE(barcode, '')) LIKE ?
				  OR LOWER(COALESCE(description, '')) LIKE ?
				  OR LOWER(COALESCE(notes, '')) LIKE ?)`)
			for i := 0; i < 7; i++ {
				args = append(args, pattern)
			}
		}
		query += ` WHERE ` + strings.Join(clauses, " OR ")
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// emptyToNull stores empty optional strings as NULL.
func emptyToNull(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func validateLocation(loc *string) (*string, error) {
	if loc == nil || *loc == "" {
		return nil, nil
	}
	if !model.ValidLocation(*loc) {
		return nil, fmt.Errorf("%w: location must be %q or %q, got %q",
			ErrValidation, model.LocationStorage, model.LocationShow, *loc)
	}
	return loc, nil
}

// validatePrice rejects negative prices and rounds to two decimal places.
func validatePrice(price *decimal.Decimal) (decimal.NullDecimal, error) {
	if price == nil {
		return decimal.NullDecimal{}, nil
	}
	if price.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return decimal.NullDecimal{Decimal: price.Round(2), Valid: true}, nil
}

// insertItem writes a new item row and returns its ID. batchID and
// location come pre-resolved so the batch paths can force the batch's
// target location.
func insertItem(ctx context.Context, q dbtx, f model.ItemCreate, location *string, batchID *int64) (int64, error) {
	qty := 0
	if f.Quantity != nil {
		qty = *f.Quantity
	}
	if qty < 0 {
		return 0, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}

	price, err := validatePrice(f.Price)
	if err != nil {
		return 0, err
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO items (barcode, name, game, set_name, brand, quantity,
		                    location, notes, price, description, batch_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		emptyToNull(f.Barcode), emptyToNull(f.Name), emptyToNull(f.Game),
		emptyToNull(f.SetName), emptyToNull(f.Brand), qty,
		location, emptyToNull(f.Notes), price, emptyToNull(f.Description), batchID,
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: item with this barcode already exists", ErrConflict)
	}
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// CreateItem creates a new item. A non-null barcode must be unique; the
// losing side of a concurrent create gets ErrConflict from the UNIQUE
// constraint rather than overwriting the winner.
func CreateItem(ctx context.Context, db *sql.DB, f model.ItemCreate) (*model.Item, error) {
	location, err := validateLocation(f.Location)
	if err != nil {
		return nil, err
	}

	id, err := insertItem(ctx, db, f, location, nil)
	if err != nil {
		return nil, err
	}
	return getItem(ctx, db, id)
}

// applyItemFields copies supplied fields onto item, validating as it
// goes. Nil pointers leave the current value in place.
func applyItemFields(item *model.Item, u model.ItemUpdate) error {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Game != nil {
		item.Game = *u.Game
	}
	if u.SetName != nil {
		item.SetName = *u.SetName
	}
	if u.Brand != nil {
		item.Brand = *u.Brand
	}
	if u.Notes != nil {
		item.Notes = *u.Notes
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.Quantity != nil {
		if *u.Quantity < 0 {
			return fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
		}
		item.Quantity = *u.Quantity
	}
	if u.Location != nil {
		loc, err := validateLocation(u.Location)
		if err != nil {
			return err
		}
		if loc != nil {
			item.Location = *loc
		}
	}
	if u.Price != nil {
		item.Price = u.Price
	}
	return nil
}

// writeItemRow persists all mutable columns of item, including its batch
// membership, and refreshes updated_at.
func writeItemRow(ctx context.Context, q dbtx, item *model.Item) error {
	price, err := validatePrice(item.Price)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`UPDATE items SET name = ?, game = ?, set_name = ?, brand = ?,
		        quantity = ?, location = ?, notes = ?, price = ?,
		        description = ?, batch_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		emptyToNull(&item.Name), emptyToNull(&item.Game), emptyToNull(&item.SetName),
		emptyToNull(&item.Brand), item.Quantity, emptyToNull(&item.Location),
		emptyToNull(&item.Notes), price, emptyToNull(&item.Description),
		item.BatchID, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// UpdateItem applies a partial update. Fields with nil pointers are left
// untouched; supplied fields are re-validated. updated_at is refreshed
// unconditionally, even for an empty update.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, u model.ItemUpdate) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	if err := applyItemFields(item, u); err != nil {
		return nil, err
	}
	if err := writeItemRow(ctx, tx, item); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}
	return getItem(ctx, db, id)
}

// IncrementQuantity atomically adjusts an item's quantity by delta, which
// may be negative. The prior value is left unchanged if the result would
// go below zero.
func IncrementQuantity(ctx context.Context, db *sql.DB, id int64, delta int) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := incrementQuantity(ctx, tx, id, delta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing quantity change: %w", err)
	}
	return getItem(ctx, db, id)
}

func incrementQuantity(ctx context.Context, q dbtx, id int64, delta int) error {
	var current int
	err := q.QueryRowContext(ctx,
		`SELECT quantity FROM items WHERE id = ?`, id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("reading quantity: %w", err)
	}

	newQty := current + delta
	if newQty < 0 {
		return fmt.Errorf("%w: quantity cannot go negative (%d%+d)", ErrValidation, current, delta)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE items SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newQty, id,
	)
	if err != nil {
		return fmt.Errorf("updating quantity: %w", err)
	}
	return nil
}

// DeleteItem removes an item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}
