package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ibrknu/card-inventory-app/internal/db"
	"github.com/ibrknu/card-inventory-app/internal/model"
)

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, model.ItemCreate{
		Barcode:  strp("4011"),
		Name:     strp("Charizard"),
		Game:     strp("Pokémon"),
		Quantity: intp(3),
		Location: strp(model.LocationStorage),
		Price:    decp("12.345"),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Charizard" {
		t.Errorf("expected name 'Charizard', got %q", item.Name)
	}
	if item.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", item.Quantity)
	}
	if item.Price == nil || item.Price.StringFixed(2) != "12.35" {
		t.Errorf("expected price rounded to 12.35, got %v", item.Price)
	}

	got, err := GetItemByBarcode(ctx, database, "4011")
	if err != nil {
		t.Fatalf("GetItemByBarcode: %v", err)
	}
	if got == nil || got.ID != item.ID {
		t.Errorf("expected to find item %d by barcode, got %v", item.ID, got)
	}
}

func TestCreateItemDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, model.ItemCreate{Barcode: strp("100")})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Quantity != 0 {
		t.Errorf("expected default quantity 0, got %d", item.Quantity)
	}
	if item.Location != "" {
		t.Errorf("expected no location, got %q", item.Location)
	}
	if item.Price != nil {
		t.Errorf("expected no price, got %v", item.Price)
	}
}

func TestCreateItemDuplicateBarcode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateItem(ctx, database, model.ItemCreate{Barcode: strp("X")}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	_, err := CreateItem(ctx, database, model.ItemCreate{Barcode: strp("X")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate barcode, got %v", err)
	}

	items, _ := ListItems(ctx, database, "X", 10, 0)
	if len(items) != 1 {
		t.Errorf("expected exactly one item with barcode X, got %d", len(items))
	}
}

func TestCreateItemValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateItem(ctx, database, model.ItemCreate{Quantity: intp(-1)})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for negative quantity, got %v", err)
	}

	_, err = CreateItem(ctx, database, model.ItemCreate{Location: strp("Garage")})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown location, got %v", err)
	}

	_, err = CreateItem(ctx, database, model.ItemCreate{Price: decp("-1.00")})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for negative price, got %v", err)
	}
}

func TestUpdateItemPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemCreate{
		Barcode: strp("200"),
		Name:    strp("Old Name"),
		Game:    strp("Magic"),
	})

	updated, err := UpdateItem(ctx, database, item.ID, model.ItemUpdate{
		Name: strp("New Name"),
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
	if updated.Game != "Magic" {
		t.Errorf("expected game untouched, got %q", updated.Game)
	}
	if updated.Barcode != "200" {
		t.Errorf("expected barcode untouched, got %q", updated.Barcode)
	}
}

func TestUpdateItemValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemCreate{Barcode: strp("300"), Quantity: intp(5)})

	_, err := UpdateItem(ctx, database, item.ID, model.ItemUpdate{Quantity: intp(-1)})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	// Failed update must leave the prior value unchanged.
	got, _ := GetItem(ctx, database, item.ID)
	if got.Quantity != 5 {
		t.Errorf("expected quantity to remain 5, got %d", got.Quantity)
	}

	_, err = UpdateItem(ctx, database, item.ID, model.ItemUpdate{Location: strp("Attic")})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown location, got %v", err)
	}

	_, err = UpdateItem(ctx, database, 9999, model.ItemUpdate{Name: strp("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestIncrementQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemCreate{Barcode: strp("400")})

	updated, err := IncrementQuantity(ctx, database, item.ID, 5)
	if err != nil {
		t.Fatalf("IncrementQuantity: %v", err)
	}
	if updated.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", updated.Quantity)
	}

	updated, _ = IncrementQuantity(ctx, database, item.ID, -3)
	if updated.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", updated.Quantity)
	}

	_, err = IncrementQuantity(ctx, database, item.ID, -10)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative result, got %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Quantity != 2 {
		t.Errorf("expected quantity to remain 2 after failed decrement, got %d", got.Quantity)
	}

	_, err = IncrementQuantity(ctx, database, 9999, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemCreate{Barcode: strp("500")})

	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got != nil {
		t.Errorf("expected item gone, got %v", got)
	}

	if err := DeleteItem(ctx, database, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSearchItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.ItemCreate{
		Barcode: strp("601"), Name: strp("Charizard"), Game: strp("Pokémon"),
	})
	CreateItem(ctx, database, model.ItemCreate{
		Barcode: strp("602"), Name: strp("Black Lotus"), Game: strp("Magic"),
	})
	CreateItem(ctx, database, model.ItemCreate{
		Barcode: strp("603"), Notes: strp("sleeve bundle for charity raffle"),
	})

	// Alias expansion: plain "pokemon" must match the accented spelling.
	found, err := ListItems(ctx, database, "pokemon", 100, 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(found) != 1 || found[0].Barcode != "601" {
		t.Errorf("expected alias search to find item 601, got %v", found)
	}

	found, _ = ListItems(ctx, database, "CHAR", 100, 0)
	if len(found) != 2 {
		t.Errorf("expected case-insensitive search across name and notes to find 2, got %d", len(found))
	}

	found, _ = ListItems(ctx, database, "603", 100, 0)
	if len(found) != 1 {
		t.Errorf("expected barcode search to find 1, got %d", len(found))
	}

	found, _ = ListItems(ctx, database, "nonexistent", 100, 0)
	if len(found) != 0 {
		t.Errorf("expected no matches, got %d", len(found))
	}

	all, _ := ListItems(ctx, database, "", 2, 0)
	if len(all) != 2 {
		t.Errorf("expected limit to cap results at 2, got %d", len(all))
	}
	rest, _ := ListItems(ctx, database, "", 2, 2)
	if len(rest) != 1 {
		t.Errorf("expected offset to skip to last item, got %d", len(rest))
	}
}

func TestGetItemMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := GetItem(ctx, database, 42)
	if err != nil || item != nil {
		t.Errorf("expected nil, nil for missing item, got %v, %v", item, err)
	}

	item, err = GetItemByBarcode(ctx, database, "nope")
	if err != nil || item != nil {
		t.Errorf("expected nil, nil for missing barcode, got %v, %v", item, err)
	}
}
