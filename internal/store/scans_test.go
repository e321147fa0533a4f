package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ibrknu/card-inventory-app/internal/db"
	"github.com/ibrknu/card-inventory-app/internal/model"
)

func TestIngestScanNewItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, isNew, err := IngestScan(ctx, database, "  555  ", 0, nil)
	if err != nil {
		t.Fatalf("IngestScan: %v", err)
	}
	if !isNew {
		t.Error("expected isNew for unknown barcode")
	}
	if item.Barcode != "555" {
		t.Errorf("expected trimmed barcode, got %q", item.Barcode)
	}
	if item.Quantity != 1 {
		t.Errorf("expected increment to default to 1, got %d", item.Quantity)
	}

	events, _ := ListScanEvents(ctx, database, "555", 10, 0)
	if len(events) != 1 {
		t.Errorf("expected 1 scan event, got %d", len(events))
	}
}

func TestIngestScanExistingDoesNotIncrement(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.ItemCreate{Barcode: strp("555"), Quantity: intp(4)})

	item, isNew, err := IngestScan(ctx, database, "555", 3, nil)
	if err != nil {
		t.Fatalf("IngestScan: %v", err)
	}
	if isNew {
		t.Error("expected isNew false for known barcode")
	}
	// A bare rescan surfaces the record; quantity is an explicit action.
	if item.Quantity != 4 {
		t.Errorf("expected quantity untouched at 4, got %d", item.Quantity)
	}

	// Every scan is audited, even a no-op one.
	events, _ := ListScanEvents(ctx, database, "555", 10, 0)
	if len(events) != 1 {
		t.Errorf("expected 1 scan event, got %d", len(events))
	}
}

func TestIngestScanEmptyBarcode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, _, err := IngestScan(ctx, database, "   ", 1, nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty barcode, got %v", err)
	}
}

func TestIngestScanIntoBatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	batch, _ := CreateBatch(ctx, database, "Show A", "", model.LocationShow)
	CreateItem(ctx, database, model.ItemCreate{Barcode: strp("123"), Location: strp(model.LocationStorage)})

	item, isNew, err := IngestScan(ctx, database, "123", 2, &batch.ID)
	if err != nil {
		t.Fatalf("IngestScan: %v", err)
	}
	if isNew {
		t.Error("expected isNew false")
	}
	if item.BatchID == nil || *item.BatchID != batch.ID {
		t.Errorf("expected batch membership, got %v", item.BatchID)
	}
	// Batch membership always wins over the prior location.
	if item.Location != model.LocationShow {
		t.Errorf("expected location Show, got %q", item.Location)
	}
	if item.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", item.Quantity)
	}
}

func TestIngestScanUnknownBarcodeIntoBatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	batch, _ := CreateBatch(ctx, database, "Show A", "", model.LocationShow)

	item, isNew, err := IngestScan(ctx, database, "999", 1, &batch.ID)
	if err != nil {
		t.Fatalf("IngestScan: %v", err)
	}
	if !isNew {
		t.Error("expected isNew for unknown barcode")
	}
	// Placeholder only: echoes the scan so the caller can render "not
	// found", but no item is stored.
	if item.ID != 0 {
		t.Errorf("expected placeholder item, got id %d", item.ID)
	}
	if item.Barcode != "999" || item.Location != model.LocationShow {
		t.Errorf("expected placeholder to echo barcode and target location, got %+v", item)
	}

	if stored, _ := GetItemByBarcode(ctx, database, "999"); stored != nil {
		t.Errorf("expected no item created, got %v", stored)
	}

	// The observation is still audited.
	events, _ := ListScanEvents(ctx, database, "999", 10, 0)
	if len(events) != 1 {
		t.Errorf("expected 1 scan event, got %d", len(events))
	}
}

func TestIngestScanInactiveBatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	batch, _ := CreateBatch(ctx, database, "Done", "", model.LocationShow)
	CancelBatch(ctx, database, batch.ID)

	_, _, err := IngestScan(ctx, database, "123", 1, &batch.ID)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for inactive batch, got %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.ItemCreate{Barcode: strp("123"), Quantity: intp(2)})

	item, err := UpdateQuantity(ctx, database, "123", QuantityAdd, 3)
	if err != nil {
		t.Fatalf("UpdateQuantity add: %v", err)
	}
	if item.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", item.Quantity)
	}

	item, err = UpdateQuantity(ctx, database, "123", QuantitySell, 4)
	if err != nil {
		t.Fatalf("UpdateQuantity sell: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", item.Quantity)
	}

	// Both actions logged scan events.
	events, _ := ListScanEvents(ctx, database, "123", 10, 0)
	if len(events) != 2 {
		t.Errorf("expected 2 scan events, got %d", len(events))
	}
}

func TestUpdateQuantityOversell(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.ItemCreate{Barcode: strp("123"), Quantity: intp(2)})

	_, err := UpdateQuantity(ctx, database, "123", QuantitySell, 5)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for oversell, got %v", err)
	}

	item, _ := GetItemByBarcode(ctx, database, "123")
	if item.Quantity != 2 {
		t.Errorf("expected quantity to remain 2, got %d", item.Quantity)
	}

	// The failed sell rolled back, so no scan event either.
	events, _ := ListScanEvents(ctx, database, "123", 10, 0)
	if len(events) != 0 {
		t.Errorf("expected no scan events after rollback, got %d", len(events))
	}
}

func TestUpdateQuantityErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.ItemCreate{Barcode: strp("123")})

	if _, err := UpdateQuantity(ctx, database, "unknown", QuantityAdd, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := UpdateQuantity(ctx, database, "123", "restock", 1); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown action, got %v", err)
	}
	if _, err := UpdateQuantity(ctx, database, "123", QuantityAdd, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for zero amount, got %v", err)
	}
	if _, err := UpdateQuantity(ctx, database, "", QuantityAdd, 1); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty barcode, got %v", err)
	}
}

func TestListScanEventsFiltered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	IngestScan(ctx, database, "aaa", 1, nil)
	IngestScan(ctx, database, "bbb", 1, nil)
	IngestScan(ctx, database, "aaa", 1, nil)

	all, err := ListScanEvents(ctx, database, "", 100, 0)
	if err != nil {
		t.Fatalf("ListScanEvents: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 events, got %d", len(all))
	}

	filtered, _ := ListScanEvents(ctx, database, "aaa", 100, 0)
	if len(filtered) != 2 {
		t.Errorf("expected 2 events for barcode aaa, got %d", len(filtered))
	}
}

func TestGetInventoryStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.ItemCreate{
		Barcode: strp("1"), Name: strp("Charizard"), Quantity: intp(2), Price: decp("1.50"),
	})
	CreateItem(ctx, database, model.ItemCreate{Barcode: strp("2"), Quantity: intp(3)})
	IngestScan(ctx, database, "1", 1, nil)

	stats, err := GetInventoryStats(ctx, database)
	if err != nil {
		t.Fatalf("GetInventoryStats: %v", err)
	}
	if stats.TotalItems != 2 {
		t.Errorf("expected 2 items, got %d", stats.TotalItems)
	}
	if stats.NamedItems != 1 {
		t.Errorf("expected 1 named item, got %d", stats.NamedItems)
	}
	if stats.TotalQuantity != 5 {
		t.Errorf("expected total quantity 5, got %d", stats.TotalQuantity)
	}
	if stats.TotalValue.StringFixed(2) != "3.00" {
		t.Errorf("expected total value 3.00, got %s", stats.TotalValue)
	}
	if stats.TotalScans != 1 {
		t.Errorf("expected 1 scan, got %d", stats.TotalScans)
	}
}
