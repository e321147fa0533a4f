package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item locations. An item without a location has not been assigned yet.
const (
	LocationStorage = "Storage"
	LocationShow    = "Show"
)

// ValidLocation reports whether loc is one of the known locations.
func ValidLocation(loc string) bool {
	return loc == LocationStorage || loc == LocationShow
}

// Item represents a single inventory entry. Barcode is globally unique
// when present; BatchID is set while the item is part of an active batch.
type Item struct {
	ID          int64            `json:"id"`
	Barcode     string           `json:"barcode,omitempty"`
	Name        string           `json:"name,omitempty"`
	Game        string           `json:"game,omitempty"`
	SetName     string           `json:"set_name,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Quantity    int              `json:"quantity"`
	Location    string           `json:"location,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Price       *decimal.Decimal `json:"price"`
	Description string           `json:"description,omitempty"`
	BatchID     *int64           `json:"batch_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ItemCreate carries the fields accepted when creating an item. Nil
// pointers fall back to defaults (quantity 0, everything else unset).
type ItemCreate struct {
	Barcode     *string          `json:"barcode"`
	Name        *string          `json:"name"`
	Game        *string          `json:"game"`
	SetName     *string          `json:"set_name"`
	Brand       *string          `json:"brand"`
	Quantity    *int             `json:"quantity"`
	Location    *string          `json:"location"`
	Notes       *string          `json:"notes"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
}

// ItemUpdate carries the fields accepted by a partial update. A nil
// pointer means "not supplied, leave untouched"; this call cannot clear a
// field back to null. Barcode is deliberately absent: it is the item's
// external identity and never changes after creation.
type ItemUpdate struct {
	Name        *string          `json:"name"`
	Game        *string          `json:"game"`
	SetName     *string          `json:"set_name"`
	Brand       *string          `json:"brand"`
	Quantity    *int             `json:"quantity"`
	Location    *string          `json:"location"`
	Notes       *string          `json:"notes"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
}
