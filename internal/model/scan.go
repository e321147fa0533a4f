package model

import "time"

// ScanEvent is an append-only audit record of a barcode observation. One
// row is written per scan regardless of whether the barcode resolved to an
// item.
type ScanEvent struct {
	ID        int64     `json:"id"`
	Barcode   string    `json:"barcode"`
	CreatedAt time.Time `json:"created_at"`
}
