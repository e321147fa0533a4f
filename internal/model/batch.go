package model

import "time"

// Batch represents a named transfer of items toward a common target
// location. A batch is active from creation until it is transferred or
// cancelled; both outcomes are terminal.
type Batch struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	TargetLocation string    `json:"target_location"`
	IsActive       bool      `json:"is_active"`
	ItemCount      int64     `json:"item_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BatchWithItems is a batch together with its current member items.
type BatchWithItems struct {
	Batch
	Items []Item `json:"items"`
}

// BatchUpdate carries the metadata fields accepted by a batch update.
// Membership is never changed through this call.
type BatchUpdate struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	TargetLocation *string `json:"target_location"`
}
