package store

import (
	"errors"
	"strings"
)

// Error kinds surfaced to callers. Store functions wrap these with
// context; handlers map them onto HTTP status codes with errors.Is.
var (
	// ErrValidation covers bad input: negative quantities, unknown
	// locations, empty barcodes, malformed actions.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an operation requires an item or
	// batch that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers duplicate barcodes and business-rule conflicts
	// such as operating on an inactive batch.
	ErrConflict = errors.New("conflict")
)

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. Two requests racing to create the same barcode both pass any
// application-level check; the loser's INSERT fails here and must surface
// as ErrConflict, never as a silent overwrite.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
