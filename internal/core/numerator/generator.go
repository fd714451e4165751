// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
//
// Numbers are monotonic per (prefix, period) key, backed by a database
// sequence row, so two concurrent order creations never collide.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YYYYMMDD-XXXX (e.g., POS-MAIN-20260828-0001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
