// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Guarantees sequential numbers without gaps.
	// Suitable for orders and purchase orders where numbers are customer-facing.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if the application restarts.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "POS-MAIN", "PO-MAIN")
	Prefix string

	// IncludeDate adds the business date (YYYYMMDD) to the number
	IncludeDate bool

	// PadWidth is the minimum sequence width (default 4)
	PadWidth int

	// ResetPeriod: "day", "year", "never"
	ResetPeriod string
}

// DefaultConfig returns per-outlet daily numbering
// (e.g., POS-MAIN-20260828-0001).
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeDate: true,
		PadWidth:    4,
		ResetPeriod: "day",
	}
}
