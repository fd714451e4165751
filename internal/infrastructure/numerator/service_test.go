package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "retailops/internal/core/numerator"
)

// fakeRow satisfies pgx.Row, returning a counter per key.
type fakeRow struct {
	val int64
}

func (r fakeRow) Scan(dest ...any) error {
	*dest[0].(*int64) = r.val
	return nil
}

// fakeQuerier upserts sequence values in memory the way sys_sequences does.
type fakeQuerier struct {
	seqs map[string]int64
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	key := args[0].(string)
	inc := int64(1)
	if len(args) > 1 {
		inc = args[1].(int64)
	}
	f.seqs[key] += inc
	return fakeRow{val: f.seqs[key]}
}

func TestGetNextNumber_StrictPerOutletDay(t *testing.T) {
	svc := New(&fakeQuerier{seqs: make(map[string]int64)})
	day := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("POS-MAIN")
	first, err := svc.GetNextNumber(context.Background(), cfg, corenumerator.DefaultOptions(), day)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(context.Background(), cfg, corenumerator.DefaultOptions(), day)
	require.NoError(t, err)

	assert.Equal(t, "POS-MAIN-20260828-0001", first)
	assert.Equal(t, "POS-MAIN-20260828-0002", second)

	// Another outlet advances independently.
	other, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("POS-WEST"), nil, day)
	require.NoError(t, err)
	assert.Equal(t, "POS-WEST-20260828-0001", other)

	// The next day resets the sequence.
	nextDay, err := svc.GetNextNumber(context.Background(), cfg, nil, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "POS-MAIN-20260829-0001", nextDay)
}

func TestGetNextNumber_CachedAllocatesRanges(t *testing.T) {
	q := &fakeQuerier{seqs: make(map[string]int64)}
	svc := New(q)
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.Config{Prefix: "JOB", ResetPeriod: "never", PadWidth: 4}
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	for i := 1; i <= 12; i++ {
		got, err := svc.GetNextNumber(context.Background(), cfg, opts, day)
		require.NoError(t, err)
		assert.Equal(t, int64(i), ParseNumber(got))
	}

	// Two range allocations of 10 hit the database.
	assert.Equal(t, int64(20), q.seqs["JOB"])
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		formatted string
		want      int64
	}{
		{"POS-MAIN-20260828-0042", 42},
		{"JOB-0007", 7},
		{"PO-WEST-20260828-1234", 1234},
		{"no-dash-suffix-", -1},
		{"plainstring", -1},
		{"POS-MAIN-20260828-00x7", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseNumber(tt.formatted), tt.formatted)
	}
}
