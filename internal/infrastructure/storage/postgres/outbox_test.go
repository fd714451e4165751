package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/id"
)

type execCall struct {
	sql  string
	args []any
}

// recordQuerier captures Exec calls so tests can verify which querier
// the relay writes status updates through.
type recordQuerier struct {
	execs []execCall
}

func (q *recordQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (q *recordQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (q *recordQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type stubHandler struct {
	err error
}

func (h stubHandler) Handle(ctx context.Context, msg *OutboxMessage) error {
	return h.err
}

// The relay is built with a nil pool on purpose: status updates must go
// through the querier of the batch transaction, never the pool, or the
// row locks taken by the batch fetch would not cover them.
func TestProcessMessage_MarksPublishedViaBatchQuerier(t *testing.T) {
	relay := NewOutboxRelay(nil, 10, stubHandler{})
	q := &recordQuerier{}
	msg := &OutboxMessage{ID: id.New(), EventType: "pos_order.completed"}

	err := relay.processMessage(context.Background(), q, msg)
	require.NoError(t, err)

	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "published_at")
	assert.Contains(t, q.execs[0].args, OutboxStatusPublished)
	assert.Contains(t, q.execs[0].args, msg.ID)
}

func TestProcessMessage_HandlerErrorSchedulesRetry(t *testing.T) {
	handlerErr := errors.New("smtp unavailable")
	relay := NewOutboxRelay(nil, 10, stubHandler{err: handlerErr})
	q := &recordQuerier{}
	msg := &OutboxMessage{ID: id.New(), EventType: "pos_order.receipt_email", RetryCount: 2}

	err := relay.processMessage(context.Background(), q, msg)
	require.ErrorIs(t, err, handlerErr)

	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "retry_count = retry_count + 1")
	assert.Contains(t, q.execs[0].args, handlerErr.Error())
	assert.Contains(t, q.execs[0].args, msg.ID)
}
