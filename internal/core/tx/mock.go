package tx

import "context"

// MockManager is a pass-through Manager for unit tests.
// fn runs directly; rollback semantics are exercised against a real store.
type MockManager struct {
	RunInTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunInTransaction implements Manager.
func (m *MockManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTransactionFunc != nil {
		return m.RunInTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// Ensure compile-time interface compliance.
var _ Manager = (*MockManager)(nil)
