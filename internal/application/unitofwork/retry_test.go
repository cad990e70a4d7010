package unitofwork

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memberportal/backend/internal/domain/shared"
)

type scriptedScope struct {
	results []error
	calls   int
}

func (s *scriptedScope) Execute(_ context.Context, fn func(TransactionalRepositories) error) error {
	err := s.results[s.calls]
	s.calls++
	return err
}

func TestExecuteWithRetry(t *testing.T) {
	noop := func(TransactionalRepositories) error { return nil }

	t.Run("retries conflicts until success", func(t *testing.T) {
		scope := &scriptedScope{results: []error{shared.ErrConcurrencyConflict, nil}}
		assert.NoError(t, ExecuteWithRetry(context.Background(), scope, 3, noop))
		assert.Equal(t, 2, scope.calls)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		conflict := shared.ErrConcurrencyConflict
		scope := &scriptedScope{results: []error{conflict, conflict, conflict}}
		err := ExecuteWithRetry(context.Background(), scope, 3, noop)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 3, scope.calls)
	})

	t.Run("other errors return immediately", func(t *testing.T) {
		boom := errors.New("boom")
		scope := &scriptedScope{results: []error{boom}}
		assert.ErrorIs(t, ExecuteWithRetry(context.Background(), scope, 3, noop), boom)
		assert.Equal(t, 1, scope.calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		scope := &scriptedScope{}
		assert.ErrorIs(t, ExecuteWithRetry(ctx, scope, 3, noop), context.Canceled)
		assert.Zero(t, scope.calls)
	})
}
