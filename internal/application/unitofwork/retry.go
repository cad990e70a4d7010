package unitofwork

import (
	"context"
	"errors"

	"github.com/memberportal/backend/internal/domain/shared"
)

// DefaultConflictRetries is how often a unit of work is attempted when it
// keeps losing optimistic-lock races.
const DefaultConflictRetries = 3

// ExecuteWithRetry runs fn in a transaction and re-runs the whole transaction
// when it fails with shared.ErrConcurrencyConflict, up to attempts times.
// fn must not keep state between attempts.
func ExecuteWithRetry(ctx context.Context, scope TransactionScope, attempts int, fn func(repos TransactionalRepositories) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = scope.Execute(ctx, fn)
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}
