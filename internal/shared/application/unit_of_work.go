// Package application holds cross-context helpers for command handlers.
package application

import (
	"context"
	"fmt"
)

// UnitOfWork scopes several writes to one transaction carried in the context.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc runs inside a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn in a transaction, committing on success and rolling
// back on error. The error from fn is returned as is.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	if err := uow.Commit(txCtx); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

// NoopUnitOfWork is used by stores without multi-document transactions.
type NoopUnitOfWork struct{}

func (NoopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (NoopUnitOfWork) Commit(context.Context) error                       { return nil }
func (NoopUnitOfWork) Rollback(context.Context) error                     { return nil }
