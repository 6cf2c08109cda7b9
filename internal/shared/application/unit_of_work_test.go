package application

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/moodlens/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestWithUnitOfWork(t *testing.T) {
	t.Run("successfully executes and commits", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		executed := false
		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			executed = true
			assert.Equal(t, txCtx, ctx, "should receive transaction context")
			return nil
		})

		require.NoError(t, err)
		assert.True(t, executed, "function should be executed")

		uow.AssertExpectations(t)
	})

	t.Run("rolls back on function error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		fnError := errors.New("function error")
		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			return fnError
		})

		assert.Error(t, err)
		assert.Equal(t, fnError, err)

		uow.AssertExpectations(t)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("returns error when begin fails", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()

		beginError := errors.New("begin error")
		uow.On("Begin", ctx).Return(ctx, beginError)

		executed := false
		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			executed = true
			return nil
		})

		assert.ErrorIs(t, err, beginError)
		assert.False(t, executed, "function should not be executed")

		uow.AssertExpectations(t)
	})

	t.Run("returns commit error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		commitError := errors.New("commit error")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(commitError)

		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			return nil
		})

		assert.ErrorIs(t, err, commitError)

		uow.AssertExpectations(t)
	})

	t.Run("ignores rollback error on function failure", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		fnError := errors.New("function error")
		rollbackError := errors.New("rollback error")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(rollbackError)

		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			return fnError
		})

		// Should return the function error, not the rollback error
		assert.Error(t, err)
		assert.Equal(t, fnError, err)

		uow.AssertExpectations(t)
	})
}

func TestNoopUnitOfWork(t *testing.T) {
	ctx := context.Background()
	called := false

	err := WithUnitOfWork(ctx, NoopUnitOfWork{}, func(txCtx context.Context) error {
		called = true
		assert.Equal(t, ctx, txCtx)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestNewEventMetadata(t *testing.T) {
	userID := uuid.New()
	correlationID := uuid.New()

	ctx := observability.WithCorrelationID(context.Background(), correlationID.String())
	meta := NewEventMetadata(ctx, userID)
	assert.Equal(t, correlationID, meta.CorrelationID)
	assert.Equal(t, userID, meta.UserID)
	assert.NotEqual(t, uuid.Nil, meta.CausationID)

	fresh := NewEventMetadata(context.Background(), userID)
	assert.NotEqual(t, uuid.Nil, fresh.CorrelationID)
}
