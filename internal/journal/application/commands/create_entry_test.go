package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

func TestCreateEntryHandler_Handle(t *testing.T) {
	userID := uuid.New()

	t.Run("stores a classified entry and its event", func(t *testing.T) {
		repo := new(mockEntryRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockTrendCache)
		metrics := observability.NewInMemoryMetrics()
		handler := NewCreateEntryHandler(repo, outboxRepo, uow, nil, cache, metrics, nil)

		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Commit", ctx).Return(nil)
		repo.On("Save", ctx, mock.AnythingOfType("*domain.JournalEntry")).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			return assert.ObjectsAreEqual([]string{domain.RoutingKeyEntryCreated}, routingKeys(msgs))
		})).Return(nil)
		cache.On("Invalidate", ctx, userID).Return(nil)

		result, err := handler.Handle(ctx, CreateEntryCommand{
			UserID:  userID,
			Title:   "Sunday",
			Content: "I feel so happy and joyful today",
			Tags:    []string{"Weekend"},
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.EntryID)
		assert.Equal(t, moodDomain.MoodHappy, result.Classification.DetectedMood)
		assert.Nil(t, result.Helpline)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEntriesCreated))
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricClassifications,
			observability.T("mood", "happy")))
		opTag := observability.T(observability.OperationKey, OperationCreateEntry)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOperationTotal, opTag))
		assert.Len(t, metrics.GetTimings(observability.MetricOperationDuration, opTag), 1)
		assert.Zero(t, metrics.GetCounter(observability.MetricOperationErrors, opTag))

		repo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		uow.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("crisis content returns the helpline and queues an alert", func(t *testing.T) {
		repo := new(mockEntryRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockTrendCache)
		handler := NewCreateEntryHandler(repo, outboxRepo, uow, nil, cache, nil, nil)

		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Commit", ctx).Return(nil)
		repo.On("Save", ctx, mock.Anything).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			return assert.ObjectsAreEqual(
				[]string{domain.RoutingKeyEntryCreated, domain.RoutingKeySafetyAlertRaised},
				routingKeys(msgs))
		})).Return(nil)
		cache.On("Invalidate", ctx, userID).Return(nil)

		result, err := handler.Handle(ctx, CreateEntryCommand{
			UserID:  userID,
			Content: "I want to end my life",
			Country: "gb",
		})

		require.NoError(t, err)
		assert.True(t, result.Classification.SelfHarmDetected)
		assert.Equal(t, moodDomain.MoodSad, result.Classification.DetectedMood)
		require.NotNil(t, result.Helpline)
		assert.Equal(t, "UK", result.Helpline.Country)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("manual mood is kept alongside the detected one", func(t *testing.T) {
		repo := new(mockEntryRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateEntryHandler(repo, outboxRepo, uow, nil, nil, nil, nil)

		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Commit", ctx).Return(nil)
		repo.On("Save", ctx, mock.Anything).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil)

		manual := moodDomain.MoodCalm
		result, err := handler.Handle(ctx, CreateEntryCommand{
			UserID:     userID,
			Content:    "I feel so happy and joyful today",
			ManualMood: &manual,
		})

		require.NoError(t, err)
		assert.Equal(t, moodDomain.MoodHappy, result.Classification.DetectedMood)
		assert.Equal(t, moodDomain.MoodCalm, result.Classification.EffectiveMood())
	})

	t.Run("backdated entries keep their timestamp", func(t *testing.T) {
		repo := new(mockEntryRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateEntryHandler(repo, outboxRepo, uow, nil, nil, nil, nil)

		writtenAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Commit", ctx).Return(nil)
		repo.On("Save", ctx, mock.MatchedBy(func(entry *domain.JournalEntry) bool {
			return entry.CreatedAt().Equal(writtenAt)
		})).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil)

		_, err := handler.Handle(ctx, CreateEntryCommand{
			UserID:    userID,
			Content:   "quiet morning",
			WrittenAt: writtenAt,
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("fails on empty content without touching storage", func(t *testing.T) {
		repo := new(mockEntryRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateEntryHandler(repo, outboxRepo, uow, nil, nil, nil, nil)

		_, err := handler.Handle(context.Background(), CreateEntryCommand{UserID: userID, Content: "   "})

		assert.ErrorIs(t, err, domain.ErrEmptyContent)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("rolls back when the outbox write fails", func(t *testing.T) {
		repo := new(mockEntryRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockTrendCache)
		handler := NewCreateEntryHandler(repo, outboxRepo, uow, nil, cache, nil, nil)

		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Rollback", ctx).Return(nil)
		repo.On("Save", ctx, mock.Anything).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := handler.Handle(ctx, CreateEntryCommand{UserID: userID, Content: "hello"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		uow.AssertNotCalled(t, "Commit", mock.Anything)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("cache failures do not fail the write", func(t *testing.T) {
		repo := new(mockEntryRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockTrendCache)
		handler := NewCreateEntryHandler(repo, outboxRepo, uow, nil, cache, nil, nil)

		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, nil)
		uow.On("Commit", ctx).Return(nil)
		repo.On("Save", ctx, mock.Anything).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.Anything).Return(nil)
		cache.On("Invalidate", ctx, userID).Return(errors.New("redis down"))

		_, err := handler.Handle(ctx, CreateEntryCommand{UserID: userID, Content: "hello"})

		require.NoError(t, err)
	})
}
