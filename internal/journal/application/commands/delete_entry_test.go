package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

func TestDeleteEntryHandler_Handle(t *testing.T) {
	owner := uuid.New()
	entry := domain.RehydrateJournalEntry(uuid.New(), owner, "", "text", nil,
		moodDomain.ClassificationResult{DetectedMood: moodDomain.MoodCalm}, time.Now(), time.Now(), 1)

	tests := []struct {
		name    string
		userID  uuid.UUID
		findErr error
		wantErr error
		deletes bool
	}{
		{name: "owner deletes", userID: owner, deletes: true},
		{name: "other user sees not found", userID: uuid.New(), wantErr: domain.ErrEntryNotFound},
		{name: "missing entry", userID: owner, findErr: domain.ErrEntryNotFound, wantErr: domain.ErrEntryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockEntryRepo)
			cache := new(mockTrendCache)
			metrics := observability.NewInMemoryMetrics()
			handler := NewDeleteEntryHandler(repo, cache, metrics, nil)

			ctx := context.Background()
			if tt.findErr != nil {
				repo.On("FindByID", ctx, entry.ID()).Return(nil, tt.findErr)
			} else {
				repo.On("FindByID", ctx, entry.ID()).Return(entry, nil)
			}
			if tt.deletes {
				repo.On("Delete", ctx, entry.ID()).Return(nil)
				cache.On("Invalidate", ctx, owner).Return(nil)
			}

			err := handler.Handle(ctx, DeleteEntryCommand{UserID: tt.userID, EntryID: entry.ID()})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEntriesDeleted))
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}
