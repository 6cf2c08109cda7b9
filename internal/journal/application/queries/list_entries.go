package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// DefaultListLimit applies when ListEntriesQuery.Limit is not positive.
const DefaultListLimit = 20

// ListEntriesQuery pages through a user's entries, newest first.
type ListEntriesQuery struct {
	UserID uuid.UUID
	Limit  int
	Offset int
	Mood   *moodDomain.Mood
}

// ListEntriesResult is a page of entries. Total counts every entry matching
// the query's mood filter, not just the page.
type ListEntriesResult struct {
	Entries []EntryDTO `json:"entries"`
	Total   int        `json:"total"`
}

// ListEntriesHandler handles the ListEntriesQuery.
type ListEntriesHandler struct {
	entryRepo domain.Repository
}

// NewListEntriesHandler creates a new ListEntriesHandler.
func NewListEntriesHandler(entryRepo domain.Repository) *ListEntriesHandler {
	return &ListEntriesHandler{entryRepo: entryRepo}
}

// Handle executes the query.
func (h *ListEntriesHandler) Handle(ctx context.Context, query ListEntriesQuery) (*ListEntriesResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := max(query.Offset, 0)

	entries, err := h.entryRepo.FindByUser(ctx, query.UserID, domain.ListOptions{
		Limit:  limit,
		Offset: offset,
		Mood:   query.Mood,
	})
	if err != nil {
		return nil, err
	}

	total, err := h.entryRepo.CountByUser(ctx, query.UserID, query.Mood)
	if err != nil {
		return nil, err
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toEntryDTO(entry))
	}
	return &ListEntriesResult{Entries: dtos, Total: total}, nil
}
