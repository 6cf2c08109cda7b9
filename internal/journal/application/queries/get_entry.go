package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
)

// GetEntryQuery fetches one entry.
type GetEntryQuery struct {
	UserID  uuid.UUID
	EntryID uuid.UUID
}

// GetEntryHandler handles the GetEntryQuery.
type GetEntryHandler struct {
	entryRepo domain.Repository
}

// NewGetEntryHandler creates a new GetEntryHandler.
func NewGetEntryHandler(entryRepo domain.Repository) *GetEntryHandler {
	return &GetEntryHandler{entryRepo: entryRepo}
}

// Handle returns domain.ErrEntryNotFound for entries of other users.
func (h *GetEntryHandler) Handle(ctx context.Context, query GetEntryQuery) (*EntryDTO, error) {
	entry, err := h.entryRepo.FindByID(ctx, query.EntryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsOwnedBy(query.UserID) {
		return nil, domain.ErrEntryNotFound
	}
	dto := toEntryDTO(entry)
	return &dto, nil
}
