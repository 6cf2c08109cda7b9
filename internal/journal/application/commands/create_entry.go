package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	sharedApplication "github.com/felixgeelhaar/moodlens/internal/shared/application"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// CreateEntryCommand contains the data needed to write a journal entry.
type CreateEntryCommand struct {
	UserID     uuid.UUID
	Title      string
	Content    string
	ManualMood *moodDomain.Mood
	Tags       []string
	// Country selects the helpline for safety alerts.
	Country string
	// WrittenAt backdates the entry when set.
	WrittenAt time.Time
}

// CreateEntryResult contains the result of writing an entry.
type CreateEntryResult struct {
	EntryID        uuid.UUID                       `json:"entry_id"`
	Classification moodDomain.ClassificationResult `json:"classification"`
	// Helpline is set only when crisis language was detected.
	Helpline *moodDomain.HelplineRecord `json:"helpline,omitempty"`
}

// CreateEntryHandler handles the CreateEntryCommand.
type CreateEntryHandler struct {
	entryRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	classifier *analysis.Classifier
	cache      TrendInvalidator
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewCreateEntryHandler creates a new CreateEntryHandler.
func NewCreateEntryHandler(
	entryRepo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	classifier *analysis.Classifier,
	cache TrendInvalidator,
	metrics observability.Metrics,
	logger *slog.Logger,
) *CreateEntryHandler {
	if classifier == nil {
		classifier = analysis.NewClassifier()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CreateEntryHandler{
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		classifier: classifier,
		cache:      cache,
		metrics:    metrics,
		logger:     loggerOrDefault(logger),
	}
}

// Operation names reported by the write handlers.
const (
	OperationCreateEntry       = "journal.create_entry"
	OperationReclassifyEntries = "journal.reclassify_entries"
)

// Handle classifies the content and stores the entry with its events.
func (h *CreateEntryHandler) Handle(ctx context.Context, cmd CreateEntryCommand) (*CreateEntryResult, error) {
	timer := observability.StartTimer(OperationCreateEntry).WithLogger(h.logger).WithMetrics(h.metrics)
	result, err := h.handle(ctx, cmd)
	timer.StopWithError(err)
	return result, err
}

func (h *CreateEntryHandler) handle(ctx context.Context, cmd CreateEntryCommand) (*CreateEntryResult, error) {
	classification := h.classifier.Classify(cmd.Content, cmd.ManualMood)

	writtenAt := cmd.WrittenAt
	if writtenAt.IsZero() {
		writtenAt = time.Now()
	}
	entry, err := domain.NewJournalEntryAt(cmd.UserID, cmd.Title, cmd.Content, cmd.Tags, classification, cmd.Country, writtenAt)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.entryRepo.Save(txCtx, entry); err != nil {
			return err
		}
		_, err := enqueueEvents(txCtx, h.outboxRepo, cmd.UserID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidateTrend(ctx, h.cache, h.logger, cmd.UserID)

	moodTag := observability.T("mood", string(classification.DetectedMood))
	h.metrics.Counter(observability.MetricEntriesCreated, 1)
	h.metrics.Counter(observability.MetricClassifications, 1, moodTag)
	h.metrics.Histogram(observability.MetricConfidence, classification.Confidence, moodTag)

	result := &CreateEntryResult{
		EntryID:        entry.ID(),
		Classification: entry.Classification(),
	}
	if classification.SelfHarmDetected {
		helpline := moodDomain.HelplineInfo(cmd.Country)
		result.Helpline = &helpline
	}
	return result, nil
}
