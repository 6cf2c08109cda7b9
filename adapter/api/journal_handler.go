package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	journalDomain "github.com/felixgeelhaar/moodlens/internal/journal/domain"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

const maxBodyBytes = 1 << 20

// JournalHandler serves classification and journal requests for one owner.
type JournalHandler struct {
	classifier      *analysis.Classifier
	createEntry     *commands.CreateEntryHandler
	reclassify      *commands.ReclassifyEntriesHandler
	deleteEntry     *commands.DeleteEntryHandler
	listEntries     *queries.ListEntriesHandler
	getEntry        *queries.GetEntryHandler
	getTrend        *queries.GetMoodTrendHandler
	flush           func(ctx context.Context) error
	userID          uuid.UUID
	helplineCountry string
	trendWindow     int
	workers         int
	logger          *slog.Logger
}

// JournalHandlerConfig holds dependencies for the journal handler.
type JournalHandlerConfig struct {
	Classifier      *analysis.Classifier
	CreateEntry     *commands.CreateEntryHandler
	Reclassify      *commands.ReclassifyEntriesHandler
	DeleteEntry     *commands.DeleteEntryHandler
	ListEntries     *queries.ListEntriesHandler
	GetEntry        *queries.GetEntryHandler
	GetTrend        *queries.GetMoodTrendHandler
	// Flush relays events after writes. Optional.
	Flush           func(ctx context.Context) error
	UserID          uuid.UUID
	HelplineCountry string
	TrendWindow     int
	Workers         int
	Logger          *slog.Logger
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(cfg JournalHandlerConfig) *JournalHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = analysis.NewClassifier()
	}
	if cfg.HelplineCountry == "" {
		cfg.HelplineCountry = "US"
	}
	if cfg.Flush == nil {
		cfg.Flush = func(context.Context) error { return nil }
	}
	return &JournalHandler{
		classifier:      cfg.Classifier,
		createEntry:     cfg.CreateEntry,
		reclassify:      cfg.Reclassify,
		deleteEntry:     cfg.DeleteEntry,
		listEntries:     cfg.ListEntries,
		getEntry:        cfg.GetEntry,
		getTrend:        cfg.GetTrend,
		flush:           cfg.Flush,
		userID:          cfg.UserID,
		helplineCountry: cfg.HelplineCountry,
		trendWindow:     cfg.TrendWindow,
		workers:         cfg.Workers,
		logger:          cfg.Logger,
	}
}

type classifyRequest struct {
	Text       string `json:"text"`
	ManualMood string `json:"manual_mood,omitempty"`
	Country    string `json:"country,omitempty"`
}

type classifyResponse struct {
	moodDomain.ClassificationResult
	EffectiveMood moodDomain.Mood            `json:"effective_mood"`
	Helpline      *moodDomain.HelplineRecord `json:"helpline,omitempty"`
}

type createEntryRequest struct {
	Title      string   `json:"title,omitempty"`
	Content    string   `json:"content"`
	ManualMood string   `json:"manual_mood,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Country    string   `json:"country,omitempty"`
}

// Classify handles POST /api/v1/classify
func (h *JournalHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	manual, ok := parseManualMood(w, req.ManualMood)
	if !ok {
		return
	}

	result := h.classifier.Classify(req.Text, manual)
	resp := classifyResponse{ClassificationResult: result, EffectiveMood: result.EffectiveMood()}
	if result.SelfHarmDetected {
		helpline := moodDomain.HelplineInfo(h.country(req.Country))
		resp.Helpline = &helpline
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListHelplines handles GET /api/v1/helplines
func (h *JournalHandler) ListHelplines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, moodDomain.Helplines())
}

// GetHelpline handles GET /api/v1/helplines/{country}
func (h *JournalHandler) GetHelpline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, moodDomain.HelplineInfo(r.PathValue("country")))
}

// CreateEntry handles POST /api/v1/entries
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	if h.createEntry == nil {
		writeError(w, http.StatusServiceUnavailable, "Journal storage is not configured")
		return
	}
	var req createEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	manual, ok := parseManualMood(w, req.ManualMood)
	if !ok {
		return
	}

	result, err := h.createEntry.Handle(r.Context(), commands.CreateEntryCommand{
		UserID:     h.userID,
		Title:      req.Title,
		Content:    req.Content,
		ManualMood: manual,
		Tags:       req.Tags,
		Country:    h.country(req.Country),
	})
	if errors.Is(err, journalDomain.ErrEmptyContent) || errors.Is(err, journalDomain.ErrTitleTooLong) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create entry", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create entry")
		return
	}
	h.relay(r)

	writeJSON(w, http.StatusCreated, result)
}

// ListEntries handles GET /api/v1/entries
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	if h.listEntries == nil {
		writeError(w, http.StatusServiceUnavailable, "Journal storage is not configured")
		return
	}
	query := queries.ListEntriesQuery{
		UserID: h.userID,
		Limit:  parseIntParam(r, "limit", queries.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}
	if moodParam := r.URL.Query().Get("mood"); moodParam != "" {
		m, err := moodDomain.ParseMood(moodParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Mood = &m
	}

	result, err := h.listEntries.Handle(r.Context(), query)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list entries", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetEntry handles GET /api/v1/entries/{entryID}
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	if h.getEntry == nil {
		writeError(w, http.StatusServiceUnavailable, "Journal storage is not configured")
		return
	}
	entryID, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	result, err := h.getEntry.Handle(r.Context(), queries.GetEntryQuery{UserID: h.userID, EntryID: entryID})
	if errors.Is(err, journalDomain.ErrEntryNotFound) {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get entry")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteEntry handles DELETE /api/v1/entries/{entryID}
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if h.deleteEntry == nil {
		writeError(w, http.StatusServiceUnavailable, "Journal storage is not configured")
		return
	}
	entryID, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	err := h.deleteEntry.Handle(r.Context(), commands.DeleteEntryCommand{UserID: h.userID, EntryID: entryID})
	if errors.Is(err, journalDomain.ErrEntryNotFound) {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to delete entry", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTrend handles GET /api/v1/trend
func (h *JournalHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	if h.getTrend == nil {
		writeError(w, http.StatusServiceUnavailable, "Journal storage is not configured")
		return
	}
	result, err := h.getTrend.Handle(r.Context(), queries.GetMoodTrendQuery{
		UserID: h.userID,
		Limit:  parseIntParam(r, "limit", h.trendWindow),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build trend", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to build trend")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Reclassify handles POST /api/v1/reclassify
func (h *JournalHandler) Reclassify(w http.ResponseWriter, r *http.Request) {
	if h.reclassify == nil {
		writeError(w, http.StatusServiceUnavailable, "Journal storage is not configured")
		return
	}
	result, err := h.reclassify.Handle(r.Context(), commands.ReclassifyEntriesCommand{
		UserID:  h.userID,
		Workers: parseIntParam(r, "workers", h.workers),
		Country: h.helplineCountry,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to reclassify entries", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to reclassify entries")
		return
	}
	h.relay(r)

	writeJSON(w, http.StatusOK, result)
}

func (h *JournalHandler) country(requested string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return h.helplineCountry
}

// relay flushes events. Entries are already committed, so failures are only logged.
func (h *JournalHandler) relay(r *http.Request) {
	if err := h.flush(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "failed to relay events", "error", err)
	}
}

// Helper functions

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func parseManualMood(w http.ResponseWriter, value string) (*moodDomain.Mood, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, true
	}
	m, err := moodDomain.ParseMood(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &m, true
}

func parseEntryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("entryID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry ID")
		return uuid.Nil, false
	}
	return id, true
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
