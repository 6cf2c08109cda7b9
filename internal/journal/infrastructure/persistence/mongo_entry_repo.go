package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/crypto"
)

// EntriesCollection is the MongoDB collection holding journal entries.
const EntriesCollection = "journal_entries"

type entryDocument struct {
	ID              string         `bson:"_id"`
	UserID          string         `bson:"user_id"`
	Title           string         `bson:"title"`
	Content         string         `bson:"content"`
	DetectedMood    string         `bson:"detected_mood"`
	ManualMood      *string        `bson:"manual_mood,omitempty"`
	Confidence      float64        `bson:"confidence"`
	SelfHarm        bool           `bson:"self_harm"`
	CrisisPhrases   []string       `bson:"crisis_phrases"`
	SentimentScore  float64        `bson:"sentiment_score"`
	MatchedKeywords []string       `bson:"matched_keywords"`
	MoodScores      map[string]int `bson:"mood_scores"`
	Reasoning       string         `bson:"reasoning"`
	Tags            []string       `bson:"tags"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
	Version         int            `bson:"version"`
}

func toDocument(rec entryRecord) entryDocument {
	return entryDocument{
		ID:              rec.ID.String(),
		UserID:          rec.UserID.String(),
		Title:           rec.Title,
		Content:         rec.Content,
		DetectedMood:    rec.DetectedMood,
		ManualMood:      rec.ManualMood,
		Confidence:      rec.Confidence,
		SelfHarm:        rec.SelfHarm,
		CrisisPhrases:   rec.CrisisPhrases,
		SentimentScore:  rec.SentimentScore,
		MatchedKeywords: rec.MatchedKeywords,
		MoodScores:      rec.MoodScores,
		Reasoning:       rec.Reasoning,
		Tags:            rec.Tags,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		Version:         rec.Version,
	}
}

func (d entryDocument) record() (entryRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return entryRecord{}, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return entryRecord{}, err
	}
	return entryRecord{
		ID:              id,
		UserID:          userID,
		Title:           d.Title,
		Content:         d.Content,
		DetectedMood:    d.DetectedMood,
		ManualMood:      d.ManualMood,
		Confidence:      d.Confidence,
		SelfHarm:        d.SelfHarm,
		CrisisPhrases:   d.CrisisPhrases,
		SentimentScore:  d.SentimentScore,
		MatchedKeywords: d.MatchedKeywords,
		MoodScores:      d.MoodScores,
		Reasoning:       d.Reasoning,
		Tags:            d.Tags,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		Version:         d.Version,
	}, nil
}

// MongoEntryRepository implements domain.Repository using MongoDB.
type MongoEntryRepository struct {
	coll   *mongo.Collection
	cipher crypto.ContentCipher

	// createIndexes runs until it succeeds once.
	createIndexes func(ctx context.Context) error
	indexMu       sync.Mutex
	indexed       bool
}

// indexTimeout bounds index creation, which is detached from request cancellation.
const indexTimeout = 30 * time.Second

// NewMongoEntryRepository creates a new MongoDB entry repository.
func NewMongoEntryRepository(db *mongo.Database, cipher crypto.ContentCipher) *MongoEntryRepository {
	if cipher == nil {
		cipher = crypto.Plaintext{}
	}
	r := &MongoEntryRepository{coll: db.Collection(EntriesCollection), cipher: cipher}
	r.createIndexes = r.createUserIndex
	return r
}

func (r *MongoEntryRepository) createUserIndex(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_created"),
	})
	return err
}

// EnsureIndexes creates the {user_id, created_at} index. A failed attempt
// is retried on the next call.
func (r *MongoEntryRepository) EnsureIndexes(ctx context.Context) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()
	if r.indexed {
		return nil
	}

	indexCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := r.createIndexes(indexCtx); err != nil {
		return err
	}
	r.indexed = true
	return nil
}

func (r *MongoEntryRepository) Save(ctx context.Context, entry *domain.JournalEntry) error {
	if err := r.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	rec, err := sealEntry(r.cipher, entry)
	if err != nil {
		return err
	}

	doc := toDocument(rec)
	_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

func (r *MongoEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	var doc entryDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.open(doc)
}

func (r *MongoEntryRepository) FindByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]*domain.JournalEntry, error) {
	filter := mongoUserFilter(userID, opts.Mood)

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []*domain.JournalEntry{}
	for cursor.Next(ctx) {
		var doc entryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entry, err := r.open(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, cursor.Err()
}

func (r *MongoEntryRepository) RecentEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error) {
	entries, err := r.FindByUser(ctx, userID, domain.ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	return reverse(entries), nil
}

func (r *MongoEntryRepository) CountByUser(ctx context.Context, userID uuid.UUID, mood *moodDomain.Mood) (int, error) {
	count, err := r.coll.CountDocuments(ctx, mongoUserFilter(userID, mood))
	return int(count), err
}

func mongoUserFilter(userID uuid.UUID, mood *moodDomain.Mood) bson.M {
	filter := bson.M{"user_id": userID.String()}
	if mood != nil {
		m := string(*mood)
		filter["$or"] = bson.A{
			bson.M{"manual_mood": m},
			bson.M{"manual_mood": bson.M{"$exists": false}, "detected_mood": m},
		}
	}
	return filter
}

func (r *MongoEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *MongoEntryRepository) open(doc entryDocument) (*domain.JournalEntry, error) {
	rec, err := doc.record()
	if err != nil {
		return nil, err
	}
	return rec.open(r.cipher)
}
