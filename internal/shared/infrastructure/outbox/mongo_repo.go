package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections used by MongoRepository.
const (
	MongoOutboxCollection   = "outbox"
	MongoCountersCollection = "counters"
	outboxSequence          = "outbox"
)

type mongoMessage struct {
	ID               int64      `bson:"_id"`
	EventID          string     `bson:"event_id"`
	AggregateType    string     `bson:"aggregate_type"`
	AggregateID      string     `bson:"aggregate_id"`
	RoutingKey       string     `bson:"routing_key"`
	Payload          string     `bson:"payload"`
	CreatedAt        time.Time  `bson:"created_at"`
	PublishedAt      *time.Time `bson:"published_at"`
	NextRetryAt      *time.Time `bson:"next_retry_at"`
	RetryCount       int        `bson:"retry_count"`
	LastError        *string    `bson:"last_error"`
	DeadLetteredAt   *time.Time `bson:"dead_lettered_at"`
	DeadLetterReason *string    `bson:"dead_letter_reason"`
}

// MongoRepository implements Repository on MongoDB. Message ids come from a
// sequence document so ordering matches the SQL stores. Without
// multi-document transactions the batch is written after the entry.
type MongoRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// NewMongoRepository creates a new MongoDB outbox repository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		coll:     db.Collection(MongoOutboxCollection),
		counters: db.Collection(MongoCountersCollection),
		now:      time.Now,
	}
}

// reserveIDs allocates n consecutive ids and returns the first.
func (r *MongoRepository) reserveIDs(ctx context.Context, n int) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": outboxSequence},
		bson.M{"$inc": bson.M{"seq": int64(n)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("reserve outbox ids: %w", err)
	}
	return counter.Seq - int64(n) + 1, nil
}

func (r *MongoRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	first, err := r.reserveIDs(ctx, len(msgs))
	if err != nil {
		return err
	}

	docs := make([]any, 0, len(msgs))
	for i, msg := range msgs {
		msg.ID = first + int64(i)
		docs = append(docs, mongoMessage{
			ID:            msg.ID,
			EventID:       msg.EventID.String(),
			AggregateType: msg.AggregateType,
			AggregateID:   msg.AggregateID.String(),
			RoutingKey:    msg.RoutingKey,
			Payload:       string(msg.Payload),
			CreatedAt:     msg.CreatedAt.UTC(),
		})
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert outbox messages: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	filter := bson.M{
		"published_at":     nil,
		"dead_lettered_at": nil,
		"$or": bson.A{
			bson.M{"next_retry_at": nil},
			bson.M{"next_retry_at": bson.M{"$lte": r.now().UTC()}},
		},
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*Message
	for cursor.Next(ctx) {
		var doc mongoMessage
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		msg, err := doc.message()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, cursor.Err()
}

func (r *MongoRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"published_at": r.now().UTC(), "next_retry_at": nil},
	})
	return err
}

func (r *MongoRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"last_error": errMsg, "next_retry_at": nextRetryAt.UTC()},
		"$inc": bson.M{"retry_count": 1},
	})
	return err
}

func (r *MongoRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"dead_lettered_at":   r.now().UTC(),
			"dead_letter_reason": reason,
			"last_error":         reason,
		},
		"$inc": bson.M{"retry_count": 1},
	})
	return err
}

func (r *MongoRepository) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{
		"published_at": bson.M{"$ne": nil, "$lt": publishedBefore.UTC()},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (d mongoMessage) message() (*Message, error) {
	eventID, err := uuid.Parse(d.EventID)
	if err != nil {
		return nil, fmt.Errorf("outbox %d event_id: %w", d.ID, err)
	}
	aggregateID, err := uuid.Parse(d.AggregateID)
	if err != nil {
		return nil, fmt.Errorf("outbox %d aggregate_id: %w", d.ID, err)
	}
	return &Message{
		ID:               d.ID,
		EventID:          eventID,
		AggregateType:    d.AggregateType,
		AggregateID:      aggregateID,
		RoutingKey:       d.RoutingKey,
		Payload:          json.RawMessage(d.Payload),
		CreatedAt:        d.CreatedAt,
		PublishedAt:      d.PublishedAt,
		NextRetryAt:      d.NextRetryAt,
		RetryCount:       d.RetryCount,
		LastError:        d.LastError,
		DeadLetteredAt:   d.DeadLetteredAt,
		DeadLetterReason: d.DeadLetterReason,
	}, nil
}
