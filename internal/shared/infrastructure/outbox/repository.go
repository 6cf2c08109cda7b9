package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. SaveBatch joins the unit of work in
// ctx when there is one.
type Repository interface {
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns pending messages whose retry time has passed,
	// oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes messages published before the cutoff.
	DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error)
}
