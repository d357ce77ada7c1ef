// Package outbox implements the transactional outbox (C3): entries are
// enqueued when a mission-completed publish fails, and a periodically
// scheduled sweeper retries them with a fixed backoff until they succeed
// or exhaust their retry budget.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/bus"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/store"
)

// Enqueue records a failed publish so the sweeper retries it later. It is
// called from the completion-event publish path, never from the sweeper
// itself.
func Enqueue(ctx context.Context, s store.OutboxStore, eventID string, topic bus.Topic, payload []byte, maxRetries int, backoff time.Duration, publishErr error) error {
	entry := domain.OutboxEntry{
		EventID:      eventID,
		Topic:        string(topic),
		Payload:      payload,
		MaxRetries:   maxRetries,
		NextRetryAt:  time.Now().Add(backoff),
		ErrorMessage: publishErr.Error(),
	}
	return s.EnqueueOutbox(ctx, entry)
}

// Sweeper periodically scans for due entries and retries their publish.
type Sweeper struct {
	store     store.OutboxStore
	publisher bus.Publisher
	backoff   time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewSweeper constructs a Sweeper. batchSize bounds how many entries are
// retried per sweep, to keep one sweep from monopolizing the bus.
func NewSweeper(s store.OutboxStore, publisher bus.Publisher, backoff time.Duration, batchSize int, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: s, publisher: publisher, backoff: backoff, batchSize: batchSize, logger: logger}
}

// Sweep runs one pass: fetch due entries, attempt to republish each, delete
// on success, bump retry/backoff on failure, and mark FAILED once the
// retry budget is exhausted.
func (sw *Sweeper) Sweep(ctx context.Context) error {
	due, err := sw.store.DueOutboxEntries(ctx, time.Now(), sw.batchSize)
	if err != nil {
		return err
	}

	for _, entry := range due {
		publishErr := sw.publisher.PublishSync(ctx, bus.Topic(entry.Topic), entry.EventID, entry.EventID, entry.Payload)
		if publishErr == nil {
			if err := sw.store.DeleteOutboxEntry(ctx, entry.ID); err != nil {
				sw.logger.Error("failed to delete resolved outbox entry", "event_id", entry.EventID, "error", err)
			}
			continue
		}

		if !isRetryable(publishErr) {
			sw.logger.Error("outbox entry failed with a non-retryable error", "event_id", entry.EventID, "error", publishErr)
			if err := sw.store.FailOutboxEntry(ctx, entry.ID, publishErr.Error()); err != nil {
				sw.logger.Error("failed to mark outbox entry failed", "event_id", entry.EventID, "error", err)
			}
			continue
		}

		if err := sw.store.MarkOutboxRetry(ctx, entry.ID, time.Now().Add(sw.backoff), publishErr.Error()); err != nil {
			sw.logger.Error("failed to record outbox retry", "event_id", entry.EventID, "error", err)
			continue
		}

		if entry.RetryCount+1 >= entry.MaxRetries {
			sw.logger.Error("outbox entry exhausted retries", "event_id", entry.EventID, "error", dberr.OutboxExhausted(entry.EventID))
		} else {
			sw.logger.Warn("outbox retry failed, rescheduled", "event_id", entry.EventID, "retry_count", entry.RetryCount+1)
		}
	}

	return nil
}
