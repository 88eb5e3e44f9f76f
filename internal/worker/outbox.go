// Package worker contains the background loops that run next to the
// HTTP server: draining the outbox to the broker, paying out settled
// distributions and retrying ownership-proof mints.  Every loop is
// ticker driven, stops on context cancellation and logs with its own
// prefix.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/repository"
)

// Publisher is the slice of the broker publisher the drainer needs.
type Publisher interface {
	Publish(ctx context.Context, eventType string, body []byte) error
}

// OutboxDrainer moves committed outbox rows to the broker.  Delivery is
// at-least-once: a crash between publish and the stamp republishes the
// event on the next pass.
type OutboxDrainer struct {
	Repo      *repository.OutboxRepo
	Publisher Publisher
	Interval  time.Duration
	BatchSize int
}

// NewOutboxDrainer returns a drainer with sane defaults.
func NewOutboxDrainer(repo *repository.OutboxRepo, pub Publisher) *OutboxDrainer {
	return &OutboxDrainer{Repo: repo, Publisher: pub, Interval: time.Second, BatchSize: 100}
}

// Run blocks until ctx is cancelled.
func (w *OutboxDrainer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxDrainer) drain(ctx context.Context) {
	events, err := w.Repo.ListUnpublished(ctx, w.BatchSize)
	if err != nil {
		log.Printf("outbox-drainer: list failed: %v", err)
		return
	}
	for _, ev := range events {
		if err := w.Publisher.Publish(ctx, ev.EventType, ev.Payload); err != nil {
			// Leave the row unpublished; the next pass retries it.
			log.Printf("outbox-drainer: publish %s (%s) failed: %v", ev.ID, ev.EventType, err)
			continue
		}
		if err := w.Repo.MarkPublished(ctx, ev.ID); err != nil {
			log.Printf("outbox-drainer: mark %s published failed: %v", ev.ID, err)
		}
	}
}
