package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

// PayoutWorker settles pending distribution payouts through the payment
// provider.  Each payout is an independent transfer keyed by
// (distribution_id, holder_id); that key doubles as the provider
// idempotency key, so a retried row can never pay a holder twice.  One
// failing holder never blocks the others.
type PayoutWorker struct {
	Repo        *repository.PayoutRepo
	Payments    usecase.PaymentService
	Interval    time.Duration
	BatchSize   int
	MaxAttempts uint32
}

// NewPayoutWorker returns a worker with sane defaults.
func NewPayoutWorker(repo *repository.PayoutRepo, payments usecase.PaymentService) *PayoutWorker {
	return &PayoutWorker{Repo: repo, Payments: payments, Interval: 5 * time.Second, BatchSize: 100, MaxAttempts: 5}
}

// Run blocks until ctx is cancelled.
func (w *PayoutWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *PayoutWorker) pass(ctx context.Context) {
	pending, err := w.Repo.ListPending(ctx, w.BatchSize, w.MaxAttempts)
	if err != nil {
		log.Printf("payout-worker: list failed: %v", err)
		return
	}
	for _, p := range pending {
		reference := fmt.Sprintf("%s:%d", p.DistributionID, p.HolderID)
		payRef, err := w.Payments.Payout(ctx, p.HolderID, p.AmountCents, reference)
		if err != nil {
			log.Printf("payout-worker: payout %s failed (attempt %d): %v", reference, p.Attempts+1, err)
			if err := w.Repo.MarkFailed(ctx, p.DistributionID, p.HolderID); err != nil {
				log.Printf("payout-worker: mark %s failed errored: %v", reference, err)
			}
			continue
		}
		if err := w.Repo.MarkPaid(ctx, p.DistributionID, p.HolderID, payRef); err != nil {
			// Money moved but the row still reads pending; the retry
			// is safe thanks to the idempotency key, but log loudly.
			log.Printf("payout-worker: ALERT paid %s (ref %s) but could not record it: %v", reference, payRef, err)
			continue
		}
		log.Printf("payout-worker: paid %d cents to holder %d for song %d period %s", p.AmountCents, p.HolderID, p.SongID, p.Period)
	}
}
