package worker

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

// MintWorker retries the on-chain ownership proofs queued by confirmed
// purchases.  Minting is strictly after the fact: the sale is already
// durable, and a mint that keeps failing just leaves the job FAILED for
// an operator without ever touching the ledger.
type MintWorker struct {
	Repo        *repository.MintJobRepo
	Chain       usecase.BlockchainService
	Interval    time.Duration
	BatchSize   int
	MaxAttempts uint32
}

// NewMintWorker returns a worker with sane defaults.
func NewMintWorker(repo *repository.MintJobRepo, chain usecase.BlockchainService) *MintWorker {
	return &MintWorker{Repo: repo, Chain: chain, Interval: 10 * time.Second, BatchSize: 50, MaxAttempts: 10}
}

// Run blocks until ctx is cancelled.
func (w *MintWorker) Run(ctx context.Context) {
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

func (w *MintWorker) pass(ctx context.Context) {
	jobs, err := w.Repo.ListPending(ctx, w.BatchSize, w.MaxAttempts)
	if err != nil {
		log.Printf("mint-worker: list failed: %v", err)
		return
	}
	for _, j := range jobs {
		tokenID, err := w.Chain.MintOwnershipProof(ctx, j.SongID, j.UserID, j.Percentage)
		if err != nil {
			log.Printf("mint-worker: mint job %s failed (attempt %d): %v", j.ID, j.Attempts+1, err)
			if err := w.Repo.MarkFailed(ctx, j.ID); err != nil {
				log.Printf("mint-worker: mark %s failed errored: %v", j.ID, err)
			}
			continue
		}
		if err := w.Repo.MarkDone(ctx, j.ID, tokenID); err != nil {
			log.Printf("mint-worker: ALERT minted %s for job %s but could not record it: %v", tokenID, j.ID, err)
			continue
		}
		log.Printf("mint-worker: minted proof %s for song %d user %d", tokenID, j.SongID, j.UserID)
	}
}
