package usecase

import (
	"context"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
)

// DistributeRevenue settles one reporting period: the reported amount
// is split across the holders of record pro rata, in integer cents,
// conserving the total exactly.  The payout rows it creates are picked
// up by the payout worker.
type DistributeRevenue struct {
	Repo ledger.Repository
	Now  func() time.Time
}

// NewDistributeRevenue wires the use case with production defaults.
func NewDistributeRevenue(repo ledger.Repository) *DistributeRevenue {
	return &DistributeRevenue{Repo: repo, Now: time.Now}
}

// DistributeInput carries one revenue report.
type DistributeInput struct {
	ArtistID uint64
	SongID   uint64
	Amount   float64
	Period   string // e.g. "2026-07"
}

// Execute records the distribution.  Only the song's artist may report
// revenue; a period can be settled once.
func (uc *DistributeRevenue) Execute(ctx context.Context, in DistributeInput) (*model.RevenueDistribution, error) {
	total, err := ledger.NewRevenueAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	var dist *model.RevenueDistribution
	_, err = mutate(ctx, uc.Repo, in.SongID, func(a *ledger.Aggregate) error {
		if a.Song.ArtistID != in.ArtistID {
			return repository.ErrForbidden
		}
		d, err := a.DistributeRevenue(total, in.Period, uc.Now().UTC())
		if err != nil {
			return err
		}
		dist = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}
