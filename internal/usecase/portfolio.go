package usecase

import (
	"context"
	"errors"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
)

// Portfolio assembles a fan's view across every song they hold: the
// position itself, what it is worth at the current price and what it
// has earned so far.
type Portfolio struct {
	Repo ledger.Repository
}

// NewPortfolio wires the read model.
func NewPortfolio(repo ledger.Repository) *Portfolio {
	return &Portfolio{Repo: repo}
}

// PortfolioEntry is one held song.
type PortfolioEntry struct {
	SongID        uint64  `json:"song_id"`
	Title         string  `json:"title"`
	SharesOwned   uint64  `json:"shares_owned"`
	Percentage    float64 `json:"percentage"`
	CostBasis     float64 `json:"cost_basis"`
	CurrentValue  float64 `json:"current_value"`
	RevenueToDate float64 `json:"revenue_to_date"`
}

// RevenueForSong reports what one song has paid the user to date.
// A user with no payouts yet earns zero rather than an error.
func (uc *Portfolio) RevenueForSong(ctx context.Context, userID, songID uint64) (float64, error) {
	if _, err := uc.Repo.LoadAggregate(ctx, songID); err != nil {
		return 0, err
	}
	rev, ok, err := uc.Repo.GetUserRevenueForSong(ctx, userID, songID)
	if err != nil || !ok {
		return 0, err
	}
	return rev.Value(), nil
}

// Get returns the user's entries.  A song that vanished between the
// ownership read and the song read is skipped rather than failing the
// whole portfolio.
func (uc *Portfolio) Get(ctx context.Context, userID uint64) ([]PortfolioEntry, error) {
	holdings, err := uc.Repo.GetUserOwnerships(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PortfolioEntry, 0, len(holdings))
	for _, h := range holdings {
		agg, err := uc.Repo.LoadAggregate(ctx, h.SongID)
		if errors.Is(err, ledger.ErrSongNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entry := PortfolioEntry{
			SongID:       h.SongID,
			Title:        agg.Song.Title,
			SharesOwned:  h.SharesOwned,
			Percentage:   h.Percentage,
			CostBasis:    h.PurchasePrice,
			CurrentValue: agg.Song.CurrentPricePerShare * float64(h.SharesOwned),
		}
		if rev, ok, err := uc.Repo.GetUserRevenueForSong(ctx, userID, h.SongID); err != nil {
			return nil, err
		} else if ok {
			entry.RevenueToDate = rev.Value()
		}
		out = append(out, entry)
	}
	return out, nil
}
