package usecase

import (
	"context"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
)

// CreateSong tokenizes a song: a fixed share supply, an opening price
// and the artist's reserved stake, all fixed for the song's lifetime.
type CreateSong struct {
	Repo   ledger.Repository
	Policy ledger.Policy
	NewID  func() uint64   // overridable for tests
	Now    func() time.Time
}

// NewCreateSong wires the use case with production defaults.
func NewCreateSong(repo ledger.Repository, policy ledger.Policy) *CreateSong {
	return &CreateSong{Repo: repo, Policy: policy, NewID: randomID, Now: time.Now}
}

// CreateSongInput carries the tokenization request.
type CreateSongInput struct {
	ArtistID           uint64
	Title              string
	TotalShares        uint64
	InitialPrice       float64
	ReservedPercentage float64
	// Activate opens the song for trading immediately instead of
	// leaving it in draft.
	Activate bool
}

// Execute validates the request, builds the aggregate and persists it.
func (uc *CreateSong) Execute(ctx context.Context, in CreateSongInput) (*model.FractionalSong, error) {
	price, err := ledger.NewSharePrice(in.InitialPrice)
	if err != nil {
		return nil, err
	}
	// A zero reservation is allowed; the artist keeps nothing back.
	var reserved ledger.OwnershipPercentage
	if in.ReservedPercentage != 0 {
		reserved, err = ledger.NewOwnershipPercentage(in.ReservedPercentage)
		if err != nil {
			return nil, err
		}
	}
	now := uc.Now().UTC()
	agg, err := ledger.NewAggregate(uc.NewID(), in.ArtistID, in.Title, in.TotalShares, price, reserved, uc.Policy, now)
	if err != nil {
		return nil, err
	}
	if in.Activate {
		if err := agg.Activate(now); err != nil {
			return nil, err
		}
	}
	if err := uc.Repo.SaveAggregate(ctx, agg); err != nil {
		return nil, err
	}
	return agg.Song, nil
}
