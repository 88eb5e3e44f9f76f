package usecase

import (
	"context"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
)

// ManageSong covers the artist-only lifecycle switches: activation,
// termination and the trading halt.
type ManageSong struct {
	Repo ledger.Repository
	Now  func() time.Time
}

// NewManageSong wires the use case with production defaults.
func NewManageSong(repo ledger.Repository) *ManageSong {
	return &ManageSong{Repo: repo, Now: time.Now}
}

// Activate moves a draft song into active trading.
func (uc *ManageSong) Activate(ctx context.Context, artistID, songID uint64) (*model.FractionalSong, error) {
	return uc.asArtist(ctx, artistID, songID, func(agg *ledger.Aggregate, now time.Time) error {
		return agg.Activate(now)
	})
}

// Terminate retires the song.  Holdings survive for the record and
// already earned revenue still settles; only trading stops.
func (uc *ManageSong) Terminate(ctx context.Context, artistID, songID uint64) (*model.FractionalSong, error) {
	return uc.asArtist(ctx, artistID, songID, func(agg *ledger.Aggregate, now time.Time) error {
		return agg.Terminate(now)
	})
}

// SetTrading flips the trading halt without touching the lifecycle
// status.
func (uc *ManageSong) SetTrading(ctx context.Context, artistID, songID uint64, enabled bool) (*model.FractionalSong, error) {
	return uc.asArtist(ctx, artistID, songID, func(agg *ledger.Aggregate, now time.Time) error {
		if enabled {
			agg.EnableTrading(now)
		} else {
			agg.DisableTrading(now)
		}
		return nil
	})
}

func (uc *ManageSong) asArtist(ctx context.Context, artistID, songID uint64, fn func(*ledger.Aggregate, time.Time) error) (*model.FractionalSong, error) {
	agg, err := mutate(ctx, uc.Repo, songID, func(agg *ledger.Aggregate) error {
		if agg.Song.ArtistID != artistID {
			return repository.ErrForbidden
		}
		return fn(agg, uc.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return agg.Song, nil
}
