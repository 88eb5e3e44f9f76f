package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

func newDistribute(store ledger.Repository) *usecase.DistributeRevenue {
	return &usecase.DistributeRevenue{Repo: store, Now: func() time.Time { return testTime }}
}

func TestDistributeRevenue(t *testing.T) {
	store := newStoreWithSong(t)
	buyConfirmed(t, store, fanA, 100)

	dist, err := newDistribute(store).Execute(context.Background(), usecase.DistributeInput{
		ArtistID: artistID, SongID: songID, Amount: 1000.00, Period: "2026-07",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100000), dist.TotalRevenueCents)
	require.Len(t, dist.Payouts, 2)
	// The artist absorbs the reserved block plus the unsold pool.
	assert.Equal(t, artistID, dist.Payouts[0].HolderID)
	assert.Equal(t, int64(90000), dist.Payouts[0].AmountCents)
	assert.Equal(t, fanA, dist.Payouts[1].HolderID)
	assert.Equal(t, int64(10000), dist.Payouts[1].AmountCents)
	for _, p := range dist.Payouts {
		assert.Equal(t, model.PayoutStatusPending, p.Status)
	}

	// Settled revenue is visible on the fan's position.
	rev, ok, err := store.GetUserRevenueForSong(context.Background(), fanA, songID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 100.00, rev.Value())

	outbox := store.Outbox(songID)
	assert.Equal(t, "revenue.distributed", outbox[len(outbox)-1].EventType)
}

func TestDistributeRevenueOnlyArtist(t *testing.T) {
	store := newStoreWithSong(t)

	_, err := newDistribute(store).Execute(context.Background(), usecase.DistributeInput{
		ArtistID: fanA, SongID: songID, Amount: 100.00, Period: "2026-07",
	})
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestDistributeRevenuePeriodIdempotence(t *testing.T) {
	store := newStoreWithSong(t)
	uc := newDistribute(store)

	in := usecase.DistributeInput{ArtistID: artistID, SongID: songID, Amount: 100.00, Period: "2026-07"}
	_, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)

	var distErr *ledger.RevenueDistributionError
	_, err = uc.Execute(context.Background(), in)
	require.ErrorAs(t, err, &distErr)
	assert.Equal(t, "2026-07", distErr.Period)

	// A different period goes through.
	in.Period = "2026-08"
	_, err = uc.Execute(context.Background(), in)
	assert.NoError(t, err)
}

func TestDistributeRevenueRejectsBadAmount(t *testing.T) {
	store := newStoreWithSong(t)
	uc := newDistribute(store)

	_, err := uc.Execute(context.Background(), usecase.DistributeInput{
		ArtistID: artistID, SongID: songID, Amount: -1, Period: "2026-07",
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidRevenueAmount)

	var distErr *ledger.RevenueDistributionError
	_, err = uc.Execute(context.Background(), usecase.DistributeInput{
		ArtistID: artistID, SongID: songID, Amount: 0, Period: "2026-07",
	})
	assert.ErrorAs(t, err, &distErr)
}
