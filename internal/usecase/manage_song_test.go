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

func newManageSong(store ledger.Repository) *usecase.ManageSong {
	return &usecase.ManageSong{Repo: store, Now: func() time.Time { return testTime }}
}

func TestManageSongLifecycle(t *testing.T) {
	store := repository.NewMemoryOwnershipStore(testPolicy())
	_, err := newCreateSong(store).Execute(context.Background(), usecase.CreateSongInput{
		ArtistID: artistID, Title: "Midnight Drive", TotalShares: 1000, InitialPrice: 10,
	})
	require.NoError(t, err)
	uc := newManageSong(store)

	song, err := uc.Activate(context.Background(), artistID, songID)
	require.NoError(t, err)
	assert.Equal(t, model.SongStatusActive, song.Status)

	song, err = uc.Terminate(context.Background(), artistID, songID)
	require.NoError(t, err)
	assert.Equal(t, model.SongStatusTerminated, song.Status)
}

func TestManageSongRequiresOwningArtist(t *testing.T) {
	store := newStoreWithSong(t)
	uc := newManageSong(store)

	_, err := uc.Terminate(context.Background(), fanA, songID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = uc.SetTrading(context.Background(), fanA, songID, false)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestTradingHaltBlocksPurchases(t *testing.T) {
	store := newStoreWithSong(t)
	uc := newManageSong(store)

	song, err := uc.SetTrading(context.Background(), artistID, songID, false)
	require.NoError(t, err)
	assert.True(t, song.TradingDisabled)

	_, err = newPurchase(store, new(mockPayments)).Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 10, AutoConfirm: true,
	})
	assert.ErrorIs(t, err, ledger.ErrTradingDisabled)

	song, err = uc.SetTrading(context.Background(), artistID, songID, true)
	require.NoError(t, err)
	assert.False(t, song.TradingDisabled)

	_, err = newPurchase(store, newChargeOK(fanA)).Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 10, AutoConfirm: true,
	})
	assert.NoError(t, err)
}
