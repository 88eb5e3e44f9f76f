package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

func newTransfer(store ledger.Repository) *usecase.TransferShares {
	return &usecase.TransferShares{Repo: store, Now: func() time.Time { return testTime }}
}

func TestTransferShares(t *testing.T) {
	store := newStoreWithSong(t)
	buyConfirmed(t, store, fanA, 100)

	txn, err := newTransfer(store).Execute(context.Background(), usecase.TransferInput{
		FromUserID: fanA, SongID: songID, ToUserID: fanB, Percentage: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, model.TransactionTypeTransfer, txn.Type)
	assert.Equal(t, model.TransactionStatusConfirmed, txn.Status)
	assert.Equal(t, uint64(50), txn.SharesQuantity)
	// Priced at the song's current price.
	assert.Equal(t, 10.00, txn.PricePerShare)

	agg, err := store.LoadAggregate(context.Background(), songID)
	require.NoError(t, err)
	sender, ok := agg.Holding(fanA)
	require.True(t, ok)
	assert.Equal(t, uint64(50), sender.SharesOwned)
	recipient, ok := agg.Holding(fanB)
	require.True(t, ok)
	assert.Equal(t, uint64(50), recipient.SharesOwned)
	assert.Equal(t, 5.0, recipient.Percentage)

	last := store.Outbox(songID)
	assert.Equal(t, "share.transferred", last[len(last)-1].EventType)
}

func TestTransferSharesAtAgreedPrice(t *testing.T) {
	store := newStoreWithSong(t)
	buyConfirmed(t, store, fanA, 100)

	txn, err := newTransfer(store).Execute(context.Background(), usecase.TransferInput{
		FromUserID: fanA, SongID: songID, ToUserID: fanB, Percentage: 5, TransferPrice: 12.50,
	})
	require.NoError(t, err)

	// The ledger entry records what the parties agreed, not the
	// song's current price.
	assert.Equal(t, 12.50, txn.PricePerShare)
	assert.Equal(t, uint64(50), txn.SharesQuantity)

	agg, err := store.LoadAggregate(context.Background(), songID)
	require.NoError(t, err)
	recipient, ok := agg.Holding(fanB)
	require.True(t, ok)
	assert.Equal(t, 625.0, recipient.PurchasePrice)
	// The sender's basis still leaves proportionally to the shares.
	sender, ok := agg.Holding(fanA)
	require.True(t, ok)
	assert.Equal(t, 500.0, sender.PurchasePrice)

	_, err = newTransfer(store).Execute(context.Background(), usecase.TransferInput{
		FromUserID: fanA, SongID: songID, ToUserID: fanB, Percentage: 1, TransferPrice: -3,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidSharePrice)
}

func TestTransferSharesValidation(t *testing.T) {
	store := newStoreWithSong(t)
	buyConfirmed(t, store, fanA, 100)
	uc := newTransfer(store)

	_, err := uc.Execute(context.Background(), usecase.TransferInput{
		FromUserID: fanA, SongID: songID, ToUserID: fanB, Percentage: 0,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidOwnershipPercentage)

	_, err = uc.Execute(context.Background(), usecase.TransferInput{
		FromUserID: fanA, SongID: songID, ToUserID: fanA, Percentage: 5,
	})
	assert.ErrorIs(t, err, ledger.ErrSelfTransfer)

	// fanA holds 10% of the song; 20% exceeds the position.
	_, err = uc.Execute(context.Background(), usecase.TransferInput{
		FromUserID: fanA, SongID: songID, ToUserID: fanB, Percentage: 20,
	})
	assert.ErrorIs(t, err, ledger.ErrOwnershipExceedsLimit)
}

func TestTransferSharesRemovesEmptiedPosition(t *testing.T) {
	store := newStoreWithSong(t)
	buyConfirmed(t, store, fanA, 100)

	_, err := newTransfer(store).Execute(context.Background(), usecase.TransferInput{
		FromUserID: fanA, SongID: songID, ToUserID: fanB, Percentage: 10,
	})
	require.NoError(t, err)

	holdings, err := store.GetUserOwnerships(context.Background(), fanA)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	holdings, err = store.GetUserOwnerships(context.Background(), fanB)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, uint64(100), holdings[0].SharesOwned)
}
