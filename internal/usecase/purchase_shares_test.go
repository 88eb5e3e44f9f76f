package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

func TestPurchaseAutoConfirm(t *testing.T) {
	store := newStoreWithSong(t)

	payments := new(mockPayments)
	// 100 shares at $10.00 is exactly 100000 cents.
	payments.On("Charge", fanA, int64(100000), mock.AnythingOfType("string")).Return("pay_123", nil)

	res, err := newPurchase(store, payments).Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 100, AutoConfirm: true,
	})
	require.NoError(t, err)
	payments.AssertExpectations(t)

	assert.Equal(t, model.TransactionStatusConfirmed, res.Transaction.Status)
	require.NotNil(t, res.Transaction.PaymentRef)
	assert.Equal(t, "pay_123", *res.Transaction.PaymentRef)
	require.NotNil(t, res.Ownership)
	assert.Equal(t, uint64(100), res.Ownership.SharesOwned)
	assert.Equal(t, 10.0, res.Ownership.Percentage)
	assert.Equal(t, uint64(700), res.Song.AvailableShares)

	// The sale and its events are durable.
	confirmed := findTxn(t, store, model.TransactionStatusConfirmed)
	require.NotNil(t, confirmed)
	assert.Equal(t, uint64(100), confirmed.SharesQuantity)

	var types []string
	for _, ev := range store.Outbox(songID) {
		types = append(types, ev.EventType)
	}
	assert.Contains(t, types, "song.tokenized")
	assert.Contains(t, types, "share.purchased")
}

func TestPurchaseDeclinedChargeCompensates(t *testing.T) {
	store := newStoreWithSong(t)

	payments := new(mockPayments)
	payments.On("Charge", fanA, int64(100000), mock.AnythingOfType("string")).Return("", ledger.ErrInsufficientFunds)

	_, err := newPurchase(store, payments).Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 100, AutoConfirm: true,
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	payments.AssertExpectations(t)

	// Compensation put the shares back and left a CANCELLED entry.
	agg, err := store.LoadAggregate(context.Background(), songID)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), agg.Song.AvailableShares)
	assert.Empty(t, agg.OpenTransactions())

	cancelled := findTxn(t, store, model.TransactionStatusCancelled)
	require.NotNil(t, cancelled)
	assert.Equal(t, uint64(100), cancelled.SharesQuantity)

	// No ownership was credited and nothing about the sale was
	// announced.
	_, ok := agg.Holding(fanA)
	assert.False(t, ok)
	for _, ev := range store.Outbox(songID) {
		assert.NotEqual(t, "share.purchased", ev.EventType)
	}
}

func TestPurchaseReserveThenConfirm(t *testing.T) {
	store := newStoreWithSong(t)
	payments := new(mockPayments)
	uc := newPurchase(store, payments)

	res, err := uc.Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 50, AutoConfirm: false,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusReserved, res.Transaction.Status)
	assert.Nil(t, res.Ownership)
	assert.Equal(t, uint64(750), res.Song.AvailableShares)

	// The card is only touched on settlement.
	payments.AssertNotCalled(t, "Charge")

	payments.On("Charge", fanA, int64(50000), res.Transaction.ID).Return("pay_456", nil)
	settled, err := uc.Confirm(context.Background(), fanA, songID, res.Transaction.ID)
	require.NoError(t, err)
	payments.AssertExpectations(t)

	assert.Equal(t, model.TransactionStatusConfirmed, settled.Transaction.Status)
	require.NotNil(t, settled.Ownership)
	assert.Equal(t, uint64(50), settled.Ownership.SharesOwned)
}

func TestConfirmGuards(t *testing.T) {
	store := newStoreWithSong(t)
	payments := new(mockPayments)
	uc := newPurchase(store, payments)

	res, err := uc.Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 50, AutoConfirm: false,
	})
	require.NoError(t, err)

	// Another fan cannot settle someone else's reservation.
	_, err = uc.Confirm(context.Background(), fanB, songID, res.Transaction.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = uc.Confirm(context.Background(), fanA, songID, "no-such-txn")
	assert.ErrorIs(t, err, ledger.ErrUnknownTransaction)

	payments.AssertNotCalled(t, "Charge")
}

func TestCancelReservation(t *testing.T) {
	store := newStoreWithSong(t)
	uc := newPurchase(store, new(mockPayments))

	res, err := uc.Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 50, AutoConfirm: false,
	})
	require.NoError(t, err)

	// Only the reservation's owner may abandon it.
	_, err = uc.Cancel(context.Background(), fanB, songID, res.Transaction.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	cancelled, err := uc.Cancel(context.Background(), fanA, songID, res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCancelled, cancelled.Status)

	agg, err := store.LoadAggregate(context.Background(), songID)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), agg.Song.AvailableShares)
}

func TestPurchaseDomainErrorsPassThrough(t *testing.T) {
	store := newStoreWithSong(t)
	uc := newPurchase(store, new(mockPayments))

	_, err := uc.Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: 999, Quantity: 10, AutoConfirm: true,
	})
	assert.ErrorIs(t, err, ledger.ErrSongNotFound)

	_, err = uc.Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: artistID, SongID: songID, Quantity: 10, AutoConfirm: true,
	})
	assert.ErrorIs(t, err, ledger.ErrCannotPurchaseOwnSong)

	var insufficient *ledger.InsufficientSharesError
	_, err = uc.Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 801, AutoConfirm: true,
	})
	assert.ErrorAs(t, err, &insufficient)
}

// conflictingStore wraps the memory store and fails the first saves
// with a stale version, the way a concurrent writer would.
type conflictingStore struct {
	*repository.MemoryOwnershipStore
	conflicts int
}

func (s *conflictingStore) SaveAggregate(ctx context.Context, agg *ledger.Aggregate) error {
	if s.conflicts > 0 {
		s.conflicts--
		return ledger.ErrVersionConflict
	}
	return s.MemoryOwnershipStore.SaveAggregate(ctx, agg)
}

func TestPurchaseRetriesVersionConflict(t *testing.T) {
	store := newStoreWithSong(t)
	flaky := &conflictingStore{MemoryOwnershipStore: store, conflicts: 2}

	res, err := newPurchase(flaky, new(mockPayments)).Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 10, AutoConfirm: false,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusReserved, res.Transaction.Status)

	agg, err := store.LoadAggregate(context.Background(), songID)
	require.NoError(t, err)
	assert.Equal(t, uint64(790), agg.Song.AvailableShares)
}

func TestPurchaseGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newStoreWithSong(t)
	flaky := &conflictingStore{MemoryOwnershipStore: store, conflicts: 10}

	_, err := newPurchase(flaky, new(mockPayments)).Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: fanA, SongID: songID, Quantity: 10, AutoConfirm: false,
	})
	assert.True(t, errors.Is(err, ledger.ErrVersionConflict))
}
