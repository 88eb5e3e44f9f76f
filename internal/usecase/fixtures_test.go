package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

var testTime = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

const (
	songID   = uint64(7)
	artistID = uint64(1)
	fanA     = uint64(2)
	fanB     = uint64(3)
)

// mockPayments is a testify mock of the payment provider port.
type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) Charge(ctx context.Context, userID uint64, amountCents int64, reference string) (string, error) {
	args := m.Called(userID, amountCents, reference)
	return args.String(0), args.Error(1)
}

func (m *mockPayments) Payout(ctx context.Context, userID uint64, amountCents int64, reference string) (string, error) {
	args := m.Called(userID, amountCents, reference)
	return args.String(0), args.Error(1)
}

// testPolicy freezes the price so cost assertions stay exact.
func testPolicy() ledger.Policy {
	return ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0}
}

// newStoreWithSong seeds a memory store with the standard test song:
// 1000 shares at $10.00, 20% reserved, active.
func newStoreWithSong(t *testing.T) *repository.MemoryOwnershipStore {
	t.Helper()
	store := repository.NewMemoryOwnershipStore(testPolicy())
	create := &usecase.CreateSong{
		Repo:   store,
		Policy: testPolicy(),
		NewID:  func() uint64 { return songID },
		Now:    func() time.Time { return testTime },
	}
	song, err := create.Execute(context.Background(), usecase.CreateSongInput{
		ArtistID:           artistID,
		Title:              "Midnight Drive",
		TotalShares:        1000,
		InitialPrice:       10.00,
		ReservedPercentage: 20,
		Activate:           true,
	})
	require.NoError(t, err)
	require.Equal(t, songID, song.ID)
	return store
}

func newPurchase(store ledger.Repository, payments usecase.PaymentService) *usecase.PurchaseShares {
	return &usecase.PurchaseShares{Repo: store, Payments: payments, Now: func() time.Time { return testTime }}
}

// newChargeOK returns a payment mock that approves any charge for the
// buyer.
func newChargeOK(buyerID uint64) *mockPayments {
	payments := new(mockPayments)
	payments.On("Charge", buyerID, mock.AnythingOfType("int64"), mock.AnythingOfType("string")).Return("pay_ok", nil)
	return payments
}

// buyConfirmed runs one full purchase saga against the store.
func buyConfirmed(t *testing.T, store *repository.MemoryOwnershipStore, buyerID, qty uint64) *usecase.PurchaseResult {
	t.Helper()
	res, err := newPurchase(store, newChargeOK(buyerID)).Execute(context.Background(), usecase.PurchaseInput{
		BuyerID: buyerID, SongID: songID, Quantity: qty, AutoConfirm: true,
	})
	require.NoError(t, err)
	return res
}

// findTxn picks one ledger entry by status out of the store, for
// asserting on saga outcomes.
func findTxn(t *testing.T, store *repository.MemoryOwnershipStore, status string) *model.ShareTransaction {
	t.Helper()
	for _, txn := range store.Transactions(songID) {
		if txn.Status == status && txn.Type == model.TransactionTypePurchase {
			return &txn
		}
	}
	return nil
}
