package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
)

var testTime = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

const (
	artistID = uint64(1)
	fanA     = uint64(2)
	fanB     = uint64(3)
)

// newSongAggregate tokenizes the standard test song: 1000 shares at
// $10.00 with a 20% artist reservation, activated and ready to trade.
func newSongAggregate(t *testing.T, policy ledger.Policy) *ledger.Aggregate {
	t.Helper()
	price, err := ledger.NewSharePrice(10.00)
	require.NoError(t, err)
	reserved, err := ledger.NewOwnershipPercentage(20)
	require.NoError(t, err)
	agg, err := ledger.NewAggregate(7, artistID, "Midnight Drive", 1000, price, reserved, policy, testTime)
	require.NoError(t, err)
	require.NoError(t, agg.Activate(testTime))
	return agg
}

// buyShares runs the full purchase saga for qty shares.
func buyShares(t *testing.T, agg *ledger.Aggregate, buyerID, qty uint64) *model.ShareTransaction {
	t.Helper()
	txn, err := agg.ReserveShares(buyerID, qty, testTime)
	require.NoError(t, err)
	_, err = agg.MarkCharged(txn.ID, "pay_"+txn.ID[:8], testTime)
	require.NoError(t, err)
	confirmed, err := agg.ConfirmPurchase(txn.ID, testTime)
	require.NoError(t, err)
	return confirmed
}

func TestTokenizeSong(t *testing.T) {
	price, _ := ledger.NewSharePrice(10.00)
	reserved, _ := ledger.NewOwnershipPercentage(20)
	agg, err := ledger.NewAggregate(7, artistID, "Midnight Drive", 1000, price, reserved, ledger.DefaultPolicy(), testTime)
	require.NoError(t, err)

	assert.Equal(t, uint64(1000), agg.Song.TotalShares)
	assert.Equal(t, uint64(200), agg.Song.ArtistReservedShares)
	assert.Equal(t, uint64(800), agg.Song.AvailableShares)
	assert.Equal(t, 10.00, agg.Song.CurrentPricePerShare)
	assert.Equal(t, model.SongStatusDraft, agg.Song.Status)
	assert.NoError(t, agg.Invariant())

	// The reserved block is recorded as a confirmed SALE entry.
	txns := agg.DirtyTransactions()
	require.Len(t, txns, 1)
	assert.Equal(t, model.TransactionTypeSale, txns[0].Type)
	assert.Equal(t, model.TransactionStatusConfirmed, txns[0].Status)
	assert.Equal(t, uint64(200), txns[0].SharesQuantity)
	require.NotNil(t, txns[0].SellerID)
	assert.Equal(t, artistID, *txns[0].SellerID)

	events := agg.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "song.tokenized", events[0].EventName())
}

func TestTokenizeWithoutReservation(t *testing.T) {
	price, _ := ledger.NewSharePrice(5.00)
	agg, err := ledger.NewAggregate(7, artistID, "Open Offering", 500, price, ledger.OwnershipPercentage{}, ledger.DefaultPolicy(), testTime)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), agg.Song.ArtistReservedShares)
	assert.Equal(t, uint64(500), agg.Song.AvailableShares)
	assert.Empty(t, agg.DirtyTransactions())
	assert.NoError(t, agg.Invariant())
}

func TestTokenizeRejectsBadSupply(t *testing.T) {
	price, _ := ledger.NewSharePrice(10.00)

	_, err := ledger.NewAggregate(7, artistID, "Empty", 0, price, ledger.OwnershipPercentage{}, ledger.DefaultPolicy(), testTime)
	assert.ErrorIs(t, err, ledger.ErrInvalidTotalShares)

	// Reserving everything leaves nothing to sell.
	full, _ := ledger.NewOwnershipPercentage(100)
	_, err = ledger.NewAggregate(7, artistID, "Hoarded", 1000, price, full, ledger.DefaultPolicy(), testTime)
	assert.ErrorIs(t, err, ledger.ErrInvalidOwnershipPercentage)
}

func TestLifecycleTransitions(t *testing.T) {
	price, _ := ledger.NewSharePrice(10.00)
	agg, err := ledger.NewAggregate(7, artistID, "Midnight Drive", 1000, price, ledger.OwnershipPercentage{}, ledger.DefaultPolicy(), testTime)
	require.NoError(t, err)

	// Terminate requires ACTIVE.
	assert.ErrorIs(t, agg.Terminate(testTime), ledger.ErrSongNotAvailable)

	require.NoError(t, agg.Activate(testTime))
	assert.Equal(t, model.SongStatusActive, agg.Song.Status)

	// Activate is not repeatable.
	assert.ErrorIs(t, agg.Activate(testTime), ledger.ErrSongNotAvailable)

	require.NoError(t, agg.Terminate(testTime))
	assert.Equal(t, model.SongStatusTerminated, agg.Song.Status)
}

func TestReserveSharesGuards(t *testing.T) {
	agg := newSongAggregate(t, ledger.DefaultPolicy())

	_, err := agg.ReserveShares(artistID, 10, testTime)
	assert.ErrorIs(t, err, ledger.ErrCannotPurchaseOwnSong)

	_, err = agg.ReserveShares(fanA, 0, testTime)
	assert.ErrorIs(t, err, ledger.ErrInvalidShareQuantity)

	_, err = agg.ReserveShares(fanA, 801, testTime)
	var insufficient *ledger.InsufficientSharesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint64(801), insufficient.Requested)
	assert.Equal(t, uint64(800), insufficient.Available)

	// Nothing changed.
	assert.Equal(t, uint64(800), agg.Song.AvailableShares)
	assert.NoError(t, agg.Invariant())
}

func TestReserveSharesRejectedWhileNotTrading(t *testing.T) {
	price, _ := ledger.NewSharePrice(10.00)
	draft, err := ledger.NewAggregate(7, artistID, "Draft", 1000, price, ledger.OwnershipPercentage{}, ledger.DefaultPolicy(), testTime)
	require.NoError(t, err)
	_, err = draft.ReserveShares(fanA, 10, testTime)
	assert.ErrorIs(t, err, ledger.ErrSongNotAvailable)

	halted := newSongAggregate(t, ledger.DefaultPolicy())
	halted.DisableTrading(testTime)
	_, err = halted.ReserveShares(fanA, 10, testTime)
	assert.ErrorIs(t, err, ledger.ErrTradingDisabled)

	halted.EnableTrading(testTime)
	_, err = halted.ReserveShares(fanA, 10, testTime)
	assert.NoError(t, err)
}

func TestOwnershipCapCountsOpenReservations(t *testing.T) {
	// Cap is 25% of 1000 = 250 shares.
	agg := newSongAggregate(t, ledger.DefaultPolicy())

	_, err := agg.ReserveShares(fanA, 200, testTime)
	require.NoError(t, err)

	// 200 reserved + 100 more would be 30%.
	_, err = agg.ReserveShares(fanA, 100, testTime)
	assert.ErrorIs(t, err, ledger.ErrMaxSharesPerUserExceeded)

	// 50 more lands exactly on the cap.
	_, err = agg.ReserveShares(fanA, 50, testTime)
	assert.NoError(t, err)
	assert.NoError(t, agg.Invariant())
}

func TestOwnershipCapDisabled(t *testing.T) {
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 100, PriceSlope: 0})
	_, err := agg.ReserveShares(fanA, 800, testTime)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), agg.Song.AvailableShares)
}

func TestPurchaseSaga(t *testing.T) {
	agg := newSongAggregate(t, ledger.DefaultPolicy())

	txn, err := agg.ReserveShares(fanA, 100, testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusReserved, txn.Status)
	assert.Equal(t, 10.00, txn.PricePerShare)
	assert.Equal(t, uint64(700), agg.Song.AvailableShares)
	assert.NoError(t, agg.Invariant())

	// Nothing is owned until confirmation.
	_, owned := agg.Holding(fanA)
	assert.False(t, owned)

	charged, err := agg.MarkCharged(txn.ID, "pay_123", testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCharged, charged.Status)
	require.NotNil(t, charged.PaymentRef)
	assert.Equal(t, "pay_123", *charged.PaymentRef)

	confirmed, err := agg.ConfirmPurchase(txn.ID, testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusConfirmed, confirmed.Status)

	holding, ok := agg.Holding(fanA)
	require.True(t, ok)
	assert.Equal(t, uint64(100), holding.SharesOwned)
	assert.Equal(t, 10.0, holding.Percentage)
	assert.Equal(t, 1000.0, holding.PurchasePrice)
	assert.NoError(t, agg.Invariant())
	assert.Empty(t, agg.OpenTransactions())

	// Demand pricing: 100 of the 800-share pool moves the price by
	// slope * 100/800.
	assert.InDelta(t, 10.0625, agg.Song.CurrentPricePerShare, 1e-9)

	events := agg.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "share.purchased", events[1].EventName())
	purchased := events[1].(ledger.SharePurchased)
	assert.Equal(t, uint64(100), purchased.Shares)
	assert.Equal(t, 1000.0, purchased.TotalCost)
}

func TestCancelReservationRestoresPool(t *testing.T) {
	agg := newSongAggregate(t, ledger.DefaultPolicy())

	txn, err := agg.ReserveShares(fanA, 100, testTime)
	require.NoError(t, err)
	require.Equal(t, uint64(700), agg.Song.AvailableShares)

	cancelled, err := agg.CancelReservation(txn.ID, testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCancelled, cancelled.Status)
	assert.Equal(t, uint64(800), agg.Song.AvailableShares)
	assert.NoError(t, agg.Invariant())

	_, err = agg.CancelReservation(txn.ID, testTime)
	assert.ErrorIs(t, err, ledger.ErrUnknownTransaction)
}

func TestCancelAfterCharge(t *testing.T) {
	// A charge that cannot be confirmed must still be reversible.
	agg := newSongAggregate(t, ledger.DefaultPolicy())

	txn, err := agg.ReserveShares(fanA, 50, testTime)
	require.NoError(t, err)
	_, err = agg.MarkCharged(txn.ID, "pay_9", testTime)
	require.NoError(t, err)

	_, err = agg.CancelReservation(txn.ID, testTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), agg.Song.AvailableShares)
	assert.NoError(t, agg.Invariant())
}

func TestMarkChargedRequiresReservation(t *testing.T) {
	agg := newSongAggregate(t, ledger.DefaultPolicy())

	_, err := agg.MarkCharged("missing", "pay_1", testTime)
	assert.ErrorIs(t, err, ledger.ErrUnknownTransaction)

	txn, _ := agg.ReserveShares(fanA, 10, testTime)
	_, err = agg.MarkCharged(txn.ID, "pay_1", testTime)
	require.NoError(t, err)
	// Charging twice is rejected.
	_, err = agg.MarkCharged(txn.ID, "pay_2", testTime)
	assert.ErrorIs(t, err, ledger.ErrUnknownTransaction)
}

func TestTransferShares(t *testing.T) {
	// Slope 0 keeps the price at $10 so the cost math stays readable.
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0})
	buyShares(t, agg, fanA, 100)

	pct, _ := ledger.NewOwnershipPercentage(5) // 50 shares of 1000
	price, _ := ledger.NewSharePrice(12.00)
	txn, err := agg.TransferShares(fanA, fanB, pct, price, testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeTransfer, txn.Type)
	assert.Equal(t, model.TransactionStatusConfirmed, txn.Status)
	assert.Equal(t, uint64(50), txn.SharesQuantity)

	sender, ok := agg.Holding(fanA)
	require.True(t, ok)
	assert.Equal(t, uint64(50), sender.SharesOwned)
	assert.Equal(t, 5.0, sender.Percentage)
	// Half the shares take half the $1000 cost basis with them.
	assert.InDelta(t, 500.0, sender.PurchasePrice, 1e-9)

	recipient, ok := agg.Holding(fanB)
	require.True(t, ok)
	assert.Equal(t, uint64(50), recipient.SharesOwned)
	assert.InDelta(t, 600.0, recipient.PurchasePrice, 1e-9) // 50 * $12

	assert.NoError(t, agg.Invariant())

	last := agg.Events()[len(agg.Events())-1]
	assert.Equal(t, "share.transferred", last.EventName())
}

func TestTransferSharesGuards(t *testing.T) {
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0})
	buyShares(t, agg, fanA, 100)

	price, _ := ledger.NewSharePrice(10.00)
	pct, _ := ledger.NewOwnershipPercentage(5)

	_, err := agg.TransferShares(fanA, fanA, pct, price, testTime)
	assert.ErrorIs(t, err, ledger.ErrSelfTransfer)

	// fanA holds 10%; transferring 20% exceeds the holding.
	tooMuch, _ := ledger.NewOwnershipPercentage(20)
	_, err = agg.TransferShares(fanA, fanB, tooMuch, price, testTime)
	assert.ErrorIs(t, err, ledger.ErrOwnershipExceedsLimit)

	// A sender with no position at all gets the same error.
	_, err = agg.TransferShares(fanB, fanA, pct, price, testTime)
	assert.ErrorIs(t, err, ledger.ErrOwnershipExceedsLimit)

	// A percentage too small to be a whole share of this song.
	tiny, _ := ledger.NewOwnershipPercentage(0.01)
	_, err = agg.TransferShares(fanA, fanB, tiny, price, testTime)
	assert.ErrorIs(t, err, ledger.ErrInvalidShareQuantity)
}

func TestTransferCapExemptsArtist(t *testing.T) {
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0})
	buyShares(t, agg, fanA, 250)

	price, _ := ledger.NewSharePrice(10.00)
	pct, _ := ledger.NewOwnershipPercentage(25)

	// The artist already controls the 20% reserve, but selling back to
	// the artist is always allowed.
	_, err := agg.TransferShares(fanA, artistID, pct, price, testTime)
	require.NoError(t, err)

	artist, ok := agg.Holding(artistID)
	require.True(t, ok)
	assert.Equal(t, uint64(250), artist.SharesOwned)
	assert.NoError(t, agg.Invariant())
}

func TestTransferAllSharesDeletesHolding(t *testing.T) {
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0})
	buyShares(t, agg, fanA, 100)

	pct, _ := ledger.NewOwnershipPercentage(10)
	price, _ := ledger.NewSharePrice(10.00)
	_, err := agg.TransferShares(fanA, fanB, pct, price, testTime)
	require.NoError(t, err)

	_, ok := agg.Holding(fanA)
	assert.False(t, ok)
	assert.Equal(t, []uint64{fanA}, agg.DeletedHoldings())
	assert.NoError(t, agg.Invariant())
}

func TestDistributeRevenueProRata(t *testing.T) {
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0})
	buyShares(t, agg, fanA, 100)

	total, _ := ledger.NewRevenueAmount(1000.00)
	dist, err := agg.DistributeRevenue(total, "2026-07", testTime)
	require.NoError(t, err)

	assert.Equal(t, int64(100000), dist.TotalRevenueCents)
	require.Len(t, dist.Payouts, 2)

	// fanA holds 100 of 1000 shares; the artist absorbs the reserved
	// block and the unsold pool (200 + 700 = 900 shares).
	assert.Equal(t, artistID, dist.Payouts[0].HolderID)
	assert.Equal(t, int64(90000), dist.Payouts[0].AmountCents)
	assert.Equal(t, fanA, dist.Payouts[1].HolderID)
	assert.Equal(t, int64(10000), dist.Payouts[1].AmountCents)
	for _, p := range dist.Payouts {
		assert.Equal(t, model.PayoutStatusPending, p.Status)
	}

	last := agg.Events()[len(agg.Events())-1]
	require.Equal(t, "revenue.distributed", last.EventName())
	assert.Equal(t, 2, last.(ledger.RevenueDistributed).HolderCount)
}

func TestDistributeRevenueCountsInFlightForArtist(t *testing.T) {
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0})
	buyShares(t, agg, fanA, 100)
	// fanB has reserved but not yet confirmed; that slice still accrues
	// to the artist.
	_, err := agg.ReserveShares(fanB, 50, testTime)
	require.NoError(t, err)

	total, _ := ledger.NewRevenueAmount(1000.00)
	dist, err := agg.DistributeRevenue(total, "2026-07", testTime)
	require.NoError(t, err)

	require.Len(t, dist.Payouts, 2)
	assert.Equal(t, int64(90000), dist.Payouts[0].AmountCents)
	assert.Equal(t, int64(10000), dist.Payouts[1].AmountCents)
}

func TestDistributeRevenueGuards(t *testing.T) {
	price, _ := ledger.NewSharePrice(10.00)
	draft, err := ledger.NewAggregate(7, artistID, "Draft", 1000, price, ledger.OwnershipPercentage{}, ledger.DefaultPolicy(), testTime)
	require.NoError(t, err)
	total, _ := ledger.NewRevenueAmount(100.00)

	_, err = draft.DistributeRevenue(total, "2026-07", testTime)
	assert.ErrorIs(t, err, ledger.ErrSongNotAvailable)

	agg := newSongAggregate(t, ledger.DefaultPolicy())

	var distErr *ledger.RevenueDistributionError
	_, err = agg.DistributeRevenue(total, "", testTime)
	assert.ErrorAs(t, err, &distErr)

	zero, _ := ledger.NewRevenueAmount(0)
	_, err = agg.DistributeRevenue(zero, "2026-07", testTime)
	assert.ErrorAs(t, err, &distErr)

	_, err = agg.DistributeRevenue(total, "2026-07", testTime)
	require.NoError(t, err)
	_, err = agg.DistributeRevenue(total, "2026-07", testTime)
	require.ErrorAs(t, err, &distErr)
	assert.Equal(t, "2026-07", distErr.Period)
}

func TestDistributeRevenueAfterTermination(t *testing.T) {
	agg := newSongAggregate(t, ledger.Policy{MaxUserOwnershipPct: 25, PriceSlope: 0})
	buyShares(t, agg, fanA, 100)
	require.NoError(t, agg.Terminate(testTime))

	total, _ := ledger.NewRevenueAmount(500.00)
	_, err := agg.DistributeRevenue(total, "2026-08", testTime)
	assert.NoError(t, err)
}

func TestDistributeRevenueRounding(t *testing.T) {
	// Three equal holders, one dollar: 33 + 33 + 34 cents, the spare
	// cent on the lowest-id holder among the tied largest.
	song := &model.FractionalSong{
		ID:          7,
		ArtistID:    artistID,
		Title:       "Tiny Split",
		TotalShares: 3,
		Status:      model.SongStatusActive,
		Version:     1,
	}
	holdings := []model.ShareOwnership{
		{UserID: 2, SongID: 7, SharesOwned: 1, Percentage: ledger.PercentageOfShares(1, 3)},
		{UserID: 3, SongID: 7, SharesOwned: 1, Percentage: ledger.PercentageOfShares(1, 3)},
		{UserID: 4, SongID: 7, SharesOwned: 1, Percentage: ledger.PercentageOfShares(1, 3)},
	}
	agg := ledger.Rehydrate(song, holdings, nil, nil, ledger.DefaultPolicy())
	require.NoError(t, agg.Invariant())

	total, _ := ledger.NewRevenueAmount(1.00)
	dist, err := agg.DistributeRevenue(total, "2026-07", testTime)
	require.NoError(t, err)

	require.Len(t, dist.Payouts, 3)
	assert.Equal(t, int64(34), dist.Payouts[0].AmountCents)
	assert.Equal(t, int64(33), dist.Payouts[1].AmountCents)
	assert.Equal(t, int64(33), dist.Payouts[2].AmountCents)

	var sum int64
	for _, p := range dist.Payouts {
		sum += p.AmountCents
	}
	assert.Equal(t, int64(100), sum)
}

func TestRehydratePreservesPeriods(t *testing.T) {
	song := &model.FractionalSong{
		ID:              7,
		ArtistID:        artistID,
		TotalShares:     1000,
		AvailableShares: 1000,
		Status:          model.SongStatusActive,
		Version:         3,
	}
	agg := ledger.Rehydrate(song, nil, nil, []string{"2026-06"}, ledger.DefaultPolicy())

	total, _ := ledger.NewRevenueAmount(100.00)
	var distErr *ledger.RevenueDistributionError
	_, err := agg.DistributeRevenue(total, "2026-06", testTime)
	assert.ErrorAs(t, err, &distErr)
}

func TestInvariantDetectsDrift(t *testing.T) {
	agg := newSongAggregate(t, ledger.DefaultPolicy())
	require.NoError(t, agg.Invariant())

	agg.Song.AvailableShares -= 1
	assert.Error(t, agg.Invariant())
}
