package usecase

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
)

// PurchaseShares runs the purchase saga.  The reservation is persisted
// before the buyer's card is touched, so a crash can only ever leave a
// cancellable reservation behind, never an unpaid sale:
//
//	reserve (RESERVED, durable)
//	charge the payment provider
//	  success -> mark CHARGED and confirm (CONFIRMED, durable)
//	  failure -> cancel the reservation (CANCELLED, shares restored)
type PurchaseShares struct {
	Repo     ledger.Repository
	Payments PaymentService
	Now      func() time.Time
}

// NewPurchaseShares wires the use case with production defaults.
func NewPurchaseShares(repo ledger.Repository, payments PaymentService) *PurchaseShares {
	return &PurchaseShares{Repo: repo, Payments: payments, Now: time.Now}
}

// PurchaseInput carries one buy order.
type PurchaseInput struct {
	BuyerID  uint64
	SongID   uint64
	Quantity uint64
	// AutoConfirm runs the whole saga in one call.  When false the
	// order stops at RESERVED and the buyer settles it later via
	// Confirm or abandons it via Cancel.
	AutoConfirm bool
}

// PurchaseResult reports the ledger entry and, once confirmed, the
// buyer's updated position.
type PurchaseResult struct {
	Transaction model.ShareTransaction
	Ownership   *model.ShareOwnership
	Song        *model.FractionalSong
}

// Execute places the order.
func (uc *PurchaseShares) Execute(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	var txn *model.ShareTransaction
	agg, err := mutate(ctx, uc.Repo, in.SongID, func(a *ledger.Aggregate) error {
		t, err := a.ReserveShares(in.BuyerID, in.Quantity, uc.Now().UTC())
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !in.AutoConfirm {
		return &PurchaseResult{Transaction: *txn, Song: agg.Song}, nil
	}
	return uc.settle(ctx, in.BuyerID, in.SongID, *txn)
}

// Confirm settles a previously reserved order: charge, then confirm.
func (uc *PurchaseShares) Confirm(ctx context.Context, buyerID, songID uint64, txnID string) (*PurchaseResult, error) {
	agg, err := uc.Repo.LoadAggregate(ctx, songID)
	if err != nil {
		return nil, err
	}
	txn, err := findOpenTxn(agg, buyerID, txnID)
	if err != nil {
		return nil, err
	}
	return uc.settle(ctx, buyerID, songID, txn)
}

// Cancel abandons an open reservation and returns its shares to the
// pool.
func (uc *PurchaseShares) Cancel(ctx context.Context, buyerID, songID uint64, txnID string) (*model.ShareTransaction, error) {
	var cancelled *model.ShareTransaction
	_, err := mutate(ctx, uc.Repo, songID, func(a *ledger.Aggregate) error {
		if _, err := findOpenTxn(a, buyerID, txnID); err != nil {
			return err
		}
		t, err := a.CancelReservation(txnID, uc.Now().UTC())
		if err != nil {
			return err
		}
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// settle charges the buyer and confirms the sale, compensating the
// reservation when the charge is declined.
func (uc *PurchaseShares) settle(ctx context.Context, buyerID, songID uint64, txn model.ShareTransaction) (*PurchaseResult, error) {
	price, err := ledger.NewSharePrice(txn.PricePerShare)
	if err != nil {
		return nil, err
	}
	amountCents := price.Times(txn.SharesQuantity).Cents()

	paymentRef, chargeErr := uc.Payments.Charge(ctx, buyerID, amountCents, txn.ID)
	if chargeErr != nil {
		if _, cerr := mutate(ctx, uc.Repo, songID, func(a *ledger.Aggregate) error {
			_, err := a.CancelReservation(txn.ID, uc.Now().UTC())
			return err
		}); cerr != nil {
			// The reservation is stuck holding shares; needs an operator.
			log.Printf("purchase: ALERT could not cancel reservation %s for song %d after declined charge: %v", txn.ID, songID, cerr)
		}
		return nil, chargeErr
	}

	agg, err := mutate(ctx, uc.Repo, songID, func(a *ledger.Aggregate) error {
		now := uc.Now().UTC()
		if _, err := a.MarkCharged(txn.ID, paymentRef, now); err != nil {
			return err
		}
		_, err := a.ConfirmPurchase(txn.ID, now)
		return err
	})
	if err != nil {
		// Money moved but the sale did not; needs an operator before
		// the buyer is refunded or the sale is replayed.
		log.Printf("purchase: ALERT charge %s succeeded but confirmation of %s for song %d failed: %v", paymentRef, txn.ID, songID, err)
		return nil, err
	}

	result := &PurchaseResult{Song: agg.Song}
	if h, ok := agg.Holding(buyerID); ok {
		hh := h
		result.Ownership = &hh
	}
	for _, t := range agg.DirtyTransactions() {
		if t.ID == txn.ID {
			result.Transaction = *t
		}
	}
	return result, nil
}

// findOpenTxn returns the open transaction when it exists and belongs
// to the caller.
func findOpenTxn(agg *ledger.Aggregate, buyerID uint64, txnID string) (model.ShareTransaction, error) {
	for _, t := range agg.OpenTransactions() {
		if t.ID != txnID {
			continue
		}
		if t.BuyerID == nil || *t.BuyerID != buyerID {
			return model.ShareTransaction{}, repository.ErrForbidden
		}
		return t, nil
	}
	return model.ShareTransaction{}, ledger.ErrUnknownTransaction
}
