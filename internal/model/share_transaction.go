package model

import "time"

// Transaction types.  PURCHASE moves shares from the available pool to
// a fan, TRANSFER moves shares between two fans, SALE records the
// artist-reservation entry written at tokenization time.
const (
	TransactionTypePurchase = "PURCHASE"
	TransactionTypeTransfer = "TRANSFER"
	TransactionTypeSale     = "SALE"
)

// Transaction saga states.  A purchase starts RESERVED (shares taken
// out of the available pool, nothing charged yet), becomes CHARGED once
// the payment service has taken the money, and CONFIRMED when the
// buyer's ownership has been credited.  A failed charge transitions the
// transaction to CANCELLED and returns the shares to the pool.
// Transfers and artist reservations are written directly as CONFIRMED.
const (
	TransactionStatusReserved  = "RESERVED"
	TransactionStatusCharged   = "CHARGED"
	TransactionStatusConfirmed = "CONFIRMED"
	TransactionStatusCancelled = "CANCELLED"
)

// ShareTransaction is one append-only ledger entry.  Exactly one of
// three shapes is valid: a purchase (buyer set, no seller), a transfer
// (both set) or an artist reservation (seller set to the artist, no
// buyer).  Rows are immutable once CONFIRMED or CANCELLED.
//
// Fields:
//  ID             – UUID of the ledger entry.
//  SongID         – song whose shares moved.
//  BuyerID        – receiving user, nil for artist reservations.
//  SellerID       – sending user, nil for pool purchases.
//  SharesQuantity – number of shares moved.
//  PricePerShare  – price applied to each share at execution time.
//  Type           – PURCHASE, TRANSFER or SALE.
//  Status         – RESERVED, CHARGED, CONFIRMED or CANCELLED.
//  PaymentRef     – receipt id returned by the payment service, if any.
//  CreatedAt      – when the entry was appended.
//  UpdatedAt      – when the saga status last advanced.
type ShareTransaction struct {
	ID             string    // share_transactions.id (uuid)
	SongID         uint64    // share_transactions.song_id
	BuyerID        *uint64   // share_transactions.buyer_id (nullable)
	SellerID       *uint64   // share_transactions.seller_id (nullable)
	SharesQuantity uint64    // share_transactions.shares_quantity
	PricePerShare  float64   // share_transactions.price_per_share
	Type           string    // share_transactions.transaction_type
	Status         string    // share_transactions.status
	PaymentRef     *string   // share_transactions.payment_ref (nullable)
	CreatedAt      time.Time // share_transactions.created_at
	UpdatedAt      time.Time // share_transactions.updated_at
}

// Open reports whether the transaction still occupies shares that are
// neither owned nor available, i.e. it is part of an in-flight purchase
// saga.
func (t *ShareTransaction) Open() bool {
	return t.Status == TransactionStatusReserved || t.Status == TransactionStatusCharged
}
