// Package ledger errors.  All of these are domain validation errors:
// they describe a request that can never succeed unmodified and are
// returned to the caller uninterpreted.  Infrastructure failures (a
// repository that cannot be reached, a broker timeout) are reported by
// the repository and service layers with their own errors and must not
// be confused with these sentinels.
package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidOwnershipPercentage is returned when a percentage falls
// outside the canonical (0, 100] range.
var ErrInvalidOwnershipPercentage = errors.New("ownership percentage must be in (0, 100]")

// ErrInvalidSharePrice is returned when a share price is zero or negative.
var ErrInvalidSharePrice = errors.New("share price must be positive")

// ErrInvalidRevenueAmount is returned when a revenue amount is negative.
var ErrInvalidRevenueAmount = errors.New("revenue amount must not be negative")

// ErrCannotPurchaseOwnSong is returned when an artist attempts to buy
// shares of their own song.  The artist's stake is the reserved block
// fixed at tokenization time.
var ErrCannotPurchaseOwnSong = errors.New("artist cannot purchase shares of their own song")

// ErrMaxSharesPerUserExceeded is returned when a purchase or transfer
// would push a single fan above the configured per-user ownership cap.
var ErrMaxSharesPerUserExceeded = errors.New("maximum shares per user exceeded")

// ErrOwnershipExceedsLimit is returned when a transfer asks for more
// than the sender currently holds.
var ErrOwnershipExceedsLimit = errors.New("transfer exceeds sender's ownership")

// ErrTradingDisabled is returned by mutating operations while trading
// on the song is suspended.
var ErrTradingDisabled = errors.New("trading is disabled for this song")

// ErrSongNotAvailable is returned when the song is not in a state that
// permits the requested operation (e.g. purchasing on a DRAFT or
// TERMINATED song).
var ErrSongNotAvailable = errors.New("song is not available for ownership operations")

// ErrSongNotFound is returned by repositories when no aggregate exists
// for the requested song.
var ErrSongNotFound = errors.New("fractional song not found")

// ErrSongAlreadyExists is returned when tokenizing a song that already
// has an aggregate.
var ErrSongAlreadyExists = errors.New("fractional song already exists")

// ErrInsufficientFunds is returned when the payment service declines a
// charge for lack of funds.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrUnknownTransaction is returned when a reservation id does not
// match any open transaction on the aggregate.
var ErrUnknownTransaction = errors.New("unknown or already settled transaction")

// ErrInvalidTotalShares is returned when tokenizing with a zero total
// share count.
var ErrInvalidTotalShares = errors.New("total shares must be positive")

// ErrInvalidShareQuantity is returned when an operation asks to move
// zero shares.
var ErrInvalidShareQuantity = errors.New("share quantity must be positive")

// ErrSelfTransfer is returned when the sender and recipient of a
// transfer are the same user.
var ErrSelfTransfer = errors.New("cannot transfer shares to yourself")

// InsufficientSharesError reports a purchase request for more shares
// than the song currently has for sale.  It carries both sides of the
// comparison so callers can show the shortfall.
type InsufficientSharesError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares available: requested %d, available %d", e.Requested, e.Available)
}

// RevenueDistributionError reports why a revenue distribution was
// rejected, most commonly because the settlement period was already
// distributed (the idempotence guard).
type RevenueDistributionError struct {
	SongID uint64
	Period string
	Reason string
}

func (e *RevenueDistributionError) Error() string {
	return fmt.Sprintf("revenue distribution for song %d period %q failed: %s", e.SongID, e.Period, e.Reason)
}
