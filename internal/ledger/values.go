package ledger // package ledger implements the fractional ownership aggregate and its value types

import "math"

// OwnershipPercentage is a validated percentage of a song's total shares.
// The canonical range across the whole codebase is (0, 100]; a value of
// 12.5 therefore means 12.5% of the song.  Constructing one outside that
// range fails with ErrInvalidOwnershipPercentage.  The zero value is not
// a valid percentage and only appears as the result of a failed
// constructor.
type OwnershipPercentage struct {
	value float64
}

// NewOwnershipPercentage validates p and wraps it.  p must be greater
// than zero and at most 100.
func NewOwnershipPercentage(p float64) (OwnershipPercentage, error) {
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return OwnershipPercentage{}, ErrInvalidOwnershipPercentage
	}
	return OwnershipPercentage{value: p}, nil
}

// Value returns the percentage as a float in (0, 100].
func (o OwnershipPercentage) Value() float64 { return o.value }

// SharesOf converts the percentage into a whole number of shares of the
// given total.  The result is rounded to the nearest share so that
// 12.5% of 1000 is exactly 125.
func (o OwnershipPercentage) SharesOf(totalShares uint64) uint64 {
	return uint64(math.Round(o.value / 100 * float64(totalShares)))
}

// PercentageOfShares derives the percentage a holding represents.  It is
// the single place the shares -> percentage conversion lives so that the
// stored percentage can never drift from the share count.
func PercentageOfShares(shares, totalShares uint64) float64 {
	if totalShares == 0 {
		return 0
	}
	return float64(shares) / float64(totalShares) * 100
}

// SharePrice is a validated price for a single share.  Prices are
// expressed in the platform currency with cent precision and must be
// strictly positive.
type SharePrice struct {
	value float64
}

// NewSharePrice validates price and wraps it.
func NewSharePrice(price float64) (SharePrice, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return SharePrice{}, ErrInvalidSharePrice
	}
	return SharePrice{value: price}, nil
}

// Value returns the price as a float.
func (s SharePrice) Value() float64 { return s.value }

// Times returns the total cost of qty shares at this price.
func (s SharePrice) Times(qty uint64) RevenueAmount {
	return RevenueAmount{value: s.value * float64(qty)}
}

// RevenueAmount is a non-negative monetary amount.  All arithmetic on it
// preserves non-negativity: adding two amounts can never produce a
// negative result, and the constructor rejects negative inputs.
type RevenueAmount struct {
	value float64
}

// NewRevenueAmount validates amount and wraps it.
func NewRevenueAmount(amount float64) (RevenueAmount, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return RevenueAmount{}, ErrInvalidRevenueAmount
	}
	return RevenueAmount{value: amount}, nil
}

// Value returns the amount as a float.
func (r RevenueAmount) Value() float64 { return r.value }

// Add returns the sum of two amounts.
func (r RevenueAmount) Add(other RevenueAmount) RevenueAmount {
	return RevenueAmount{value: r.value + other.value}
}

// Cents converts the amount to integer cents, rounding to the nearest
// cent.  Payout allocation is done in cents so that no fraction of a
// cent is ever lost or duplicated.
func (r RevenueAmount) Cents() int64 {
	return int64(math.Round(r.value * 100))
}

// CentsToAmount converts integer cents back into a RevenueAmount.
func CentsToAmount(cents int64) RevenueAmount {
	if cents < 0 {
		cents = 0
	}
	return RevenueAmount{value: float64(cents) / 100}
}
