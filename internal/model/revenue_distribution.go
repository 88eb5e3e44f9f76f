package model

import "time"

// Payout states for a single holder inside a distribution.  Each payout
// is executed by the payout worker as an independent, idempotent
// transfer; one holder failing does not invalidate the others.
const (
	PayoutStatusPending = "PENDING"
	PayoutStatusPaid    = "PAID"
	PayoutStatusFailed  = "FAILED"
)

// RevenueDistribution settles one period of streaming revenue for one
// song.  The (SongID, Period) pair is unique, which is what makes
// distribution idempotent: a second attempt for the same period is
// rejected by the aggregate.  Rows are immutable once written; only the
// per-holder payout statuses advance as the worker executes transfers.
//
// Fields:
//  ID                – UUID of the distribution.
//  SongID            – song whose revenue is being settled.
//  Period            – settlement period identifier (e.g. "2024-01").
//  TotalRevenueCents – full revenue for the period in integer cents.
//  Payouts           – per-holder allocation; sums exactly to
//                      TotalRevenueCents.
//  CreatedAt         – when the distribution was computed.
type RevenueDistribution struct {
	ID                string    // revenue_distributions.id (uuid)
	SongID            uint64    // revenue_distributions.song_id
	Period            string    // revenue_distributions.period
	TotalRevenueCents int64     // revenue_distributions.total_revenue_cents
	Payouts           []DistributionPayout
	CreatedAt         time.Time // revenue_distributions.created_at
}

// DistributionPayout is the amount owed to one holder out of a
// distribution.  The (DistributionID, HolderID) pair is the idempotence
// key handed to the payment service, so retried transfers can never pay
// a holder twice.
//
// Fields:
//  DistributionID – parent distribution UUID.
//  HolderID       – user receiving the payout (the artist included).
//  AmountCents    – allocated amount in integer cents.
//  Status         – PENDING, PAID or FAILED.
//  Attempts       – number of transfer attempts made so far.
//  PaymentRef     – receipt id from the payment service once paid.
//  UpdatedAt      – when the payout status last changed.
type DistributionPayout struct {
	DistributionID string    // distribution_payouts.distribution_id
	HolderID       uint64    // distribution_payouts.holder_id
	AmountCents    int64     // distribution_payouts.amount_cents
	Status         string    // distribution_payouts.status
	Attempts       uint32    // distribution_payouts.attempts
	PaymentRef     *string   // distribution_payouts.payment_ref (nullable)
	UpdatedAt      time.Time // distribution_payouts.updated_at
}
