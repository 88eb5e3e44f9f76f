package usecase

import "context"

// PaymentService is the outbound port to the payment provider.  Both
// calls are synchronous and return the provider's reference for the
// completed movement of money.
type PaymentService interface {
	// Charge debits the user. reference is the ledger transaction id,
	// passed through as the provider idempotency key.
	Charge(ctx context.Context, userID uint64, amountCents int64, reference string) (string, error)
	// Payout credits the user. reference is "distributionID:holderID",
	// again used as the idempotency key.
	Payout(ctx context.Context, userID uint64, amountCents int64, reference string) (string, error)
}

// BlockchainService mints the on-chain ownership proof for a confirmed
// purchase.  Minting is decorative with respect to the ledger: it runs
// after the sale is durable and a failure never un-sells shares.
type BlockchainService interface {
	MintOwnershipProof(ctx context.Context, songID, userID uint64, percentage float64) (string, error)
}
