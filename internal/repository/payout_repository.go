package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/song-share-ledger/internal/model"
)

// PayoutRepo gives the payout worker access to distribution_payouts.
// Each row is an independent, idempotent transfer keyed by
// (distribution_id, holder_id); the worker claims pending rows, calls
// the payment service and records the outcome per holder.  One holder
// failing never touches the other holders' rows.
type PayoutRepo struct {
	db *sql.DB
}

// NewPayoutRepo returns a PayoutRepo bound to the given database.
func NewPayoutRepo(db *sql.DB) *PayoutRepo { return &PayoutRepo{db: db} }

// PendingPayout pairs a payout row with the song it settles, so the
// worker can log and notify with context.
type PendingPayout struct {
	model.DistributionPayout
	SongID uint64
	Period string
}

// ListPending returns up to limit payouts still waiting for a
// successful transfer, oldest distribution first.  FAILED rows below
// maxAttempts are included so transient payment failures retry.
func (r *PayoutRepo) ListPending(ctx context.Context, limit int, maxAttempts uint32) ([]PendingPayout, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.distribution_id, p.holder_id, p.amount_cents, p.status, p.attempts, p.payment_ref, p.updated_at,
		        d.song_id, d.period
		 FROM distribution_payouts p
		 JOIN revenue_distributions d ON d.id = p.distribution_id
		 WHERE (p.status = ? OR (p.status = ? AND p.attempts < ?))
		 ORDER BY d.created_at, p.holder_id
		 LIMIT ?`,
		model.PayoutStatusPending, model.PayoutStatusFailed, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PendingPayout, 0)
	for rows.Next() {
		var p PendingPayout
		var ref sql.NullString
		if err := rows.Scan(&p.DistributionID, &p.HolderID, &p.AmountCents, &p.Status, &p.Attempts,
			&ref, &p.UpdatedAt, &p.SongID, &p.Period); err != nil {
			return nil, err
		}
		if ref.Valid {
			s := ref.String
			p.PaymentRef = &s
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkPaid records a successful transfer with its payment receipt.
func (r *PayoutRepo) MarkPaid(ctx context.Context, distributionID string, holderID uint64, paymentRef string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE distribution_payouts
		 SET status=?, payment_ref=?, attempts=attempts+1, updated_at=UTC_TIMESTAMP()
		 WHERE distribution_id=? AND holder_id=?`,
		model.PayoutStatusPaid, paymentRef, distributionID, holderID)
	return err
}

// MarkFailed records a failed transfer attempt.  The row stays
// eligible for retry until it reaches the worker's attempt budget.
func (r *PayoutRepo) MarkFailed(ctx context.Context, distributionID string, holderID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE distribution_payouts
		 SET status=?, attempts=attempts+1, updated_at=UTC_TIMESTAMP()
		 WHERE distribution_id=? AND holder_id=?`,
		model.PayoutStatusFailed, distributionID, holderID)
	return err
}
