package repository

import (
	"context"
	"database/sql"
	"time"
)

// Mint job states.  A job is created for every confirmed purchase (in
// the same transaction as the ledger write) and retried out-of-band
// until the ownership proof is on chain.  A mint failure never
// un-sells the shares.
const (
	MintStatusPending = "PENDING"
	MintStatusDone    = "DONE"
	MintStatusFailed  = "FAILED"
)

// MintJob is one pending ownership-proof mint.
type MintJob struct {
	ID         string    // mint_jobs.id (uuid)
	SongID     uint64    // mint_jobs.song_id
	UserID     uint64    // mint_jobs.user_id
	Percentage float64   // mint_jobs.percentage at purchase time
	Status     string    // mint_jobs.status
	Attempts   uint32    // mint_jobs.attempts
	TokenID    *string   // mint_jobs.token_id once minted
	CreatedAt  time.Time // mint_jobs.created_at
	UpdatedAt  time.Time // mint_jobs.updated_at
}

// MintJobRepo gives the mint worker access to the mint_jobs table.
type MintJobRepo struct {
	db *sql.DB
}

// NewMintJobRepo returns a MintJobRepo bound to the given database.
func NewMintJobRepo(db *sql.DB) *MintJobRepo { return &MintJobRepo{db: db} }

// ListPending returns up to limit jobs still waiting for a successful
// mint, oldest first.  FAILED jobs below maxAttempts are retried.
func (r *MintJobRepo) ListPending(ctx context.Context, limit int, maxAttempts uint32) ([]MintJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, song_id, user_id, percentage, status, attempts, token_id, created_at, updated_at
		 FROM mint_jobs
		 WHERE status = ? OR (status = ? AND attempts < ?)
		 ORDER BY created_at
		 LIMIT ?`,
		MintStatusPending, MintStatusFailed, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MintJob, 0)
	for rows.Next() {
		var j MintJob
		var token sql.NullString
		if err := rows.Scan(&j.ID, &j.SongID, &j.UserID, &j.Percentage, &j.Status, &j.Attempts,
			&token, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		if token.Valid {
			t := token.String
			j.TokenID = &t
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// MarkDone records the minted token id.
func (r *MintJobRepo) MarkDone(ctx context.Context, id, tokenID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mint_jobs SET status=?, token_id=?, attempts=attempts+1, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		MintStatusDone, tokenID, id)
	return err
}

// MarkFailed records a failed attempt; the job stays retryable until
// the worker's attempt budget is spent.
func (r *MintJobRepo) MarkFailed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mint_jobs SET status=?, attempts=attempts+1, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		MintStatusFailed, id)
	return err
}
