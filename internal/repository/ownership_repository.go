package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
)

// OwnershipStore is the MySQL adapter of the ledger.Repository port.
// One SaveAggregate call writes the song row, every changed ownership,
// the dirty ledger entries, new distributions with their payout rows,
// the raised domain events (outbox) and the mint jobs derived from
// confirmed purchases in a single database transaction.  Concurrency
// between two mutations of the same song is resolved by the version
// counter on the song row: the loser of the race gets
// ledger.ErrVersionConflict and retries against a fresh load.
type OwnershipStore struct {
	db     *sql.DB
	policy ledger.Policy
}

// NewOwnershipStore returns an OwnershipStore bound to the given
// database.  The policy is attached to every aggregate it rehydrates.
func NewOwnershipStore(db *sql.DB, policy ledger.Policy) *OwnershipStore {
	return &OwnershipStore{db: db, policy: policy}
}

// DB exposes the underlying handle for callers that need to compose
// transactions (mirrors the other repositories).
func (s *OwnershipStore) DB() *sql.DB { return s.db }

// LoadAggregate reads the song, its ownerships, the in-flight purchase
// transactions and the settled revenue periods, and rebuilds the
// aggregate.  Returns ledger.ErrSongNotFound when the song does not
// exist.
func (s *OwnershipStore) LoadAggregate(ctx context.Context, songID uint64) (*ledger.Aggregate, error) {
	song := &model.FractionalSong{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, artist_id, title, total_shares, artist_reserved_shares, available_shares,
		        current_price_per_share, status, trading_disabled, version, created_at, updated_at
		 FROM fractional_songs WHERE id = ?`, songID).Scan(
		&song.ID, &song.ArtistID, &song.Title, &song.TotalShares, &song.ArtistReservedShares,
		&song.AvailableShares, &song.CurrentPricePerShare, &song.Status, &song.TradingDisabled,
		&song.Version, &song.CreatedAt, &song.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrSongNotFound
		}
		return nil, err
	}

	holdings, err := s.holdingsForSong(ctx, songID)
	if err != nil {
		return nil, err
	}

	openTxns, err := s.openTransactions(ctx, songID)
	if err != nil {
		return nil, err
	}

	periods, err := s.settledPeriods(ctx, songID)
	if err != nil {
		return nil, err
	}

	return ledger.Rehydrate(song, holdings, openTxns, periods, s.policy), nil
}

// SaveAggregate persists every change the aggregate collected since it
// was loaded, atomically.  A version-0 aggregate is inserted; anything
// else is updated under the optimistic version check.
func (s *OwnershipStore) SaveAggregate(ctx context.Context, agg *ledger.Aggregate) error {
	if err := agg.Invariant(); err != nil {
		// Refuse to persist broken accounting; this is a bug upstream,
		// not a recoverable condition.
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	song := agg.Song
	if song.Version == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO fractional_songs
			   (id, artist_id, title, total_shares, artist_reserved_shares, available_shares,
			    current_price_per_share, status, trading_disabled, version, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?,?,?,1,?,?)`,
			song.ID, song.ArtistID, song.Title, song.TotalShares, song.ArtistReservedShares,
			song.AvailableShares, song.CurrentPricePerShare, song.Status, song.TradingDisabled,
			song.CreatedAt, song.UpdatedAt)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return ledger.ErrSongAlreadyExists
			}
			return err
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE fractional_songs
			 SET available_shares=?, current_price_per_share=?, status=?, trading_disabled=?,
			     version=version+1, updated_at=?
			 WHERE id=? AND version=?`,
			song.AvailableShares, song.CurrentPricePerShare, song.Status, song.TradingDisabled,
			song.UpdatedAt, song.ID, song.Version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ledger.ErrVersionConflict
		}
	}

	for _, h := range agg.Holdings() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO share_ownerships (user_id, song_id, shares_owned, percentage, purchase_price, acquired_at, updated_at)
			 VALUES (?,?,?,?,?,?,?)
			 ON DUPLICATE KEY UPDATE shares_owned=VALUES(shares_owned), percentage=VALUES(percentage),
			                         purchase_price=VALUES(purchase_price), updated_at=VALUES(updated_at)`,
			h.UserID, h.SongID, h.SharesOwned, h.Percentage, h.PurchasePrice, h.AcquiredAt, h.UpdatedAt); err != nil {
			return err
		}
	}
	for _, uid := range agg.DeletedHoldings() {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM share_ownerships WHERE user_id=? AND song_id=?`, uid, song.ID); err != nil {
			return err
		}
	}

	for _, t := range agg.DirtyTransactions() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO share_transactions
			   (id, song_id, buyer_id, seller_id, shares_quantity, price_per_share, transaction_type, status, payment_ref, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?)
			 ON DUPLICATE KEY UPDATE status=VALUES(status), payment_ref=VALUES(payment_ref), updated_at=VALUES(updated_at)`,
			t.ID, t.SongID, t.BuyerID, t.SellerID, t.SharesQuantity, t.PricePerShare,
			t.Type, t.Status, t.PaymentRef, t.CreatedAt, t.UpdatedAt); err != nil {
			return err
		}
	}

	for _, d := range agg.NewDistributions() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO revenue_distributions (id, song_id, period, total_revenue_cents, created_at)
			 VALUES (?,?,?,?,?)`,
			d.ID, d.SongID, d.Period, d.TotalRevenueCents, d.CreatedAt); err != nil {
			// The unique (song_id, period) key is the durable half of
			// the idempotence guard.
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return &ledger.RevenueDistributionError{SongID: d.SongID, Period: d.Period, Reason: "period already distributed"}
			}
			return err
		}
		for _, p := range d.Payouts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO distribution_payouts (distribution_id, holder_id, amount_cents, status, attempts, updated_at)
				 VALUES (?,?,?,?,0,?)`,
				p.DistributionID, p.HolderID, p.AmountCents, p.Status, p.UpdatedAt); err != nil {
				return err
			}
		}
	}

	if err := s.writeEvents(ctx, tx, agg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	song.Version++
	return nil
}

// writeEvents appends the raised domain events to the outbox and turns
// confirmed purchases into mint jobs, all inside the save transaction.
func (s *OwnershipStore) writeEvents(ctx context.Context, tx *sql.Tx, agg *ledger.Aggregate) error {
	now := time.Now().UTC()
	for _, ev := range agg.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outbox_events (id, song_id, event_type, payload, created_at) VALUES (?,?,?,?,?)`,
			uuid.New().String(), agg.Song.ID, ev.EventName(), payload, now); err != nil {
			return err
		}
		if p, ok := ev.(ledger.SharePurchased); ok {
			pct := ledger.PercentageOfShares(p.Shares, agg.Song.TotalShares)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO mint_jobs (id, song_id, user_id, percentage, status, attempts, created_at, updated_at)
				 VALUES (?,?,?,?,'PENDING',0,?,?)`,
				uuid.New().String(), p.SongID, p.BuyerID, pct, now, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetUserOwnerships returns every position the user holds, newest
// first.
func (s *OwnershipStore) GetUserOwnerships(ctx context.Context, userID uint64) ([]model.ShareOwnership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, song_id, shares_owned, percentage, purchase_price, acquired_at, updated_at
		 FROM share_ownerships WHERE user_id = ? ORDER BY acquired_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ShareOwnership
	for rows.Next() {
		var h model.ShareOwnership
		if err := rows.Scan(&h.UserID, &h.SongID, &h.SharesOwned, &h.Percentage, &h.PurchasePrice, &h.AcquiredAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetUserRevenueForSong sums everything ever allocated to the user for
// one song across all distributions.  ok is false when the user never
// appeared in a distribution.
func (s *OwnershipStore) GetUserRevenueForSong(ctx context.Context, userID, songID uint64) (ledger.RevenueAmount, bool, error) {
	var cents sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(p.amount_cents)
		 FROM distribution_payouts p
		 JOIN revenue_distributions d ON d.id = p.distribution_id
		 WHERE p.holder_id = ? AND d.song_id = ?`, userID, songID).Scan(&cents)
	if err != nil {
		return ledger.RevenueAmount{}, false, err
	}
	if !cents.Valid {
		return ledger.RevenueAmount{}, false, nil
	}
	return ledger.CentsToAmount(cents.Int64), true, nil
}

// GetSong returns just the song row, for read paths that do not need
// the full aggregate.  Returns ledger.ErrSongNotFound when missing.
func (s *OwnershipStore) GetSong(ctx context.Context, songID uint64) (*model.FractionalSong, error) {
	song := &model.FractionalSong{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, artist_id, title, total_shares, artist_reserved_shares, available_shares,
		        current_price_per_share, status, trading_disabled, version, created_at, updated_at
		 FROM fractional_songs WHERE id = ?`, songID).Scan(
		&song.ID, &song.ArtistID, &song.Title, &song.TotalShares, &song.ArtistReservedShares,
		&song.AvailableShares, &song.CurrentPricePerShare, &song.Status, &song.TradingDisabled,
		&song.Version, &song.CreatedAt, &song.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrSongNotFound
	}
	if err != nil {
		return nil, err
	}
	return song, nil
}

// ListActiveSongs returns every song currently open for trading,
// ordered by creation time descending.
func (s *OwnershipStore) ListActiveSongs(ctx context.Context) ([]model.FractionalSong, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, artist_id, title, total_shares, artist_reserved_shares, available_shares,
		        current_price_per_share, status, trading_disabled, version, created_at, updated_at
		 FROM fractional_songs WHERE status = ? ORDER BY created_at DESC`, model.SongStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	songs := make([]model.FractionalSong, 0)
	for rows.Next() {
		var song model.FractionalSong
		if err := rows.Scan(&song.ID, &song.ArtistID, &song.Title, &song.TotalShares,
			&song.ArtistReservedShares, &song.AvailableShares, &song.CurrentPricePerShare,
			&song.Status, &song.TradingDisabled, &song.Version, &song.CreatedAt, &song.UpdatedAt); err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// ListDistributions returns all distributions for a song with their
// payout rows, newest first.
func (s *OwnershipStore) ListDistributions(ctx context.Context, songID uint64) ([]model.RevenueDistribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, song_id, period, total_revenue_cents, created_at
		 FROM revenue_distributions WHERE song_id = ? ORDER BY created_at DESC`, songID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dists := make([]model.RevenueDistribution, 0)
	index := make(map[string]int)
	for rows.Next() {
		var d model.RevenueDistribution
		if err := rows.Scan(&d.ID, &d.SongID, &d.Period, &d.TotalRevenueCents, &d.CreatedAt); err != nil {
			return nil, err
		}
		index[d.ID] = len(dists)
		dists = append(dists, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dists) == 0 {
		return dists, nil
	}
	ids := make([]interface{}, 0, len(dists))
	placeholders := make([]string, 0, len(dists))
	for _, d := range dists {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	prows, err := s.db.QueryContext(ctx,
		`SELECT distribution_id, holder_id, amount_cents, status, attempts, payment_ref, updated_at
		 FROM distribution_payouts
		 WHERE distribution_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY distribution_id, holder_id`, ids...)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var p model.DistributionPayout
		if err := prows.Scan(&p.DistributionID, &p.HolderID, &p.AmountCents, &p.Status, &p.Attempts, &p.PaymentRef, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if idx, ok := index[p.DistributionID]; ok {
			dists[idx].Payouts = append(dists[idx].Payouts, p)
		}
	}
	return dists, prows.Err()
}

func (s *OwnershipStore) holdingsForSong(ctx context.Context, songID uint64) ([]model.ShareOwnership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, song_id, shares_owned, percentage, purchase_price, acquired_at, updated_at
		 FROM share_ownerships WHERE song_id = ?`, songID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ShareOwnership
	for rows.Next() {
		var h model.ShareOwnership
		if err := rows.Scan(&h.UserID, &h.SongID, &h.SharesOwned, &h.Percentage, &h.PurchasePrice, &h.AcquiredAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *OwnershipStore) openTransactions(ctx context.Context, songID uint64) ([]model.ShareTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, song_id, buyer_id, seller_id, shares_quantity, price_per_share, transaction_type, status, payment_ref, created_at, updated_at
		 FROM share_transactions WHERE song_id = ? AND status IN (?, ?)`,
		songID, model.TransactionStatusReserved, model.TransactionStatusCharged)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ShareTransaction
	for rows.Next() {
		var t model.ShareTransaction
		var buyer, seller sql.NullInt64
		var ref sql.NullString
		if err := rows.Scan(&t.ID, &t.SongID, &buyer, &seller, &t.SharesQuantity, &t.PricePerShare,
			&t.Type, &t.Status, &ref, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if buyer.Valid {
			b := uint64(buyer.Int64)
			t.BuyerID = &b
		}
		if seller.Valid {
			sl := uint64(seller.Int64)
			t.SellerID = &sl
		}
		if ref.Valid {
			r := ref.String
			t.PaymentRef = &r
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *OwnershipStore) settledPeriods(ctx context.Context, songID uint64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT period FROM revenue_distributions WHERE song_id = ?`, songID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
