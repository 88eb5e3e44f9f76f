package model

import "time"

// ShareOwnership records how many shares of one song a single user
// holds.  There is at most one row per (user, song) pair; repeated
// purchases increment SharesOwned and accumulate PurchasePrice as the
// cost basis.  Percentage is always derived from SharesOwned and the
// song's TotalShares – it is stored for query convenience but never
// updated independently of the share count.
//
// Fields:
//  UserID        – owner of the shares.
//  SongID        – song the shares belong to.
//  SharesOwned   – whole number of shares held; never negative.
//  Percentage    – SharesOwned / TotalShares expressed in (0, 100].
//  PurchasePrice – cumulative amount paid to acquire the position.
//  AcquiredAt    – when the first share was acquired.
//  UpdatedAt     – when the position last changed.
type ShareOwnership struct {
	UserID        uint64    // share_ownerships.user_id
	SongID        uint64    // share_ownerships.song_id
	SharesOwned   uint64    // share_ownerships.shares_owned
	Percentage    float64   // share_ownerships.percentage (derived)
	PurchasePrice float64   // share_ownerships.purchase_price
	AcquiredAt    time.Time // share_ownerships.acquired_at
	UpdatedAt     time.Time // share_ownerships.updated_at
}
