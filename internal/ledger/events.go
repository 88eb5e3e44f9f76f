package ledger

import "time"

// Event is a domain event raised by the aggregate.  Events are
// collected on the aggregate during a mutation, written to the outbox
// in the same transaction as the aggregate save, and only then drained
// to the message broker.  They are never published before the write is
// durable.
type Event interface {
	// EventName returns the stable name used as the broker routing key
	// and as the outbox event_type column.
	EventName() string
}

// SongTokenized is raised once when an artist splits a song into
// shares.
type SongTokenized struct {
	SongID       uint64    `json:"song_id"`
	ArtistID     uint64    `json:"artist_id"`
	Title        string    `json:"title"`
	TotalShares  uint64    `json:"total_shares"`
	InitialPrice float64   `json:"initial_price"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (SongTokenized) EventName() string { return "song.tokenized" }

// SharePurchased is raised when a purchase saga confirms and the
// buyer's ownership has been credited.
type SharePurchased struct {
	SongID        uint64    `json:"song_id"`
	BuyerID       uint64    `json:"buyer_id"`
	TransactionID string    `json:"transaction_id"`
	Shares        uint64    `json:"shares"`
	PricePerShare float64   `json:"price_per_share"`
	TotalCost     float64   `json:"total_cost"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (SharePurchased) EventName() string { return "share.purchased" }

// ShareTransferred is raised when shares move between two fans.
type ShareTransferred struct {
	SongID        uint64    `json:"song_id"`
	FromUserID    uint64    `json:"from_user_id"`
	ToUserID      uint64    `json:"to_user_id"`
	TransactionID string    `json:"transaction_id"`
	Shares        uint64    `json:"shares"`
	Percentage    float64   `json:"percentage"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (ShareTransferred) EventName() string { return "share.transferred" }

// RevenueDistributed is raised when a settlement period has been
// allocated across all holders.
type RevenueDistributed struct {
	SongID         uint64    `json:"song_id"`
	DistributionID string    `json:"distribution_id"`
	Period         string    `json:"period"`
	TotalRevenue   float64   `json:"total_revenue"`
	HolderCount    int       `json:"holder_count"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (RevenueDistributed) EventName() string { return "revenue.distributed" }
