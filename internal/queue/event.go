// Package queue defines message payloads exchanged over the message broker.
package queue

// SharePurchasedEvent mirrors the share.purchased message published by
// the outbox drainer. It carries enough for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type SharePurchasedEvent struct {
	SongID        uint64  `json:"song_id"`
	BuyerID       uint64  `json:"buyer_id"`
	TransactionID string  `json:"transaction_id"`
	Shares        uint64  `json:"shares"`
	PricePerShare float64 `json:"price_per_share"`
	TotalCost     float64 `json:"total_cost"`
	OccurredAt    string  `json:"occurred_at"`
}

// RevenueDistributedEvent mirrors the revenue.distributed message.
type RevenueDistributedEvent struct {
	SongID         uint64  `json:"song_id"`
	DistributionID string  `json:"distribution_id"`
	Period         string  `json:"period"`
	TotalRevenue   float64 `json:"total_revenue"`
	HolderCount    int     `json:"holder_count"`
	OccurredAt     string  `json:"occurred_at"`
}

// ShareTransferredEvent mirrors the share.transferred message.
type ShareTransferredEvent struct {
	SongID        uint64  `json:"song_id"`
	FromUserID    uint64  `json:"from_user_id"`
	ToUserID      uint64  `json:"to_user_id"`
	TransactionID string  `json:"transaction_id"`
	Shares        uint64  `json:"shares"`
	Percentage    float64 `json:"percentage"`
	OccurredAt    string  `json:"occurred_at"`
}
