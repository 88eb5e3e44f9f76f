package model

import "time"

// Song lifecycle states.  A song starts in DRAFT while the artist
// finishes setting it up, becomes ACTIVE when trading opens and ends in
// TERMINATED when the offering is wound down.  Purchases and transfers
// are only permitted while ACTIVE; revenue may still be distributed to
// existing holders after termination.
const (
	SongStatusDraft      = "DRAFT"
	SongStatusActive     = "ACTIVE"
	SongStatusTerminated = "TERMINATED"
)

// FractionalSong is a song whose economic upside has been split into a
// fixed number of tradeable shares.  TotalShares is set once at
// tokenization and never changes; every other share count on the row
// moves as fans buy, sell and transfer.
//
// Fields:
//  ID                   – primary key identifier of the song.
//  ArtistID             – user who tokenized the song.
//  Title                – display title.
//  TotalShares          – immutable total number of shares.
//  ArtistReservedShares – block of shares reserved for the artist at
//                         tokenization; never offered for sale.
//  AvailableShares      – shares still held by the platform for sale.
//  CurrentPricePerShare – price a new purchase pays; adjusts upward
//                         with demand.
//  Status               – DRAFT, ACTIVE or TERMINATED.
//  TradingDisabled      – when true, purchases and transfers are
//                         rejected regardless of status.
//  Version              – optimistic locking counter checked on save.
//  CreatedAt            – timestamp when the song was tokenized.
//  UpdatedAt            – timestamp of the last mutation.
type FractionalSong struct {
	ID                   uint64    // fractional_songs.id
	ArtistID             uint64    // fractional_songs.artist_id
	Title                string    // fractional_songs.title
	TotalShares          uint64    // fractional_songs.total_shares
	ArtistReservedShares uint64    // fractional_songs.artist_reserved_shares
	AvailableShares      uint64    // fractional_songs.available_shares
	CurrentPricePerShare float64   // fractional_songs.current_price_per_share
	Status               string    // fractional_songs.status
	TradingDisabled      bool      // fractional_songs.trading_disabled
	Version              uint64    // fractional_songs.version
	CreatedAt            time.Time // fractional_songs.created_at
	UpdatedAt            time.Time // fractional_songs.updated_at
}
