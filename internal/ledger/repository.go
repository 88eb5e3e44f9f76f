package ledger

import (
	"context"
	"errors"

	"github.com/iliyamo/song-share-ledger/internal/model"
)

// ErrVersionConflict is returned by SaveAggregate when another mutation
// of the same song committed first.  Callers reload the aggregate and
// retry; the conflict is how per-song serialization is enforced without
// holding locks across the load-mutate-save cycle.
var ErrVersionConflict = errors.New("aggregate version conflict")

// Repository is the persistence port for ownership aggregates.  A
// SaveAggregate call persists the song row, every changed ShareOwnership,
// all newly appended ShareTransaction and RevenueDistribution rows and
// the raised domain events (outbox) as ONE atomic unit – a partial
// write is a correctness violation.  Implementations exist for MySQL
// and, for tests, an in-memory store.
type Repository interface {
	// LoadAggregate returns the aggregate for songID or ErrSongNotFound.
	LoadAggregate(ctx context.Context, songID uint64) (*Aggregate, error)

	// SaveAggregate persists the aggregate atomically.  A freshly
	// tokenized aggregate (version 0) is inserted and fails with
	// ErrSongAlreadyExists when the song id is taken; a loaded
	// aggregate is updated under its version counter and fails with
	// ErrVersionConflict when the check misses.
	SaveAggregate(ctx context.Context, agg *Aggregate) error

	// GetUserOwnerships returns every position the user holds across
	// all songs.
	GetUserOwnerships(ctx context.Context, userID uint64) ([]model.ShareOwnership, error)

	// GetUserRevenueForSong sums the revenue distributed to the user
	// for one song.  ok is false when the user never appeared in a
	// distribution for the song.
	GetUserRevenueForSong(ctx context.Context, userID, songID uint64) (amount RevenueAmount, ok bool, err error)
}
