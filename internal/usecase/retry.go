package usecase

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
)

// conflictRetries bounds how often a mutation is replayed when another
// writer bumps the song version between our load and save.
const conflictRetries = 3

// mutate loads the aggregate, applies fn and saves, retrying the whole
// cycle on a stale version.  Every retry re-runs fn against fresh
// state, so fn must be a pure function of the aggregate it is given.
func mutate(ctx context.Context, repo ledger.Repository, songID uint64, fn func(*ledger.Aggregate) error) (*ledger.Aggregate, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		agg, err := repo.LoadAggregate(ctx, songID)
		if err != nil {
			return nil, err
		}
		if err := fn(agg); err != nil {
			return nil, err
		}
		if err := repo.SaveAggregate(ctx, agg); err != nil {
			if errors.Is(err, ledger.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return agg, nil
	}
	return nil, lastErr
}

// randomID returns a non-zero 63-bit identifier.  Songs get their id
// before the first save so the insert, the outbox rows and the
// response all agree on it.
func randomID() uint64 {
	for {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			// crypto/rand failing is unrecoverable; fall back to the
			// clock rather than return a constant.
			return uint64(time.Now().UnixNano()) >> 1
		}
		id := binary.BigEndian.Uint64(b[:]) >> 1
		if id != 0 {
			return id
		}
	}
}
