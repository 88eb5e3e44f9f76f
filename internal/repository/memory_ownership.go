package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
)

// MemoryOwnershipStore is the in-memory adapter of the ledger.Repository
// port.  It mirrors the MySQL adapter's semantics – atomic saves,
// version conflicts, duplicate-song and duplicate-period detection –
// behind a single mutex, which also gives tests the same per-song
// serialization guarantee the version counter provides in production.
type MemoryOwnershipStore struct {
	mu     sync.Mutex
	policy ledger.Policy
	songs  map[uint64]*memorySong
}

type memorySong struct {
	song     model.FractionalSong
	holdings map[uint64]model.ShareOwnership
	txns     map[string]model.ShareTransaction
	dists    []model.RevenueDistribution
	periods  []string
	outbox   []OutboxEvent
}

// NewMemoryOwnershipStore returns an empty in-memory store.
func NewMemoryOwnershipStore(policy ledger.Policy) *MemoryOwnershipStore {
	return &MemoryOwnershipStore{policy: policy, songs: make(map[uint64]*memorySong)}
}

// LoadAggregate rebuilds the aggregate from copies of the stored state.
func (s *MemoryOwnershipStore) LoadAggregate(ctx context.Context, songID uint64) (*ledger.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.songs[songID]
	if !ok {
		return nil, ledger.ErrSongNotFound
	}
	song := st.song
	holdings := make([]model.ShareOwnership, 0, len(st.holdings))
	for _, h := range st.holdings {
		holdings = append(holdings, h)
	}
	var open []model.ShareTransaction
	for _, t := range st.txns {
		if t.Open() {
			open = append(open, t)
		}
	}
	periods := append([]string(nil), st.periods...)
	return ledger.Rehydrate(&song, holdings, open, periods, s.policy), nil
}

// SaveAggregate applies every collected change atomically under the
// store lock, with the same version semantics as the MySQL adapter.
func (s *MemoryOwnershipStore) SaveAggregate(ctx context.Context, agg *ledger.Aggregate) error {
	if err := agg.Invariant(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	song := agg.Song
	st, exists := s.songs[song.ID]
	if song.Version == 0 {
		if exists {
			return ledger.ErrSongAlreadyExists
		}
		st = &memorySong{
			holdings: make(map[uint64]model.ShareOwnership),
			txns:     make(map[string]model.ShareTransaction),
		}
		s.songs[song.ID] = st
	} else {
		if !exists || st.song.Version != song.Version {
			return ledger.ErrVersionConflict
		}
	}

	for _, d := range agg.NewDistributions() {
		for _, p := range st.periods {
			if p == d.Period {
				return &ledger.RevenueDistributionError{SongID: d.SongID, Period: d.Period, Reason: "period already distributed"}
			}
		}
	}

	song.Version++
	st.song = *song
	for _, h := range agg.Holdings() {
		st.holdings[h.UserID] = h
	}
	for _, uid := range agg.DeletedHoldings() {
		delete(st.holdings, uid)
	}
	for _, t := range agg.DirtyTransactions() {
		st.txns[t.ID] = *t
	}
	for _, d := range agg.NewDistributions() {
		st.dists = append(st.dists, *d)
		st.periods = append(st.periods, d.Period)
	}
	for _, ev := range agg.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		st.outbox = append(st.outbox, OutboxEvent{
			SongID:    song.ID,
			EventType: ev.EventName(),
			Payload:   payload,
		})
	}
	return nil
}

// GetUserOwnerships returns every position the user holds across all
// songs.
func (s *MemoryOwnershipStore) GetUserOwnerships(ctx context.Context, userID uint64) ([]model.ShareOwnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ShareOwnership
	for _, st := range s.songs {
		if h, ok := st.holdings[userID]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

// GetUserRevenueForSong sums the user's payouts across the song's
// distributions.
func (s *MemoryOwnershipStore) GetUserRevenueForSong(ctx context.Context, userID, songID uint64) (ledger.RevenueAmount, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.songs[songID]
	if !ok {
		return ledger.RevenueAmount{}, false, nil
	}
	var cents int64
	found := false
	for _, d := range st.dists {
		for _, p := range d.Payouts {
			if p.HolderID == userID {
				cents += p.AmountCents
				found = true
			}
		}
	}
	if !found {
		return ledger.RevenueAmount{}, false, nil
	}
	return ledger.CentsToAmount(cents), true, nil
}

// Transactions returns copies of every ledger entry recorded for a
// song, for tests.
func (s *MemoryOwnershipStore) Transactions(songID uint64) []model.ShareTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.songs[songID]
	if !ok {
		return nil
	}
	out := make([]model.ShareTransaction, 0, len(st.txns))
	for _, t := range st.txns {
		out = append(out, t)
	}
	return out
}

// Outbox returns the events appended for a song, in order, for tests.
func (s *MemoryOwnershipStore) Outbox(songID uint64) []OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.songs[songID]
	if !ok {
		return nil
	}
	return append([]OutboxEvent(nil), st.outbox...)
}
