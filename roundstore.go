package hashgraph

import (
	"sync"

	"github.com/google/btree"

	"github.com/champii/hashgraph/common"
)

// roundItem adapts *Round to btree.Item, ordering rounds by id. The
// round store needs ordered-by-id range scans (BuildFrame ascends from
// its lower bound, purge walks from the oldest round forward,
// LastPopulatedFor descends from the newest), which is exactly what
// google/btree gives over a plain map.
type roundItem struct {
	round *Round
}

func (a roundItem) Less(than btree.Item) bool {
	return a.round.ID < than.(roundItem).round.ID
}

// RoundStore is the ordered-by-id collection of every round still held
// in memory.
type RoundStore struct {
	mu   sync.RWMutex
	tree *btree.BTree
	max  int64
	have bool
}

// NewRoundStore creates an empty round store.
func NewRoundStore() *RoundStore {
	return &RoundStore{tree: btree.New(8)}
}

// Get returns the round with the given id, if still held.
func (s *RoundStore) Get(id int64) (*Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item := s.tree.Get(roundItem{round: &Round{ID: id}})
	if item == nil {
		return nil, false
	}

	return item.(roundItem).round, true
}

// Set inserts or replaces a round.
func (s *RoundStore) Set(r *Round) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree.ReplaceOrInsert(roundItem{round: r})

	if !s.have || r.ID > s.max {
		s.max = r.ID
		s.have = true
	}
}

// Delete removes a round by id, used by purge.go.
func (s *RoundStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree.Delete(roundItem{round: &Round{ID: id}})
}

// LastPopulatedFor returns the highest round id whose peer set already
// admits creator, falling back to 0 if no round has ever admitted it.
// Grounds original_source's get_last_populated_round, which scans
// rounds descending for the first whose peers.get_by_id(event.creator)
// resolves (hashgraph.rs's own event-count check is dead, commented-out
// code in that file, not the logic it actually runs) — used by
// get_decided_peers's peer-set-of-record fallback and by assignRound's
// root-event branch.
func (s *RoundStore) LastPopulatedFor(creator common.PeerID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found int64
	var ok bool

	s.tree.Descend(func(item btree.Item) bool {
		r := item.(roundItem).round
		if r.Peers.Has(creator) {
			found = r.ID
			ok = true

			return false
		}

		return true
	})

	if !ok {
		return 0
	}

	return found
}

// Max returns the highest round id ever inserted.
func (s *RoundStore) Max() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.max
}

// Ascend walks every round in ascending id order, stopping early if fn
// returns false.
func (s *RoundStore) Ascend(fn func(r *Round) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.tree.Ascend(func(item btree.Item) bool {
		return fn(item.(roundItem).round)
	})
}

// AscendFrom walks every round with id >= from in ascending order.
func (s *RoundStore) AscendFrom(from int64, fn func(r *Round) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.tree.AscendGreaterOrEqual(roundItem{round: &Round{ID: from}}, func(item btree.Item) bool {
		return fn(item.(roundItem).round)
	})
}

// Len returns the number of rounds currently held.
func (s *RoundStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Len()
}
