package hashgraph

import (
	"sync"

	"github.com/champii/hashgraph/common"
)

// EventsDiff is the payload exchanged by the pull/push RPCs: what the
// sender believes it knows, the events the sender believes are new to
// the recipient, and whether the diff was truncated. Field set grounded
// on original_source's events.rs EventsDiff / Frame.
type EventsDiff struct {
	SenderID common.PeerID
	Known    map[common.PeerID]uint64
	Diff     map[common.PeerID][]*Event
	HasMore  bool
}

// byCreator holds one creator's events, indexed by sequence number, plus
// the highest sequence number seen so far.
type byCreator struct {
	events map[uint64]*Event
	last   uint64
	seen   bool
}

// EventStore holds every event currently in memory, indexed by hash and
// by (creator, sequence number). Contract grounded on spec.md §4.1 /
// original_source's events.rs Events store.
type EventStore struct {
	mu        sync.RWMutex
	byHash    map[common.Hash]*Event
	byCreator map[common.PeerID]*byCreator
}

// NewEventStore creates an empty event store.
func NewEventStore() *EventStore {
	return &EventStore{
		byHash:    make(map[common.Hash]*Event),
		byCreator: make(map[common.PeerID]*byCreator),
	}
}

func (s *EventStore) creatorEntry(creator common.PeerID) *byCreator {
	bc, ok := s.byCreator[creator]
	if !ok {
		bc = &byCreator{events: make(map[uint64]*Event)}
		s.byCreator[creator] = bc
	}

	return bc
}

// Validate applies §4.1's validation-before-accept rules without
// mutating the store.
func (s *EventStore) Validate(e *Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.validateLocked(e)
}

func (s *EventStore) validateLocked(e *Event) error {
	if _, exists := s.byHash[e.Hash]; exists {
		return ErrDuplicateEvent
	}

	bc, known := s.byCreator[e.Creator]

	var nextID uint64
	if known && bc.seen {
		nextID = bc.last + 1
	}

	if e.ID != nextID {
		return ErrSequenceMismatch
	}

	if e.SelfParent != common.ZeroHash {
		parent, ok := s.byHash[e.SelfParent]
		if !ok {
			return ErrUnknownParent
		}

		if parent.Creator != e.Creator {
			return ErrSelfParentMismatch
		}
	}

	if e.OtherParent != common.ZeroHash {
		if _, ok := s.byHash[e.OtherParent]; !ok {
			return ErrUnknownParent
		}
	}

	return nil
}

// Insert validates and stores e. If validation rejects it, Insert
// returns false together with the validation error; the bool mirrors
// the §4.1 `insert(event) -> bool` contract.
// The caller (ledger.go) is responsible for round assignment and fame
// voting; the event store itself only owns hash/creator indexing.
func (s *EventStore) Insert(e *Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateLocked(e); err != nil {
		return false, err
	}

	s.byHash[e.Hash] = e

	bc := s.creatorEntry(e.Creator)
	bc.events[e.ID] = e
	bc.last = e.ID
	bc.seen = true

	return true, nil
}

// Seed stores e without running §4.1's strict online validation.
// Frame ingestion (frame.go) needs this: a fast-sync snapshot rewrites
// each creator's earliest retained event into a synthetic root with its
// original (non-zero) sequence number, which the normal
// next-expected-id check would reject. The frame's sender is trusted to
// have produced a well-formed snapshot, the same trust boundary
// original_source's load_frame operates under.
func (s *EventStore) Seed(e *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byHash[e.Hash] = e

	bc := s.creatorEntry(e.Creator)
	bc.events[e.ID] = e

	if !bc.seen || e.ID > bc.last {
		bc.last = e.ID
	}

	bc.seen = true
}

// Get returns the event with the given hash.
func (s *EventStore) Get(hash common.Hash) (*Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byHash[hash]

	return e, ok
}

// LastOf returns the highest sequence number creator has produced.
func (s *EventStore) LastOf(creator common.PeerID) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bc, ok := s.byCreator[creator]
	if !ok || !bc.seen {
		return 0, false
	}

	return bc.last, true
}

// ByCreatorID returns the event by a creator at a given sequence number.
func (s *EventStore) ByCreatorID(creator common.PeerID, id uint64) (*Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bc, ok := s.byCreator[creator]
	if !ok {
		return nil, false
	}

	e, ok := bc.events[id]

	return e, ok
}

// Known returns, for every creator this store has seen, the highest
// sequence number known.
func (s *EventStore) Known() map[common.PeerID]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[common.PeerID]uint64, len(s.byCreator))

	for creator, bc := range s.byCreator {
		if bc.seen {
			out[creator] = bc.last
		}
	}

	return out
}

// Diff computes the events this store holds that otherKnown does not,
// per §4.1's truncation/has_more contract: creators unknown to the
// remote are sent in full; known creators are sent the open range
// (otherLast, localLast], truncated to limit events with has_more=true
// set if the gap exceeds it.
func (s *EventStore) Diff(selfID common.PeerID, otherKnown map[common.PeerID]uint64, limit int) EventsDiff {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := EventsDiff{
		SenderID: selfID,
		Known:    make(map[common.PeerID]uint64, len(s.byCreator)),
		Diff:     make(map[common.PeerID][]*Event),
	}

	for creator, bc := range s.byCreator {
		if !bc.seen {
			continue
		}

		out.Known[creator] = bc.last

		otherLast, known := otherKnown[creator]

		var from uint64
		if known {
			from = otherLast + 1
		}

		if from > bc.last {
			continue
		}

		total := bc.last - from + 1

		end := bc.last
		truncated := false

		if known && limit > 0 && total > uint64(limit) {
			end = from + uint64(limit) - 1
			truncated = true
		}

		events := make([]*Event, 0, end-from+1)

		for id := from; id <= end; id++ {
			if e, ok := bc.events[id]; ok {
				events = append(events, e)
			}
		}

		if len(events) > 0 {
			out.Diff[creator] = events
		}

		if truncated {
			out.HasMore = true
		}
	}

	return out
}

// Purge drops every event with one of the given hashes from the store.
// The creator index entry is left alone: last-known sequence numbers
// must survive a purge so Known()/Diff() stay correct even once the
// underlying events are gone.
func (s *EventStore) Purge(hashes []common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range hashes {
		e, ok := s.byHash[h]
		if !ok {
			continue
		}

		delete(s.byHash, h)

		if bc, ok := s.byCreator[e.Creator]; ok {
			delete(bc.events, e.ID)
		}
	}
}
