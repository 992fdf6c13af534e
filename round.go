package hashgraph

import "github.com/champii/hashgraph/common"

// Fame is the tri-state outcome of the virtual-voting fame decision for
// a witness, grounded on original_source's round.rs FamousType.
type Fame uint8

const (
	// FameUndecided means voting has not yet converged.
	FameUndecided Fame = iota
	// FameFalse means the witness was decided not famous.
	FameFalse
	// FameTrue means the witness was decided famous.
	FameTrue
)

// RoundEvent is the per-event bookkeeping a round keeps: whether the
// event is one of the round's witnesses, its fame decision once
// reached, and the in-progress vote tally used while deciding fame.
// ReceivedRound and ConsensusTimestamp are not filled in by the
// consensus engine; the decided values are kept on the Event itself.
// Mirrors original_source's RoundEvent.
type RoundEvent struct {
	Hash               common.Hash
	Witness            bool
	Famous             Fame
	ReceivedRound      int64
	ConsensusTimestamp uint64

	// Votes holds this witness's own vote, acting as a voter, about
	// every later witness it has been asked to vote on, keyed by the
	// hash of the witness being voted on. Populated lazily the first
	// time a vote is needed, then reused.
	Votes map[common.Hash]bool
}

// Round is one round of the hashgraph: every event assigned to it
// (witnesses flagged as such) and the peer set of record for assigning
// round membership to new events. Decided is not set by the consensus
// engine; allWitnessesDecided computes fame convergence on demand.
//
// original_source materializes rounds lazily up to round.id+3 ahead of
// the latest populated round whenever a membership transaction is
// ordered, so a round can exist with no events yet (membership.go,
// order.go lean on this).
type Round struct {
	ID      int64
	Events  map[common.Hash]*RoundEvent
	Peers   *PeerSet
	Decided bool
	Purged  bool
}

// NewRound creates an empty round inheriting peers from its parent
// round (or the genesis peer set for round 0).
func NewRound(id int64, peers *PeerSet) *Round {
	return &Round{
		ID:     id,
		Events: make(map[common.Hash]*RoundEvent),
		Peers:  peers,
	}
}

// AddEvent registers hash as belonging to this round, marking it a
// witness when witness is true. Mirrors original_source's Round::insert,
// which records every event in round.events and only additionally marks
// witnesses in round.witnesses.
func (r *Round) AddEvent(hash common.Hash, witness bool) *RoundEvent {
	if re, ok := r.Events[hash]; ok {
		if witness {
			re.Witness = true
		}

		return re
	}

	re := &RoundEvent{
		Hash:    hash,
		Witness: witness,
		Famous:  FameUndecided,
		Votes:   make(map[common.Hash]bool),
	}
	r.Events[hash] = re

	return re
}

// AddWitness registers hash as a witness of this round if not already
// present.
func (r *Round) AddWitness(hash common.Hash) *RoundEvent {
	return r.AddEvent(hash, true)
}

// Witnesses returns the hashes of every witness registered in this
// round.
func (r *Round) Witnesses() []common.Hash {
	out := make([]common.Hash, 0, len(r.Events))

	for h, re := range r.Events {
		if re.Witness {
			out = append(out, h)
		}
	}

	return out
}

// FamousWitnesses returns the hashes of every witness decided famous.
func (r *Round) FamousWitnesses() []common.Hash {
	out := make([]common.Hash, 0, len(r.Events))

	for h, re := range r.Events {
		if re.Witness && re.Famous == FameTrue {
			out = append(out, h)
		}
	}

	return out
}

// allWitnessesDecided reports whether every witness in this round has a
// non-undecided fame outcome; tryDecideReceived only considers the
// round as a received round once this is true.
func (r *Round) allWitnessesDecided() bool {
	for _, re := range r.Events {
		if re.Witness && re.Famous == FameUndecided {
			return false
		}
	}

	return true
}
