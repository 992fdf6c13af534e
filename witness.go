package hashgraph

// assignRound implements §4.2's round-assignment rule: R is the
// self-parent's round, or (for a root, which has no self-parent) the
// last populated round for e's creator. e is a witness iff it is a
// root, or it strongly-sees a super-majority of round R's witnesses
// (using round R's peer set). A non-root witness advances to R+1;
// every other event stays at R.
//
// Returns the round id the round store must hold e's assignment in;
// the caller (ledger.go) materializes that round via ensureRound after
// this returns.
func assignRound(e *Event, graph *Graph, rounds *RoundStore, events *EventStore) (roundID int64, witness bool) {
	var r int64

	if e.IsRoot() {
		r = rounds.LastPopulatedFor(e.Creator)

		return r, true
	}

	parent, ok := events.Get(e.SelfParent)
	if !ok {
		return ZeroRound, false
	}

	r = parent.Round

	round, ok := rounds.Get(r)
	if !ok {
		return r, false
	}

	witnesses := round.Witnesses()
	if len(witnesses) == 0 {
		return r, false
	}

	seen := 0

	for _, w := range witnesses {
		if graph.StronglySee(e.Hash, w, round.Peers.SuperMajority()) {
			seen++
		}
	}

	if seen >= round.Peers.SuperMajority() {
		return r + 1, true
	}

	return r, false
}

// ensureRound returns the round with the given id, creating it (and
// every round between the store's current max and id) if necessary.
// A newly created round inherits its peer set from its immediate
// predecessor; round 0 is seeded with genesisPeers.
func ensureRound(rounds *RoundStore, id int64, genesisPeers *PeerSet) *Round {
	if r, ok := rounds.Get(id); ok {
		return r
	}

	if id == 0 {
		r := NewRound(0, genesisPeers.Clone())
		rounds.Set(r)

		return r
	}

	parent := ensureRound(rounds, id-1, genesisPeers)

	r := NewRound(id, parent.Peers.Clone())
	rounds.Set(r)

	return r
}
