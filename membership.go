package hashgraph

// MembershipOp distinguishes a join from a leave request, mirroring
// original_source's internal_txs.rs PeerTxType.
type MembershipOp uint8

const (
	// Join requests that Peer be added to the peer set once the
	// membership transaction reaches consensus order.
	Join MembershipOp = iota
	// Leave requests that Peer be removed from the peer set once the
	// membership transaction reaches consensus order.
	Leave
)

func (op MembershipOp) String() string {
	if op == Leave {
		return "leave"
	}

	return "join"
}

// MembershipTx is an internal transaction carried by an event,
// requesting a peer-set change. Spec.md §4.5 requires these to take
// effect only after a 3-round application lag once ordered, grounded on
// original_source's consensus_order applying internal transactions at
// round.id+3.
type MembershipTx struct {
	Op   MembershipOp
	Peer Peer
}

// applyMembership mutates the live peer set in response to an ordered
// membership transaction.
func applyMembership(ps *PeerSet, tx MembershipTx) {
	switch tx.Op {
	case Join:
		ps.Add(tx.Peer)
	case Leave:
		ps.Remove(tx.Peer.ID)
	}
}

// applyMembershipAtOrderedRound carries out §4.5's 3-round application
// lag for a membership transaction ordered from an event in round r:
// rounds r+1..r+3 are materialized (inheriting the current peer set) if
// they don't already exist, and the change is applied to every round
// from r+3 onward that is already materialized. Since every later round
// is created by cloning its immediate predecessor's peer set, a round
// materialized after this call at id > r+3 inherits the change
// automatically; only already-existing rounds need a direct mutation.
func applyMembershipAtOrderedRound(tx MembershipTx, r int64, rounds *RoundStore, genesisPeers *PeerSet) {
	applyAt := r + 3

	ensureRound(rounds, applyAt, genesisPeers)

	rounds.AscendFrom(applyAt, func(rd *Round) bool {
		applyMembership(rd.Peers, tx)

		return true
	})
}
