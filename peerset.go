package hashgraph

import (
	"github.com/huandu/skiplist"

	"github.com/champii/hashgraph/common"
)

// PeerSet is the ordered set of peers a round (or a frame) is defined
// over. original_source's peers.rs keeps peers in a plain Vec and
// recomputes super_majority on every Add; this keeps the same shape but
// backs the ordering with huandu/skiplist so iteration is always in
// ascending peer-id order without a sort on every read, the way the
// round store needs it for deterministic witness enumeration.
type PeerSet struct {
	selfID        common.PeerID
	list          *skiplist.SkipList
	superMajority int
}

// NewPeerSet creates an empty peer set owned by selfID.
func NewPeerSet(selfID common.PeerID) *PeerSet {
	ps := &PeerSet{
		selfID: selfID,
		list:   skiplist.New(skiplist.Uint64),
	}

	ps.recompute()

	return ps
}

// Add inserts or replaces a peer and recomputes the super-majority
// threshold.
func (ps *PeerSet) Add(p Peer) {
	ps.list.Set(uint64(p.ID), p)
	ps.recompute()
}

// Remove drops a peer and recomputes the super-majority threshold.
func (ps *PeerSet) Remove(id common.PeerID) {
	ps.list.Remove(uint64(id))
	ps.recompute()
}

func (ps *PeerSet) recompute() {
	ps.superMajority = common.SuperMajority(ps.list.Len())
}

// Get looks up a peer by id.
func (ps *PeerSet) Get(id common.PeerID) (Peer, bool) {
	el := ps.list.Get(uint64(id))
	if el == nil {
		return Peer{}, false
	}

	return el.Value.(Peer), true
}

// Has reports whether id is a member of the set.
func (ps *PeerSet) Has(id common.PeerID) bool {
	_, ok := ps.Get(id)

	return ok
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	return ps.list.Len()
}

// SuperMajority returns ⌊2n/3⌋ + 1 for this peer set's current size.
func (ps *PeerSet) SuperMajority() int {
	return ps.superMajority
}

// Peers returns every peer in ascending peer-id order.
func (ps *PeerSet) Peers() []Peer {
	out := make([]Peer, 0, ps.list.Len())

	for el := ps.list.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Peer))
	}

	return out
}

// IDs returns every peer id in ascending order.
func (ps *PeerSet) IDs() []common.PeerID {
	out := make([]common.PeerID, 0, ps.list.Len())

	for el := ps.list.Front(); el != nil; el = el.Next() {
		out = append(out, common.PeerID(el.Key().(uint64)))
	}

	return out
}

// Clone returns a deep-enough copy of the peer set: a new ordered list
// with the same entries, safe to mutate independently. Used whenever a
// new round is materialized inheriting its parent round's membership.
func (ps *PeerSet) Clone() *PeerSet {
	clone := NewPeerSet(ps.selfID)

	for el := ps.list.Front(); el != nil; el = el.Next() {
		clone.list.Set(el.Key(), el.Value)
	}

	clone.recompute()

	return clone
}

// Random returns a peer other than self, for the gossip node's random
// peer selection (§4.8). Returns false if no such peer exists.
func (ps *PeerSet) Random(self common.PeerID, pick func(n int) int) (Peer, bool) {
	candidates := make([]Peer, 0, ps.list.Len())

	for el := ps.list.Front(); el != nil; el = el.Next() {
		p := el.Value.(Peer)
		if p.ID != self {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		return Peer{}, false
	}

	return candidates[pick(len(candidates))], true
}
