package hashgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champii/hashgraph/common"
)

func TestApplyMembershipJoinAndLeave(t *testing.T) {
	a, b := common.PeerID(1), common.PeerID(2)
	ps := NewPeerSet(a)
	ps.Add(Peer{ID: a, Address: "a"})

	applyMembership(ps, MembershipTx{Op: Join, Peer: Peer{ID: b, Address: "b"}})
	assert.True(t, ps.Has(b))

	applyMembership(ps, MembershipTx{Op: Leave, Peer: Peer{ID: b, Address: "b"}})
	assert.False(t, ps.Has(b))
}

func TestMembershipOpString(t *testing.T) {
	assert.Equal(t, "join", Join.String())
	assert.Equal(t, "leave", Leave.String())
}

// TestApplyMembershipAtOrderedRoundAppliesThreeRoundLag covers §4.5's
// application lag: a membership transaction ordered from round r must
// not be visible in round r+2's peer set, but must be visible from
// round r+3 onward, and every round materialized afterward inherits it.
func TestApplyMembershipAtOrderedRoundAppliesThreeRoundLag(t *testing.T) {
	a, b := common.PeerID(1), common.PeerID(2)
	genesis := NewPeerSet(a)
	genesis.Add(Peer{ID: a, Address: "a"})

	rounds := NewRoundStore()
	ensureRound(rounds, 0, genesis)

	tx := MembershipTx{Op: Join, Peer: Peer{ID: b, Address: "b"}}

	applyMembershipAtOrderedRound(tx, 0, rounds, genesis)

	r2, ok := rounds.Get(2)
	require.True(t, ok)
	assert.False(t, r2.Peers.Has(b), "round r+2 must not see the membership change yet")

	r3, ok := rounds.Get(3)
	require.True(t, ok)
	assert.True(t, r3.Peers.Has(b), "round r+3 must apply the membership change")

	r4 := ensureRound(rounds, 4, genesis)
	assert.True(t, r4.Peers.Has(b), "rounds materialized after r+3 inherit the change via cloning")
}
