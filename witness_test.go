package hashgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champii/hashgraph/common"
)

func TestEnsureRoundMaterializesChainFromGenesis(t *testing.T) {
	a := common.PeerID(1)
	ps := NewPeerSet(a)
	ps.Add(Peer{ID: a, Address: "a"})

	rounds := NewRoundStore()

	r3 := ensureRound(rounds, 3, ps)
	assert.Equal(t, int64(3), r3.ID)

	for i := int64(0); i <= 3; i++ {
		r, ok := rounds.Get(i)
		require.True(t, ok, "round %d must have been materialized", i)
		assert.NotSame(t, ps, r.Peers, "each round clones its own peer set")
	}
}

func TestAssignRoundRootIsAlwaysWitness(t *testing.T) {
	a := common.PeerID(1)
	ps := NewPeerSet(a)
	ps.Add(Peer{ID: a, Address: "a"})

	events, graph := newTestGraph()
	rounds := NewRoundStore()

	root := NewEvent(0, a, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	mustInsert(t, events, root)

	roundID, witness := assignRound(root, graph, rounds, events)
	assert.Equal(t, int64(0), roundID)
	assert.True(t, witness)
}

func TestAssignRoundUnknownSelfParentIsRejected(t *testing.T) {
	a := common.PeerID(1)
	events, graph := newTestGraph()
	rounds := NewRoundStore()

	orphan := NewEvent(1, a, common.Hash(999), common.ZeroHash, 100, nil, nil)

	roundID, witness := assignRound(orphan, graph, rounds, events)
	assert.Equal(t, ZeroRound, roundID)
	assert.False(t, witness)
}

func TestAssignRoundAdvancesOnSuperMajorityStronglySee(t *testing.T) {
	a, b := common.PeerID(1), common.PeerID(2)
	ps := NewPeerSet(a)
	ps.Add(Peer{ID: a, Address: "a"})
	ps.Add(Peer{ID: b, Address: "b"})

	l := NewLedger(a, ps)

	a0 := NewEvent(0, a, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	b0 := NewEvent(0, b, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	a1 := NewEvent(1, a, a0.Hash, b0.Hash, 200, nil, nil)
	b1 := NewEvent(1, b, b0.Hash, a1.Hash, 300, nil, nil)

	require.NoError(t, insertAll(t, l, a0, b0, a1, b1))

	assert.Equal(t, int64(0), a1.Round)
	assert.False(t, a1.Witness)
	assert.Equal(t, int64(1), b1.Round)
	assert.True(t, b1.Witness)
}
