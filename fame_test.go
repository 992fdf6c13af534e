package hashgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champii/hashgraph/common"
)

// TestProcessFameSettlesUnanimousVote runs 3 peers through 6
// round-robin passes, each new event other-parenting the next peer's
// latest, and checks that processFame has settled at least one round-0
// witness famous by the end.
func TestProcessFameSettlesUnanimousVote(t *testing.T) {
	peers := []common.PeerID{1, 2, 3}

	ps := NewPeerSet(peers[0])
	for _, p := range peers {
		ps.Add(Peer{ID: p, Address: "peer"})
	}

	l := NewLedger(peers[0], ps)

	last := make(map[common.PeerID]*Event, 3)
	ts := uint64(100)

	for _, p := range peers {
		e := NewEvent(0, p, common.ZeroHash, common.ZeroHash, ts, nil, nil)
		require.NoError(t, insertAll(t, l, e))
		last[p] = e
		ts++
	}

	for round := 0; round < 6; round++ {
		for i, p := range peers {
			other := peers[(i+1)%len(peers)]

			e := NewEvent(last[p].ID+1, p, last[p].Hash, last[other].Hash, ts, nil, nil)
			require.NoError(t, insertAll(t, l, e))
			last[p] = e
			ts++
		}
	}

	r0, ok := l.rounds.Get(0)
	require.True(t, ok)

	decidedFamous := 0
	for _, re := range r0.Events {
		if re.Witness && re.Famous == FameTrue {
			decidedFamous++
		}
	}

	assert.Greater(t, decidedFamous, 0, "round 0's witnesses should have converged to famous given 6 rounds of cross-referencing")
}

func TestRoundAllWitnessesDecidedFalseWhileUndecided(t *testing.T) {
	r := NewRound(0, NewPeerSet(common.PeerID(1)))
	r.AddEvent(common.Hash(1), true)

	assert.False(t, r.allWitnessesDecided())

	r.Events[common.Hash(1)].Famous = FameTrue
	assert.True(t, r.allWitnessesDecided())
}
