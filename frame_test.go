package hashgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champii/hashgraph/common"
)

// TestBuildFrameBoundsAtOneNotZero covers the fast-sync snapshot's
// exclusion of round 0 (genesis): BuildFrame never exports round 0 by
// itself, even when the round store has barely advanced, per
// get_last_frame's bound = max(1, R-4).
func TestBuildFrameBoundsAtOneNotZero(t *testing.T) {
	a := common.PeerID(1)
	ps := NewPeerSet(a)
	ps.Add(Peer{ID: a, Address: "a"})

	rounds := NewRoundStore()
	events := NewEventStore()

	r0 := ensureRound(rounds, 0, ps)
	e0 := NewEvent(0, a, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	mustInsert(t, events, e0)
	r0.AddEvent(e0.Hash, true)

	frame := BuildFrame(rounds, events)

	_, hasRoundZero := frame.Rounds[0]
	assert.False(t, hasRoundZero, "a frame built while only round 0 exists must carry no rounds")
}

// TestBuildFrameRewritesEarliestEventToSyntheticRoot ensures the
// earliest retained event per creator has its self-parent zeroed, so a
// joiner never chases a self-parent hash it will never receive.
func TestBuildFrameRewritesEarliestEventToSyntheticRoot(t *testing.T) {
	a, b := common.PeerID(1), common.PeerID(2)
	l := NewLedger(a, twoPeerGenesis(a, b))

	a0 := NewEvent(0, a, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	b0 := NewEvent(0, b, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	require.NoError(t, insertAll(t, l, a0, b0))

	prevA, prevB := a0, b0

	for i := uint64(1); i <= 4; i++ {
		ea := NewEvent(i, a, prevA.Hash, prevB.Hash, 100+i, nil, nil)
		eb := NewEvent(i, b, prevB.Hash, ea.Hash, 100+i, nil, nil)

		require.NoError(t, insertAll(t, l, ea, eb))

		prevA, prevB = ea, eb
	}

	frame, err := l.Frame(a)
	require.NoError(t, err)
	require.NotEmpty(t, frame.Rounds)

	minIDPerCreator := make(map[common.PeerID]uint64)
	eventsByCreator := make(map[common.PeerID][]*Event)

	for _, fr := range frame.Rounds {
		for creator, evs := range fr.Events {
			eventsByCreator[creator] = append(eventsByCreator[creator], evs...)

			for _, e := range evs {
				if min, ok := minIDPerCreator[creator]; !ok || e.ID < min {
					minIDPerCreator[creator] = e.ID
				}
			}
		}
	}

	for creator, evs := range eventsByCreator {
		minID := minIDPerCreator[creator]

		for _, e := range evs {
			if e.ID == minID {
				assert.Equal(t, common.ZeroHash, e.SelfParent,
					"the earliest retained event of each creator must be a synthetic root")
			} else {
				assert.NotEqual(t, common.ZeroHash, e.SelfParent,
					"only the earliest retained event of each creator should be rewritten")
			}
		}
	}
}

// TestIngestFrameSeedsEveryEventNotJustWitnesses is a regression test
// for Round.Events previously only tracking witnesses (AddWitness was
// the only insertion point): IngestFrame must re-register every framed
// event against its round, not only the ones marked Witness, or a
// joiner would silently lose non-witness events on fast-sync.
func TestIngestFrameSeedsEveryEventNotJustWitnesses(t *testing.T) {
	a := common.PeerID(1)
	ps := NewPeerSet(a)
	ps.Add(Peer{ID: a, Address: "a"})

	witness := NewEvent(0, a, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	witness.Round = 1
	witness.Witness = true

	plain := NewEvent(1, a, witness.Hash, common.ZeroHash, 101, nil, nil)
	plain.Round = 1
	plain.Witness = false

	frame := &Frame{Rounds: map[int64]*FrameRound{
		1: {
			Peers:  ps,
			Events: map[common.PeerID][]*Event{a: {witness, plain}},
		},
	}}

	rounds := NewRoundStore()
	events := NewEventStore()

	IngestFrame(frame, rounds, events)

	round, ok := rounds.Get(1)
	require.True(t, ok)

	require.Len(t, round.Events, 2, "both the witness and the plain event must be registered on the round")

	re, ok := round.Events[plain.Hash]
	require.True(t, ok, "the non-witness event must still be present in Round.Events")
	assert.False(t, re.Witness)

	_, ok = events.Get(plain.Hash)
	assert.True(t, ok, "the non-witness event must be seeded into the event store")
}
