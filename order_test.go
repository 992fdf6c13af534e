package hashgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/champii/hashgraph/common"
)

func TestComputeMeanTimestampOddCount(t *testing.T) {
	assert.Equal(t, uint64(20), computeMeanTimestamp([]uint64{30, 10, 20}))
}

func TestComputeMeanTimestampClampsAtEdges(t *testing.T) {
	assert.Equal(t, uint64(10), computeMeanTimestamp([]uint64{10}))
	assert.Equal(t, uint64(16), computeMeanTimestamp([]uint64{10, 20}))
	assert.Equal(t, uint64(0), computeMeanTimestamp(nil))
}

func TestLessDecidedOrdersByReceivedRoundFirst(t *testing.T) {
	a := &Event{ReceivedRound: 1, ConsensusTimestamp: 500, Hash: common.Hash(9)}
	b := &Event{ReceivedRound: 2, ConsensusTimestamp: 100, Hash: common.Hash(1)}

	assert.True(t, lessDecided(a, b))
	assert.False(t, lessDecided(b, a))
}

func TestLessDecidedFallsBackToTimestampThenHash(t *testing.T) {
	a := &Event{ReceivedRound: 1, ConsensusTimestamp: 100, Hash: common.Hash(9)}
	b := &Event{ReceivedRound: 1, ConsensusTimestamp: 200, Hash: common.Hash(1)}
	assert.True(t, lessDecided(a, b))

	c := &Event{ReceivedRound: 1, ConsensusTimestamp: 100, Hash: common.Hash(1)}
	d := &Event{ReceivedRound: 1, ConsensusTimestamp: 100, Hash: common.Hash(2)}
	assert.True(t, lessDecided(c, d))
	assert.False(t, lessDecided(d, c))
}

func TestSortDecidedIsStableUnderFinalOrder(t *testing.T) {
	events := []*Event{
		{ReceivedRound: 2, ConsensusTimestamp: 10, Hash: common.Hash(1)},
		{ReceivedRound: 1, ConsensusTimestamp: 999, Hash: common.Hash(2)},
		{ReceivedRound: 1, ConsensusTimestamp: 50, Hash: common.Hash(3)},
	}

	SortDecided(events)

	assert.Equal(t, common.Hash(3), events[0].Hash)
	assert.Equal(t, common.Hash(2), events[1].Hash)
	assert.Equal(t, common.Hash(1), events[2].Hash)
}

func TestPayloadOfSkipsEmptyTransactions(t *testing.T) {
	e := &Event{Transactions: [][]byte{[]byte("a"), {}, []byte("b"), nil}}

	out := PayloadOf(e)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, out)
}
