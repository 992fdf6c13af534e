package hashgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champii/hashgraph/cache"
	"github.com/champii/hashgraph/common"
)

func newTestGraph() (*EventStore, *Graph) {
	events := NewEventStore()

	return events, NewGraph(events, 1024)
}

func mustInsert(t *testing.T, events *EventStore, e *Event) {
	t.Helper()

	ok, err := events.Insert(e)
	require.NoError(t, err)
	require.True(t, ok)
}

// a 4-event DAG shaped like spec.md §8 scenario 1: a0, b0 roots,
// a1(self=a0, other=b0), b1(self=b0, other=a1).
func seedAncestryDAG(t *testing.T) (events *EventStore, graph *Graph, a0, b0, a1, b1 *Event) {
	a, b := common.PeerID(1), common.PeerID(2)

	events, graph = newTestGraph()

	a0 = NewEvent(0, a, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	b0 = NewEvent(0, b, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	a1 = NewEvent(1, a, a0.Hash, b0.Hash, 200, nil, nil)
	b1 = NewEvent(1, b, b0.Hash, a1.Hash, 300, nil, nil)

	for _, e := range []*Event{a0, b0, a1, b1} {
		mustInsert(t, events, e)
	}

	return events, graph, a0, b0, a1, b1
}

func TestIsAncestorReflexiveAndTransitive(t *testing.T) {
	_, graph, a0, b0, a1, b1 := seedAncestryDAG(t)

	assert.True(t, graph.IsAncestor(a0.Hash, a0.Hash))
	assert.True(t, graph.IsAncestor(a1.Hash, a0.Hash))
	assert.True(t, graph.IsAncestor(b1.Hash, a0.Hash))
	assert.True(t, graph.IsAncestor(b1.Hash, b0.Hash))
	assert.False(t, graph.IsAncestor(a0.Hash, b0.Hash))
	assert.False(t, graph.IsAncestor(a0.Hash, a1.Hash))
}

func TestIsSelfAncestorWalksOnlySelfParentChain(t *testing.T) {
	_, graph, a0, b0, a1, _ := seedAncestryDAG(t)

	assert.True(t, graph.IsSelfAncestor(a1.Hash, a0.Hash))
	assert.False(t, graph.IsSelfAncestor(a1.Hash, b0.Hash))
}

func TestStronglySeeDistinguishesB1FromA1(t *testing.T) {
	_, graph, a0, _, a1, b1 := seedAncestryDAG(t)

	assert.True(t, graph.StronglySee(b1.Hash, a0.Hash, 2))
	assert.False(t, graph.StronglySee(a1.Hash, a0.Hash, 2))
}

func TestFirstDescendantFindsEarliestCrossingEvent(t *testing.T) {
	_, graph, a0, _, a1, b1 := seedAncestryDAG(t)

	desc, ok := graph.FirstDescendant(a0.Hash, b1.Hash)
	require.True(t, ok)
	assert.Equal(t, a1.Hash, desc)

	// the root itself is its own first descendant of itself.
	desc, ok = graph.FirstDescendant(a0.Hash, a0.Hash)
	require.True(t, ok)
	assert.Equal(t, a0.Hash, desc)
}

func TestFirstDescendantFalseWhenNotDescendant(t *testing.T) {
	_, graph, _, b0, a1, _ := seedAncestryDAG(t)

	_, ok := graph.FirstDescendant(a1.Hash, b0.Hash)
	assert.False(t, ok)
}

func TestEvictPurgedDropsCacheEntries(t *testing.T) {
	_, graph, a0, _, a1, b1 := seedAncestryDAG(t)

	// warm every cache.
	graph.IsAncestor(a1.Hash, a0.Hash)
	graph.IsSelfAncestor(a1.Hash, a0.Hash)
	graph.StronglySee(b1.Hash, a0.Hash, 2)
	graph.FirstDescendant(a0.Hash, b1.Hash)

	graph.EvictPurged([]common.Hash{a0.Hash})

	key := cache.Key{A: uint64(a0.Hash), B: uint64(a1.Hash)}
	_, ok := graph.ancestorCache.Load(key)
	assert.False(t, ok, "evicting a0 must drop cache entries mentioning it")
}
