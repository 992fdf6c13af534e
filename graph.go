package hashgraph

import (
	"github.com/phf/go-queue/queue"

	"github.com/champii/hashgraph/cache"
	"github.com/champii/hashgraph/common"
)

// Graph answers ancestry queries over an EventStore: is-ancestor,
// is-self-ancestor, see, strongly-see, and first-descendant. Every
// query is iterative (an explicit worklist, not recursion) and
// memoized by the (hash, hash) pair it was asked about, per spec.md
// §9's note that this memoization is "mandatory for acceptable
// performance, not an optimization" — recursive+cached is how
// original_source's hashgraph.rs does it (ancestor_cache,
// self_ancestor_cache, ss_cache, ss_path_cache, first_decendant_cache);
// this reuses its cache boundaries but swaps the recursion for BFS
// worklists built on phf/go-queue, the same queue the teacher's
// machine.go uses to walk transaction ancestry in collapseTransactions.
type Graph struct {
	events *EventStore

	ancestorCache     *cache.LRU
	selfAncestorCache *cache.LRU
	ssCache           *cache.LRU
	firstDescCache    *cache.LRU
}

// NewGraph creates a Graph backed by events, with each memoization
// table bounded to capacity entries.
func NewGraph(events *EventStore, capacity int) *Graph {
	return &Graph{
		events:            events,
		ancestorCache:     cache.New(capacity),
		selfAncestorCache: cache.New(capacity),
		ssCache:           cache.New(capacity),
		firstDescCache:    cache.New(capacity),
	}
}

// IsAncestor reports whether possibleAncestor is an ancestor of e
// (reflexively: an event is its own ancestor), walking both
// self-parent and other-parent edges.
func (g *Graph) IsAncestor(e, possibleAncestor common.Hash) bool {
	key := cache.Key{A: uint64(possibleAncestor), B: uint64(e)}

	if v, ok := g.ancestorCache.Load(key); ok {
		return v.(bool)
	}

	res := g.isAncestor(e, possibleAncestor)
	g.ancestorCache.Put(key, res)

	return res
}

func (g *Graph) isAncestor(e, possibleAncestor common.Hash) bool {
	visited := make(map[common.Hash]struct{})

	q := queue.New()
	q.PushBack(e)

	for q.Len() > 0 {
		cur := q.PopFront().(common.Hash)

		if cur == possibleAncestor {
			return true
		}

		if _, seen := visited[cur]; seen {
			continue
		}

		visited[cur] = struct{}{}

		ev, ok := g.events.Get(cur)
		if !ok {
			continue
		}

		if ev.SelfParent != common.ZeroHash {
			q.PushBack(ev.SelfParent)
		}

		if ev.OtherParent != common.ZeroHash {
			q.PushBack(ev.OtherParent)
		}
	}

	return false
}

// IsSelfAncestor reports whether possibleAncestor is reachable from e by
// walking only self-parent edges (reflexive).
func (g *Graph) IsSelfAncestor(e, possibleAncestor common.Hash) bool {
	key := cache.Key{A: uint64(possibleAncestor), B: uint64(e)}

	if v, ok := g.selfAncestorCache.Load(key); ok {
		return v.(bool)
	}

	res := false
	cur := e

	for {
		if cur == possibleAncestor {
			res = true

			break
		}

		ev, ok := g.events.Get(cur)
		if !ok || ev.SelfParent == common.ZeroHash {
			break
		}

		cur = ev.SelfParent
	}

	g.selfAncestorCache.Put(key, res)

	return res
}

// See reports whether e sees possibleSee: possibleSee is an ancestor of
// e. A thin alias over IsAncestor, kept distinct because the consensus
// algorithms read more naturally in "sees" vocabulary.
func (g *Graph) See(e, possibleSee common.Hash) bool {
	return g.IsAncestor(e, possibleSee)
}

// StronglySee reports whether e strongly sees possibleSee: the set of
// distinct creators among e's ancestors that themselves see possibleSee
// reaches superMajority. superMajority is evaluated against
// possibleSee's round peer set, per original_source's
// get_decided_peers(&possible_see).super_majority.
func (g *Graph) StronglySee(e, possibleSee common.Hash, superMajority int) bool {
	key := cache.Key{A: uint64(e), B: uint64(possibleSee)}

	if v, ok := g.ssCache.Load(key); ok {
		return v.(bool)
	}

	res := g.countSeeingCreators(e, possibleSee) >= superMajority
	g.ssCache.Put(key, res)

	return res
}

func (g *Graph) countSeeingCreators(e, possibleSee common.Hash) int {
	creators := make(map[common.PeerID]struct{})
	visited := make(map[common.Hash]struct{})

	q := queue.New()
	q.PushBack(e)

	for q.Len() > 0 {
		cur := q.PopFront().(common.Hash)

		if _, seen := visited[cur]; seen {
			continue
		}

		visited[cur] = struct{}{}

		ev, ok := g.events.Get(cur)
		if !ok {
			continue
		}

		if g.IsAncestor(cur, possibleSee) {
			creators[ev.Creator] = struct{}{}
		}

		if ev.SelfParent != common.ZeroHash {
			q.PushBack(ev.SelfParent)
		}

		if ev.OtherParent != common.ZeroHash {
			q.PushBack(ev.OtherParent)
		}
	}

	return len(creators)
}

// FirstDescendant walks back from possibleDescendant along parent
// edges, taking the self-parent when it is still a descendant of event
// and otherwise the other-parent, and never stepping onto event itself.
// It returns the event where that walk stops: the earliest event on the
// path that still descends from event (event is its own first
// descendant). Used by order.go to gather each famous witness's
// first-descendant timestamps.
func (g *Graph) FirstDescendant(event, possibleDescendant common.Hash) (common.Hash, bool) {
	key := cache.Key{A: uint64(event), B: uint64(possibleDescendant)}

	if v, ok := g.firstDescCache.Load(key); ok {
		h := v.(common.Hash)

		return h, true
	}

	if !g.IsAncestor(possibleDescendant, event) {
		return common.ZeroHash, false
	}

	cur := possibleDescendant

	for cur != event {
		ev, ok := g.events.Get(cur)
		if !ok {
			break
		}

		if ev.SelfParent != common.ZeroHash && ev.SelfParent != event && g.IsAncestor(ev.SelfParent, event) {
			cur = ev.SelfParent
		} else if ev.OtherParent != common.ZeroHash && ev.OtherParent != event && g.IsAncestor(ev.OtherParent, event) {
			cur = ev.OtherParent
		} else {
			break
		}
	}

	g.firstDescCache.Put(key, cur)

	return cur, true
}

// EvictPurged drops every cache entry mentioning one of the purged
// event hashes.
func (g *Graph) EvictPurged(hashes []common.Hash) {
	set := make(map[uint64]struct{}, len(hashes))
	for _, h := range hashes {
		set[uint64(h)] = struct{}{}
	}

	g.ancestorCache.EvictMatching(set)
	g.selfAncestorCache.EvictMatching(set)
	g.ssCache.EvictMatching(set)
	g.firstDescCache.EvictMatching(set)
}
