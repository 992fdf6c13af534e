package hashgraph

import "github.com/champii/hashgraph/common"

// purgeLag is how many rounds behind the maximum consensus-
// ordered round are kept in memory. Rounds with id <= M-purgeLag are
// dropped, per spec.md §4.7.
const purgeLag = 5

// Purge drops every round with id <= M-5 (where M is the maximum round
// to have had events consensus-ordered), along with their events and
// any memoization cache entry mentioning one of those events.
func Purge(maxOrderedRound int64, rounds *RoundStore, events *EventStore, graph *Graph) {
	if maxOrderedRound <= purgeLag {
		return
	}

	cutoff := maxOrderedRound - purgeLag

	var purgedHashes []common.Hash

	rounds.Ascend(func(r *Round) bool {
		if r.ID > cutoff {
			return false
		}

		if r.Purged {
			return true
		}

		for h := range r.Events {
			purgedHashes = append(purgedHashes, h)
		}

		r.Purged = true
		r.Events = make(map[common.Hash]*RoundEvent)

		return true
	})

	if len(purgedHashes) == 0 {
		return
	}

	events.Purge(purgedHashes)
	graph.EvictPurged(purgedHashes)

	for id := range purgedRoundIDsUpTo(rounds, cutoff) {
		rounds.Delete(id)
	}
}

// purgedRoundIDsUpTo collects the ids of every round with id <= cutoff
// still present in the store, so Purge can drop them from the round
// store entirely once their contents have been evicted.
func purgedRoundIDsUpTo(rounds *RoundStore, cutoff int64) map[int64]struct{} {
	ids := make(map[int64]struct{})

	rounds.Ascend(func(r *Round) bool {
		if r.ID > cutoff {
			return false
		}

		ids[r.ID] = struct{}{}

		return true
	})

	return ids
}
