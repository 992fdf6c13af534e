package hashgraph

import "sort"

// computeMeanTimestamp takes the sorted triple around the median of a
// set of first-descendant timestamps and averages it, the teacher's
// timestamp.go tie-smoothing choice (the three-element mean, in place
// of a plain median) carried over to this engine's consensus
// timestamping.
func computeMeanTimestamp(timestamps []uint64) uint64 {
	sorted := append([]uint64(nil), timestamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n == 0 {
		return 0
	}

	mid := n / 2

	before := mid - 1
	if before < 0 {
		before = 0
	}

	after := mid + 1
	if after >= n {
		after = n - 1
	}

	return (sorted[before] + sorted[mid] + sorted[after]) / 3
}

// finalizeReceived computes x's consensus timestamp once its received
// round has been decided: for each famous witness of that round, find
// the witness's first descendant of x (Graph.FirstDescendant), and take
// that event's timestamp. Per spec.md
// §4.2 step 3.
func finalizeReceived(x *Event, rounds *RoundStore, graph *Graph, events *EventStore) {
	round, ok := rounds.Get(x.ReceivedRound)
	if !ok {
		return
	}

	famous := round.FamousWitnesses()

	timestamps := make([]uint64, 0, len(famous))

	for _, wHash := range famous {
		descHash, ok := graph.FirstDescendant(x.Hash, wHash)
		if !ok {
			continue
		}

		desc, ok := events.Get(descHash)
		if !ok {
			continue
		}

		timestamps = append(timestamps, desc.Timestamp)
	}

	x.ConsensusTimestamp = computeMeanTimestamp(timestamps)
}

// lessDecided orders two decided events by received_round ascending,
// then consensus_timestamp ascending, then ascending event hash. The
// hash tie-break is this implementation's resolution of the open
// question spec.md §9 leaves undefined: it is cheap to compute, total
// (every event has a unique hash), and every honest node computes the
// same hash for the same event, so it preserves determinism without
// needing an extra field.
func lessDecided(a, b *Event) bool {
	if a.ReceivedRound != b.ReceivedRound {
		return a.ReceivedRound < b.ReceivedRound
	}

	if a.ConsensusTimestamp != b.ConsensusTimestamp {
		return a.ConsensusTimestamp < b.ConsensusTimestamp
	}

	return a.Hash < b.Hash
}

// SortDecided orders a batch of newly-decided events into their final
// consensus order.
func SortDecided(events []*Event) {
	sort.Slice(events, func(i, j int) bool { return lessDecided(events[i], events[j]) })
}

// PayloadOf returns e's non-empty payload transactions, in order,
// skipping empty ones per §4.2's "Emit ... skipping empty ones".
func PayloadOf(e *Event) [][]byte {
	out := make([][]byte, 0, len(e.Transactions))

	for _, tx := range e.Transactions {
		if len(tx) == 0 {
			continue
		}

		out = append(out, tx)
	}

	return out
}
