package hashgraph

// tryDecideReceived attempts to settle x's round-received decision, per
// spec.md §4.2. It scans candidate rounds i = x.round+1, x.round+2, ...
// in order and stops without a decision at the first round whose fame
// is not yet fully decided. Before that point, the first round that
// holds at least one famous witness, and whose every famous witness
// sees x, becomes x's received round. Returns true iff a decision was
// reached.
func tryDecideReceived(x *Event, rounds *RoundStore, graph *Graph) bool {
	for i := x.Round + 1; i <= rounds.Max(); i++ {
		round, ok := rounds.Get(i)
		if !ok {
			return false
		}

		if !round.allWitnessesDecided() {
			return false
		}

		famous := round.FamousWitnesses()
		if len(famous) == 0 {
			continue
		}

		allSee := true

		for _, wHash := range famous {
			if !graph.See(wHash, x.Hash) {
				allSee = false

				break
			}
		}

		if allSee {
			x.ReceivedRound = i

			return true
		}
	}

	return false
}
