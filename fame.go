package hashgraph

// processFame runs virtual voting for the newly-inserted witness w, per
// spec.md §4.2 / original_source's process_fame. For every still-
// undecided witness u two rounds behind w, w tallies the direct
// see(p, u) votes of every round r-1 witness p that w strongly-sees,
// and settles u's fame as soon as w strongly-sees at least one such p:
// famous if the yes votes reach round r-2's super-majority, not famous
// otherwise. There is no coin-round fallback (§9); u stays undecided
// only when w strongly-sees no round r-1 witness, leaving it for a
// later round's witness to resolve.
func processFame(w *Event, rounds *RoundStore, graph *Graph) {
	if !w.Witness {
		return
	}

	r := w.Round
	if r < 2 {
		return
	}

	prevRound, ok := rounds.Get(r - 1)
	if !ok {
		return
	}

	targetRound, ok := rounds.Get(r - 2)
	if !ok {
		return
	}

	prevWitnesses := prevRound.Witnesses()

	for _, uHash := range targetRound.Witnesses() {
		u := targetRound.Events[uHash]
		if u.Famous != FameUndecided {
			continue
		}

		yes := 0
		total := 0

		for _, pHash := range prevWitnesses {
			if !graph.StronglySee(w.Hash, pHash, prevRound.Peers.SuperMajority()) {
				continue
			}

			total++

			p := prevRound.Events[pHash]

			vote, voted := p.Votes[uHash]
			if !voted {
				vote = graph.See(pHash, uHash)
				p.Votes[uHash] = vote
			}

			if vote {
				yes++
			}
		}

		if total == 0 {
			continue
		}

		if yes >= targetRound.Peers.SuperMajority() {
			u.Famous = FameTrue
		} else {
			u.Famous = FameFalse
		}
	}
}
