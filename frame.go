package hashgraph

import (
	"sort"

	"github.com/champii/hashgraph/common"
)

// FrameRound is one round's worth of a Frame snapshot: the peer set of
// record for that round, and every event created in it, grouped by
// creator and ordered by sequence number.
type FrameRound struct {
	Peers  *PeerSet
	Events map[common.PeerID][]*Event
}

// Frame is the bounded recent-rounds snapshot used to fast-sync a new
// joiner (§4.6), grounded on original_source's get_last_frame.
type Frame struct {
	Rounds map[int64]*FrameRound
}

// BuildFrame exports the last up to five rounds, bounded below by
// max(1, R-4) where R is the highest populated round, per
// original_source's get_last_frame. The earliest retained event of
// every creator has its self-parent reset to the zero hash, since the
// event it pointed to will not be part of the snapshot; a joiner
// ingesting the frame treats each such event as a fresh root for that
// creator.
func BuildFrame(rounds *RoundStore, events *EventStore) *Frame {
	top := rounds.Max()

	bound := top - 4
	if bound < 1 {
		bound = 1
	}

	frame := &Frame{Rounds: make(map[int64]*FrameRound)}

	earliestPerCreator := make(map[common.PeerID]*Event)

	rounds.AscendFrom(bound, func(r *Round) bool {
		fr := &FrameRound{
			Peers:  r.Peers.Clone(),
			Events: make(map[common.PeerID][]*Event),
		}

		for hash := range r.Events {
			e, ok := events.Get(hash)
			if !ok {
				continue
			}

			fr.Events[e.Creator] = append(fr.Events[e.Creator], e)

			if cur, ok := earliestPerCreator[e.Creator]; !ok || e.ID < cur.ID {
				earliestPerCreator[e.Creator] = e
			}
		}

		for _, evs := range fr.Events {
			sort.Slice(evs, func(i, j int) bool { return evs[i].ID < evs[j].ID })
		}

		frame.Rounds[r.ID] = fr

		return true
	})

	for creator, earliest := range earliestPerCreator {
		clone := *earliest
		clone.SelfParent = common.ZeroHash

		for _, fr := range frame.Rounds {
			for i, e := range fr.Events[creator] {
				if e.Hash == earliest.Hash {
					fr.Events[creator][i] = &clone
				}
			}
		}
	}

	return frame
}

// IngestFrame loads a Frame into empty event/round stores, the
// counterpart a joining peer runs after fast_sync. Every event in the
// frame is inserted as-is (the exporter already rewrote each creator's
// earliest retained event into a synthetic root), and every round is
// materialized with the peer set the frame carries for it.
func IngestFrame(frame *Frame, rounds *RoundStore, events *EventStore) {
	for id, fr := range frame.Rounds {
		round := NewRound(id, fr.Peers.Clone())

		for _, evs := range fr.Events {
			for _, e := range evs {
				events.Seed(e)

				round.AddEvent(e.Hash, e.Witness)
			}
		}

		rounds.Set(round)
	}
}
