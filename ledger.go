// Package hashgraph implements the event DAG and consensus engine: event
// ingestion, ancestry queries, round assignment, witness identification,
// fame voting, round-received decision, consensus timestamping, final
// ordering, and dynamic membership, plus the gossip-sync protocol that
// keeps honest peers' DAGs eventually equal.
package hashgraph

import (
	"sync"
	"time"

	"github.com/perlin-network/noise/identity"

	"github.com/champii/hashgraph/common"
	"github.com/champii/hashgraph/keys"
	"github.com/champii/hashgraph/log"
	"github.com/champii/hashgraph/store"
	"github.com/champii/hashgraph/wire"
)

// snapshotKey is the single key an optional disk-backed store.KV holds
// a serialized recent-rounds snapshot under, per SaveSnapshot.
const snapshotKey = "hashgraph:frame"

const defaultCacheCapacity = 1 << 16

// Ledger is the single-writer owner of the event store, round store, and
// ancestry cache for one node. Every mutation — inserting a received
// event, authoring a self event, applying a consensus-ordered
// membership change, purging old rounds — runs under Ledger.mu, mirroring
// the teacher's machine.go Ledger: one struct fronting every owned store,
// exposing read methods a gossip task can call between acquiring and
// releasing the write lock.
type Ledger struct {
	mu sync.Mutex

	selfID common.PeerID

	events *EventStore
	rounds *RoundStore
	graph  *Graph

	genesisPeers *PeerSet

	// kp signs every event this node authors, if set via SetKeypair. A
	// nil kp produces unsigned events, which insertLocked's signature
	// check accepts from any peer whose Peer.PublicKey is itself empty
	// (e.g. every test in this package, which never populates it).
	kp identity.Keypair

	undecided map[common.Hash]*Event

	maxOrderedRound int64

	// Output receives decided events, in final consensus order, for
	// callers that need the full event (round, timestamps, creator) —
	// the status API broadcasts from this channel. Nil is a valid
	// value (ledgers used purely for read-side queries, e.g. in tests,
	// need not drain anything).
	Output chan *Event

	// Payloads receives every decided event's non-empty payload
	// transactions, in final consensus order: the ordered sequence of
	// raw byte-strings external application consumers read, one per
	// decided transaction, empty payloads filtered. Fed by PayloadOf
	// alongside Output. Nil is a valid value, same as Output.
	Payloads chan []byte
}

// NewLedger creates a Ledger for selfID. genesisPeers seeds round 0's
// peer set and is the fallback round-0 membership JoinSelfEvent's root
// event relies on before any ingested/materialized round admits
// selfID; both a node that bootstraps the network and one that is
// about to join an existing one pass a set containing only themselves.
func NewLedger(selfID common.PeerID, genesisPeers *PeerSet) *Ledger {
	events := NewEventStore()

	return &Ledger{
		selfID:          selfID,
		events:          events,
		rounds:          NewRoundStore(),
		graph:           NewGraph(events, defaultCacheCapacity),
		genesisPeers:    genesisPeers,
		undecided:       make(map[common.Hash]*Event),
		maxOrderedRound: 0,
		Output:          make(chan *Event, 1024),
		Payloads:        make(chan []byte, 1024),
	}
}

// SetKeypair assigns the keypair this node signs its own events with.
// Optional: a ledger with no keypair set authors unsigned events, which
// is how every test in this package builds self events.
func (l *Ledger) SetKeypair(kp identity.Keypair) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.kp = kp
}

// signEvent signs e's hash with l's keypair, if one is set, per §3's
// Peer/Event signing contract. Call before insertLocked so the
// signature is present for round/peer bookkeeping and for any other
// node that later validates e.
func (l *Ledger) signEvent(e *Event) {
	if l.kp == nil {
		return
	}

	sig, err := keys.Sign(l.kp, e.Hash.Bytes())
	if err != nil {
		log.Consensus("sign").Error().Err(err).Msg("failed to sign self event")

		return
	}

	e.Signature = sig
}

// Bootstrap inserts this node's root event, carrying a self-Join
// membership transaction, per spec.md §4.5: "The first peer bootstraps
// with a peer set of itself and an initial root event carrying a
// self-Join membership transaction."
func (l *Ledger) Bootstrap(selfPeer Peer) (*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.events.LastOf(l.selfID); ok {
		return nil, ErrAlreadyBootstrapped
	}

	e := NewEvent(0, l.selfID, common.ZeroHash, common.ZeroHash, nowMicros(), nil,
		[]MembershipTx{{Op: Join, Peer: selfPeer}})

	l.signEvent(e)

	ok, err := l.insertLocked(e)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrUnknownPeer
	}

	return e, nil
}

// JoinSelfEvent inserts this node's own root event into the stores
// IngestFrame just populated, for a node that fast-synced into an
// existing network rather than bootstrapping a new one. Unlike
// Bootstrap, it carries no self-Join membership transaction: the
// admitting peer already queued that Join when it served ask_join
// (node.go's serveAskJoin), so attaching a second one here would
// double-submit it. AddSelfEvent cannot stand in for this, since it
// hard-requires a pre-existing LastOf(selfID) this node does not have
// until this call succeeds.
func (l *Ledger) JoinSelfEvent() (*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.events.LastOf(l.selfID); ok {
		return nil, ErrAlreadyBootstrapped
	}

	e := NewEvent(0, l.selfID, common.ZeroHash, common.ZeroHash, nowMicros(), nil, nil)

	l.signEvent(e)

	ok, err := l.insertLocked(e)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrUnknownPeer
	}

	return e, nil
}

// AddSelfEvent builds and inserts a new event authored by this node, per
// §4.4: id = last_self.id+1, self_parent = last_self.hash, other_parent
// as given (the gossip loop sets this to the sync peer's last known
// event; 0 otherwise), current microsecond timestamp.
func (l *Ledger) AddSelfEvent(otherParent common.Hash, payload [][]byte, internal []MembershipTx) (*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lastID, ok := l.events.LastOf(l.selfID)
	if !ok {
		return nil, ErrNoSelfRoot
	}

	lastEvent, ok := l.events.ByCreatorID(l.selfID, lastID)
	if !ok {
		return nil, ErrUnknownParent
	}

	e := NewEvent(lastID+1, l.selfID, lastEvent.Hash, otherParent, nowMicros(), payload, internal)

	l.signEvent(e)

	ok, err := l.insertLocked(e)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrUnknownPeer
	}

	return e, nil
}

// Insert runs the full §4.3 insertion pipeline for a received event:
// validate, compute round, reject unknown peer, insert into event and
// round store, vote on fame, decide round-received, emit consensus
// output.
func (l *Ledger) Insert(e *Event) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.insertLocked(e)
}

func (l *Ledger) insertLocked(e *Event) (bool, error) {
	if err := l.events.Validate(e); err != nil {
		return false, err
	}

	roundID, witness := assignRound(e, l.graph, l.rounds, l.events)
	if roundID == ZeroRound {
		return false, ErrUnknownParent
	}

	round := ensureRound(l.rounds, roundID, l.genesisPeers)

	peer, ok := round.Peers.Get(e.Creator)
	if !ok {
		return false, ErrUnknownPeer
	}

	// Only peers whose public key is actually on file are checked: a
	// peer admitted with no recorded key (every test ledger's Peer
	// literals, which never populate PublicKey) is trusted unsigned,
	// matching §1's scoping of signature verification internals out of
	// the core engine down to this functional contract.
	if len(peer.PublicKey) > 0 {
		if len(e.Signature) == 0 || !keys.Verify(peer.PublicKey, e.Hash.Bytes(), e.Signature) {
			return false, ErrInvalidSignature
		}
	}

	e.Round = roundID
	e.Witness = witness

	ok, err := l.events.Insert(e)
	if err != nil || !ok {
		return false, err
	}

	round.AddEvent(e.Hash, witness)

	l.undecided[e.Hash] = e

	if witness {
		processFame(e, l.rounds, l.graph)
	}

	l.decideAndEmit()

	return true, nil
}

// decideAndEmit scans the undecided set for events whose round-received
// decision has now settled, finalizes their consensus timestamp,
// applies any membership transactions they carry, sorts the
// newly-decided batch into final order, and streams it onto Output.
func (l *Ledger) decideAndEmit() {
	var decided []*Event

	for hash, x := range l.undecided {
		if tryDecideReceived(x, l.rounds, l.graph) {
			finalizeReceived(x, l.rounds, l.graph, l.events)

			decided = append(decided, x)

			delete(l.undecided, hash)
		}
	}

	if len(decided) == 0 {
		return
	}

	SortDecided(decided)

	maxRound := l.maxOrderedRound

	for _, x := range decided {
		for _, tx := range x.InternalTxs {
			applyMembershipAtOrderedRound(tx, x.Round, l.rounds, l.genesisPeers)
		}

		if x.Round > maxRound {
			maxRound = x.Round
		}

		if l.Output != nil {
			l.Output <- x
		}

		if l.Payloads != nil {
			for _, payload := range PayloadOf(x) {
				l.Payloads <- payload
			}
		}

		log.Consensus("decided").Info().
			Uint64("id", x.ID).
			Uint64("creator", uint64(x.Creator)).
			Int64("received_round", x.ReceivedRound).
			Msg("event reached consensus order")
	}

	l.maxOrderedRound = maxRound

	Purge(maxRound, l.rounds, l.events, l.graph)
}

// Known returns, for every creator this ledger has seen, the highest
// sequence number known. Safe to call concurrently with Insert; the
// gossip task calls this, releases any lock, round-trips to a peer, and
// only re-acquires write access (via Insert) to merge the reply.
func (l *Ledger) Known() map[common.PeerID]uint64 {
	return l.events.Known()
}

// Diff computes the events this ledger holds that otherKnown does not.
func (l *Ledger) Diff(otherKnown map[common.PeerID]uint64, limit int) EventsDiff {
	return l.events.Diff(l.selfID, otherKnown, limit)
}

// SelfID returns this node's peer id.
func (l *Ledger) SelfID() common.PeerID {
	return l.selfID
}

// LastSelfHash returns the hash of the most recent event this node
// authored, if it has bootstrapped/joined.
func (l *Ledger) LastSelfHash() (common.Hash, bool) {
	id, ok := l.events.LastOf(l.selfID)
	if !ok {
		return common.ZeroHash, false
	}

	e, ok := l.events.ByCreatorID(l.selfID, id)
	if !ok {
		return common.ZeroHash, false
	}

	return e.Hash, true
}

// EventHashOf returns the hash of creator's event at sequence number
// id, if known.
func (l *Ledger) EventHashOf(creator common.PeerID, id uint64) (common.Hash, bool) {
	e, ok := l.events.ByCreatorID(creator, id)
	if !ok {
		return common.ZeroHash, false
	}

	return e.Hash, true
}

// CurrentPeers returns the peer set of record for the highest round
// this ledger has materialized, falling back to the genesis peer set
// before any round exists.
func (l *Ledger) CurrentPeers() *PeerSet {
	l.mu.Lock()
	defer l.mu.Unlock()

	top := l.rounds.Max()

	if r, ok := l.rounds.Get(top); ok {
		return r.Peers
	}

	return l.genesisPeers
}

// Frame builds a fast-sync snapshot, or returns ErrNotMember if peerID
// is not a member of the round it would be computed against.
func (l *Ledger) Frame(peerID common.PeerID) (*Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	top := l.rounds.Max()

	round, ok := l.rounds.Get(top)
	if !ok || !round.Peers.Has(peerID) {
		return nil, ErrNotMember
	}

	return BuildFrame(l.rounds, l.events), nil
}

// IngestFrame loads a fast-sync Frame into this ledger's stores, for a
// joining node before it authors its own root.
func (l *Ledger) IngestFrame(frame *Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()

	IngestFrame(frame, l.rounds, l.events)
}

// SaveSnapshot persists a fast-sync frame of this ledger's current
// recent-rounds state to kv, letting a node resume from local disk on
// restart instead of re-bootstrapping with an empty history. This is an
// accelerant only: the in-memory stores remain authoritative while the
// process runs, and nothing ever reads kv back except a fresh process's
// startup path (see LoadSnapshot), matching the store package's role as
// an optional, non-load-bearing persistence backend.
func (l *Ledger) SaveSnapshot(kv store.KV) error {
	l.mu.Lock()
	frame := BuildFrame(l.rounds, l.events)
	l.mu.Unlock()

	return kv.Put([]byte(snapshotKey), wire.Compress(EncodeFrame(frame)))
}

// LoadSnapshot reads back a frame previously written by SaveSnapshot, if
// any. Callers typically feed the result straight to IngestFrame.
func LoadSnapshot(kv store.KV) (*Frame, error) {
	buf, err := kv.Get([]byte(snapshotKey))
	if err != nil {
		return nil, err
	}

	raw, err := wire.Decompress(buf)
	if err != nil {
		return nil, err
	}

	return DecodeFrame(raw)
}

func nowMicros() uint64 {
	return uint64(time.Now().UnixNano() / int64(time.Microsecond))
}
