package hashgraph

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/champii/hashgraph/common"
	"github.com/champii/hashgraph/log"
)

// gossipInterval is how long the gossip task sleeps after every round,
// whether or not a peer was available, and the backoff ask_join polling
// uses, per
// spec.md §5: "Gossip sleeps between rounds (≈ 1 s when no peer is
// available)" / "ask_join polls fast_sync with a ≈ 1 s backoff".
const gossipInterval = time.Second

// askJoinBootstrapFill is how many empty self-events the bootstrap node
// appends after a solo ask_join, per §6's RPC table: "if peer set has
// size 1, the bootstrap node immediately appends the Join and six empty
// self-events to drive consensus past the three-round delay."
const askJoinBootstrapFill = 6

// Node is the gossip driver and RPC server fronting a Ledger, grounded
// on the teacher's machine.go Run(l *Ledger) driver and its
// continuously(fn) retry-until-stopped idiom, generalized from the
// teacher's gossiping/querying/syncing phase machine (dropped, see
// DESIGN.md) to this protocol's flatter always-on task model (§5): one
// gossip task, two input-drain tasks, and RPC handler tasks sharing the
// same ledger.
type Node struct {
	ledger  *Ledger
	metrics *Metrics
	rand    func(n int) int

	listenAddr string
	listener   net.Listener

	payloadQueue    chan []byte
	membershipQueue chan MembershipTx

	mu       sync.Mutex
	lastPeer common.PeerID

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewNode creates a Node. rand is injected for deterministic peer
// selection in tests; pass nil to use a time-seeded default.
func NewNode(ledger *Ledger, listenAddr string, metrics *Metrics, rand func(n int) int) *Node {
	if rand == nil {
		rand = defaultRand()
	}

	return &Node{
		ledger:          ledger,
		metrics:         metrics,
		rand:            rand,
		listenAddr:      listenAddr,
		payloadQueue:    make(chan []byte, 256),
		membershipQueue: make(chan MembershipTx, 16),
		stop:            make(chan struct{}),
	}
}

// SubmitPayload enqueues a user transaction for self-event authoring.
func (n *Node) SubmitPayload(tx []byte) {
	select {
	case n.payloadQueue <- tx:
	case <-n.stop:
	}
}

// SubmitMembership enqueues a membership request for self-event
// authoring.
func (n *Node) SubmitMembership(tx MembershipTx) {
	select {
	case n.membershipQueue <- tx:
	case <-n.stop:
	}
}

// Run starts the RPC server, the gossip task, and the two input-drain
// tasks. It returns once the listen socket is bound, or an error if it
// could not be (§7's fatal error category).
func (n *Node) Run() error {
	ln, err := Listen(n.listenAddr)
	if err != nil {
		return err
	}

	n.listener = ln

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.serve(ln)
	}()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		continuously(n.gossipOnce)(n.stop)
	}()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.drainPayloads()
	}()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.drainMembership()
	}()

	return nil
}

// Stop signals every task to exit and waits for them to drain.
func (n *Node) Stop() {
	close(n.stop)

	if n.listener != nil {
		n.listener.Close()
	}

	n.wg.Wait()
}

// continuously wraps fn so it is retried until stop closes, mirroring
// the teacher's machine.go helper of the same name and contract: a
// timeout is swallowed and retried, a stop is swallowed and exits
// cleanly, anything else propagates (here: logged and retried, since a
// single failed gossip round must never take the node down).
func continuously(fn func(stop <-chan struct{}) error) func(stop <-chan struct{}) error {
	return func(stop <-chan struct{}) error {
		for {
			select {
			case <-stop:
				return nil
			default:
			}

			if err := fn(stop); err != nil && errors.Cause(err) != ErrStopped {
				log.Gossip("round_failed").Warn().Err(err).Msg("gossip round failed")
			}

			select {
			case <-stop:
				return nil
			case <-time.After(gossipInterval):
			}
		}
	}
}

func (n *Node) drainPayloads() {
	for {
		select {
		case <-n.stop:
			return
		case tx := <-n.payloadQueue:
			if _, err := n.ledger.AddSelfEvent(common.ZeroHash, [][]byte{tx}, nil); err != nil {
				log.Consensus("self_event_failed").Warn().Err(err).Msg("failed to author self event for payload")
			}
		}
	}
}

func (n *Node) drainMembership() {
	for {
		select {
		case <-n.stop:
			return
		case tx := <-n.membershipQueue:
			if _, err := n.ledger.AddSelfEvent(common.ZeroHash, nil, []MembershipTx{tx}); err != nil {
				log.Consensus("self_event_failed").Warn().Err(err).Msg("failed to author self event for membership request")
			}
		}
	}
}

func (n *Node) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-n.stop:
				return
			default:
				log.RPC("accept_failed").Warn().Err(err).Msg("accept failed")

				return
			}
		}

		go n.handleConn(conn)
	}
}

func (n *Node) handleConn(conn net.Conn) {
	defer conn.Close()

	msgType, payload, err := ReceiveMessage(conn)
	if err != nil {
		return
	}

	if n.metrics != nil {
		n.metrics.RPCRequests.Inc(1)
	}

	switch msgType {
	case MsgPull:
		n.servePull(conn, payload)
	case MsgPush:
		n.servePush(conn, payload)
	case MsgFastSync:
		n.serveFastSync(conn, payload)
	case MsgAskJoin:
		n.serveAskJoin(conn, payload)
	default:
		log.RPC("unknown_message").Warn().Msg("dropped connection with unknown message type")
	}
}

func (n *Node) servePull(conn net.Conn, payload []byte) {
	req, err := DecodePullRequest(payload)
	if err != nil {
		return
	}

	diff := n.ledger.Diff(req.Known, PullRequestLimit)

	_ = SendMessage(conn, MsgPullReply, EncodeEventsDiff(diff))
}

func (n *Node) servePush(conn net.Conn, payload []byte) {
	diff, err := DecodeEventsDiff(payload)
	if err != nil {
		return
	}

	n.mergeDiff(diff)

	if last, ok := n.ledger.EventHashOf(diff.SenderID, diff.Known[diff.SenderID]); ok {
		if _, err := n.ledger.AddSelfEvent(last, nil, nil); err != nil {
			log.Gossip("sync_point_failed").Debug().Err(err).Msg("failed to record sync point")
		}
	}

	_ = SendMessage(conn, MsgPushReply, EncodeBool(true))
}

func (n *Node) serveFastSync(conn net.Conn, payload []byte) {
	req, err := DecodeFastSyncRequest(payload)
	if err != nil {
		return
	}

	frame, err := n.ledger.Frame(req.PeerID)
	if err != nil {
		frame = &Frame{Rounds: map[int64]*FrameRound{}}
	}

	_ = SendMessage(conn, MsgFastSyncReply, EncodeFrame(frame))
}

func (n *Node) serveAskJoin(conn net.Conn, payload []byte) {
	p, err := DecodePeerMessage(payload)
	if err != nil {
		return
	}

	n.SubmitMembership(MembershipTx{Op: Join, Peer: p})

	if n.ledger.CurrentPeers().Len() == 1 {
		if _, err := n.ledger.AddSelfEvent(common.ZeroHash, nil, []MembershipTx{{Op: Join, Peer: p}}); err == nil {
			for i := 0; i < askJoinBootstrapFill; i++ {
				_, _ = n.ledger.AddSelfEvent(common.ZeroHash, nil, nil)
			}
		}
	}

	_ = SendMessage(conn, MsgAskJoinReply, EncodeBool(true))
}

// mergeDiff inserts every event in diff, per creator in ascending
// sequence-number order, per §4.8 step 4. Validation failures are
// logged and skipped; they never abort the merge of other creators'
// events.
func (n *Node) mergeDiff(diff EventsDiff) {
	for _, events := range diff.Diff {
		sorted := append([]*Event(nil), events...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

		for _, e := range sorted {
			if _, err := n.ledger.Insert(e); err != nil {
				if n.metrics != nil {
					n.metrics.EventsRejected.Inc(1)
				}

				log.Consensus("insert_rejected").Debug().Err(err).Uint64("id", e.ID).Msg("event rejected")

				continue
			}

			if n.metrics != nil {
				n.metrics.EventsMerged.Inc(1)
			}
		}
	}
}

// pickPeer chooses a peer other than self, preferring not to re-pick
// the immediately previous peer once at least 3 peers are available,
// per §4.8 step 1.
func (n *Node) pickPeer() (Peer, bool) {
	peers := n.ledger.CurrentPeers()

	n.mu.Lock()
	last := n.lastPeer
	n.mu.Unlock()

	if peers.Len() >= 3 {
		for attempt := 0; attempt < 8; attempt++ {
			p, ok := peers.Random(n.ledger.SelfID(), n.rand)
			if !ok {
				return Peer{}, false
			}

			if p.ID != last {
				return p, true
			}
		}
	}

	return peers.Random(n.ledger.SelfID(), n.rand)
}

// gossipOnce runs one iteration of §4.8's gossip round.
func (n *Node) gossipOnce(stop <-chan struct{}) error {
	peer, ok := n.pickPeer()
	if !ok {
		return nil
	}

	conn, err := Dial(peer.Address)
	if err != nil {
		return err
	}
	defer conn.Close()

	known := n.ledger.Known()

	if err := SendMessage(conn, MsgPull, EncodePullRequest(PullRequest{Known: known})); err != nil {
		return err
	}

	msgType, payload, err := ReceiveMessage(conn)
	if err != nil {
		return err
	}

	if msgType != MsgPullReply {
		return errors.New("hashgraph: unexpected reply to pull")
	}

	diff, err := DecodeEventsDiff(payload)
	if err != nil {
		return err
	}

	if diff.HasMore {
		return nil
	}

	n.mergeDiff(diff)

	if lastHash, ok := n.ledger.EventHashOf(peer.ID, diff.Known[peer.ID]); ok {
		if _, err := n.ledger.AddSelfEvent(lastHash, nil, nil); err != nil {
			log.Gossip("sync_point_failed").Debug().Err(err).Msg("failed to record sync point")
		}
	}

	reciprocal := n.ledger.Diff(diff.Known, PullRequestLimit)

	if err := SendMessage(conn, MsgPush, EncodeEventsDiff(reciprocal)); err != nil {
		return err
	}

	msgType, payload, err = ReceiveMessage(conn)
	if err != nil {
		return err
	}

	if msgType != MsgPushReply {
		return errors.New("hashgraph: unexpected reply to push")
	}

	if _, err := DecodeBool(payload); err != nil {
		return err
	}

	n.mu.Lock()
	n.lastPeer = peer.ID
	n.mu.Unlock()

	if n.metrics != nil {
		n.metrics.GossipRounds.Inc(1)
	}

	return nil
}

// AskJoin asks a bootstrap peer at address to admit self, per §6's
// ask_join. It is the client side a joining node drives before
// fast-syncing.
func AskJoin(address string, self Peer) (bool, error) {
	conn, err := Dial(address)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if err := SendMessage(conn, MsgAskJoin, EncodePeer(self)); err != nil {
		return false, err
	}

	msgType, payload, err := ReceiveMessage(conn)
	if err != nil {
		return false, err
	}

	if msgType != MsgAskJoinReply {
		return false, errors.New("hashgraph: unexpected reply to ask_join")
	}

	return DecodeBool(payload)
}

// FastSyncFrom asks a bootstrap peer at address for a frame, polling
// with a ≈1s backoff until a non-empty frame is returned, per §5's
// "ask_join polls fast_sync with a ≈ 1 s backoff until a non-empty
// frame is returned."
func FastSyncFrom(address string, selfID common.PeerID, stop <-chan struct{}) (*Frame, error) {
	for {
		conn, err := Dial(address)
		if err != nil {
			return nil, err
		}

		err = SendMessage(conn, MsgFastSync, EncodeFastSyncRequest(FastSyncRequest{PeerID: selfID}))
		if err != nil {
			conn.Close()

			return nil, err
		}

		msgType, payload, err := ReceiveMessage(conn)
		conn.Close()

		if err != nil {
			return nil, err
		}

		if msgType != MsgFastSyncReply {
			return nil, errors.New("hashgraph: unexpected reply to fast_sync")
		}

		frame, err := DecodeFrame(payload)
		if err != nil {
			return nil, err
		}

		if len(frame.Rounds) > 0 {
			return frame, nil
		}

		select {
		case <-stop:
			return nil, ErrStopped
		case <-time.After(gossipInterval):
		}
	}
}

func defaultRand() func(n int) int {
	src := newSplitMix64(uint64(time.Now().UnixNano()))

	return func(n int) int {
		if n <= 0 {
			return 0
		}

		return int(src.next() % uint64(n))
	}
}

// splitMix64 is a tiny, dependency-free PRNG used only to pick a random
// gossip peer; this is peer-selection jitter, not a security boundary,
// so it does not need a cryptographic source.
type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed uint64) *splitMix64 {
	return &splitMix64{state: seed}
}

func (s *splitMix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15

	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB

	return z ^ (z >> 31)
}
