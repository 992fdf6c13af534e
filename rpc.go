package hashgraph

import (
	"github.com/champii/hashgraph/common"
	"github.com/champii/hashgraph/wire"
)

// MsgType identifies an RPC envelope's payload, per §6's RPC surface:
// pull, push, fast_sync, ask_join, each with a paired reply.
type MsgType byte

const (
	MsgPull MsgType = iota + 1
	MsgPullReply
	MsgPush
	MsgPushReply
	MsgFastSync
	MsgFastSyncReply
	MsgAskJoin
	MsgAskJoinReply
)

// PullRequestLimit is the server-enforced cap on events returned per
// pull, per §6's table entry for `pull`.
const PullRequestLimit = 16

// PullRequest carries the requester's known-events vector.
type PullRequest struct {
	Known map[common.PeerID]uint64
}

// PushRequest carries a reciprocal diff, identifying its sender.
type PushRequest struct {
	Diff EventsDiff
}

// FastSyncRequest asks for a frame as of peerID's membership.
type FastSyncRequest struct {
	PeerID common.PeerID
}

// AskJoinRequest asks the recipient to enqueue a Join membership
// request for Peer.
type AskJoinRequest struct {
	Peer Peer
}

// --- Encoding -------------------------------------------------------

func encodeEvent(w *wire.Writer, e *Event) {
	w.WriteUint64(e.ID)
	w.WriteUint64(uint64(e.Hash))
	w.WriteUint64(uint64(e.Creator))
	w.WriteUint64(uint64(e.SelfParent))
	w.WriteUint64(uint64(e.OtherParent))
	w.WriteUint64(e.Timestamp)

	w.WriteUint32(uint32(len(e.Transactions)))
	for _, tx := range e.Transactions {
		w.WriteBytes(tx)
	}

	w.WriteUint32(uint32(len(e.InternalTxs)))
	for _, m := range e.InternalTxs {
		w.WriteByte(byte(m.Op))
		encodePeer(w, m.Peer)
	}

	w.WriteBytes(e.Signature)
}

func decodeEvent(r *wire.Reader) (*Event, error) {
	id, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}

	hash, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}

	creator, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}

	selfParent, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}

	otherParent, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}

	timestamp, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}

	nTx, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	txs := make([][]byte, 0, nTx)

	for i := uint32(0); i < nTx; i++ {
		tx, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	nInternal, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	internal := make([]MembershipTx, 0, nInternal)

	for i := uint32(0); i < nInternal; i++ {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		p, err := decodePeer(r)
		if err != nil {
			return nil, err
		}

		internal = append(internal, MembershipTx{Op: MembershipOp(op), Peer: p})
	}

	sig, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            id,
		Hash:          common.Hash(hash),
		Creator:       common.PeerID(creator),
		SelfParent:    common.Hash(selfParent),
		OtherParent:   common.Hash(otherParent),
		Timestamp:     timestamp,
		Transactions:  txs,
		InternalTxs:   internal,
		Signature:     sig,
		Round:         ZeroRound,
		ReceivedRound: NotReceived,
	}, nil
}

func encodePeer(w *wire.Writer, p Peer) {
	w.WriteUint64(uint64(p.ID))
	w.WriteString(p.Address)
	w.WriteBytes(p.PublicKey)
}

func decodePeer(r *wire.Reader) (Peer, error) {
	id, err := r.ReadUint64()
	if err != nil {
		return Peer{}, err
	}

	addr, err := r.ReadString()
	if err != nil {
		return Peer{}, err
	}

	pub, err := r.ReadBytes()
	if err != nil {
		return Peer{}, err
	}

	return Peer{ID: common.PeerID(id), Address: addr, PublicKey: pub}, nil
}

func encodeKnown(w *wire.Writer, known map[common.PeerID]uint64) {
	w.WriteUint32(uint32(len(known)))

	for creator, last := range known {
		w.WriteUint64(uint64(creator))
		w.WriteUint64(last)
	}
}

func decodeKnown(r *wire.Reader) (map[common.PeerID]uint64, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	out := make(map[common.PeerID]uint64, n)

	for i := uint32(0); i < n; i++ {
		creator, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}

		last, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}

		out[common.PeerID(creator)] = last
	}

	return out, nil
}

// EncodePullRequest serializes a pull request.
func EncodePullRequest(req PullRequest) []byte {
	w := wire.NewWriter()
	encodeKnown(w, req.Known)

	return w.Bytes()
}

// DecodePullRequest deserializes a pull request.
func DecodePullRequest(buf []byte) (PullRequest, error) {
	known, err := decodeKnown(wire.NewReader(buf))
	if err != nil {
		return PullRequest{}, err
	}

	return PullRequest{Known: known}, nil
}

// EncodeEventsDiff serializes an EventsDiff (pull's reply, push's
// request body).
func EncodeEventsDiff(d EventsDiff) []byte {
	w := wire.NewWriter()

	w.WriteUint64(uint64(d.SenderID))
	encodeKnown(w, d.Known)

	w.WriteUint32(uint32(len(d.Diff)))

	for creator, evs := range d.Diff {
		w.WriteUint64(uint64(creator))
		w.WriteUint32(uint32(len(evs)))

		for _, e := range evs {
			encodeEvent(w, e)
		}
	}

	w.WriteBool(d.HasMore)

	return w.Bytes()
}

// DecodeEventsDiff deserializes an EventsDiff.
func DecodeEventsDiff(buf []byte) (EventsDiff, error) {
	r := wire.NewReader(buf)

	senderID, err := r.ReadUint64()
	if err != nil {
		return EventsDiff{}, err
	}

	known, err := decodeKnown(r)
	if err != nil {
		return EventsDiff{}, err
	}

	nCreators, err := r.ReadUint32()
	if err != nil {
		return EventsDiff{}, err
	}

	diff := make(map[common.PeerID][]*Event, nCreators)

	for i := uint32(0); i < nCreators; i++ {
		creator, err := r.ReadUint64()
		if err != nil {
			return EventsDiff{}, err
		}

		nEvents, err := r.ReadUint32()
		if err != nil {
			return EventsDiff{}, err
		}

		events := make([]*Event, 0, nEvents)

		for j := uint32(0); j < nEvents; j++ {
			e, err := decodeEvent(r)
			if err != nil {
				return EventsDiff{}, err
			}

			events = append(events, e)
		}

		diff[common.PeerID(creator)] = events
	}

	hasMore, err := r.ReadBool()
	if err != nil {
		return EventsDiff{}, err
	}

	return EventsDiff{SenderID: common.PeerID(senderID), Known: known, Diff: diff, HasMore: hasMore}, nil
}

// EncodeFastSyncRequest serializes a fast_sync request.
func EncodeFastSyncRequest(req FastSyncRequest) []byte {
	w := wire.NewWriter()
	w.WriteUint64(uint64(req.PeerID))

	return w.Bytes()
}

// DecodeFastSyncRequest deserializes a fast_sync request.
func DecodeFastSyncRequest(buf []byte) (FastSyncRequest, error) {
	id, err := wire.NewReader(buf).ReadUint64()
	if err != nil {
		return FastSyncRequest{}, err
	}

	return FastSyncRequest{PeerID: common.PeerID(id)}, nil
}

// EncodeFrame serializes a Frame.
func EncodeFrame(frame *Frame) []byte {
	w := wire.NewWriter()

	w.WriteUint32(uint32(len(frame.Rounds)))

	for id, fr := range frame.Rounds {
		w.WriteUint64(uint64(id))

		peers := fr.Peers.Peers()
		w.WriteUint32(uint32(len(peers)))

		for _, p := range peers {
			encodePeer(w, p)
		}

		w.WriteUint32(uint32(len(fr.Events)))

		for creator, evs := range fr.Events {
			w.WriteUint64(uint64(creator))
			w.WriteUint32(uint32(len(evs)))

			for _, e := range evs {
				encodeEvent(w, e)
			}
		}
	}

	return w.Bytes()
}

// DecodeFrame deserializes a Frame.
func DecodeFrame(buf []byte) (*Frame, error) {
	r := wire.NewReader(buf)

	nRounds, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	frame := &Frame{Rounds: make(map[int64]*FrameRound, nRounds)}

	for i := uint32(0); i < nRounds; i++ {
		id, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}

		nPeers, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}

		peers := NewPeerSet(common.ZeroPeerID)

		for j := uint32(0); j < nPeers; j++ {
			p, err := decodePeer(r)
			if err != nil {
				return nil, err
			}

			peers.Add(p)
		}

		nCreators, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}

		fr := &FrameRound{Peers: peers, Events: make(map[common.PeerID][]*Event, nCreators)}

		for j := uint32(0); j < nCreators; j++ {
			creator, err := r.ReadUint64()
			if err != nil {
				return nil, err
			}

			nEvents, err := r.ReadUint32()
			if err != nil {
				return nil, err
			}

			events := make([]*Event, 0, nEvents)

			for k := uint32(0); k < nEvents; k++ {
				e, err := decodeEvent(r)
				if err != nil {
					return nil, err
				}

				events = append(events, e)
			}

			fr.Events[common.PeerID(creator)] = events
		}

		frame.Rounds[int64(id)] = fr
	}

	return frame, nil
}

// EncodePeer serializes a single Peer, for ask_join.
func EncodePeer(p Peer) []byte {
	w := wire.NewWriter()
	encodePeer(w, p)

	return w.Bytes()
}

// DecodePeerMessage deserializes a single Peer, for ask_join.
func DecodePeerMessage(buf []byte) (Peer, error) {
	return decodePeer(wire.NewReader(buf))
}

// EncodeBool serializes a single boolean reply.
func EncodeBool(v bool) []byte {
	w := wire.NewWriter()
	w.WriteBool(v)

	return w.Bytes()
}

// DecodeBool deserializes a single boolean reply.
func DecodeBool(buf []byte) (bool, error) {
	return wire.NewReader(buf).ReadBool()
}
