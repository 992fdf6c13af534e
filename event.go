package hashgraph

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/champii/hashgraph/common"
)

// Event is a single node in the hashgraph DAG: a creator's claim over a
// batch of transactions, linked to its own previous event and at most
// one cross-reference into another creator's history (a root has
// neither, and a self event may be authored without the
// cross-reference). Field set and semantics grounded on
// original_source's event.rs.
type Event struct {
	ID          uint64
	Hash        common.Hash
	Creator     common.PeerID
	SelfParent  common.Hash
	OtherParent common.Hash
	Timestamp   uint64

	Transactions []([]byte)
	InternalTxs  []MembershipTx
	Signature    []byte

	// Round is assigned once the event is inserted (witness.go);
	// ZeroRound means "not yet assigned".
	Round int64

	// Witness marks whether round assignment decided e is a witness of
	// its round.
	Witness bool

	// ReceivedRound is the round in which e was decided received;
	// NotReceived until the round-received scan (received.go) settles
	// it.
	ReceivedRound int64

	// ConsensusTimestamp is set alongside ReceivedRound.
	ConsensusTimestamp uint64
}

// ZeroRound is the sentinel meaning "round not yet assigned".
const ZeroRound int64 = -1

// NotReceived is the sentinel meaning "not yet decided received".
const NotReceived int64 = -1

// IsRoot reports whether e is the first event its creator ever
// produced: no self-parent and no other-parent, exactly
// original_source's is_root().
func (e *Event) IsRoot() bool {
	return e.SelfParent == common.ZeroHash && e.OtherParent == common.ZeroHash
}

// computeHash derives the event's content-addressed, non-cryptographic
// identity over every field except round, which is assigned locally
// after insertion. The teacher hashes transactions with blake2b in
// machine.go; this truncates a blake2b-256 digest of the event's
// canonical encoding to 64 bits, matching the 64-bit common.Hash the
// rest of the module is built around (original_source hashes with
// Rust's DefaultHasher, likewise a fast 64-bit, non-cryptographic
// digest — not intended as a security boundary, per spec.md §1's
// scoping of crypto internals).
func computeHash(id uint64, creator common.PeerID, selfParent, otherParent common.Hash, timestamp uint64, txs [][]byte, internal []MembershipTx) common.Hash {
	h, _ := blake2b.New256(nil)

	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], id)
	_, _ = h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(creator))
	_, _ = h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(selfParent))
	_, _ = h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(otherParent))
	_, _ = h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], timestamp)
	_, _ = h.Write(buf[:])

	for _, tx := range txs {
		_, _ = h.Write(tx)
	}

	for _, tx := range internal {
		_, _ = h.Write([]byte{byte(tx.Op)})
		binary.BigEndian.PutUint64(buf[:], uint64(tx.Peer.ID))
		_, _ = h.Write(buf[:])
	}

	sum := h.Sum(nil)

	return common.Hash(binary.BigEndian.Uint64(sum[:8]))
}

// NewEvent builds and hashes a new event authored by creator at
// sequence number id.
func NewEvent(id uint64, creator common.PeerID, selfParent, otherParent common.Hash, timestamp uint64, txs [][]byte, internal []MembershipTx) *Event {
	e := &Event{
		ID:            id,
		Creator:       creator,
		SelfParent:    selfParent,
		OtherParent:   otherParent,
		Timestamp:     timestamp,
		Transactions:  txs,
		InternalTxs:   internal,
		Round:         ZeroRound,
		ReceivedRound: NotReceived,
	}

	e.Hash = computeHash(id, creator, selfParent, otherParent, timestamp, txs, internal)

	return e
}
