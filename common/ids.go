// Package common holds the small set of identifier types shared across
// every package of the hashgraph module, mirroring the role the
// teacher's own common package plays for account/transaction ids.
package common

import "encoding/binary"

// PeerID is the 64-bit, content-addressed identifier of a peer, derived
// deterministically from its public key.
type PeerID uint64

// Hash is the 64-bit digest identifying an event. The sentinel value 0
// means "no parent" / "no event".
type Hash uint64

// Bytes returns h's big-endian encoding, the message signed over and
// verified against an event's Signature.
func (h Hash) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(h))

	return b[:]
}

// ZeroHash is the sentinel meaning "no parent" or "unset".
const ZeroHash Hash = 0

// ZeroPeerID is the sentinel meaning "no peer" / "unset".
const ZeroPeerID PeerID = 0

// SuperMajority computes ⌊2n/3⌋ + 1 for a peer set of size n.
func SuperMajority(n int) int {
	return (2*n)/3 + 1
}
