// Package keys holds the node's identity: keypair generation, the
// deterministic peer-id derivation from a public key, and event
// signing/verification. Spec.md §1 scopes "key generation and signature
// verification primitives beyond their functional contract" out of the
// core engine, so this package is a thin contract-shaped wrapper, not a
// cryptographic implementation, exactly as the teacher's machine.go only
// ever calls into noise's identity/eddsa packages rather than rolling
// its own signing.
package keys

import (
	"encoding/hex"
	"hash/fnv"

	"github.com/perlin-network/noise/identity"
	"github.com/perlin-network/noise/identity/ed25519"
	"github.com/perlin-network/noise/signature/eddsa"
	"github.com/pkg/errors"

	"github.com/champii/hashgraph/common"
)

// Generate creates a new random ed25519 identity for this node.
func Generate() identity.Keypair {
	return ed25519.RandomKeys()
}

// FromPrivateHex loads a keypair from a hex-encoded private key, for the
// --privkey CLI flag.
func FromPrivateHex(privateKeyHex string) (identity.Keypair, error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "keys: failed to decode private key hex")
	}

	kp, err := ed25519.LoadKeys(raw)
	if err != nil {
		return nil, errors.Wrap(err, "keys: failed to load keypair")
	}

	return kp, nil
}

// DerivePeerID computes the 64-bit, non-cryptographic, deterministic
// peer id from a public key, per the data model's §3 content-addressing
// rule. fnv64a is the standard library's off-the-shelf non-cryptographic
// hash; the spec is explicit that this id need not be cryptographically
// strong, so no signature/hash library from the pack is a better fit.
func DerivePeerID(publicKey []byte) common.PeerID {
	h := fnv.New64a()
	_, _ = h.Write(publicKey)

	return common.PeerID(h.Sum64())
}

// Sign signs a message with the node's private key.
func Sign(kp identity.Keypair, message []byte) ([]byte, error) {
	sig, err := eddsa.Sign(kp.PrivateKey(), message)
	if err != nil {
		return nil, errors.Wrap(err, "keys: failed to sign message")
	}

	return sig, nil
}

// Verify checks a message signature against a raw public key.
func Verify(publicKey, message, signature []byte) bool {
	return eddsa.Verify(publicKey, message, signature)
}
