package hashgraph

import "github.com/champii/hashgraph/common"

// Peer is a single member of the graph's peer set: its id, its address
// for the gossip transport, and its raw public key for signature
// verification. Grounded on original_source's peer.rs, which keeps
// exactly this triple.
type Peer struct {
	ID        common.PeerID
	Address   string
	PublicKey []byte
}
