package hashgraph

import (
	"net"

	"github.com/pkg/errors"

	"github.com/champii/hashgraph/wire"
)

// SendMessage frames and writes a single RPC message: a one-byte type
// tag followed by its encoded payload, snappy-compressed and
// length-prefixed by wire.WriteFramed. Socket plumbing is explicitly
// out of scope (spec.md §1); this is the thinnest net.Conn framing that
// can carry the request/response messages §6 actually specifies,
// standing in for the noise network/protocol/skademlia stack the
// teacher uses, which brings far more transport machinery than this
// protocol calls for (see DESIGN.md).
func SendMessage(conn net.Conn, msgType MsgType, payload []byte) error {
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, byte(msgType))
	buf = append(buf, payload...)

	return wire.WriteFramed(conn, buf)
}

// ReceiveMessage reads and unframes a single RPC message.
func ReceiveMessage(conn net.Conn) (MsgType, []byte, error) {
	buf, err := wire.ReadFramed(conn)
	if err != nil {
		return 0, nil, err
	}

	if len(buf) < 1 {
		return 0, nil, wire.ErrTruncated
	}

	return MsgType(buf[0]), buf[1:], nil
}

// Dial opens a plain TCP connection to a peer's gossip address.
func Dial(address string) (net.Conn, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "hashgraph: failed to dial %s", address)
	}

	return conn, nil
}

// Listen opens the node's gossip listen socket.
func Listen(address string) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "hashgraph: failed to listen on %s", address)
	}

	return ln, nil
}
