// Package wire implements the module's hand-rolled, self-describing
// binary encoding. Protobuf/gRPC are in the teacher's go.mod, but both
// need .proto codegen that cannot be run as part of this exercise (see
// DESIGN.md), so every message on the wire here is framed by hand, the
// way the teacher frames its own gossip payloads in machine.go before
// handing them to noise's transport.
//
// Every encoded value is self-describing enough to be decoded without
// an external schema: fixed-width integers, length-prefixed bytes and
// strings, and length-prefixed repeated sections. golang/snappy
// compresses the framed payload before it goes over the socket.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// ErrTruncated is returned when a read runs past the end of the buffer.
var ErrTruncated = errors.New("wire: truncated message")

// Writer accumulates a self-describing binary encoding into a byte
// buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteUint64 appends a fixed-width big-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint32 appends a fixed-width big-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(v byte) {
	w.buf = append(w.buf, v)
}

// WriteBool appends a single byte encoding a boolean.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteBytes appends a length-prefixed byte slice.
func (w *Writer) WriteBytes(v []byte) {
	w.WriteUint32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

// WriteString appends a length-prefixed UTF-8 string.
func (w *Writer) WriteString(v string) {
	w.WriteBytes([]byte(v))
}

// Reader consumes a self-describing binary encoding from a byte buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) require(n int) error {
	if r.pos+n > len(r.buf) {
		return ErrTruncated
	}

	return nil
}

// ReadUint64 reads a fixed-width big-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}

	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8

	return v, nil
}

// ReadUint32 reads a fixed-width big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}

	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4

	return v, nil
}

// ReadByte reads a single byte, satisfying io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}

	v := r.buf[r.pos]
	r.pos++

	return v, nil
}

// ReadBool reads a single byte encoding a boolean.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}

	return b != 0, nil
}

// ReadBytes reads a length-prefixed byte slice.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	if err := r.require(int(n)); err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)

	return out, nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Compress snappy-compresses a framed message for transport.
func Compress(payload []byte) []byte {
	return snappy.Encode(nil, payload)
}

// Decompress reverses Compress.
func Decompress(payload []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, errors.Wrap(err, "wire: snappy decode failed")
	}

	return out, nil
}

// WriteFramed writes a length-prefixed, snappy-compressed message to w,
// the frame transport.go uses over a plain net.Conn.
func WriteFramed(w io.Writer, payload []byte) error {
	compressed := Compress(payload)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(compressed)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "wire: failed to write frame length")
	}

	if _, err := w.Write(compressed); err != nil {
		return errors.Wrap(err, "wire: failed to write frame body")
	}

	return nil
}

// ReadFramed reads a length-prefixed, snappy-compressed message from r.
func ReadFramed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, errors.Wrap(err, "wire: failed to read frame length")
	}

	n := binary.BigEndian.Uint32(lenBuf[:])

	compressed := make([]byte, n)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, errors.Wrap(err, "wire: failed to read frame body")
	}

	return Decompress(compressed)
}
