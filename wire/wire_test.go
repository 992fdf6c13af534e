package wire

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint64(42)
	w.WriteUint32(7)
	w.WriteByte(9)
	w.WriteBool(true)
	w.WriteBytes([]byte("payload"))
	w.WriteString("hello")

	r := NewReader(w.Bytes())

	u64, err := r.ReadUint64()
	if err != nil || u64 != 42 {
		t.Fatalf("ReadUint64: got %d, %v", u64, err)
	}

	u32, err := r.ReadUint32()
	if err != nil || u32 != 7 {
		t.Fatalf("ReadUint32: got %d, %v", u32, err)
	}

	b, err := r.ReadByte()
	if err != nil || b != 9 {
		t.Fatalf("ReadByte: got %d, %v", b, err)
	}

	flag, err := r.ReadBool()
	if err != nil || !flag {
		t.Fatalf("ReadBool: got %v, %v", flag, err)
	}

	payload, err := r.ReadBytes()
	if err != nil || !bytes.Equal(payload, []byte("payload")) {
		t.Fatalf("ReadBytes: got %q, %v", payload, err)
	}

	s, err := r.ReadString()
	if err != nil || s != "hello" {
		t.Fatalf("ReadString: got %q, %v", s, err)
	}

	if r.Remaining() != 0 {
		t.Fatalf("expected 0 remaining bytes, got %d", r.Remaining())
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0, 0, 0})

	if _, err := r.ReadUint64(); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")

	compressed := Compress(payload)

	out, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}

	if !bytes.Equal(out, payload) {
		t.Fatalf("round trip mismatch: got %q", out)
	}
}

func TestFramedRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	payload := []byte("framed message body")

	if err := WriteFramed(&buf, payload); err != nil {
		t.Fatalf("WriteFramed failed: %v", err)
	}

	out, err := ReadFramed(&buf)
	if err != nil {
		t.Fatalf("ReadFramed failed: %v", err)
	}

	if !bytes.Equal(out, payload) {
		t.Fatalf("round trip mismatch: got %q", out)
	}
}
