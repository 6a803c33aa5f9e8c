package wire

import (
	"bytes"
	"testing"
)

func TestFixedRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"zero", 0.0, 0.0},
		{"positive integer", 42.0, 42.0},
		{"negative integer", -42.0, -42.0},
		{"quarter", 0.25, 0.25},
		{"negative quarter", -0.25, -0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFixed(tt.input).Float64()
			if got != tt.expected {
				t.Errorf("NewFixed(%v).Float64() = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuilderUint32(t *testing.T) {
	b := NewBuilder().PutUint32(0xDEADBEEF).PutUint32(0)
	msg := b.Build(1, 2)
	expected := []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(msg.Payload, expected) {
		t.Errorf("payload = %x, want %x", msg.Payload, expected)
	}
}

func TestBuilderString(t *testing.T) {
	msg := NewBuilder().PutString("hi").Build(1, 0)
	// length (3, including NUL) + "hi\x00" + one pad byte to reach a
	// 4-byte boundary.
	expected := []byte{3, 0, 0, 0, 'h', 'i', 0, 0}
	if !bytes.Equal(msg.Payload, expected) {
		t.Errorf("payload = %x, want %x", msg.Payload, expected)
	}
}

func TestBuilderArrayNoPadding(t *testing.T) {
	msg := NewBuilder().PutArray([]byte{1, 2, 3, 4}).Build(1, 0)
	expected := []byte{4, 0, 0, 0, 1, 2, 3, 4}
	if !bytes.Equal(msg.Payload, expected) {
		t.Errorf("payload = %x, want %x", msg.Payload, expected)
	}
}

func TestReaderRoundTripsBuilder(t *testing.T) {
	msg := NewBuilder().
		PutUint32(7).
		PutInt32(-3).
		PutFixed(NewFixed(1.5)).
		PutString("wayland").
		PutArray([]byte{9, 9}).
		Build(1, 0)

	r := NewReader(msg.Payload, nil)
	if v, err := r.Uint32(); err != nil || v != 7 {
		t.Fatalf("Uint32() = %v, %v", v, err)
	}
	if v, err := r.Int32(); err != nil || v != -3 {
		t.Fatalf("Int32() = %v, %v", v, err)
	}
	if v, err := r.Fixed(); err != nil || v.Float64() != 1.5 {
		t.Fatalf("Fixed() = %v, %v", v, err)
	}
	if v, err := r.String(); err != nil || v != "wayland" {
		t.Fatalf("String() = %q, %v", v, err)
	}
	if v, err := r.Array(); err != nil || !bytes.Equal(v, []byte{9, 9}) {
		t.Fatalf("Array() = %v, %v", v, err)
	}
}

func TestReaderTruncatedUint32(t *testing.T) {
	r := NewReader([]byte{1, 2}, nil)
	if _, err := r.Uint32(); err == nil {
		t.Fatal("expected error reading truncated u32")
	}
}

func TestReaderFDFIFOOrder(t *testing.T) {
	r := NewReader(nil, []int{10, 11, 12})
	for _, want := range []int{10, 11, 12} {
		got, err := r.FD()
		if err != nil {
			t.Fatalf("FD() error: %v", err)
		}
		if got != want {
			t.Fatalf("FD() = %d, want %d", got, want)
		}
	}
	if _, err := r.FD(); err == nil {
		t.Fatal("expected error popping FD from an empty queue")
	}
}

func TestFramerAccumulatesPartialMessage(t *testing.T) {
	msg := NewBuilder().PutUint32(42).Build(3, 1)
	header := encodeHeader(msg.ObjectID, msg.Opcode, uint16(headerSize+len(msg.Payload)))
	full := append(header, msg.Payload...)

	f := &Framer{}
	f.Feed(full[:4], nil)
	if _, ok, err := f.Next(); ok || err != nil {
		t.Fatalf("Next() on partial header: ok=%v err=%v", ok, err)
	}

	f.Feed(full[4:], nil)
	got, ok, err := f.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = ok=%v err=%v", ok, err)
	}
	if got.ObjectID != 3 || got.Opcode != 1 || !bytes.Equal(got.Payload, msg.Payload) {
		t.Fatalf("Next() = %+v, want object 3 opcode 1 payload %x", got, msg.Payload)
	}
}

func TestFramerRejectsHeaderShorterThanItself(t *testing.T) {
	header := encodeHeader(1, 0, 4) // size < headerSize
	f := &Framer{}
	f.Feed(header, nil)
	if _, _, err := f.Next(); err == nil {
		t.Fatal("expected malformed-header error")
	}
}
