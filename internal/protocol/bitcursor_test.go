package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestBitReaderReadUintMSBFirst(t *testing.T) {
	r := NewBitReader([]byte{0b1010_1100, 0b0101_0000})

	got, err := r.ReadUint(3)
	if err != nil {
		t.Fatalf("read 3 bits: %v", err)
	}
	if got != 0b101 {
		t.Fatalf("first 3 bits: got %b want 101", got)
	}

	got, err = r.ReadUint(9)
	if err != nil {
		t.Fatalf("read 9 bits: %v", err)
	}
	if got != 0b0_1100_0101 {
		t.Fatalf("next 9 bits: got %b want 011000101", got)
	}

	if r.Remaining() != 4 {
		t.Fatalf("remaining: got %d want 4", r.Remaining())
	}
}

func TestBitReaderPastEnd(t *testing.T) {
	r := NewBitReader([]byte{0xFF})
	if _, err := r.ReadUint(9); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected end-of-stream error, got %v", err)
	}
}

func TestBitReaderStickyError(t *testing.T) {
	r := NewBitReader([]byte{0xAB})
	if v := r.Uint(8); v != 0xAB {
		t.Fatalf("first read: got %#x want 0xAB", v)
	}
	if v := r.Uint(4); v != 0 {
		t.Fatalf("failed read must return zero, got %#x", v)
	}
	if !errors.Is(r.Err(), ErrEndOfStream) {
		t.Fatalf("expected sticky end-of-stream error, got %v", r.Err())
	}
	// Error stays sticky for all subsequent reads.
	if v := r.Uint(1); v != 0 {
		t.Fatalf("read after error must return zero, got %#x", v)
	}
}

func TestBitWriterRoundTrip(t *testing.T) {
	w := NewBitWriter()
	w.WriteUint(0b101, 3)
	w.WriteBool(true)
	w.WriteUint(0x3FF, 10)
	w.WriteBytes([]byte{0xDE, 0xAD})

	r := NewBitReader(w.Bytes())
	if v := r.Uint(3); v != 0b101 {
		t.Fatalf("3-bit field: got %b want 101", v)
	}
	if !r.Bool() {
		t.Fatalf("bool field: got false want true")
	}
	if v := r.Uint(10); v != 0x3FF {
		t.Fatalf("10-bit field: got %#x want 0x3ff", v)
	}
	got := r.Bytes(2)
	if err := r.Err(); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, []byte{0xDE, 0xAD}) {
		t.Fatalf("byte field: got %x want dead", got)
	}
}

func TestBitWriterMasksOversizedValues(t *testing.T) {
	// An out-of-range value must not bleed into the neighbouring field.
	w := NewBitWriter()
	w.WriteUint(0xFFFF, 4)
	w.WriteUint(0, 4)

	r := NewBitReader(w.Bytes())
	if v := r.Uint(4); v != 0xF {
		t.Fatalf("masked field: got %#x want 0xf", v)
	}
	if v := r.Uint(4); v != 0 {
		t.Fatalf("adjacent field corrupted: got %#x want 0", v)
	}
}

func TestAdjacentFieldsNoCrossContamination(t *testing.T) {
	cases := []struct {
		name string
		a, b uint64
	}{
		{"ones then zeros", 0x7F, 0},
		{"zeros then ones", 0, 0x1FF},
		{"ones then ones", 0x7F, 0x1FF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewBitWriter()
			w.WriteUint(tc.a, 7)
			w.WriteUint(tc.b, 9)

			r := NewBitReader(w.Bytes())
			if v := r.Uint(7); v != tc.a {
				t.Fatalf("field a: got %#x want %#x", v, tc.a)
			}
			if v := r.Uint(9); v != tc.b {
				t.Fatalf("field b: got %#x want %#x", v, tc.b)
			}
			if err := r.Err(); err != nil {
				t.Fatalf("read back: %v", err)
			}
		})
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		raw  uint64
		bits int
		want int64
	}{
		{0, 24, 0},
		{0x7FFFFF, 24, 8388607},
		{0x800000, 24, -8388608},
		{0xFFFFFF, 24, -1},
		{0xFFFF, 16, -1},
		{0x8000, 16, -32768},
		{0x7FFF, 16, 32767},
	}
	for _, tc := range cases {
		if got := signExtend(tc.raw, tc.bits); got != tc.want {
			t.Fatalf("signExtend(%#x, %d): got %d want %d", tc.raw, tc.bits, got, tc.want)
		}
	}
}

func TestNibbleSplitJoin(t *testing.T) {
	for _, v := range []uint8{0, 1, 0x0F, 0x10, 0xAB, 0xFF, 251, 252} {
		upper, lower := splitNibbles(v)
		if got := joinNibbles(upper, lower); got != v {
			t.Fatalf("nibble round trip for %#x: got %#x", v, got)
		}
	}
	if upper, lower := splitNibbles(0xFC); upper != 0xF || lower != 0xC {
		t.Fatalf("splitNibbles(0xFC): got %#x/%#x want 0xf/0xc", upper, lower)
	}
}
