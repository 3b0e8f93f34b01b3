package protocol

import (
	"errors"
	"fmt"
)

// ErrEndOfStream is returned when a decoder tries to read past the end of a
// frame. It is the only failure mode for truncated bodies.
var ErrEndOfStream = errors.New("read past end of bit stream")

// BitReader walks a byte slice bit by bit, most significant bit first.
// Fields on the wire are not byte-aligned in general, so all decoders go
// through this cursor instead of slicing bytes directly.
type BitReader struct {
	data []byte
	pos  int // bit offset from the start of data
	err  error
}

func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// Remaining reports how many unread bits are left.
func (r *BitReader) Remaining() int {
	return len(r.data)*8 - r.pos
}

// Err returns the first error hit by the sticky accessors, if any.
func (r *BitReader) Err() error {
	return r.err
}

// ReadUint reads the next n bits as an unsigned big-endian integer.
func (r *BitReader) ReadUint(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, fmt.Errorf("invalid bit width: %d", n)
	}
	if r.Remaining() < n {
		return 0, fmt.Errorf("read %d bits at offset %d of %d: %w", n, r.pos, len(r.data)*8, ErrEndOfStream)
	}
	var v uint64
	for i := 0; i < n; i++ {
		byteIdx := r.pos >> 3
		bitIdx := 7 - r.pos&7
		v = v<<1 | uint64(r.data[byteIdx]>>bitIdx&1)
		r.pos++
	}

	return v, nil
}

func (r *BitReader) ReadBool() (bool, error) {
	v, err := r.ReadUint(1)

	return v != 0, err
}

// ReadBytes reads the next n*8 bits packed MSB-first per byte.
func (r *BitReader) ReadBytes(n int) ([]byte, error) {
	if r.Remaining() < n*8 {
		return nil, fmt.Errorf("read %d bytes at bit offset %d of %d: %w", n, r.pos, len(r.data)*8, ErrEndOfStream)
	}
	out := make([]byte, n)
	if r.pos&7 == 0 {
		copy(out, r.data[r.pos>>3:r.pos>>3+n])
		r.pos += n * 8

		return out, nil
	}
	for i := range out {
		v, err := r.ReadUint(8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}

	return out, nil
}

// Uint is the sticky-error form of ReadUint: after the first failure it
// returns zero and leaves the error in Err. Decoders read every field
// through these and check Err once at the end, returning a zero value on
// failure so callers never observe a partially decoded record.
func (r *BitReader) Uint(n int) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.ReadUint(n)
	if err != nil {
		r.err = err

		return 0
	}

	return v
}

func (r *BitReader) Bool() bool {
	return r.Uint(1) != 0
}

func (r *BitReader) Bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	v, err := r.ReadBytes(n)
	if err != nil {
		r.err = err

		return nil
	}

	return v
}

// Skip discards n bits. Reserved regions are skipped, never asserted zero:
// real radios set bits there for purposes outside this protocol.
func (r *BitReader) Skip(n int) {
	for n > 64 {
		r.Uint(64)
		n -= 64
	}
	r.Uint(n)
}

// BitWriter builds a bit sequence MSB-first. Writes only append; Bytes
// zero-pads the final partial byte.
type BitWriter struct {
	data []byte
	bits int // bits used in the last byte of data, 0 when aligned
}

func NewBitWriter() *BitWriter {
	return &BitWriter{}
}

// WriteUint appends the low n bits of v, most significant bit first.
// Values wider than n bits are masked down to the field width so an
// out-of-range value never corrupts adjacent fields.
func (w *BitWriter) WriteUint(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := byte(v >> uint(i) & 1)
		if w.bits == 0 {
			w.data = append(w.data, 0)
		}
		last := len(w.data) - 1
		w.data[last] |= bit << (7 - w.bits)
		w.bits = (w.bits + 1) & 7
	}
}

func (w *BitWriter) WriteBool(v bool) {
	if v {
		w.WriteUint(1, 1)
	} else {
		w.WriteUint(0, 1)
	}
}

func (w *BitWriter) WriteBytes(p []byte) {
	if w.bits == 0 {
		w.data = append(w.data, p...)

		return
	}
	for _, b := range p {
		w.WriteUint(uint64(b), 8)
	}
}

// Pad appends n zero bits.
func (w *BitWriter) Pad(n int) {
	for n > 64 {
		w.WriteUint(0, 64)
		n -= 64
	}
	w.WriteUint(0, n)
}

// Len reports the number of bits written so far.
func (w *BitWriter) Len() int {
	if w.bits == 0 {
		return len(w.data) * 8
	}

	return (len(w.data)-1)*8 + w.bits
}

func (w *BitWriter) Bytes() []byte {
	return w.data
}
