package protocol

import "math"

// signExtend reinterprets the low bits of raw as a two's-complement value
// of the given width. Latitude, longitude and the sentinel-bearing motion
// fields are stored at odd widths, so every signed decode goes through
// this one helper instead of repeating the threshold subtraction.
func signExtend(raw uint64, bits int) int64 {
	shift := 64 - uint(bits)

	return int64(raw<<shift) >> shift
}

// Frequencies travel as 30-bit unsigned counts of micro-MHz: raw/1e6 is
// the frequency in MHz.
const freqScale = 1e6

func decodeFreqMHz(raw uint64) float64 {
	return float64(raw) / freqScale
}

func encodeFreqMHz(mhz float64) uint64 {
	return uint64(math.Round(mhz * freqScale))
}

// joinNibbles reassembles a logical 8-bit value whose lower and upper
// halves sit at non-adjacent wire positions. The split is a wire quirk of
// the settings and status records, preserved bit-for-bit on both paths.
func joinNibbles(upper, lower uint8) uint8 {
	return upper<<4 | lower&0x0F
}

func splitNibbles(v uint8) (upper, lower uint8) {
	return v >> 4, v & 0x0F
}

// fixedString encodes s into exactly width bytes: UTF-8, truncated to the
// field width, right-padded with NUL.
func fixedString(s string, width int) []byte {
	out := make([]byte, width)
	copy(out, s)

	return out
}

// trimString strips the trailing NUL padding of a fixed-width string field.
func trimString(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}

	return string(raw[:end])
}
