package protocol

import "math"

// SubAudioKind discriminates the sub-audio variant attached to a channel
// path: nothing, a DCS code, or a CTCSS tone frequency.
type SubAudioKind uint8

const (
	SubAudioNone SubAudioKind = iota
	SubAudioDCS
	SubAudioCTCSS
)

// SubAudio is the decoded form of the single 16-bit sub-audio wire field.
// DCS is valid for SubAudioDCS, Hz for SubAudioCTCSS.
type SubAudio struct {
	Kind SubAudioKind
	DCS  uint16
	Hz   float64
}

// The wire packs both variants into one unsigned field: zero means none,
// anything below this threshold is a DCS code, anything at or above it is
// a CTCSS frequency in centihertz.
const subAudioCTCSSMin = 6700

func DCS(code uint16) SubAudio {
	return SubAudio{Kind: SubAudioDCS, DCS: code}
}

func CTCSS(hz float64) SubAudio {
	return SubAudio{Kind: SubAudioCTCSS, Hz: hz}
}

func decodeSubAudio(raw uint64) SubAudio {
	switch {
	case raw == 0:
		return SubAudio{}
	case raw < subAudioCTCSSMin:
		return SubAudio{Kind: SubAudioDCS, DCS: uint16(raw)}
	default:
		return SubAudio{Kind: SubAudioCTCSS, Hz: float64(raw) / 100}
	}
}

func (s SubAudio) raw() uint64 {
	switch s.Kind {
	case SubAudioDCS:
		return uint64(s.DCS)
	case SubAudioCTCSS:
		return uint64(math.Round(s.Hz * 100))
	default:
		return 0
	}
}
