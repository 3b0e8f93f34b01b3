package protocol

import "fmt"

// Status is the ephemeral device state reported by GetHTStatus replies and
// status-changed events. The current channel id travels split across two
// nibbles: the lower half in the base record, the upper half at the tail
// of the long-form extension.
type Status struct {
	IsPowerOn      bool
	IsInTx         bool
	IsSq           bool
	IsInRx         bool
	DoubleChannel  DoubleChannel
	IsScan         bool
	IsRadio        bool
	CurrChannelID  uint8
	IsGPSLocked    bool
	IsHFPConnected bool
	IsAOCConnected bool

	// Long-form extension; the documented defaults apply when the device
	// sends the short form.
	RSSI       float64 // 0..100
	CurrRegion uint8
}

// statusBaseBits is the size of the short-form status record. The long
// form appends RSSI, region and the channel id upper nibble; the two
// forms are told apart purely by remaining bit count.
const (
	statusBaseBits      = 64
	statusExtensionBits = 16
)

// rssiRawMax is the saturation point of the 4-bit raw RSSI field, which
// rescales linearly onto 0..100.
const rssiRawMax = 15

func DecodeStatus(body []byte) (Status, error) {
	r := NewBitReader(body)
	var s Status
	s.IsPowerOn = r.Bool()
	s.IsInTx = r.Bool()
	s.IsSq = r.Bool()
	s.IsInRx = r.Bool()
	s.DoubleChannel = DoubleChannel(r.Uint(2))
	s.IsScan = r.Bool()
	s.IsRadio = r.Bool()
	chLower := uint8(r.Uint(4))
	s.IsGPSLocked = r.Bool()
	s.IsHFPConnected = r.Bool()
	s.IsAOCConnected = r.Bool()
	r.Skip(statusBaseBits - 15)
	var chUpper uint8
	if r.Remaining() >= statusExtensionBits {
		s.RSSI = float64(r.Uint(4)) * 100 / rssiRawMax
		s.CurrRegion = uint8(r.Uint(6))
		chUpper = uint8(r.Uint(4))
		r.Skip(2)
	}
	if err := r.Err(); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	s.CurrChannelID = joinNibbles(chUpper, chLower)

	return s, nil
}

// EncodeStatus always emits the long form.
func EncodeStatus(s Status) []byte {
	chUpper, chLower := splitNibbles(s.CurrChannelID)

	w := NewBitWriter()
	w.WriteBool(s.IsPowerOn)
	w.WriteBool(s.IsInTx)
	w.WriteBool(s.IsSq)
	w.WriteBool(s.IsInRx)
	w.WriteUint(uint64(s.DoubleChannel), 2)
	w.WriteBool(s.IsScan)
	w.WriteBool(s.IsRadio)
	w.WriteUint(uint64(chLower), 4)
	w.WriteBool(s.IsGPSLocked)
	w.WriteBool(s.IsHFPConnected)
	w.WriteBool(s.IsAOCConnected)
	w.Pad(statusBaseBits - 15)
	w.WriteUint(uint64(rssiRaw(s.RSSI)), 4)
	w.WriteUint(uint64(s.CurrRegion), 6)
	w.WriteUint(uint64(chUpper), 4)
	w.Pad(2)

	return w.Bytes()
}

func rssiRaw(rssi float64) uint8 {
	if rssi <= 0 {
		return 0
	}
	if rssi >= 100 {
		return rssiRawMax
	}

	return uint8(rssi*rssiRawMax/100 + 0.5)
}
