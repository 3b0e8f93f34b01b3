package protocol

import "fmt"

// DoubleChannel selects the dual-watch mode: off, or watching selector A
// or B alongside the active channel.
type DoubleChannel uint8

const (
	DoubleChannelOff DoubleChannel = 0
	DoubleChannelA   DoubleChannel = 1
	DoubleChannelB   DoubleChannel = 2
)

// Settings is the device-wide configuration record. The wire only
// supports whole-record writes, so callers patch a local copy and resend
// the entire structure.
//
// ChannelA and ChannelB each travel split across two non-adjacent wire
// nibbles (lower early in the frame, upper much later); the split is
// reassembled here and re-emitted bit-for-bit on encode.
type Settings struct {
	ChannelA uint8
	ChannelB uint8

	SquelchLevel        uint8
	TailElim            bool
	AutoRelayEn         bool
	AutoPowerOn         bool
	KeepAghfpLink       bool
	MicGain             uint8
	TxHoldTime          uint8
	TxTimeLimit         uint8
	LocalSpeaker        uint8
	BtMicGain           uint8
	AdaptiveResponse    bool
	DisTone             bool
	PowerSavingMode     bool
	AutoPowerOff        uint8
	AutoShareLocCh      uint8
	HmSpeaker           uint8
	PositioningSystem   uint8
	TimeOffset          uint8
	UseFreqRange2       bool
	PttLock             bool
	LeadingSyncBitEn    bool
	PairingAtPowerOn    bool
	ScreenTimeout       uint8
	VfoX                uint8
	ImperialUnit        bool
	DoubleChannel       DoubleChannel
	ScanResumeTime      uint8
	AutoPowerChangeMode bool
	PreloadChannel      bool

	// Long-form extension, zero when the device sends the short form.
	Vfo1ModFreqX uint32
	Vfo2ModFreqX uint32
}

// settingsExtensionBits is the short/long form boundary: a settings body
// with at least this many bits beyond the base record carries the two VFO
// frequency extension fields.
const settingsExtensionBits = 64

func DecodeSettings(body []byte) (Settings, error) {
	r := NewBitReader(body)
	var s Settings
	chALower := uint8(r.Uint(4))
	s.SquelchLevel = uint8(r.Uint(4))
	s.TailElim = r.Bool()
	s.AutoRelayEn = r.Bool()
	s.AutoPowerOn = r.Bool()
	s.KeepAghfpLink = r.Bool()
	s.MicGain = uint8(r.Uint(3))
	s.TxHoldTime = uint8(r.Uint(4))
	s.TxTimeLimit = uint8(r.Uint(5))
	s.LocalSpeaker = uint8(r.Uint(2))
	s.BtMicGain = uint8(r.Uint(3))
	s.AdaptiveResponse = r.Bool()
	s.DisTone = r.Bool()
	s.PowerSavingMode = r.Bool()
	s.AutoPowerOff = uint8(r.Uint(3))
	s.AutoShareLocCh = uint8(r.Uint(5))
	s.HmSpeaker = uint8(r.Uint(2))
	s.PositioningSystem = uint8(r.Uint(4))
	s.TimeOffset = uint8(r.Uint(6))
	s.UseFreqRange2 = r.Bool()
	s.PttLock = r.Bool()
	s.LeadingSyncBitEn = r.Bool()
	s.PairingAtPowerOn = r.Bool()
	s.ScreenTimeout = uint8(r.Uint(5))
	s.VfoX = uint8(r.Uint(2))
	s.ImperialUnit = r.Bool()
	chAUpper := uint8(r.Uint(4))
	chBLower := uint8(r.Uint(4))
	s.DoubleChannel = DoubleChannel(r.Uint(2))
	s.ScanResumeTime = uint8(r.Uint(5))
	s.AutoPowerChangeMode = r.Bool()
	s.PreloadChannel = r.Bool()
	chBUpper := uint8(r.Uint(4))
	r.Skip(3)
	if r.Remaining() >= settingsExtensionBits {
		s.Vfo1ModFreqX = uint32(r.Uint(32))
		s.Vfo2ModFreqX = uint32(r.Uint(32))
	}
	if err := r.Err(); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.ChannelA = joinNibbles(chAUpper, chALower)
	s.ChannelB = joinNibbles(chBUpper, chBLower)

	return s, nil
}

// EncodeSettings always emits the long form.
func EncodeSettings(s Settings) []byte {
	chAUpper, chALower := splitNibbles(s.ChannelA)
	chBUpper, chBLower := splitNibbles(s.ChannelB)

	w := NewBitWriter()
	w.WriteUint(uint64(chALower), 4)
	w.WriteUint(uint64(s.SquelchLevel), 4)
	w.WriteBool(s.TailElim)
	w.WriteBool(s.AutoRelayEn)
	w.WriteBool(s.AutoPowerOn)
	w.WriteBool(s.KeepAghfpLink)
	w.WriteUint(uint64(s.MicGain), 3)
	w.WriteUint(uint64(s.TxHoldTime), 4)
	w.WriteUint(uint64(s.TxTimeLimit), 5)
	w.WriteUint(uint64(s.LocalSpeaker), 2)
	w.WriteUint(uint64(s.BtMicGain), 3)
	w.WriteBool(s.AdaptiveResponse)
	w.WriteBool(s.DisTone)
	w.WriteBool(s.PowerSavingMode)
	w.WriteUint(uint64(s.AutoPowerOff), 3)
	w.WriteUint(uint64(s.AutoShareLocCh), 5)
	w.WriteUint(uint64(s.HmSpeaker), 2)
	w.WriteUint(uint64(s.PositioningSystem), 4)
	w.WriteUint(uint64(s.TimeOffset), 6)
	w.WriteBool(s.UseFreqRange2)
	w.WriteBool(s.PttLock)
	w.WriteBool(s.LeadingSyncBitEn)
	w.WriteBool(s.PairingAtPowerOn)
	w.WriteUint(uint64(s.ScreenTimeout), 5)
	w.WriteUint(uint64(s.VfoX), 2)
	w.WriteBool(s.ImperialUnit)
	w.WriteUint(uint64(chAUpper), 4)
	w.WriteUint(uint64(chBLower), 4)
	w.WriteUint(uint64(s.DoubleChannel), 2)
	w.WriteUint(uint64(s.ScanResumeTime), 5)
	w.WriteBool(s.AutoPowerChangeMode)
	w.WriteBool(s.PreloadChannel)
	w.WriteUint(uint64(chBUpper), 4)
	w.Pad(3)
	w.WriteUint(uint64(s.Vfo1ModFreqX), 32)
	w.WriteUint(uint64(s.Vfo2ModFreqX), 32)

	return w.Bytes()
}
