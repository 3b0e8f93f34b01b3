package protocol

import "fmt"

// Widths of the four fixed null-padded string fields in the beacon record.
const (
	beaconIDInfoWidth   = 12
	beaconMessageWidth  = 18
	beaconSymbolWidth   = 2
	beaconCallsignWidth = 6
)

// locationShareIntervalUnit is the wire unit of the share interval field.
const locationShareIntervalUnit = 10 // seconds

// BeaconSettings configures the periodic beacon / APRS path. The 64-bit
// user id travels split across two 32-bit wire fields; only long-form
// frames carry the upper half.
type BeaconSettings struct {
	MaxFwdTimes uint8
	TimeToLive  uint8

	PttReleaseSendLocation  bool
	PttReleaseSendIDInfo    bool
	PttReleaseSendBSSUserID bool
	ShouldShareLocation     bool
	SendPwrVoltage          bool
	PacketFormat            uint8 // 0 = BSS, 1 = APRS
	AllowPositionCheck      bool
	AprsSSID                uint8

	LocationShareIntervalSec uint16 // seconds, wire unit is 10 s
	BSSUserID                uint64

	PttReleaseIDInfo string
	BeaconMessage    string
	AprsSymbol       string
	AprsCallsign     string
}

// beaconExtensionBits is the short/long boundary: long-form bodies carry
// the upper half of the user id after the string block.
const beaconExtensionBits = 32

func DecodeBeaconSettings(body []byte) (BeaconSettings, error) {
	r := NewBitReader(body)
	var b BeaconSettings
	b.MaxFwdTimes = uint8(r.Uint(4))
	b.TimeToLive = uint8(r.Uint(4))
	b.PttReleaseSendLocation = r.Bool()
	b.PttReleaseSendIDInfo = r.Bool()
	b.PttReleaseSendBSSUserID = r.Bool()
	b.ShouldShareLocation = r.Bool()
	b.SendPwrVoltage = r.Bool()
	b.PacketFormat = uint8(r.Uint(1))
	b.AllowPositionCheck = r.Bool()
	r.Skip(1)
	b.AprsSSID = uint8(r.Uint(4))
	r.Skip(4)
	b.LocationShareIntervalSec = uint16(r.Uint(8)) * locationShareIntervalUnit
	idLower := r.Uint(32)
	b.PttReleaseIDInfo = trimString(r.Bytes(beaconIDInfoWidth))
	b.BeaconMessage = trimString(r.Bytes(beaconMessageWidth))
	b.AprsSymbol = trimString(r.Bytes(beaconSymbolWidth))
	b.AprsCallsign = trimString(r.Bytes(beaconCallsignWidth))
	var idUpper uint64
	if r.Remaining() >= beaconExtensionBits {
		idUpper = r.Uint(32)
	}
	if err := r.Err(); err != nil {
		return BeaconSettings{}, fmt.Errorf("decode beacon settings: %w", err)
	}
	b.BSSUserID = idUpper<<32 | idLower

	return b, nil
}

// EncodeBeaconSettings always emits the long form.
func EncodeBeaconSettings(b BeaconSettings) []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(b.MaxFwdTimes), 4)
	w.WriteUint(uint64(b.TimeToLive), 4)
	w.WriteBool(b.PttReleaseSendLocation)
	w.WriteBool(b.PttReleaseSendIDInfo)
	w.WriteBool(b.PttReleaseSendBSSUserID)
	w.WriteBool(b.ShouldShareLocation)
	w.WriteBool(b.SendPwrVoltage)
	w.WriteUint(uint64(b.PacketFormat), 1)
	w.WriteBool(b.AllowPositionCheck)
	w.Pad(1)
	w.WriteUint(uint64(b.AprsSSID), 4)
	w.Pad(4)
	w.WriteUint(uint64(b.LocationShareIntervalSec/locationShareIntervalUnit), 8)
	w.WriteUint(b.BSSUserID&0xFFFFFFFF, 32)
	w.WriteBytes(fixedString(b.PttReleaseIDInfo, beaconIDInfoWidth))
	w.WriteBytes(fixedString(b.BeaconMessage, beaconMessageWidth))
	w.WriteBytes(fixedString(b.AprsSymbol, beaconSymbolWidth))
	w.WriteBytes(fixedString(b.AprsCallsign, beaconCallsignWidth))
	w.WriteUint(b.BSSUserID>>32, 32)

	return w.Bytes()
}
