package protocol

import "fmt"

// channelNameWidth is the wire byte-width of a channel's display name.
const channelNameWidth = 10

// Channel is one addressable memory slot. The device is authoritative;
// local copies are caches replaced wholesale on read and patched on
// write confirmation or change event.
type Channel struct {
	ChannelID uint8

	TxMod  Modulation
	TxFreq float64 // MHz
	RxMod  Modulation
	RxFreq float64 // MHz

	TxSubAudio SubAudio
	RxSubAudio SubAudio

	Scan            bool
	TxAtMaxPower    bool
	TalkAround      bool
	Wide            bool // bandwidth bit: narrow when false
	PreDeEmphBypass bool
	Sign            bool
	TxAtMedPower    bool
	TxDisable       bool
	FixedFreq       bool
	FixedBandwidth  bool
	FixedTxPower    bool
	Mute            bool

	Name string
}

// Empty reports whether the slot is unconfigured. A zero receive
// frequency marks an empty slot.
func (c Channel) Empty() bool {
	return c.RxFreq == 0
}

func DecodeChannel(body []byte) (Channel, error) {
	r := NewBitReader(body)
	ch := Channel{
		ChannelID:       uint8(r.Uint(8)),
		TxMod:           Modulation(r.Uint(2)),
		TxFreq:          decodeFreqMHz(r.Uint(30)),
		RxMod:           Modulation(r.Uint(2)),
		RxFreq:          decodeFreqMHz(r.Uint(30)),
		TxSubAudio:      decodeSubAudio(r.Uint(16)),
		RxSubAudio:      decodeSubAudio(r.Uint(16)),
		Scan:            r.Bool(),
		TxAtMaxPower:    r.Bool(),
		TalkAround:      r.Bool(),
		Wide:            r.Bool(),
		PreDeEmphBypass: r.Bool(),
		Sign:            r.Bool(),
		TxAtMedPower:    r.Bool(),
		TxDisable:       r.Bool(),
		FixedFreq:       r.Bool(),
		FixedBandwidth:  r.Bool(),
		FixedTxPower:    r.Bool(),
		Mute:            r.Bool(),
	}
	r.Skip(4)
	ch.Name = trimString(r.Bytes(channelNameWidth))
	if err := r.Err(); err != nil {
		return Channel{}, fmt.Errorf("decode channel: %w", err)
	}

	return ch, nil
}

func EncodeChannel(ch Channel) []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(ch.ChannelID), 8)
	w.WriteUint(uint64(ch.TxMod), 2)
	w.WriteUint(encodeFreqMHz(ch.TxFreq), 30)
	w.WriteUint(uint64(ch.RxMod), 2)
	w.WriteUint(encodeFreqMHz(ch.RxFreq), 30)
	w.WriteUint(ch.TxSubAudio.raw(), 16)
	w.WriteUint(ch.RxSubAudio.raw(), 16)
	w.WriteBool(ch.Scan)
	w.WriteBool(ch.TxAtMaxPower)
	w.WriteBool(ch.TalkAround)
	w.WriteBool(ch.Wide)
	w.WriteBool(ch.PreDeEmphBypass)
	w.WriteBool(ch.Sign)
	w.WriteBool(ch.TxAtMedPower)
	w.WriteBool(ch.TxDisable)
	w.WriteBool(ch.FixedFreq)
	w.WriteBool(ch.FixedBandwidth)
	w.WriteBool(ch.FixedTxPower)
	w.WriteBool(ch.Mute)
	w.Pad(4)
	w.WriteBytes(fixedString(ch.Name, channelNameWidth))

	return w.Bytes()
}
