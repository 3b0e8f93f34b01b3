package protocol

import (
	"math"
	"testing"
)

func TestChannelRoundTrip(t *testing.T) {
	ch := Channel{
		ChannelID:    7,
		TxMod:        ModulationFM,
		TxFreq:       446.00625,
		RxMod:        ModulationDMR,
		RxFreq:       430.2125,
		TxSubAudio:   CTCSS(141.3),
		RxSubAudio:   DCS(23),
		Scan:         true,
		TxAtMaxPower: true,
		Wide:         true,
		TxDisable:    true,
		Mute:         true,
		Name:         "Calling",
	}

	body := EncodeChannel(ch)
	if len(body) != 25 {
		t.Fatalf("encoded channel length: got %d want 25", len(body))
	}
	got, err := DecodeChannel(body)
	if err != nil {
		t.Fatalf("decode channel: %v", err)
	}
	if got != ch {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, ch)
	}
}

func TestChannelFrequencyScale(t *testing.T) {
	ch := Channel{ChannelID: 1, TxFreq: 446.00625, RxFreq: 446.00625}
	got, err := DecodeChannel(EncodeChannel(ch))
	if err != nil {
		t.Fatalf("decode channel: %v", err)
	}
	if math.Abs(got.RxFreq-446.00625) > 1e-6 {
		t.Fatalf("rx frequency: got %.7f want 446.00625 within 1e-6", got.RxFreq)
	}
}

func TestChannelNameTruncatedAndPadded(t *testing.T) {
	ch := Channel{ChannelID: 2, RxFreq: 145.5, Name: "a very long channel name"}
	got, err := DecodeChannel(EncodeChannel(ch))
	if err != nil {
		t.Fatalf("decode channel: %v", err)
	}
	if got.Name != "a very lon" {
		t.Fatalf("name: got %q want truncation to 10 bytes", got.Name)
	}
}

func TestChannelEmpty(t *testing.T) {
	if !(Channel{ChannelID: 3}).Empty() {
		t.Fatalf("zero rx frequency must mean empty slot")
	}
	if (Channel{ChannelID: 3, RxFreq: 145.5}).Empty() {
		t.Fatalf("configured slot reported empty")
	}
}

func TestChannelTruncatedBody(t *testing.T) {
	body := EncodeChannel(Channel{ChannelID: 9, RxFreq: 433.5})
	if _, err := DecodeChannel(body[:10]); err == nil {
		t.Fatalf("expected error for truncated channel body, got nil")
	}
}

func TestSubAudioBoundaries(t *testing.T) {
	cases := []struct {
		raw  uint64
		want SubAudio
	}{
		{0, SubAudio{}},
		{6699, DCS(6699)},
		{6700, CTCSS(67.00)},
		{14130, CTCSS(141.3)},
		{23, DCS(23)},
	}
	for _, tc := range cases {
		got := decodeSubAudio(tc.raw)
		if got != tc.want {
			t.Fatalf("decodeSubAudio(%d): got %+v want %+v", tc.raw, got, tc.want)
		}
		if back := got.raw(); back != tc.raw {
			t.Fatalf("sub-audio raw round trip for %d: got %d", tc.raw, back)
		}
	}
}
