package protocol

import "testing"

func TestStatusRoundTrip(t *testing.T) {
	want := Status{
		IsPowerOn:      true,
		IsInRx:         true,
		DoubleChannel:  DoubleChannelA,
		IsScan:         true,
		CurrChannelID:  0xAB, // exercises both nibble halves
		IsGPSLocked:    true,
		IsHFPConnected: true,
		RSSI:           100,
		CurrRegion:     5,
	}
	body := EncodeStatus(want)
	if len(body) != 10 {
		t.Fatalf("encoded status length: got %d want 10", len(body))
	}
	got, err := DecodeStatus(body)
	if err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestStatusShortFormDefaults(t *testing.T) {
	long := EncodeStatus(Status{
		IsPowerOn:     true,
		CurrChannelID: 0x0C,
		RSSI:          100,
		CurrRegion:    3,
	})
	short := long[:8]

	got, err := DecodeStatus(short)
	if err != nil {
		t.Fatalf("decode 8-byte short-form status: %v", err)
	}
	if got.RSSI != 0 || got.CurrRegion != 0 {
		t.Fatalf("short form defaults: got rssi=%v region=%d want 0/0", got.RSSI, got.CurrRegion)
	}
	if got.CurrChannelID != 0x0C {
		t.Fatalf("short form channel id: got %#x want 0x0c (upper nibble absent)", got.CurrChannelID)
	}
	if !got.IsPowerOn {
		t.Fatalf("short form lost base flags")
	}
}

func TestStatusRSSIRescale(t *testing.T) {
	cases := []struct {
		raw  uint8
		want float64
	}{
		{15, 100},
		{0, 0},
	}
	for _, tc := range cases {
		w := NewBitWriter()
		w.Pad(statusBaseBits)
		w.WriteUint(uint64(tc.raw), 4)
		w.WriteUint(0, 6)
		w.WriteUint(0, 4)
		w.Pad(2)

		got, err := DecodeStatus(w.Bytes())
		if err != nil {
			t.Fatalf("decode status with raw rssi %d: %v", tc.raw, err)
		}
		if got.RSSI != tc.want {
			t.Fatalf("raw rssi %d: got %v want %v", tc.raw, got.RSSI, tc.want)
		}
	}
}

func TestStatusTruncatedBody(t *testing.T) {
	if _, err := DecodeStatus([]byte{0xFF}); err == nil {
		t.Fatalf("expected error for truncated status body, got nil")
	}
}
