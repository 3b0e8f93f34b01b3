package main

import (
	"bytes"
	"testing"

	"htgo/internal/protocol"
)

func TestSplitFragments(t *testing.T) {
	payload := make([]byte, 120)
	for i := range payload {
		payload[i] = byte(i)
	}

	fragments, err := splitFragments(payload, -1)
	if err != nil {
		t.Fatalf("splitFragments: %v", err)
	}
	if len(fragments) != 3 {
		t.Fatalf("len(fragments) = %d, want 3", len(fragments))
	}
	if len(fragments[0].Data) != protocol.MaxDataFragmentLen || len(fragments[2].Data) != 20 {
		t.Fatalf("fragment sizes = %d/%d/%d", len(fragments[0].Data), len(fragments[1].Data), len(fragments[2].Data))
	}
	for i, frag := range fragments {
		if frag.FragmentID != uint8(i) {
			t.Fatalf("fragment %d has id %d", i, frag.FragmentID)
		}
		if frag.WithChannelID {
			t.Fatalf("fragment %d carries a channel id", i)
		}
		wantFinal := i == len(fragments)-1
		if frag.IsFinalFragment != wantFinal {
			t.Fatalf("fragment %d final = %t", i, frag.IsFinalFragment)
		}
	}
	if !bytes.Equal(fragments[1].Data, payload[50:100]) {
		t.Fatal("fragment 1 data mismatch")
	}
}

func TestSplitFragmentsRejectsOversizePayload(t *testing.T) {
	max := (protocol.MaxDataFragmentID + 1) * protocol.MaxDataFragmentLen

	fragments, err := splitFragments(make([]byte, max), 0)
	if err != nil {
		t.Fatalf("payload at the limit rejected: %v", err)
	}
	if len(fragments) != protocol.MaxDataFragmentID+1 {
		t.Fatalf("len(fragments) = %d, want %d", len(fragments), protocol.MaxDataFragmentID+1)
	}
	if last := fragments[len(fragments)-1]; last.FragmentID != protocol.MaxDataFragmentID {
		t.Fatalf("last fragment id = %d, want %d", last.FragmentID, protocol.MaxDataFragmentID)
	}

	if _, err := splitFragments(make([]byte, max+1), 0); err == nil {
		t.Fatal("payload over the limit accepted")
	}
}

func TestSplitFragmentsEmptyPayload(t *testing.T) {
	fragments, err := splitFragments(nil, 3)
	if err != nil {
		t.Fatalf("splitFragments: %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("len(fragments) = %d, want 1", len(fragments))
	}
	if !fragments[0].IsFinalFragment {
		t.Fatal("single empty fragment not final")
	}
	if !fragments[0].WithChannelID || fragments[0].ChannelID != 3 {
		t.Fatalf("channel id not carried: %+v", fragments[0])
	}
}
