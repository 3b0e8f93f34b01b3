package protocol

import (
	"math"
	"testing"
	"time"
)

func TestPositionRoundTrip(t *testing.T) {
	alt := 142
	speed := 12
	heading := 275
	want := Position{
		Latitude:  51.4779,
		Longitude: -0.0015,
		Altitude:  &alt,
		Speed:     &speed,
		Heading:   &heading,
		Time:      time.Unix(1735123456, 0).UTC(),
		Accuracy:  8,
	}

	got, err := DecodePosition(EncodePosition(want))
	if err != nil {
		t.Fatalf("decode position: %v", err)
	}
	// 1/500th of a minute is the wire resolution.
	const res = 1.0 / 500 / 60
	if math.Abs(got.Latitude-want.Latitude) > res {
		t.Fatalf("latitude: got %v want %v within %v", got.Latitude, want.Latitude, res)
	}
	if math.Abs(got.Longitude-want.Longitude) > res {
		t.Fatalf("longitude: got %v want %v within %v", got.Longitude, want.Longitude, res)
	}
	if got.Altitude == nil || *got.Altitude != alt {
		t.Fatalf("altitude: got %v want %d", got.Altitude, alt)
	}
	if got.Speed == nil || *got.Speed != speed {
		t.Fatalf("speed: got %v want %d", got.Speed, speed)
	}
	if got.Heading == nil || *got.Heading != heading {
		t.Fatalf("heading: got %v want %d", got.Heading, heading)
	}
	if !got.Time.Equal(want.Time) {
		t.Fatalf("time: got %v want %v", got.Time, want.Time)
	}
	if got.Accuracy != want.Accuracy {
		t.Fatalf("accuracy: got %d want %d", got.Accuracy, want.Accuracy)
	}
}

func TestPositionUnknownSentinels(t *testing.T) {
	got, err := DecodePosition(EncodePosition(Position{Latitude: -33.8688, Longitude: 151.2093}))
	if err != nil {
		t.Fatalf("decode position: %v", err)
	}
	if got.Altitude != nil || got.Speed != nil || got.Heading != nil {
		t.Fatalf("saturated fields must decode to unknown, got alt=%v speed=%v heading=%v",
			got.Altitude, got.Speed, got.Heading)
	}
	if got.Latitude >= 0 {
		t.Fatalf("southern latitude lost its sign: got %v", got.Latitude)
	}
}

func TestPositionNegativeAltitude(t *testing.T) {
	alt := -41 // below sea level is a real fix, not a sentinel
	got, err := DecodePosition(EncodePosition(Position{Altitude: &alt}))
	if err != nil {
		t.Fatalf("decode position: %v", err)
	}
	if got.Altitude == nil || *got.Altitude != alt {
		t.Fatalf("negative altitude: got %v want %d", got.Altitude, alt)
	}
}

func TestPositionTruncatedBody(t *testing.T) {
	if _, err := DecodePosition([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatalf("expected error for truncated position body, got nil")
	}
}
