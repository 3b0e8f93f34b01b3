package protocol

import (
	"fmt"
	"math"
	"time"
)

// Position is a GPS fix. Altitude, speed and heading are optional: the
// device reports a saturated all-ones pattern when a value is unknown,
// which decodes to a nil pointer rather than zero.
type Position struct {
	Latitude  float64 // degrees
	Longitude float64 // degrees

	Altitude *int // meters
	Speed    *int
	Heading  *int

	Time     time.Time
	Accuracy uint16
}

// Latitude and longitude are 24-bit two's-complement counts of
// 1/500ths of a minute.
const positionScale = 500

// unknownFieldRaw is the 16-bit saturation sentinel for the optional
// motion fields.
const unknownFieldRaw = 0xFFFF

func DecodePosition(body []byte) (Position, error) {
	r := NewBitReader(body)
	var p Position
	latRaw := r.Uint(24)
	lonRaw := r.Uint(24)
	altRaw := r.Uint(16)
	speedRaw := r.Uint(16)
	headingRaw := r.Uint(16)
	ts := r.Uint(32)
	p.Accuracy = uint16(r.Uint(16))
	if err := r.Err(); err != nil {
		return Position{}, fmt.Errorf("decode position: %w", err)
	}

	p.Latitude = float64(signExtend(latRaw, 24)) / positionScale / 60
	p.Longitude = float64(signExtend(lonRaw, 24)) / positionScale / 60
	if altRaw != unknownFieldRaw {
		alt := int(signExtend(altRaw, 16))
		p.Altitude = &alt
	}
	if speedRaw != unknownFieldRaw {
		speed := int(speedRaw)
		p.Speed = &speed
	}
	if headingRaw != unknownFieldRaw {
		heading := int(headingRaw)
		p.Heading = &heading
	}
	p.Time = time.Unix(int64(ts), 0).UTC()

	return p, nil
}

func EncodePosition(p Position) []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(int64(math.Round(p.Latitude*60*positionScale)))&0xFFFFFF, 24)
	w.WriteUint(uint64(int64(math.Round(p.Longitude*60*positionScale)))&0xFFFFFF, 24)
	w.WriteUint(optionalRaw(p.Altitude), 16)
	w.WriteUint(optionalRaw(p.Speed), 16)
	w.WriteUint(optionalRaw(p.Heading), 16)
	w.WriteUint(uint64(p.Time.Unix()), 32)
	w.WriteUint(uint64(p.Accuracy), 16)

	return w.Bytes()
}

func optionalRaw(v *int) uint64 {
	if v == nil {
		return unknownFieldRaw
	}

	return uint64(*v) & 0xFFFF
}
