package protocol

import "fmt"

// Event is a decoded unsolicited notification. Exactly one payload field
// is set, matching Type; unrecognized tags land in Raw so future event
// types are surfaced instead of silently lost.
type Event struct {
	Type EventType

	Status         *Status
	Channel        *Channel
	Settings       *Settings
	BeaconSettings *BeaconSettings
	Fragment       *DataFragment

	// Raw holds the payload of an unrecognized event type.
	Raw []byte
}

// DecodeEvent parses an event-notification body: a 1-byte type tag
// followed by a type-specific payload.
func DecodeEvent(body []byte) (Event, error) {
	if len(body) < 1 {
		return Event{}, fmt.Errorf("decode event: empty body: %w", ErrEndOfStream)
	}
	typ := EventType(body[0])
	payload := body[1:]

	switch typ {
	case EventHTStatusChanged:
		status, err := DecodeStatus(payload)
		if err != nil {
			return Event{}, err
		}

		return Event{Type: typ, Status: &status}, nil
	case EventHTChChanged:
		ch, err := DecodeChannel(payload)
		if err != nil {
			return Event{}, err
		}

		return Event{Type: typ, Channel: &ch}, nil
	case EventHTSettingsChanged:
		settings, err := DecodeSettings(payload)
		if err != nil {
			return Event{}, err
		}

		return Event{Type: typ, Settings: &settings}, nil
	case EventBSSSettingsChanged:
		beacon, err := DecodeBeaconSettings(payload)
		if err != nil {
			return Event{}, err
		}

		return Event{Type: typ, BeaconSettings: &beacon}, nil
	case EventDataRxd:
		frag, err := DecodeDataFragment(payload)
		if err != nil {
			return Event{}, err
		}

		return Event{Type: typ, Fragment: &frag}, nil
	default:
		raw := make([]byte, len(payload))
		copy(raw, payload)

		return Event{Type: typ, Raw: raw}, nil
	}
}
