package protocol

import "fmt"

// PowerStatus is the decoded reply to a power-status query. Exactly one
// of Voltage or Level is meaningful, selected by Type.
type PowerStatus struct {
	Type    PowerStatusType
	Voltage float64 // volts, for PowerStatusBatteryVoltage
	Level   uint8   // for the level / percentage variants
}

func DecodePowerStatus(body []byte) (PowerStatus, error) {
	r := NewBitReader(body)
	var p PowerStatus
	p.Type = PowerStatusType(r.Uint(16))
	switch p.Type {
	case PowerStatusBatteryVoltage:
		p.Voltage = float64(r.Uint(16)) / 1000
	case PowerStatusBatteryLevel, PowerStatusRCBatteryLevel, PowerStatusBatteryPercentage:
		p.Level = uint8(r.Uint(8))
	default:
		if err := r.Err(); err != nil {
			return PowerStatus{}, fmt.Errorf("decode power status: %w", err)
		}

		return PowerStatus{}, fmt.Errorf("unrecognized power status type: %d", p.Type)
	}
	if err := r.Err(); err != nil {
		return PowerStatus{}, fmt.Errorf("decode power status: %w", err)
	}

	return p, nil
}

func EncodePowerStatus(p PowerStatus) []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(p.Type), 16)
	switch p.Type {
	case PowerStatusBatteryVoltage:
		w.WriteUint(uint64(p.Voltage*1000+0.5), 16)
	default:
		w.WriteUint(uint64(p.Level), 8)
	}

	return w.Bytes()
}

// EncodePowerStatusRequest builds the body of a power-status query.
func EncodePowerStatusRequest(t PowerStatusType) []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(t), 16)

	return w.Bytes()
}
