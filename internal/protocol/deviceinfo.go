package protocol

import "fmt"

// DeviceInfo is the immutable identity record read once per connection.
type DeviceInfo struct {
	VendorID    uint8
	ProductID   uint16
	HWVersion   uint8
	SoftVersion uint16

	SupportRadio            bool
	SupportMediumPower      bool
	FixedLocSpeakerVol      bool
	NotSupportSoftPowerCtrl bool
	HaveNoSpeaker           bool
	HaveHMSpeaker           bool
	RegionCount             uint8
	SupportNOAA             bool
	GMRS                    bool
	SupportVFO              bool
	SupportDMR              bool
	ChannelCount            uint8
	FreqRangeCount          uint8
}

func DecodeDeviceInfo(body []byte) (DeviceInfo, error) {
	r := NewBitReader(body)
	info := DeviceInfo{
		VendorID:                uint8(r.Uint(8)),
		ProductID:               uint16(r.Uint(16)),
		HWVersion:               uint8(r.Uint(8)),
		SoftVersion:             uint16(r.Uint(16)),
		SupportRadio:            r.Bool(),
		SupportMediumPower:      r.Bool(),
		FixedLocSpeakerVol:      r.Bool(),
		NotSupportSoftPowerCtrl: r.Bool(),
		HaveNoSpeaker:           r.Bool(),
		HaveHMSpeaker:           r.Bool(),
		RegionCount:             uint8(r.Uint(6)),
		SupportNOAA:             r.Bool(),
		GMRS:                    r.Bool(),
		SupportVFO:              r.Bool(),
		SupportDMR:              r.Bool(),
		ChannelCount:            uint8(r.Uint(8)),
		FreqRangeCount:          uint8(r.Uint(4)),
	}
	r.Skip(4)
	if err := r.Err(); err != nil {
		return DeviceInfo{}, fmt.Errorf("decode device info: %w", err)
	}

	return info, nil
}

func EncodeDeviceInfo(info DeviceInfo) []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(info.VendorID), 8)
	w.WriteUint(uint64(info.ProductID), 16)
	w.WriteUint(uint64(info.HWVersion), 8)
	w.WriteUint(uint64(info.SoftVersion), 16)
	w.WriteBool(info.SupportRadio)
	w.WriteBool(info.SupportMediumPower)
	w.WriteBool(info.FixedLocSpeakerVol)
	w.WriteBool(info.NotSupportSoftPowerCtrl)
	w.WriteBool(info.HaveNoSpeaker)
	w.WriteBool(info.HaveHMSpeaker)
	w.WriteUint(uint64(info.RegionCount), 6)
	w.WriteBool(info.SupportNOAA)
	w.WriteBool(info.GMRS)
	w.WriteBool(info.SupportVFO)
	w.WriteBool(info.SupportDMR)
	w.WriteUint(uint64(info.ChannelCount), 8)
	w.WriteUint(uint64(info.FreqRangeCount), 4)
	w.Pad(4)

	return w.Bytes()
}
