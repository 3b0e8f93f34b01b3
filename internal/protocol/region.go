package protocol

import "fmt"

// RegionName is one entry of the region name table: index = region id,
// value = possibly empty display name.
type RegionName struct {
	RegionID uint8
	Name     string
}

// DecodeRegionName decodes a region-name reply body. The wire width of
// the name field is an unverified capture-derived constant, so callers
// pass it in (DefaultRegionNameWidth unless overridden by config).
func DecodeRegionName(body []byte, nameWidth int) (RegionName, error) {
	r := NewBitReader(body)
	rn := RegionName{
		RegionID: uint8(r.Uint(8)),
		Name:     trimString(r.Bytes(nameWidth)),
	}
	if err := r.Err(); err != nil {
		return RegionName{}, fmt.Errorf("decode region name: %w", err)
	}

	return rn, nil
}

func EncodeRegionName(rn RegionName, nameWidth int) []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(rn.RegionID), 8)
	w.WriteBytes(fixedString(rn.Name, nameWidth))

	return w.Bytes()
}
