package protocol

import "fmt"

// DataFragment is one piece of a TNC data transfer, sent by the host with
// HTSendData and received inside DataRxd events. The optional channel id
// trails the data bytes when WithChannelID is set.
type DataFragment struct {
	IsFinalFragment bool
	FragmentID      uint8
	Data            []byte

	WithChannelID bool
	ChannelID     uint8
}

func DecodeDataFragment(body []byte) (DataFragment, error) {
	r := NewBitReader(body)
	var f DataFragment
	f.IsFinalFragment = r.Bool()
	f.WithChannelID = r.Bool()
	f.FragmentID = uint8(r.Uint(6))
	dataLen := r.Remaining() / 8
	if f.WithChannelID {
		dataLen--
	}
	if dataLen < 0 {
		return DataFragment{}, fmt.Errorf("decode data fragment: missing channel id byte: %w", ErrEndOfStream)
	}
	f.Data = r.Bytes(dataLen)
	if f.WithChannelID {
		f.ChannelID = uint8(r.Uint(8))
	}
	if err := r.Err(); err != nil {
		return DataFragment{}, fmt.Errorf("decode data fragment: %w", err)
	}

	return f, nil
}

func EncodeDataFragment(f DataFragment) ([]byte, error) {
	if len(f.Data) > MaxDataFragmentLen {
		return nil, fmt.Errorf("data fragment exceeds %d bytes: %d", MaxDataFragmentLen, len(f.Data))
	}
	if f.FragmentID > MaxDataFragmentID {
		return nil, fmt.Errorf("fragment id exceeds %d: %d", MaxDataFragmentID, f.FragmentID)
	}
	w := NewBitWriter()
	w.WriteBool(f.IsFinalFragment)
	w.WriteBool(f.WithChannelID)
	w.WriteUint(uint64(f.FragmentID), 6)
	w.WriteBytes(f.Data)
	if f.WithChannelID {
		w.WriteUint(uint64(f.ChannelID), 8)
	}

	return w.Bytes(), nil
}
