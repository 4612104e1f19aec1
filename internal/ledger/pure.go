package ledger

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Pure-value serialization. The backend expects BCS encoding for pure
// inputs: little-endian fixed-width integers, single-byte bools, raw
// 32-byte addresses, and ULEB128 length-prefixed vectors.

// PureUint encodes an unsigned integer of the given bit width (8, 16,
// 32, 64, 128 or 256).
func PureUint(v *big.Int, width int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", v)
	}
	if v.BitLen() > width {
		return nil, fmt.Errorf("value %s overflows u%d", v, width)
	}
	switch width {
	case 8:
		return []byte{byte(v.Uint64())}, nil
	case 16:
		return binary.LittleEndian.AppendUint16(nil, uint16(v.Uint64())), nil
	case 32:
		return binary.LittleEndian.AppendUint32(nil, uint32(v.Uint64())), nil
	case 64:
		return binary.LittleEndian.AppendUint64(nil, v.Uint64()), nil
	case 128, 256:
		out := make([]byte, width/8)
		raw := v.Bytes() // big-endian
		for i, b := range raw {
			out[len(raw)-1-i] = b
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported integer width u%d", width)
	}
}

// PureU64 encodes a u64.
func PureU64(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

// PureBool encodes a bool.
func PureBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// PureAddress encodes an address.
func PureAddress(a Address) []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// PureBytes encodes a byte vector (ULEB128 length prefix).
func PureBytes(b []byte) []byte {
	out := AppendULEB128(nil, uint64(len(b)))
	return append(out, b...)
}

// PureVector encodes a vector of pre-encoded elements.
func PureVector(elems [][]byte) []byte {
	out := AppendULEB128(nil, uint64(len(elems)))
	for _, e := range elems {
		out = append(out, e...)
	}
	return out
}

// AppendULEB128 appends the ULEB128 encoding of v.
func AppendULEB128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
			continue
		}
		return append(dst, b)
	}
}
