package codec

// VarByte encodes each integer as a little-endian base-128 sequence of
// 7-bit groups. Continuation bytes have the high bit set; the terminating
// byte does not. Zero encodes as a single 0x00 byte.
//
// Example: 300 (0b1_0010_1100) splits into groups [0101100, 0000010]
// (low 7 bits first), encoded as [0xAC, 0x02].
type VarByte struct{}

func (VarByte) ID() string { return "varbyte" }

// Encode packs values using base-128 varint encoding, one integer after
// another with no length prefix — callers supply n to Decode.
func (VarByte) Encode(values []uint32) []byte {
	// Worst case 5 bytes per uint32.
	out := make([]byte, 0, len(values)*5)
	for _, v := range values {
		for v >= 0x80 {
			out = append(out, byte(v&0x7f)|0x80)
			v >>= 7
		}
		out = append(out, byte(v))
	}
	return out
}

func (VarByte) Decode(data []byte, n int) ([]uint32, error) {
	out := make([]uint32, n)
	if err := (VarByte{}).DecodeInto(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (VarByte) DecodeInto(data []byte, out []uint32) error {
	pos := 0
	for i := range out {
		var v uint32
		var shift uint
		for {
			if pos >= len(data) {
				return ErrCorrupt
			}
			b := data[pos]
			pos++
			v |= uint32(b&0x7f) << shift
			if b&0x80 == 0 {
				break
			}
			shift += 7
			if shift > 35 {
				return ErrCorrupt
			}
		}
		out[i] = v
	}
	return nil
}
