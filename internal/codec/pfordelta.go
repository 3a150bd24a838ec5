package codec

import (
	"encoding/binary"
	"math"
)

// PForDelta packs a frame of values at a single bit width b chosen so at
// least 90% of the values fit; the remainder ("exceptions") are stored as
// (position, value) pairs in a trailing VarByte-encoded overflow region.
//
// Wire format: [b: 1 byte][numExceptions: uint16][bit-packed body,
// ceil(n*b/8) bytes][for each exception: position uint16, VarByte value].
type PForDelta struct{}

func (PForDelta) ID() string { return "pfordelta" }

const pforExceptionCoverage = 0.90

func (PForDelta) Encode(values []uint32) []byte {
	n := len(values)
	b := choosePForBitWidth(values)

	type exception struct {
		pos int
		val uint32
	}
	var exceptions []exception
	limit := uint64(1)<<uint(b) - 1
	if b == 32 {
		limit = 1<<32 - 1
	}
	packable := make([]uint32, n)
	for i, v := range values {
		if uint64(v) > limit {
			exceptions = append(exceptions, exception{i, v})
			packable[i] = 0
		} else {
			packable[i] = v
		}
	}

	out := make([]byte, 3)
	out[0] = byte(b)
	binary.LittleEndian.PutUint16(out[1:3], uint16(len(exceptions)))
	out = append(out, bitPackLSB(packable, uint(b))...)

	vb := VarByte{}
	for _, ex := range exceptions {
		posBuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(posBuf, uint16(ex.pos))
		out = append(out, posBuf...)
		out = append(out, vb.Encode([]uint32{ex.val})...)
	}
	return out
}

// choosePForBitWidth finds the smallest bit width covering at least 90%
// of values, i.e. the (10th percentile from the top) value's bit length.
func choosePForBitWidth(values []uint32) int {
	if len(values) == 0 {
		return 0
	}
	var counts [33]int
	for _, v := range values {
		counts[bitLength(v)]++
	}
	need := int(math.Ceil(pforExceptionCoverage * float64(len(values))))
	if need < 1 {
		need = 1
	}
	cum := 0
	for b := 0; b <= 32; b++ {
		cum += counts[b]
		if cum >= need {
			return b
		}
	}
	return 32
}

func bitLength(v uint32) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

func (PForDelta) Decode(data []byte, n int) ([]uint32, error) {
	out := make([]uint32, n)
	if err := (PForDelta{}).DecodeInto(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (PForDelta) DecodeInto(data []byte, out []uint32) error {
	n := len(out)
	if n == 0 {
		return nil
	}
	if len(data) < 3 {
		return ErrCorrupt
	}
	b := int(data[0])
	numExceptions := int(binary.LittleEndian.Uint16(data[1:3]))
	packedLen := (n*b + 7) / 8
	if 3+packedLen > len(data) {
		return ErrCorrupt
	}
	if err := bitUnpackLSB(data[3:3+packedLen], out, uint(b)); err != nil {
		return err
	}

	pos := 3 + packedLen
	for i := 0; i < numExceptions; i++ {
		if pos+2 > len(data) {
			return ErrCorrupt
		}
		exPos := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
		val, consumed, err := varbyteDecodeOne(data[pos:])
		if err != nil {
			return err
		}
		pos += consumed
		if exPos < 0 || exPos >= n {
			return ErrCorrupt
		}
		out[exPos] = val
	}
	return nil
}

// varbyteDecodeOne decodes a single VarByte-encoded value starting at the
// front of data, returning the value and the number of bytes consumed.
func varbyteDecodeOne(data []byte) (uint32, int, error) {
	var v uint32
	var shift uint
	for i := 0; i < len(data); i++ {
		b := data[i]
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
		if shift > 35 {
			return 0, 0, ErrCorrupt
		}
	}
	return 0, 0, ErrCorrupt
}

// bitPackLSB packs values into a flat LSB-first bit stream, b bits each.
func bitPackLSB(values []uint32, b uint) []byte {
	if b == 0 {
		return nil
	}
	totalBits := len(values) * int(b)
	out := make([]byte, (totalBits+7)/8)
	bitPos := 0
	for _, v := range values {
		for i := uint(0); i < b; i++ {
			if v&(1<<i) != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

// bitUnpackLSB reverses bitPackLSB into out.
func bitUnpackLSB(data []byte, out []uint32, b uint) error {
	if b == 0 {
		for i := range out {
			out[i] = 0
		}
		return nil
	}
	bitPos := 0
	for i := range out {
		var v uint32
		for j := uint(0); j < b; j++ {
			byteIdx := bitPos / 8
			if byteIdx >= len(data) {
				return ErrCorrupt
			}
			if data[byteIdx]&(1<<uint(bitPos%8)) != 0 {
				v |= 1 << j
			}
			bitPos++
		}
		out[i] = v
	}
	return nil
}
