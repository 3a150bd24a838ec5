package codec

import "encoding/binary"

// simple9Layout describes one of Simple-9's nine packings of the 28
// payload bits: how many values fit, and how many bits each gets.
type simple9Layout struct {
	count int
	bits  uint
}

// simple9Layouts is ordered by descending count so the greedy encoder can
// scan it top to bottom and take the first layout whose values all fit.
var simple9Layouts = [9]simple9Layout{
	{28, 1},
	{14, 2},
	{9, 3},
	{7, 4},
	{5, 5},
	{4, 7},
	{3, 9},
	{2, 14},
	{1, 28},
}

// Simple9 packs up to 28 values per 32-bit word: a 4-bit selector in the
// high bits chooses one of nine fixed-width packings for the remaining 28
// bits, per Anh & Moffat.
type Simple9 struct{}

func (Simple9) ID() string { return "simple9" }

func (Simple9) Encode(values []uint32) []byte {
	out := make([]byte, 0, len(values)*4)
	i := 0
	for i < len(values) {
		sel, layout := chooseSimple9Layout(values[i:])
		word := uint32(sel) << 28
		n := layout.count
		if i+n > len(values) {
			n = len(values) - i
		}
		for j := 0; j < n; j++ {
			word |= (values[i+j] & ((1 << layout.bits) - 1)) << (uint(j) * layout.bits)
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, word)
		out = append(out, buf...)
		i += n
	}
	return out
}

// chooseSimple9Layout greedily picks the packing that fits the most
// leading values of remaining into their bit width.
func chooseSimple9Layout(remaining []uint32) (int, simple9Layout) {
	for sel, layout := range simple9Layouts {
		n := layout.count
		if n > len(remaining) {
			n = len(remaining)
		}
		if fitsWidth(remaining[:n], layout.bits) {
			return sel, layout
		}
	}
	// Fallback: widest layout (1x28 bits) always fits any single uint32
	// below 2^28; values requiring more bits are out of contract for
	// d-gap/tf streams but we still must not panic.
	return 8, simple9Layouts[8]
}

func fitsWidth(values []uint32, bits uint) bool {
	max := uint32(1)<<bits - 1
	for _, v := range values {
		if v > max {
			return false
		}
	}
	return true
}

func (Simple9) Decode(data []byte, n int) ([]uint32, error) {
	out := make([]uint32, n)
	if err := (Simple9{}).DecodeInto(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (Simple9) DecodeInto(data []byte, out []uint32) error {
	need := len(out)
	pos := 0
	written := 0
	for written < need {
		if pos+4 > len(data) {
			return ErrCorrupt
		}
		word := binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
		sel := word >> 28
		if int(sel) >= len(simple9Layouts) {
			return ErrCorrupt
		}
		layout := simple9Layouts[sel]
		mask := uint32(1)<<layout.bits - 1
		for j := 0; j < layout.count && written < need; j++ {
			out[written] = (word >> (uint(j) * layout.bits)) & mask
			written++
		}
	}
	return nil
}
