package codec

import "encoding/binary"

// simple16Group is one fixed-width run within a Simple-16 selector's 28-bit
// payload: the next `count` values are packed `bits` wide each.
type simple16Group struct {
	count int
	bits  uint
}

// simple16Layout is a full selector: an ordered list of groups (mixed
// widths are allowed, unlike Simple-9's single uniform group) plus the
// total value count it packs.
type simple16Layout struct {
	groups []simple16Group
	total  int
}

func mkLayout16(groups ...simple16Group) simple16Layout {
	total := 0
	for _, g := range groups {
		total += g.count
	}
	return simple16Layout{groups: groups, total: total}
}

// simple16Layouts holds the 16 selector packings, ordered by descending
// total value count so the greedy encoder tries the densest packing
// first. Selector 2 ([(7,2),(14,1)]) is the spec's own worked example.
var simple16Layouts = [16]simple16Layout{
	mkLayout16(simple16Group{28, 1}),
	mkLayout16(simple16Group{24, 1}),
	mkLayout16(simple16Group{7, 2}, simple16Group{14, 1}),
	mkLayout16(simple16Group{6, 2}, simple16Group{12, 1}),
	mkLayout16(simple16Group{14, 2}),
	mkLayout16(simple16Group{12, 2}),
	mkLayout16(simple16Group{5, 3}, simple16Group{5, 2}),
	mkLayout16(simple16Group{9, 3}),
	mkLayout16(simple16Group{4, 4}, simple16Group{4, 3}),
	mkLayout16(simple16Group{7, 4}),
	mkLayout16(simple16Group{6, 4}),
	mkLayout16(simple16Group{5, 5}),
	mkLayout16(simple16Group{4, 7}),
	mkLayout16(simple16Group{3, 9}),
	mkLayout16(simple16Group{2, 14}),
	mkLayout16(simple16Group{1, 28}),
}

// Simple16 is Simple-9 with 16 selectors and mixed-width group packings,
// after Zhang/Yang/Moffat. The selector table above is this package's
// own, not the published Zhang/Yang/Moffat table, so its words do not
// decode with other Simple-16 implementations.
type Simple16 struct{}

func (Simple16) ID() string { return "simple16" }

func (Simple16) Encode(values []uint32) []byte {
	out := make([]byte, 0, len(values)*4)
	i := 0
	for i < len(values) {
		sel, layout, n := chooseSimple16Layout(values[i:])
		word := uint32(sel) << 28
		var offset uint
		pos := 0
		for _, g := range layout.groups {
			if pos >= n {
				break
			}
			take := g.count
			if pos+take > n {
				take = n - pos
			}
			mask := uint32(1)<<g.bits - 1
			for j := 0; j < take; j++ {
				word |= (values[i+pos+j] & mask) << offset
				offset += g.bits
			}
			pos += take
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, word)
		out = append(out, buf...)
		i += n
	}
	return out
}

func chooseSimple16Layout(remaining []uint32) (int, simple16Layout, int) {
	for sel, layout := range simple16Layouts {
		n := layout.total
		if n > len(remaining) {
			n = len(remaining)
		}
		if n == 0 {
			continue
		}
		if fitsLayout16(remaining[:n], layout, n) {
			return sel, layout, n
		}
	}
	n := 1
	if n > len(remaining) {
		n = len(remaining)
	}
	return 15, simple16Layouts[15], n
}

func fitsLayout16(values []uint32, layout simple16Layout, n int) bool {
	pos := 0
	for _, g := range layout.groups {
		if pos >= n {
			break
		}
		take := g.count
		if pos+take > n {
			take = n - pos
		}
		if !fitsWidth(values[pos:pos+take], g.bits) {
			return false
		}
		pos += take
	}
	return true
}

func (Simple16) Decode(data []byte, n int) ([]uint32, error) {
	out := make([]uint32, n)
	if err := (Simple16{}).DecodeInto(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (Simple16) DecodeInto(data []byte, out []uint32) error {
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
		if int(sel) >= len(simple16Layouts) {
			return ErrCorrupt
		}
		layout := simple16Layouts[sel]
		var offset uint
		for _, g := range layout.groups {
			mask := uint32(1)<<g.bits - 1
			for j := 0; j < g.count && written < need; j++ {
				out[written] = (word >> offset) & mask
				offset += g.bits
				written++
			}
		}
	}
	return nil
}
