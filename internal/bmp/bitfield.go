package bmp

// BitMasks holds the four channel masks a 16- or 32-bit sample is unpacked
// with.
type BitMasks struct {
	R, G, B, A uint32
}

// defaultMasks returns the documented fallback masks for true-color data
// that declares bitfield compression without supplying masks, and for plain
// BI_RGB 16/32-bit data: RGB555 at 16 bpp, BGRX (RGB888) at 32 bpp.
func defaultMasks(bpp int) BitMasks {
	switch bpp {
	case 16:
		return BitMasks{R: 0x7C00, G: 0x03E0, B: 0x001F}
	case 32:
		return BitMasks{R: 0x00FF0000, G: 0x0000FF00, B: 0x000000FF}
	}
	return BitMasks{}
}

// quantum is a channel's position and width within a packed sample, derived
// by scanning its mask from the least-significant set bit.
type quantum struct {
	shift uint
	width uint
}

func quantumOf(mask uint32) quantum {
	var q quantum
	if mask == 0 {
		return q
	}
	for mask&1 == 0 {
		q.shift++
		mask >>= 1
	}
	for mask&1 == 1 {
		q.width++
		mask >>= 1
	}
	return q
}

// fieldDecoder expands packed samples to 8-bit RGBA channels. It is pure bit
// arithmetic and has no failure mode.
type fieldDecoder struct {
	r, g, b, a quantum
}

func newFieldDecoder(m BitMasks) fieldDecoder {
	return fieldDecoder{
		r: quantumOf(m.R),
		g: quantumOf(m.G),
		b: quantumOf(m.B),
		a: quantumOf(m.A),
	}
}

func (f fieldDecoder) rgba(sample uint32) (r, g, b, a uint8) {
	r = expandChannel(sample, f.r, 0)
	g = expandChannel(sample, f.g, 0)
	b = expandChannel(sample, f.b, 0)
	a = expandChannel(sample, f.a, 255)
	return
}

// expandChannel extracts one channel and widens it to 8 bits by replicating
// its most significant bits into the vacated low bits, so a 5-bit 0b11111
// becomes 0xFF rather than 0xF8. Channels wider than 8 bits keep their top
// 8 bits. A zero mask yields the channel's absent value.
func expandChannel(sample uint32, q quantum, absent uint8) uint8 {
	if q.width == 0 {
		return absent
	}
	v := (sample >> q.shift) & (1<<q.width - 1)
	if q.width >= 8 {
		return uint8(v >> (q.width - 8))
	}
	var out uint32
	for filled := uint(0); filled < 8; filled += q.width {
		out |= v << (8 - q.width) >> filled
	}
	return uint8(out)
}
