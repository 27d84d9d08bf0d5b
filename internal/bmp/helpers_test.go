package bmp

import "encoding/binary"

var le = binary.LittleEndian

// dibHeader builds a DIB header of the given declared size with every field
// at its documented default except dimensions, depth, and compression.
func dibHeader(size, w, h, bpp int, comp uint32) []byte {
	b := make([]byte, size)
	le.PutUint32(b, uint32(size))
	if size == coreHeaderLen {
		le.PutUint16(b[4:], uint16(w))
		le.PutUint16(b[6:], uint16(h))
		le.PutUint16(b[8:], 1)
		le.PutUint16(b[10:], uint16(bpp))
		return b
	}
	le.PutUint32(b[4:], uint32(int32(w)))
	le.PutUint32(b[8:], uint32(int32(h)))
	le.PutUint16(b[12:], 1)
	le.PutUint16(b[14:], uint16(bpp))
	if size >= 20 {
		le.PutUint32(b[16:], comp)
	}
	return b
}

// buildFile assembles a complete BMP stream: file header, DIB header,
// optional palette/mask bytes, pixel data. The pixel-data offset is computed
// from the parts.
func buildFile(dib, tables, pixels []byte) []byte {
	off := fileHeaderLen + len(dib) + len(tables)
	total := off + len(pixels)

	out := make([]byte, 0, total)
	fh := make([]byte, fileHeaderLen)
	fh[0], fh[1] = 'B', 'M'
	le.PutUint32(fh[2:], uint32(total))
	le.PutUint32(fh[10:], uint32(off))

	out = append(out, fh...)
	out = append(out, dib...)
	out = append(out, tables...)
	out = append(out, pixels...)
	return out
}

// grayPalette4 is an identity-ish 16-entry table where entry i has all
// channels set to i*16, handy for asserting indexed decodes.
func grayPalette4() []byte {
	pal := make([]byte, 16*4)
	for i := 0; i < 16; i++ {
		v := byte(i * 16)
		pal[i*4+0] = v // blue
		pal[i*4+1] = v // green
		pal[i*4+2] = v // red
	}
	return pal
}

// grayPalette8 maps entry i to gray level i across 256 4-byte entries.
func grayPalette8() []byte {
	pal := make([]byte, 256*4)
	for i := 0; i < 256; i++ {
		pal[i*4+0] = byte(i)
		pal[i*4+1] = byte(i)
		pal[i*4+2] = byte(i)
	}
	return pal
}
