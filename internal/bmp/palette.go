package bmp

import "fmt"

// PaletteEntry is one color-table entry, already reordered from the file's
// BGR(x) layout. The fourth file byte is reserved, not alpha, so A is always
// opaque.
type PaletteEntry struct {
	R, G, B, A uint8
}

// Palette is the ordered color table. Pixels index it positionally; no
// sorting or deduplication is applied.
type Palette []PaletteEntry

// decodePalette reads the color table that immediately follows the DIB
// header (and the mask segment, when one is present). Entry width is 3 bytes
// for the core dialect and 4 for everything else. The table may not cross
// the pixel-data offset recorded in the file header.
func decodePalette(cur *cursor, ih *InfoHeader, dialect Dialect, dataOffset uint32) (Palette, error) {
	count := int(ih.ColorsUsed)
	if count == 0 {
		return nil, nil
	}
	if count > 256 {
		count = 256
	}

	entryLen := 4
	if dialect == DialectCore12 {
		entryLen = 3
	}

	need := count * entryLen
	if dataOffset > 0 && cur.pos()+need > int(dataOffset) {
		return nil, fmt.Errorf("%w: %d entries cross the pixel-data offset %d",
			ErrTruncatedPalette, count, dataOffset)
	}
	raw, err := cur.bytes(need)
	if err != nil {
		return nil, fmt.Errorf("%w: need %d bytes for %d entries", ErrTruncatedPalette, need, count)
	}

	pal := make(Palette, count)
	for i := range pal {
		pal[i] = PaletteEntry{
			R: raw[i*entryLen+2],
			G: raw[i*entryLen+1],
			B: raw[i*entryLen+0],
			A: 255,
		}
	}
	return pal, nil
}
