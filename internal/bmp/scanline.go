package bmp

import (
	"encoding/binary"
	"fmt"
)

// A 2-byte RLE command pair can emit at most 255 pixels, so a stream of n
// bytes can never legally expand past n*128 pixels. Anything declaring more
// is rejected before the pixel grid is allocated.
const maxRLEExpansion = 128

// rowStride is the stored byte length of one scanline. The declared or
// derived image size wins when it is plausible; files that declare garbage
// fall back to the 4-byte-aligned computation.
func rowStride(ih *InfoHeader) int {
	stride := alignedRowSize(ih.Width, ih.BitsPerPixel)
	if ih.Compression == CompressionNone && ih.Height > 0 && ih.ImageSize > 0 {
		if s := int(ih.ImageSize) / ih.Height; s >= minRowBytes(ih) {
			stride = s
		}
	}
	return stride
}

// minRowBytes is the unpadded byte length of one scanline.
func minRowBytes(ih *InfoHeader) int {
	return (ih.Width*ih.BitsPerPixel + 7) / 8
}

// assemble runs the complete pixel pass: position the cursor at the pixel
// data, guard the declared dimensions against the actual stream length,
// pick the per-row decoding strategy, and write rows so that grid row 0 is
// the visual top regardless of storage order.
func assemble(cur *cursor, fh *FileHeader, ih *InfoHeader, pal Palette) (*PixelGrid, error) {
	w, h := ih.Width, ih.Height
	if w == 0 || h == 0 {
		return newPixelGrid(w, h), nil
	}

	// Skip any gap between the tables and the pixel data. Offsets that point
	// backwards or past the end are ignored; decoding continues at the
	// current position.
	if off := int(fh.DataOffset); off >= cur.pos() && off <= len(cur.data) {
		if err := cur.seek(off); err != nil {
			return nil, fmt.Errorf("%w: pixel data offset %d", ErrTruncatedPixelData, off)
		}
	}

	if ih.Compression == CompressionRLE4 || ih.Compression == CompressionRLE8 {
		return assembleRLE(cur, ih, pal)
	}
	return assembleUncompressed(cur, ih, pal)
}

func assembleRLE(cur *cursor, ih *InfoHeader, pal Palette) (*PixelGrid, error) {
	w, h := ih.Width, ih.Height
	if int64(w)*int64(h) > int64(cur.remaining())*maxRLEExpansion {
		return nil, fmt.Errorf("%w: %dx%d pixels from %d compressed bytes",
			ErrDeclaredSizeExceedsStream, w, h, cur.remaining())
	}

	depth := 8
	if ih.Compression == CompressionRLE4 {
		depth = 4
	}
	indices, err := decodeRLE(cur, w, h, depth)
	if err != nil {
		return nil, err
	}

	// RLE streams are stored bottom-up only; stream row 0 is the visual
	// bottom.
	grid := newPixelGrid(w, h)
	for y := 0; y < h; y++ {
		dst := h - 1 - y
		for x := 0; x < w; x++ {
			e := palLookup(pal, indices[y*w+x])
			grid.setRGBA(x, dst, e.R, e.G, e.B, e.A)
		}
	}
	return grid, nil
}

func assembleUncompressed(cur *cursor, ih *InfoHeader, pal Palette) (*PixelGrid, error) {
	w, h := ih.Width, ih.Height
	stride := rowStride(ih)
	minRow := minRowBytes(ih)

	// The final row's alignment padding is often missing from real files, so
	// the guard requires it only up to its payload bytes.
	need := int64(stride)*int64(h-1) + int64(minRow)
	if need > int64(cur.remaining()) {
		return nil, fmt.Errorf("%w: need %d pixel bytes, have %d",
			ErrDeclaredSizeExceedsStream, need, cur.remaining())
	}

	var decodeRow func(grid *PixelGrid, y int, row []byte)
	switch {
	case ih.BitsPerPixel <= 8:
		decodeRow = func(grid *PixelGrid, y int, row []byte) {
			decodeIndexedRow(grid, y, row, ih.BitsPerPixel, pal)
		}
	case ih.BitsPerPixel == 24:
		decodeRow = decodeBGRRow
	default: // 16 or 32, bitfield samples
		fd := newFieldDecoder(effectiveMasks(ih))
		sampleLen := ih.BitsPerPixel / 8
		decodeRow = func(grid *PixelGrid, y int, row []byte) {
			decodeSampledRow(grid, y, row, sampleLen, fd)
		}
	}

	grid := newPixelGrid(w, h)
	for src := 0; src < h; src++ {
		dst := src
		if !ih.TopDown {
			dst = h - 1 - src
		}
		rowLen := stride
		if cur.remaining() < stride {
			rowLen = cur.remaining() // final row, pad bytes absent
		}
		row, err := cur.bytes(rowLen)
		if err != nil || rowLen < minRow {
			return nil, fmt.Errorf("%w: scanline %d", ErrTruncatedPixelData, src)
		}
		decodeRow(grid, dst, row)
	}
	return grid, nil
}

// effectiveMasks resolves the channel masks the sample decoder actually
// uses. Bitfield compression with all-zero masks, and plain BI_RGB true
// color, both fall back to the standard masks for the depth.
func effectiveMasks(ih *InfoHeader) BitMasks {
	m := BitMasks{R: ih.RedMask, G: ih.GreenMask, B: ih.BlueMask, A: ih.AlphaMask}
	if m.R|m.G|m.B == 0 {
		return defaultMasks(ih.BitsPerPixel)
	}
	return m
}

func palLookup(pal Palette, idx uint8) PaletteEntry {
	if int(idx) < len(pal) {
		return pal[idx]
	}
	// Out-of-range index: opaque black, matching what era renderers painted.
	return PaletteEntry{A: 255}
}

// decodeIndexedRow unpacks 8/bpp palette indices per byte, most significant
// group first.
func decodeIndexedRow(grid *PixelGrid, y int, row []byte, bpp int, pal Palette) {
	pixelsPerByte := 8 / bpp
	mask := byte(1<<bpp - 1)
	for x := 0; x < grid.Width; x++ {
		b := row[x/pixelsPerByte]
		shift := uint(8 - bpp - (x%pixelsPerByte)*bpp)
		e := palLookup(pal, (b>>shift)&mask)
		grid.setRGBA(x, y, e.R, e.G, e.B, e.A)
	}
}

func decodeBGRRow(grid *PixelGrid, y int, row []byte) {
	for x := 0; x < grid.Width; x++ {
		grid.setRGBA(x, y, row[x*3+2], row[x*3+1], row[x*3+0], 255)
	}
}

func decodeSampledRow(grid *PixelGrid, y int, row []byte, sampleLen int, fd fieldDecoder) {
	for x := 0; x < grid.Width; x++ {
		var sample uint32
		if sampleLen == 2 {
			sample = uint32(binary.LittleEndian.Uint16(row[x*2:]))
		} else {
			sample = binary.LittleEndian.Uint32(row[x*4:])
		}
		r, g, b, a := fd.rgba(sample)
		grid.setRGBA(x, y, r, g, b, a)
	}
}
