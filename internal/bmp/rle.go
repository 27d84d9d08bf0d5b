package bmp

import "fmt"

// RLE escape codes, valid when the first command byte is zero.
const (
	rleEndOfLine   = 0
	rleEndOfBitmap = 1
	rleDelta       = 2
)

// decodeRLE runs the RLE-4/RLE-8 state machine over the rest of the stream
// and produces a flat palette-index buffer in stream scanline order (row 0
// is the stream's first scanline, i.e. the bottom of the image; RLE bitmaps
// are never top-down). Pixels skipped by end-of-line or delta escapes keep
// index 0.
//
// Stream exhaustion before an explicit end-of-bitmap marker is tolerated for
// RLE-8; a command pair, delta operand, or absolute run cut off mid-read is
// a truncation error for either depth.
func decodeRLE(cur *cursor, width, height, depth int) ([]byte, error) {
	indices := make([]byte, width*height)

	x, y := 0, 0
	put := func(v byte) {
		// Runs that overflow the row are dropped; only escapes advance rows.
		if x < width && y < height {
			indices[y*width+x] = v
		}
		x++
	}
	nibble := func(b byte, i int) byte {
		if i%2 == 0 {
			return b >> 4
		}
		return b & 0x0F
	}

	for y < height {
		if cur.remaining() == 0 {
			if depth == 8 {
				break
			}
			return nil, fmt.Errorf("%w: no end-of-bitmap marker", ErrTruncatedRleStream)
		}
		pair, err := cur.bytes(2)
		if err != nil {
			return nil, fmt.Errorf("%w: partial command pair", ErrTruncatedRleStream)
		}
		c0, c1 := pair[0], pair[1]

		switch {
		case c0 > 0: // encoded run
			for i := 0; i < int(c0); i++ {
				if depth == 4 {
					put(nibble(c1, i))
				} else {
					put(c1)
				}
			}

		case c1 == rleEndOfLine:
			x, y = 0, y+1

		case c1 == rleEndOfBitmap:
			return indices, nil

		case c1 == rleDelta:
			d, err := cur.bytes(2)
			if err != nil {
				return nil, fmt.Errorf("%w: partial delta operand", ErrTruncatedRleStream)
			}
			x += int(d[0])
			y += int(d[1])
			for x >= width {
				x -= width
				y++
			}

		default: // absolute run of c1 literal pixels
			n := int(c1)
			byteCount := n
			if depth == 4 {
				byteCount = (n + 1) / 2
			}
			// The source pads each absolute run to an even byte count; the
			// pad byte is consumed but emits nothing.
			byteCount += byteCount & 1
			raw, err := cur.bytes(byteCount)
			if err != nil {
				return nil, fmt.Errorf("%w: absolute run of %d pixels", ErrTruncatedRleStream, n)
			}
			for i := 0; i < n; i++ {
				if depth == 4 {
					put(nibble(raw[i/2], i))
				} else {
					put(raw[i])
				}
			}
		}
	}

	return indices, nil
}
