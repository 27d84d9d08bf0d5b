package bmp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRLE8WorkedExample(t *testing.T) {
	// The format's documented example: two encoded runs, an absolute run of
	// three (padded to an even byte count), end-of-bitmap.
	src := []byte{
		0x03, 0x04,
		0x05, 0x06,
		0x00, 0x03, 0x45, 0x56, 0x67, 0x00,
		0x00, 0x01,
	}

	indices, err := decodeRLE(newCursor(src), 11, 2, 8)
	require.NoError(t, err)

	wantRow0 := []byte{4, 4, 4, 6, 6, 6, 6, 6, 0x45, 0x56, 0x67}
	require.Equal(t, wantRow0, indices[:11])
	// Nothing after end-of-bitmap touches the remaining rows.
	require.Equal(t, make([]byte, 11), indices[11:])
}

func TestRLE8EndOfLinePadsImplicitly(t *testing.T) {
	src := []byte{
		0x02, 0x07, // two pixels of 7
		0x00, 0x00, // end of line
		0x01, 0x09, // one pixel of 9 on the next row
		0x00, 0x01, // end of bitmap
	}

	indices, err := decodeRLE(newCursor(src), 4, 2, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 7, 0, 0}, indices[:4])
	require.Equal(t, []byte{9, 0, 0, 0}, indices[4:])
}

func TestRLE8Delta(t *testing.T) {
	src := []byte{
		0x01, 0x05, // one pixel of 5 at (0,0)
		0x00, 0x02, 0x02, 0x01, // delta +2 columns, +1 row
		0x01, 0x06, // one pixel of 6 at (3,1)
		0x00, 0x01,
	}

	indices, err := decodeRLE(newCursor(src), 4, 2, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 0, 0, 0}, indices[:4])
	require.Equal(t, []byte{0, 0, 0, 6}, indices[4:])
}

func TestRLE8DeltaColumnOverflowWrapsToNextRow(t *testing.T) {
	src := []byte{
		0x00, 0x02, 0x05, 0x00, // delta +5 columns on a 4-wide image
		0x01, 0x09,
		0x00, 0x01,
	}

	indices, err := decodeRLE(newCursor(src), 4, 3, 8)
	require.NoError(t, err)
	// Column 5 wraps to column 1 of the next row.
	require.Equal(t, byte(9), indices[4+1])
}

func TestRLE8ExhaustionWithoutMarkerAccepted(t *testing.T) {
	src := []byte{0x02, 0x03} // no end-of-bitmap follows
	indices, err := decodeRLE(newCursor(src), 2, 2, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 3}, indices[:2])
}

func TestRLE8PartialCommandPairFatal(t *testing.T) {
	src := []byte{0x02, 0x03, 0x05} // dangling command byte
	_, err := decodeRLE(newCursor(src), 4, 2, 8)
	require.ErrorIs(t, err, ErrTruncatedRleStream)
}

func TestRLE8TruncatedDelta(t *testing.T) {
	src := []byte{0x00, 0x02, 0x01} // delta missing its dy byte
	_, err := decodeRLE(newCursor(src), 4, 2, 8)
	require.ErrorIs(t, err, ErrTruncatedRleStream)
}

func TestRLE8TruncatedAbsoluteRun(t *testing.T) {
	src := []byte{0x00, 0x05, 0x01, 0x02} // run promises 5 pixels plus pad
	_, err := decodeRLE(newCursor(src), 8, 2, 8)
	require.ErrorIs(t, err, ErrTruncatedRleStream)
}

func TestRLE8OddAbsoluteRunConsumesPadByte(t *testing.T) {
	src := []byte{
		0x00, 0x03, 0x0A, 0x0B, 0x0C, 0xEE, // 3 literals + pad byte
		0x00, 0x01,
	}
	indices, err := decodeRLE(newCursor(src), 4, 1, 8)
	require.NoError(t, err)
	// The pad byte 0xEE must not become a pixel.
	require.Equal(t, []byte{0x0A, 0x0B, 0x0C, 0x00}, indices)
}

func TestRLE4EncodedRunAlternatesNibbles(t *testing.T) {
	src := []byte{
		0x05, 0xAB, // five pixels alternating A,B,A,B,A
		0x00, 0x01,
	}
	indices, err := decodeRLE(newCursor(src), 5, 1, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0xA, 0xB, 0xA, 0xB, 0xA}, indices)
}

func TestRLE4AbsoluteRunPacksNibbles(t *testing.T) {
	// Five literal pixels pack into three bytes, padded to four.
	src := []byte{
		0x00, 0x05, 0x12, 0x34, 0x50, 0xEE,
		0x00, 0x01,
	}
	indices, err := decodeRLE(newCursor(src), 6, 1, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0x1, 0x2, 0x3, 0x4, 0x5, 0x0}, indices)
}

func TestRLE4ExhaustionWithoutMarkerFatal(t *testing.T) {
	src := []byte{0x02, 0xAB}
	_, err := decodeRLE(newCursor(src), 4, 2, 4)
	require.ErrorIs(t, err, ErrTruncatedRleStream)
}

func TestRLERunOverflowingRowIsDropped(t *testing.T) {
	src := []byte{
		0x08, 0x02, // eight pixels on a 4-wide row
		0x00, 0x00, // end of line
		0x01, 0x03,
		0x00, 0x01,
	}
	indices, err := decodeRLE(newCursor(src), 4, 2, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 2, 2, 2}, indices[:4])
	// The overflow must not bleed into the next row.
	require.Equal(t, []byte{3, 0, 0, 0}, indices[4:])
}
