// Package bmp decodes the Windows and OS/2 BMP raster format: every
// historical DIB header dialect from the 12-byte BITMAPCOREHEADER to the
// 124-byte BITMAPV5HEADER, indexed and true-color pixel encodings, arbitrary
// bitfield masks, and the RLE-4/RLE-8 compression schemes. The decode is a
// single synchronous pass; each stage's layout depends on values the
// previous stage resolved, so nothing can run speculatively.
//
// JPEG- and PNG-compressed payloads, OS/2 Huffman-1D and RLE-24, and all
// encode paths are out of scope.
package bmp

import (
	"fmt"
	"io"
	"os"
)

// Image is the fully decoded result: resolved headers, the color table (for
// indexed depths), and the orientation-normalized RGBA pixel grid.
type Image struct {
	File    FileHeader
	Header  InfoHeader
	Dialect Dialect
	Palette Palette
	Grid    *PixelGrid

	// Profile holds the embedded ICC profile bytes when a V5 header declares
	// one and its extent lies within the stream.
	Profile []byte
}

// Config is the cheap, header-only view of a BMP stream.
type Config struct {
	Width        int
	Height       int
	BitsPerPixel int
	Dialect      Dialect
	Compression  Compression
	TopDown      bool
}

// Decode reads a complete BMP stream from r and decodes it.
func Decode(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bmp: read input: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeFile decodes the BMP file at path.
func DecodeFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmp: read %s: %w", path, err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a complete in-memory BMP payload.
func DecodeBytes(data []byte) (*Image, error) {
	cur := newCursor(data)

	fh, err := parseFileHeader(cur, len(data))
	if err != nil {
		return nil, err
	}

	ih, dialect, err := parseInfoHeader(cur)
	if err != nil {
		return nil, err
	}

	if err := validateFormat(&ih, dialect); err != nil {
		return nil, err
	}

	// A plain 40-byte header declaring bitfields stores the masks in a
	// separate segment between header and palette.
	if dialect == DialectInfo40 &&
		(ih.Compression == CompressionBitFields || ih.Compression == CompressionAlphaBitFields) {
		if err := readMaskSegment(cur, &ih); err != nil {
			return nil, err
		}
	}

	var pal Palette
	if ih.BitsPerPixel <= 8 {
		pal, err = decodePalette(cur, &ih, dialect, fh.DataOffset)
		if err != nil {
			return nil, err
		}
	}

	img := &Image{
		File:    fh,
		Header:  ih,
		Dialect: dialect,
		Palette: pal,
	}

	if dialect == DialectV5 && ih.ColorSpaceType == ColorSpaceEmbedded && ih.ProfileSize > 0 {
		// ProfileOffset counts from the start of the DIB header.
		start := int64(fileHeaderLen) + int64(ih.ProfileOffset)
		end := start + int64(ih.ProfileSize)
		if start >= fileHeaderLen && end <= int64(len(data)) {
			img.Profile = data[start:end]
		}
	}

	grid, err := assemble(cur, &fh, &ih, pal)
	if err != nil {
		return nil, err
	}
	img.Grid = grid

	return img, nil
}

// DecodeConfig resolves the headers without touching pixel data.
func DecodeConfig(r io.Reader) (Config, error) {
	// File header plus the largest DIB header is all that is needed.
	data, err := io.ReadAll(io.LimitReader(r, fileHeaderLen+v5HeaderLen))
	if err != nil {
		return Config{}, fmt.Errorf("bmp: read input: %w", err)
	}

	cur := newCursor(data)
	if _, err := parseFileHeader(cur, len(data)); err != nil {
		return Config{}, err
	}
	ih, dialect, err := parseInfoHeader(cur)
	if err != nil {
		return Config{}, err
	}
	if err := validateFormat(&ih, dialect); err != nil {
		return Config{}, err
	}

	return Config{
		Width:        ih.Width,
		Height:       ih.Height,
		BitsPerPixel: ih.BitsPerPixel,
		Dialect:      dialect,
		Compression:  ih.Compression,
		TopDown:      ih.TopDown,
	}, nil
}

// validateFormat rejects the depth/compression combinations this decoder
// cannot produce pixels for. Everything that passes here decodes without
// further format surprises.
func validateFormat(ih *InfoHeader, dialect Dialect) error {
	switch ih.BitsPerPixel {
	case 1, 2, 4, 8, 16, 24, 32:
	case 0:
		// Depth 0 declares a JPEG or PNG payload.
		return fmt.Errorf("%w: %s payload at 0 bpp", ErrUnsupportedPayloadCodec, ih.Compression)
	default:
		return fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedPixelFormat, ih.BitsPerPixel)
	}

	if dialect == DialectOS2V2 {
		switch ih.Compression {
		case CompressionNone, CompressionRLE8, CompressionRLE4:
		case CompressionHuffman1D:
			return fmt.Errorf("%w: OS/2 Huffman-1D", ErrUnsupportedPayloadCodec)
		case CompressionRLE24:
			return fmt.Errorf("%w: OS/2 RLE-24", ErrUnsupportedPayloadCodec)
		default:
			return fmt.Errorf("%w: OS/2 compression %d", ErrUnsupportedPayloadCodec, uint32(ih.Compression))
		}
	} else if dialect != DialectCore12 {
		switch ih.Compression {
		case CompressionNone, CompressionRLE8, CompressionRLE4:
		case CompressionBitFields, CompressionAlphaBitFields:
			if ih.BitsPerPixel != 16 && ih.BitsPerPixel != 32 {
				return fmt.Errorf("%w: bitfields at %d bpp", ErrInvalidCompressionForDepth, ih.BitsPerPixel)
			}
		case CompressionJPEG, CompressionPNG:
			return fmt.Errorf("%w: %s", ErrUnsupportedPayloadCodec, ih.Compression)
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedPayloadCodec, ih.Compression)
		}
	}

	if ih.Compression == CompressionRLE8 && ih.BitsPerPixel != 8 {
		return fmt.Errorf("%w: RLE-8 at %d bpp", ErrInvalidCompressionForDepth, ih.BitsPerPixel)
	}
	if ih.Compression == CompressionRLE4 && ih.BitsPerPixel != 4 {
		return fmt.Errorf("%w: RLE-4 at %d bpp", ErrInvalidCompressionForDepth, ih.BitsPerPixel)
	}

	return nil
}
