package bmp

import (
	"encoding/binary"
	"fmt"
)

const fileHeaderLen = 14

// Known DIB header sizes. Anything strictly between os2V2MinLen and
// os2V2MaxLen that matches no Windows constant is an OS/2 v2 header with a
// truncated field set.
const (
	coreHeaderLen = 12
	os2V2MinLen   = 16
	os2V2MaxLen   = 64
	infoHeaderLen = 40
	infoNTLen     = 52
	infoCELen     = 56
	v4HeaderLen   = 108
	v5HeaderLen   = 124
)

// Dialect identifies which historical revision of the DIB header is present.
type Dialect int

const (
	DialectUnknown  Dialect = iota
	DialectCore12           // BITMAPCOREHEADER (OS/2 v1, Windows v2)
	DialectOS2V2            // OS22XBITMAPHEADER, 16-64 bytes
	DialectInfo40           // BITMAPINFOHEADER (Windows v3)
	DialectInfoNT52         // BITMAPV2INFOHEADER, v3 + RGB masks
	DialectInfoCE56         // BITMAPV3INFOHEADER, v3 + RGBA masks
	DialectV4               // BITMAPV4HEADER
	DialectV5               // BITMAPV5HEADER
)

func (d Dialect) String() string {
	switch d {
	case DialectCore12:
		return "BITMAPCOREHEADER"
	case DialectOS2V2:
		return "OS22XBITMAPHEADER"
	case DialectInfo40:
		return "BITMAPINFOHEADER"
	case DialectInfoNT52:
		return "BITMAPV2INFOHEADER"
	case DialectInfoCE56:
		return "BITMAPV3INFOHEADER"
	case DialectV4:
		return "BITMAPV4HEADER"
	case DialectV5:
		return "BITMAPV5HEADER"
	}
	return "unknown"
}

// Compression codes. OS/2 v2 reuses the values 3 and 4 for Huffman-1D and
// RLE-24; the Dialect decides which reading applies.
type Compression uint32

const (
	CompressionNone           Compression = 0
	CompressionRLE8           Compression = 1
	CompressionRLE4           Compression = 2
	CompressionBitFields      Compression = 3
	CompressionJPEG           Compression = 4
	CompressionPNG            Compression = 5
	CompressionAlphaBitFields Compression = 6

	CompressionHuffman1D Compression = 3 // OS/2 v2 reading of code 3
	CompressionRLE24     Compression = 4 // OS/2 v2 reading of code 4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "BI_RGB"
	case CompressionRLE8:
		return "BI_RLE8"
	case CompressionRLE4:
		return "BI_RLE4"
	case CompressionBitFields:
		return "BI_BITFIELDS"
	case CompressionJPEG:
		return "BI_JPEG"
	case CompressionPNG:
		return "BI_PNG"
	case CompressionAlphaBitFields:
		return "BI_ALPHABITFIELDS"
	}
	return fmt.Sprintf("compression(%d)", uint32(c))
}

// Windows CE sets this bit in the compression field to mark a pre-rotated
// source. It is not a compression scheme of its own.
const sourcePreRotateFlag = 0x8000

// Compression codes at or above this value are CMYK variants or FourCC video
// codecs; the pre-rotate bit is never stripped from those.
const compressionCMYKBase = 11

// Color-space type values used by the V4 and V5 headers.
const (
	ColorSpaceCalibratedRGB uint32 = 0
	ColorSpaceSRGB          uint32 = 0x73524742 // "sRGB"
	ColorSpaceWindows       uint32 = 0x57696E20 // "Win "
	ColorSpaceLinked        uint32 = 0x4C494E4B // "LINK"
	ColorSpaceEmbedded      uint32 = 0x4D424544 // "MBED"
)

// FileHeader is the 14-byte BITMAPFILEHEADER. FileSize is always recomputed
// from the actual stream length; the declared value is routinely wrong.
type FileHeader struct {
	Tag        string
	FileSize   uint32
	DataOffset uint32
}

// Container tags the format family defines besides "BM". They are recognized
// so the error can name them, but their payloads are not plain DIBs.
var containerTagNames = map[string]string{
	"BA": "OS/2 bitmap array",
	"CI": "OS/2 color icon",
	"CP": "OS/2 color pointer",
	"IC": "OS/2 icon",
	"PT": "OS/2 pointer",
}

func parseFileHeader(cur *cursor, streamLen int) (FileHeader, error) {
	var fh FileHeader

	raw, err := cur.bytes(fileHeaderLen)
	if err != nil {
		if cur.remaining() >= 2 && string(cur.data[cur.off:cur.off+2]) != "BM" {
			return fh, fmt.Errorf("%w: %q", ErrUnsupportedContainerTag, cur.data[cur.off:cur.off+2])
		}
		return fh, fmt.Errorf("%w: file header needs %d bytes", ErrDeclaredSizeExceedsStream, fileHeaderLen)
	}

	fh.Tag = string(raw[0:2])
	if fh.Tag != "BM" {
		if name, ok := containerTagNames[fh.Tag]; ok {
			return fh, fmt.Errorf("%w: %q (%s)", ErrUnsupportedContainerTag, fh.Tag, name)
		}
		return fh, fmt.Errorf("%w: %q", ErrUnsupportedContainerTag, fh.Tag)
	}

	// bytes 2-5 hold the declared file size; auto-correct it unconditionally.
	fh.FileSize = uint32(streamLen)
	// bytes 6-9 are two reserved words, ignored.
	fh.DataOffset = binary.LittleEndian.Uint32(raw[10:14])

	return fh, nil
}

// InfoHeader is the dialect-resolved DIB header. Fields the declared header
// size does not cover keep their zero value; see normalize for the defaults
// that are not zero.
type InfoHeader struct {
	HeaderSize       uint32
	Width            int
	Height           int
	TopDown          bool
	SourcePreRotated bool
	Planes           uint16
	BitsPerPixel     int
	Compression      Compression
	ImageSize        uint32
	XPelsPerMeter    int32
	YPelsPerMeter    int32
	ColorsUsed       uint32
	ColorsImportant  uint32

	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
	AlphaMask uint32

	ColorSpaceType uint32
	Endpoints      [9]uint32 // CIE XYZ triples for red, green, blue; 2.30 fixed point
	GammaRed       uint32    // 16.16 fixed point
	GammaGreen     uint32
	GammaBlue      uint32

	Intent        uint32
	ProfileOffset uint32 // from the start of the DIB header
	ProfileSize   uint32

	// OS/2 v2 extension fields.
	Units         uint16
	Recording     uint16
	Rendering     uint16
	ColorEncoding uint32
	Identifier    uint32
}

func dialectMaxLen(d Dialect) int {
	switch d {
	case DialectCore12:
		return coreHeaderLen
	case DialectOS2V2:
		return os2V2MaxLen
	case DialectInfo40:
		return infoHeaderLen
	case DialectInfoNT52:
		return infoNTLen
	case DialectInfoCE56:
		return infoCELen
	case DialectV4:
		return v4HeaderLen
	case DialectV5:
		return v5HeaderLen
	}
	return 0
}

// parseInfoHeader reads the 4-byte size field, resolves the dialect, and
// parses exactly the fields the declared size covers. The cursor ends up
// positioned past the whole declared header either way.
func parseInfoHeader(cur *cursor) (InfoHeader, Dialect, error) {
	var ih InfoHeader

	hdrSize, err := cur.u32()
	if err != nil {
		return ih, DialectUnknown, fmt.Errorf("%w: missing DIB header size", ErrDeclaredSizeExceedsStream)
	}
	ih.HeaderSize = hdrSize

	var dialect Dialect
	switch {
	case hdrSize == coreHeaderLen:
		dialect = DialectCore12
	case hdrSize == infoHeaderLen:
		dialect = DialectInfo40 // may be reclassified as OS/2 below
	case hdrSize == infoNTLen:
		dialect = DialectInfoNT52
	case hdrSize == infoCELen:
		dialect = DialectInfoCE56
	case hdrSize == v4HeaderLen:
		dialect = DialectV4
	case hdrSize == v5HeaderLen:
		dialect = DialectV5
	case hdrSize >= os2V2MinLen && hdrSize <= os2V2MaxLen:
		dialect = DialectOS2V2
	default:
		return ih, DialectUnknown, fmt.Errorf("%w: %d", ErrUnsupportedHeaderSize, hdrSize)
	}

	// Pull the declared header body, clamped to the dialect's full layout.
	// The block is zero-padded so undeclared trailing fields decode to their
	// documented zero defaults without reading the stream.
	maxLen := dialectMaxLen(dialect)
	readLen := int(hdrSize)
	if readLen > maxLen {
		readLen = maxLen
	}
	body, err := cur.bytes(readLen - 4)
	if err != nil {
		return ih, dialect, fmt.Errorf("%w: header declares %d bytes", ErrDeclaredSizeExceedsStream, hdrSize)
	}
	if int(hdrSize) > readLen {
		if err := cur.skip(int(hdrSize) - readLen); err != nil {
			return ih, dialect, fmt.Errorf("%w: header declares %d bytes", ErrDeclaredSizeExceedsStream, hdrSize)
		}
	}

	block := make([]byte, maxLen)
	binary.LittleEndian.PutUint32(block, hdrSize)
	copy(block[4:], body)

	if dialect == DialectCore12 {
		ih.Width = int(binary.LittleEndian.Uint16(block[4:]))
		ih.Height = int(binary.LittleEndian.Uint16(block[6:]))
		ih.Planes = binary.LittleEndian.Uint16(block[8:])
		ih.BitsPerPixel = int(binary.LittleEndian.Uint16(block[10:]))
	} else {
		decodeInfoCommon(&ih, block)
		switch dialect {
		case DialectOS2V2:
			ih.Units = binary.LittleEndian.Uint16(block[40:])
			// block[42:44] is reserved
			ih.Recording = binary.LittleEndian.Uint16(block[44:])
			ih.Rendering = binary.LittleEndian.Uint16(block[46:])
			// block[48:56] holds the halftoning parameters, unused here
			ih.ColorEncoding = binary.LittleEndian.Uint32(block[56:])
			ih.Identifier = binary.LittleEndian.Uint32(block[60:])
		case DialectInfoNT52:
			decodeMasks(&ih, block, false)
		case DialectInfoCE56:
			decodeMasks(&ih, block, true)
		case DialectV4:
			decodeMasks(&ih, block, true)
			decodeColorSpace(&ih, block)
		case DialectV5:
			decodeMasks(&ih, block, true)
			decodeColorSpace(&ih, block)
			ih.Intent = binary.LittleEndian.Uint32(block[108:])
			ih.ProfileOffset = binary.LittleEndian.Uint32(block[112:])
			ih.ProfileSize = binary.LittleEndian.Uint32(block[116:])
			// block[120:124] is reserved
		}
	}

	dialect = reclassifyBoundary(&ih, dialect)
	ih.normalize(dialect)

	return ih, dialect, nil
}

// decodeInfoCommon reads the 40-byte layout every post-core dialect shares.
func decodeInfoCommon(ih *InfoHeader, block []byte) {
	ih.Width = int(int32(binary.LittleEndian.Uint32(block[4:])))
	ih.Height = int(int32(binary.LittleEndian.Uint32(block[8:])))
	ih.Planes = binary.LittleEndian.Uint16(block[12:])
	ih.BitsPerPixel = int(binary.LittleEndian.Uint16(block[14:]))
	ih.Compression = Compression(binary.LittleEndian.Uint32(block[16:]))
	ih.ImageSize = binary.LittleEndian.Uint32(block[20:])
	ih.XPelsPerMeter = int32(binary.LittleEndian.Uint32(block[24:]))
	ih.YPelsPerMeter = int32(binary.LittleEndian.Uint32(block[28:]))
	ih.ColorsUsed = binary.LittleEndian.Uint32(block[32:])
	ih.ColorsImportant = binary.LittleEndian.Uint32(block[36:])
}

func decodeMasks(ih *InfoHeader, block []byte, withAlpha bool) {
	ih.RedMask = binary.LittleEndian.Uint32(block[40:])
	ih.GreenMask = binary.LittleEndian.Uint32(block[44:])
	ih.BlueMask = binary.LittleEndian.Uint32(block[48:])
	if withAlpha {
		ih.AlphaMask = binary.LittleEndian.Uint32(block[52:])
	}
}

func decodeColorSpace(ih *InfoHeader, block []byte) {
	ih.ColorSpaceType = binary.LittleEndian.Uint32(block[56:])
	for i := range ih.Endpoints {
		ih.Endpoints[i] = binary.LittleEndian.Uint32(block[60+4*i:])
	}
	ih.GammaRed = binary.LittleEndian.Uint32(block[96:])
	ih.GammaGreen = binary.LittleEndian.Uint32(block[100:])
	ih.GammaBlue = binary.LittleEndian.Uint32(block[104:])
}

// reclassifyBoundary settles the 40-byte ambiguity between Windows v3 and a
// full-sized OS/2 v2 prefix. 16/32 bpp cannot occur in OS/2, so those stay
// Windows; the OS/2-only compression codes force the OS/2 reading.
func reclassifyBoundary(ih *InfoHeader, dialect Dialect) Dialect {
	if dialect != DialectInfo40 {
		return dialect
	}
	if ih.BitsPerPixel == 16 || ih.BitsPerPixel == 32 {
		return DialectInfo40
	}
	if (ih.Compression == CompressionHuffman1D && ih.BitsPerPixel == 1) ||
		(ih.Compression == CompressionRLE24 && ih.BitsPerPixel == 24) {
		return DialectOS2V2
	}
	return DialectInfo40
}

// normalize applies the unconditional post-parse corrections. None of these
// are error paths; they are documented fallback behavior.
func (ih *InfoHeader) normalize(dialect Dialect) {
	if ih.Height < 0 {
		ih.TopDown = true
		ih.Height = -ih.Height
	}
	if ih.Width < 0 {
		ih.Width = -ih.Width
	}

	// Windows CE piggybacks a "source pre-rotated" flag on the compression
	// field. Strip it for the ordinary codes only; CMYK and FourCC values
	// own all their bits.
	if dialect != DialectCore12 && dialect != DialectOS2V2 {
		raw := uint32(ih.Compression)
		if raw&sourcePreRotateFlag != 0 && raw&^uint32(sourcePreRotateFlag) < compressionCMYKBase {
			ih.SourcePreRotated = true
			ih.Compression = Compression(raw &^ uint32(sourcePreRotateFlag))
		}
	}

	if ih.ImageSize == 0 && ih.Compression == CompressionNone {
		ih.ImageSize = uint32(alignedRowSize(ih.Width, ih.BitsPerPixel)) * uint32(ih.Height)
	}

	if ih.BitsPerPixel >= 1 && ih.BitsPerPixel <= 8 {
		maxColors := uint32(1) << uint(ih.BitsPerPixel)
		if ih.ColorsUsed == 0 || ih.ColorsUsed > maxColors {
			ih.ColorsUsed = maxColors
			ih.ColorsImportant = maxColors
		}
	}
}

// alignedRowSize is the byte length of one stored scanline including the
// 4-byte padding.
func alignedRowSize(width, bpp int) int {
	return ((width*bpp + 31) / 32) * 4
}

// readMaskSegment consumes the standalone mask block that follows a plain
// 40-byte header when bitfield compression is declared. Larger dialects
// carry the masks inside the header instead.
func readMaskSegment(cur *cursor, ih *InfoHeader) error {
	n := 12
	if ih.Compression == CompressionAlphaBitFields {
		n = 16
	}
	seg, err := cur.bytes(n)
	if err != nil {
		return fmt.Errorf("%w: bitfield mask segment", ErrDeclaredSizeExceedsStream)
	}
	ih.RedMask = binary.LittleEndian.Uint32(seg[0:])
	ih.GreenMask = binary.LittleEndian.Uint32(seg[4:])
	ih.BlueMask = binary.LittleEndian.Uint32(seg[8:])
	if n == 16 {
		ih.AlphaMask = binary.LittleEndian.Uint32(seg[12:])
	}
	return nil
}
