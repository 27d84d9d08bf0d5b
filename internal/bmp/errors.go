package bmp

import "errors"

// Decode failures. Every error returned by this package wraps one of these
// sentinels, so callers can classify failures with errors.Is.
var (
	// ErrUnsupportedContainerTag means the file starts with a recognized
	// bitmap-family tag (BA, CI, CP, IC, PT) that is not a plain "BM" bitmap,
	// or with something that is not a bitmap at all.
	ErrUnsupportedContainerTag = errors.New("bmp: unsupported container tag")

	// ErrUnsupportedHeaderSize means the DIB header size matches no known
	// dialect and lies outside the OS/2 v2 variable range.
	ErrUnsupportedHeaderSize = errors.New("bmp: unsupported header size")

	// ErrUnsupportedPixelFormat means the bits-per-pixel value is not one the
	// format defines.
	ErrUnsupportedPixelFormat = errors.New("bmp: unsupported pixel format")

	// ErrUnsupportedPayloadCodec means the pixel payload is delegated to a
	// codec this decoder does not implement (JPEG, PNG, OS/2 Huffman-1D,
	// OS/2 RLE-24).
	ErrUnsupportedPayloadCodec = errors.New("bmp: unsupported payload codec")

	// ErrInvalidCompressionForDepth means the compression code cannot occur
	// with the declared bit depth (e.g. RLE-4 with 8 bpp).
	ErrInvalidCompressionForDepth = errors.New("bmp: compression invalid for bit depth")

	// ErrTruncatedPalette means the color table extends past the pixel-data
	// offset or past the end of the stream.
	ErrTruncatedPalette = errors.New("bmp: truncated color table")

	// ErrTruncatedPixelData means uncompressed pixel data ended before the
	// declared dimensions were satisfied.
	ErrTruncatedPixelData = errors.New("bmp: truncated pixel data")

	// ErrTruncatedRleStream means an RLE stream ended in the middle of a
	// command pair, a delta operand, or an absolute run.
	ErrTruncatedRleStream = errors.New("bmp: truncated RLE stream")

	// ErrDeclaredSizeExceedsStream means the headers declare more data than
	// the stream actually holds. It is reported before any large allocation
	// is made.
	ErrDeclaredSizeExceedsStream = errors.New("bmp: declared size exceeds stream")
)
