// Package media loads the file formats this suite understands and hands back
// a common view of them. Dispatch is by file extension only; content sniffing
// belongs to the per-format decoders.
package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kulaginds/bmp-html5/internal/bmp"
	"github.com/kulaginds/bmp-html5/internal/dck"
)

// Kind names a supported media family.
type Kind string

const (
	KindBitmap    Kind = "bitmap"
	KindCartridge Kind = "cartridge"
)

// ErrUnknownExtension is returned for extensions no decoder claims.
var ErrUnknownExtension = errors.New("media: unknown file extension")

// Media is the common view over everything Load can produce.
type Media interface {
	Kind() Kind
	// Describe renders a one-line human summary.
	Describe() string
}

// Bitmap wraps a decoded BMP image.
type Bitmap struct {
	*bmp.Image
}

func (Bitmap) Kind() Kind { return KindBitmap }

func (b Bitmap) Describe() string {
	return fmt.Sprintf("%s %dx%d %d bpp %s",
		b.Dialect, b.Header.Width, b.Header.Height,
		b.Header.BitsPerPixel, b.Header.Compression)
}

// Cartridge wraps a decoded DCK image.
type Cartridge struct {
	*dck.Cartridge
}

func (Cartridge) Kind() Kind { return KindCartridge }

func (c Cartridge) Describe() string {
	return fmt.Sprintf("DCK cartridge, %d banks, %d stored bytes",
		len(c.Banks), c.StoredBytes())
}

// Load decodes the file at path with the decoder its extension selects.
func Load(path string) (Media, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".dib", ".rle":
		img, err := bmp.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		return Bitmap{img}, nil
	case ".dck":
		cart, err := dck.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		return Cartridge{cart}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, filepath.Ext(path))
	}
}
