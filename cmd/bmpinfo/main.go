// Command bmpinfo prints a field-by-field dump of the files this suite can
// decode. BMP files get the resolved header, masks, and optionally the color
// table; DCK cartridges get their bank map.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kulaginds/bmp-html5/internal/bmp"
	"github.com/kulaginds/bmp-html5/internal/dck"
	"github.com/kulaginds/bmp-html5/internal/media"
)

func main() {
	log.SetFlags(log.LstdFlags | log.LUTC)

	paletteFlag := flag.Bool("palette", false, "dump the color table")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: bmpinfo [-palette] file...")
		os.Exit(2)
	}

	exitCode := 0
	for _, path := range flag.Args() {
		if err := dumpFile(os.Stdout, path, *paletteFlag); err != nil {
			fmt.Fprintf(os.Stderr, "bmpinfo: %s: %v\n", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func dumpFile(w io.Writer, path string, withPalette bool) error {
	m, err := media.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %s\n", path, m.Describe())

	switch v := m.(type) {
	case media.Bitmap:
		dumpBitmap(w, v.Image, withPalette)
	case media.Cartridge:
		dumpCartridge(w, v.Cartridge)
	}

	return nil
}

func dumpBitmap(w io.Writer, img *bmp.Image, withPalette bool) {
	fh, ih := img.File, img.Header

	fmt.Fprintf(w, "  file header: tag=%q size=%d data offset=%d\n", fh.Tag, fh.FileSize, fh.DataOffset)
	fmt.Fprintf(w, "  dib header: %s (%d bytes)\n", img.Dialect, ih.HeaderSize)
	fmt.Fprintf(w, "  dimensions: %dx%d", ih.Width, ih.Height)
	if ih.TopDown {
		fmt.Fprint(w, " (top-down)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  planes=%d bpp=%d compression=%s\n", ih.Planes, ih.BitsPerPixel, ih.Compression)
	fmt.Fprintf(w, "  image size=%d resolution=%dx%d px/m\n", ih.ImageSize, ih.XPelsPerMeter, ih.YPelsPerMeter)
	fmt.Fprintf(w, "  colors: used=%d important=%d\n", ih.ColorsUsed, ih.ColorsImportant)

	if ih.RedMask|ih.GreenMask|ih.BlueMask|ih.AlphaMask != 0 {
		fmt.Fprintf(w, "  masks: r=%#08x g=%#08x b=%#08x a=%#08x\n",
			ih.RedMask, ih.GreenMask, ih.BlueMask, ih.AlphaMask)
	}

	if img.Dialect == bmp.DialectV4 || img.Dialect == bmp.DialectV5 {
		fmt.Fprintf(w, "  color space: %s\n", colorSpaceName(ih.ColorSpaceType))
		if ih.ColorSpaceType == bmp.ColorSpaceCalibratedRGB {
			fmt.Fprintf(w, "  gamma: r=%s g=%s b=%s\n",
				fixed1616(ih.GammaRed), fixed1616(ih.GammaGreen), fixed1616(ih.GammaBlue))
		}
	}
	if img.Dialect == bmp.DialectV5 {
		fmt.Fprintf(w, "  intent=%d profile: offset=%d size=%d", ih.Intent, ih.ProfileOffset, ih.ProfileSize)
		if len(img.Profile) > 0 {
			fmt.Fprintf(w, " (%d bytes embedded)", len(img.Profile))
		}
		fmt.Fprintln(w)
	}

	if withPalette && len(img.Palette) > 0 {
		fmt.Fprintf(w, "  color table (%d entries):\n", len(img.Palette))
		for i, e := range img.Palette {
			fmt.Fprintf(w, "    %3d: #%02x%02x%02x\n", i, e.R, e.G, e.B)
		}
	}
}

func dumpCartridge(w io.Writer, cart *dck.Cartridge) {
	for i := range cart.Banks {
		bank := &cart.Banks[i]
		fmt.Fprintf(w, "  %s:", bank.Name())
		for _, ch := range bank.Chunks {
			fmt.Fprintf(w, " %s", ch.Type)
		}
		fmt.Fprintln(w)
	}
}

func colorSpaceName(v uint32) string {
	switch v {
	case bmp.ColorSpaceCalibratedRGB:
		return "calibrated RGB"
	case bmp.ColorSpaceSRGB:
		return "sRGB"
	case bmp.ColorSpaceWindows:
		return "Windows default"
	case bmp.ColorSpaceLinked:
		return "linked profile"
	case bmp.ColorSpaceEmbedded:
		return "embedded profile"
	}
	return fmt.Sprintf("%#08x", v)
}

func fixed1616(v uint32) string {
	return fmt.Sprintf("%.4f", float64(v)/65536)
}
