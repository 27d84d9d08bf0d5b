package bmp

import "image"

// PixelGrid is the decoded image: 8-bit RGBA samples, 4 bytes per pixel,
// row-major. Row 0 is always the visual top row; bottom-up storage has
// already been inverted by the time a grid exists.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

func newPixelGrid(w, h int) *PixelGrid {
	return &PixelGrid{
		Width:  w,
		Height: h,
		Pix:    make([]uint8, 4*w*h),
	}
}

func (g *PixelGrid) setRGBA(x, y int, r, gr, b, a uint8) {
	i := (y*g.Width + x) * 4
	g.Pix[i+0] = r
	g.Pix[i+1] = gr
	g.Pix[i+2] = b
	g.Pix[i+3] = a
}

// RGBAAt returns the four channel values of one pixel.
func (g *PixelGrid) RGBAAt(x, y int) (r, gr, b, a uint8) {
	i := (y*g.Width + x) * 4
	return g.Pix[i+0], g.Pix[i+1], g.Pix[i+2], g.Pix[i+3]
}

// Row returns one scanline's RGBA bytes as a subslice of the grid.
func (g *PixelGrid) Row(y int) []uint8 {
	return g.Pix[y*g.Width*4 : (y+1)*g.Width*4]
}

// NRGBA wraps the grid in a standard library image for re-encoding. The
// pixel buffer is shared, not copied.
func (g *PixelGrid) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    g.Pix,
		Stride: 4 * g.Width,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}
