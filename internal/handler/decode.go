package handler

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"strconv"

	xdraw "golang.org/x/image/draw"

	"github.com/kulaginds/bmp-html5/internal/bmp"
)

// Decode answers POST requests carrying a BMP body with the decoded image
// re-encoded as PNG.
func Decode(w http.ResponseWriter, r *http.Request) {
	img, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	writePNG(w, img.Grid.NRGBA())
}

// Thumbnail answers POST requests carrying a BMP body with a PNG scaled to
// fit the requested bounding square (query parameter "max", capped by the
// configured thumbnail limit). Images already inside the box pass through
// unscaled.
func Thumbnail(w http.ResponseWriter, r *http.Request) {
	img, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	cfg := activeConfig()
	max := cfg.Decoder.ThumbnailMax
	if s := r.URL.Query().Get("max"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && (max <= 0 || v < max) {
			max = v
		}
	}

	src := img.Grid.NRGBA()
	dw, dh := fitBox(img.Grid.Width, img.Grid.Height, max)
	if dw == img.Grid.Width && dh == img.Grid.Height {
		writePNG(w, src)
		return
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	writePNG(w, dst)
}

// fitBox shrinks w x h proportionally so both sides fit in max. Upscaling is
// never performed.
func fitBox(w, h, max int) (int, int) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h
	}

	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}

	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// decodeRequest reads and decodes the request body, writing the error
// response itself when anything fails.
func decodeRequest(w http.ResponseWriter, r *http.Request) (*bmp.Image, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	cfg := activeConfig()
	body := io.Reader(r.Body)
	if cfg.Decoder.MaxInputBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, cfg.Decoder.MaxInputBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}

	img, err := bmp.DecodeBytes(data)
	if err != nil {
		writeDecodeError(w, err)
		return nil, false
	}

	if err := checkDimensions(cfg, img.Grid.Width, img.Grid.Height); err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return nil, false
	}

	return img, true
}

// writeDecodeError maps the decoder's error taxonomy to HTTP statuses:
// formats this server does not speak are 415, malformed files are 422.
func writeDecodeError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, bmp.ErrUnsupportedContainerTag),
		errors.Is(err, bmp.ErrUnsupportedHeaderSize),
		errors.Is(err, bmp.ErrUnsupportedPixelFormat),
		errors.Is(err, bmp.ErrUnsupportedPayloadCodec):
		status = http.StatusUnsupportedMediaType
	}

	http.Error(w, err.Error(), status)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		log.Println(fmt.Errorf("encode png: %w", err))
	}
}
