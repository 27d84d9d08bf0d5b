package handler

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBMP builds a w x h 24 bpp image with every pixel set to the given RGB.
func testBMP(w, h int, r, g, b byte) []byte {
	le := binary.LittleEndian
	stride := (w*3 + 3) &^ 3

	dib := make([]byte, 40)
	le.PutUint32(dib, 40)
	le.PutUint32(dib[4:], uint32(w))
	le.PutUint32(dib[8:], uint32(h))
	le.PutUint16(dib[12:], 1)
	le.PutUint16(dib[14:], 24)

	fh := make([]byte, 14)
	fh[0], fh[1] = 'B', 'M'
	le.PutUint32(fh[2:], uint32(14+40+stride*h))
	le.PutUint32(fh[10:], 14+40)

	out := append(fh, dib...)
	row := make([]byte, stride)
	for x := 0; x < w; x++ {
		row[x*3+0] = b
		row[x*3+1] = g
		row[x*3+2] = r
	}
	for y := 0; y < h; y++ {
		out = append(out, row...)
	}
	return out
}

func dialView(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{
		"Origin": {"http://localhost"},
	})
	require.NoError(t, err)
	return conn
}

func TestViewDecodesUploadedBitmap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(View))
	defer srv.Close()

	conn := dialView(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, testBMP(3, 2, 10, 20, 30)))

	var meta frameMeta
	require.NoError(t, conn.ReadJSON(&meta))
	assert.Empty(t, meta.Error)
	assert.Equal(t, 3, meta.Width)
	assert.Equal(t, 2, meta.Height)
	assert.Equal(t, 24, meta.BitsPerPixel)

	msgType, pix, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)
	require.Len(t, pix, 3*2*4)
	assert.Equal(t, []byte{10, 20, 30, 255}, pix[:4])
}

func TestViewBadInputKeepsConnectionOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(View))
	defer srv.Close()

	conn := dialView(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("not a bitmap")))

	var meta frameMeta
	require.NoError(t, conn.ReadJSON(&meta))
	assert.NotEmpty(t, meta.Error)

	// The connection survives a bad upload.
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, testBMP(1, 1, 1, 2, 3)))
	meta = frameMeta{}
	require.NoError(t, conn.ReadJSON(&meta))
	assert.Empty(t, meta.Error)
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)
}

func TestViewRejectsDisallowedOrigin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(View))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{
		"Origin": {"http://evil.example.com"},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDecodeReturnsPNG(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(testBMP(4, 3, 200, 100, 50)))
	Decode(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestDecodeRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	Decode(rec, httptest.NewRequest(http.MethodGet, "/decode", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDecodeMalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader("BMgarbage"))
	Decode(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	// A bitmap-array container is recognized and refused as unsupported.
	body := testBMP(1, 1, 0, 0, 0)
	body[0], body[1] = 'B', 'A'
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(body))
	Decode(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestThumbnailDownscales(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/thumbnail?max=8", bytes.NewReader(testBMP(32, 16, 9, 9, 9)))
	Thumbnail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestThumbnailNeverUpscales(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/thumbnail?max=100", bytes.NewReader(testBMP(5, 5, 1, 1, 1)))
	Thumbnail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 10, 10, 5},
		{50, 100, 10, 5, 10},
		{8, 8, 10, 8, 8},
		{1000, 1, 10, 10, 1},
		{64, 64, 16, 16, 16},
	}
	for _, tt := range tests {
		w, h := fitBox(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "%dx%d max %d", tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantH, h, "%dx%d max %d", tt.w, tt.h, tt.max)
	}
}

func TestIsAllowedOrigin(t *testing.T) {
	os.Unsetenv("ALLOWED_ORIGINS")
	assert.True(t, isAllowedOrigin("http://localhost:8080"))
	assert.True(t, isAllowedOrigin("http://127.0.0.1:3000"))
	assert.False(t, isAllowedOrigin("http://evil.example.com"))
	assert.False(t, isAllowedOrigin(""))

	os.Setenv("ALLOWED_ORIGINS", "https://viewer.example.com, other.example.org")
	defer os.Unsetenv("ALLOWED_ORIGINS")
	assert.True(t, isAllowedOrigin("https://viewer.example.com"))
	assert.True(t, isAllowedOrigin("http://other.example.org"))
	assert.True(t, isAllowedOrigin("http://localhost:8080"))
	assert.False(t, isAllowedOrigin("http://evil.example.com"))
}
