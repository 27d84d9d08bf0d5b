package media

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyBMP is a 1x1 24 bpp image.
func tinyBMP() []byte {
	dib := make([]byte, 40)
	le := binary.LittleEndian
	le.PutUint32(dib, 40)
	le.PutUint32(dib[4:], 1)
	le.PutUint32(dib[8:], 1)
	le.PutUint16(dib[12:], 1)
	le.PutUint16(dib[14:], 24)

	fh := make([]byte, 14)
	fh[0], fh[1] = 'B', 'M'
	le.PutUint32(fh[2:], 14+40+4)
	le.PutUint32(fh[10:], 14+40)

	out := append(fh, dib...)
	return append(out, 0x10, 0x20, 0x30, 0x00)
}

// tinyDCK is one bank of eight absent chunks.
func tinyDCK() []byte {
	return make([]byte, 9)
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadBitmapExtensions(t *testing.T) {
	for _, name := range []string{"a.bmp", "b.DIB", "c.rle"} {
		m, err := Load(writeTemp(t, name, tinyBMP()))
		require.NoError(t, err, name)
		assert.Equal(t, KindBitmap, m.Kind(), name)
		assert.Contains(t, m.Describe(), "24 bpp", name)
	}
}

func TestLoadCartridge(t *testing.T) {
	m, err := Load(writeTemp(t, "game.dck", tinyDCK()))
	require.NoError(t, err)
	assert.Equal(t, KindCartridge, m.Kind())
	assert.Contains(t, m.Describe(), "1 banks")
}

func TestLoadUnknownExtension(t *testing.T) {
	_, err := Load(writeTemp(t, "x.gif", []byte("GIF89a")))
	require.ErrorIs(t, err, ErrUnknownExtension)
}

func TestLoadDecoderErrorsPropagate(t *testing.T) {
	_, err := Load(writeTemp(t, "bad.bmp", []byte("XX")))
	require.Error(t, err)
}
