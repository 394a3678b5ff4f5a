package terrain

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func gray16(w, h int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16((x + y*w) * 1000)})
		}
	}
	return img
}

func TestLoadGridPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "height.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, gray16(5, 3)))
	require.NoError(t, f.Close())

	g, err := LoadGrid[float64](path, 65535)
	require.NoError(t, err)
	w, h := g.Extent()
	assert.Equal(t, 5, w)
	assert.Equal(t, 3, h)
	assert.InDelta(t, 0.0, g.At(0, 0), 1e-9)
	assert.InDelta(t, 7000.0, g.At(2, 1), 1e-9)
	assert.InDelta(t, 14000.0, g.At(4, 2), 1e-9)
}

func TestLoadGridTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "height.tif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, gray16(4, 4), nil))
	require.NoError(t, f.Close())

	g, err := LoadGrid[float32](path, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2*5000.0/65535, float64(g.At(1, 1)), 1e-6)
	_, hi := g.Range()
	assert.InDelta(t, 2*15000.0/65535, float64(hi), 1e-6)
}

func TestGridFromImage8Bit(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 255})
	g, err := GridFromImage[float64](img, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, g.At(1, 1))
	assert.Equal(t, 0.0, g.At(0, 1))
}

func TestLoadGridErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadGrid[float64](filepath.Join(dir, "missing.png"), 1)
	assert.ErrorIs(t, err, os.ErrNotExist)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = LoadGrid[float64](junk, 1)
	assert.Error(t, err)
}
