package terrain

import (
	"bytes"
	gomath "math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

func sampleBounds() TileBounds {
	return TileBounds{
		Box: math.Box[float64]{
			Min: math.V3(-100.5, -12.25, 0),
			Max: math.V3(1947.5, 3012.125, 2048),
		},
		Longitude: radians(13.4),
		Latitude:  radians(-52.52),
		CellSize:  radians(1.0 / 3600),
	}
}

func assertBoundsEqual(t *testing.T, want, got TileBounds) {
	t.Helper()
	assert.Equal(t, want.Box, got.Box)
	assert.InDelta(t, want.Longitude, got.Longitude, 1e-15)
	assert.InDelta(t, want.Latitude, got.Latitude, 1e-15)
	assert.InDelta(t, want.CellSize, got.CellSize, 1e-18)
}

func TestBoundsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBounds(&buf, sampleBounds()))
	assert.True(t, strings.HasPrefix(buf.String(), "cdlod-bb 1\n"))

	got, err := ReadBounds(&buf)
	require.NoError(t, err)
	assertBoundsEqual(t, sampleBounds(), got)
}

func TestBoundsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.bb")
	require.NoError(t, SaveBounds(path, sampleBounds()))
	got, err := LoadBounds(path)
	require.NoError(t, err)
	assertBoundsEqual(t, sampleBounds(), got)
}

func TestReadBoundsCRLF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBounds(&buf, sampleBounds()))
	crlf := strings.ReplaceAll(buf.String(), "\n", "\r\n")
	got, err := ReadBounds(strings.NewReader(crlf))
	require.NoError(t, err)
	assertBoundsEqual(t, sampleBounds(), got)
}

func TestReadBoundsLegacy(t *testing.T) {
	legacy := "0 10 0\n512 250.5 512\n180 45 0.5\n"
	got, err := ReadBounds(strings.NewReader(legacy))
	require.NoError(t, err)
	assert.Equal(t, math.V3(0.0, 10, 0), got.Box.Min)
	assert.Equal(t, math.V3(512.0, 250.5, 512), got.Box.Max)
	assert.InDelta(t, gomath.Pi, got.Longitude, 1e-15)
	assert.InDelta(t, gomath.Pi/4, got.Latitude, 1e-15)
	assert.InDelta(t, gomath.Pi/360, got.CellSize, 1e-15)
}

func TestReadBoundsMalformed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBounds(&buf, sampleBounds()))
	good := buf.String()
	lines := strings.SplitAfter(good, "\n")

	tests := map[string]string{
		"empty":          "",
		"legacy short":   "1 2 3 4 5 6 7 8",
		"legacy long":    "1 2 3 4 5 6 7 8 9 10",
		"legacy text":    "1 2 3 4 5 6 7 8 nine",
		"legacy nan":     "0 0 0 1 1 1 NaN 0 0",
		"inverted box":   "5 0 0 1 1 1 0 0 0",
		"truncated":      lines[0] + lines[1],
		"version":        strings.Replace(good, "cdlod-bb 1", "cdlod-bb 2", 1),
		"no checksum":    lines[0] + lines[1] + lines[2] + "\n",
		"bad checksum":   lines[0] + lines[1] + lines[2] + "crc32 zz\n",
		"tampered value": lines[0] + strings.Replace(lines[1], "2048", "2049", 1) + lines[2] + lines[3],
		"short line":     lines[0] + "1 2 3\n" + lines[2] + lines[3],
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadBounds(strings.NewReader(content))
			assert.ErrorIs(t, err, ErrMalformedBounds)
		})
	}
}

func TestLoadBoundsMissing(t *testing.T) {
	_, err := LoadBounds(filepath.Join(t.TempDir(), "none.bb"))
	assert.ErrorIs(t, err, ErrMalformedBounds)
}

func TestGenerateBounds(t *testing.T) {
	g := rampGrid(t, 5, 3)
	geo := TileBounds{Longitude: 0.1, Latitude: 0.2, CellSize: 0.001}

	b := GenerateBounds(g, math.V3(100.0, 0, -50), 2, geo)
	assert.Equal(t, math.V3(100.0, 0, -50), b.Box.Min)
	assert.Equal(t, math.V3(108.0, 24, -46), b.Box.Max)
	assert.Equal(t, 0.1, b.Longitude)
	assert.Equal(t, 0.2, b.Latitude)
	assert.Equal(t, 0.001, b.CellSize)
}
