package terrain

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// ErrMalformedBounds is returned for a missing, truncated or corrupt
// bounding-box sidecar.
var ErrMalformedBounds = errors.New("terrain: malformed bounds file")

const (
	boundsMagic   = "cdlod-bb"
	boundsVersion = 1
)

// TileBounds is the content of a tile's .bb sidecar. The box is in world
// coordinates. Angles are radians.
type TileBounds struct {
	Box       math.Box[float64]
	Longitude float64 // of post (0, 0)
	Latitude  float64 // of post (0, 0)
	CellSize  float64 // angular distance between posts
}

// GenerateBounds computes the sidecar content for a height field placed with
// the given origin and post spacing. The geographic fields are copied from
// geo.
func GenerateBounds[T math.Float](g *Grid[T], origin math.Vec3[float64], spacing float64, geo TileBounds) TileBounds {
	if spacing == 0 {
		spacing = 1
	}
	w, h := g.Extent()
	lo, hi := g.Range()
	geo.Box = math.Box[float64]{
		Min: origin.Add(math.V3(0, float64(lo), 0)),
		Max: origin.Add(math.V3(float64(w-1)*spacing, float64(hi), float64(h-1)*spacing)),
	}
	return geo
}

// WriteBounds writes b in the versioned text format.
func WriteBounds(w io.Writer, b TileBounds) error {
	data := boundsData(b)
	_, err := fmt.Fprintf(w, "%s %d\n%scrc32 %08x\n", boundsMagic, boundsVersion, data, crc32.ChecksumIEEE([]byte(data)))
	return err
}

func boundsData(b TileBounds) string {
	var sb strings.Builder
	writeFloats(&sb, b.Box.Min.X, b.Box.Min.Y, b.Box.Min.Z, b.Box.Max.X, b.Box.Max.Y, b.Box.Max.Z)
	writeFloats(&sb, degrees(b.Longitude), degrees(b.Latitude), degrees(b.CellSize))
	return sb.String()
}

func writeFloats(sb *strings.Builder, vs ...float64) {
	for i, v := range vs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	sb.WriteByte('\n')
}

// ReadBounds parses a sidecar. Files without the header are read as the
// legacy layout of nine whitespace separated numbers.
func ReadBounds(r io.Reader) (TileBounds, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return TileBounds{}, fmt.Errorf("%w: %w", ErrMalformedBounds, err)
	}
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if bytes.HasPrefix(raw, []byte(boundsMagic)) {
		return readVersioned(string(raw))
	}
	return readLegacy(string(raw))
}

func readVersioned(s string) (TileBounds, error) {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) < 4 {
		return TileBounds{}, fmt.Errorf("%w: truncated", ErrMalformedBounds)
	}

	header := strings.Fields(lines[0])
	if len(header) != 2 {
		return TileBounds{}, fmt.Errorf("%w: bad header %q", ErrMalformedBounds, strings.TrimSpace(lines[0]))
	}
	if v, err := strconv.Atoi(header[1]); err != nil || v != boundsVersion {
		return TileBounds{}, fmt.Errorf("%w: unsupported version %q", ErrMalformedBounds, header[1])
	}

	data := lines[1] + lines[2]
	sum := strings.Fields(lines[3])
	if len(sum) != 2 || sum[0] != "crc32" {
		return TileBounds{}, fmt.Errorf("%w: missing checksum", ErrMalformedBounds)
	}
	want, err := strconv.ParseUint(sum[1], 16, 32)
	if err != nil {
		return TileBounds{}, fmt.Errorf("%w: checksum %q", ErrMalformedBounds, sum[1])
	}
	if got := crc32.ChecksumIEEE([]byte(data)); uint32(want) != got {
		return TileBounds{}, fmt.Errorf("%w: checksum mismatch %08x != %08x", ErrMalformedBounds, got, want)
	}

	box, err := parseFloats(lines[1], 6)
	if err != nil {
		return TileBounds{}, err
	}
	geo, err := parseFloats(lines[2], 3)
	if err != nil {
		return TileBounds{}, err
	}
	return newTileBounds(append(box, geo...))
}

func readLegacy(s string) (TileBounds, error) {
	vs, err := parseFloats(s, 9)
	if err != nil {
		return TileBounds{}, err
	}
	return newTileBounds(vs)
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("%w: want %d numbers, got %d", ErrMalformedBounds, n, len(fields))
	}
	vs := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: bad number %q", ErrMalformedBounds, f)
		}
		vs[i] = v
	}
	return vs, nil
}

func newTileBounds(vs []float64) (TileBounds, error) {
	b := TileBounds{
		Box: math.Box[float64]{
			Min: math.V3(vs[0], vs[1], vs[2]),
			Max: math.V3(vs[3], vs[4], vs[5]),
		},
		Longitude: radians(vs[6]),
		Latitude:  radians(vs[7]),
		CellSize:  radians(vs[8]),
	}
	if b.Box.Empty() {
		return TileBounds{}, fmt.Errorf("%w: inverted box", ErrMalformedBounds)
	}
	return b, nil
}

// LoadBounds reads a sidecar file. A missing file is malformed too.
func LoadBounds(path string) (TileBounds, error) {
	f, err := os.Open(path)
	if err != nil {
		return TileBounds{}, fmt.Errorf("%w: %w", ErrMalformedBounds, err)
	}
	defer f.Close()

	b, err := ReadBounds(f)
	if err != nil {
		return TileBounds{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// SaveBounds writes a sidecar file.
func SaveBounds(path string, b TileBounds) error {
	var buf bytes.Buffer
	if err := WriteBounds(&buf, b); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("terrain: write bounds: %w", err)
	}
	return nil
}

func degrees(rad float64) float64 { return rad * 180 / gomath.Pi }
func radians(deg float64) float64 { return deg * gomath.Pi / 180 }
