// cdlodtool is a CLI utility for preparing and inspecting CDLOD terrain data.
package main

import (
	"flag"
	"fmt"
	gomath "math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
	"github.com/Faultbox/cdlod-terrain/internal/engine/terrain"
	"github.com/Faultbox/cdlod-terrain/pkg/ecm"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "bb", "bounds":
		cmdBounds(args)
	case "select", "sel":
		cmdSelect(args)
	case "ecm":
		cmdEcm(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cdlodtool - CDLOD terrain data utility

Usage:
  cdlodtool <command> [options]

Commands:
  bb <heightmap> [options]          Generate a .bb bounds sidecar
  select <heightmap> [options]      Run a LOD selection and print per-level counts
  ecm <lat> <lon>                   Map geodetic degrees onto the ellipsoid cube map

Examples:
  cdlodtool bb tiles/n45e006.png -scale 2000 -lon 6 -lat 45 -cell 0.0002
  cdlodtool select tiles/n45e006.png -y 3000 -far 40000
  cdlodtool ecm 45.5 6.25`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdBounds(args []string) {
	fs := flag.NewFlagSet("bb", flag.ExitOnError)
	out := fs.String("out", "", "Output path (default: <heightmap>.bb)")
	scale := fs.Float64("scale", 1, "Height scale applied to normalized samples")
	spacing := fs.Float64("spacing", 1, "Distance between posts")
	lon := fs.Float64("lon", 0, "Longitude of the first post in degrees")
	lat := fs.Float64("lat", 0, "Latitude of the first post in degrees")
	cell := fs.Float64("cell", 0, "Angular cell size in degrees")
	fs.Parse(reorder(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cdlodtool bb <heightmap> [-out file] [-scale s] [-spacing s] [-lon deg] [-lat deg] [-cell deg]")
		os.Exit(1)
	}
	path := fs.Arg(0)

	g, err := terrain.LoadGrid[float64](path, *scale)
	if err != nil {
		fail(err)
	}

	geo := terrain.TileBounds{
		Longitude: *lon * gomath.Pi / 180,
		Latitude:  *lat * gomath.Pi / 180,
		CellSize:  *cell * gomath.Pi / 180,
	}
	b := terrain.GenerateBounds(g, math.Vec3[float64]{}, *spacing, geo)

	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(path, filepath.Ext(path)) + ".bb"
	}
	if err := terrain.SaveBounds(dst, b); err != nil {
		fail(err)
	}

	w, h := g.Extent()
	fmt.Printf("Heightmap: %s (%dx%d)\n", path, w, h)
	fmt.Printf("Box:       (%g, %g, %g) - (%g, %g, %g)\n",
		b.Box.Min.X, b.Box.Min.Y, b.Box.Min.Z, b.Box.Max.X, b.Box.Max.Y, b.Box.Max.Z)
	fmt.Printf("Written:   %s\n", dst)
}

// fixedCamera looks in every direction; the selection is driven by range
// alone.
type fixedCamera struct {
	pos       math.Vec3[float64]
	near, far float64
}

func (c fixedCamera) Position() math.Vec3[float64]        { return c.pos }
func (c fixedCamera) NearPlane() float64                  { return c.near }
func (c fixedCamera) FarPlane() float64                   { return c.far }
func (c fixedCamera) ViewFrustum() *math.Frustum[float64] { return nil }

func cmdSelect(args []string) {
	s := cdlod.DefaultSettings()
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	scale := fs.Float64("scale", 1000, "Height scale applied to normalized samples")
	x := fs.Float64("x", 0, "Camera X")
	y := fs.Float64("y", 500, "Camera Y")
	z := fs.Float64("z", 0, "Camera Z")
	near := fs.Float64("near", 1, "Near plane")
	far := fs.Float64("far", 20000, "Far plane")
	fs.IntVar(&s.LODLevels, "levels", s.LODLevels, "Number of LOD levels")
	fs.IntVar(&s.LeafNodeSize, "leaf", s.LeafNodeSize, "Leaf node size in posts")
	fs.Parse(reorder(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cdlodtool select <heightmap> [-x -y -z] [-near n] [-far f] [-levels n] [-leaf n]")
		os.Exit(1)
	}

	log := zap.NewNop()
	tile, err := terrain.LoadTile[float64](terrain.TileSpec{Heightmap: fs.Arg(0), HeightScale: *scale}, s, log)
	if err != nil {
		fail(err)
	}
	sel, err := cdlod.NewSelection[float64](s, log)
	if err != nil {
		fail(err)
	}

	cam := fixedCamera{pos: math.V3(*x, *y, *z), near: *near, far: *far}
	if err := terrain.New(log, tile).Select(sel, cam); err != nil {
		fail(err)
	}

	counts := make([]int, s.LODLevels)
	for _, n := range sel.Nodes() {
		counts[n.LODLevel]++
	}

	fmt.Printf("Tile:     %s (%d nodes)\n", tile.Name, tile.Tree.NodeCount())
	fmt.Printf("Selected: %d / %d\n", sel.Len(), sel.Capacity())
	if sel.Overflowed() {
		fmt.Println("Warning:  selection buffer overflowed")
	}
	fmt.Println()
	fmt.Println("Level  Range        Nodes")
	for lvl, n := range counts {
		fmt.Printf("  %-4d %-12.1f %d\n", lvl, sel.VisibilityRange(lvl), n)
	}
}

func cmdEcm(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: cdlodtool ecm <lat> <lon>")
		os.Exit(1)
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fail(fmt.Errorf("latitude: %w", err))
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fail(fmt.Errorf("longitude: %w", err))
	}

	e := ecm.WGS84
	g := ecm.Geo{Lat: lat * gomath.Pi / 180, Lon: lon * gomath.Pi / 180}
	p, err := e.FromGeodetic(g)
	if err != nil {
		fail(err)
	}
	sp, err := ecm.ToSide(p)
	if err != nil {
		fail(err)
	}
	xyz := e.GeodeticToCartesian(g)

	fmt.Printf("Geodetic:   %.6f, %.6f\n", lat, lon)
	fmt.Printf("Geocentric: %.6f\n", e.GeodeticToGeocentric(g.Lat)*180/gomath.Pi)
	fmt.Printf("ECM:        %.9f, %.9f\n", p.X, p.Y)
	fmt.Printf("Side:       %s (%.9f, %.9f)\n", sp.Side, sp.X, sp.Y)
	fmt.Printf("Cartesian:  %.3f, %.3f, %.3f\n", xyz[0], xyz[1], xyz[2])
}

// reorder moves flags ahead of positional arguments so flags may follow the
// heightmap path.
func reorder(args []string) []string {
	var flags, pos []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			flags = append(flags, a)
			if !strings.Contains(a, "=") && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		pos = append(pos, a)
	}
	return append(flags, pos...)
}
