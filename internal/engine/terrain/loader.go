package terrain

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG height maps
	"os"

	_ "golang.org/x/image/tiff" // register TIFF height maps

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// LoadGrid decodes a grayscale PNG or TIFF height map. Sample values are
// normalized to [0, 1] and multiplied by scale.
func LoadGrid[T math.Float](path string, scale T) (*Grid[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: open height map: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("terrain: decode height map %s: %w", path, err)
	}
	g, err := GridFromImage(img, scale)
	if err != nil {
		return nil, fmt.Errorf("terrain: %s height map %s: %w", format, path, err)
	}
	return g, nil
}

// GridFromImage converts an image to a height grid, one post per pixel.
func GridFromImage[T math.Float](img image.Image, scale T) (*Grid[T], error) {
	b := img.Bounds()
	g, err := NewGrid[T](b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	switch im := img.(type) {
	case *image.Gray16:
		for z := 0; z < g.height; z++ {
			for x := 0; x < g.width; x++ {
				v := im.Gray16At(b.Min.X+x, b.Min.Y+z).Y
				g.heights[z*g.width+x] = T(v) / 65535 * scale
			}
		}
	case *image.Gray:
		for z := 0; z < g.height; z++ {
			for x := 0; x < g.width; x++ {
				v := im.GrayAt(b.Min.X+x, b.Min.Y+z).Y
				g.heights[z*g.width+x] = T(v) / 255 * scale
			}
		}
	default:
		for z := 0; z < g.height; z++ {
			for x := 0; x < g.width; x++ {
				v := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+z)).(color.Gray16).Y
				g.heights[z*g.width+x] = T(v) / 65535 * scale
			}
		}
	}
	return g, nil
}
