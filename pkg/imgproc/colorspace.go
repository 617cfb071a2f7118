package imgproc

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/basin/pkg/raster"
)

// converter maps a color to three components.
type converter func(c colorful.Color) (float64, float64, float64)

var colorSpaces = map[string]converter{
	"RGB": func(c colorful.Color) (float64, float64, float64) { return c.R, c.G, c.B },
	"XYZ": func(c colorful.Color) (float64, float64, float64) { return c.Xyz() },
	"Lab": func(c colorful.Color) (float64, float64, float64) { return c.Lab() },
	"Luv": func(c colorful.Color) (float64, float64, float64) { return c.Luv() },
	"HSV": func(c colorful.Color) (float64, float64, float64) {
		h, s, v := c.Hsv()
		return h / 360, s, v
	},
	"HSL": func(c colorful.Color) (float64, float64, float64) {
		h, s, l := c.Hsl()
		return h / 360, s, l
	},
}

// ValidColorSpaces returns the registered splitter names in sorted order.
func ValidColorSpaces() []string {
	names := make([]string, 0, len(colorSpaces))
	for name := range colorSpaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Splitter converts an image into three float channels of one color space.
type Splitter struct {
	name string
	conv converter
}

// NewSplitter returns the splitter registered under name. Names are matched
// case-insensitively.
func NewSplitter(name string) (*Splitter, error) {
	for key, conv := range colorSpaces {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			return &Splitter{name: key, conv: conv}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownColorSpace, name, strings.Join(ValidColorSpaces(), ", "))
}

// Name returns the color space name.
func (s *Splitter) Name() string { return s.name }

// Split converts img into its three components. Hue components are scaled to
// [0, 1] so every channel has a comparable range.
func (s *Splitter) Split(img image.Image) (c1, c2, c3 *raster.Channel) {
	src := ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	c1, c2, c3 = raster.NewChannel(w, h), raster.NewChannel(w, h), raster.NewChannel(w, h)

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			c := colorful.Color{
				R: float64(row[i]) / 255,
				G: float64(row[i+1]) / 255,
				B: float64(row[i+2]) / 255,
			}
			a, b, d := s.conv(c)
			p := y*w + x
			c1.Pix[p], c2.Pix[p], c3.Pix[p] = float32(a), float32(b), float32(d)
		}
	}
	return c1, c2, c3
}

// ToNRGBA returns img as an NRGBA image with its origin at (0, 0). An image
// that already is one is returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
