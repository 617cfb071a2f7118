package imgproc

import (
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// DenoiseFilter selects the smoothing applied before the gradient.
type DenoiseFilter int

const (
	// Median runs a k×k median over each RGB channel.
	Median DenoiseFilter = iota
	// Gaussian blurs with sigma = k/3.
	Gaussian
)

// String returns the flag spelling of the filter.
func (d DenoiseFilter) String() string {
	switch d {
	case Median:
		return "median"
	case Gaussian:
		return "gaussian"
	default:
		return fmt.Sprintf("DenoiseFilter(%d)", int(d))
	}
}

// Set implements pflag.Value.
func (d *DenoiseFilter) Set(s string) error {
	v, err := ParseDenoiseFilter(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Type implements pflag.Value.
func (d *DenoiseFilter) Type() string { return "filter" }

// ValidDenoiseFilters returns the accepted filter names.
func ValidDenoiseFilters() []string {
	return []string{Median.String(), Gaussian.String()}
}

// ParseDenoiseFilter converts a filter name into a DenoiseFilter.
func ParseDenoiseFilter(s string) (DenoiseFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "median":
		return Median, nil
	case "gaussian", "gauss":
		return Gaussian, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownDenoise, s, strings.Join(ValidDenoiseFilters(), ", "))
	}
}

// Denoise smooths img with a kernel of size k. Sizes below 2 return a copy.
func Denoise(img image.Image, filter DenoiseFilter, k int) *image.NRGBA {
	if k < 2 {
		return imaging.Clone(img)
	}
	if filter == Gaussian {
		return imaging.Blur(img, float64(k)/3)
	}
	return MedianFilter(ToNRGBA(img), k)
}

// MedianFilter applies a k×k median to the R, G and B channels separately.
// Pixels outside the image repeat the nearest edge pixel. Alpha is copied.
func MedianFilter(src *image.NRGBA, k int) *image.NRGBA {
	src = ToNRGBA(src)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if k < 2 {
		return imaging.Clone(src)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	lo := -(k / 2)
	hi := lo + k - 1
	var win [3][]uint8
	for c := range win {
		win[c] = make([]uint8, 0, k*k)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := range win {
				win[c] = win[c][:0]
			}
			for j := lo; j <= hi; j++ {
				row := src.Pix[clampInt(y+j, h)*src.Stride:]
				for i := lo; i <= hi; i++ {
					o := clampInt(x+i, w) * 4
					win[0] = append(win[0], row[o])
					win[1] = append(win[1], row[o+1])
					win[2] = append(win[2], row[o+2])
				}
			}
			d := y*dst.Stride + x*4
			for c := range win {
				slices.Sort(win[c])
				dst.Pix[d+c] = win[c][len(win[c])/2]
			}
			dst.Pix[d+3] = src.Pix[y*src.Stride+x*4+3]
		}
	}
	return dst
}

func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// StretchContrast maps the value range of img onto 0..255. With perChannel
// set each of R, G and B is stretched on its own; otherwise one range taken
// over all three channels is used, which keeps hues intact.
func StretchContrast(img *image.NRGBA, perChannel bool) *image.NRGBA {
	img = ToNRGBA(img)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	minV := [3]int{255, 255, 255}
	maxV := [3]int{0, 0, 0}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				v := int(row[x*4+c])
				minV[c] = min(minV[c], v)
				maxV[c] = max(maxV[c], v)
			}
		}
	}
	if !perChannel {
		lo := min(minV[0], minV[1], minV[2])
		hi := max(maxV[0], maxV[1], maxV[2])
		minV = [3]int{lo, lo, lo}
		maxV = [3]int{hi, hi, hi}
	}

	var lut [3][256]uint8
	for c := 0; c < 3; c++ {
		span := maxV[c] - minV[c]
		for v := 0; v < 256; v++ {
			switch {
			case span == 0:
				lut[c][v] = uint8(v)
			case v <= minV[c]:
				lut[c][v] = 0
			case v >= maxV[c]:
				lut[c][v] = 255
			default:
				lut[c][v] = uint8(((v-minV[c])*255 + span/2) / span)
			}
		}
	}

	for y := 0; y < h; y++ {
		s := img.Pix[y*img.Stride:]
		d := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			o := x * 4
			d[o] = lut[0][s[o]]
			d[o+1] = lut[1][s[o+1]]
			d[o+2] = lut[2][s[o+2]]
			d[o+3] = s[o+3]
		}
	}
	return dst
}

// Fit downscales img so neither side exceeds maxSide, keeping the aspect
// ratio. Smaller images and a non-positive maxSide return img unchanged.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	scale := float64(maxSide) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}
