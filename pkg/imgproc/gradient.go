package imgproc

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/jmylchreest/basin/pkg/raster"
)

// Kernel selects the derivative kernel used per channel.
type Kernel int

const (
	// Ando uses Ando's consistent 3×3 gradient kernels.
	Ando Kernel = iota
	// Difference uses the central difference [-1 0 1]/2.
	Difference
	// Sobel uses the Sobel kernels normalized by 1/8.
	Sobel
	// Prewitt uses the Prewitt kernels normalized by 1/6.
	Prewitt
)

var kernelNames = []string{"ando", "difference", "sobel", "prewitt"}

// String returns the flag spelling of the kernel.
func (k Kernel) String() string {
	if k >= 0 && int(k) < len(kernelNames) {
		return kernelNames[k]
	}
	return fmt.Sprintf("Kernel(%d)", int(k))
}

// Set implements pflag.Value.
func (k *Kernel) Set(s string) error {
	v, err := ParseKernel(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Type implements pflag.Value.
func (k *Kernel) Type() string { return "kernel" }

// ValidKernels returns the accepted kernel names.
func ValidKernels() []string { return slices.Clone(kernelNames) }

// ParseKernel converts a kernel name into a Kernel.
func ParseKernel(s string) (Kernel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kernelNames {
		if s == name {
			return Kernel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownKernel, s, strings.Join(ValidKernels(), ", "))
}

// ContrastType selects how the three channel gradients are combined.
type ContrastType int

const (
	// Contrast is lambda_max - lambda_min of the color structure tensor,
	// ((E-G)^2 + 4F^2)^(1/4).
	Contrast ContrastType = iota
	// MDD is the maximum directional derivative, sqrt(lambda_max).
	MDD
	// Maximum takes the largest single-channel gradient.
	Maximum
)

var contrastNames = []string{"contrast", "mdd", "maximum"}

// String returns the flag spelling of the contrast type.
func (c ContrastType) String() string {
	if c >= 0 && int(c) < len(contrastNames) {
		return contrastNames[c]
	}
	return fmt.Sprintf("ContrastType(%d)", int(c))
}

// Set implements pflag.Value.
func (c *ContrastType) Set(s string) error {
	v, err := ParseContrastType(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Type implements pflag.Value.
func (c *ContrastType) Type() string { return "contrast" }

// ValidContrastTypes returns the accepted contrast type names.
func ValidContrastTypes() []string { return slices.Clone(contrastNames) }

// ParseContrastType converts a contrast type name into a ContrastType.
func ParseContrastType(s string) (ContrastType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range contrastNames {
		if s == name {
			return ContrastType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownContrast, s, strings.Join(ValidContrastTypes(), ", "))
}

// GradientConfig configures ColorContrastGradient.
type GradientConfig struct {
	Kernel   Kernel
	Contrast ContrastType
}

// DefaultGradientConfig returns the Ando kernel with the Contrast measure.
func DefaultGradientConfig() GradientConfig {
	return GradientConfig{Kernel: Ando, Contrast: Contrast}
}

// Validate reports whether the configuration can be used.
func (c GradientConfig) Validate() error {
	if c.Kernel < Ando || c.Kernel > Prewitt {
		return fmt.Errorf("%w: %v", ErrUnknownKernel, c.Kernel)
	}
	if c.Contrast < Contrast || c.Contrast > Maximum {
		return fmt.Errorf("%w: %v", ErrUnknownContrast, c.Contrast)
	}
	return nil
}

// kernel3 is a separable 3-tap derivative: smooth across, derive along.
type kernel3 struct {
	smooth [3]float32
	derive [3]float32
}

func (k Kernel) taps() kernel3 {
	switch k {
	case Difference:
		return kernel3{smooth: [3]float32{0, 1, 0}, derive: [3]float32{-0.5, 0, 0.5}}
	case Sobel:
		return kernel3{smooth: [3]float32{0.25, 0.5, 0.25}, derive: [3]float32{-0.5, 0, 0.5}}
	case Prewitt:
		return kernel3{smooth: [3]float32{1.0 / 3, 1.0 / 3, 1.0 / 3}, derive: [3]float32{-0.5, 0, 0.5}}
	default:
		// Ando's 0.112737, 0.274526, 0.112737 rescaled to unit smoothing.
		const a, b = 0.112737, 0.274526
		const s = a + b + a
		return kernel3{
			smooth: [3]float32{a / s, b / s, a / s},
			derive: [3]float32{-0.5, 0, 0.5},
		}
	}
}

// derivatives returns the x and y derivatives of c, replicating edge pixels.
func derivatives(c *raster.Channel, k kernel3) (dx, dy []float32) {
	w, h := c.Width, c.Height
	dx = make([]float32, w*h)
	dy = make([]float32, w*h)
	clamp := func(v, n int) int {
		if v < 0 {
			return 0
		}
		if v >= n {
			return n - 1
		}
		return v
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy float32
			for j := -1; j <= 1; j++ {
				yy := clamp(y+j, h)
				for i := -1; i <= 1; i++ {
					v := c.Pix[yy*w+clamp(x+i, w)]
					gx += k.smooth[j+1] * k.derive[i+1] * v
					gy += k.derive[j+1] * k.smooth[i+1] * v
				}
			}
			dx[y*w+x] = gx
			dy[y*w+x] = gy
		}
	}
	return dx, dy
}

// ColorContrastGradient computes the gradient magnitude and orientation of a
// three-channel image and the largest magnitude found.
func ColorContrastGradient(cfg GradientConfig, c1, c2, c3 *raster.Channel) (mag, orient *raster.Channel, maxMag float32, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, 0, err
	}
	for i, c := range []*raster.Channel{c2, c3} {
		if err := raster.CheckSize(fmt.Sprintf("channel %d", i+2), c.Width, c.Height, c1.Width, c1.Height); err != nil {
			return nil, nil, 0, err
		}
	}

	w, h := c1.Width, c1.Height
	mag, orient = raster.NewChannel(w, h), raster.NewChannel(w, h)
	k := cfg.Kernel.taps()
	dx1, dy1 := derivatives(c1, k)
	dx2, dy2 := derivatives(c2, k)
	dx3, dy3 := derivatives(c3, k)

	const eps = 1.1920929e-07
	for p := range mag.Pix {
		var m, a float64
		switch cfg.Contrast {
		case Maximum:
			m, a = maxChannelGradient(
				[3]float64{float64(dx1[p]), float64(dx2[p]), float64(dx3[p])},
				[3]float64{float64(dy1[p]), float64(dy2[p]), float64(dy3[p])},
			)
		default:
			e := float64(dx1[p]*dx1[p] + dx2[p]*dx2[p] + dx3[p]*dx3[p])
			f := float64(dx1[p]*dy1[p] + dx2[p]*dy2[p] + dx3[p]*dy3[p])
			g := float64(dy1[p]*dy1[p] + dy2[p]*dy2[p] + dy3[p]*dy3[p])
			if e+g <= eps {
				break
			}
			root := (e-g)*(e-g) + 4*f*f
			if cfg.Contrast == MDD {
				m = math.Sqrt((e + g + math.Sqrt(root)) / 2)
			} else {
				m = math.Pow(root, 0.25)
			}
			a = 0.5 * math.Atan2(2*f, e-g)
		}
		mag.Pix[p] = float32(m)
		orient.Pix[p] = float32(a)
		if float32(m) > maxMag {
			maxMag = float32(m)
		}
	}
	return mag, orient, maxMag, nil
}

func maxChannelGradient(dx, dy [3]float64) (float64, float64) {
	best, bi := -1.0, 0
	for i := range dx {
		if m := dx[i]*dx[i] + dy[i]*dy[i]; m > best {
			best, bi = m, i
		}
	}
	return math.Sqrt(best), math.Atan2(dy[bi], dx[bi])
}

// Quantize maps mag onto 0..255 by scaling maxMag to 255 and rounding. A
// zero maxMag yields an all-zero channel.
func Quantize(mag *raster.Channel, maxMag float32) *raster.Channel8 {
	out := raster.NewChannel8(mag.Width, mag.Height)
	if maxMag <= 0 {
		return out
	}
	factor := 255 / float64(maxMag)
	for i, v := range mag.Pix {
		q := math.Round(float64(v) * factor)
		switch {
		case q < 0:
			q = 0
		case q > 255:
			q = 255
		}
		out.Pix[i] = uint8(q)
	}
	return out
}
