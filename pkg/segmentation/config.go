// Package segmentation runs the color watershed and adjacency graph merge
// pipeline: denoise, optional contrast stretch, color split, color contrast
// gradient, watershed on the quantized gradient, and Haris-weighted region
// merging in the split color space.
package segmentation

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/basin/pkg/imgproc"
	"github.com/jmylchreest/basin/pkg/regiongraph"
	"github.com/jmylchreest/basin/pkg/regionmeans"
	"github.com/jmylchreest/basin/pkg/watershed"
)

// AutoThreshold as the watershed threshold asks the pipeline to derive it
// from the gradient histogram.
const AutoThreshold = 255

// ErrInvalidConfig is returned for unusable pipeline settings.
var ErrInvalidConfig = errors.New("segmentation: invalid configuration")

// Config holds every pipeline setting.
type Config struct {
	// MaxSize downscales inputs whose longer side exceeds it; 0 keeps the
	// original size.
	MaxSize int

	// DenoiseKernel is the size of the denoise window; 0 or 1 disables it.
	DenoiseKernel int
	DenoiseFilter imgproc.DenoiseFilter

	// EnhanceContrast stretches the input range before splitting.
	EnhanceContrast bool
	// ContrastPerChannel stretches R, G and B independently.
	ContrastPerChannel bool

	// ColorSpace names the splitter, see imgproc.ValidColorSpaces.
	ColorSpace string

	Gradient  imgproc.GradientConfig
	Watershed watershed.Config

	// ThresholdProbability is the share of gradient pixels that must lie at
	// or below the automatic watershed threshold.
	ThresholdProbability float64

	Merge    regiongraph.MergeConfig
	Distance regionmeans.Distance
}

// DefaultConfig returns the standard pipeline: 3×3 median, XYZ color space,
// rainfall watershed on an 8-neighborhood with an automatic threshold at
// probability 0.45, and optimal Haris merging with threshold 1 down to no
// fewer than 10 regions.
func DefaultConfig() Config {
	ws := watershed.DefaultConfig()
	ws.Method = watershed.Rainfall
	ws.Connectivity = watershed.Conn8
	ws.Threshold = AutoThreshold

	return Config{
		DenoiseKernel:        3,
		DenoiseFilter:        imgproc.Median,
		EnhanceContrast:      false,
		ContrastPerChannel:   true,
		ColorSpace:           "XYZ",
		Gradient:             imgproc.DefaultGradientConfig(),
		Watershed:            ws,
		ThresholdProbability: 0.45,
		Merge: regiongraph.MergeConfig{
			Mode:       regiongraph.Optimal,
			Threshold:  1,
			MinRegions: 10,
		},
		Distance: regionmeans.Haris,
	}
}

// Validate reports whether the configuration can be used.
func (c Config) Validate() error {
	if c.MaxSize < 0 {
		return fmt.Errorf("%w: max size must not be negative, got %d", ErrInvalidConfig, c.MaxSize)
	}
	if c.DenoiseKernel < 0 {
		return fmt.Errorf("%w: denoise kernel must not be negative, got %d", ErrInvalidConfig, c.DenoiseKernel)
	}
	if c.DenoiseFilter != imgproc.Median && c.DenoiseFilter != imgproc.Gaussian {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.DenoiseFilter)
	}
	if _, err := imgproc.NewSplitter(c.ColorSpace); err != nil {
		return err
	}
	if err := c.Gradient.Validate(); err != nil {
		return err
	}
	if err := c.Watershed.Validate(); err != nil {
		return err
	}
	if c.Watershed.Threshold == AutoThreshold && (c.ThresholdProbability < 0 || c.ThresholdProbability > 1) {
		return fmt.Errorf("%w: threshold probability must be in [0, 1], got %g", ErrInvalidConfig, c.ThresholdProbability)
	}
	if err := c.Merge.Validate(); err != nil {
		return err
	}
	if c.Distance != regionmeans.Plain && c.Distance != regionmeans.Haris {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Distance)
	}
	return nil
}
