package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/basin/pkg/imgproc"
	"github.com/jmylchreest/basin/pkg/segmentation"
	"github.com/jmylchreest/basin/pkg/watershed"
)

var (
	_ pflag.Value = (*thresholdValue)(nil)
	_ pflag.Value = (*outputFormat)(nil)
	_ pflag.Value = (*imgproc.DenoiseFilter)(nil)
	_ pflag.Value = (*imgproc.Kernel)(nil)
	_ pflag.Value = (*imgproc.ContrastType)(nil)
	_ pflag.Value = (*watershed.Method)(nil)
	_ pflag.Value = (*watershed.Connectivity)(nil)
)

// thresholdValue is a watershed threshold flag that accepts "auto".
type thresholdValue uint8

func (t *thresholdValue) String() string {
	if *t == segmentation.AutoThreshold {
		return "auto"
	}
	return strconv.Itoa(int(*t))
}

func (t *thresholdValue) Set(s string) error {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "auto" {
		*t = segmentation.AutoThreshold
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v >= segmentation.AutoThreshold {
		return fmt.Errorf("threshold must be \"auto\" or 0-%d, got %q", segmentation.AutoThreshold-1, s)
	}
	*t = thresholdValue(v)
	return nil
}

func (t *thresholdValue) Type() string { return "threshold" }

// outputFormat selects how the summary is printed.
type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatNone  outputFormat = "none"
)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(s string) error {
	switch v := outputFormat(strings.ToLower(strings.TrimSpace(s))); v {
	case formatTable, formatJSON, formatNone:
		*f = v
		return nil
	default:
		return fmt.Errorf("unknown format %q (valid: table, json, none)", s)
	}
}

func (f *outputFormat) Type() string { return "format" }

// gradientFlags binds the options shared by segment and watershed: input
// preparation, gradient and watershed settings.
type gradientFlags struct {
	maxSize       int
	denoise       int
	denoiseFilter imgproc.DenoiseFilter
	colorSpace    string
	gradient      imgproc.GradientConfig
	watershed     watershed.Config
	threshold     thresholdValue
	probability   float64
	cacheDir      string
	insecure      bool
}

func (g *gradientFlags) register(cmd *cobra.Command, defaults segmentation.Config) {
	g.denoiseFilter = defaults.DenoiseFilter
	g.gradient = defaults.Gradient
	g.watershed = defaults.Watershed
	g.threshold = thresholdValue(defaults.Watershed.Threshold)

	f := cmd.Flags()
	f.IntVar(&g.maxSize, "max-size", defaults.MaxSize, "downscale so the longer side is at most this many pixels (0 keeps the size)")
	f.IntVar(&g.denoise, "denoise", defaults.DenoiseKernel, "denoise kernel size (0 or 1 disables denoising)")
	f.Var(&g.denoiseFilter, "denoise-filter", "denoise filter ("+strings.Join(imgproc.ValidDenoiseFilters(), ", ")+")")
	f.StringVar(&g.colorSpace, "color-space", defaults.ColorSpace, "colour space for gradient and region means ("+strings.Join(imgproc.ValidColorSpaces(), ", ")+")")
	f.Var(&g.gradient.Kernel, "kernel", "gradient kernel ("+strings.Join(imgproc.ValidKernels(), ", ")+")")
	f.Var(&g.gradient.Contrast, "contrast-type", "gradient colour contrast ("+strings.Join(imgproc.ValidContrastTypes(), ", ")+")")
	f.Var(&g.watershed.Method, "method", "watershed method ("+strings.Join(watershed.ValidMethods(), ", ")+")")
	f.Var(&g.watershed.Connectivity, "connectivity", "watershed neighbourhood ("+strings.Join(watershed.ValidConnectivities(), ", ")+")")
	f.Var(&g.threshold, "ws-threshold", "watershed noise threshold, 0-254 or auto")
	f.Float64Var(&g.probability, "probability", defaults.ThresholdProbability, "share of gradient pixels at or below the automatic threshold")
	f.StringVar(&g.cacheDir, "cache-dir", "", "keep downloaded images in this directory")
	f.BoolVar(&g.insecure, "insecure", false, "allow plain HTTP and private hosts for image URLs")
}

// apply copies the bound values into cfg.
func (g *gradientFlags) apply(cfg *segmentation.Config) {
	cfg.MaxSize = g.maxSize
	cfg.DenoiseKernel = g.denoise
	cfg.DenoiseFilter = g.denoiseFilter
	cfg.ColorSpace = g.colorSpace
	cfg.Gradient = g.gradient
	cfg.Watershed.Method = g.watershed.Method
	cfg.Watershed.Connectivity = g.watershed.Connectivity
	cfg.Watershed.Threshold = uint8(g.threshold)
	cfg.ThresholdProbability = g.probability
}
