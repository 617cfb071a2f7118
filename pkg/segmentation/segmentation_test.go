package segmentation

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/basin/pkg/imgproc"
	"github.com/jmylchreest/basin/pkg/raster"
	"github.com/jmylchreest/basin/pkg/regiongraph"
	"github.com/jmylchreest/basin/pkg/watershed"
)

// halves returns a w×h image, red on the left half and blue on the right.
func halves(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func segment(t *testing.T, cfg Config, img image.Image) *Result {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	res, err := s.Segment(img)
	require.NoError(t, err)
	return res
}

func TestEstimateThreshold(t *testing.T) {
	elev := raster.NewChannel8(10, 1)
	for i := range elev.Pix {
		elev.Pix[i] = uint8(i)
	}

	tests := []struct {
		name string
		p    float64
		want uint8
	}{
		{"zero", 0, 0},
		{"below first bin", 0.05, 0},
		{"between bins", 0.45, 4},
		{"exact bin boundary", 0.5, 4},
		{"everything", 1, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateThreshold(elev, tt.p))
		})
	}

	assert.Zero(t, EstimateThreshold(raster.NewChannel8(0, 0), 0.45))
}

func TestSegmentTwoColors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge.MinRegions = 1

	res := segment(t, cfg, halves(16, 8))

	assert.Equal(t, uint8(0), res.Threshold, "most of the gradient is flat")
	assert.Equal(t, 2, res.Initial.Distinct())
	assert.Equal(t, 2, res.RegionCount)
	assert.Equal(t, []int{64, 64}, res.RegionSizes)
	assert.Equal(t, 0, res.Regions.At(0, 0))
	assert.Equal(t, 1, res.Regions.At(15, 7))

	require.Len(t, res.RegionMeans, 2)
	red, blue := res.RegionMeans[0], res.RegionMeans[1]
	require.Len(t, red, 3)
	assert.InDelta(t, 0.2126, red[1], 1e-3, "luminance of red")
	assert.InDelta(t, 0.0722, blue[1], 1e-3, "luminance of blue")
}

func TestSegmentMergesBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge.MinRegions = 1
	cfg.Merge.Threshold = 100

	res := segment(t, cfg, halves(16, 8))
	assert.Equal(t, 1, res.RegionCount)
	assert.Equal(t, []int{128}, res.RegionSizes)
	for _, v := range res.Regions.Pix {
		assert.Zero(t, v)
	}
}

func TestSegmentRegionFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge.Threshold = 100
	cfg.Merge.MinRegions = 2

	res := segment(t, cfg, halves(16, 8))
	assert.Equal(t, 2, res.RegionCount)
}

func TestSegmentConservesPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 24, 18))
	for y := 0; y < 18; y++ {
		for x := 0; x < 24; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 14), B: uint8((x * y) % 251), A: 255})
		}
	}

	for _, m := range []watershed.Method{watershed.Rainfall, watershed.Immersion} {
		for _, mode := range []regiongraph.MergeMode{regiongraph.Fast, regiongraph.Optimal} {
			t.Run(m.String()+"/"+mode.String(), func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.Watershed.Method = m
				cfg.Merge.Mode = mode
				cfg.Merge.MinRegions = 3

				res := segment(t, cfg, img)
				total := 0
				for _, n := range res.RegionSizes {
					assert.Greater(t, n, 0)
					total += n
				}
				assert.Equal(t, 24*18, total)
				assert.Equal(t, res.RegionCount, res.Regions.Distinct())
				assert.LessOrEqual(t, res.RegionCount, res.Initial.Distinct())
				assert.Len(t, res.RegionMeans, res.RegionCount)

				for i, v := range res.Initial.Pix {
					assert.Equal(t, res.Equivalence[v], res.Regions.Pix[i])
				}

				again := segment(t, cfg, img)
				assert.Equal(t, res.Regions.Pix, again.Regions.Pix, "deterministic")
				assert.Equal(t, res.Equivalence, again.Equivalence)
			})
		}
	}
}

func TestSegmentExplicitThresholdAndContrast(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watershed.Threshold = 100
	cfg.EnhanceContrast = true
	cfg.DenoiseKernel = 0

	res := segment(t, cfg, halves(8, 4))
	assert.Equal(t, uint8(100), res.Threshold)
	assert.Equal(t, image.Rect(0, 0, 8, 4), res.Preprocessed.Rect)
}

func TestSegmentDownscales(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 8

	res := segment(t, cfg, halves(32, 16))
	assert.Equal(t, 8, res.Regions.Width)
	assert.Equal(t, 4, res.Regions.Height)
}

func TestSegmentEmptyImage(t *testing.T) {
	res := segment(t, DefaultConfig(), image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Zero(t, res.RegionCount)
	assert.Zero(t, res.Regions.Len())
	assert.Empty(t, res.RegionSizes)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown color space", func(c *Config) { c.ColorSpace = "CMYK" }, imgproc.ErrUnknownColorSpace},
		{"negative kernel", func(c *Config) { c.DenoiseKernel = -1 }, ErrInvalidConfig},
		{"negative max size", func(c *Config) { c.MaxSize = -1 }, ErrInvalidConfig},
		{"negative probability", func(c *Config) { c.ThresholdProbability = -0.1 }, ErrInvalidConfig},
		{"probability above one", func(c *Config) { c.ThresholdProbability = 1.5 }, ErrInvalidConfig},
		{"region floor", func(c *Config) { c.Merge.MinRegions = 0 }, regiongraph.ErrInvalidConfig},
		{"gradient kernel", func(c *Config) { c.Gradient.Kernel = 42 }, imgproc.ErrUnknownKernel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	cfg := DefaultConfig()
	cfg.Watershed.Threshold = 10
	cfg.ThresholdProbability = 2
	assert.NoError(t, cfg.Validate(), "probability is only used with the automatic threshold")
}

func TestSegmentZeroProbability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThresholdProbability = 0
	require.NoError(t, cfg.Validate())

	res := segment(t, cfg, halves(16, 8))
	assert.Equal(t, uint8(0), res.Threshold)
	assert.Equal(t, uint8(0), EstimateThreshold(res.Elevation, 0))
}
