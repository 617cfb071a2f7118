package segmentation

import (
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"
	"gonum.org/v1/gonum/floats"

	"github.com/jmylchreest/basin/pkg/imgproc"
	"github.com/jmylchreest/basin/pkg/raster"
	"github.com/jmylchreest/basin/pkg/regiongraph"
	"github.com/jmylchreest/basin/pkg/regionmeans"
	"github.com/jmylchreest/basin/pkg/watershed"
)

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithLogger sets the logger. Stage loggers are derived from it with Named.
func WithLogger(l hclog.Logger) Option {
	return func(s *Segmenter) {
		if l != nil {
			s.logger = l
		}
	}
}

// Segmenter runs the full pipeline. A Segmenter holds no per-image state
// beyond its configuration, but callers should still give each goroutine its
// own instance so future scratch reuse stays safe.
type Segmenter struct {
	cfg      Config
	logger   hclog.Logger
	splitter *imgproc.Splitter
}

// Result holds every intermediate product of one Segment call.
type Result struct {
	// Preprocessed is the input after resizing, denoising and contrast.
	Preprocessed *image.NRGBA
	// Gradient and Orientation are the color contrast gradient.
	Gradient    *raster.Channel
	Orientation *raster.Channel
	// Elevation is the gradient quantized to 0..255.
	Elevation *raster.Channel8
	// Threshold is the watershed noise threshold actually used.
	Threshold uint8
	// Initial holds the watershed basins before merging.
	Initial *raster.Labels
	// Regions holds the merged labels, compacted to 0..RegionCount-1.
	Regions     *raster.Labels
	RegionCount int
	RegionSizes []int
	// RegionMeans holds the mean color of each final region in the
	// splitter's color space.
	RegionMeans [][]float64
	// Equivalence maps initial labels onto final compact labels. Labels
	// absent from Initial map to -1.
	Equivalence regiongraph.Equivalence
}

// New validates cfg and returns a Segmenter.
func New(cfg Config, opts ...Option) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	splitter, err := imgproc.NewSplitter(cfg.ColorSpace)
	if err != nil {
		return nil, err
	}
	s := &Segmenter{cfg: cfg, logger: hclog.NewNullLogger(), splitter: splitter}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration the Segmenter was built with.
func (s *Segmenter) Config() Config { return s.cfg }

// Segment runs the pipeline over img. An empty image yields an empty result.
func (s *Segmenter) Segment(img image.Image) (*Result, error) {
	b := img.Bounds()
	if b.Empty() {
		return &Result{
			Preprocessed: image.NewNRGBA(image.Rect(0, 0, 0, 0)),
			Gradient:     raster.NewChannel(0, 0),
			Orientation:  raster.NewChannel(0, 0),
			Elevation:    raster.NewChannel8(0, 0),
			Initial:      raster.NewLabels(0, 0),
			Regions:      raster.NewLabels(0, 0),
			RegionSizes:  []int{},
			RegionMeans:  [][]float64{},
			Equivalence:  regiongraph.Equivalence{},
		}, nil
	}

	res := &Result{Preprocessed: s.preprocess(img)}

	c1, c2, c3 := s.splitter.Split(res.Preprocessed)
	s.logger.Named("split").Debug("split image", "space", s.splitter.Name(), "width", c1.Width, "height", c1.Height)

	mag, orient, maxMag, err := imgproc.ColorContrastGradient(s.cfg.Gradient, c1, c2, c3)
	if err != nil {
		return nil, fmt.Errorf("failed to compute gradient: %w", err)
	}
	res.Gradient, res.Orientation = mag, orient
	res.Elevation = imgproc.Quantize(mag, maxMag)
	s.logger.Named("gradient").Debug("computed gradient",
		"kernel", s.cfg.Gradient.Kernel, "contrast", s.cfg.Gradient.Contrast, "max", maxMag)

	wsCfg := s.cfg.Watershed
	if wsCfg.Threshold == AutoThreshold {
		wsCfg.Threshold = EstimateThreshold(res.Elevation, s.cfg.ThresholdProbability)
		s.logger.Named("threshold").Debug("estimated watershed threshold",
			"probability", s.cfg.ThresholdProbability, "threshold", wsCfg.Threshold)
	}
	res.Threshold = wsCfg.Threshold

	ws, err := watershed.New(wsCfg, watershed.WithLogger(s.logger.Named("watershed")))
	if err != nil {
		return nil, err
	}
	res.Initial, err = ws.Labels(res.Elevation)
	if err != nil {
		return nil, fmt.Errorf("failed to run watershed: %w", err)
	}

	g, err := regionmeans.Build(res.Initial, s.cfg.Merge.MinLabel, s.cfg.Distance, c1, c2, c3)
	if err != nil {
		return nil, fmt.Errorf("failed to build region graph: %w", err)
	}
	s.logger.Named("graph").Debug("built region graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	merger, err := regiongraph.NewMerger[regionmeans.Node, int](s.cfg.Merge, s.logger.Named("merge"))
	if err != nil {
		return nil, err
	}
	eq, err := merger.Merge(g)
	if err != nil {
		return nil, fmt.Errorf("failed to merge regions: %w", err)
	}

	compact, k := eq.CompactFor(res.Initial)
	res.Equivalence = compact
	res.RegionCount = k
	res.Regions = res.Initial.Clone()
	if err := compact.Apply(res.Regions); err != nil {
		return nil, fmt.Errorf("failed to relabel regions: %w", err)
	}
	res.RegionSizes = make([]int, k)
	for _, v := range res.Regions.Pix {
		res.RegionSizes[v]++
	}

	res.RegionMeans = make([][]float64, k)
	for i, m := range regionmeans.Means(g) {
		if m != nil && compact[i] >= 0 {
			res.RegionMeans[compact[i]] = m
		}
	}

	s.logger.Debug("segmentation complete", "initial_regions", g.Size(), "regions", k)
	return res, nil
}

func (s *Segmenter) preprocess(img image.Image) *image.NRGBA {
	log := s.logger.Named("preprocess")
	b := img.Bounds()

	fitted := imgproc.Fit(img, s.cfg.MaxSize)
	if fb := fitted.Bounds(); fb != b {
		log.Debug("downscaled input", "from", b.Size(), "to", fb.Size())
	}

	out := imgproc.Denoise(fitted, s.cfg.DenoiseFilter, s.cfg.DenoiseKernel)
	log.Debug("denoised", "filter", s.cfg.DenoiseFilter, "kernel", s.cfg.DenoiseKernel)

	if s.cfg.EnhanceContrast {
		out = imgproc.StretchContrast(out, s.cfg.ContrastPerChannel)
		log.Debug("stretched contrast", "per_channel", s.cfg.ContrastPerChannel)
	}
	return out
}

// EstimateThreshold returns the smallest elevation whose cumulative
// probability meets or exceeds p. An empty raster yields 0.
func EstimateThreshold(elev *raster.Channel8, p float64) uint8 {
	if len(elev.Pix) == 0 {
		return 0
	}
	hist := make([]float64, 256)
	for _, v := range elev.Pix {
		hist[v]++
	}
	floats.Scale(1/float64(len(elev.Pix)), hist)
	cdf := floats.CumSum(make([]float64, len(hist)), hist)

	// Summation error can leave the last bins a hair below p.
	const eps = 1e-12
	for i, c := range cdf {
		if c+eps >= p {
			return uint8(i)
		}
	}
	return 255
}
