package watershed

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/basin/pkg/raster"
)

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(l hclog.Logger) Option {
	return func(s *Segmenter) {
		if l != nil {
			s.logger = l
		}
	}
}

// Segmenter runs the configured watershed. Scratch buffers are kept between
// calls and reallocated only when the image size grows.
type Segmenter struct {
	cfg    Config
	logger hclog.Logger

	nb         *Neighborhood
	elev       []uint8
	dist       []int
	down       []int
	order      []int
	seeds      []int
	levelStart [257]int
	queue      fifo
}

// New validates cfg and returns a Segmenter.
func New(cfg Config, opts ...Option) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Segmenter{cfg: cfg, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration the Segmenter was built with.
func (s *Segmenter) Config() Config { return s.cfg }

// Labels segments src and returns a new label raster. Basins are numbered
// from 1; the immersion method marks watershed lines with 0.
func (s *Segmenter) Labels(src *raster.Channel8) (*raster.Labels, error) {
	dst := raster.NewLabels(src.Width, src.Height)
	if err := s.LabelsInto(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// LabelsInto segments src into dst, which must have the same size.
func (s *Segmenter) LabelsInto(src *raster.Channel8, dst *raster.Labels) error {
	if err := raster.CheckSize("label destination", dst.Width, dst.Height, src.Width, src.Height); err != nil {
		return fmt.Errorf("failed to segment: %w", err)
	}
	if src.Len() == 0 {
		return nil
	}
	s.prepare(src)

	var basins int
	switch s.cfg.Method {
	case Immersion:
		basins = s.immersion(s.elev, dst.Pix)
	default:
		basins = s.rainfall(s.elev, dst.Pix)
	}
	s.logger.Debug("watershed complete",
		"method", s.cfg.Method, "width", src.Width, "height", src.Height, "basins", basins)
	return nil
}

// Lines segments src and returns the two-valued watershed mask.
func (s *Segmenter) Lines(src *raster.Channel8) (*raster.Channel8, error) {
	dst := raster.NewChannel8(src.Width, src.Height)
	if err := s.LinesInto(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// LinesInto segments src and writes the watershed mask into dst. dst may be
// src itself.
func (s *Segmenter) LinesInto(src, dst *raster.Channel8) error {
	if err := raster.CheckSize("line destination", dst.Width, dst.Height, src.Width, src.Height); err != nil {
		return fmt.Errorf("failed to segment: %w", err)
	}
	labels, err := s.Labels(src)
	if err != nil {
		return err
	}
	drawLines(labels, dst, s.cfg.WatershedValue, s.cfg.BasinValue)
	return nil
}

// LinesFromLabels renders a label raster as a two-valued mask. A pixel is a
// watershed pixel when its label is 0 or a 4-neighbor carries another label.
func LinesFromLabels(labels *raster.Labels, watershedValue, basinValue uint8) *raster.Channel8 {
	dst := raster.NewChannel8(labels.Width, labels.Height)
	drawLines(labels, dst, watershedValue, basinValue)
	return dst
}

func drawLines(labels *raster.Labels, dst *raster.Channel8, watershedValue, basinValue uint8) {
	nb := NewNeighborhood(labels.Width, labels.Height, Conn4)
	for p, v := range labels.Pix {
		if v == labelWshed {
			dst.Pix[p] = watershedValue
			continue
		}
		dst.Pix[p] = basinValue
		for k := 0; k < nb.Len(); k++ {
			q, ok := nb.Neighbor(p, k)
			if ok && labels.Pix[q] != v {
				dst.Pix[p] = watershedValue
				break
			}
		}
	}
}

// prepare sizes the scratch buffers and applies the noise threshold.
func (s *Segmenter) prepare(src *raster.Channel8) {
	n := src.Len()
	if !s.nb.matches(src.Width, src.Height, s.cfg.Connectivity) {
		s.nb = NewNeighborhood(src.Width, src.Height, s.cfg.Connectivity)
	}
	if cap(s.elev) < n {
		s.elev = make([]uint8, n)
		s.dist = make([]int, n)
		s.down = make([]int, n)
		s.order = make([]int, n)
	}
	s.elev = s.elev[:n]
	s.dist = s.dist[:n]
	s.down = s.down[:n]
	s.order = s.order[:n]

	t := s.cfg.Threshold
	for i, v := range src.Pix {
		if v < t {
			v = t
		}
		s.elev[i] = v
	}
}
