// Package raster provides the flat, row-major buffers shared by the
// watershed, region graph and segmentation packages.
//
// Pixel (x, y) of a W×H raster lives at index y*W + x. All buffers own their
// storage; callers may read and write Pix directly.
package raster

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when two collaborating buffers disagree on size.
var ErrDimensionMismatch = errors.New("raster: dimension mismatch")

// Channel8 is an 8-bit single channel image, used as watershed elevation.
type Channel8 struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewChannel8 allocates a zeroed w×h channel.
func NewChannel8(w, h int) *Channel8 {
	return &Channel8{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At returns the value at (x, y).
func (c *Channel8) At(x, y int) uint8 { return c.Pix[y*c.Width+x] }

// Set stores v at (x, y).
func (c *Channel8) Set(x, y int, v uint8) { c.Pix[y*c.Width+x] = v }

// Len returns the number of pixels.
func (c *Channel8) Len() int { return c.Width * c.Height }

// Fill sets every pixel to v.
func (c *Channel8) Fill(v uint8) {
	for i := range c.Pix {
		c.Pix[i] = v
	}
}

// Channel is a float32 single channel image, used for color components and
// gradient magnitudes.
type Channel struct {
	Width  int
	Height int
	Pix    []float32
}

// NewChannel allocates a zeroed w×h channel.
func NewChannel(w, h int) *Channel {
	return &Channel{Width: w, Height: h, Pix: make([]float32, w*h)}
}

// At returns the value at (x, y).
func (c *Channel) At(x, y int) float32 { return c.Pix[y*c.Width+x] }

// Set stores v at (x, y).
func (c *Channel) Set(x, y int, v float32) { c.Pix[y*c.Width+x] = v }

// Len returns the number of pixels.
func (c *Channel) Len() int { return c.Width * c.Height }

// Max returns the largest value, or 0 for an empty channel.
func (c *Channel) Max() float32 {
	if len(c.Pix) == 0 {
		return 0
	}
	m := c.Pix[0]
	for _, v := range c.Pix[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Labels is an integer label raster. Label 0 is reserved for watershed
// lines when produced by the immersion watershed; every other value names a
// region.
type Labels struct {
	Width  int
	Height int
	Pix    []int
}

// NewLabels allocates a zeroed w×h label raster.
func NewLabels(w, h int) *Labels {
	return &Labels{Width: w, Height: h, Pix: make([]int, w*h)}
}

// At returns the label at (x, y).
func (l *Labels) At(x, y int) int { return l.Pix[y*l.Width+x] }

// Set stores label v at (x, y).
func (l *Labels) Set(x, y int, v int) { l.Pix[y*l.Width+x] = v }

// Len returns the number of pixels.
func (l *Labels) Len() int { return l.Width * l.Height }

// Max returns the largest label, or -1 for an empty raster.
func (l *Labels) Max() int {
	m := -1
	for _, v := range l.Pix {
		if v > m {
			m = v
		}
	}
	return m
}

// Clone returns a deep copy.
func (l *Labels) Clone() *Labels {
	out := &Labels{Width: l.Width, Height: l.Height, Pix: make([]int, len(l.Pix))}
	copy(out.Pix, l.Pix)
	return out
}

// Distinct returns the number of different labels present.
func (l *Labels) Distinct() int {
	seen := make(map[int]struct{})
	for _, v := range l.Pix {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// CheckSize returns ErrDimensionMismatch, annotated with both sizes, unless
// w×h equals want.
func CheckSize(what string, w, h, wantW, wantH int) error {
	if w != wantW || h != wantH {
		return fmt.Errorf("%w: %s is %dx%d, expected %dx%d", ErrDimensionMismatch, what, w, h, wantW, wantH)
	}
	return nil
}
