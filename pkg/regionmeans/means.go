// Package regionmeans provides region graph data for merging by mean value:
// a running-mean node, boundary-length edges, and plain or Haris-weighted
// distances between region means.
package regionmeans

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNoChannels is returned when an accumulator has nothing to read.
	ErrNoChannels = errors.New("regionmeans: no channels")

	// ErrUnknownDistance is returned when parsing an unsupported distance name.
	ErrUnknownDistance = errors.New("regionmeans: unknown distance")
)

// Node is the running mean of the feature vectors of a region's pixels.
type Node struct {
	Sum   []float64
	Count int

	mean  []float64
	dirty bool
}

// NewNode returns an empty node of the given dimension.
func NewNode(dim int) Node {
	return Node{Sum: make([]float64, dim)}
}

// Consider adds one pixel's feature vector.
func (n *Node) Consider(v []float64) {
	if n.Sum == nil {
		n.Sum = make([]float64, len(v))
	}
	floats.Add(n.Sum, v)
	n.Count++
	n.dirty = true
}

// Merge folds o into n.
func (n *Node) Merge(o *Node) {
	if o.Count == 0 {
		return
	}
	if n.Sum == nil {
		n.Sum = make([]float64, len(o.Sum))
	}
	floats.Add(n.Sum, o.Sum)
	n.Count += o.Count
	n.dirty = true
}

// Size returns the number of pixels considered.
func (n *Node) Size() int { return n.Count }

// Mean returns the mean vector. The slice is owned by the node and valid
// until the next Consider or Merge.
func (n *Node) Mean() []float64 {
	if n.mean == nil || n.dirty || len(n.mean) != len(n.Sum) {
		if len(n.mean) != len(n.Sum) {
			n.mean = make([]float64, len(n.Sum))
		}
		copy(n.mean, n.Sum)
		if n.Count > 0 {
			floats.Scale(1/float64(n.Count), n.mean)
		}
		n.dirty = false
	}
	return n.mean
}

// Distance selects the edge weight between two regions.
type Distance int

const (
	// Plain is the Euclidean distance between the region means.
	Plain Distance = iota
	// Haris scales the plain distance by sqrt(na·nb/(na+nb)), so small
	// regions merge before large ones with the same mean difference.
	Haris
)

// String returns the flag spelling of the distance.
func (d Distance) String() string {
	switch d {
	case Plain:
		return "plain"
	case Haris:
		return "haris"
	default:
		return fmt.Sprintf("Distance(%d)", int(d))
	}
}

// Set implements pflag.Value.
func (d *Distance) Set(s string) error {
	v, err := ParseDistance(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Type implements pflag.Value.
func (d *Distance) Type() string { return "distance" }

// ValidDistances returns the accepted distance names.
func ValidDistances() []string {
	return []string{Plain.String(), Haris.String()}
}

// ParseDistance converts "plain" or "haris" into a Distance.
func ParseDistance(s string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "mean":
		return Plain, nil
	case "haris", "weighted":
		return Haris, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownDistance, s, strings.Join(ValidDistances(), ", "))
	}
}

// PlainDistance returns the Euclidean distance between the means of a and b.
func PlainDistance(a, b *Node) float64 {
	return floats.Distance(a.Mean(), b.Mean(), 2)
}

// HarisDistance returns PlainDistance scaled by sqrt(na·nb/(na+nb)).
func HarisDistance(a, b *Node) float64 {
	na, nb := float64(a.Count), float64(b.Count)
	if na+nb == 0 {
		return 0
	}
	return math.Sqrt(na*nb/(na+nb)) * PlainDistance(a, b)
}

// Policy implements regiongraph.Policy for Node data and boundary-length
// edges.
type Policy struct {
	Distance Distance
}

// Weight returns the configured distance between a and b.
func (p Policy) Weight(a, b *Node, _ *int) float64 {
	if p.Distance == Haris {
		return HarisDistance(a, b)
	}
	return PlainDistance(a, b)
}

// MergeNodes folds src into dst.
func (Policy) MergeNodes(dst, src *Node) { dst.Merge(src) }

// MergeEdges adds the boundary lengths.
func (Policy) MergeEdges(dst, src *int) { *dst += *src }
