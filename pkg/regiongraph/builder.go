package regiongraph

import (
	"fmt"

	"github.com/jmylchreest/basin/pkg/raster"
)

// Accumulator fills node and edge data while a label raster is scanned.
// Pixel positions are linear indices into the raster.
type Accumulator[N, E any] interface {
	// Check validates the accumulator's own inputs against the raster size
	// and the largest label before any data is touched.
	Check(width, height, maxLabel int) error

	// ConsiderNode adds pixel p, labeled label, to the region's data.
	ConsiderNode(p, label int, node *N)

	// ConsiderEdge adds the boundary between pixel p and its right or lower
	// neighbor q to the edge data of their two regions.
	ConsiderEdge(p, q int, edge *E)
}

// Preparer is implemented by accumulators that need a pass over the whole
// graph after scanning and before the weights are computed. Only the
// canonical direction of each edge is linked at that point.
type Preparer[N, E any] interface {
	Prepare(g *Graph[N, E]) error
}

// Builder turns label rasters into graphs.
type Builder[N, E any] struct {
	acc    Accumulator[N, E]
	policy Policy[N, E]
}

// NewBuilder returns a Builder using acc to collect data and policy to weigh
// and merge it.
func NewBuilder[N, E any](acc Accumulator[N, E], policy Policy[N, E]) *Builder[N, E] {
	return &Builder[N, E]{acc: acc, policy: policy}
}

// Build scans labels and returns the adjacency graph. Edges between two
// labels that are both below minLabel are not created.
func (b *Builder[N, E]) Build(labels *raster.Labels, minLabel int) (*Graph[N, E], error) {
	return b.BuildFrom(labels, minLabel, nil)
}

// BuildFrom is Build with initial node data: data[i] seeds node i before the
// scan. Extra entries beyond the largest label are ignored.
func (b *Builder[N, E]) BuildFrom(labels *raster.Labels, minLabel int, data []N) (*Graph[N, E], error) {
	if b.acc == nil || b.policy == nil {
		return nil, ErrNilPolicy
	}
	maxLabel := labels.Max()
	for _, v := range labels.Pix {
		if v < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNegativeLabel, v)
		}
	}
	if err := b.acc.Check(labels.Width, labels.Height, maxLabel); err != nil {
		return nil, fmt.Errorf("failed to check region data: %w", err)
	}

	g := New[N, E](maxLabel+1, b.policy)
	copy(g.nodes, data)

	w, h := labels.Width, labels.Height
	pix := labels.Pix
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			p := row + x
			a := pix[p]
			g.present[a] = true
			b.acc.ConsiderNode(p, a, &g.nodes[a])

			if x+1 < w {
				b.considerEdge(g, p, p+1, a, pix[p+1], minLabel)
			}
			if y+1 < h {
				b.considerEdge(g, p, p+w, a, pix[p+w], minLabel)
			}
		}
	}

	if prep, ok := b.acc.(Preparer[N, E]); ok {
		if err := prep.Prepare(g); err != nil {
			return nil, fmt.Errorf("failed to prepare region data: %w", err)
		}
	}
	g.mirror()
	g.RecomputeWeights()
	return g, nil
}

func (b *Builder[N, E]) considerEdge(g *Graph[N, E], p, q, la, lb, minLabel int) {
	if la == lb || max(la, lb) < minLabel {
		return
	}
	b.acc.ConsiderEdge(p, q, &g.touch(la, lb).Data)
}
