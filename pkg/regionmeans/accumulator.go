package regionmeans

import (
	"fmt"

	"github.com/jmylchreest/basin/pkg/raster"
	"github.com/jmylchreest/basin/pkg/regiongraph"
)

// ChannelAccumulator feeds one value per channel into each region's mean and
// counts boundary contacts as edge data. One channel gives a gray mean, three
// give a color mean.
type ChannelAccumulator struct {
	channels []*raster.Channel
	buf      []float64
}

// NewChannelAccumulator reads the given channels, which must all match the
// label raster in size.
func NewChannelAccumulator(channels ...*raster.Channel) *ChannelAccumulator {
	return &ChannelAccumulator{
		channels: channels,
		buf:      make([]float64, len(channels)),
	}
}

// Check implements regiongraph.Accumulator.
func (a *ChannelAccumulator) Check(width, height, _ int) error {
	if len(a.channels) == 0 {
		return ErrNoChannels
	}
	for i, c := range a.channels {
		if err := raster.CheckSize(fmt.Sprintf("channel %d", i), c.Width, c.Height, width, height); err != nil {
			return err
		}
	}
	return nil
}

// ConsiderNode implements regiongraph.Accumulator.
func (a *ChannelAccumulator) ConsiderNode(p, _ int, node *Node) {
	for i, c := range a.channels {
		a.buf[i] = float64(c.Pix[p])
	}
	node.Consider(a.buf)
}

// ConsiderEdge implements regiongraph.Accumulator.
func (a *ChannelAccumulator) ConsiderEdge(_, _ int, edge *int) { *edge++ }

// Build returns the mean-value region graph of labels over the channels.
func Build(labels *raster.Labels, minLabel int, d Distance, channels ...*raster.Channel) (*regiongraph.Graph[Node, int], error) {
	b := regiongraph.NewBuilder[Node, int](NewChannelAccumulator(channels...), Policy{Distance: d})
	return b.Build(labels, minLabel)
}

// Means returns the mean vector of every present node, indexed by node id.
// Merged-away and empty nodes get nil.
func Means(g *regiongraph.Graph[Node, int]) [][]float64 {
	out := make([][]float64, g.Size())
	for i := range out {
		if !g.Present(i) || g.Node(i).Count == 0 {
			continue
		}
		m := g.Node(i).Mean()
		out[i] = append([]float64(nil), m...)
	}
	return out
}
