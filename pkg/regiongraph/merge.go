package regiongraph

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// MergeMode selects how edge weights are maintained during merging.
type MergeMode int

const (
	// Fast reweighs only edges that a contraction moves to the survivor.
	// Edges folded into an existing survivor edge keep their old weight.
	Fast MergeMode = iota
	// Optimal reweighs every edge of the survivor after each contraction.
	Optimal
)

// String returns the flag spelling of the mode.
func (m MergeMode) String() string {
	switch m {
	case Fast:
		return "fast"
	case Optimal:
		return "optimal"
	default:
		return fmt.Sprintf("MergeMode(%d)", int(m))
	}
}

// Set implements pflag.Value.
func (m *MergeMode) Set(s string) error {
	v, err := ParseMergeMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *MergeMode) Type() string { return "mode" }

// ValidMergeModes returns the accepted mode names.
func ValidMergeModes() []string {
	return []string{Fast.String(), Optimal.String()}
}

// ParseMergeMode converts "fast" or "optimal" into a MergeMode.
func ParseMergeMode(s string) (MergeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return Fast, nil
	case "optimal":
		return Optimal, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownMergeMode, s, strings.Join(ValidMergeModes(), ", "))
	}
}

// MergeConfig controls a merge run.
type MergeConfig struct {
	Mode MergeMode

	// Threshold is the largest edge weight that may still be contracted.
	Threshold float64

	// MinRegions stops merging once this many regions are left.
	MinRegions int

	// MinLabel protects labels below it: an edge whose endpoints both map
	// below MinLabel is dropped instead of contracted.
	MinLabel int
}

// DefaultMergeConfig returns fast merging with a zero threshold and no floor
// beyond a single region.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		Mode:       Fast,
		Threshold:  0,
		MinRegions: 1,
		MinLabel:   0,
	}
}

// Validate reports whether the configuration can be used.
func (c MergeConfig) Validate() error {
	if c.Mode != Fast && c.Mode != Optimal {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Mode)
	}
	if c.MinRegions < 1 {
		return fmt.Errorf("%w: minimum number of regions must be at least 1, got %d", ErrInvalidConfig, c.MinRegions)
	}
	if c.MinLabel < 0 {
		return fmt.Errorf("%w: minimum label must not be negative, got %d", ErrInvalidConfig, c.MinLabel)
	}
	return nil
}

// Merger contracts graph edges in ascending weight order.
type Merger[N, E any] struct {
	cfg    MergeConfig
	logger hclog.Logger
}

// NewMerger validates cfg. A nil logger discards output.
func NewMerger[N, E any](cfg MergeConfig, logger hclog.Logger) (*Merger[N, E], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Merger[N, E]{cfg: cfg, logger: logger}, nil
}

// Merge contracts g in place and returns the resolved equivalence of every
// node slot. Merging stops when the lowest edge weight exceeds the
// threshold, no edge is left, or the region floor is reached.
func (m *Merger[N, E]) Merge(g *Graph[N, E]) (Equivalence, error) {
	eq := Identity(g.Size())
	regions := g.NodeCount()
	recomputeAll := m.cfg.Mode == Optimal

	var merged, dropped int
	for regions > m.cfg.MinRegions {
		e, ok := g.LowestEdge()
		if !ok || !(e.Weight <= m.cfg.Threshold) {
			break
		}
		a, b := e.A, e.B
		if max(eq[a], eq[b]) < m.cfg.MinLabel {
			m.logger.Trace("dropping protected edge", "a", a, "b", b, "weight", e.Weight)
			g.RemoveEdge(a, b)
			dropped++
			continue
		}
		m.logger.Trace("merging regions", "survivor", a, "removed", b, "weight", e.Weight)
		s := g.Contract(a, b, recomputeAll)
		eq[b] = eq[s]
		regions--
		merged++
	}
	eq.Resolve()

	m.logger.Debug("merge complete",
		"mode", m.cfg.Mode, "merged", merged, "dropped_edges", dropped, "regions", regions)
	return eq, nil
}
