package regiongraph

import (
	"fmt"

	"github.com/jmylchreest/basin/pkg/raster"
)

// Equivalence maps each label to the label it was merged into. A resolved
// equivalence never points at an entry that itself points elsewhere.
type Equivalence []int

// Identity returns the equivalence that maps every label to itself.
func Identity(n int) Equivalence {
	eq := make(Equivalence, n)
	for i := range eq {
		eq[i] = i
	}
	return eq
}

// Resolve follows every chain of decreasing labels to its end, so each
// entry names its final label directly.
func (eq Equivalence) Resolve() {
	for i := range eq {
		j := i
		for eq[j] < j {
			j = eq[j]
		}
		eq[i] = j
	}
}

// Compact renumbers the labels in use as 0..K-1, keeping their order, and
// returns the renumbered equivalence and K. Entries outside 0..len(eq)-1,
// such as the -1 slots left by CompactFor, stay -1.
func (eq Equivalence) Compact() (Equivalence, int) {
	used := make([]bool, len(eq))
	for _, v := range eq {
		if v >= 0 && v < len(eq) {
			used[v] = true
		}
	}
	dense := make([]int, len(eq))
	k := 0
	for i, u := range used {
		if u {
			dense[i] = k
			k++
		}
	}
	out := make(Equivalence, len(eq))
	for i, v := range eq {
		if v < 0 || v >= len(eq) {
			out[i] = -1
			continue
		}
		out[i] = dense[v]
	}
	return out, k
}

// CompactFor is Compact restricted to the labels that occur in labels, so
// slots no pixel carries do not take a number. Entries for such slots are -1.
func (eq Equivalence) CompactFor(labels *raster.Labels) (Equivalence, int) {
	seen := make([]bool, len(eq))
	used := make([]bool, len(eq))
	for _, v := range labels.Pix {
		if v >= 0 && v < len(eq) && !seen[v] {
			seen[v] = true
			if t := eq[v]; t >= 0 && t < len(eq) {
				used[t] = true
			}
		}
	}
	dense := make([]int, len(eq))
	k := 0
	for i, u := range used {
		dense[i] = -1
		if u {
			dense[i] = k
			k++
		}
	}
	out := make(Equivalence, len(eq))
	for i, v := range eq {
		out[i] = -1
		if seen[i] && v >= 0 && v < len(eq) {
			out[i] = dense[v]
		}
	}
	return out, k
}

// Apply relabels labels in place. Labels outside the table leave the raster
// untouched and return ErrLabelOutOfRange.
func (eq Equivalence) Apply(labels *raster.Labels) error {
	for _, v := range labels.Pix {
		if v < 0 || v >= len(eq) {
			return fmt.Errorf("%w: %d (table has %d entries)", ErrLabelOutOfRange, v, len(eq))
		}
	}
	for i, v := range labels.Pix {
		labels.Pix[i] = eq[v]
	}
	return nil
}

// Reassign returns a copy of labels relabeled through eq. With compact set
// the result uses dense labels 0..K-1 where K is the number of distinct
// results.
func Reassign(labels *raster.Labels, eq Equivalence, compact bool) (*raster.Labels, error) {
	if compact {
		eq, _ = eq.CompactFor(labels)
	}
	out := labels.Clone()
	if err := eq.Apply(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReassignWithSizes is Reassign that also counts the pixels of every
// resulting label.
func ReassignWithSizes(labels *raster.Labels, eq Equivalence, compact bool) (*raster.Labels, []int, error) {
	out, err := Reassign(labels, eq, compact)
	if err != nil {
		return nil, nil, err
	}
	return out, RegionSizes(out), nil
}

// RegionSizes counts the pixels of each label. The result has one entry per
// label from 0 to the largest label.
func RegionSizes(labels *raster.Labels) []int {
	sizes := make([]int, labels.Max()+1)
	for _, v := range labels.Pix {
		if v >= 0 {
			sizes[v]++
		}
	}
	return sizes
}
