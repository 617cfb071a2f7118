// Package regiongraph builds a region adjacency graph from a label raster and
// merges its nodes agglomeratively.
//
// A Graph has one node slot per label value (0 up to the largest label) and
// an undirected edge between every pair of labels whose pixels touch
// horizontally or vertically. What a node or an edge carries is decided by
// the caller through two type parameters:
//
//   - an Accumulator fills node and edge data while the label raster is
//     scanned, and may check its own inputs first;
//   - a Policy computes edge weights and folds node or edge data together
//     when two regions merge.
//
// The Merger repeatedly contracts the lowest-weight edge until no edge is at
// or below the threshold or a minimum number of regions is left. The lower
// node id always survives a contraction, so the resulting Equivalence maps
// every label to the smallest label of its merged group.
package regiongraph
