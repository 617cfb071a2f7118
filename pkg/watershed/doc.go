// Package watershed segments an 8-bit elevation channel into catchment
// basins.
//
// Two methods are provided behind one Segmenter:
//
//   - Rainfall: every pixel follows its steepest-descent path to a local
//     minimum and takes that minimum's label. Plateaus drain towards their
//     nearest exit; flat regions with no exit become minima. The result
//     has no watershed-line pixels.
//   - Immersion: the Vincent-Soille flooding algorithm. Pixels are processed
//     level by level; basins grow by breadth-first distance inside each level
//     and pixels reached by two basins at the same distance become watershed
//     lines (label 0).
//
// Both methods share a Neighborhood that flags the image border once, so
// the hot loops never wrap across rows or leave the raster.
//
// A Segmenter reuses its scratch buffers between calls and is therefore not
// safe for concurrent use. Create one per goroutine.
package watershed
