package watershed

// Offsets in scan order: right, up, left, down, then the diagonals.
var (
	offsetDX = [8]int{1, 0, -1, 0, 1, -1, -1, 1}
	offsetDY = [8]int{0, -1, 0, 1, -1, -1, 1, 1}
)

// Neighborhood is the precomputed neighbor and border index for one image
// size and connectivity.
//
// Neighbors of interior pixels are found by adding a linear offset and need
// no checks. Pixels on the first or last row or column are flagged as border
// pixels; only for them is a candidate neighbor tested against the image
// bounds, which rejects both out-of-range indices and offsets that would
// wrap to the opposite edge of the previous or next row.
type Neighborhood struct {
	width   int
	height  int
	offsets []int
	dx      []int
	dy      []int
	border  []bool
}

// NewNeighborhood builds the index for a width×height raster.
func NewNeighborhood(width, height int, conn Connectivity) *Neighborhood {
	n := 4
	if conn == Conn8 {
		n = 8
	}
	nb := &Neighborhood{
		width:   width,
		height:  height,
		offsets: make([]int, n),
		dx:      offsetDX[:n],
		dy:      offsetDY[:n],
		border:  make([]bool, width*height),
	}
	for k := 0; k < n; k++ {
		nb.offsets[k] = offsetDY[k]*width + offsetDX[k]
	}

	if width == 0 || height == 0 {
		return nb
	}
	for x := 0; x < width; x++ {
		nb.border[x] = true
		nb.border[(height-1)*width+x] = true
	}
	for y := 0; y < height; y++ {
		nb.border[y*width] = true
		nb.border[y*width+width-1] = true
	}
	return nb
}

// Len returns the number of neighbors per pixel (4 or 8).
func (n *Neighborhood) Len() int { return len(n.offsets) }

// Offsets returns the linear offsets in scan order. The slice must not be modified.
func (n *Neighborhood) Offsets() []int { return n.offsets }

// IsBorder reports whether pixel p lies on the first or last row or column.
func (n *Neighborhood) IsBorder(p int) bool { return n.border[p] }

// Neighbor returns the k-th neighbor of p and whether it lies inside the image.
func (n *Neighborhood) Neighbor(p, k int) (int, bool) {
	q := p + n.offsets[k]
	if !n.border[p] {
		return q, true
	}
	x := p%n.width + n.dx[k]
	y := p/n.width + n.dy[k]
	return q, x >= 0 && x < n.width && y >= 0 && y < n.height
}

// matches reports whether the index was built for the given geometry.
func (n *Neighborhood) matches(width, height int, conn Connectivity) bool {
	return n != nil && n.width == width && n.height == height && n.Len() == int(conn)
}
