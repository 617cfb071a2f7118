package regiongraph

import (
	"container/heap"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Policy computes edge weights and combines data when regions merge.
type Policy[N, E any] interface {
	// Weight returns the dissimilarity of two adjacent regions. Lower
	// weights are merged first.
	Weight(a, b *N, e *E) float64

	// MergeNodes folds src into dst.
	MergeNodes(dst, src *N)

	// MergeEdges folds src into dst. It is called when both merged regions
	// bordered the same third region.
	MergeEdges(dst, src *E)
}

// Edge is an undirected edge between nodes A < B. The same Edge value is
// reachable from both endpoints.
type Edge[E any] struct {
	A, B   int
	Data   E
	Weight float64

	index int // position in the priority queue, -1 when not queued
}

// Graph is a region adjacency graph with node data N and edge data E.
type Graph[N, E any] struct {
	policy  Policy[N, E]
	nodes   []N
	present []bool
	adj     []map[int]*Edge[E]
	queue   edgeQueue[E]
}

// New returns a graph with size node slots and no edges.
func New[N, E any](size int, policy Policy[N, E]) *Graph[N, E] {
	return &Graph[N, E]{
		policy:  policy,
		nodes:   make([]N, size),
		present: make([]bool, size),
		adj:     make([]map[int]*Edge[E], size),
	}
}

// Size returns the number of node slots, one past the largest label.
func (g *Graph[N, E]) Size() int { return len(g.nodes) }

// Node returns the data of node i.
func (g *Graph[N, E]) Node(i int) *N { return &g.nodes[i] }

// Present reports whether node i exists and has not been merged away.
func (g *Graph[N, E]) Present(i int) bool { return g.present[i] }

// MarkPresent flags node i as an existing region.
func (g *Graph[N, E]) MarkPresent(i int) { g.present[i] = true }

// NodeCount returns the number of present nodes.
func (g *Graph[N, E]) NodeCount() int {
	n := 0
	for _, p := range g.present {
		if p {
			n++
		}
	}
	return n
}

// Edge returns the edge between a and b, or nil.
func (g *Graph[N, E]) Edge(a, b int) *Edge[E] {
	if a < 0 || a >= len(g.adj) {
		return nil
	}
	return g.adj[a][b]
}

// Neighbors returns the nodes adjacent to a in ascending order.
func (g *Graph[N, E]) Neighbors(a int) []int {
	out := make([]int, 0, len(g.adj[a]))
	for b := range g.adj[a] {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// Edges returns every edge once, ordered by (A, B).
func (g *Graph[N, E]) Edges() []*Edge[E] {
	var out []*Edge[E]
	for hi := range g.adj {
		for lo, e := range g.adj[hi] {
			if lo < hi {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// EdgeCount returns the number of undirected edges.
func (g *Graph[N, E]) EdgeCount() int {
	n := 0
	for hi := range g.adj {
		for lo := range g.adj[hi] {
			if lo < hi {
				n++
			}
		}
	}
	return n
}

// touch returns the edge between a and b, creating it in the canonical
// direction (higher id row) if needed. The mirror entry is added by mirror.
func (g *Graph[N, E]) touch(a, b int) *Edge[E] {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if e, ok := g.adj[hi][lo]; ok {
		return e
	}
	e := &Edge[E]{A: lo, B: hi, index: -1}
	if g.adj[hi] == nil {
		g.adj[hi] = make(map[int]*Edge[E])
	}
	g.adj[hi][lo] = e
	return e
}

// mirror makes every canonical edge reachable from its lower endpoint too.
func (g *Graph[N, E]) mirror() {
	for hi := range g.adj {
		for lo, e := range g.adj[hi] {
			if lo > hi {
				continue
			}
			if g.adj[lo] == nil {
				g.adj[lo] = make(map[int]*Edge[E])
			}
			g.adj[lo][hi] = e
		}
	}
}

// link installs e between its endpoints in both directions.
func (g *Graph[N, E]) link(e *Edge[E]) {
	if g.adj[e.A] == nil {
		g.adj[e.A] = make(map[int]*Edge[E])
	}
	if g.adj[e.B] == nil {
		g.adj[e.B] = make(map[int]*Edge[E])
	}
	g.adj[e.A][e.B] = e
	g.adj[e.B][e.A] = e
}

// RecomputeWeights recomputes every edge weight and rebuilds the queue.
func (g *Graph[N, E]) RecomputeWeights() {
	edges := g.Edges()
	for _, e := range edges {
		e.Weight = g.policy.Weight(&g.nodes[e.A], &g.nodes[e.B], &e.Data)
	}
	g.queue = edgeQueue[E](edges)
	for i, e := range g.queue {
		e.index = i
	}
	heap.Init(&g.queue)
}

// LowestEdge returns the queued edge with the smallest weight without
// removing it.
func (g *Graph[N, E]) LowestEdge() (*Edge[E], bool) {
	if len(g.queue) == 0 {
		return nil, false
	}
	return g.queue[0], true
}

// RemoveEdge deletes the edge between a and b. It reports whether one existed.
func (g *Graph[N, E]) RemoveEdge(a, b int) bool {
	e := g.Edge(a, b)
	if e == nil {
		return false
	}
	g.detach(e)
	return true
}

func (g *Graph[N, E]) detach(e *Edge[E]) {
	delete(g.adj[e.A], e.B)
	delete(g.adj[e.B], e.A)
	g.queue.remove(e)
}

func (g *Graph[N, E]) reweigh(e *Edge[E]) {
	e.Weight = g.policy.Weight(&g.nodes[e.A], &g.nodes[e.B], &e.Data)
	g.queue.update(e)
}

// Contract merges nodes a and b into the lower of the two and returns it.
//
// Edges from the removed node to a region the survivor already borders are
// folded into the survivor's edge. Edges to regions only the removed node
// bordered move to the survivor and always get a fresh weight. With
// recomputeAll set, every edge of the survivor is reweighed as well;
// otherwise folded edges keep their previous weight.
func (g *Graph[N, E]) Contract(a, b int, recomputeAll bool) int {
	if a > b {
		a, b = b, a
	}
	if e := g.Edge(a, b); e != nil {
		g.detach(e)
	}
	g.policy.MergeNodes(&g.nodes[a], &g.nodes[b])

	var moved []*Edge[E]
	for _, c := range g.Neighbors(b) {
		ebc := g.adj[b][c]
		delete(g.adj[c], b)
		if eac, ok := g.adj[a][c]; ok {
			g.policy.MergeEdges(&eac.Data, &ebc.Data)
			g.queue.remove(ebc)
			continue
		}
		ebc.A, ebc.B = a, c
		if c < a {
			ebc.A, ebc.B = c, a
		}
		g.link(ebc)
		moved = append(moved, ebc)
	}
	g.adj[b] = nil
	g.present[b] = false

	if recomputeAll {
		for _, c := range g.Neighbors(a) {
			g.reweigh(g.adj[a][c])
		}
	} else {
		for _, e := range moved {
			g.reweigh(e)
		}
	}
	return a
}

// AffinityMatrix returns the symmetric Size×Size matrix of edge weights.
// Pairs without an edge hold noEdge.
func (g *Graph[N, E]) AffinityMatrix(noEdge float64) *mat.Dense {
	n := g.Size()
	if n == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, n*n)
	if noEdge != 0 {
		for i := range data {
			data[i] = noEdge
		}
	}
	m := mat.NewDense(n, n, data)
	for _, e := range g.Edges() {
		w := e.Weight
		if math.IsNaN(w) {
			w = noEdge
		}
		m.Set(e.A, e.B, w)
		m.Set(e.B, e.A, w)
	}
	return m
}
