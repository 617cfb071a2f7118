package regiongraph

import "container/heap"

// edgeQueue is a min-heap of edges ordered by weight, ties broken by the
// ascending (A, B) pair.
type edgeQueue[E any] []*Edge[E]

func (q edgeQueue[E]) Len() int { return len(q) }

func (q edgeQueue[E]) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	if a.A != b.A {
		return a.A < b.A
	}
	return a.B < b.B
}

func (q edgeQueue[E]) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *edgeQueue[E]) Push(x any) {
	e := x.(*Edge[E])
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *edgeQueue[E]) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// update restores heap order after e's weight or ids changed, queueing it
// if it was not queued.
func (q *edgeQueue[E]) update(e *Edge[E]) {
	if e.index < 0 {
		heap.Push(q, e)
		return
	}
	heap.Fix(q, e.index)
}

func (q *edgeQueue[E]) remove(e *Edge[E]) {
	if e.index < 0 {
		return
	}
	heap.Remove(q, e.index)
	e.index = -1
}
