package watershed

// Working labels of the immersion pass. Basins are numbered from 1.
const (
	labelInit  = -1
	labelMask  = -2
	labelWshed = 0
	fictitious = -1
)

// fifo is a reusable first-in first-out queue of pixel indices.
type fifo struct {
	buf  []int
	head int
}

func (f *fifo) push(p int) { f.buf = append(f.buf, p) }

func (f *fifo) pop() int {
	p := f.buf[f.head]
	f.head++
	if f.head == len(f.buf) {
		f.buf = f.buf[:0]
		f.head = 0
	}
	return p
}

func (f *fifo) empty() bool { return f.head == len(f.buf) }

func (f *fifo) reset() {
	f.buf = f.buf[:0]
	f.head = 0
}

// sortByLevel fills s.order with pixel indices grouped by elevation and
// s.levelStart with the start of every level; level v occupies
// order[levelStart[v]:levelStart[v+1]].
func (s *Segmenter) sortByLevel(elev []uint8) {
	var counts [256]int
	for _, v := range elev {
		counts[v]++
	}
	s.levelStart[0] = 0
	for v := 0; v < 256; v++ {
		s.levelStart[v+1] = s.levelStart[v] + counts[v]
	}
	next := s.levelStart
	for p, v := range elev {
		s.order[next[v]] = p
		next[v]++
	}
}

// immersion floods elev level by level and writes basin labels (1..) and
// watershed pixels (0) into out.
func (s *Segmenter) immersion(elev []uint8, out []int) int {
	nb := s.nb
	dist := s.dist
	q := &s.queue
	q.reset()

	for i := range out {
		out[i] = labelInit
		dist[i] = 0
	}
	s.sortByLevel(elev)

	current := 0
	for level := 0; level < 256; level++ {
		pts := s.order[s.levelStart[level]:s.levelStart[level+1]]
		if len(pts) == 0 {
			continue
		}

		// Mask the level; pixels touching an existing basin or line seed the
		// geodesic flood inside the level.
		for _, p := range pts {
			out[p] = labelMask
			for k := 0; k < nb.Len(); k++ {
				n, ok := nb.Neighbor(p, k)
				if ok && out[n] >= labelWshed {
					dist[p] = 1
					q.push(p)
					break
				}
			}
		}

		currentDist := 1
		q.push(fictitious)
		for {
			p := q.pop()
			if p == fictitious {
				if q.empty() {
					break
				}
				q.push(fictitious)
				currentDist++
				p = q.pop()
			}
			for k := 0; k < nb.Len(); k++ {
				n, ok := nb.Neighbor(p, k)
				if !ok {
					continue
				}
				switch {
				case dist[n] < currentDist && out[n] >= labelWshed:
					if out[n] > labelWshed {
						if out[p] == labelMask || out[p] == labelWshed {
							out[p] = out[n]
						} else if out[p] != out[n] {
							out[p] = labelWshed
						}
					} else if out[p] == labelMask {
						out[p] = labelWshed
					}
				case out[n] == labelMask && dist[n] == 0:
					dist[n] = currentDist + 1
					q.push(n)
				}
			}
		}

		// Whatever is still masked is a new minimum.
		for _, p := range pts {
			dist[p] = 0
			if out[p] != labelMask {
				continue
			}
			current++
			out[p] = current
			q.push(p)
			for !q.empty() {
				r := q.pop()
				for k := 0; k < nb.Len(); k++ {
					n, ok := nb.Neighbor(r, k)
					if ok && out[n] == labelMask {
						out[n] = current
						q.push(n)
					}
				}
			}
		}
	}
	return current
}
