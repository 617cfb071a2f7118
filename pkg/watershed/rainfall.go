package watershed

// Downhill pointer markers. Non-negative values are pixel indices.
const (
	downNone    = -1 // local minimum
	downPlateau = -2 // same-level neighbor but no lower one, not yet resolved
	inProgress  = -2 // label marker while following a drop path
)

// rainfall labels every pixel with the minimum its steepest-descent path
// reaches. Labels start at 1; a path that cannot be resolved is labeled 0.
func (s *Segmenter) rainfall(elev []uint8, out []int) int {
	s.findDownhill(elev)
	s.resolvePlateaus(elev)
	n := s.markMinima(elev, out)
	s.letItRain(out)
	return n
}

// findDownhill points every pixel at its lowest strictly lower neighbor.
// Ties go to the first neighbor in scan order.
func (s *Segmenter) findDownhill(elev []uint8) {
	nb := s.nb
	down := s.down
	for p := range elev {
		best, bestQ := -1, downNone
		for k := 0; k < nb.Len(); k++ {
			q, ok := nb.Neighbor(p, k)
			if !ok {
				continue
			}
			if d := int(elev[p]) - int(elev[q]); d > best {
				best, bestQ = d, q
			}
		}
		switch {
		case best > 0:
			down[p] = bestQ
		case best == 0:
			down[p] = downPlateau
		default:
			down[p] = downNone
		}
	}
}

// resolvePlateaus drains plateau pixels towards the nearest pixel of the same
// level that has a lower neighbor. Plateaus with no such exit are minima.
func (s *Segmenter) resolvePlateaus(elev []uint8) {
	nb := s.nb
	down := s.down
	q := &s.queue
	q.reset()

	// Seeds first, then assign, so a seed never drains into another seed.
	seeds := s.seeds[:0]
	for p := range elev {
		if down[p] != downPlateau {
			continue
		}
		for k := 0; k < nb.Len(); k++ {
			n, ok := nb.Neighbor(p, k)
			if ok && elev[n] == elev[p] && down[n] >= 0 {
				seeds = append(seeds, p, n)
				break
			}
		}
	}
	for i := 0; i < len(seeds); i += 2 {
		down[seeds[i]] = seeds[i+1]
		q.push(seeds[i])
	}
	s.seeds = seeds

	for !q.empty() {
		p := q.pop()
		for k := 0; k < nb.Len(); k++ {
			n, ok := nb.Neighbor(p, k)
			if ok && down[n] == downPlateau && elev[n] == elev[p] {
				down[n] = p
				q.push(n)
			}
		}
	}

	for p := range down {
		if down[p] == downPlateau {
			down[p] = downNone
		}
	}
}

// markMinima gives every connected same-level group of minimum pixels a
// fresh label, counting from 1. Other pixels are left unlabeled (-1).
func (s *Segmenter) markMinima(elev []uint8, out []int) int {
	nb := s.nb
	down := s.down
	q := &s.queue
	q.reset()

	for i := range out {
		out[i] = -1
	}
	label := 0
	for p := range out {
		if down[p] != downNone || out[p] != -1 {
			continue
		}
		label++
		out[p] = label
		q.push(p)
		for !q.empty() {
			r := q.pop()
			for k := 0; k < nb.Len(); k++ {
				n, ok := nb.Neighbor(r, k)
				if ok && out[n] == -1 && down[n] == downNone && elev[n] == elev[r] {
					out[n] = label
					q.push(n)
				}
			}
		}
	}
	return label
}

// letItRain follows each unlabeled pixel's drop path to a labeled pixel and
// labels the whole path on the way back.
func (s *Segmenter) letItRain(out []int) {
	down := s.down
	path := s.seeds[:0]
	for p := range out {
		if out[p] != -1 {
			continue
		}
		path = path[:0]
		label := labelWshed
		r := p
		for {
			if out[r] >= 0 {
				label = out[r]
				break
			}
			if out[r] == inProgress {
				break
			}
			out[r] = inProgress
			path = append(path, r)
			if down[r] < 0 {
				break
			}
			r = down[r]
		}
		for _, v := range path {
			out[v] = label
		}
	}
	s.seeds = path
}
