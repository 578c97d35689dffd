package seamscope

import "slices"

// partition is a bucket grid over the x/z plane used to propose nearby wall
// pairs without comparing every surface against every other.
type partition struct {
	surfaces []Surface
	buckets  map[bucketKey][]int
}

type bucketKey struct {
	x, z int16
}

func newPartition() *partition {
	return &partition{buckets: make(map[bucketKey][]int)}
}

// floorDiv is division rounding toward negative infinity, so buckets tile
// the negative half of the world the same as the positive half.
func floorDiv(a, b int16) int16 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (p *partition) coordRange(s Surface, axis int) (int16, int16) {
	min, max := s.Vertex1[axis], s.Vertex1[axis]
	for _, v := range [][3]int16{s.Vertex2, s.Vertex3} {
		if v[axis] < min {
			min = v[axis]
		}
		if v[axis] > max {
			max = v[axis]
		}
	}
	return floorDiv(min, BucketSize), floorDiv(max, BucketSize) + 1
}

func (p *partition) surfaceBuckets(s Surface, fn func(bucketKey)) {
	x0, x1 := p.coordRange(s, 0)
	z0, z1 := p.coordRange(s, 2)
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			fn(bucketKey{x, z})
		}
	}
}

func (p *partition) insert(s Surface) {
	index := len(p.surfaces)
	p.surfaces = append(p.surfaces, s)
	p.surfaceBuckets(s, func(k bucketKey) {
		p.buckets[k] = append(p.buckets[k], index)
	})
}

// pairs calls fn for every unordered pair of surfaces sharing at least one
// bucket, each pair exactly once, in deterministic index order.
func (p *partition) pairs(fn func(a, b *Surface)) {
	var near []int
	for i := range p.surfaces {
		near = near[:0]
		p.surfaceBuckets(p.surfaces[i], func(k bucketKey) {
			for _, j := range p.buckets[k] {
				if j > i {
					near = append(near, j)
				}
			}
		})
		slices.Sort(near)
		near = slices.Compact(near)
		for _, j := range near {
			fn(&p.surfaces[i], &p.surfaces[j])
		}
	}
}
