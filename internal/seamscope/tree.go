package seamscope

import (
	"sync"
	"sync/atomic"
)

// Node states beyond a plain Classification. A node is either an unresolved
// leaf, a claimed leaf (a worker is sampling it), a resolved uniform leaf,
// or split with its children published.
const (
	stateSplit   int32 = -1
	stateClaimed int32 = -2
)

// node is one rectangle of probe space in a seam's result tree. state and
// kids are published atomically: a reader that observes stateSplit is
// guaranteed to see a fully initialized child block, so no reader ever
// observes a node mid-split.
type node struct {
	rect  gridRect
	state atomic.Int32 // Classification, stateSplit or stateClaimed
	kids  atomic.Int32 // arena index of first child, valid when split
}

// arenaChunk is a fixed block of nodes. Chunks are never reallocated, so a
// node pointer stays valid for the tree's lifetime and readers can index
// the arena without locks.
type arenaChunk [arenaChunkSize]node

type nodeArena struct {
	mu     sync.Mutex
	chunks atomic.Pointer[[]*arenaChunk]
	n      int32 // allocated nodes, guarded by mu
}

func (a *nodeArena) at(i int32) *node {
	chunks := *a.chunks.Load()
	return &chunks[i>>arenaChunkShift][i&arenaChunkMask]
}

// alloc appends one node per rectangle and returns the index of the first.
// Children of a split are allocated in one call so they are contiguous.
func (a *nodeArena) alloc(rects []gridRect) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	base := a.n
	for _, r := range rects {
		i := a.n
		ci := int(i >> arenaChunkShift)

		cur := a.chunks.Load()
		if cur == nil || ci >= len(*cur) {
			var grown []*arenaChunk
			if cur != nil {
				grown = append(grown, *cur...)
			}
			grown = append(grown, new(arenaChunk))
			a.chunks.Store(&grown)
			cur = &grown
		}

		nd := &(*cur)[ci][i&arenaChunkMask]
		nd.rect = r
		nd.state.Store(int32(ClassUnresolved))
		nd.kids.Store(-1)
		a.n++
	}
	return base
}

// Rect is a probe-space rectangle with inclusive float32 bounds, the unit
// of view-layer queries.
type Rect struct {
	MinW, MaxW float32
	MinY, MaxY float32
}

// Cell is one rectangle of a summary query result.
type Cell struct {
	Rect
	Class Classification
}

// ResultTree stores the classifier's output for one seam. Workers assigned
// to the seam mutate it; any number of readers may query it concurrently.
type ResultTree struct {
	seam   *Seam
	domain gridRect

	arena     nodeArena
	remaining atomic.Int64 // unresolved grid points, monotonically non-increasing
	total     uint64

	frontierMu sync.Mutex
	frontier   []int32 // unresolved node indexes pending classification

	errMu   sync.Mutex
	lastErr error
}

// NewResultTree creates an empty tree covering the seam's full probe domain.
func NewResultTree(seam *Seam) (*ResultTree, error) {
	w, y := seam.Domain()
	if w.IsEmpty() || y.IsEmpty() {
		return nil, ErrMalformedSeam
	}
	for _, v := range []float32{w.Start, w.End, y.Start, y.End} {
		if !isFinite32(v) {
			return nil, ErrMalformedSeam
		}
	}

	t := &ResultTree{
		seam:   seam,
		domain: rectOf(w, y),
	}
	t.total = t.domain.points()
	t.remaining.Store(int64(t.total))
	root := t.arena.alloc([]gridRect{t.domain})
	t.frontier = append(t.frontier, root)
	return t, nil
}

// Seam returns the seam this tree describes.
func (t *ResultTree) Seam() *Seam { return t.seam }

// Progress returns the count of unresolved grid points and the domain's
// total. Remaining only ever decreases and reaches zero when every leaf is
// resolved.
func (t *ResultTree) Progress() (remaining, total uint64) {
	r := t.remaining.Load()
	if r < 0 {
		r = 0
	}
	return uint64(r), t.total
}

// Remaining returns the unresolved grid point count.
func (t *ResultTree) Remaining() uint64 {
	r, _ := t.Progress()
	return r
}

// Done reports whether the whole domain is resolved.
func (t *ResultTree) Done() bool { return t.Remaining() == 0 }

// Err returns the last classification failure, if any. A non-nil error
// means the seam is degraded ("could not complete"), not that results so
// far are wrong.
func (t *ResultTree) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.lastErr
}

func (t *ResultTree) setErr(err error) {
	t.errMu.Lock()
	t.lastErr = err
	t.errMu.Unlock()
}

func (t *ResultTree) pushFrontier(base int32, count int) {
	t.frontierMu.Lock()
	for i := 0; i < count; i++ {
		t.frontier = append(t.frontier, base+int32(i))
	}
	t.frontierMu.Unlock()
}

func (t *ResultTree) pushFrontierOne(idx int32) {
	t.frontierMu.Lock()
	t.frontier = append(t.frontier, idx)
	t.frontierMu.Unlock()
}

// popFrontier removes up to max pending node indexes, newest first so
// refinement tends depth-first and the frontier stays small.
func (t *ResultTree) popFrontier(max int) []int32 {
	t.frontierMu.Lock()
	defer t.frontierMu.Unlock()
	n := len(t.frontier)
	if n == 0 {
		return nil
	}
	if max > n {
		max = n
	}
	out := make([]int32, max)
	copy(out, t.frontier[n-max:])
	t.frontier = t.frontier[:n-max]
	return out
}

func (t *ResultTree) frontierLen() int {
	t.frontierMu.Lock()
	defer t.frontierMu.Unlock()
	return len(t.frontier)
}

// resolveLeaf publishes a uniform classification for a claimed node and
// retires its grid points from the remaining counter.
func (t *ResultTree) resolveLeaf(n *node, c Classification) {
	n.state.Store(int32(c))
	t.remaining.Add(-int64(n.rect.points()))
}

// splitNode allocates children tiling the node's rectangle and publishes
// them in one atomic step. Returns the first child index and the count.
func (t *ResultTree) splitNode(n *node) (int32, int) {
	rects := n.rect.split()
	base := t.arena.alloc(rects)
	n.kids.Store(base)
	n.state.Store(stateSplit)
	return base, len(rects)
}

// Lookup descends to the deepest node containing the exact coordinate and
// returns its classification. ok is false when the coordinate lies outside
// the seam's probe domain. An unresolved result means the point has not
// been checked yet; use Catalog.PointQuery to force resolution.
func (t *ResultTree) Lookup(w, y float32) (Classification, bool) {
	ow, oy := ordOf(w), ordOf(y)
	if !t.domain.contains(ow, oy) {
		return ClassUnresolved, false
	}

	idx := int32(0)
	for {
		n := t.arena.at(idx)
		st := n.state.Load()
		if st != stateSplit {
			if st == stateClaimed {
				return ClassUnresolved, true
			}
			return Classification(st), true
		}
		base := n.kids.Load()
		count := len(n.rect.split())
		next := int32(-1)
		for i := 0; i < count; i++ {
			if t.arena.at(base + int32(i)).rect.contains(ow, oy) {
				next = base + int32(i)
				break
			}
		}
		if next < 0 {
			// children tile the parent; unreachable unless the tree is corrupt
			return ClassUnresolved, true
		}
		idx = next
	}
}

func clipRect(r, view gridRect) (gridRect, bool) {
	out := r
	if view.w0 > out.w0 {
		out.w0 = view.w0
	}
	if view.w1 < out.w1 {
		out.w1 = view.w1
	}
	if view.y0 > out.y0 {
		out.y0 = view.y0
	}
	if view.y1 < out.y1 {
		out.y1 = view.y1
	}
	if out.w0 > out.w1 || out.y0 > out.y1 {
		return gridRect{}, false
	}
	return out, true
}

// Summary returns classification cells covering the visible rectangle at
// the given target resolution (in probe-space units). Descent stops at the
// first node whose span is at or below the resolution; anything finer is
// merged upward by display priority (both > overlap/gap > not-yet-checked >
// neither > skipped). Merging is presentation only and never mutates the
// tree. Cells are clipped to the view, so the view is always fully covered;
// a cell straddling the view edge comes back narrower than the target
// resolution rather than being dropped or widened past the view.
func (t *ResultTree) Summary(view Rect, res float64, filter PointFilter) []Cell {
	v := gridRect{
		w0: ordOf(view.MinW), w1: ordOf(view.MaxW),
		y0: ordOf(view.MinY), y1: ordOf(view.MaxY),
	}
	clipped, ok := clipRect(v, t.domain)
	if !ok {
		return nil
	}
	return t.summarize(0, clipped, res, filter, nil)
}

func (t *ResultTree) summarize(idx int32, view gridRect, res float64, filter PointFilter, out []Cell) []Cell {
	n := t.arena.at(idx)
	vis, ok := clipRect(n.rect, view)
	if !ok {
		return out
	}

	st := n.state.Load()
	if st == stateSplit && n.rect.span() > res {
		base := n.kids.Load()
		count := len(n.rect.split())
		for i := 0; i < count; i++ {
			out = t.summarize(base+int32(i), view, res, filter, out)
		}
		return out
	}

	if !filter.MatchesRange(vis.minY(), vis.maxY()) {
		return out
	}

	var c Classification
	if st == stateSplit {
		c = t.mergedClass(idx)
	} else if st == stateClaimed {
		c = ClassUnresolved
	} else {
		c = Classification(st)
	}

	return append(out, Cell{
		Rect: Rect{
			MinW: vis.minW(), MaxW: vis.maxW(),
			MinY: vis.minY(), MaxY: vis.maxY(),
		},
		Class: c,
	})
}

// Overall returns the display classification of the whole seam, merged by
// the same priority as summary cells.
func (t *ResultTree) Overall() Classification { return t.mergedClass(0) }

// mergedClass folds a subtree into one display classification.
func (t *ResultTree) mergedClass(idx int32) Classification {
	var hasGap, hasOverlap, hasUnresolved, hasNeither, hasSkipped bool

	var walk func(int32) bool
	walk = func(i int32) bool {
		n := t.arena.at(i)
		st := n.state.Load()
		switch st {
		case stateSplit:
			base := n.kids.Load()
			count := len(n.rect.split())
			for k := 0; k < count; k++ {
				if walk(base + int32(k)) {
					return true
				}
			}
		case stateClaimed, int32(ClassUnresolved):
			hasUnresolved = true
		case int32(ClassNeither):
			hasNeither = true
		case int32(ClassSkipped):
			hasSkipped = true
		default:
			c := Classification(st)
			hasGap = hasGap || c.HasGap()
			hasOverlap = hasOverlap || c.HasOverlap()
		}
		return hasGap && hasOverlap // nothing can outrank "both"
	}
	walk(idx)

	switch {
	case hasGap && hasOverlap:
		return ClassBoth
	case hasOverlap:
		return ClassOverlap
	case hasGap:
		return ClassGap
	case hasUnresolved:
		return ClassUnresolved
	case hasNeither:
		return ClassNeither
	case hasSkipped:
		return ClassSkipped
	default:
		return ClassUnresolved
	}
}
