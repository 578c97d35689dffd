package seamscope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResultTreeRejectsEmptyDomain(t *testing.T) {
	// the edges' w extents are disjoint, so the intersected domain is empty
	s := &Seam{
		Edge1: Edge{Axis: AxisZ, Vertex1: ProjectedVertex{W: 0, Y: 0}, Vertex2: ProjectedVertex{W: 10, Y: 0}},
		Edge2: Edge{Axis: AxisZ, Vertex1: ProjectedVertex{W: 20, Y: 0}, Vertex2: ProjectedVertex{W: 30, Y: 0}},
	}
	_, err := NewResultTree(s)
	assert.ErrorIs(t, err, ErrMalformedSeam)
}

// collectLeaves walks the tree and returns every leaf rectangle with its state.
func collectLeaves(t *ResultTree) []*node {
	var out []*node
	var walk func(int32)
	walk = func(idx int32) {
		n := t.arena.at(idx)
		if n.state.Load() != stateSplit {
			out = append(out, n)
			return
		}
		base := n.kids.Load()
		for i := 0; i < len(n.rect.split()); i++ {
			walk(base + int32(i))
		}
	}
	walk(0)
	return out
}

func TestTreeLeavesTileDomain(t *testing.T) {
	oracle := &countingOracle{fn: halfGap}
	cl := newTestClassifier(t, testSeam(16384, 16386, 16384, 16385), oracle)
	require.NoError(t, cl.Run(context.Background()))

	tree := cl.Tree()
	leaves := collectLeaves(tree)
	require.NotEmpty(t, leaves)

	var sum uint64
	for i, a := range leaves {
		sum += a.rect.points()
		assert.True(t, a.rect.w0 >= tree.domain.w0 && a.rect.w1 <= tree.domain.w1)
		assert.True(t, a.rect.y0 >= tree.domain.y0 && a.rect.y1 <= tree.domain.y1)
		for j := i + 1; j < len(leaves); j++ {
			b := leaves[j]
			overlaps := a.rect.w0 <= b.rect.w1 && b.rect.w0 <= a.rect.w1 &&
				a.rect.y0 <= b.rect.y1 && b.rect.y0 <= a.rect.y1
			assert.False(t, overlaps, "leaves %d and %d overlap", i, j)
		}
	}
	assert.Equal(t, tree.domain.points(), sum, "leaves must tile the domain exactly")
}

func TestTreeLookupOutsideDomain(t *testing.T) {
	tree, err := NewResultTree(testSeam(100, 200, 0, 50))
	require.NoError(t, err)

	_, ok := tree.Lookup(99, 25)
	assert.False(t, ok)
	_, ok = tree.Lookup(150, 51)
	assert.False(t, ok)

	cls, ok := tree.Lookup(150, 25)
	assert.True(t, ok)
	assert.Equal(t, ClassUnresolved, cls, "untouched tree reports unresolved")
}

func TestSummaryCoversClippedView(t *testing.T) {
	oracle := &countingOracle{fn: halfGap}
	cl := newTestClassifier(t, testSeam(16384, 16386, 16384, 16385), oracle)
	require.NoError(t, cl.Run(context.Background()))
	tree := cl.Tree()

	view := Rect{MinW: 16384.5, MaxW: 16385.5, MinY: 16384.25, MaxY: 16384.75}
	cells := tree.Summary(view, 0, FilterNone)
	require.NotEmpty(t, cells)

	want := rectOf(
		RangeInclusive(view.MinW, view.MaxW),
		RangeInclusive(view.MinY, view.MaxY),
	)
	var covered uint64
	for _, c := range cells {
		r := rectOf(RangeInclusive(c.MinW, c.MaxW), RangeInclusive(c.MinY, c.MaxY))
		assert.True(t, r.w0 >= want.w0 && r.w1 <= want.w1, "cell escapes the view on w")
		assert.True(t, r.y0 >= want.y0 && r.y1 <= want.y1, "cell escapes the view on y")
		covered += r.points()
	}
	assert.Equal(t, want.points(), covered, "cells must cover the whole view")
}

func TestSummaryMergesAtResolution(t *testing.T) {
	oracle := &countingOracle{fn: halfGap}
	cl := newTestClassifier(t, testSeam(16384, 16386, 16384, 16384), oracle)
	require.NoError(t, cl.Run(context.Background()))
	tree := cl.Tree()

	view := Rect{MinW: 16384, MaxW: 16386, MinY: 16384, MaxY: 16384}

	// at a resolution as coarse as the domain, the split root is reported as
	// one merged cell; a defect outranks clean regions
	cells := tree.Summary(view, 2, FilterNone)
	require.Len(t, cells, 1)
	assert.Equal(t, ClassGap, cells[0].Class)

	cells = tree.Summary(view, 0.5, FilterNone)
	assert.Len(t, cells, 2, "finer resolution descends past the root")
}

func TestSummaryAppliesPointFilter(t *testing.T) {
	oracle := &countingOracle{fn: uniformNeither}
	// y spans 16384.0 .. 16384.5: only the integer-y edge survives FilterIntY
	cl := newTestClassifier(t, testSeam(200, 300, 100, 101), oracle)
	require.NoError(t, cl.Run(context.Background()))
	tree := cl.Tree()

	all := tree.Summary(Rect{MinW: 200, MaxW: 300, MinY: 100.25, MaxY: 100.75}, 0, FilterNone)
	require.NotEmpty(t, all)

	none := tree.Summary(Rect{MinW: 200, MaxW: 300, MinY: 100.25, MaxY: 100.75}, 0, FilterIntY)
	assert.Empty(t, none, "view holding no integer y must drop every cell")

	some := tree.Summary(Rect{MinW: 200, MaxW: 300, MinY: 100.25, MaxY: 101}, 0, FilterIntY)
	assert.NotEmpty(t, some)
}

func TestOverallMergePriority(t *testing.T) {
	both := &countingOracle{fn: func(w, _ float32) Sample {
		if w <= 16385 {
			return Sample{Gap: true}
		}
		return Sample{Overlap: true}
	}}
	cl := newTestClassifier(t, testSeam(16384, 16386, 16384, 16384), both)
	require.NoError(t, cl.Run(context.Background()))
	assert.Equal(t, ClassBoth, cl.Tree().Overall(),
		"gap and overlap in one seam merge to both")

	clean := newTestClassifier(t, testSeam(16384, 16386, 16384, 16384), &countingOracle{fn: uniformNeither})
	require.NoError(t, clean.Run(context.Background()))
	assert.Equal(t, ClassNeither, clean.Tree().Overall())

	// a seam straddling the skip zone: neither outranks skipped
	zoned := newTestClassifier(t, testSeam(-4, 4, 0, 0), &countingOracle{fn: uniformNeither})
	require.NoError(t, zoned.Run(context.Background()))
	assert.Equal(t, ClassNeither, zoned.Tree().Overall())

	unresolved, err := NewResultTree(testSeam(16384, 16386, 16384, 16384))
	require.NoError(t, err)
	assert.Equal(t, ClassUnresolved, unresolved.Overall())
}
