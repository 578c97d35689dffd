package seamscope

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoWallSurfaces returns two vertical triangles sharing the edge
// (16384,16384,0)-(16386,16384,0), which adjoin into exactly one seam.
func twoWallSurfaces() []Surface {
	a := [3]int16{16384, 16384, 0}
	b := [3]int16{16386, 16384, 0}
	return []Surface{
		{Vertex1: a, Vertex2: b, Vertex3: [3]int16{16385, 16000, 0}, Normal: [3]float32{0, 0, -1}},
		{Vertex1: b, Vertex2: a, Vertex3: [3]int16{16385, 16500, 0}, Normal: [3]float32{0, 0, -1}},
	}
}

func TestFindSeams(t *testing.T) {
	seams, dropped := FindSeams(twoWallSurfaces(), testLogger(t))
	require.Len(t, seams, 1)
	assert.Zero(t, dropped)

	w, y := seams[0].Domain()
	assert.Equal(t, float32(16384), w.Start)
	assert.Equal(t, float32(16386), StepDown32(w.End))
	assert.Equal(t, float32(16384), y.Start)
	assert.Equal(t, float32(16384), StepDown32(y.End))
}

func TestFindSeamsDropsMalformedSurfaces(t *testing.T) {
	surfaces := append(twoWallSurfaces(), Surface{
		Vertex1: [3]int16{0, 0, 0},
		Vertex2: [3]int16{1, 0, 0},
		Vertex3: [3]int16{0, 1, 0},
		Normal:  [3]float32{float32(math.NaN()), 0, 0},
	})
	seams, dropped := FindSeams(surfaces, testLogger(t))
	assert.Len(t, seams, 1, "remaining surfaces still pair up")
	assert.Equal(t, 1, dropped)
}

func TestFindSeamsIgnoresFloors(t *testing.T) {
	floor := Surface{
		Vertex1: [3]int16{0, 0, 0},
		Vertex2: [3]int16{100, 0, 0},
		Vertex3: [3]int16{0, 0, 100},
		Normal:  [3]float32{0, 1, 0},
	}
	seams, dropped := FindSeams([]Surface{floor, floor}, testLogger(t))
	assert.Empty(t, seams)
	assert.Zero(t, dropped)
}

func TestCatalogEnterIsIdempotent(t *testing.T) {
	cat := NewCatalog(&countingOracle{fn: uniformNeither}, Params{}, testLogger(t))

	a1 := cat.Enter("bob", twoWallSurfaces())
	require.Equal(t, 1, a1.SeamCount())

	a2 := cat.Enter("bob", nil)
	assert.Same(t, a1, a2, "re-entering must reuse the area and its trees")
	assert.Equal(t, 1, a2.SeamCount())
}

func TestCatalogClassifyCompletes(t *testing.T) {
	oracle := &countingOracle{fn: uniformNeither}
	cat := NewCatalog(oracle, Params{Workers: 4, BatchSize: 4}, testLogger(t))
	area := cat.Enter("wf", twoWallSurfaces())
	require.Equal(t, 1, area.SeamCount())
	require.Positive(t, area.Remaining())

	require.NoError(t, cat.Classify(context.Background(), area))
	assert.True(t, area.Done())
	assert.Zero(t, area.Remaining())
	assert.Equal(t, ClassNeither, area.Tree(0).Overall())

	// a second run has nothing to do and must not probe
	before := oracle.calls.Load()
	require.NoError(t, cat.Classify(context.Background(), area))
	assert.Equal(t, before, oracle.calls.Load())
}

func TestCatalogClassifyReportsIncomplete(t *testing.T) {
	dead := OracleFunc(func(context.Context, *Seam, float32, float32) (Sample, error) {
		return Sample{}, ErrOracleUnavailable
	})
	cat := NewCatalog(dead, Params{Workers: 2, SeamFailureLimit: 3}, testLogger(t))
	area := cat.Enter("ddd", twoWallSurfaces())

	err := cat.Classify(context.Background(), area)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.False(t, area.Done())
	assert.Positive(t, area.Remaining(), "partial results stay queryable")
}

func TestCatalogClassifyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cat := NewCatalog(&countingOracle{fn: uniformNeither}, Params{}, testLogger(t))
	area := cat.Enter("ccm", twoWallSurfaces())
	err := cat.Classify(ctx, area)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalogPointQuery(t *testing.T) {
	oracle := &countingOracle{fn: halfGap}
	cat := NewCatalog(oracle, Params{}, testLogger(t))
	area := cat.Enter("jrb", twoWallSurfaces())

	cls, err := cat.PointQuery(context.Background(), area, 0, 16385.5, 16384)
	require.NoError(t, err)
	assert.Equal(t, ClassNeither, cls)
	assert.Less(t, oracle.calls.Load(), int64(30),
		"a point query must not classify the whole seam")

	// resolved now; the second query is a pure lookup
	before := oracle.calls.Load()
	cls, err = cat.PointQuery(context.Background(), area, 0, 16385.5, 16384)
	require.NoError(t, err)
	assert.Equal(t, ClassNeither, cls)
	assert.Equal(t, before, oracle.calls.Load())

	_, err = cat.PointQuery(context.Background(), area, 5, 16385, 16384)
	assert.Error(t, err, "seam index out of range")
}
