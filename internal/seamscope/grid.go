package seamscope

import "math"

// The probe grid is the set of finite float32 values on an axis. Two
// coordinates are adjacent when no representable value lies strictly between
// them, so all grid arithmetic works on a monotone integer mapping of the
// float bit pattern rather than on real-number arithmetic.

const signBit32 = uint32(1) << 31

// ordOf maps a float32 to an ordinal such that a < b implies
// ordOf(a) < ordOf(b) for all finite values. -0 and +0 map to adjacent
// ordinals, matching the game's grid where they are distinct probe values.
func ordOf(x float32) uint32 {
	b := math.Float32bits(x)
	if b&signBit32 != 0 {
		return ^b
	}
	return b | signBit32
}

// ordFloat inverts ordOf.
func ordFloat(o uint32) float32 {
	if o&signBit32 != 0 {
		return math.Float32frombits(o &^ signBit32)
	}
	return math.Float32frombits(^o)
}

// StepUp32 returns the next representable float32 above x.
func StepUp32(x float32) float32 { return ordFloat(ordOf(x) + 1) }

// StepDown32 returns the next representable float32 below x.
func StepDown32(x float32) float32 { return ordFloat(ordOf(x) - 1) }

func isFinite32(x float32) bool {
	return !math.IsInf(float64(x), 0) && !math.IsNaN(float64(x))
}

// Range is a half-open run [Start, End) of representable float32 values on
// one axis. End is exclusive so that adjacent ranges tile without overlap.
type Range struct {
	Start float32
	End   float32
}

// RangeInclusive builds the range covering min..max with both ends included.
func RangeInclusive(min, max float32) Range {
	return Range{Start: min, End: StepUp32(max)}
}

// Intersect returns the overlap of two ranges (possibly empty).
func (r Range) Intersect(o Range) Range {
	out := r
	if ordOf(o.Start) > ordOf(out.Start) {
		out.Start = o.Start
	}
	if ordOf(o.End) < ordOf(out.End) {
		out.End = o.End
	}
	return out
}

// IsEmpty reports whether the range contains no grid values.
func (r Range) IsEmpty() bool { return ordOf(r.End) <= ordOf(r.Start) }

// Count returns the number of representable values in the range.
func (r Range) Count() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return uint64(ordOf(r.End) - ordOf(r.Start))
}

// Each calls fn for every grid value in ascending order until fn returns
// false. Iteration is by ordinal, so it visits every representable value
// exactly once regardless of magnitude.
func (r Range) Each(fn func(float32) bool) {
	if r.IsEmpty() {
		return
	}
	end := ordOf(r.End)
	for o := ordOf(r.Start); o < end; o++ {
		if !fn(ordFloat(o)) {
			return
		}
	}
}

// gridRect is a rectangle of probe space with inclusive ordinal bounds on
// both axes. The zero rectangle is not valid; construct via rectOf.
type gridRect struct {
	w0, w1 uint32
	y0, y1 uint32
}

// rectOf builds the grid rectangle covering a w-range and a y-range.
// Both ranges must be non-empty.
func rectOf(w, y Range) gridRect {
	return gridRect{
		w0: ordOf(w.Start), w1: ordOf(w.End) - 1,
		y0: ordOf(y.Start), y1: ordOf(y.End) - 1,
	}
}

func (r gridRect) minW() float32 { return ordFloat(r.w0) }
func (r gridRect) maxW() float32 { return ordFloat(r.w1) }
func (r gridRect) minY() float32 { return ordFloat(r.y0) }
func (r gridRect) maxY() float32 { return ordFloat(r.y1) }

// countW and countY return the per-axis grid point counts.
func (r gridRect) countW() uint64 { return uint64(r.w1-r.w0) + 1 }
func (r gridRect) countY() uint64 { return uint64(r.y1-r.y0) + 1 }

// points returns the total grid point count of the rectangle.
func (r gridRect) points() uint64 { return r.countW() * r.countY() }

// singleCell reports whether the rectangle is one grid unit on both axes.
func (r gridRect) singleCell() bool { return r.w0 == r.w1 && r.y0 == r.y1 }

func (r gridRect) contains(ow, oy uint32) bool {
	return ow >= r.w0 && ow <= r.w1 && oy >= r.y0 && oy <= r.y1
}

// span returns the larger float extent of the rectangle, used to compare a
// node against a query's target resolution.
func (r gridRect) span() float64 {
	dw := float64(r.maxW()) - float64(r.minW())
	dy := float64(r.maxY()) - float64(r.minY())
	if dw > dy {
		return dw
	}
	return dy
}

// split divides the rectangle at the grid-ordinal midpoint of each axis that
// holds more than one value. The children exactly tile the parent and each
// split halves the remaining representable values on its axis, which is what
// bounds the subdivision depth.
func (r gridRect) split() []gridRect {
	splitW := r.w0 < r.w1
	splitY := r.y0 < r.y1
	midW := r.w0 + (r.w1-r.w0)/2
	midY := r.y0 + (r.y1-r.y0)/2

	switch {
	case splitW && splitY:
		return []gridRect{
			{r.w0, midW, r.y0, midY},
			{midW + 1, r.w1, r.y0, midY},
			{r.w0, midW, midY + 1, r.y1},
			{midW + 1, r.w1, midY + 1, r.y1},
		}
	case splitW:
		return []gridRect{
			{r.w0, midW, r.y0, r.y1},
			{midW + 1, r.w1, r.y0, r.y1},
		}
	case splitY:
		return []gridRect{
			{r.w0, r.w1, r.y0, midY},
			{r.w0, r.w1, midY + 1, r.y1},
		}
	default:
		return nil
	}
}

// Skip zone: probes with both axes in [-1, 1] are never sent to the oracle
// by interactive classification (grid density near the origin makes them
// disproportionately expensive).
var (
	skipOrdLo = ordOf(-1)
	skipOrdHi = ordOf(1)
)

// insideSkipZone reports whether the whole rectangle lies in [-1,1] x [-1,1].
func (r gridRect) insideSkipZone() bool {
	return r.w0 >= skipOrdLo && r.w1 <= skipOrdHi &&
		r.y0 >= skipOrdLo && r.y1 <= skipOrdHi
}

// intersectsSkipZone reports whether any part of the rectangle overlaps the
// skip zone.
func (r gridRect) intersectsSkipZone() bool {
	return r.w0 <= skipOrdHi && r.w1 >= skipOrdLo &&
		r.y0 <= skipOrdHi && r.y1 >= skipOrdLo
}

// pointInSkipZone reports whether a single probe lies in the skip zone.
func pointInSkipZone(w, y float32) bool {
	return w >= -1 && w <= 1 && y >= -1 && y <= 1
}
