package seamscope

import "math"

// PointFilter is a read-time predicate over the height axis. It filters what
// queries and exports surface, never what the classifier computes or stores.
type PointFilter uint8

const (
	// FilterNone surfaces every y value.
	FilterNone PointFilter = iota
	// FilterIntY surfaces only integer y values.
	FilterIntY
	// FilterQuarterIntY surfaces only quarter-integer y values.
	FilterQuarterIntY
)

// AllPointFilters lists the filters in UI order.
func AllPointFilters() []PointFilter {
	return []PointFilter{FilterNone, FilterIntY, FilterQuarterIntY}
}

func (f PointFilter) String() string {
	switch f {
	case FilterIntY:
		return "int y"
	case FilterQuarterIntY:
		return "qint y"
	default:
		return "all y"
	}
}

// Matches reports whether a single y coordinate passes the filter.
func (f PointFilter) Matches(y float32) bool {
	switch f {
	case FilterIntY:
		return y == float32(math.Trunc(float64(y)))
	case FilterQuarterIntY:
		// sign-agnostic: -1.25 is as much a quarter step as 1.25
		y4 := float64(y) * 4
		return y4 == math.Trunc(y4)
	default:
		return true
	}
}

// MatchesRange reports whether any y in [minY, maxY] passes the filter,
// used to drop summary cells that contain no surfaceable height.
func (f PointFilter) MatchesRange(minY, maxY float32) bool {
	var scale float64
	switch f {
	case FilterIntY:
		scale = 1
	case FilterQuarterIntY:
		scale = 4
	default:
		return true
	}
	return math.Ceil(float64(minY)*scale) <= math.Floor(float64(maxY)*scale)
}
