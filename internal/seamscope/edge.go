package seamscope

// ProjectionAxis is the world axis along which a wall projects.
type ProjectionAxis uint8

const (
	AxisX ProjectionAxis = iota
	AxisZ
)

func (a ProjectionAxis) String() string {
	if a == AxisX {
		return "x"
	}
	return "z"
}

// ProjectionAxisOf determines the projection axis for a wall from its normal.
func ProjectionAxisOf(normal [3]float32) ProjectionAxis {
	if normal[0] < -0.707 || normal[0] > 0.707 {
		return AxisX
	}
	return AxisZ
}

// Orientation is the side of an edge a wall accepts.
//
// An x projective wall is positive iff normal.x > 0.
// A z projective wall is positive iff normal.z <= 0.
type Orientation int8

const (
	// Positive accepts r if r >= 0.
	Positive Orientation = 1
	// Negative accepts r if r <= 0.
	Negative Orientation = -1
)

// OrientationOf returns the orientation for a wall given its normal.
func OrientationOf(normal [3]float32) Orientation {
	switch ProjectionAxisOf(normal) {
	case AxisX:
		if normal[0] > 0 {
			return Positive
		}
		return Negative
	default:
		if normal[2] <= 0 {
			return Positive
		}
		return Negative
	}
}

// ProjectedVertex is a wall vertex projected onto the (w, y) probe plane.
// W is x for z projective walls and z for x projective walls.
type ProjectedVertex struct {
	W, Y int16
}

func projectVertex(v [3]int16, axis ProjectionAxis) ProjectedVertex {
	if axis == AxisX {
		return ProjectedVertex{W: v[2], Y: v[1]}
	}
	return ProjectedVertex{W: v[0], Y: v[1]}
}

// Edge is one edge of a wall triangle, projected onto the probe plane.
// Vertex1 and Vertex2 are listed in CCW order, matching the game's order.
type Edge struct {
	Axis        ProjectionAxis
	Vertex1     ProjectedVertex
	Vertex2     ProjectedVertex
	Orientation Orientation
}

// NewEdge builds the projected edge for a pair of wall vertices.
func NewEdge(v1, v2 [3]int16, normal [3]float32) Edge {
	axis := ProjectionAxisOf(normal)
	return Edge{
		Axis:        axis,
		Vertex1:     projectVertex(v1, axis),
		Vertex2:     projectVertex(v2, axis),
		Orientation: OrientationOf(normal),
	}
}

// Accepts reports whether the world point lies on the inside of the edge.
// A point is inside a wall iff all three of the wall's edges accept it.
func (e Edge) Accepts(p [3]float32) bool {
	if e.Axis == AxisX {
		return e.AcceptsProjected(p[2], p[1])
	}
	return e.AcceptsProjected(p[0], p[1])
}

// AcceptsProjected reports whether the probe-plane point lies on the inside
// of the edge. The sign test reproduces the game's float32 cross product.
func (e Edge) AcceptsProjected(w, y float32) bool {
	w1 := float32(e.Vertex1.W)
	y1 := float32(e.Vertex1.Y)
	w2 := float32(e.Vertex2.W)
	y2 := float32(e.Vertex2.Y)

	r := (y1-y)*(w2-w1) - (w1-w)*(y2-y1)

	if e.Orientation == Positive {
		return r >= 0
	}
	return r <= 0
}

// IsVertical reports whether the edge has no w extent.
func (e Edge) IsVertical() bool { return e.Vertex1.W == e.Vertex2.W }

// WRange returns the edge's extent along the w axis, both ends included.
func (e Edge) WRange() Range {
	lo, hi := e.Vertex1.W, e.Vertex2.W
	if lo > hi {
		lo, hi = hi, lo
	}
	return RangeInclusive(float32(lo), float32(hi))
}

// YRange returns the edge's extent along the y axis, both ends included.
func (e Edge) YRange() Range {
	lo, hi := e.Vertex1.Y, e.Vertex2.Y
	if lo > hi {
		lo, hi = hi, lo
	}
	return RangeInclusive(float32(lo), float32(hi))
}

// ApproxT returns the interpolation parameter of w along the edge.
func (e Edge) ApproxT(w float32) float32 {
	w1 := float32(e.Vertex1.W)
	w2 := float32(e.Vertex2.W)
	if w1 == w2 {
		return 0
	}
	return (w - w1) / (w2 - w1)
}

// ApproxY returns the approximate y of the edge line at w.
func (e Edge) ApproxY(w float32) float32 {
	t := e.ApproxT(w)
	y1 := float32(e.Vertex1.Y)
	y2 := float32(e.Vertex2.Y)
	return y1 + t*(y2-y1)
}
