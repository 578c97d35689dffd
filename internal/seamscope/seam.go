package seamscope

import (
	"errors"
	"fmt"
)

// ErrMalformedSeam is returned when an edge pair cannot form a usable seam.
var ErrMalformedSeam = errors.New("malformed seam")

// Seam is an unordered pair of adjoining wall edges analyzed jointly for
// collision defects. Identity is stable for the lifetime of the process;
// nothing about a seam is persisted across restarts.
type Seam struct {
	Edge1 Edge
	Edge2 Edge

	// Endpoints holds the shared vertices in world space, for visualization.
	Endpoints [2][3]int16
}

// NewSeam builds a seam from two wall edges if they adjoin.
//
// Edges must project along the same axis, share both vertices in opposite
// winding order, and neither may be vertical (simplifying assumptions
// carried over from the game's collision layout).
func NewSeam(v1 [2][3]int16, n1 [3]float32, v2 [2][3]int16, n2 [3]float32) (*Seam, error) {
	for _, n := range [2][3]float32{n1, n2} {
		for _, c := range n {
			if !isFinite32(c) {
				return nil, fmt.Errorf("%w: non-finite normal %v", ErrMalformedSeam, n)
			}
		}
	}

	edge1 := NewEdge(v1[0], v1[1], n1)
	edge2 := NewEdge(v2[0], v2[1], n2)

	if edge1.Axis != edge2.Axis {
		return nil, fmt.Errorf("%w: projection axes differ", ErrMalformedSeam)
	}

	// TODO: edges that adjoin without sharing both vertices
	if v1[0] != v2[1] || v1[1] != v2[0] {
		return nil, fmt.Errorf("%w: edges do not share vertices", ErrMalformedSeam)
	}

	if edge1.IsVertical() || edge2.IsVertical() {
		return nil, fmt.Errorf("%w: vertical edge", ErrMalformedSeam)
	}

	return &Seam{
		Edge1:     edge1,
		Edge2:     edge2,
		Endpoints: v1,
	}, nil
}

// WRange returns the probe domain along the shared-edge axis: the
// intersection of both edges' w extents.
func (s *Seam) WRange() Range {
	return s.Edge1.WRange().Intersect(s.Edge2.WRange())
}

// YRange returns the probe domain along the height axis: the union of both
// edges' y extents, so probes can cross from one wall into the other.
func (s *Seam) YRange() Range {
	r1 := s.Edge1.YRange()
	r2 := s.Edge2.YRange()
	out := r1
	if ordOf(r2.Start) < ordOf(out.Start) {
		out.Start = r2.Start
	}
	if ordOf(r2.End) > ordOf(out.End) {
		out.End = r2.End
	}
	return out
}

// Domain returns the seam's full 2-D probe rectangle.
func (s *Seam) Domain() (w, y Range) { return s.WRange(), s.YRange() }

// ApproxPointAtW interpolates the seam's world-space position at w, for
// anchoring external views.
func (s *Seam) ApproxPointAtW(w float32) Point3 {
	p1 := s.Endpoint1()
	p2 := s.Endpoint2()
	t := s.Edge1.ApproxT(w)
	return p1.Add(p2.Sub(p1).Mul(t))
}

// Endpoint1 returns the first shared vertex in world space.
func (s *Seam) Endpoint1() Point3 {
	return Point3{
		X: float32(s.Endpoints[0][0]),
		Y: float32(s.Endpoints[0][1]),
		Z: float32(s.Endpoints[0][2]),
	}
}

// Endpoint2 returns the second shared vertex in world space.
func (s *Seam) Endpoint2() Point3 {
	return Point3{
		X: float32(s.Endpoints[1][0]),
		Y: float32(s.Endpoints[1][1]),
		Z: float32(s.Endpoints[1][2]),
	}
}

func (s *Seam) String() string {
	return fmt.Sprintf("seam %s (%d,%d,%d)-(%d,%d,%d)",
		s.Edge1.Axis,
		s.Endpoints[0][0], s.Endpoints[0][1], s.Endpoints[0][2],
		s.Endpoints[1][0], s.Endpoints[1][1], s.Endpoints[1][2])
}
