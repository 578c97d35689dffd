package seamscope

import "fmt"

// Surface is one collision triangle from the game's surface pool.
// Vertices use the game's native s16 coordinates; the normal is float32.
type Surface struct {
	Vertex1 [3]int16
	Vertex2 [3]int16
	Vertex3 [3]int16
	Normal  [3]float32
}

// IsWall reports whether the surface is (close enough to) vertical to take
// part in seam analysis.
func (s Surface) IsWall() bool {
	ny := s.Normal[1]
	return ny >= -WallNormalYMax && ny <= WallNormalYMax
}

// Validate rejects surfaces whose normal cannot drive the edge projection.
func (s Surface) Validate() error {
	for _, c := range s.Normal {
		if !isFinite32(c) {
			return fmt.Errorf("%w: surface normal %v", ErrMalformedSeam, s.Normal)
		}
	}
	return nil
}

// edgePairs returns the surface's three directed edges in the game's CCW
// vertex order.
func (s Surface) edgePairs() [3][2][3]int16 {
	return [3][2][3]int16{
		{s.Vertex1, s.Vertex2},
		{s.Vertex2, s.Vertex3},
		{s.Vertex3, s.Vertex1},
	}
}
