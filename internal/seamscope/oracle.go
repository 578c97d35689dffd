package seamscope

import (
	"context"
	"errors"
	"sync"
)

// ErrOracleUnavailable is returned by oracle adapters when a verdict could
// not be obtained. The classifier never converts it into a classification.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// Sample is the oracle's classification primitive for one probe.
type Sample struct {
	Gap     bool
	Overlap bool
}

// Oracle returns the ground-truth collision verdict for a single probe
// position on a seam. Implementations must be deterministic for identical
// inputs within one process run and may be expensive per call; this is the
// only point in the engine that can block on an external boundary.
type Oracle interface {
	Classify(ctx context.Context, seam *Seam, w, y float32) (Sample, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, seam *Seam, w, y float32) (Sample, error)

func (f OracleFunc) Classify(ctx context.Context, seam *Seam, w, y float32) (Sample, error) {
	return f(ctx, seam, w, y)
}

// EdgeOracle derives verdicts analytically from the seam's own projected
// edges, reproducing the game's float32 half-plane tests: a probe accepted
// by both walls is an overlap, a probe accepted by neither is a gap.
//
// It stands in for the emulator-backed oracle so the engine runs end-to-end
// from geometry alone.
type EdgeOracle struct{}

func (EdgeOracle) Classify(_ context.Context, seam *Seam, w, y float32) (Sample, error) {
	in1 := seam.Edge1.AcceptsProjected(w, y)
	in2 := seam.Edge2.AcceptsProjected(w, y)
	return Sample{
		Gap:     !in1 && !in2,
		Overlap: in1 && in2,
	}, nil
}

// SerialOracle serializes access to an oracle that cannot tolerate
// concurrent callers, such as one backed by a single emulated process.
// Throughput drops; state does not corrupt.
type SerialOracle struct {
	mu    sync.Mutex
	Inner Oracle
}

func (s *SerialOracle) Classify(ctx context.Context, seam *Seam, w, y float32) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Inner.Classify(ctx, seam, w, y)
}

// Classification is the resolved state of a probe or a uniform region.
type Classification uint8

const (
	// ClassUnresolved marks a region not yet checked.
	ClassUnresolved Classification = iota
	// ClassNeither marks a region with no gap and no overlap.
	ClassNeither
	// ClassGap marks gap without overlap.
	ClassGap
	// ClassOverlap marks overlap without gap.
	ClassOverlap
	// ClassBoth marks a region containing both defects.
	ClassBoth
	// ClassSkipped marks the [-1,1] x [-1,1] zone excluded from interactive
	// classification.
	ClassSkipped
)

func (c Classification) String() string {
	switch c {
	case ClassNeither:
		return "none"
	case ClassGap:
		return "gap"
	case ClassOverlap:
		return "overlap"
	case ClassBoth:
		return "both"
	case ClassSkipped:
		return "skipped"
	default:
		return "unresolved"
	}
}

// HasGap reports whether the classification includes a gap.
func (c Classification) HasGap() bool { return c == ClassGap || c == ClassBoth }

// HasOverlap reports whether the classification includes an overlap.
func (c Classification) HasOverlap() bool { return c == ClassOverlap || c == ClassBoth }

// classOf maps an oracle sample to its classification.
func classOf(s Sample) Classification {
	switch {
	case s.Gap && s.Overlap:
		return ClassBoth
	case s.Gap:
		return ClassGap
	case s.Overlap:
		return ClassOverlap
	default:
		return ClassNeither
	}
}
