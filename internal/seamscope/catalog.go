package seamscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrIncomplete reports that classification stopped with unresolved probe
// points left, typically because the oracle kept failing for some seams.
// The area's partial results stay valid and queryable.
var ErrIncomplete = errors.New("classification incomplete")

// Params configures catalog scheduling.
type Params struct {
	// Workers bounds the classification pool; 0 means runtime.NumCPU().
	Workers int
	// BatchSize is the number of frontier nodes granted to a worker at once.
	BatchSize int
	// SeamFailureLimit parks a seam after this many consecutive failed
	// batches so a dead oracle cannot spin the scheduler.
	SeamFailureLimit int
	// Classifier tunes the subdivision heuristic.
	Classifier ClassifierParams
}

func (p Params) withDefaults() Params {
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.SeamFailureLimit <= 0 {
		p.SeamFailureLimit = DefaultSeamFailures
	}
	p.Classifier = p.Classifier.withDefaults()
	return p
}

// Area owns the seams discovered for one region of the game world and their
// result trees, for the lifetime of the process.
type Area struct {
	Name string

	mu          sync.Mutex
	classifiers []*Classifier
	failures    []int // consecutive failed batches per seam

	droppedSurfaces int
	droppedSeams    int
}

// Seams returns the area's seams in discovery order.
func (a *Area) Seams() []*Seam {
	out := make([]*Seam, len(a.classifiers))
	for i, cl := range a.classifiers {
		out[i] = cl.tree.seam
	}
	return out
}

// SeamCount returns the number of usable seams in the area.
func (a *Area) SeamCount() int { return len(a.classifiers) }

// Tree returns seam i's result tree for view-layer queries.
func (a *Area) Tree(i int) *ResultTree { return a.classifiers[i].tree }

// Remaining sums unresolved probe points across the area's trees; it is the
// world view's "Remaining" counter and never increases.
func (a *Area) Remaining() uint64 {
	var sum uint64
	for _, cl := range a.classifiers {
		sum += cl.tree.Remaining()
	}
	return sum
}

// Done reports whether every seam in the area is fully classified.
func (a *Area) Done() bool { return a.Remaining() == 0 }

// Dropped returns how many surfaces and seams were omitted as malformed.
func (a *Area) Dropped() (surfaces, seams int) {
	return a.droppedSurfaces, a.droppedSeams
}

// pickSeam chooses the unparked seam with the most unresolved points that
// still has frontier work, keeping visible progress uniform across the area
// instead of finishing one seam before starting the next.
func (a *Area) pickSeam(failureLimit int) *Classifier {
	a.mu.Lock()
	defer a.mu.Unlock()

	var best *Classifier
	var bestRemaining uint64
	for i, cl := range a.classifiers {
		if a.failures[i] >= failureLimit {
			continue
		}
		if cl.tree.frontierLen() == 0 {
			continue
		}
		if r := cl.tree.Remaining(); best == nil || r > bestRemaining {
			best, bestRemaining = cl, r
		}
	}
	return best
}

func (a *Area) noteBatch(cl *Classifier, failed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.classifiers {
		if c == cl {
			if failed {
				a.failures[i]++
			} else {
				a.failures[i] = 0
			}
			return
		}
	}
}

// FindSeams enumerates the seams of a surface set: walls go into a bucket
// partition, nearby pairs are proposed, and each pair's nine edge
// combinations are tested for adjacency. Malformed surfaces are dropped and
// counted, never fatal.
func FindSeams(surfaces []Surface, logger *slog.Logger) (seams []*Seam, dropped int) {
	if logger == nil {
		logger = slog.Default()
	}

	part := newPartition()
	for _, s := range surfaces {
		if err := s.Validate(); err != nil {
			dropped++
			logger.Warn("dropping surface", "err", err)
			continue
		}
		if s.IsWall() {
			part.insert(s)
		}
	}

	part.pairs(func(w1, w2 *Surface) {
		for _, e1 := range w1.edgePairs() {
			for _, e2 := range w2.edgePairs() {
				seam, err := NewSeam(e1, w1.Normal, e2, w2.Normal)
				if err != nil {
					continue // most edge pairs simply do not adjoin
				}
				seams = append(seams, seam)
			}
		}
	})
	return seams, dropped
}

// Catalog owns one Area per region entered, exclusively, for the process
// lifetime. Nothing is persisted; exiting the process discards all progress.
type Catalog struct {
	oracle Oracle
	params Params
	logger *slog.Logger

	mu    sync.Mutex
	areas map[string]*Area
}

// NewCatalog creates a catalog classifying against the given oracle.
func NewCatalog(oracle Oracle, params Params, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		oracle: oracle,
		params: params.withDefaults(),
		logger: logger,
		areas:  make(map[string]*Area),
	}
}

// Enter returns the area for name, discovering its seams and creating empty
// result trees on first entry. Re-entering reuses the existing trees and
// their progress.
func (c *Catalog) Enter(name string, surfaces []Surface) *Area {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.areas[name]; ok {
		return a
	}

	a := &Area{Name: name}
	seams, droppedSurfaces := FindSeams(surfaces, c.logger)
	a.droppedSurfaces = droppedSurfaces
	for _, seam := range seams {
		tree, err := NewResultTree(seam)
		if err != nil {
			a.droppedSeams++
			c.logger.Warn("dropping seam", "area", name, "seam", seam.String(), "err", err)
			continue
		}
		a.classifiers = append(a.classifiers,
			NewClassifier(c.oracle, tree, c.params.Classifier, c.logger))
	}
	a.failures = make([]int, len(a.classifiers))

	c.logger.Info("entered area",
		"area", name,
		"seams", len(a.classifiers),
		"dropped_surfaces", a.droppedSurfaces,
		"dropped_seams", a.droppedSeams)

	c.areas[name] = a
	return a
}

// Classify drives the area's classification to completion over a bounded
// worker pool. It returns nil when every seam resolved, ctx.Err() on
// cancellation, or ErrIncomplete (wrapping seam errors) when the remaining
// work cannot make progress.
func (c *Catalog) Classify(ctx context.Context, a *Area) error {
	for {
		if a.Done() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		before := a.Remaining()

		var g errgroup.Group
		g.SetLimit(c.params.Workers)
		for ctx.Err() == nil {
			cl := a.pickSeam(c.params.SeamFailureLimit)
			if cl == nil {
				break
			}
			g.Go(func() error {
				_, err := cl.Step(ctx, c.params.BatchSize)
				a.noteBatch(cl, err != nil)
				return nil // a failed seam must not stop the others
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}
		if a.Done() {
			return nil
		}
		if after := a.Remaining(); after == before {
			// no batch made progress; report what is stuck
			var errs []error
			for _, cl := range a.classifiers {
				if terr := cl.tree.Err(); terr != nil && !cl.tree.Done() {
					errs = append(errs, terr)
				}
			}
			return fmt.Errorf("area %q: %d probe points unresolved: %w",
				a.Name, after, errors.Join(append(errs, ErrIncomplete)...))
		}
	}
}

// PointQuery returns the classification of one exact probe coordinate on
// seam i, forcing classification of its leaf if it is still unresolved.
func (c *Catalog) PointQuery(ctx context.Context, a *Area, i int, w, y float32) (Classification, error) {
	if i < 0 || i >= len(a.classifiers) {
		return ClassUnresolved, fmt.Errorf("seam index %d out of range", i)
	}
	cl := a.classifiers[i]
	if cls, ok := cl.tree.Lookup(w, y); ok && cls != ClassUnresolved {
		return cls, nil
	}
	return cl.ResolvePoint(ctx, w, y)
}
