package seamscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ClassifierParams tunes the subdivision heuristic. The defaults catch thin
// features without exhaustive search; any setting preserves the tree
// invariants.
type ClassifierParams struct {
	// InteriorSamples is the number of extra probes (beyond the four
	// corners) taken before a rectangle may be declared uniform.
	InteriorSamples int
	// OracleRetries is the number of attempts per probe before the node is
	// left unresolved for a later pass.
	OracleRetries int
}

func (p ClassifierParams) withDefaults() ClassifierParams {
	if p.InteriorSamples <= 0 {
		p.InteriorSamples = DefaultInteriorSamples
	}
	if p.OracleRetries <= 0 {
		p.OracleRetries = DefaultOracleRetries
	}
	return p
}

// Classifier refines one seam's result tree by recursive corner-agreement
// subdivision: rectangles whose boundary and interior probes all agree
// become uniform leaves, everything else splits at grid midpoints until the
// one-grid-unit floor.
type Classifier struct {
	tree   *ResultTree
	oracle *cachedOracle
	params ClassifierParams
	logger *slog.Logger
}

// NewClassifier creates a classifier bound to one tree. The oracle is
// wrapped in a per-seam memo cache so boundary samples shared between
// adjacent cells are fetched once.
func NewClassifier(oracle Oracle, tree *ResultTree, params ClassifierParams, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		tree:   tree,
		oracle: newCachedOracle(oracle, tree.seam),
		params: params.withDefaults(),
		logger: logger,
	}
}

// Tree returns the tree this classifier refines.
func (c *Classifier) Tree() *ResultTree { return c.tree }

// Step takes up to budget pending rectangles from the frontier and
// classifies or splits each. It reports whether the whole domain is
// resolved. Probe failures leave their nodes unresolved and re-queued; the
// returned error aggregates them without discarding completed work.
func (c *Classifier) Step(ctx context.Context, budget int) (bool, error) {
	if budget <= 0 {
		budget = DefaultBatchSize
	}
	var errs []error
	batch := c.tree.popFrontier(budget)
	for i, idx := range batch {
		if err := ctx.Err(); err != nil {
			// unprocessed work goes back for a later pass
			for _, rest := range batch[i:] {
				c.tree.pushFrontierOne(rest)
			}
			errs = append(errs, err)
			break
		}
		if err := c.processNode(ctx, idx); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		c.tree.setErr(err)
	}
	return c.tree.Done(), err
}

// Run refines the tree to completion. Single-goroutine convenience used by
// tests and point queries; the catalog drives Step from its worker pool
// instead.
func (c *Classifier) Run(ctx context.Context) error {
	for {
		done, err := c.Step(ctx, DefaultBatchSize)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// ResolvePoint forces classification of the exact coordinate's leaf and
// returns its classification. Work is bounded by the subdivision depth to
// the single-cell floor.
func (c *Classifier) ResolvePoint(ctx context.Context, w, y float32) (Classification, error) {
	t := c.tree
	ow, oy := ordOf(w), ordOf(y)
	if !t.domain.contains(ow, oy) {
		return ClassUnresolved, fmt.Errorf("probe (%g, %g) outside seam domain", w, y)
	}

	idx := int32(0)
	for {
		n := t.arena.at(idx)
		switch st := n.state.Load(); st {
		case stateSplit:
			base := n.kids.Load()
			count := len(n.rect.split())
			for i := 0; i < count; i++ {
				if t.arena.at(base + int32(i)).rect.contains(ow, oy) {
					idx = base + int32(i)
					break
				}
			}
		case stateClaimed:
			// another worker is sampling this node; wait it out
			if err := ctx.Err(); err != nil {
				return ClassUnresolved, err
			}
			time.Sleep(50 * time.Microsecond)
		case int32(ClassUnresolved):
			if err := c.processNode(ctx, idx); err != nil {
				return ClassUnresolved, err
			}
		default:
			return Classification(st), nil
		}
	}
}

// processNode resolves, skips or splits a single pending rectangle. On a
// probe failure the claim is released and the node re-queued so it is
// retried later rather than silently misclassified.
func (c *Classifier) processNode(ctx context.Context, idx int32) error {
	t := c.tree
	n := t.arena.at(idx)
	if !n.state.CompareAndSwap(int32(ClassUnresolved), stateClaimed) {
		return nil // resolved or claimed elsewhere
	}

	r := n.rect

	if r.insideSkipZone() {
		t.resolveLeaf(n, ClassSkipped)
		return nil
	}

	if r.intersectsSkipZone() {
		// straddles the skip zone; recursion separates it without sampling
		base, count := t.splitNode(n)
		t.pushFrontier(base, count)
		return nil
	}

	if r.singleCell() {
		// terminal cell: classified from its own sample, irreducible
		// heterogeneity with neighbours is recorded, not subdivided
		s, err := c.sample(ctx, r.minW(), r.minY())
		if err != nil {
			c.release(n, idx)
			return err
		}
		t.resolveLeaf(n, classOf(s))
		return nil
	}

	cls, uniform, err := c.probeRect(ctx, r)
	if err != nil {
		c.release(n, idx)
		return err
	}
	if uniform {
		t.resolveLeaf(n, cls)
		return nil
	}

	base, count := t.splitNode(n)
	t.pushFrontier(base, count)
	return nil
}

func (c *Classifier) release(n *node, idx int32) {
	n.state.Store(int32(ClassUnresolved))
	c.tree.pushFrontierOne(idx)
}

// probeRect samples the rectangle's four corners plus the interior pattern
// and reports the common classification if all probes agree.
func (c *Classifier) probeRect(ctx context.Context, r gridRect) (Classification, bool, error) {
	probes := [][2]uint32{
		{r.w0, r.y0}, {r.w1, r.y0}, {r.w0, r.y1}, {r.w1, r.y1},
	}
	probes = appendInterior(probes, r, c.params.InteriorSamples)

	var cls Classification
	for i, p := range probes {
		s, err := c.sample(ctx, ordFloat(p[0]), ordFloat(p[1]))
		if err != nil {
			return ClassUnresolved, false, err
		}
		cc := classOf(s)
		if i == 0 {
			cls = cc
		} else if cc != cls {
			return ClassUnresolved, false, nil
		}
	}
	return cls, true, nil
}

// appendInterior adds up to count deterministic grid-snapped probes: the
// cell center and the four edge midpoints, minus duplicates of positions
// already listed. Deterministic probes keep classification reproducible.
func appendInterior(probes [][2]uint32, r gridRect, count int) [][2]uint32 {
	midW := r.w0 + (r.w1-r.w0)/2
	midY := r.y0 + (r.y1-r.y0)/2
	pattern := [][2]uint32{
		{midW, midY},
		{midW, r.y0}, {midW, r.y1},
		{r.w0, midY}, {r.w1, midY},
	}

	seen := make(map[[2]uint32]struct{}, len(probes)+count)
	for _, p := range probes {
		seen[p] = struct{}{}
	}
	added := 0
	for _, p := range pattern {
		if added >= count {
			break
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		probes = append(probes, p)
		added++
	}
	return probes
}

// sample queries the memoized oracle with bounded retries. Exhausting the
// retries surfaces the error; a verdict is never fabricated.
func (c *Classifier) sample(ctx context.Context, w, y float32) (Sample, error) {
	var lastErr error
	for attempt := 0; attempt < c.params.OracleRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Sample{}, err
		}
		s, err := c.oracle.classify(ctx, w, y)
		if err == nil {
			return s, nil
		}
		lastErr = err
	}
	c.logger.Warn("probe failed", "seam", c.tree.seam.String(), "w", w, "y", y, "err", lastErr)
	return Sample{}, fmt.Errorf("probe (%g, %g): %w", w, y, lastErr)
}
