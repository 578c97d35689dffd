package seamscope

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrJobFailed is returned by ExportJob.Err when the job stopped before
// writing every planned row. Partial output is left in place; there is no
// cleanup guarantee.
var ErrJobFailed = errors.New("export job failed")

// StatusFilter selects which classifications an export writes.
type StatusFilter uint8

const (
	// StatusGapsAndOverlaps writes points with either defect.
	StatusGapsAndOverlaps StatusFilter = iota
	// StatusGaps writes points with a gap.
	StatusGaps
	// StatusOverlaps writes points with an overlap.
	StatusOverlaps
	// StatusAll writes every visited point.
	StatusAll
)

func (f StatusFilter) String() string {
	switch f {
	case StatusGaps:
		return "gaps"
	case StatusOverlaps:
		return "overlaps"
	case StatusAll:
		return "all"
	default:
		return "gaps and overlaps"
	}
}

// matches reports whether a classification passes the filter.
func (f StatusFilter) matches(c Classification) bool {
	switch f {
	case StatusGaps:
		return c.HasGap()
	case StatusOverlaps:
		return c.HasOverlap()
	case StatusAll:
		return true
	default:
		return c.HasGap() || c.HasOverlap()
	}
}

// ExportOptions bound and filter a full-resolution export.
type ExportOptions struct {
	// MinW/MaxW and MinY/MaxY bound the exported rectangle, all inclusive.
	// Leave a pair equal (zero) to take the seam's domain on that axis.
	MinW, MaxW float32
	MinY, MaxY float32
	// Status selects which classifications are written.
	Status StatusFilter
	// Filter is the read-time y predicate applied to written rows.
	Filter PointFilter
	// IncludeSkipZone visits the [-1,1] x [-1,1] region too. Near the
	// origin the grid is dense enough to make outputs enormous; the planned
	// count is exact either way.
	IncludeSkipZone bool
}

// ExportJob is one background full-enumeration export. It walks every
// representable grid coordinate in its rectangle, classifies each point via
// the oracle (independent of any result tree, which it never touches), and
// streams matching CSV rows to the sink. The job keeps running when views
// change; only process termination stops it.
type ExportJob struct {
	ID   uuid.UUID
	Seam *Seam
	Opts ExportOptions

	planned   uint64
	processed atomic.Uint64
	written   atomic.Uint64

	done chan struct{}
	err  error // written once before done closes
}

// Pipeline starts export jobs against an oracle. It is deliberately
// uncoupled from the classifier's worker pool so a large export cannot
// starve interactive classification.
type Pipeline struct {
	Oracle Oracle
	Logger *slog.Logger
	// Retries bounds per-probe oracle attempts; 0 means the default.
	Retries int
}

// skipZoneOverlap returns the number of grid points of r inside the skip zone.
func skipZoneOverlap(r gridRect) uint64 {
	zone := gridRect{w0: skipOrdLo, w1: skipOrdHi, y0: skipOrdLo, y1: skipOrdHi}
	o, ok := clipRect(r, zone)
	if !ok {
		return 0
	}
	return o.points()
}

// exportColumn is one w span of an export walk with the y spans to visit for
// every w in it. Bounds are inclusive ordinals.
type exportColumn struct {
	w  [2]uint32
	ys [][2]uint32
}

// cutZone returns the sub-spans of the ordinal span [lo, hi] lying outside
// the skip zone band, in ascending order.
func cutZone(lo, hi uint32) [][2]uint32 {
	var out [][2]uint32
	if lo < skipOrdLo {
		out = append(out, [2]uint32{lo, min(hi, skipOrdLo-1)})
	}
	if hi > skipOrdHi {
		out = append(out, [2]uint32{max(lo, skipOrdHi+1), hi})
	}
	return out
}

// exportColumns builds the iteration plan for a job's rectangle. With the
// skip zone excluded, the [-1,1] runs are cut out of the spans up front; the
// zone holds billions of ordinals per axis, so skipping its points one at a
// time would never finish.
func exportColumns(rect gridRect, includeZone bool) []exportColumn {
	fullY := [][2]uint32{{rect.y0, rect.y1}}
	if includeZone || !rect.intersectsSkipZone() {
		return []exportColumn{{w: [2]uint32{rect.w0, rect.w1}, ys: fullY}}
	}

	var cols []exportColumn
	if rect.w0 < skipOrdLo {
		cols = append(cols, exportColumn{w: [2]uint32{rect.w0, min(rect.w1, skipOrdLo - 1)}, ys: fullY})
	}
	if ys := cutZone(rect.y0, rect.y1); len(ys) > 0 {
		cols = append(cols, exportColumn{
			w:  [2]uint32{max(rect.w0, skipOrdLo), min(rect.w1, skipOrdHi)},
			ys: ys,
		})
	}
	if rect.w1 > skipOrdHi {
		cols = append(cols, exportColumn{w: [2]uint32{max(rect.w0, skipOrdHi + 1), rect.w1}, ys: fullY})
	}
	return cols
}

// Start begins an export over the requested rectangle and returns
// immediately. The job runs on its own goroutine with no cancellation by
// design; abandoning the process is the only way to stop it.
func (p *Pipeline) Start(seam *Seam, opts ExportOptions, sink io.Writer) (*ExportJob, error) {
	if p.Oracle == nil {
		return nil, errors.New("export: nil oracle")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// reject NaN/Inf before any bound reaches ordinal arithmetic;
	// stepping past +Inf lands on NaN bit patterns
	for _, v := range [4]float32{opts.MinW, opts.MaxW, opts.MinY, opts.MaxY} {
		if !isFinite32(v) {
			return nil, fmt.Errorf("export: non-finite bound %g", v)
		}
	}

	wr, yr := seam.Domain()
	if opts.MinW != opts.MaxW || opts.MinW != 0 {
		wr = RangeInclusive(opts.MinW, opts.MaxW)
	}
	if opts.MinY != opts.MaxY || opts.MinY != 0 {
		yr = RangeInclusive(opts.MinY, opts.MaxY)
	}
	if wr.IsEmpty() || yr.IsEmpty() {
		return nil, fmt.Errorf("export: empty rectangle")
	}

	rect := rectOf(wr, yr)
	planned := rect.points()
	if !opts.IncludeSkipZone {
		planned -= skipZoneOverlap(rect)
	}

	job := &ExportJob{
		ID:      uuid.New(),
		Seam:    seam,
		Opts:    opts,
		planned: planned,
		done:    make(chan struct{}),
	}

	retries := p.Retries
	if retries <= 0 {
		retries = DefaultOracleRetries
	}

	logger.Info("export started",
		"job", job.ID,
		"seam", seam.String(),
		"status", opts.Status.String(),
		"filter", opts.Filter.String(),
		"planned", planned)

	go job.run(p.Oracle, rect, retries, sink, logger)
	return job, nil
}

// Progress returns rows written, points classified so far, and the exact
// planned point count.
func (j *ExportJob) Progress() (written, processed, planned uint64) {
	return j.written.Load(), j.processed.Load(), j.planned
}

// Done is closed when the job finishes or fails.
func (j *ExportJob) Done() <-chan struct{} { return j.done }

// Err reports the job's outcome; call after Done is closed. nil means every
// planned point was visited and every matching row written.
func (j *ExportJob) Err() error { return j.err }

// Wait blocks until the job finishes and returns its outcome.
func (j *ExportJob) Wait() error {
	<-j.done
	return j.err
}

func (j *ExportJob) run(oracle Oracle, rect gridRect, retries int, sink io.Writer, logger *slog.Logger) {
	defer close(j.done)

	// The job outlives any view; it carries its own context.
	ctx := context.Background()

	w := csv.NewWriter(sink)
	fail := func(err error) {
		written, processed, planned := j.Progress()
		j.err = fmt.Errorf("%w after %d rows (%d/%d points): %w",
			ErrJobFailed, written, processed, planned, err)
		logger.Error("export failed", "job", j.ID, "err", err,
			"written", written, "processed", processed, "planned", planned)
	}

	if err := w.Write([]string{"w", "y", "status"}); err != nil {
		fail(err)
		return
	}

	classify := func(pw, py float32) (Sample, error) {
		var lastErr error
		for attempt := 0; attempt < retries; attempt++ {
			s, err := oracle.Classify(ctx, j.Seam, pw, py)
			if err == nil {
				return s, nil
			}
			lastErr = err
		}
		return Sample{}, lastErr
	}

	// included skip-zone points are classified like any other; the zone is
	// an interactive-path optimization only. When excluded, its runs are cut
	// out of the spans and never iterated.
	sinceFlush := 0
	for _, col := range exportColumns(rect, j.Opts.IncludeSkipZone) {
		for ow := col.w[0]; ; ow++ {
			pw := ordFloat(ow)
			for _, ys := range col.ys {
				for oy := ys[0]; ; oy++ {
					py := ordFloat(oy)

					s, err := classify(pw, py)
					if err != nil {
						fail(err)
						return
					}
					cls := classOf(s)
					j.processed.Add(1)

					if j.Opts.Status.matches(cls) && j.Opts.Filter.Matches(py) {
						rec := [3]string{
							strconv.FormatFloat(float64(pw), 'g', -1, 32),
							strconv.FormatFloat(float64(py), 'g', -1, 32),
							cls.String(),
						}
						if err := w.Write(rec[:]); err != nil {
							fail(err)
							return
						}
						j.written.Add(1)

						if sinceFlush++; sinceFlush >= ExportFlushEvery {
							sinceFlush = 0
							w.Flush()
							if err := w.Error(); err != nil {
								fail(err)
								return
							}
						}
					}

					if oy == ys[1] {
						break
					}
				}
			}
			if ow == col.w[1] {
				break
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fail(err)
		return
	}

	written, processed, planned := j.Progress()
	logger.Info("export complete", "job", j.ID,
		"written", written, "processed", processed, "planned", planned)
}
