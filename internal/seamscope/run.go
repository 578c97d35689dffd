package seamscope

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// SeamSummary is one seam's classification outcome, for operator output.
type SeamSummary struct {
	Index     int
	Seam      *Seam
	Remaining uint64
	Total     uint64
	Overall   Classification
	Err       error
}

// AreaSummaries reports every seam of an area in discovery order.
func AreaSummaries(a *Area) []SeamSummary {
	out := make([]SeamSummary, a.SeamCount())
	for i := range out {
		t := a.Tree(i)
		remaining, total := t.Progress()
		out[i] = SeamSummary{
			Index:     i,
			Seam:      t.Seam(),
			Remaining: remaining,
			Total:     total,
			Overall:   t.Overall(),
			Err:       t.Err(),
		}
	}
	return out
}

// Run classifies every area in the config to completion against the oracle
// (the analytic edge oracle when nil) and logs per-seam outcomes. Area
// failures are collected, not fatal to the other areas.
func Run(ctx context.Context, cfgPath string, oracle Oracle, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if oracle == nil {
		oracle = EdgeOracle{}
	}

	catalog := NewCatalog(oracle, cfg.Params.Build(), logger)

	var errs []error
	for _, areaCfg := range cfg.Areas {
		area := catalog.Enter(areaCfg.Name, areaCfg.BuildSurfaces())

		start := time.Now()
		if err := catalog.Classify(ctx, area); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Error("area degraded", "area", area.Name, "err", err)
			errs = append(errs, err)
		}
		elapsed := time.Since(start)

		logger.Info("area classified",
			"area", area.Name,
			"seams", area.SeamCount(),
			"remaining", area.Remaining(),
			"elapsed", elapsed)

		for _, s := range AreaSummaries(area) {
			logger.Info("seam",
				"area", area.Name,
				"index", s.Index,
				"seam", s.Seam.String(),
				"class", s.Overall.String(),
				"remaining", s.Remaining,
				"total", s.Total)
		}
	}
	return errors.Join(errs...)
}
