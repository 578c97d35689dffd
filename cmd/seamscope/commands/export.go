package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"seamscope/internal/seamscope"
)

func exportCmd() *cobra.Command {
	var (
		areaName        string
		seamIndex       int
		outPath         string
		statusName      string
		filterName      string
		minW, maxW      float32
		minY, maxY      float32
		includeSkipZone bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Enumerate a seam's exact float grid and write matching points to CSV",
		Long: `Enumerate every representable grid coordinate of one seam inside the
requested bounds, classify each point, and stream matching rows to a CSV
file. Near the origin the grid is extremely dense; with the skip zone
included, outputs can reach hundreds of gigabytes. The job cannot be
cancelled: terminating the process abandons a partial file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := seamscope.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			status, err := parseStatus(statusName)
			if err != nil {
				return err
			}
			filter, err := parseFilter(filterName)
			if err != nil {
				return err
			}

			catalog := seamscope.NewCatalog(seamscope.EdgeOracle{}, cfg.Params.Build(), logger)
			var area *seamscope.Area
			for _, areaCfg := range cfg.Areas {
				if areaCfg.Name == areaName {
					area = catalog.Enter(areaCfg.Name, areaCfg.BuildSurfaces())
					break
				}
			}
			if area == nil {
				return fmt.Errorf("area %q not in %s", areaName, cfgPath)
			}
			if seamIndex < 0 || seamIndex >= area.SeamCount() {
				return fmt.Errorf("seam index %d out of range (area has %d seams)", seamIndex, area.SeamCount())
			}
			seam := area.Seams()[seamIndex]

			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer out.Close()

			pipeline := &seamscope.Pipeline{Oracle: seamscope.EdgeOracle{}, Logger: logger}
			job, err := pipeline.Start(seam, seamscope.ExportOptions{
				MinW: minW, MaxW: maxW,
				MinY: minY, MaxY: maxY,
				Status:          status,
				Filter:          filter,
				IncludeSkipZone: includeSkipZone,
			}, out)
			if err != nil {
				return err
			}

			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-job.Done():
					if err := job.Err(); err != nil {
						return err
					}
					written, _, planned := job.Progress()
					fmt.Printf("wrote %d rows (%d points) to %s\n", written, planned, outPath)
					return nil
				case <-ticker.C:
					written, processed, planned := job.Progress()
					logger.Info("export progress",
						"written", written, "processed", processed, "planned", planned)
				}
			}
		},
	}

	cmd.Flags().StringVar(&areaName, "area", "", "area name from the config file")
	cmd.Flags().IntVar(&seamIndex, "seam", 0, "seam index within the area (see 'seams')")
	cmd.Flags().StringVarP(&outPath, "out", "o", "seam.csv", "output CSV filename")
	cmd.Flags().StringVar(&statusName, "status", "defects", "status filter (defects, gaps, overlaps, all)")
	cmd.Flags().StringVar(&filterName, "filter", "all", "y filter (all, int, qint)")
	cmd.Flags().Float32Var(&minW, "min-w", 0, "lower w bound (default: seam domain)")
	cmd.Flags().Float32Var(&maxW, "max-w", 0, "upper w bound (default: seam domain)")
	cmd.Flags().Float32Var(&minY, "min-y", 0, "lower y bound (default: seam domain)")
	cmd.Flags().Float32Var(&maxY, "max-y", 0, "upper y bound (default: seam domain)")
	cmd.Flags().BoolVar(&includeSkipZone, "include-skip-zone", false, "visit the [-1,1] x [-1,1] region too")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

func parseStatus(s string) (seamscope.StatusFilter, error) {
	switch s {
	case "defects", "":
		return seamscope.StatusGapsAndOverlaps, nil
	case "gaps":
		return seamscope.StatusGaps, nil
	case "overlaps":
		return seamscope.StatusOverlaps, nil
	case "all":
		return seamscope.StatusAll, nil
	default:
		return 0, fmt.Errorf("unknown status filter %q", s)
	}
}

func parseFilter(s string) (seamscope.PointFilter, error) {
	switch s {
	case "all", "":
		return seamscope.FilterNone, nil
	case "int":
		return seamscope.FilterIntY, nil
	case "qint":
		return seamscope.FilterQuarterIntY, nil
	default:
		return 0, fmt.Errorf("unknown y filter %q", s)
	}
}
