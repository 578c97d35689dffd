package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"seamscope/internal/seamscope"
)

func seamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seams",
		Short: "List the seams discovered in each configured area",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := seamscope.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			catalog := seamscope.NewCatalog(seamscope.EdgeOracle{}, cfg.Params.Build(), logger)
			for _, areaCfg := range cfg.Areas {
				area := catalog.Enter(areaCfg.Name, areaCfg.BuildSurfaces())
				droppedSurfaces, droppedSeams := area.Dropped()
				fmt.Printf("%s: %d seams (%d surfaces dropped, %d seams dropped)\n",
					area.Name, area.SeamCount(), droppedSurfaces, droppedSeams)
				for i, seam := range area.Seams() {
					w, y := seam.Domain()
					fmt.Printf("  [%d] %s  w %g..%g  y %g..%g  (%d points)\n",
						i, seam, w.Start, seamscope.StepDown32(w.End), y.Start, seamscope.StepDown32(y.End),
						w.Count()*y.Count())
				}
			}
			return nil
		},
	}
}
