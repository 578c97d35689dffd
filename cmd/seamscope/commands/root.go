package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"seamscope/internal/logging"
)

var (
	cfgPath   string
	logLevel  string
	logFormat string
	logger    *slog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "seamscope",
		Short:         "Detect gaps and overlaps between adjoining wall surfaces",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logging.ParseLevel(logLevel); err != nil {
				return err
			}
			logger = logging.New(logging.Config{
				Level:   logLevel,
				Format:  logFormat,
				Service: "seamscope",
			})
			slog.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "areas.yaml", "area geometry config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(scanCmd(), seamsCmd(), exportCmd())
	return root.Execute()
}
