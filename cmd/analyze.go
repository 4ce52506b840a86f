package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/tremor-analyzer/internal/app"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
)

var (
	analyzeSessionConfig string
	analyzeCapacity      int
	analyzeOutputFile    string
	analyzePoints        bool
	analyzeDetailed      bool
	analyzeRealtime      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyse a recorded sample file",
	Long: `Replay a recorded CSV or JSON-lines file through a session as fast as
possible and print the analysis of its last window.

Rows without a t_ms column are spaced by replay.spacing (100ms by default).
Malformed rows are skipped with a warning.

Examples:
  tremor-analyzer analyze tremor.csv
  tremor-analyzer analyze --detailed -o yaml tremor.jsonl
  cat tremor.csv | tremor-analyzer analyze -`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeSessionConfig, "session-config", "",
		"session configuration file (yaml or json)")
	analyzeCmd.Flags().IntVar(&analyzeCapacity, "capacity", 0,
		"sliding window size in samples (default from config, 300)")
	analyzeCmd.Flags().StringVarP(&analyzeOutputFile, "output-file", "f", "",
		"write results to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzePoints, "points", false,
		"include (time, magnitude) chart points")
	analyzeCmd.Flags().BoolVar(&analyzeDetailed, "detailed", false,
		"include window statistics")
	analyzeCmd.Flags().BoolVar(&analyzeRealtime, "realtime", false,
		"replay at the recorded pace")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	base, err := loadBaseConfig()
	if err != nil {
		return err
	}

	tremor, err := app.NewTremorApp(&app.Context{
		ConfigFile:    analyzeSessionConfig,
		Locator:       args[0],
		SourceType:    string(common.SourceTypeReplay),
		OutputFile:    analyzeOutputFile,
		OutputFormat:  outputFormatFlag(cmd),
		Capacity:      analyzeCapacity,
		Fast:          !analyzeRealtime,
		Verbose:       verbose,
		Quiet:         quiet,
		Detailed:      analyzeDetailed,
		IncludePoints: analyzePoints,
	}, base)
	if err != nil {
		return err
	}

	return tremor.Record(cmd.Context())
}
