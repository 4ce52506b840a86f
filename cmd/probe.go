package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/tremor-analyzer/internal/app"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
)

var probeCmd = &cobra.Command{
	Use:   "probe <source>",
	Short: "Check that a sample source is available",
	Long: `Detect the type of a source locator and probe it without starting a
session. Exits non-zero when the source is unavailable.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	locator := args[0]
	config, err := loadBaseConfig()
	if err != nil {
		return err
	}

	printHeader("Probing", locator)
	start := time.Now()

	printStep(1, "Detecting source type")
	factory := source.NewFactory(app.SourceOptions(config))
	src, err := factory.DetectAndCreate(cmd.Context(), locator)
	if err != nil {
		printError("%v", err)
		return err
	}
	printSuccess("Detected %s source", src.Type())

	printStep(2, "Probing capability")
	capability, err := src.Probe(cmd.Context())
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPermissionDenied):
			printError("Access denied: %v", err)
		case errors.Is(err, common.ErrCapabilityUnavailable):
			printError("Source unavailable: %v", err)
		default:
			printError("%v", err)
		}
		return fmt.Errorf("probe failed for %s", locator)
	}
	printSuccess("Source is available")

	printSection("Capability")
	printKeyValue("Type", string(capability.Type))
	printKeyValue("Locator", capability.Locator)
	if capability.Description != "" {
		printKeyValue("Description", capability.Description)
	}
	if capability.NominalRateHz > 0 {
		printKeyValue("Nominal rate", fmt.Sprintf("%.2f Hz", capability.NominalRateHz))
		perSession := int(capability.NominalRateHz * config.Session.Duration.Seconds())
		if perSession < config.Analysis.MinSamples {
			printWarning("%d samples per %s session is below the minimum of %d",
				perSession, config.Session.Duration, config.Analysis.MinSamples)
		}
	} else {
		printInfo("Rate depends on the recorded timestamps")
	}

	fmt.Printf("\n%sProbe took %v%s\n", ColorBold, time.Since(start).Round(time.Millisecond), ColorReset)
	return nil
}
