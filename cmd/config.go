package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/tremor-analyzer/configs"
	"github.com/RyanBlaney/tremor-analyzer/internal/app"
	"github.com/RyanBlaney/tremor-analyzer/pkg/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and
TREMOR_ANALYZER_* environment variables are applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a session configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd, configValidateCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false,
		"overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	config, err := loadBaseConfig()
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(outputFormat)
	if err != nil {
		return err
	}

	data, err := formatter.Format(config, true)
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	if used := viper.ConfigFileUsed(); used != "" && !quiet {
		fmt.Fprintf(os.Stderr, "# %s\n", used)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(defaultConfigDir(), configs.AppName+".yaml")
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := app.GenerateExampleConfig(path); err != nil {
		return err
	}

	printSuccess("Wrote default configuration to %s", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	printHeader("Validating", args[0])

	config, err := app.ValidateConfigFile(args[0])
	if err != nil {
		printError("%v", err)
		return fmt.Errorf("invalid configuration file: %s", args[0])
	}

	printSuccess("Configuration is valid")

	printSection("Session")
	printKeyValue("Duration", config.Session.Duration.String())
	printKeyValue("Capacity", fmt.Sprintf("%d samples", config.Session.Capacity))
	printKeyValue("Min samples", fmt.Sprintf("%d", config.Analysis.MinSamples))

	printSection("Synthetic")
	printKeyValue("Target frequency", fmt.Sprintf("%.2f Hz", config.Synthetic.TargetHz))
	printKeyValue("Spacing", config.Synthetic.Spacing.String())
	printKeyValue("Noise", fmt.Sprintf("%.3f", config.Synthetic.Noise))

	printSection("Replay")
	printKeyValue("Realtime", fmt.Sprintf("%t", config.Replay.Realtime))
	printKeyValue("Format", config.Replay.Format)

	if config.Session.Duration > 0 && config.Synthetic.Spacing > 0 {
		perSession := int(config.Session.Duration / config.Synthetic.Spacing)
		if perSession < config.Analysis.MinSamples {
			fmt.Println()
			printWarning("a %s session at %s spacing yields %d samples, below the minimum of %d",
				config.Session.Duration, config.Synthetic.Spacing, perSession, config.Analysis.MinSamples)
		}
	}

	return nil
}

func defaultConfigDir() string {
	if configDir != "" {
		return configDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", configs.AppName)
}
