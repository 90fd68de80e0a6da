// =============================================================================
// Meal Voucher Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (vouchers)
//   ├── renderCmd  (vouchers render)
//   ├── inspectCmd (vouchers inspect)
//   ├── serveCmd   (vouchers serve)
//   └── versionCmd (vouchers version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --tier, --style)
//   2. Loading the YAML configuration (defaults when the file is missing)
//   3. Applying flag and environment overrides through Viper
//   4. Setting up logging
//
// OVERRIDE PRECEDENCE (highest first):
//   --tier / --style flags
//   VOUCHERS_TIER / VOUCHERS_STYLE environment variables
//   tier / render_style in the configuration file
//   built-in defaults (PC, boxes)
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is read when --config is not given. It may be absent.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is the configuration resolved by initConfig.
var appConfig *config.Config

// logger is the application logger built by initConfig.
var logger = zap.NewNop()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vouchers",
	Short: "Meal Voucher Generator - Printable meal vouchers from reservation exports",
	Long: `Meal Voucher Generator reads a hotel reservation export (delimited text),
selects the guests entitled to meals under the active service tier, groups
guests sharing a room into one voucher, and renders printable vouchers with
a day-by-day check-off grid.

Service tiers:
  MAP  half board, one meal (dinner) per person per night
  PC   full board, two meals (lunch and dinner) per person per night

Example Usage:
  vouchers render --file export.csv              # Render to ./output
  vouchers render --file export.csv --tier MAP   # Half-board vouchers
  vouchers inspect --file export.csv             # Summary without writing
  vouchers serve --addr :8080                    # Browser upload page`,

	SilenceUsage:      true,
	PersistentPreRunE: initConfig,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and runs it. The
// command context is cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	logger.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags and binds the overridable ones to Viper.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is config.yaml, optional)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().String("tier", "", "Service tier: MAP (half board) or PC (full board)")
	rootCmd.PersistentFlags().String("style", "", "Check-off rendering: boxes or image")

	_ = viper.BindPFlag("tier", rootCmd.PersistentFlags().Lookup("tier"))
	_ = viper.BindPFlag("style", rootCmd.PersistentFlags().Lookup("style"))

	viper.SetEnvPrefix("VOUCHERS")
	viper.AutomaticEnv()
}

// initConfig resolves appConfig and logger before any subcommand runs.
func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	if err := applyOverrides(cfg, viper.GetString("tier"), viper.GetString("style")); err != nil {
		return err
	}

	logSettings := cfg.Log
	if verbose {
		logSettings.Level = "debug"
	}
	log, err := utils.NewLogger(utils.LoggerConfig{
		Level:      logSettings.Level,
		OutputPath: logSettings.OutputPath,
		Format:     logSettings.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	appConfig = cfg
	logger = log

	logger.Debug("configuration resolved",
		zap.String("config_file", cfgFile),
		zap.String("tier", string(cfg.Tier)),
		zap.String("render_style", string(cfg.RenderStyle)),
	)
	return nil
}

// loadConfig reads path, or the default file when path is empty. Only a
// missing default file falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("failed to load config %s: %w", path, err)
}

// applyOverrides sets the tier and render style from flags or environment.
// Empty values leave the configuration unchanged.
func applyOverrides(cfg *config.Config, tier, style string) error {
	if tier != "" {
		t, err := config.ParseTier(tier)
		if err != nil {
			return err
		}
		cfg.Tier = t
	}
	if style != "" {
		s, err := config.ParseRenderStyle(style)
		if err != nil {
			return err
		}
		cfg.RenderStyle = s
	}
	return nil
}
