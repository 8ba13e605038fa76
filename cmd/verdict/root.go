package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/telemetry/logging"
)

// defaultConfigFile is used when --config is not given and the file exists.
const defaultConfigFile = "verdict.yaml"

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Verdict - condition evaluation for strategy game rule sets",
	Long: `Verdict evaluates trigger and victory conditions declared in rule-set files.

Conditions are owned by players and combine other conditions with AND, OR,
XOR or counting policies, optionally inverted and weighted by a chance.

Configuration is read from --config (default: ./verdict.yaml when present)
and VERDICT_* environment variables, which take precedence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./verdict.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (json, text, console)")
}

// loadConfig reads the configuration, applies flag overrides and installs the
// default logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, cli.NewConfigError("", err.Error())
		}
	}

	if err := config.Initialize(path); err != nil {
		return nil, nil, cli.NewConfigError("", err.Error())
	}
	cfg := config.Get()

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Telemetry.Logging.Format = logFormat
	}

	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return cfg, logger, nil
}

// formatter returns the formatter for a --format flag value.
func formatter(format string) (cli.Formatter, error) {
	return cli.NewFormatter(cli.OutputFormat(format))
}

// commandContext returns the command context, or Background when the command
// runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
