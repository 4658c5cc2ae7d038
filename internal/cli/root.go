package cli

import (
	"context"
	"fmt"

	"careeros/internal/common"
	"careeros/internal/config"
	"careeros/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "careeros",
	Short: "A terminal and HTTP client for the CareerOS resume service",
	Long: `CareerOS uploads your resume to the CareerOS service, shows the jobs it
matches, and lets you generate learning roadmaps, reject jobs, ask why you
were not a fit, audit your resume and tailor it to a job.`,
	SilenceUsage:      true,
	PersistentPreRunE: applyGlobalFlags,
}

var globalFlags struct {
	configFile string
	logLevel   string
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = withRuntime(ctx, cfg, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func withRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// applyGlobalFlags reloads the config from --config and rebuilds the logger for --log-level
func applyGlobalFlags(cmd *cobra.Command, args []string) error {
	if globalFlags.configFile == "" && globalFlags.logLevel == "" {
		return nil
	}

	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if globalFlags.configFile != "" {
		loaded, err := config.LoadConfigFile(globalFlags.configFile)
		if err != nil {
			return err
		}
		if err := config.ApplyVaultSecrets(loaded, logger); err != nil {
			return fmt.Errorf("failed to apply vault secrets: %w", err)
		}
		cfg = loaded
	}

	level := cfg.App.LogLevel
	if globalFlags.logLevel != "" {
		level = globalFlags.logLevel
		cfg.App.LogLevel = level
	}
	rebuilt, err := errors.New(level)
	if err != nil {
		return err
	}

	cmd.SetContext(withRuntime(cmd.Context(), cfg, rebuilt))
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// addOutputFlags registers --output and --format on cmd, bound to target
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutputFormat applies the configured default and validates the result
func resolveOutputFormat(cmd *cobra.Command, target *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	// Apply default format if not specified
	if target.OutputFormat == "" {
		target.OutputFormat = cfg.App.DefaultFormat
	}
	// Validate format against supported formats
	return common.ValidateOutputFormat(target.OutputFormat, cfg.App.SupportedFormats)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.careeros or /etc/careeros)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}
