package cli

import (
	"context"
	"fmt"

	"careeros/internal/common"
	"careeros/internal/watcher"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Upload resumes as they appear in a directory",
	Long: `Watch a directory and upload every new or changed resume to the CareerOS
service. The view for each upload is printed once the file has stopped
changing for the configured debounce delay (watch.debounceDelay).`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &watchConfig)
	},
	RunE: runWatch,
}

var watchConfig common.CommandConfig

func init() {
	watchCmd.Flags().StringVar(&watchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	runner := common.NewSessionRunner(logger, cfg.App.MaxFileSize, cmd.OutOrStdout())
	handle := func(ctx context.Context, path string) error {
		return runner.Run(ctx, watchConfig, rt.session, path)
	}

	w, err := watcher.New(args[0], cfg.Watch, handle, logger)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(cmd.Context())
}
