package cli

import (
	"fmt"

	"careeros/internal/common"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the CareerOS service is reachable",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &healthConfig)
	},
	RunE: runHealth,
}

var healthConfig common.CommandConfig

func init() {
	addOutputFlags(healthCmd, &healthConfig)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	status, err := rt.client.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("service at %s is not healthy: %w", rt.client.BaseURL(), err)
	}

	return common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout()).HandleOutput(status, healthConfig)
}
