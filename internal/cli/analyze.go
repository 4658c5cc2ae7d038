package cli

import (
	"context"
	"fmt"

	"careeros/internal/common"
	"careeros/internal/session"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Upload a resume and show the jobs it matches",
	Long: `Upload a resume to the CareerOS service and print the resulting view:
the parsed profile and the scored job matches.

Jobs are referenced by their 1-based position in the match list or by job id.
Optional actions run in this order after the upload:
- --job: open the job details
- --roadmap: generate a learning roadmap toward a job
- --tailor: rewrite resume bullet points for a job
- --post-mortem: explain why the profile was not a fit
- --reject: tell the service the job was rejected
- --audit: run an ATS-style audit of the resume`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &analyzeConfig)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

var analyzeFlags struct {
	job        string
	roadmap    string
	tailor     string
	postMortem string
	reject     string
	audit      bool
}

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig)

	analyzeCmd.Flags().StringVar(&analyzeFlags.job, "job", "", "Open the details of a job (position or id)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.roadmap, "roadmap", "", "Generate a roadmap toward a job (position or id)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.tailor, "tailor", "", "Tailor resume bullets to a job (position or id)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.postMortem, "post-mortem", "", "Explain a rejection for a job (position or id)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.reject, "reject", "", "Reject a job (position or id)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.audit, "audit", false, "Audit the resume")
}

// analyzeSteps turns the action flags into session steps in their fixed order
func analyzeSteps() []common.SessionStep {
	var steps []common.SessionStep

	if analyzeFlags.job != "" {
		steps = append(steps, common.ForJob(analyzeFlags.job, func(_ context.Context, sess *session.Session, jobID string) error {
			return sess.SelectJob(jobID)
		}))
	}
	if analyzeFlags.roadmap != "" {
		steps = append(steps, common.ForJob(analyzeFlags.roadmap, func(ctx context.Context, sess *session.Session, jobID string) error {
			return sess.GenerateRoadmap(ctx, jobID)
		}))
	}
	if analyzeFlags.tailor != "" {
		steps = append(steps, common.ForJob(analyzeFlags.tailor, func(ctx context.Context, sess *session.Session, jobID string) error {
			return sess.TailorResume(ctx, jobID)
		}))
	}
	if analyzeFlags.postMortem != "" {
		steps = append(steps, common.ForJob(analyzeFlags.postMortem, func(ctx context.Context, sess *session.Session, jobID string) error {
			return sess.RequestPostMortem(ctx, jobID)
		}))
	}
	if analyzeFlags.reject != "" {
		steps = append(steps, common.ForJob(analyzeFlags.reject, func(ctx context.Context, sess *session.Session, jobID string) error {
			return sess.RejectJob(ctx, jobID)
		}))
	}
	if analyzeFlags.audit {
		steps = append(steps, func(ctx context.Context, sess *session.Session) error {
			return sess.AuditResume(ctx)
		})
	}

	return steps
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	rt, err := newRuntime(cfg, logger, session.WithNotifier(newConsoleNotifier(cmd.ErrOrStderr())))
	if err != nil {
		return err
	}
	defer rt.close(logger)

	steps := analyzeSteps()
	logger.Info("Starting resume analysis",
		"file", args[0],
		"actions", len(steps),
		"output_format", analyzeConfig.OutputFormat)

	runner := common.NewSessionRunner(logger, cfg.App.MaxFileSize, cmd.OutOrStdout())
	if err := runner.Run(cmd.Context(), analyzeConfig, rt.session, args[0], steps...); err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}

	logger.Info("Resume analysis completed successfully")
	return nil
}
