package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"careeros/internal/common"
	"careeros/internal/errors"
	"careeros/internal/session"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell [resume-file]",
	Short: "Work with your matches interactively",
	Long: `Start an interactive session. Commands are read from stdin, one per line,
and the view is printed after every command. Alerts are printed to stderr.

Type 'help' for the list of commands.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &shellConfig)
	},
	RunE: runShell,
}

var shellConfig common.CommandConfig

func init() {
	shellCmd.Flags().StringVar(&shellConfig.OutputFormat, "format", "", "View format: text, markdown or json")
}

const shellHelp = `Commands:
  upload <file>   upload a resume
  show            print the current view
  select <job>    open job details
  close           close any open details, post-mortem or audit
  roadmap <job>   generate a learning roadmap
  reject <job>    reject a job
  why <job>       explain why you were not a fit
  tailor <job>    tailor resume bullets to a job
  audit           audit the resume
  reset           start over with a new resume
  help            show this help
  quit            leave the shell
Jobs are referenced by position (1, 2, ...) or job id.`

func runShell(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	rt, err := newRuntime(cfg, logger, session.WithNotifier(newConsoleNotifier(cmd.ErrOrStderr())))
	if err != nil {
		return err
	}
	defer rt.close(logger)

	sh := newShell(rt.session, logger, cfg.App.MaxFileSize, shellConfig.OutputFormat, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if len(args) == 1 {
		sh.exec(cmd.Context(), "upload "+args[0])
	}
	return sh.run(cmd.Context(), cmd.InOrStdin())
}

// shell executes line commands against one session
type shell struct {
	sess     *session.Session
	files    *common.FileProcessor
	renderer *common.OutputHandler
	format   string
	out      io.Writer
	errOut   io.Writer
}

func newShell(sess *session.Session, logger *errors.Logger, maxFileSize int64, format string, out, errOut io.Writer) *shell {
	if format == "" {
		format = "text"
	}
	return &shell{
		sess:     sess,
		files:    common.NewFileProcessor(logger, maxFileSize),
		renderer: common.NewOutputHandlerWithWriter(logger, io.Discard),
		format:   format,
		out:      out,
		errOut:   errOut,
	}
}

// run reads commands until quit, end of input or cancellation
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(sh.out, "CareerOS shell. Type 'help' for commands.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if !sh.exec(ctx, scanner.Text()) {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should continue
func (sh *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	name, arg := fields[0], strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	var err error
	switch strings.ToLower(name) {
	case "quit", "exit":
		return false
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
		return true
	case "show", "jobs":
	case "upload":
		err = sh.upload(ctx, arg)
	case "select":
		err = sh.forJob(arg, func(jobID string) error { return sh.sess.SelectJob(jobID) })
	case "close":
		sh.sess.CloseJobDetail()
		sh.sess.ClosePostMortem()
		sh.sess.CloseAudit()
	case "roadmap":
		err = sh.forJob(arg, func(jobID string) error { return sh.sess.GenerateRoadmap(ctx, jobID) })
	case "reject":
		err = sh.forJob(arg, func(jobID string) error { return sh.sess.RejectJob(ctx, jobID) })
	case "why", "post-mortem":
		err = sh.forJob(arg, func(jobID string) error { return sh.sess.RequestPostMortem(ctx, jobID) })
	case "tailor":
		err = sh.forJob(arg, func(jobID string) error { return sh.sess.TailorResume(ctx, jobID) })
	case "audit":
		err = sh.sess.AuditResume(ctx)
	case "reset":
		sh.sess.Reset()
	default:
		fmt.Fprintf(sh.errOut, "unknown command %q, type 'help'\n", name)
		return true
	}

	if err != nil {
		fmt.Fprintf(sh.errOut, "error: %s\n", errors.Message(err))
		return true
	}
	sh.show()
	return true
}

func (sh *shell) upload(ctx context.Context, path string) error {
	if path == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "usage: upload <file>", nil)
	}
	resume, err := sh.files.ReadResume(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "Analyzing Profile...")
	return sh.sess.UploadResume(ctx, resume.Name, resume.Reader())
}

// forJob resolves a job reference against the current matches
func (sh *shell) forJob(ref string, action func(jobID string) error) error {
	jobID, err := common.ResolveJobRef(ref, sh.sess.Snapshot().Matches)
	if err != nil {
		return err
	}
	return action(jobID)
}

// show prints the view; a pending scroll request is satisfied by printing it
func (sh *shell) show() {
	snap := sh.sess.Snapshot()
	output, err := sh.renderer.Render(snap, sh.format)
	if err != nil {
		fmt.Fprintf(sh.errOut, "error: %s\n", errors.Message(err))
		return
	}
	fmt.Fprintln(sh.out, output)
	if snap.ScrollTarget != "" {
		sh.sess.ConsumeScroll()
	}
}

// consoleNotifier prints alerts to a terminal stream
type consoleNotifier struct {
	w io.Writer
}

func newConsoleNotifier(w io.Writer) *consoleNotifier {
	return &consoleNotifier{w: w}
}

func (n *consoleNotifier) Alert(message string) {
	fmt.Fprintf(n.w, "! %s\n", message)
}

func (n *consoleNotifier) ScrollTo(section string) {
	fmt.Fprintf(n.w, "(see %s below)\n", section)
}
