package common

import (
	"context"
	"io"

	"careeros/internal/errors"
	"careeros/internal/session"
)

// SessionStep is one user action run against a session after the upload
type SessionStep func(ctx context.Context, sess *session.Session) error

// JobAction is a session action that targets a single job
type JobAction func(ctx context.Context, sess *session.Session, jobID string) error

// ForJob resolves ref against the current matches and then runs action.
// ref is resolved lazily because matches only exist once the upload is done.
func ForJob(ref string, action JobAction) SessionStep {
	return func(ctx context.Context, sess *session.Session) error {
		jobID, err := ResolveJobRef(ref, sess.Snapshot().Matches)
		if err != nil {
			return err
		}
		return action(ctx, sess, jobID)
	}
}

// SessionRunner drives the file-based commands: read a resume, upload it,
// run the requested steps and render the resulting view.
type SessionRunner struct {
	fileProcessor *FileProcessor
	outputHandler *OutputHandler
	logger        *errors.Logger
}

// NewSessionRunner creates a runner printing to out when no output file is set
func NewSessionRunner(logger *errors.Logger, maxFileSize int64, out io.Writer) *SessionRunner {
	if logger == nil {
		logger = errors.Discard()
	}
	return &SessionRunner{
		fileProcessor: NewFileProcessor(logger, maxFileSize),
		outputHandler: NewOutputHandlerWithWriter(logger, out),
		logger:        logger,
	}
}

// Run uploads resumePath through sess and applies steps in order. The first
// failing step stops the run and nothing is rendered.
func (r *SessionRunner) Run(ctx context.Context, cmdConfig CommandConfig, sess *session.Session, resumePath string, steps ...SessionStep) error {
	// Fail on a bad output path before spending a remote call
	if err := r.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	resume, err := r.fileProcessor.ReadResume(resumePath)
	if err != nil {
		return err
	}

	r.logger.Info("Uploading resume",
		"file", resume.Name,
		"pages", resume.Pages,
		"format", cmdConfig.OutputFormat)

	if err := sess.UploadResume(ctx, resume.Name, resume.Reader()); err != nil {
		return err
	}

	for _, step := range steps {
		if err := step(ctx, sess); err != nil {
			return err
		}
	}

	return r.outputHandler.HandleOutput(sess.Snapshot(), cmdConfig)
}

// Render writes the session's current view without uploading anything
func (r *SessionRunner) Render(sess *session.Session, cmdConfig CommandConfig) error {
	return r.outputHandler.HandleOutput(sess.Snapshot(), cmdConfig)
}
