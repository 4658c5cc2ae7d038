package common

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"careeros/internal/errors"
	"careeros/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ResolveJobRef turns a user-supplied job reference into a job id. The
// reference is a job id or a 1-based position in the match list; ids win.
func ResolveJobRef(ref string, jobs []types.Job) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.NewValidationError(errors.ErrCodeUnknownJob, "job reference cannot be empty", nil)
	}

	for _, job := range jobs {
		if job.JobID.String() == ref {
			return ref, nil
		}
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(jobs) {
		return jobs[n-1].JobID.String(), nil
	}

	return "", errors.NewValidationError(errors.ErrCodeUnknownJob,
		fmt.Sprintf("no job matches %q (use 1-%d or a job id)", ref, len(jobs)), nil).
		WithContext("ref", ref)
}
