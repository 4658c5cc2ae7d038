package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"careeros/internal/errors"
	"careeros/internal/utils"

	"github.com/ledongthuc/pdf"
)

// ResumeFile is a resume read from disk and ready to upload
type ResumeFile struct {
	Path  string
	Name  string
	Size  int64
	Data  []byte
	Pages int // zero when the document could not be inspected
}

// Reader returns a fresh reader over the file contents
func (rf *ResumeFile) Reader() io.Reader {
	return bytes.NewReader(rf.Data)
}

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. A maxFileSize of
// zero disables the size limit.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.Discard()
	}
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadResume validates and loads a resume file. The service only parses PDFs,
// so other extensions are logged but still sent.
func (fp *FileProcessor) ReadResume(filename string) (*ResumeFile, error) {
	info, err := utils.ValidateInputFile(filename, fp.maxFileSize)
	if err != nil {
		if !fileExists(filename) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsResumeFile(filename) {
		fp.logger.Warn("File may not be a PDF resume", "filename", filename)
	}

	data, err := fp.readFile(filename)
	if err != nil {
		return nil, err
	}

	resume := &ResumeFile{
		Path: filename,
		Name: filepath.Base(filename),
		Size: info.Size(),
		Data: data,
	}

	if utils.IsResumeFile(filename) {
		pages, err := countPDFPages(data)
		if err != nil {
			fp.logger.Warn("Could not inspect PDF locally", "filename", filename, "error", err)
		} else {
			resume.Pages = pages
		}
	}

	fp.logger.Debug("Resume loaded",
		"filename", resume.Name,
		"size", utils.FormatFileSize(resume.Size),
		"pages", resume.Pages)
	return resume, nil
}

func (fp *FileProcessor) readFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return content, nil
}

// countPDFPages opens the document far enough to count its pages.
// The parser panics on some malformed inputs, which is reported as an error.
func countPDFPages(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	return reader.NumPage(), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
