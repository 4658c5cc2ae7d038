package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(resume, make([]byte, 2048), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		filename    string
		maxSize     int64
		expectError bool
	}{
		{name: "readable file", filename: resume, maxSize: 4096},
		{name: "no size limit", filename: resume, maxSize: 0},
		{name: "too large", filename: resume, maxSize: 1024, expectError: true},
		{name: "missing file", filename: filepath.Join(dir, "missing.pdf"), expectError: true},
		{name: "directory", filename: dir, expectError: true},
		{name: "empty name", filename: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ValidateInputFile(tt.filename, tt.maxSize)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if info.Size() != 2048 {
				t.Errorf("Expected size 2048, got %d", info.Size())
			}
		})
	}
}

func TestIsResumeFile(t *testing.T) {
	tests := map[string]bool{
		"resume.pdf":       true,
		"RESUME.PDF":       true,
		"resume.docx":      false,
		"resume":           false,
		"archive.pdf.part": false,
	}

	for filename, expected := range tests {
		if got := IsResumeFile(filename); got != expected {
			t.Errorf("IsResumeFile(%q) = %v, want %v", filename, got, expected)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{size: 512, expected: "512 B"},
		{size: 2048, expected: "2.0 KB"},
		{size: 10 * 1024 * 1024, expected: "10.0 MB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.expected {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.expected)
		}
	}
}
