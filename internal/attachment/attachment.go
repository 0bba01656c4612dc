// Package attachment validates and loads the single file a user may attach to a submission.
package attachment

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/diogo/iqrachat/internal/models"
)

const (
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

// AcceptedExtensions lists the file types the picker accepts
var AcceptedExtensions = []string{".txt", ".pdf", ".doc", ".docx"}

// fallbackMIME covers extensions some platforms have no mime.types entry for
var fallbackMIME = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// SupportedTypes returns the list of accepted MIME types
func SupportedTypes() []string {
	types := make([]string, 0, len(AcceptedExtensions))
	for _, ext := range AcceptedExtensions {
		types = append(types, fallbackMIME[ext])
	}
	return types
}

// DetectMIME resolves the MIME type of a file name from its extension
func DetectMIME(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := fallbackMIME[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}

// Validate checks a file handle against the accepted types and the size limit.
// It returns a user-facing error, or nil when the file is acceptable.
func Validate(name string, size int64, mimeType string) error {
	if name == "" {
		return fmt.Errorf("Please select a file")
	}

	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.TrimSpace(base)

	supported := false
	for _, t := range SupportedTypes() {
		if base == t {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("Invalid file type. Accepted types: %s", strings.Join(AcceptedExtensions, ","))
	}

	if size > MaxFileSize {
		return fmt.Errorf("File size exceeds %dMB limit", MaxFileSize/1024/1024)
	}

	return nil
}

// FromPath validates a file on disk and loads it as an attachment
func FromPath(path string) (*models.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	mimeType := DetectMIME(name)
	if err := Validate(name, info.Size(), mimeType); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &models.Attachment{
		Name:     name,
		Size:     info.Size(),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
