package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/teamdocs/rag-backend/internal/entity"
)

// Validator validates upload requests
type Validator struct {
	maxUploadSize int64
}

func NewUploadValidator(maxUploadSize int64) *Validator {
	return &Validator{maxUploadSize: maxUploadSize}
}

// ValidateUpload checks the uploaded file header. Only PDF uploads are
// accepted; the raw extraction happens in an external service, this layer
// just rejects obviously wrong input early.
func (v *Validator) ValidateUpload(fh *multipart.FileHeader) error {
	if fh == nil || fh.Filename == "" {
		return fmt.Errorf("%w: no file selected", entity.ErrInvalidFile)
	}

	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".pdf" {
		return fmt.Errorf("%w: only PDF files are allowed, got %q", entity.ErrInvalidFile, ext)
	}

	if v.maxUploadSize > 0 && fh.Size > v.maxUploadSize {
		return fmt.Errorf("%w: file exceeds %d bytes", entity.ErrInvalidFile, v.maxUploadSize)
	}

	return nil
}

// SanitizeFilename sanitizes a filename for safe storage in chunk payloads
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}
