package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"scene-service/internal/extraction"
	"scene-service/internal/metrics"
)

// Upload rejection reasons.
const (
	ReasonMissingFile   = "missing_file"
	ReasonExtension     = "unsupported_extension"
	ReasonTooLarge      = "too_large"
	ReasonInvalidFormat = "invalid_format"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// UploadError is a user-facing rejection of an upload. No model is created
// for a rejected upload.
type UploadError struct {
	Reason  string
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

func rejectUpload(reason, message string) *UploadError {
	metrics.RecordUploadRejection(reason)
	return &UploadError{Reason: reason, Message: message}
}

// UploadPolicy bounds what an upload may contain.
type UploadPolicy struct {
	MaxBytes          int64
	AllowedExtensions []string

	// Convert accepts archives and other model formats, turned into GLB.
	Convert bool
}

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxBytes:          10 << 20,
		AllowedExtensions: []string{".glb"},
	}
}

// Validate checks the name and size of an upload before it is read.
func (p UploadPolicy) Validate(filename string, size int64) *UploadError {
	if filename == "" {
		return rejectUpload(ReasonMissingFile, "No file provided")
	}
	if !p.allows(filepath.Ext(filename)) {
		return rejectUpload(ReasonExtension, fmt.Sprintf("Only %s files are supported", p.describeExtensions()))
	}
	if size > p.MaxBytes {
		return rejectUpload(ReasonTooLarge, fmt.Sprintf("File size must be less than %dMB", p.MaxBytes>>20))
	}
	return nil
}

func (p UploadPolicy) allows(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range p.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return p.Convert && (extraction.IsPrimaryModelFile(ext) || ext == ".zip")
}

func (p UploadPolicy) describeExtensions() string {
	names := make([]string, 0, len(p.AllowedExtensions))
	for _, ext := range p.AllowedExtensions {
		names = append(names, strings.ToUpper(strings.TrimPrefix(ext, ".")))
	}
	return strings.Join(names, ", ")
}

// SanitizeFilename turns a caller supplied name into a storage safe one:
// whitespace becomes underscores, characters outside [a-zA-Z0-9._-] are
// dropped, the name is lowercased and prefixed with the upload time in unix
// milliseconds. The extension is kept.
func SanitizeFilename(name string, at time.Time) string {
	name = filepath.Base(name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = name
		ext = ""
	}

	base = whitespace.ReplaceAllString(base, "_")
	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.ToLower(base)
	ext = strings.ToLower(unsafeChars.ReplaceAllString(ext, ""))

	return fmt.Sprintf("%d_%s%s", at.UnixMilli(), base, ext)
}
