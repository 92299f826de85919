package storage

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"situationroom/internal/model"
)

// BlockedExtensions are never accepted, whatever the field allows
var BlockedExtensions = []string{
	"exe", "msi", "bat", "sh", "ps1", "apk", "dmg", "pkg", "deb", "rpm", "bin", "com",
	"cmd", "scr", "jar", "msix", "msixbundle", "appimage",
}

// FilePolicy represents file upload policy constraints
type FilePolicy struct {
	MaxFileMB  *float64 `json:"maxFileMB,omitempty"`
	MimeTypes  []string `json:"mime,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// PolicyForField builds the policy of a FileUpload field from its accept
// list (".pdf,image/*") and size limit. A zero size means no limit.
func PolicyForField(f model.Field) *FilePolicy {
	fp := &FilePolicy{}
	if f.MaxSizeMB > 0 {
		limit := f.MaxSizeMB
		fp.MaxFileMB = &limit
	}
	for _, part := range strings.Split(f.Accept, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch {
		case part == "":
		case strings.HasPrefix(part, "."):
			fp.Extensions = append(fp.Extensions, strings.TrimPrefix(part, "."))
		default:
			fp.MimeTypes = append(fp.MimeTypes, part)
		}
	}
	return fp
}

func extension(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}

// Blocked reports whether fileName carries an executable extension
func Blocked(fileName string) bool {
	ext := extension(fileName)
	for _, b := range BlockedExtensions {
		if ext == b {
			return true
		}
	}
	return false
}

// ValidateFile validates a file against the policy. A file passes the accept
// list when either its type or its extension matches one entry.
func (fp *FilePolicy) ValidateFile(fileName, contentType string, fileSizeBytes int64) error {
	if Blocked(fileName) {
		return fmt.Errorf("file type not allowed: .%s", extension(fileName))
	}
	if fp == nil {
		return nil
	}

	if fp.MaxFileMB != nil {
		maxBytes := int64(*fp.MaxFileMB * 1024 * 1024)
		if fileSizeBytes > maxBytes {
			return fmt.Errorf("file too large: %d bytes exceeds maximum of %.0f MB",
				fileSizeBytes, *fp.MaxFileMB)
		}
	}

	if len(fp.MimeTypes) == 0 && len(fp.Extensions) == 0 {
		return nil
	}
	if fp.matchesMimeType(contentType) || fp.matchesExtension(fileName) {
		return nil
	}
	return fmt.Errorf("file type not allowed: %s", fileName)
}

// matchesMimeType checks if contentType matches any of the allowed MIME type patterns
func (fp *FilePolicy) matchesMimeType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	mediaType = strings.ToLower(mediaType)

	for _, allowed := range fp.MimeTypes {
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "/*")
			if strings.HasPrefix(mediaType, prefix+"/") {
				return true
			}
		} else if mediaType == allowed {
			return true
		}
	}
	return false
}

func (fp *FilePolicy) matchesExtension(fileName string) bool {
	ext := extension(fileName)
	if ext == "" {
		return false
	}
	for _, allowed := range fp.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
