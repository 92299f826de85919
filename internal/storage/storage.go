package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Object describes a stored upload
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"mime"`
}

// Storage defines the interface for file storage backends
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// SubmissionKey is the object key of a file attached to a submission
func SubmissionKey(fileName string) string {
	return objectKey("submissions", fileName)
}

// IncidentReportKey is the object key for a file attached to an incident report
func IncidentReportKey(fileName string) string {
	return objectKey("incident-reports", fileName)
}

func objectKey(prefix, fileName string) string {
	return fmt.Sprintf("%s/%s-%s", prefix, uuid.NewString(), url.PathEscape(fileName))
}

// LocalStorage implements Storage using local filesystem
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage creates a new local filesystem storage backend
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return full, nil
}

func (s *LocalStorage) URL(key string) string {
	return fmt.Sprintf("%s/files/%s", s.baseURL, key)
}

func (s *LocalStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (Object, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return Object{}, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return Object{}, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, reader)
	if err != nil {
		return Object{}, fmt.Errorf("failed to write file: %w", err)
	}

	return Object{Key: key, URL: s.URL(key), Size: n, ContentType: contentType}, nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
