package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Uploader is implemented by SpacesClient and LocalStorage
type Uploader interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// LocalStorage writes objects under a directory that the API serves statically
type LocalStorage struct {
	dir       string
	urlPrefix string
}

func NewLocalStorage(dir, urlPrefix string) *LocalStorage {
	return &LocalStorage{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.dir, clean), nil
}

func (l *LocalStorage) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return l.FileURL(key), nil
}

func (l *LocalStorage) DeleteFile(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) FileURL(key string) string {
	return l.urlPrefix + "/" + strings.TrimLeft(key, "/")
}
