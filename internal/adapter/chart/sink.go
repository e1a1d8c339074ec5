package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes charts to a fixed path, creating parent directories.
type FileSink struct {
	path string
}

// NewFileSink creates a FileSink for path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Name() string { return "file" }

// WriteChart writes c atomically by renaming a temporary file into place.
func (f *FileSink) WriteChart(_ context.Context, c Chart) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".skewt-*")
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(c.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("write chart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename chart file: %w", err)
	}
	return nil
}
