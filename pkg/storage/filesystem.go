package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub/pkg/media"
)

// LocalBackend writes uploads to the local filesystem under
// <root>/images/<category>/.
type LocalBackend struct {
	root string
}

// NewLocalBackend creates a filesystem-backed storage backend.
func NewLocalBackend(root string) (*LocalBackend, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalBackend{root: root}, nil
}

// Kind implements Backend.Kind.
func (b *LocalBackend) Kind() BackendKind {
	return BackendLocal
}

// Put implements Backend.Put. The destination directory is created if
// absent; filenames carry a timestamp plus random suffix so concurrent
// uploads to the same category cannot collide.
func (b *LocalBackend) Put(ctx context.Context, category media.Category, filename string, content []byte, contentType string) (string, error) {
	dir := filepath.Join(b.root, "images", string(category))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create category directory: %w", err)
	}

	name := UniqueFilename(filename)
	if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	// Relative to the served public root; the path resolver makes it
	// root-relative.
	return path.Join("images", string(category), name), nil
}

// UniqueFilename builds a collision-resistant filename:
// <unix ms>-<random suffix>-<sanitized original>.
func UniqueFilename(original string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), suffix, SanitizeFilename(original))
}

// SanitizeFilename strips path separators and characters outside
// [a-zA-Z0-9._-] from an uploaded filename.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	switch cleaned := sb.String(); cleaned {
	case "", ".", "..":
		return "upload"
	default:
		return cleaned
	}
}
