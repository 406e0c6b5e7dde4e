package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/campushub/campushub/pkg/media"
)

// BackendKind identifies which concrete backend served an operation.
type BackendKind string

const (
	BackendRemote BackendKind = "remote"
	BackendLocal  BackendKind = "local"
	// BackendNone means no backend was touched (default reference).
	BackendNone BackendKind = "none"
)

// Backend stores raw bytes under a category and returns the stored
// identifier: an absolute URL for remote objects, a relative path for
// local files.
type Backend interface {
	Kind() BackendKind
	Put(ctx context.Context, category media.Category, filename string, content []byte, contentType string) (stored string, err error)
}

// Config for the storage backend selector.
type Config struct {
	// Environment is the deployment mode: "production" or "development".
	Environment string

	// LocalRoot is the directory local files are written under; files
	// land in <LocalRoot>/images/<category>/.
	LocalRoot string

	// Remote object-store settings.
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// PublicBaseURL, when set, is used to build servable URLs for
	// remote objects instead of the synthesized S3 URL.
	PublicBaseURL string

	// RemoteTimeout bounds each remote store call so the local
	// fallback stays reachable within bounded request latency.
	RemoteTimeout time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Environment:   "development",
		LocalRoot:     "public",
		S3Region:      "us-east-1",
		RemoteTimeout: 10 * time.Second,
	}
}

// RemoteConfigured reports whether the remote credential triple is
// complete. Absence degrades the selector to local-only.
func (c Config) RemoteConfigured() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// Error is the storage failure surfaced to callers only when both the
// requested backend and the fallback failed. Callers must not assume
// persistence succeeded when they see one.
type Error struct {
	Category media.Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage failed for category %s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
