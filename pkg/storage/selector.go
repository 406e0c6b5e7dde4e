package storage

import (
	"context"
	"time"

	"github.com/campushub/campushub/pkg/media"
	"github.com/campushub/campushub/pkg/observability"
)

// Upload is the raw input from the request-parsing layer.
type Upload struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Result reports what a store operation produced and which backend
// actually served it, so callers and tests can assert on fallback
// behavior instead of reading logs.
type Result struct {
	Reference media.Reference
	Backend   BackendKind
	Fallback  bool
}

// Selector routes uploads to the remote or local backend. The choice
// is fixed at startup from configuration; a runtime remote failure
// falls back to local for that single operation.
type Selector struct {
	remote        Backend
	local         Backend
	remoteTimeout time.Duration
	logger        *observability.Logger
	metrics       *observability.Metrics
}

// NewSelector builds the selector from configuration. Remote storage
// is used only when the environment is production AND the credential
// triple is complete; anything else degrades to local-only with a
// startup warning, never a fatal.
func NewSelector(ctx context.Context, cfg Config, logger *observability.Logger, metrics *observability.Metrics) (*Selector, error) {
	local, err := NewLocalBackend(cfg.LocalRoot)
	if err != nil {
		return nil, err
	}

	s := &Selector{
		local:         local,
		remoteTimeout: cfg.RemoteTimeout,
		logger:        logger,
		metrics:       metrics,
	}
	if s.remoteTimeout <= 0 {
		s.remoteTimeout = DefaultConfig().RemoteTimeout
	}

	if cfg.Environment != "production" {
		return s, nil
	}

	if !cfg.RemoteConfigured() {
		logger.Warn("remote storage credentials incomplete; serving uploads from local disk")
		return s, nil
	}

	remote, err := NewS3Backend(ctx, cfg)
	if err != nil {
		logger.WithError(err).Warn("remote storage unavailable; serving uploads from local disk")
		return s, nil
	}
	s.remote = remote
	return s, nil
}

// NewSelectorWithBackends wires explicit backends; used by tests.
func NewSelectorWithBackends(remote, local Backend, timeout time.Duration, logger *observability.Logger) *Selector {
	return &Selector{
		remote:        remote,
		local:         local,
		remoteTimeout: timeout,
		logger:        logger,
	}
}

// RemoteEnabled reports whether a remote backend was configured.
func (s *Selector) RemoteEnabled() bool {
	return s.remote != nil
}

// Store persists an upload and returns the resulting media reference.
// A nil or empty upload yields the category's default reference
// without touching any backend. A remote failure is recovered locally;
// only a local failure surfaces, as *Error.
func (s *Selector) Store(ctx context.Context, category media.Category, upload *Upload) (*Result, error) {
	if upload == nil || len(upload.Content) == 0 {
		return &Result{
			Reference: media.DefaultReference(category),
			Backend:   BackendNone,
		}, nil
	}

	fallback := false
	if s.remote != nil {
		remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		stored, err := s.remote.Put(remoteCtx, category, upload.Filename, upload.Content, upload.ContentType)
		cancel()
		if err == nil {
			s.countOp(BackendRemote, false)
			return &Result{
				Reference: media.Reference{Category: category, Stored: stored},
				Backend:   BackendRemote,
			}, nil
		}

		s.logger.WithError(err).WithField("category", string(category)).
			Warn("remote store failed; falling back to local storage")
		fallback = true
	}

	stored, err := s.local.Put(ctx, category, upload.Filename, upload.Content, upload.ContentType)
	if err != nil {
		s.countOp(BackendLocal, fallback)
		return nil, &Error{Category: category, Err: err}
	}

	s.countOp(BackendLocal, fallback)
	return &Result{
		Reference: media.Reference{Category: category, Stored: stored},
		Backend:   BackendLocal,
		Fallback:  fallback,
	}, nil
}

func (s *Selector) countOp(backend BackendKind, fallback bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.StorageOperationsTotal.WithLabelValues(string(backend)).Inc()
	if fallback {
		s.metrics.StorageFallbacksTotal.Inc()
	}
}
