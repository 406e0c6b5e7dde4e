package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/campushub/campushub/pkg/analytics"
	"github.com/campushub/campushub/pkg/async"
	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/contextkeys"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/httputil"
	"github.com/campushub/campushub/pkg/media"
	"github.com/campushub/campushub/pkg/middleware"
	"github.com/campushub/campushub/pkg/storage"
)

// maxUploadBytes bounds a single image upload.
const maxUploadBytes = 10 << 20

const uploadField = "image"

type uploadResponse struct {
	URL      string              `json:"url"`
	Backend  storage.BackendKind `json:"backend"`
	Fallback bool                `json:"fallback"`
}

// uploadProfilePhoto stores a new profile photo for the caller. A
// request without a file resets the photo to the category default.
func (s *Server) uploadProfilePhoto(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	s.storeAndRecord(w, r, media.CategoryProfilePhoto, func(stored string) error {
		return s.directory.UpdateUserPhoto(r.Context(), identity.ID, stored)
	})
}

func (s *Server) uploadCollegeLogo(w http.ResponseWriter, r *http.Request) {
	collegeID, err := pathID(r, "college_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.storeAndRecord(w, r, media.CategoryCollegeLogo, func(stored string) error {
		return s.directory.UpdateCollegeLogo(r.Context(), collegeID, stored)
	})
}

func (s *Server) uploadClubLogo(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "club_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.storeAndRecord(w, r, media.CategoryClubLogo, func(stored string) error {
		return s.directory.UpdateClubLogo(r.Context(), clubID, stored)
	})
}

func (s *Server) uploadEventBanner(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "event_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.storeAndRecord(w, r, media.CategoryEventBanner, func(stored string) error {
		return s.directory.UpdateEventBanner(r.Context(), eventID, stored)
	})
}

// storeAndRecord runs the common upload path: parse the multipart
// form, hand the bytes to the storage selector, persist the stored
// reference, and report which backend served the write.
func (s *Server) storeAndRecord(w http.ResponseWriter, r *http.Request, category media.Category, persist func(stored string) error) {
	upload, err := parseUpload(w, r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	started := time.Now()
	result, err := s.selector.Store(r.Context(), category, upload)
	if err != nil {
		s.logger.WithField("category", string(category)).WithError(err).Error("upload failed")
		httputil.WriteInternalError(w, errors.New("upload failed"))
		return
	}

	if err := persist(result.Reference.Stored); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			httputil.WriteNotFound(w, "no such resource")
			return
		}
		s.logger.WithField("category", string(category)).WithError(err).Error("failed to persist stored reference")
		httputil.WriteInternalError(w, errors.New("upload failed"))
		return
	}

	s.recordUpload(r, category, result)
	s.trackUpload(r, category, result, uploadSize(upload), time.Since(started))

	httputil.WriteSuccess(w, uploadResponse{
		URL:      s.resolver.Resolve(result.Reference),
		Backend:  result.Backend,
		Fallback: result.Fallback,
	})
}

// parseUpload extracts the image file from the request. A request with
// no file is valid and yields a nil upload, which the selector turns
// into the category default without touching any backend.
func parseUpload(w http.ResponseWriter, r *http.Request) (*storage.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid upload: %w", err)
	}

	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid upload: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(content) == 0 {
		return nil, nil
	}

	return &storage.Upload{
		Filename:    header.Filename,
		Content:     content,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

func (s *Server) recordUpload(r *http.Request, category media.Category, result *storage.Result) {
	if result.Backend == storage.BackendNone {
		return
	}
	event := &audit.Event{
		Type:      audit.EventTypeDataFileUpload,
		Status:    audit.EventStatusSuccess,
		Detail:    fmt.Sprintf("%s via %s", category, result.Backend),
		IPAddress: r.RemoteAddr,
		RequestID: contextkeys.GetRequestID(r.Context()),
		CreatedAt: time.Now().UTC(),
	}
	if identity := middleware.GetIdentity(r); identity != nil {
		event.UserID = &identity.ID
	}
	// Auditing must never fail the request.
	_ = s.auditor.Record(r.Context(), event)
}

// trackUpload records the upload in the analytics stream, off the
// request path. Skipped for no-op uploads that touched no backend.
func (s *Server) trackUpload(r *http.Request, category media.Category, result *storage.Result, size int64, elapsed time.Duration) {
	if s.events == nil || result.Backend == storage.BackendNone {
		return
	}
	identity := middleware.GetIdentity(r)
	if identity == nil {
		return
	}

	event := analytics.UploadEvent{
		UserID:    identity.ID,
		Category:  category,
		Backend:   result.Backend,
		Fallback:  result.Fallback,
		FileSize:  size,
		Duration:  elapsed,
		Success:   true,
		IPAddress: analytics.ClientIP(r),
		RequestID: contextkeys.GetRequestID(r.Context()),
	}
	async.SafeGo(r.Context(), s.logger, 5*time.Second, "upload tracking", func(ctx context.Context) error {
		return s.events.TrackUpload(ctx, event)
	})
}

func uploadSize(upload *storage.Upload) int64 {
	if upload == nil {
		return 0
	}
	return int64(len(upload.Content))
}

func pathID(r *http.Request, name string) (int64, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
