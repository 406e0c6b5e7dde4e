package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/campushub/campushub/pkg/httputil"
	"github.com/campushub/campushub/pkg/settings"
)

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type settingRequest struct {
	Value string `json:"value"`
}

// getSetting serves a platform setting through the TTL cache.
func (s *Server) getSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		httputil.WriteBadRequest(w, "missing key")
		return
	}

	value, err := s.settings.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			httputil.WriteNotFound(w, "setting not found")
			return
		}
		s.logger.WithField("key", key).WithError(err).Error("failed to read setting")
		httputil.WriteInternalError(w, errors.New("failed to read setting"))
		return
	}

	httputil.WriteSuccess(w, settingResponse{Key: key, Value: value})
}

// putSetting writes a setting through the cache, invalidating the
// cached value so the next read sees the write.
func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		httputil.WriteBadRequest(w, "missing key")
		return
	}

	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := s.settings.Set(r.Context(), key, req.Value); err != nil {
		s.logger.WithField("key", key).WithError(err).Error("failed to write setting")
		httputil.WriteInternalError(w, errors.New("failed to write setting"))
		return
	}

	httputil.WriteSuccess(w, settingResponse{Key: key, Value: req.Value})
}
