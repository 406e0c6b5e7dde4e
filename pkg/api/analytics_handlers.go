package api

import (
	"net/http"
	"strconv"

	"github.com/campushub/campushub/pkg/httputil"
)

// getStatsOverview returns the platform KPI overview.
func (s *Server) getStatsOverview(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "analytics disabled")
		return
	}

	overview, err := s.stats.GetOverview(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load stats overview")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, overview)
}

// getDailyStats returns the daily activity rollups. Accepts an optional
// ?days=N query parameter, default 30, capped at 365.
func (s *Server) getDailyStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "analytics disabled")
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "invalid days")
			return
		}
		days = parsed
	}
	if days > 365 {
		days = 365
	}

	activity, err := s.stats.GetDailyActivity(r.Context(), days)
	if err != nil {
		s.logger.WithError(err).Error("failed to load daily activity")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, activity)
}
