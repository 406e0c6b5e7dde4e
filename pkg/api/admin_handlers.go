package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/contextkeys"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/httputil"
	"github.com/campushub/campushub/pkg/middleware"
)

type roleRequest struct {
	Role      string `json:"role"`
	CollegeID *int64 `json:"college_id,omitempty"`
	ClubID    *int64 `json:"club_id,omitempty"`
}

// putUserRole reassigns a user's role and scope. The change takes
// effect on the user's next request: session trust is recomputed from
// the current role every time, so a demotion shortens the session
// immediately and never waits for the old expiry.
func (s *Server) putUserRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := s.directory.SetUserRole(r.Context(), userID, role, req.CollegeID, req.ClubID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.recordRoleChange(r, userID, role, req.CollegeID, req.ClubID)

	httputil.WriteSuccess(w, map[string]interface{}{
		"user_id": userID,
		"role":    role,
	})
}

func (s *Server) recordRoleChange(r *http.Request, userID int64, role auth.Role, collegeID, clubID *int64) {
	event := &audit.Event{
		Type:      audit.EventTypeAuthzRoleChange,
		Status:    audit.EventStatusSuccess,
		UserID:    &userID,
		CollegeID: collegeID,
		ClubID:    clubID,
		Detail:    fmt.Sprintf("role set to %s", role),
		IPAddress: r.RemoteAddr,
		RequestID: contextkeys.GetRequestID(r.Context()),
		CreatedAt: time.Now().UTC(),
	}
	if actor := middleware.GetIdentity(r); actor != nil {
		event.Detail = fmt.Sprintf("role set to %s by user %d", role, actor.ID)
	}
	_ = s.auditor.Record(r.Context(), event)
}
