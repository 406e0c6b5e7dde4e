package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/httputil"
	"github.com/campushub/campushub/pkg/media"
	"github.com/campushub/campushub/pkg/middleware"
)

type profileResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	Photo     string    `json:"photo"`
	CollegeID *int64    `json:"college_id,omitempty"`
	ClubID    *int64    `json:"club_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type collegeResponse struct {
	directory.College
	LogoURL string `json:"logo_url"`
}

type clubResponse struct {
	directory.Club
	LogoURL string `json:"logo_url"`
}

type eventResponse struct {
	directory.Event
	BannerURL string `json:"banner_url"`
}

// getMe returns the caller's identity with a servable photo URL.
func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	httputil.WriteSuccess(w, profileResponse{
		ID:        identity.ID,
		Name:      identity.Name,
		Email:     identity.Email,
		Role:      identity.Role,
		Photo:     s.resolver.Resolve(media.Reference{Category: media.CategoryProfilePhoto, Stored: identity.Photo}),
		CollegeID: identity.CollegeID,
		ClubID:    identity.ClubID,
		CreatedAt: identity.CreatedAt,
	})
}

func (s *Server) getCollege(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "college_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	college, err := s.directory.GetCollege(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, err, "college not found")
		return
	}

	httputil.WriteSuccess(w, collegeResponse{
		College: *college,
		LogoURL: s.resolver.Resolve(media.Reference{Category: media.CategoryCollegeLogo, Stored: college.Logo}),
	})
}

func (s *Server) getClub(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "club_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	club, err := s.directory.GetClub(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, err, "club not found")
		return
	}

	httputil.WriteSuccess(w, clubResponse{
		Club:    *club,
		LogoURL: s.resolver.Resolve(media.Reference{Category: media.CategoryClubLogo, Stored: club.Logo}),
	})
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "event_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	event, err := s.directory.GetEvent(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, err, "event not found")
		return
	}

	httputil.WriteSuccess(w, eventResponse{
		Event:     *event,
		BannerURL: s.resolver.Resolve(media.Reference{Category: media.CategoryEventBanner, Stored: event.Banner}),
	})
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, directory.ErrNotFound) {
		httputil.WriteNotFound(w, notFound)
		return
	}
	s.logger.WithError(err).Error("directory lookup failed")
	httputil.WriteInternalError(w, errors.New("lookup failed"))
}
