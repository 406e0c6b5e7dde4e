package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/campushub/campushub/pkg/analytics"
	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/authz"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/media"
	"github.com/campushub/campushub/pkg/middleware"
	"github.com/campushub/campushub/pkg/observability"
	"github.com/campushub/campushub/pkg/settings"
	"github.com/campushub/campushub/pkg/storage"
)

// Server represents our API server
type Server struct {
	router    *mux.Router
	directory *directory.Store
	selector  *storage.Selector
	resolver  *media.Resolver
	settings  *settings.Cache
	gates     *middleware.GateMiddleware
	auditor   audit.Logger
	events    *analytics.EventTracker
	stats     *analytics.Service
	logger    *observability.Logger
}

// NewServer creates a new API server. Routes are guarded by the gate
// middleware; the session middleware is applied by the caller around
// the whole router. events and stats may be nil to disable analytics.
func NewServer(
	dir *directory.Store,
	selector *storage.Selector,
	resolver *media.Resolver,
	settingsCache *settings.Cache,
	gates *middleware.GateMiddleware,
	auditor audit.Logger,
	events *analytics.EventTracker,
	stats *analytics.Service,
	logger *observability.Logger,
) *Server {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	s := &Server{
		router:    mux.NewRouter(),
		directory: dir,
		selector:  selector,
		resolver:  resolver,
		settings:  settingsCache,
		gates:     gates,
		auditor:   auditor,
		events:    events,
		stats:     stats,
		logger:    logger,
	}
	s.setupRoutes()
	return s
}

// Router exposes the underlying router so the caller can mount the
// login handlers and wrap the chain.
func (s *Server) Router() *mux.Router {
	return s.router
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	authed := s.gates.Require(authz.RequireAuthenticated(), middleware.NoTarget)
	collegeAdmin := s.gates.Require(
		authz.RequireRole(auth.RoleCollegeAdmin, auth.RoleSuperAdmin),
		middleware.CollegeTarget,
	)
	clubAdmin := s.gates.Require(
		authz.RequireRole(auth.RoleClubAdmin, auth.RoleCollegeAdmin, auth.RoleSuperAdmin),
		middleware.ClubTarget(s.directory),
	)
	eventAdmin := s.gates.Require(
		authz.RequireRole(auth.RoleClubAdmin, auth.RoleCollegeAdmin, auth.RoleSuperAdmin),
		middleware.EventTarget(s.directory, s.directory),
	)
	superAdmin := s.gates.Require(
		authz.RequireRole(auth.RoleSuperAdmin),
		middleware.NoTarget,
	)

	// Profile routes
	s.router.Handle("/api/v1/me", authed(http.HandlerFunc(s.getMe))).Methods("GET")
	s.router.Handle("/api/v1/me/photo", authed(http.HandlerFunc(s.uploadProfilePhoto))).Methods("POST")

	// Directory routes (read side is public)
	s.router.HandleFunc("/api/v1/colleges/{college_id}", s.getCollege).Methods("GET")
	s.router.HandleFunc("/api/v1/clubs/{club_id}", s.getClub).Methods("GET")
	s.router.HandleFunc("/api/v1/events/{event_id}", s.getEvent).Methods("GET")

	// Media upload routes, guarded by the owning scope
	s.router.Handle("/api/v1/colleges/{college_id}/logo",
		collegeAdmin(http.HandlerFunc(s.uploadCollegeLogo))).Methods("POST")
	s.router.Handle("/api/v1/clubs/{club_id}/logo",
		clubAdmin(http.HandlerFunc(s.uploadClubLogo))).Methods("POST")
	s.router.Handle("/api/v1/events/{event_id}/banner",
		eventAdmin(http.HandlerFunc(s.uploadEventBanner))).Methods("POST")

	// Platform settings
	s.router.HandleFunc("/api/v1/settings/{key}", s.getSetting).Methods("GET")
	s.router.Handle("/api/v1/settings/{key}",
		superAdmin(http.HandlerFunc(s.putSetting))).Methods("PUT")

	// Role administration
	s.router.Handle("/api/v1/users/{user_id}/role",
		superAdmin(http.HandlerFunc(s.putUserRole))).Methods("PUT")

	// Platform analytics (rollup-backed, super admin only)
	s.router.Handle("/api/v1/admin/stats",
		superAdmin(http.HandlerFunc(s.getStatsOverview))).Methods("GET")
	s.router.Handle("/api/v1/admin/stats/daily",
		superAdmin(http.HandlerFunc(s.getDailyStats))).Methods("GET")
}
