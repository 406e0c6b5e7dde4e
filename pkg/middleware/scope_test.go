package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/authz"
	"github.com/campushub/campushub/pkg/contextkeys"
	"github.com/campushub/campushub/pkg/directory"
)

// staticScopeLookup returns fixed scope assignments.
type staticScopeLookup struct {
	club    *int64
	college *int64
}

func (s staticScopeLookup) ClubIDForUser(ctx context.Context, userID int64) (*int64, error) {
	return s.club, nil
}

func (s staticScopeLookup) CollegeIDForUser(ctx context.Context, userID int64) (*int64, error) {
	return s.college, nil
}

// staticClubs serves club rows from a map.
type staticClubs struct {
	clubs map[int64]*directory.Club
}

func (s staticClubs) GetClub(ctx context.Context, id int64) (*directory.Club, error) {
	club, ok := s.clubs[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return club, nil
}

// serveGuarded routes a request through a mux route guarded by the
// gate middleware, with the identity (possibly nil) already on the
// request context, as the session middleware would leave it.
func serveGuarded(t *testing.T, gm *GateMiddleware, predicate authz.RolePredicate, target TargetScopeFunc, path, url string, identity *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()

	router := mux.NewRouter()
	router.Handle(path, gm.Require(predicate, target)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, url, nil)
	if identity != nil {
		req = req.WithContext(contextkeys.WithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newGateMiddleware(lookup authz.ScopeLookup) *GateMiddleware {
	return NewGateMiddleware(authz.NewGate(authz.NewResolver(lookup)), nil, nil)
}

func TestRequireUnauthenticated(t *testing.T) {
	gm := newGateMiddleware(staticScopeLookup{})

	rec := serveGuarded(t, gm, authz.RequireAuthenticated(), NoTarget,
		"/api/v1/me/photo", "/api/v1/me/photo", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireWrongRole(t *testing.T) {
	gm := newGateMiddleware(staticScopeLookup{})
	identity := &auth.Identity{ID: 1, Role: auth.RoleUser}

	rec := serveGuarded(t, gm,
		authz.RequireRole(auth.RoleCollegeAdmin, auth.RoleSuperAdmin), CollegeTarget,
		"/api/v1/colleges/{college_id}/logo", "/api/v1/colleges/2/logo", identity)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireScopeMismatchOnCollege(t *testing.T) {
	gm := newGateMiddleware(staticScopeLookup{})
	identity := &auth.Identity{ID: 1, Role: auth.RoleCollegeAdmin, CollegeID: int64ptr(1)}

	rec := serveGuarded(t, gm,
		authz.RequireRole(auth.RoleCollegeAdmin, auth.RoleSuperAdmin), CollegeTarget,
		"/api/v1/colleges/{college_id}/logo", "/api/v1/colleges/2/logo", identity)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllowsMatchingCollege(t *testing.T) {
	gm := newGateMiddleware(staticScopeLookup{})
	identity := &auth.Identity{ID: 1, Role: auth.RoleCollegeAdmin, CollegeID: int64ptr(2)}

	rec := serveGuarded(t, gm,
		authz.RequireRole(auth.RoleCollegeAdmin, auth.RoleSuperAdmin), CollegeTarget,
		"/api/v1/colleges/{college_id}/logo", "/api/v1/colleges/2/logo", identity)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireScopeResolutionFailureReadsAsUnauthenticated(t *testing.T) {
	// A club admin with no club on record gets 401, prompting a fresh
	// login, not 403.
	gm := newGateMiddleware(staticScopeLookup{})
	identity := &auth.Identity{ID: 1, Role: auth.RoleClubAdmin}
	clubs := staticClubs{clubs: map[int64]*directory.Club{
		5: {ID: 5, CollegeID: 1},
	}}

	rec := serveGuarded(t, gm,
		authz.RequireRole(auth.RoleClubAdmin), ClubTarget(clubs),
		"/api/v1/clubs/{club_id}/logo", "/api/v1/clubs/5/logo", identity)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireClubAdminOwnClub(t *testing.T) {
	gm := newGateMiddleware(staticScopeLookup{})
	identity := &auth.Identity{ID: 1, Role: auth.RoleClubAdmin, ClubID: int64ptr(5)}
	clubs := staticClubs{clubs: map[int64]*directory.Club{
		5: {ID: 5, CollegeID: 1},
	}}

	rec := serveGuarded(t, gm,
		authz.RequireRole(auth.RoleClubAdmin), ClubTarget(clubs),
		"/api/v1/clubs/{club_id}/logo", "/api/v1/clubs/5/logo", identity)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSuperAdminCrossesTenants(t *testing.T) {
	gm := newGateMiddleware(staticScopeLookup{})
	identity := &auth.Identity{ID: 9, Role: auth.RoleSuperAdmin}

	rec := serveGuarded(t, gm,
		authz.RequireRole(auth.RoleCollegeAdmin, auth.RoleSuperAdmin), CollegeTarget,
		"/api/v1/colleges/{college_id}/logo", "/api/v1/colleges/7/logo", identity)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRejectsInvalidTargetID(t *testing.T) {
	gm := newGateMiddleware(staticScopeLookup{})
	identity := &auth.Identity{ID: 9, Role: auth.RoleSuperAdmin}

	rec := serveGuarded(t, gm,
		authz.RequireRole(auth.RoleSuperAdmin), CollegeTarget,
		"/api/v1/colleges/{college_id}/logo", "/api/v1/colleges/0/logo", identity)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
