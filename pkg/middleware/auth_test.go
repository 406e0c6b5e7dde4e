package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/observability"
)

// memorySessionStore is an in-memory SessionStore keyed by token hash.
type memorySessionStore struct {
	sessions map[string]*auth.Session
	nextID   int64
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]*auth.Session{}}
}

func (m *memorySessionStore) Create(ctx context.Context, s *auth.Session) error {
	m.nextID++
	s.ID = m.nextID
	copied := *s
	m.sessions[s.TokenHash] = &copied
	return nil
}

func (m *memorySessionStore) GetByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	s, ok := m.sessions[hash]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memorySessionStore) Renew(ctx context.Context, s *auth.Session) error {
	stored, ok := m.sessions[s.TokenHash]
	if !ok {
		return auth.ErrSessionNotFound
	}
	stored.Role = s.Role
	stored.ExpiresAt = s.ExpiresAt
	return nil
}

func (m *memorySessionStore) Delete(ctx context.Context, hash string) error {
	delete(m.sessions, hash)
	return nil
}

func (m *memorySessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	for hash, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, hash)
			purged++
		}
	}
	return purged, nil
}

// recordingAuditor captures every event handed to it.
type recordingAuditor struct {
	events []*audit.Event
}

func (a *recordingAuditor) Record(ctx context.Context, event *audit.Event) error {
	a.events = append(a.events, event)
	return nil
}

// fakeDirectory resolves identities from a fixed map.
type fakeDirectory struct {
	identities map[int64]*auth.Identity
}

func (f *fakeDirectory) GetIdentity(ctx context.Context, userID int64) (*auth.Identity, error) {
	identity, ok := f.identities[userID]
	if !ok {
		return nil, directory.ErrNotFound
	}
	copied := *identity
	return &copied, nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

// issueSession creates a live session for the user and returns the
// plaintext token.
func issueSession(t *testing.T, store *memorySessionStore, userID int64, role auth.Role) string {
	t.Helper()

	tokens := auth.NewTokenGenerator()
	token, hash, err := tokens.GenerateToken()
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, store.Create(context.Background(), &auth.Session{
		UserID:    userID,
		TokenHash: hash,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(auth.TrustDuration(role)),
	}))
	return token
}

func runRequest(mw *SessionMiddleware, token string) (*httptest.ResponseRecorder, *auth.Identity) {
	var seen *auth.Identity
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestSessionMiddlewareAuthenticates(t *testing.T) {
	store := newMemorySessionStore()
	dir := &fakeDirectory{identities: map[int64]*auth.Identity{
		1: {ID: 1, Role: auth.RoleUser, Name: "Priya"},
	}}
	mw := NewSessionMiddleware(store, dir, nil, testLogger(), nil, false)

	token := issueSession(t, store, 1, auth.RoleUser)
	rec, seen := runRequest(mw, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(1), seen.ID)

	// Sliding renewal refreshes the cookie with the role's window.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, int(auth.UserTrustDuration.Seconds()), cookies[0].MaxAge)
}

func TestSessionMiddlewareRejectsMissingCookie(t *testing.T) {
	mw := NewSessionMiddleware(newMemorySessionStore(), &fakeDirectory{}, nil, testLogger(), nil, false)

	rec, seen := runRequest(mw, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestSessionMiddlewareRejectsMalformedToken(t *testing.T) {
	mw := NewSessionMiddleware(newMemorySessionStore(), &fakeDirectory{}, nil, testLogger(), nil, false)

	rec, _ := runRequest(mw, "not-a-session-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddlewareRejectsExpiredSession(t *testing.T) {
	store := newMemorySessionStore()
	dir := &fakeDirectory{identities: map[int64]*auth.Identity{
		1: {ID: 1, Role: auth.RoleUser},
	}}
	mw := NewSessionMiddleware(store, dir, nil, testLogger(), nil, false)

	token := issueSession(t, store, 1, auth.RoleUser)
	// Force the trust window into the past.
	hash := auth.NewTokenGenerator().HashToken(token)
	store.sessions[hash].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	rec, _ := runRequest(mw, token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddlewareInvalidatesDeletedUser(t *testing.T) {
	store := newMemorySessionStore()
	auditor := &recordingAuditor{}
	mw := NewSessionMiddleware(store, &fakeDirectory{}, auditor, testLogger(), nil, false)

	token := issueSession(t, store, 99, auth.RoleUser)
	rec, _ := runRequest(mw, token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	hash := auth.NewTokenGenerator().HashToken(token)
	_, ok := store.sessions[hash]
	assert.False(t, ok, "a session for a deleted user must be removed, not just rejected")

	// The invalidation leaves an audit record for the orphaned session.
	require.Len(t, auditor.events, 1)
	assert.Equal(t, audit.EventTypeAuthSessionInvalid, auditor.events[0].Type)
	assert.Equal(t, audit.EventStatusDenied, auditor.events[0].Status)
	require.NotNil(t, auditor.events[0].UserID)
	assert.Equal(t, int64(99), *auditor.events[0].UserID)
}

func TestSessionMiddlewareAppliesRoleDrift(t *testing.T) {
	store := newMemorySessionStore()
	// Session was issued as user; the directory now says college_admin.
	dir := &fakeDirectory{identities: map[int64]*auth.Identity{
		1: {ID: 1, Role: auth.RoleCollegeAdmin, CollegeID: int64ptr(2)},
	}}
	mw := NewSessionMiddleware(store, dir, nil, testLogger(), nil, false)

	token := issueSession(t, store, 1, auth.RoleUser)
	before := time.Now().UTC()
	rec, seen := runRequest(mw, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, auth.RoleCollegeAdmin, seen.Role)

	// The stored session now carries the current role and its shorter
	// window, not the seven-day window it was issued under.
	hash := auth.NewTokenGenerator().HashToken(token)
	stored := store.sessions[hash]
	assert.Equal(t, auth.RoleCollegeAdmin, stored.Role)
	assert.WithinDuration(t, before.Add(auth.CollegeAdminTrustDuration), stored.ExpiresAt, 5*time.Second)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, int(auth.CollegeAdminTrustDuration.Seconds()), cookies[0].MaxAge)
}

func TestSessionMiddlewareOptionalMode(t *testing.T) {
	mw := NewSessionMiddleware(newMemorySessionStore(), &fakeDirectory{}, nil, testLogger(), nil, true)

	rec, seen := runRequest(mw, "")

	assert.Equal(t, http.StatusOK, rec.Code, "optional mode continues unauthenticated")
	assert.Nil(t, seen)
}

func int64ptr(v int64) *int64 { return &v }
