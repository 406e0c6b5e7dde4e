package login

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/middleware"
	"github.com/campushub/campushub/pkg/observability"
)

// stubProvider satisfies AuthProvider without an identity provider.
type stubProvider struct {
	profile     *Profile
	exchangeErr error
	lastCode    string
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/auth?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	p.lastCode = code
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.profile, nil
}

// fakeUpserter returns a fixed identity for any profile.
type fakeUpserter struct {
	identity *auth.Identity
	err      error
	calls    int
}

func (f *fakeUpserter) UpsertExternalUser(ctx context.Context, externalID, name, email, photo string) (*auth.Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

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
	if _, ok := m.sessions[hash]; !ok {
		return auth.ErrSessionNotFound
	}
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

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func newTestHandlers(provider AuthProvider, users Upserter, store auth.SessionStore) *Handlers {
	return NewHandlers(provider, users, store, audit.NopLogger{}, nil, testLogger())
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func callbackRequest(state, code, cookieState string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state+"&code="+code, nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: cookieState})
	}
	return req
}

func TestLoginRedirectsWithState(t *testing.T) {
	h := newTestHandlers(&stubProvider{}, &fakeUpserter{}, newMemorySessionStore())

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)

	state := findCookie(t, rec, stateCookieName)
	require.NotNil(t, state)
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)

	// The provider redirect carries the same anti-forgery state.
	assert.Equal(t, "https://idp.example.com/auth?state="+state.Value, rec.Header().Get("Location"))
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	store := newMemorySessionStore()
	users := &fakeUpserter{}
	h := newTestHandlers(&stubProvider{}, users, store)

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("tampered", "code-1", "expected"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, users.calls)
	assert.Empty(t, store.sessions)
}

func TestCallbackRequiresStateCookie(t *testing.T) {
	store := newMemorySessionStore()
	h := newTestHandlers(&stubProvider{}, &fakeUpserter{}, store)

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("some-state", "code-1", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.sessions)
}

func TestCallbackRejectsFailedExchange(t *testing.T) {
	store := newMemorySessionStore()
	provider := &stubProvider{exchangeErr: errors.New("invalid code")}
	h := newTestHandlers(provider, &fakeUpserter{}, store)

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("st", "bad-code", "st"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "bad-code", provider.lastCode)
	assert.Empty(t, store.sessions)
}

func TestCallbackIssuesRoleScopedSession(t *testing.T) {
	store := newMemorySessionStore()
	provider := &stubProvider{profile: &Profile{
		ExternalID: "google-123",
		Email:      "priya@college.edu",
		Name:       "Priya",
	}}
	clubID := int64(12)
	users := &fakeUpserter{identity: &auth.Identity{
		ID:     7,
		Role:   auth.RoleClubAdmin,
		ClubID: &clubID,
		Email:  "priya@college.edu",
	}}
	h := newTestHandlers(provider, users, store)

	before := time.Now().UTC()
	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("st", "code-1", "st"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, 1, users.calls)

	// The cookie holds the plaintext token; the store only its hash.
	cookie := findCookie(t, rec, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	tokens := auth.NewTokenGenerator()
	require.NoError(t, tokens.ValidateTokenFormat(cookie.Value))

	session, ok := store.sessions[tokens.HashToken(cookie.Value)]
	require.True(t, ok, "session must be stored under the token hash")
	assert.Equal(t, int64(7), session.UserID)
	assert.Equal(t, auth.RoleClubAdmin, session.Role)

	// The trust window follows the current role, not a fixed TTL.
	assert.Equal(t, auth.ClubAdminTrustDuration, session.ExpiresAt.Sub(session.IssuedAt))
	assert.WithinDuration(t, before.Add(auth.ClubAdminTrustDuration), session.ExpiresAt, 5*time.Second)
	assert.Equal(t, int(auth.ClubAdminTrustDuration.Seconds()), cookie.MaxAge)

	state := findCookie(t, rec, stateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, -1, state.MaxAge, "state cookie must be cleared after the callback")
}

func TestCallbackUpsertFailure(t *testing.T) {
	store := newMemorySessionStore()
	provider := &stubProvider{profile: &Profile{ExternalID: "google-123", Email: "p@c.edu", Name: "P"}}
	h := newTestHandlers(provider, &fakeUpserter{err: errors.New("db down")}, store)

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("st", "code-1", "st"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, store.sessions)
}

func TestLogoutDeletesSessionAndClearsCookie(t *testing.T) {
	store := newMemorySessionStore()
	h := newTestHandlers(&stubProvider{}, &fakeUpserter{}, store)

	tokens := auth.NewTokenGenerator()
	token, hash, err := tokens.GenerateToken()
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, store.Create(context.Background(), &auth.Session{
		UserID:    7,
		TokenHash: hash,
		Role:      auth.RoleUser,
		IssuedAt:  now,
		ExpiresAt: now.Add(auth.UserTrustDuration),
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, store.sessions)

	cookie := findCookie(t, rec, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Empty(t, cookie.Value)
}

func TestLogoutWithoutSession(t *testing.T) {
	h := newTestHandlers(&stubProvider{}, &fakeUpserter{}, newMemorySessionStore())

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)

	cookie := findCookie(t, rec, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}
