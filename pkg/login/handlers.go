package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/campushub/campushub/pkg/analytics"
	"github.com/campushub/campushub/pkg/async"
	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/contextkeys"
	"github.com/campushub/campushub/pkg/httputil"
	"github.com/campushub/campushub/pkg/middleware"
	"github.com/campushub/campushub/pkg/observability"
)

const (
	stateCookieName = "campushub_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// Upserter persists externally authenticated users.
type Upserter interface {
	UpsertExternalUser(ctx context.Context, externalID, name, email, photo string) (*auth.Identity, error)
}

// AuthProvider is the identity-provider side of the login flow.
// Satisfied by Provider.
type AuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Handlers serves the browser login flow: redirect to the identity
// provider, handle the callback, and log out.
type Handlers struct {
	provider AuthProvider
	users    Upserter
	sessions auth.SessionStore
	tokens   *auth.TokenGenerator
	auditor  audit.Logger
	events   *analytics.EventTracker
	logger   *observability.Logger
}

// NewHandlers creates the login handlers. events may be nil to disable
// analytics.
func NewHandlers(provider AuthProvider, users Upserter, sessions auth.SessionStore, auditor audit.Logger, events *analytics.EventTracker, logger *observability.Logger) *Handlers {
	return &Handlers{
		provider: provider,
		users:    users,
		sessions: sessions,
		tokens:   auth.NewTokenGenerator(),
		auditor:  auditor,
		events:   events,
		logger:   logger,
	}
}

// RegisterRoutes registers the login routes on the router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods(http.MethodGet)
	router.HandleFunc("/auth/callback", h.Callback).Methods(http.MethodGet)
	router.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodGet, http.MethodPost)
}

// Login redirects the browser to the identity provider with a fresh
// anti-forgery state.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		h.logger.WithError(err).Error("failed to generate login state")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "login unavailable")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the code exchange, upserts the user record and
// issues a session whose lifetime follows the user's current role.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		httputil.WriteBadRequest(w, "invalid login state")
		return
	}

	profile, err := h.provider.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.logger.WithError(err).Warn("login callback rejected")
		h.recordAuth(ctx, r, audit.EventTypeAuthLogin, audit.EventStatusFailure, nil, err.Error())
		h.trackLogin(r, analytics.LoginEvent{Success: false, FailureReason: "token exchange failed"})
		httputil.WriteUnauthorized(w, "login failed")
		return
	}

	identity, err := h.users.UpsertExternalUser(ctx, profile.ExternalID, profile.Name, profile.Email, profile.Picture)
	if err != nil {
		h.logger.WithField("email", profile.Email).WithError(err).Error("failed to upsert user")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, tokenHash, err := h.tokens.GenerateToken()
	if err != nil {
		h.logger.WithError(err).Error("failed to generate session token")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "login failed")
		return
	}

	now := time.Now().UTC()
	ttl := auth.TrustDuration(identity.Role)
	session := &auth.Session{
		UserID:    identity.ID,
		TokenHash: tokenHash,
		Role:      identity.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := h.sessions.Create(ctx, session); err != nil {
		h.logger.WithField("user_id", identity.ID).WithError(err).Error("failed to create session")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// Expired state cookie is no longer needed.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	h.logger.WithFields(map[string]interface{}{"user_id": identity.ID, "role": identity.Role}).Info("user logged in")
	h.recordAuth(ctx, r, audit.EventTypeAuthLogin, audit.EventStatusSuccess, &identity.ID, "")
	h.trackLogin(r, analytics.LoginEvent{
		UserID:  &identity.ID,
		Email:   identity.Email,
		Role:    identity.Role,
		Success: true,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout deletes the session, if any, and clears the cookie. Safe to
// call when not logged in.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var userID *int64
	if identity := middleware.GetIdentity(r); identity != nil {
		userID = &identity.ID
	}

	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.tokens.ValidateTokenFormat(cookie.Value); err == nil {
			hash := h.tokens.HashToken(cookie.Value)
			if err := h.sessions.Delete(ctx, hash); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
				h.logger.WithError(err).Warn("failed to delete session on logout")
			}
		}
	}

	middleware.ClearSessionCookie(w)
	h.recordAuth(ctx, r, audit.EventTypeAuthLogout, audit.EventStatusSuccess, userID, "")

	http.Redirect(w, r, "/", http.StatusFound)
}

// trackLogin records the attempt in the analytics stream, off the
// request path.
func (h *Handlers) trackLogin(r *http.Request, event analytics.LoginEvent) {
	if h.events == nil {
		return
	}
	event.IPAddress = analytics.ClientIP(r)
	event.UserAgent = r.UserAgent()
	event.RequestID = contextkeys.GetRequestID(r.Context())
	async.SafeGo(r.Context(), h.logger, 5*time.Second, "login tracking", func(ctx context.Context) error {
		return h.events.TrackLogin(ctx, event)
	})
}

func (h *Handlers) recordAuth(ctx context.Context, r *http.Request, eventType audit.EventType, status audit.EventStatus, userID *int64, detail string) {
	event := &audit.Event{
		Type:      eventType,
		Status:    status,
		UserID:    userID,
		Detail:    detail,
		IPAddress: r.RemoteAddr,
		RequestID: contextkeys.GetRequestID(ctx),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.auditor.Record(ctx, event); err != nil {
		h.logger.WithField("type", string(eventType)).WithError(err).Warn("failed to record audit event")
	}
}
