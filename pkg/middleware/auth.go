package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/contextkeys"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/httputil"
	"github.com/campushub/campushub/pkg/observability"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "campushub_session"

// IdentityResolver re-materializes an identity from the directory on
// every request.
type IdentityResolver interface {
	GetIdentity(ctx context.Context, userID int64) (*auth.Identity, error)
}

// SessionMiddleware authenticates requests from the session cookie.
//
// Per request it: validates the token shape, looks the session up by
// hash, lazily rejects expired sessions, re-resolves the identity (a
// deleted user invalidates the session), and slides the expiry using
// the trust duration of the identity's CURRENT role.
type SessionMiddleware struct {
	sessions auth.SessionStore
	resolver IdentityResolver
	tokens   *auth.TokenGenerator
	auditor  audit.Logger
	logger   *observability.Logger
	metrics  *observability.Metrics
	optional bool // if true, continue unauthenticated instead of failing
}

// NewSessionMiddleware creates a new session middleware. auditor and
// metrics may be nil.
func NewSessionMiddleware(sessions auth.SessionStore, resolver IdentityResolver, auditor audit.Logger, logger *observability.Logger, metrics *observability.Metrics, optional bool) *SessionMiddleware {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	return &SessionMiddleware{
		sessions: sessions,
		resolver: resolver,
		tokens:   auth.NewTokenGenerator(),
		auditor:  auditor,
		logger:   logger,
		metrics:  metrics,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with session authentication.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			m.unauthenticated(w, r, next)
			return
		}

		token := cookie.Value
		if err := m.tokens.ValidateTokenFormat(token); err != nil {
			m.unauthenticated(w, r, next)
			return
		}

		ctx := r.Context()
		session, err := m.sessions.GetByTokenHash(ctx, m.tokens.HashToken(token))
		if err != nil {
			if !errors.Is(err, auth.ErrSessionNotFound) {
				m.logger.WithError(err).Error("session lookup failed")
			}
			m.unauthenticated(w, r, next)
			return
		}

		now := time.Now()
		if session.Expired(now) {
			// Lazy expiry: an elapsed trust window means no session.
			m.unauthenticated(w, r, next)
			return
		}

		identity, err := m.resolver.GetIdentity(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				// Identity no longer resolvable: the session is invalid,
				// not merely absent.
				_ = m.sessions.Delete(ctx, session.TokenHash)
				m.recordInvalidSession(r, session)
				m.logger.WithField("user_id", session.UserID).Warn("session references deleted user")
			} else {
				m.logger.WithError(err).Error("identity resolution failed")
			}
			m.unauthenticated(w, r, next)
			return
		}

		if drifted := session.Renew(identity.Role, now); drifted {
			m.logger.WithFields(map[string]interface{}{
				"user_id": identity.ID,
				"role":    string(identity.Role),
			}).Info("session trust window recomputed after role change")
		}
		if err := m.sessions.Renew(ctx, session); err != nil {
			m.logger.WithError(err).Error("session renewal failed")
		} else if m.metrics != nil {
			m.metrics.SessionRenewals.Inc()
		}

		refreshCookie(w, token, auth.TrustDuration(identity.Role))

		ctx = contextkeys.WithIdentity(ctx, identity)
		ctx = contextkeys.WithSession(ctx, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) recordInvalidSession(r *http.Request, session *auth.Session) {
	event := &audit.Event{
		Type:      audit.EventTypeAuthSessionInvalid,
		Status:    audit.EventStatusDenied,
		UserID:    &session.UserID,
		Detail:    "session references deleted user",
		IPAddress: r.RemoteAddr,
		RequestID: contextkeys.GetRequestID(r.Context()),
	}
	// Auditing must never fail the request.
	_ = m.auditor.Record(r.Context(), event)
}

func (m *SessionMiddleware) unauthenticated(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if m.optional {
		next.ServeHTTP(w, r)
		return
	}
	httputil.WriteUnauthorized(w, "authentication required")
}

func refreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie; used on logout.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetIdentity extracts the authenticated identity from a request, or
// nil when the request is unauthenticated.
func GetIdentity(r *http.Request) *auth.Identity {
	identity, ok := r.Context().Value(contextkeys.IdentityKey).(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// GetSession extracts the active session from a request, or nil.
func GetSession(r *http.Request) *auth.Session {
	session, ok := r.Context().Value(contextkeys.SessionKey).(*auth.Session)
	if !ok {
		return nil
	}
	return session
}
