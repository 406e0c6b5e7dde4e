package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/authz"
	"github.com/campushub/campushub/pkg/contextkeys"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/httputil"
	"github.com/campushub/campushub/pkg/observability"
)

// TargetScopeFunc extracts the owning scope of the resource a request
// targets.
type TargetScopeFunc func(r *http.Request) (*authz.TargetScope, error)

// NoTarget is used for actions without a scoped target resource.
func NoTarget(r *http.Request) (*authz.TargetScope, error) {
	return nil, nil
}

// CollegeTarget extracts the target college from the {college_id}
// route variable.
func CollegeTarget(r *http.Request) (*authz.TargetScope, error) {
	id, err := int64Var(r, "college_id")
	if err != nil {
		return nil, err
	}
	return &authz.TargetScope{CollegeID: &id}, nil
}

// ClubLookup resolves a club's owning college for scope checks.
type ClubLookup interface {
	GetClub(ctx context.Context, id int64) (*directory.Club, error)
}

// ClubTarget extracts the target club from the {club_id} route
// variable and fills in its owning college so college admins can be
// checked against it.
func ClubTarget(clubs ClubLookup) TargetScopeFunc {
	return func(r *http.Request) (*authz.TargetScope, error) {
		id, err := int64Var(r, "club_id")
		if err != nil {
			return nil, err
		}
		club, err := clubs.GetClub(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return &authz.TargetScope{ClubID: &club.ID, CollegeID: &club.CollegeID}, nil
	}
}

// EventLookup resolves an event's owning club for scope checks.
type EventLookup interface {
	GetEvent(ctx context.Context, id int64) (*directory.Event, error)
}

// EventTarget walks {event_id} up to its owning club and college so
// both admin roles can be checked against the event.
func EventTarget(events EventLookup, clubs ClubLookup) TargetScopeFunc {
	return func(r *http.Request) (*authz.TargetScope, error) {
		id, err := int64Var(r, "event_id")
		if err != nil {
			return nil, err
		}
		event, err := events.GetEvent(r.Context(), id)
		if err != nil {
			return nil, err
		}
		club, err := clubs.GetClub(r.Context(), event.ClubID)
		if err != nil {
			return nil, err
		}
		return &authz.TargetScope{ClubID: &club.ID, CollegeID: &club.CollegeID}, nil
	}
}

// GateMiddleware runs the authorization gate in front of handlers and
// translates Deny decisions into HTTP responses.
type GateMiddleware struct {
	gate    *authz.Gate
	auditor audit.Logger
	metrics *observability.Metrics
}

// NewGateMiddleware creates a gate middleware. auditor and metrics may
// be nil.
func NewGateMiddleware(gate *authz.Gate, auditor audit.Logger, metrics *observability.Metrics) *GateMiddleware {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	return &GateMiddleware{gate: gate, auditor: auditor, metrics: metrics}
}

// Require guards a handler with a role predicate and a target scope
// extractor. The decision is evaluated fresh on every request.
func (m *GateMiddleware) Require(predicate authz.RolePredicate, target TargetScopeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r)

			targetScope, err := target(r)
			if err != nil {
				httputil.WriteBadRequest(w, err.Error())
				return
			}

			decision := m.gate.Authorize(r.Context(), identity, predicate, targetScope)
			m.count(decision)

			if !decision.Allowed {
				m.recordDenial(r, decision)
				writeDeny(w, decision.Reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *GateMiddleware) count(decision authz.Decision) {
	if m.metrics == nil {
		return
	}
	if decision.Allowed {
		m.metrics.AuthDecisionsTotal.WithLabelValues("allow", "").Inc()
	} else {
		m.metrics.AuthDecisionsTotal.WithLabelValues("deny", string(decision.Reason)).Inc()
	}
}

func (m *GateMiddleware) recordDenial(r *http.Request, decision authz.Decision) {
	event := &audit.Event{
		Type:      audit.EventTypeAuthzAccessDenied,
		Status:    audit.EventStatusDenied,
		Detail:    string(decision.Reason),
		IPAddress: r.RemoteAddr,
		RequestID: contextkeys.GetRequestID(r.Context()),
	}
	if identity := GetIdentity(r); identity != nil {
		event.UserID = &identity.ID
	}
	// Auditing must never fail the request.
	_ = m.auditor.Record(r.Context(), event)
}

// writeDeny maps deny reasons onto HTTP statuses. Failed or missing
// authentication, including failed scope resolution, reads as 401 so
// the client re-authenticates; everything else is 403.
func writeDeny(w http.ResponseWriter, reason authz.DenyReason) {
	switch reason {
	case authz.ReasonUnauthenticated, authz.ReasonSessionInvalid, authz.ReasonScopeResolutionFailed:
		httputil.WriteUnauthorized(w, string(reason))
	default:
		httputil.WriteForbidden(w, string(reason))
	}
}

func int64Var(r *http.Request, name string) (int64, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
