package authz

import (
	"context"
	"time"

	"github.com/campushub/campushub/pkg/auth"
)

// RolePredicate decides whether a role may attempt an action. Scope
// checks happen after the predicate passes.
type RolePredicate func(auth.Role) bool

// RequireRole returns a predicate matching exactly the listed roles.
func RequireRole(roles ...auth.Role) RolePredicate {
	return func(r auth.Role) bool {
		for _, want := range roles {
			if r == want {
				return true
			}
		}
		return false
	}
}

// RequireAuthenticated matches any recognized role.
func RequireAuthenticated() RolePredicate {
	return func(r auth.Role) bool { return r.Valid() }
}

// TargetScope is the owning scope of the resource an action targets.
// The routing layer fills in what it knows; for club resources it must
// supply the club's owning college so college admins can be checked.
type TargetScope struct {
	CollegeID *int64
	ClubID    *int64
}

// Decision is the outcome of one authorization check. Decisions are
// computed fresh on every request and never cached across requests.
type Decision struct {
	Allowed   bool
	Reason    DenyReason
	Binding   *auth.ScopeBinding
	CheckedAt time.Time
}

// Allow builds an allowing decision.
func Allow(binding *auth.ScopeBinding) Decision {
	return Decision{Allowed: true, Binding: binding, CheckedAt: time.Now()}
}

// Deny builds a denying decision with a typed reason.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason, CheckedAt: time.Now()}
}

// Gate combines authentication state, the role predicate, and the
// scope check into a single guard evaluated before any business logic.
type Gate struct {
	resolver *Resolver
}

// NewGate creates an authorization gate over the given resolver.
func NewGate(resolver *Resolver) *Gate {
	return &Gate{resolver: resolver}
}

// Authorize checks an identity against a required role predicate and
// an optional target scope. On Allow the resolved binding is attached
// to the identity so downstream logic does not re-resolve it.
func (g *Gate) Authorize(ctx context.Context, identity *auth.Identity, predicate RolePredicate, target *TargetScope) Decision {
	if identity == nil {
		return Deny(ReasonUnauthenticated)
	}

	if !predicate(identity.Role) {
		return Deny(ReasonWrongRole)
	}

	binding, err := g.resolver.Resolve(ctx, identity)
	if err != nil {
		return Deny(ReasonScopeResolutionFailed)
	}

	if !scopeMatches(identity.Role, binding, target) {
		return Deny(ReasonScopeMismatch)
	}

	identity.AttachBinding(binding)
	return Allow(binding)
}

// scopeMatches compares the resolved binding against the target
// resource's owning scope, exhaustively by role.
func scopeMatches(role auth.Role, binding *auth.ScopeBinding, target *TargetScope) bool {
	switch role {
	case auth.RoleSuperAdmin:
		// The explicit cross-tenant rule: super_admin acts on any
		// college with an empty binding. Not inferred from rank.
		return true

	case auth.RoleUser:
		// Per-resource ownership is checked by the business logic.
		return true

	case auth.RoleClubAdmin:
		if target == nil {
			return true
		}
		if target.ClubID != nil {
			return binding.ClubID != nil && *binding.ClubID == *target.ClubID
		}
		// A club admin cannot satisfy a college-wide target.
		return target.CollegeID == nil

	case auth.RoleCollegeAdmin:
		if target == nil {
			return true
		}
		if target.CollegeID != nil {
			return binding.CollegeID != nil && *binding.CollegeID == *target.CollegeID
		}
		// Club targets must arrive with their owning college filled in.
		return target.ClubID == nil
	}

	return false
}
