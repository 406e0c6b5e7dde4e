package authz

import (
	"context"
	"fmt"

	"github.com/campushub/campushub/pkg/auth"
)

// ScopeLookup is the slice of the directory the resolver needs: the
// persisted scope assignment for an identity. A nil result means no
// assignment is on record.
type ScopeLookup interface {
	ClubIDForUser(ctx context.Context, userID int64) (*int64, error)
	CollegeIDForUser(ctx context.Context, userID int64) (*int64, error)
}

// Resolver resolves and validates the organizational scope an identity
// is authorized to act within. Results are memoized on the identity
// for the lifetime of one request, never across requests: role and
// scope assignments can change between requests.
type Resolver struct {
	lookup ScopeLookup
}

// NewResolver creates a scope resolver backed by the given directory.
func NewResolver(lookup ScopeLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns the ScopeBinding for an identity, or a
// ScopeResolutionError when a required scope is missing or malformed.
func (r *Resolver) Resolve(ctx context.Context, identity *auth.Identity) (*auth.ScopeBinding, error) {
	if b := identity.Binding(); b != nil {
		return b, nil
	}

	binding, err := r.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	identity.AttachBinding(binding)
	return binding, nil
}

func (r *Resolver) resolve(ctx context.Context, identity *auth.Identity) (*auth.ScopeBinding, error) {
	switch identity.Role {
	case auth.RoleClubAdmin:
		clubID, err := r.clubID(ctx, identity)
		if err != nil {
			return nil, err
		}
		return &auth.ScopeBinding{ClubID: clubID}, nil

	case auth.RoleCollegeAdmin:
		collegeID, err := r.collegeID(ctx, identity)
		if err != nil {
			return nil, err
		}
		return &auth.ScopeBinding{CollegeID: collegeID}, nil

	case auth.RoleUser, auth.RoleSuperAdmin:
		// No scope restriction from this resolver. User actions are
		// ownership-checked per resource by the business logic;
		// super_admin's cross-tenant power is an explicit gate rule.
		return &auth.ScopeBinding{}, nil
	}

	return nil, &ScopeResolutionError{
		UserID: identity.ID,
		Role:   identity.Role,
		Cause:  "unrecognized role",
	}
}

func (r *Resolver) clubID(ctx context.Context, identity *auth.Identity) (*int64, error) {
	id := identity.ClubID
	if id == nil {
		looked, err := r.lookup.ClubIDForUser(ctx, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up club assignment: %w", err)
		}
		id = looked
	}

	if id == nil {
		return nil, &ScopeResolutionError{
			UserID: identity.ID,
			Role:   identity.Role,
			Cause:  "no club assignment on record",
		}
	}
	if *id <= 0 {
		return nil, &ScopeResolutionError{
			UserID: identity.ID,
			Role:   identity.Role,
			Cause:  fmt.Sprintf("malformed club id %d", *id),
		}
	}
	return id, nil
}

func (r *Resolver) collegeID(ctx context.Context, identity *auth.Identity) (*int64, error) {
	id := identity.CollegeID
	if id == nil {
		looked, err := r.lookup.CollegeIDForUser(ctx, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up college assignment: %w", err)
		}
		id = looked
	}

	if id == nil {
		return nil, &ScopeResolutionError{
			UserID: identity.ID,
			Role:   identity.Role,
			Cause:  "no college assignment on record",
		}
	}
	if *id <= 0 {
		return nil, &ScopeResolutionError{
			UserID: identity.ID,
			Role:   identity.Role,
			Cause:  fmt.Sprintf("malformed college id %d", *id),
		}
	}
	return id, nil
}
