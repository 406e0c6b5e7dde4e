package authz

import (
	"errors"
	"fmt"

	"github.com/campushub/campushub/pkg/auth"
)

// DenyReason classifies why the gate refused an action. The routing
// layer translates these into redirects or HTTP statuses.
type DenyReason string

const (
	ReasonUnauthenticated        DenyReason = "unauthenticated"
	ReasonWrongRole              DenyReason = "wrong_role"
	ReasonScopeResolutionFailed  DenyReason = "scope_resolution_failed"
	ReasonScopeMismatch          DenyReason = "scope_mismatch"
	ReasonSessionInvalid         DenyReason = "session_invalid"
)

// ScopeResolutionError means an identity whose role requires a scope
// has no valid scope on record. It is a hard authorization failure:
// the identity is treated as unauthenticated for scoped actions, never
// silently granted a null scope.
type ScopeResolutionError struct {
	UserID int64
	Role   auth.Role
	Cause  string
}

func (e *ScopeResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s scope for user %d: %s", e.Role, e.UserID, e.Cause)
}

// IsScopeResolution reports whether err is a ScopeResolutionError.
func IsScopeResolution(err error) bool {
	var sre *ScopeResolutionError
	return errors.As(err, &sre)
}
