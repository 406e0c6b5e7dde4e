package auth

import "time"

// Identity represents an authenticated actor for the duration of one
// request. It is materialized per request from the directory; nothing
// on it is written back implicitly.
type Identity struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	CollegeID *int64    `json:"college_id,omitempty"`
	ClubID    *int64    `json:"club_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Photo     string    `json:"photo,omitempty"` // opaque media reference
	CreatedAt time.Time `json:"created_at"`

	// binding is the scope resolved for this request, if any. It is
	// request-local cache state, never persisted.
	binding *ScopeBinding
}

// ScopeBinding is the resolved organizational scope an identity may act
// within. Exactly one field is set for club/college admins; both are
// nil for user and super_admin.
type ScopeBinding struct {
	CollegeID *int64 `json:"college_id,omitempty"`
	ClubID    *int64 `json:"club_id,omitempty"`
}

// Empty reports whether no scope restriction applies.
func (b ScopeBinding) Empty() bool {
	return b.CollegeID == nil && b.ClubID == nil
}

// AttachBinding caches a resolved binding on the identity for the rest
// of the current request.
func (i *Identity) AttachBinding(b *ScopeBinding) {
	i.binding = b
}

// Binding returns the binding attached during this request, or nil if
// no resolution has happened yet.
func (i *Identity) Binding() *ScopeBinding {
	return i.binding
}

// Session is the trust window issued after credential verification.
// TrustDuration is derived from the owner's role at renewal time, not
// stored independently.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"` // never expose the hash
	Role      Role      `json:"role"` // role at issue/last renewal, for drift detection
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's trust window has elapsed. An
// expired session is treated as absent; no background sweep is needed
// for correctness.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
