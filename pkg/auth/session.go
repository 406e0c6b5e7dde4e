package auth

import "time"

// Trust durations per role. Higher-impact roles get shorter windows.
// These are policy constants; changing one here changes it everywhere.
const (
	UserTrustDuration         = 7 * 24 * time.Hour
	ClubAdminTrustDuration    = 3 * 24 * time.Hour
	CollegeAdminTrustDuration = 24 * time.Hour
	SuperAdminTrustDuration   = 24 * time.Hour
)

// TrustDuration returns the session trust window for a role. It is a
// pure function: the same role always yields the same duration.
// Unrecognized roles get the shortest window rather than failing open.
func TrustDuration(role Role) time.Duration {
	switch role {
	case RoleUser:
		return UserTrustDuration
	case RoleClubAdmin:
		return ClubAdminTrustDuration
	case RoleCollegeAdmin:
		return CollegeAdminTrustDuration
	case RoleSuperAdmin:
		return SuperAdminTrustDuration
	}
	return CollegeAdminTrustDuration
}

// Renew slides the session's expiry from the identity's CURRENT role.
// If the role on record changed since the last renewal, the new role's
// duration applies immediately; there is no stale-duration window.
// It returns true when the stored role drifted from the current one.
func (s *Session) Renew(currentRole Role, now time.Time) bool {
	drifted := s.Role != currentRole
	s.Role = currentRole
	s.ExpiresAt = now.Add(TrustDuration(currentRole))
	return drifted
}
