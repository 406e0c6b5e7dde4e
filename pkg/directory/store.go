package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campushub/campushub/pkg/auth"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the credential and organizational directory backing
// authentication and scope resolution.
type Store struct {
	db *sql.DB
}

// NewStore creates a directory store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetIdentity materializes the identity for a user id. Called once per
// authenticated request; the result is request-local.
func (s *Store) GetIdentity(ctx context.Context, userID int64) (*auth.Identity, error) {
	query := `
		SELECT id, name, email, photo, role, college_id, club_id, created_at
		FROM users
		WHERE id = $1
	`
	identity := &auth.Identity{}
	var photo sql.NullString
	var roleStr string
	var collegeID, clubID sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&identity.ID, &identity.Name, &identity.Email, &photo,
		&roleStr, &collegeID, &clubID, &identity.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("user %d has invalid role: %w", userID, err)
	}
	identity.Role = role

	if photo.Valid {
		identity.Photo = photo.String
	}
	if collegeID.Valid {
		identity.CollegeID = &collegeID.Int64
	}
	if clubID.Valid {
		identity.ClubID = &clubID.Int64
	}

	return identity, nil
}

// GetIdentityByEmail looks up an identity by email, for the login path.
func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return s.GetIdentity(ctx, userID)
}

// UpsertExternalUser creates or refreshes a user record from an
// external credential verification (OIDC login). New users start with
// the user role and no scope assignment.
func (s *Store) UpsertExternalUser(ctx context.Context, externalID, name, email, photo string) (*auth.Identity, error) {
	query := `
		INSERT INTO users (google_id, name, email, photo, role)
		VALUES ($1, $2, $3, $4, 'user')
		ON CONFLICT (google_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, photo = EXCLUDED.photo
		RETURNING id
	`
	var userID int64
	if err := s.db.QueryRowContext(ctx, query, externalID, name, email, photo).Scan(&userID); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.GetIdentity(ctx, userID)
}

// ClubIDForUser returns the club assignment on record for a user, or
// nil when none exists. Implements authz.ScopeLookup.
func (s *Store) ClubIDForUser(ctx context.Context, userID int64) (*int64, error) {
	var clubID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT club_id FROM users WHERE id = $1`, userID).Scan(&clubID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up club assignment: %w", err)
	}
	if !clubID.Valid {
		return nil, nil
	}
	return &clubID.Int64, nil
}

// CollegeIDForUser returns the college assignment on record for a
// user, or nil when none exists. Implements authz.ScopeLookup.
func (s *Store) CollegeIDForUser(ctx context.Context, userID int64) (*int64, error) {
	var collegeID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT college_id FROM users WHERE id = $1`, userID).Scan(&collegeID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up college assignment: %w", err)
	}
	if !collegeID.Valid {
		return nil, nil
	}
	return &collegeID.Int64, nil
}

// GetCollege retrieves a college by id.
func (s *Store) GetCollege(ctx context.Context, id int64) (*College, error) {
	query := `SELECT id, name, location, logo, created_at FROM colleges WHERE id = $1`
	college := &College{}
	var location, logo sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&college.ID, &college.Name, &location, &logo, &college.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get college: %w", err)
	}
	if location.Valid {
		college.Location = location.String
	}
	if logo.Valid {
		college.Logo = logo.String
	}
	return college, nil
}

// GetClub retrieves a club by id, including its owning college so the
// gate can check college-admin scope against club targets.
func (s *Store) GetClub(ctx context.Context, id int64) (*Club, error) {
	query := `SELECT id, college_id, name, description, logo, created_at FROM clubs WHERE id = $1`
	club := &Club{}
	var description, logo sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&club.ID, &club.CollegeID, &club.Name, &description, &logo, &club.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	if description.Valid {
		club.Description = description.String
	}
	if logo.Valid {
		club.Logo = logo.String
	}
	return club, nil
}

// GetEvent retrieves an event by id.
func (s *Store) GetEvent(ctx context.Context, id int64) (*Event, error) {
	query := `
		SELECT id, club_id, title, description, venue, event_type, role_tag, banner, starts_at, created_at
		FROM events
		WHERE id = $1
	`
	event := &Event{}
	var description, venue, eventType, roleTag, banner sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID, &event.ClubID, &event.Title, &description, &venue,
		&eventType, &roleTag, &banner, &event.StartsAt, &event.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if description.Valid {
		event.Description = description.String
	}
	if venue.Valid {
		event.Venue = venue.String
	}
	if eventType.Valid {
		event.EventType = eventType.String
	}
	if roleTag.Valid {
		event.RoleTag = roleTag.String
	}
	if banner.Valid {
		event.Banner = banner.String
	}
	return event, nil
}

// SetUserRole updates a user's role and scope assignment atomically.
// Used by the admin CLI; role changes take effect on the user's next
// request because trust durations are recomputed per request.
func (s *Store) SetUserRole(ctx context.Context, userID int64, role auth.Role, collegeID, clubID *int64) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if role.RequiresCollegeScope() && collegeID == nil {
		return fmt.Errorf("role %s requires a college assignment", role)
	}
	if role.RequiresClubScope() && clubID == nil {
		return fmt.Errorf("role %s requires a club assignment", role)
	}

	query := `UPDATE users SET role = $1, college_id = $2, club_id = $3 WHERE id = $4`
	result, err := s.db.ExecContext(ctx, query, role, collegeID, clubID, userID)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserPhoto records a newly stored profile photo reference.
func (s *Store) UpdateUserPhoto(ctx context.Context, userID int64, stored string) error {
	return s.updateStored(ctx, `UPDATE users SET photo = $1 WHERE id = $2`, stored, userID)
}

// UpdateCollegeLogo records a newly stored college logo reference.
func (s *Store) UpdateCollegeLogo(ctx context.Context, collegeID int64, stored string) error {
	return s.updateStored(ctx, `UPDATE colleges SET logo = $1 WHERE id = $2`, stored, collegeID)
}

// UpdateClubLogo records a newly stored club logo reference.
func (s *Store) UpdateClubLogo(ctx context.Context, clubID int64, stored string) error {
	return s.updateStored(ctx, `UPDATE clubs SET logo = $1 WHERE id = $2`, stored, clubID)
}

// UpdateEventBanner records a newly stored event banner reference.
func (s *Store) UpdateEventBanner(ctx context.Context, eventID int64, stored string) error {
	return s.updateStored(ctx, `UPDATE events SET banner = $1 WHERE id = $2`, stored, eventID)
}

func (s *Store) updateStored(ctx context.Context, query, stored string, id int64) error {
	result, err := s.db.ExecContext(ctx, query, stored, id)
	if err != nil {
		return fmt.Errorf("failed to update stored media: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
