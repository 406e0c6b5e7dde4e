package audit

import "time"

// EventType represents the category of audit event
type EventType string

const (
	EventTypeAuthLogin          EventType = "auth.login"
	EventTypeAuthLogout         EventType = "auth.logout"
	EventTypeAuthSessionInvalid EventType = "auth.session_invalid"
	EventTypeAuthzAccessDenied  EventType = "authz.access_denied"
	EventTypeAuthzRoleChange    EventType = "authz.role_change"
	EventTypeDataFileUpload     EventType = "data.file_upload"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusDenied  EventStatus = "denied"
	EventStatusFailure EventStatus = "failure"
)

// Event is one audit trail entry.
type Event struct {
	ID           int64       `json:"id"`
	Type         EventType   `json:"type"`
	Status       EventStatus `json:"status"`
	UserID       *int64      `json:"user_id,omitempty"`
	CollegeID    *int64      `json:"college_id,omitempty"`
	ClubID       *int64      `json:"club_id,omitempty"`
	Detail       string      `json:"detail,omitempty"`
	IPAddress    string      `json:"ip_address,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
