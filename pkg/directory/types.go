package directory

import "time"

// College is a tenant root.
type College struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Logo      string    `json:"logo,omitempty"` // stored media identifier
	CreatedAt time.Time `json:"created_at"`
}

// Club belongs to exactly one college.
type Club struct {
	ID          int64     `json:"id"`
	CollegeID   int64     `json:"college_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event belongs to exactly one club.
type Event struct {
	ID          int64     `json:"id"`
	ClubID      int64     `json:"club_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	EventType   string    `json:"event_type,omitempty"`
	RoleTag     string    `json:"role_tag,omitempty"`
	Banner      string    `json:"banner,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedAt   time.Time `json:"created_at"`
}
