package models

import (
	"context"
	"time"
)

type Venue struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Amenities string `json:"amenities"`
}

type Event struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        Date     `json:"date"`
	Time        string   `json:"time"`
	Location    int64    `json:"location"`
	Capacity    int      `json:"capacity"`
	Category    Category `json:"category"`
	CreatedBy   int64    `json:"created_by"`
}

// User never serializes its password hash.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Password    string    `json:"-"`
	IsSuperuser bool      `json:"is_superuser"`
	IsStaff     bool      `json:"is_staff"`
	IsActive    bool      `json:"is_active"`
	DateJoined  time.Time `json:"date_joined"`
}

type Registration struct {
	ID               int64     `json:"id"`
	User             int64     `json:"user"`
	Event            int64     `json:"event"`
	RegistrationDate time.Time `json:"registration_date"`
	Accepted         bool      `json:"accepted"`
}

// ExportRow is the projection handed to the spreadsheet writer.
type ExportRow struct {
	Username         string
	EventTitle       string
	RegistrationDate time.Time
	Accepted         bool
}

// Page is a limit/offset window over an ordered result set.
type Page struct {
	Limit  int
	Offset int
}

type EventFilter struct {
	Category *Category
	Date     *Date
	Location *int64
}

type RegistrationFilter struct {
	User  *int64
	Event *int64
}

// ===== Venues =====
type VenueRepository interface {
	List(ctx context.Context, p Page) ([]Venue, int, error)
	GetByID(ctx context.Context, id int64) (Venue, error)
	Create(ctx context.Context, v *Venue) error
	Update(ctx context.Context, v *Venue) error
	Delete(ctx context.Context, id int64) error
}

// ===== Events =====
type EventRepository interface {
	// List returns every matching event ordered by id; callers paginate
	// after any reordering.
	List(ctx context.Context, f EventFilter) ([]Event, error)
	ListByVenue(ctx context.Context, venueID int64) ([]Event, error)
	GetByID(ctx context.Context, id int64) (Event, error)
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id int64) error
}

// ===== Users =====
type UserRepository interface {
	List(ctx context.Context, p Page) ([]User, int, error)
	GetByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
	ValidateCredentials(ctx context.Context, username, plain string) (User, error)
}

// ===== Registrations =====
type RegistrationRepository interface {
	List(ctx context.Context, f RegistrationFilter, p Page) ([]Registration, int, error)
	GetByID(ctx context.Context, id int64) (Registration, error)
	Create(ctx context.Context, r *Registration) error
	SetAccepted(ctx context.Context, id int64, accepted bool) (Registration, error)
	AcceptedCategories(ctx context.Context, userID int64) ([]Category, error)
	ExportRows(ctx context.Context, f RegistrationFilter) ([]ExportRow, error)
}
