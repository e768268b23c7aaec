// Package mocks provides in-memory repositories backed by one shared store.
// They enforce the same unique keys, references and cascades as the
// Postgres schema so handler tests observe the same errors.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"eventsapi/models"
	"eventsapi/utils"
)

type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	lastID int64

	users  map[int64]models.User
	venues map[int64]models.Venue
	events map[int64]models.Event
	regs   map[int64]models.Registration
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:    now,
		users:  map[int64]models.User{},
		venues: map[int64]models.Venue{},
		events: map[int64]models.Event{},
		regs:   map[int64]models.Registration{},
	}
}

func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Venues() *VenueRepo               { return &VenueRepo{s} }
func (s *Store) Events() *EventRepo               { return &EventRepo{s} }
func (s *Store) Registrations() *RegistrationRepo { return &RegistrationRepo{s} }

func (s *Store) id() int64 {
	s.lastID++
	return s.lastID
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func window[T any](items []T, p models.Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if p.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

// cascade helpers; callers hold s.mu.
func (s *Store) deleteEvent(id int64) {
	delete(s.events, id)
	for rid, r := range s.regs {
		if r.Event == id {
			delete(s.regs, rid)
		}
	}
}

/* -------------------- Users -------------------- */

type UserRepo struct{ s *Store }

func (r *UserRepo) List(_ context.Context, p models.Page) ([]models.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.User{}
	for _, id := range sortedKeys(r.s.users) {
		out = append(out, r.s.users[id])
	}
	return window(out, p), len(out), nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) usernameTaken(name string, except int64) bool {
	for id, u := range r.s.users {
		if id != except && u.Username == name {
			return true
		}
	}
	return false
}

// Create hashes u.Password like the SQL repository does.
func (r *UserRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.usernameTaken(u.Username, 0) {
		return &models.DuplicateError{Field: "username", Constraint: "users_username_key"}
	}
	hashed, err := models.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	u.ID = r.s.id()
	u.DateJoined = r.s.now().UTC()
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.users[u.ID]
	if !ok {
		return models.ErrNotFound
	}
	if r.usernameTaken(u.Username, u.ID) {
		return &models.DuplicateError{Field: "username", Constraint: "users_username_key"}
	}
	u.Password = old.Password
	u.DateJoined = old.DateJoined
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.users, id)
	for eid, e := range r.s.events {
		if e.CreatedBy == id {
			r.s.deleteEvent(eid)
		}
	}
	for rid, reg := range r.s.regs {
		if reg.User == id {
			delete(r.s.regs, rid)
		}
	}
	return nil
}

func (r *UserRepo) ValidateCredentials(_ context.Context, username, plain string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username != username {
			continue
		}
		if !u.IsActive || !utils.CheckPasswordHash(plain, u.Password) {
			return models.User{}, models.ErrInvalidCredentials
		}
		return u, nil
	}
	return models.User{}, models.ErrInvalidCredentials
}

/* -------------------- Venues -------------------- */

type VenueRepo struct{ s *Store }

func (r *VenueRepo) List(_ context.Context, p models.Page) ([]models.Venue, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Venue{}
	for _, id := range sortedKeys(r.s.venues) {
		out = append(out, r.s.venues[id])
	}
	return window(out, p), len(out), nil
}

func (r *VenueRepo) GetByID(_ context.Context, id int64) (models.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.venues[id]
	if !ok {
		return models.Venue{}, models.ErrNotFound
	}
	return v, nil
}

func (r *VenueRepo) nameTaken(name string, except int64) bool {
	for id, v := range r.s.venues {
		if id != except && v.Name == name {
			return true
		}
	}
	return false
}

func (r *VenueRepo) Create(_ context.Context, v *models.Venue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(v.Name, 0) {
		return &models.DuplicateError{Field: "name", Constraint: "venues_name_key"}
	}
	v.ID = r.s.id()
	r.s.venues[v.ID] = *v
	return nil
}

func (r *VenueRepo) Update(_ context.Context, v *models.Venue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.venues[v.ID]; !ok {
		return models.ErrNotFound
	}
	if r.nameTaken(v.Name, v.ID) {
		return &models.DuplicateError{Field: "name", Constraint: "venues_name_key"}
	}
	r.s.venues[v.ID] = *v
	return nil
}

func (r *VenueRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.venues[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.venues, id)
	for eid, e := range r.s.events {
		if e.Location == id {
			r.s.deleteEvent(eid)
		}
	}
	return nil
}

/* -------------------- Events -------------------- */

type EventRepo struct{ s *Store }

func (r *EventRepo) List(_ context.Context, f models.EventFilter) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Event{}
	for _, id := range sortedKeys(r.s.events) {
		e := r.s.events[id]
		if f.Category != nil && e.Category != *f.Category {
			continue
		}
		if f.Date != nil && !e.Date.Equal(*f.Date) {
			continue
		}
		if f.Location != nil && e.Location != *f.Location {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *EventRepo) ListByVenue(ctx context.Context, venueID int64) ([]models.Event, error) {
	return r.List(ctx, models.EventFilter{Location: &venueID})
}

func (r *EventRepo) GetByID(_ context.Context, id int64) (models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	return e, nil
}

func (r *EventRepo) checkRefs(e *models.Event) error {
	if _, ok := r.s.venues[e.Location]; !ok {
		return &models.ReferenceError{Field: "location", Constraint: "events_venue_id_fkey"}
	}
	if _, ok := r.s.users[e.CreatedBy]; !ok {
		return &models.ReferenceError{Field: "created_by", Constraint: "events_created_by_fkey"}
	}
	return nil
}

func (r *EventRepo) Create(_ context.Context, e *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRefs(e); err != nil {
		return err
	}
	e.ID = r.s.id()
	r.s.events[e.ID] = *e
	return nil
}

func (r *EventRepo) Update(_ context.Context, e *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.events[e.ID]
	if !ok {
		return models.ErrNotFound
	}
	e.CreatedBy = old.CreatedBy
	if err := r.checkRefs(e); err != nil {
		return err
	}
	r.s.events[e.ID] = *e
	return nil
}

func (r *EventRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return models.ErrNotFound
	}
	r.s.deleteEvent(id)
	return nil
}

/* --------------- Registrations ------------------ */

type RegistrationRepo struct{ s *Store }

func matches(reg models.Registration, f models.RegistrationFilter) bool {
	if f.User != nil && reg.User != *f.User {
		return false
	}
	if f.Event != nil && reg.Event != *f.Event {
		return false
	}
	return true
}

func (r *RegistrationRepo) List(_ context.Context, f models.RegistrationFilter, p models.Page) ([]models.Registration, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Registration{}
	for _, id := range sortedKeys(r.s.regs) {
		if reg := r.s.regs[id]; matches(reg, f) {
			out = append(out, reg)
		}
	}
	return window(out, p), len(out), nil
}

func (r *RegistrationRepo) GetByID(_ context.Context, id int64) (models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.regs[id]
	if !ok {
		return models.Registration{}, models.ErrNotFound
	}
	return reg, nil
}

func (r *RegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[reg.User]; !ok {
		return &models.ReferenceError{Field: "user", Constraint: "registrations_user_id_fkey"}
	}
	if _, ok := r.s.events[reg.Event]; !ok {
		return &models.ReferenceError{Field: "event", Constraint: "registrations_event_id_fkey"}
	}
	for _, other := range r.s.regs {
		if other.User == reg.User && other.Event == reg.Event {
			return &models.DuplicateError{Constraint: "registrations_user_id_event_id_key"}
		}
	}
	reg.ID = r.s.id()
	reg.RegistrationDate = r.s.now().UTC()
	r.s.regs[reg.ID] = *reg
	return nil
}

func (r *RegistrationRepo) SetAccepted(_ context.Context, id int64, accepted bool) (models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.regs[id]
	if !ok {
		return models.Registration{}, models.ErrNotFound
	}
	reg.Accepted = accepted
	r.s.regs[id] = reg
	return reg, nil
}

func (r *RegistrationRepo) AcceptedCategories(_ context.Context, userID int64) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[models.Category]bool{}
	var out []models.Category
	for _, id := range sortedKeys(r.s.regs) {
		reg := r.s.regs[id]
		if reg.User != userID || !reg.Accepted {
			continue
		}
		if c := r.s.events[reg.Event].Category; !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *RegistrationRepo) ExportRows(_ context.Context, f models.RegistrationFilter) ([]models.ExportRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.ExportRow{}
	for _, id := range sortedKeys(r.s.regs) {
		reg := r.s.regs[id]
		if !matches(reg, f) {
			continue
		}
		out = append(out, models.ExportRow{
			Username:         r.s.users[reg.User].Username,
			EventTitle:       r.s.events[reg.Event].Title,
			RegistrationDate: reg.RegistrationDate,
			Accepted:         reg.Accepted,
		})
	}
	return out, nil
}
