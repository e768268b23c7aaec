package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const eventColumns = `id, title, description, date, to_char(start_time, 'HH24:MI:SS'), venue_id, capacity, category, created_by`

type sqlEventRepo struct{ db *sql.DB }

func NewSQLEventRepository(db *sql.DB) EventRepository { return &sqlEventRepo{db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (Event, error) {
	var e Event
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time,
		&e.Location, &e.Capacity, &e.Category, &e.CreatedBy)
	return e, err
}

func (r *sqlEventRepo) List(ctx context.Context, f EventFilter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != nil {
		args = append(args, *f.Category)
		where = append(where, fmt.Sprintf("category=$%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		where = append(where, fmt.Sprintf("date=$%d", len(args)))
	}
	if f.Location != nil {
		args = append(args, *f.Location)
		where = append(where, fmt.Sprintf("venue_id=$%d", len(args)))
	}

	q := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`
	return r.query(ctx, q, args...)
}

func (r *sqlEventRepo) ListByVenue(ctx context.Context, venueID int64) ([]Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE venue_id=$1 ORDER BY id`, venueID)
}

func (r *sqlEventRepo) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *sqlEventRepo) GetByID(ctx context.Context, id int64) (Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id))
	if err != nil {
		return Event{}, translate(err)
	}
	return e, nil
}

func (r *sqlEventRepo) Create(ctx context.Context, e *Event) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO events(title, description, date, start_time, venue_id, capacity, category, created_by)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		e.Title, e.Description, e.Date, e.Time, e.Location, e.Capacity, e.Category, e.CreatedBy).
		Scan(&e.ID)
	return translate(err)
}

// Update never touches created_by.
func (r *sqlEventRepo) Update(ctx context.Context, e *Event) error {
	return affectedOne(r.db.ExecContext(ctx,
		`UPDATE events SET title=$1, description=$2, date=$3, start_time=$4, venue_id=$5, capacity=$6, category=$7
		 WHERE id=$8`,
		e.Title, e.Description, e.Date, e.Time, e.Location, e.Capacity, e.Category, e.ID))
}

func (r *sqlEventRepo) Delete(ctx context.Context, id int64) error {
	return affectedOne(r.db.ExecContext(ctx, `DELETE FROM events WHERE id=$1`, id))
}
