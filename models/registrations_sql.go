package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const registrationColumns = `id, user_id, event_id, registration_date, accepted`

type sqlRegistrationRepo struct{ db *sql.DB }

func NewSQLRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &sqlRegistrationRepo{db}
}

func scanRegistration(s rowScanner) (Registration, error) {
	var reg Registration
	err := s.Scan(&reg.ID, &reg.User, &reg.Event, &reg.RegistrationDate, &reg.Accepted)
	return reg, err
}

// filterClause builds the WHERE part shared by List and ExportRows. prefix
// qualifies the column names when the query joins other tables.
func filterClause(f RegistrationFilter, prefix string) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.User != nil {
		args = append(args, *f.User)
		where = append(where, fmt.Sprintf("%suser_id=$%d", prefix, len(args)))
	}
	if f.Event != nil {
		args = append(args, *f.Event)
		where = append(where, fmt.Sprintf("%sevent_id=$%d", prefix, len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *sqlRegistrationRepo) List(ctx context.Context, f RegistrationFilter, p Page) ([]Registration, int, error) {
	where, args := filterClause(f, "")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM registrations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM registrations%s ORDER BY id LIMIT $%d OFFSET $%d`,
		registrationColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, reg)
	}
	return out, total, rows.Err()
}

func (r *sqlRegistrationRepo) GetByID(ctx context.Context, id int64) (Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id=$1`, id))
	if err != nil {
		return Registration{}, translate(err)
	}
	return reg, nil
}

// Create relies on UNIQUE(user_id, event_id) to reject a second registration.
func (r *sqlRegistrationRepo) Create(ctx context.Context, reg *Registration) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO registrations(user_id, event_id, accepted) VALUES ($1,$2,$3)
		 RETURNING id, registration_date`,
		reg.User, reg.Event, reg.Accepted).Scan(&reg.ID, &reg.RegistrationDate)
	return translate(err)
}

func (r *sqlRegistrationRepo) SetAccepted(ctx context.Context, id int64, accepted bool) (Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		`UPDATE registrations SET accepted=$1 WHERE id=$2 RETURNING `+registrationColumns, accepted, id))
	if err != nil {
		return Registration{}, translate(err)
	}
	return reg, nil
}

func (r *sqlRegistrationRepo) AcceptedCategories(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT e.category FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.user_id=$1 AND r.accepted`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *sqlRegistrationRepo) ExportRows(ctx context.Context, f RegistrationFilter) ([]ExportRow, error) {
	where, args := filterClause(f, "r.")
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.username, e.title, r.registration_date, r.accepted FROM registrations r
		 JOIN users u ON u.id = r.user_id
		 JOIN events e ON e.id = r.event_id`+where+` ORDER BY r.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ExportRow{}
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.Username, &row.EventTitle, &row.RegistrationDate, &row.Accepted); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
