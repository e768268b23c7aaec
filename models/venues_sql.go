package models

import (
	"context"
	"database/sql"
)

type sqlVenueRepo struct{ db *sql.DB }

func NewSQLVenueRepository(db *sql.DB) VenueRepository { return &sqlVenueRepo{db} }

func (r *sqlVenueRepo) List(ctx context.Context, p Page) ([]Venue, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM venues`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, capacity, amenities FROM venues ORDER BY id LIMIT $1 OFFSET $2`,
		p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Venue{}
	for rows.Next() {
		var v Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Capacity, &v.Amenities); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *sqlVenueRepo) GetByID(ctx context.Context, id int64) (Venue, error) {
	var v Venue
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, capacity, amenities FROM venues WHERE id=$1`, id).
		Scan(&v.ID, &v.Name, &v.Capacity, &v.Amenities)
	if err != nil {
		return Venue{}, translate(err)
	}
	return v, nil
}

func (r *sqlVenueRepo) Create(ctx context.Context, v *Venue) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO venues(name, capacity, amenities) VALUES ($1,$2,$3) RETURNING id`,
		v.Name, v.Capacity, v.Amenities).Scan(&v.ID)
	return translate(err)
}

func (r *sqlVenueRepo) Update(ctx context.Context, v *Venue) error {
	return affectedOne(r.db.ExecContext(ctx,
		`UPDATE venues SET name=$1, capacity=$2, amenities=$3 WHERE id=$4`,
		v.Name, v.Capacity, v.Amenities, v.ID))
}

// Delete relies on events.venue_id ON DELETE CASCADE.
func (r *sqlVenueRepo) Delete(ctx context.Context, id int64) error {
	return affectedOne(r.db.ExecContext(ctx, `DELETE FROM venues WHERE id=$1`, id))
}
