package models

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// constraint name → API field. Names follow db/migrations.
var constraintFields = map[string]string{
	"users_username_key":                 "username",
	"venues_name_key":                    "name",
	"registrations_user_id_event_id_key": "",
	"events_venue_id_fkey":               "location",
	"events_created_by_fkey":             "created_by",
	"registrations_user_id_fkey":         "user",
	"registrations_event_id_fkey":        "event",
}

// translate maps driver errors onto the package's error kinds.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return &DuplicateError{Field: constraintFields[pqErr.Constraint], Constraint: pqErr.Constraint}
		case pqForeignKeyViolation:
			return &ReferenceError{Field: constraintFields[pqErr.Constraint], Constraint: pqErr.Constraint}
		}
	}
	return err
}

// affectedOne turns a zero-row mutation into ErrNotFound.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
