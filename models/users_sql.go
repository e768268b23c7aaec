package models

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"eventsapi/utils"
)

const userColumns = `id, username, email, first_name, last_name, password, is_superuser, is_staff, is_active, date_joined`

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository { return &sqlUserRepo{db} }

func scanUser(s rowScanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Password,
		&u.IsSuperuser, &u.IsStaff, &u.IsActive, &u.DateJoined)
	return u, err
}

func (r *sqlUserRepo) List(ctx context.Context, p Page) ([]User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *sqlUserRepo) GetByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

// HashPassword hashes a plain password for storage. bcrypt only takes 72
// bytes; a longer password is reported against the password field.
func HashPassword(password string) (string, error) {
	hashed, err := utils.HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ValidationError{"password": {"Ensure this field has no more than 72 bytes."}}
	}
	return hashed, err
}

// Create expects u.Password in plain text and stores the bcrypt hash.
func (r *sqlUserRepo) Create(ctx context.Context, u *User) error {
	hashed, err := HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO users(username, email, first_name, last_name, password, is_superuser, is_staff, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, date_joined`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Password, u.IsSuperuser, u.IsStaff, u.IsActive).
		Scan(&u.ID, &u.DateJoined)
	return translate(err)
}

// Update writes profile and flag columns. The password is left untouched.
func (r *sqlUserRepo) Update(ctx context.Context, u *User) error {
	return affectedOne(r.db.ExecContext(ctx,
		`UPDATE users SET username=$1, email=$2, first_name=$3, last_name=$4, is_superuser=$5, is_staff=$6, is_active=$7
		 WHERE id=$8`,
		u.Username, u.Email, u.FirstName, u.LastName, u.IsSuperuser, u.IsStaff, u.IsActive, u.ID))
}

// Delete cascades to the user's events and registrations.
func (r *sqlUserRepo) Delete(ctx context.Context, id int64) error {
	return affectedOne(r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id))
}

func (r *sqlUserRepo) ValidateCredentials(ctx context.Context, username, plain string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if !u.IsActive || !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
