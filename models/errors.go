package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DuplicateError reports a unique constraint violation. Field is empty when
// the constraint spans several columns.
type DuplicateError struct {
	Field      string
	Constraint string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "duplicate: " + e.Constraint
	}
	return "duplicate " + e.Field + ": " + e.Constraint
}

// ReferenceError reports a foreign key pointing at a missing row.
type ReferenceError struct {
	Field      string
	Constraint string
}

func (e *ReferenceError) Error() string {
	return "invalid reference " + e.Field + ": " + e.Constraint
}

// ValidationError maps field names to human readable messages.
type ValidationError map[string][]string

func (v ValidationError) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], " "))
	}
	return strings.Join(parts, "; ")
}

// OrNil returns nil when no field failed.
func (v ValidationError) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
