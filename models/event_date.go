package models

import "time"

// ValidateEventDate rejects dates earlier than tomorrow relative to now.
func ValidateEventDate(d Date, now time.Time) error {
	if d.Before(DateOf(now).AddDays(1)) {
		return ValidationError{"date": {"Event date must be in the future."}}
	}
	return nil
}
