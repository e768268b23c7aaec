package models

import "sort"

// NoBookings is the single entry of AvailableDates for a venue that has never
// been booked.
const NoBookings = "No bookings"

// BookedDates returns the distinct dates of events, ascending. Past and future
// events both count.
func BookedDates(events []Event) []Date {
	seen := make(map[Date]struct{}, len(events))
	out := make([]Date, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.Date]; ok {
			continue
		}
		seen[e.Date] = struct{}{}
		out = append(out, e.Date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// AvailableDates walks every day from today through the latest booked date,
// both inclusive, and returns the ones not booked. The walk always starts at
// today, whatever the earliest booking is.
func AvailableDates(booked []Date, today Date) []string {
	if len(booked) == 0 {
		return []string{NoBookings}
	}

	taken := make(map[Date]struct{}, len(booked))
	last := booked[0]
	for _, d := range booked {
		taken[d] = struct{}{}
		if d.After(last) {
			last = d
		}
	}

	available := []string{}
	for day := today; !day.After(last); day = day.AddDays(1) {
		if _, ok := taken[day]; !ok {
			available = append(available, day.String())
		}
	}
	return available
}

// UpcomingEvents keeps events dated today or later, preserving order.
func UpcomingEvents(events []Event, today Date) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !e.Date.Before(today) {
			out = append(out, e)
		}
	}
	return out
}
