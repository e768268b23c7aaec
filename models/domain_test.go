package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAvailableDates_NoBookings(t *testing.T) {
	got := AvailableDates(BookedDates(nil), day("2030-01-01"))
	assert.Equal(t, []string{"No bookings"}, got)
}

func TestAvailableDates_SkipsBookedDays(t *testing.T) {
	events := []Event{
		{ID: 1, Date: day("2030-01-03")},
		{ID: 2, Date: day("2030-01-05")},
		{ID: 3, Date: day("2030-01-03")},
	}
	booked := BookedDates(events)
	require.Equal(t, []Date{day("2030-01-03"), day("2030-01-05")}, booked)

	got := AvailableDates(booked, day("2030-01-01"))
	assert.Equal(t, []string{"2030-01-01", "2030-01-02", "2030-01-04"}, got)
	for _, b := range booked {
		assert.NotContains(t, got, b.String())
	}
}

// Past bookings still count as booked; the walk starts at today regardless.
func TestAvailableDates_PastOnly(t *testing.T) {
	booked := BookedDates([]Event{{Date: day("2029-12-01")}})
	assert.Equal(t, []Date{day("2029-12-01")}, booked)
	assert.Equal(t, []string{}, AvailableDates(booked, day("2030-01-01")))
}

func TestAvailableDates_TodayBooked(t *testing.T) {
	got := AvailableDates([]Date{day("2030-01-01"), day("2030-01-02")}, day("2030-01-01"))
	assert.Empty(t, got)
}

func TestUpcomingEvents(t *testing.T) {
	events := []Event{
		{ID: 1, Date: day("2029-12-31")},
		{ID: 2, Date: day("2030-01-01")},
		{ID: 3, Date: day("2030-02-01")},
	}
	got := UpcomingEvents(events, day("2030-01-01"))
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestOrderByAffinity_StablePartition(t *testing.T) {
	events := []Event{
		{ID: 1, Category: CategoryConcert},
		{ID: 2, Category: CategoryWorkshop},
		{ID: 3, Category: CategorySports},
		{ID: 4, Category: CategoryWorkshop},
		{ID: 5, Category: CategoryConcert},
	}
	got := OrderByAffinity([]Category{CategoryWorkshop, CategorySports}, events)

	ids := make([]int64, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []int64{2, 3, 4, 1, 5}, ids)
}

func TestOrderByAffinity_NoHistory(t *testing.T) {
	events := []Event{{ID: 2}, {ID: 1}}
	assert.Equal(t, events, OrderByAffinity(nil, events))
}

func TestValidateEventDate(t *testing.T) {
	now := time.Date(2030, 6, 10, 23, 59, 0, 0, time.UTC)

	assert.NoError(t, ValidateEventDate(day("2030-06-11"), now))
	assert.NoError(t, ValidateEventDate(day("2031-01-01"), now))

	for _, d := range []string{"2030-06-10", "2030-06-09"} {
		err := ValidateEventDate(day(d), now)
		var ve ValidationError
		require.True(t, errors.As(err, &ve), d)
		assert.Equal(t, []string{"Event date must be in the future."}, ve["date"])
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		D Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2030-02-03"}`), &v))
	assert.Equal(t, day("2030-02-03"), v.D)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2030-02-03"}`, string(out))

	err = json.Unmarshal([]byte(`{"date":"03/02/2030"}`), &v)
	var fe *DateFormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.", fe.Error())
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2030, 4, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2030-04-05", d.String())

	require.NoError(t, d.Scan([]byte("2030-04-06T00:00:00Z")))
	assert.Equal(t, "2030-04-06", d.String())

	assert.Error(t, d.Scan(42))
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryMeetup.Valid())
	assert.False(t, Category("party").Valid())
}

func TestValidationError(t *testing.T) {
	ve := ValidationError{}
	assert.NoError(t, ve.OrNil())

	ve.Add("title", "This field is required.")
	ve.Add("capacity", "Ensure this value is greater than or equal to 0.")
	assert.Error(t, ve.OrNil())
	assert.Equal(t, "capacity: Ensure this value is greater than or equal to 0.; title: This field is required.", ve.Error())
}
