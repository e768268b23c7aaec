package routes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventsapi/models"
	"eventsapi/policy"
)

type venueInput struct {
	Name      *string `json:"name" validate:"required,notblank,max=255"`
	Capacity  *int    `json:"capacity" validate:"omitempty,min=0,max=2147483647"`
	Amenities *string `json:"amenities" validate:"required,notblank"`
}

// venueResponse is a venue with its derived booking calendar.
type venueResponse struct {
	models.Venue
	BookedDates    []models.Date  `json:"booked_dates"`
	AvailableDates []string       `json:"available_dates"`
	Events         []models.Event `json:"events"`
}

// pathID parses :id. Anything that is not a positive integer cannot exist.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ErrNotFound
	}
	return id, nil
}

func (d *deps) venueView(ctx context.Context, v models.Venue) (venueResponse, error) {
	events, err := d.events.ListByVenue(ctx, v.ID)
	if err != nil {
		return venueResponse{}, err
	}
	today := d.today()
	booked := models.BookedDates(events)
	return venueResponse{
		Venue:          v,
		BookedDates:    booked,
		AvailableDates: models.AvailableDates(booked, today),
		Events:         models.UpcomingEvents(events, today),
	}, nil
}

func (in venueInput) mergeFrom(v models.Venue) venueInput {
	if in.Name == nil {
		in.Name = &v.Name
	}
	if in.Capacity == nil {
		in.Capacity = &v.Capacity
	}
	if in.Amenities == nil {
		in.Amenities = &v.Amenities
	}
	return in
}

func (in venueInput) apply(v *models.Venue) {
	v.Name = *in.Name
	if in.Capacity != nil {
		v.Capacity = *in.Capacity
	}
	v.Amenities = *in.Amenities
}

// GET /api/venues/
func (d *deps) listVenues(c *gin.Context) {
	p, err := d.parsePage(c)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	venues, total, err := d.venues.List(c.Request.Context(), p.window())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]venueResponse, 0, len(venues))
	for _, v := range venues {
		view, err := d.venueView(c.Request.Context(), v)
		if err != nil {
			respondError(c, err)
			return
		}
		views = append(views, view)
	}

	resp, err := pageOf(c, p, total, views)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/venues/:id/
func (d *deps) getVenue(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	v, err := d.venues.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := d.venueView(c.Request.Context(), v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /api/venues/
func (d *deps) createVenue(c *gin.Context) {
	var in venueInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if ve := validateStruct(in); len(ve) > 0 {
		respondError(c, ve)
		return
	}

	var v models.Venue
	in.apply(&v)
	if err := d.venues.Create(c.Request.Context(), &v); err != nil {
		respondError(c, err)
		return
	}
	d.record(c, "venue.create", policy.Venues, v.ID, map[string]string{"name": v.Name})

	view, err := d.venueView(c.Request.Context(), v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// PUT, PATCH /api/venues/:id/
func (d *deps) updateVenue(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		v, err := d.venues.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		var in venueInput
		if err := bindJSON(c, &in); err != nil {
			respondError(c, err)
			return
		}
		if partial {
			in = in.mergeFrom(v)
		}
		if ve := validateStruct(in); len(ve) > 0 {
			respondError(c, ve)
			return
		}

		in.apply(&v)
		if err := d.venues.Update(c.Request.Context(), &v); err != nil {
			respondError(c, err)
			return
		}
		d.record(c, "venue.update", policy.Venues, v.ID, nil)

		view, err := d.venueView(c.Request.Context(), v)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DELETE /api/venues/:id/
func (d *deps) deleteVenue(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := d.venues.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	d.record(c, "venue.delete", policy.Venues, id, nil)
	c.Status(http.StatusNoContent)
}
