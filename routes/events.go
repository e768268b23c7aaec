package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventsapi/middlewares"
	"eventsapi/models"
	"eventsapi/policy"
)

type eventInput struct {
	Title       *string      `json:"title" validate:"required,notblank,max=255"`
	Description *string      `json:"description" validate:"required,notblank"`
	Date        *models.Date `json:"date" validate:"required"`
	Time        *string      `json:"time" validate:"required,timeofday"`
	Location    *int64       `json:"location" validate:"required"`
	Capacity    *int         `json:"capacity" validate:"required,min=0,max=2147483647"`
	Category    *string      `json:"category" validate:"required,category"`
}

func (in eventInput) mergeFrom(e models.Event) eventInput {
	if in.Title == nil {
		in.Title = &e.Title
	}
	if in.Description == nil {
		in.Description = &e.Description
	}
	if in.Date == nil {
		in.Date = &e.Date
	}
	if in.Time == nil {
		in.Time = &e.Time
	}
	if in.Location == nil {
		in.Location = &e.Location
	}
	if in.Capacity == nil {
		in.Capacity = &e.Capacity
	}
	if in.Category == nil {
		c := string(e.Category)
		in.Category = &c
	}
	return in
}

// validate runs the field rules and, when a date was sent, the future-date rule.
func (in eventInput) validate(dateSent bool, d *deps) error {
	ve := validateStruct(in)
	if dateSent && in.Date != nil {
		if err := models.ValidateEventDate(*in.Date, d.now()); err != nil {
			var dateErr models.ValidationError
			if errors.As(err, &dateErr) {
				for _, msg := range dateErr["date"] {
					ve.Add("date", msg)
				}
			}
		}
	}
	return ve.OrNil()
}

func (in eventInput) apply(e *models.Event) {
	e.Title = *in.Title
	e.Description = *in.Description
	e.Date = *in.Date
	e.Time, _ = parseTimeOfDay(*in.Time)
	e.Location = *in.Location
	e.Capacity = *in.Capacity
	e.Category = models.Category(*in.Category)
}

// eventWriteError turns a missing venue into the location field error.
func eventWriteError(err error, location int64) error {
	var ref *models.ReferenceError
	if errors.As(err, &ref) && ref.Field == "location" {
		return invalidPK("location", location)
	}
	return err
}

// parseEventFilter reads ?category=, ?date= and ?location=.
func (d *deps) parseEventFilter(c *gin.Context) (models.EventFilter, error) {
	var (
		f  models.EventFilter
		ve = models.ValidationError{}
	)
	if raw := c.Query("category"); raw != "" {
		cat := models.Category(raw)
		if !cat.Valid() {
			ve.Add("category", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
		}
		f.Category = &cat
	}
	if raw := c.Query("date"); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			ve.Add("date", "Enter a valid date.")
		}
		f.Date = &date
	}
	if raw := c.Query("location"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			if _, err = d.venues.GetByID(c.Request.Context(), id); err != nil && !errors.Is(err, models.ErrNotFound) {
				return f, err
			}
		}
		if err != nil {
			ve.Add("location", "Select a valid choice. That choice is not one of the available choices.")
		}
		f.Location = &id
	}
	return f, ve.OrNil()
}

// GET /api/events/
// Authenticated callers see events from categories they were accepted into
// first; anonymous callers get plain id order.
func (d *deps) listEvents(c *gin.Context) {
	p, err := d.parsePage(c)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	f, err := d.parseEventFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	events, err := d.events.List(ctx, f)
	if err != nil {
		respondError(c, err)
		return
	}
	if caller := middlewares.CallerFrom(c); caller.Authenticated() {
		attended, err := d.regs.AcceptedCategories(ctx, caller.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		events = models.OrderByAffinity(attended, events)
	}

	if p.beyond(len(events)) {
		respondInvalidPage(c)
		return
	}
	resp, err := pageOf(c, p, len(events), slicePage(events, p))
	if err != nil {
		respondInvalidPage(c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/events/:id/
func (d *deps) getEvent(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	e, err := d.events.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// POST /api/events/
func (d *deps) createEvent(c *gin.Context) {
	var in eventInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if err := in.validate(true, d); err != nil {
		respondError(c, err)
		return
	}

	e := models.Event{CreatedBy: middlewares.CallerFrom(c).UserID}
	in.apply(&e)
	if err := d.events.Create(c.Request.Context(), &e); err != nil {
		respondError(c, eventWriteError(err, e.Location))
		return
	}
	d.record(c, "event.create", policy.Events, e.ID, map[string]string{"title": e.Title})
	c.JSON(http.StatusCreated, e)
}

// PUT, PATCH /api/events/:id/
// Only the creator may change an event; admins are held to the same rule.
func (d *deps) updateEvent(act policy.Action) gin.HandlerFunc {
	partial := act == policy.PartialUpdate
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		e, err := d.events.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := policy.CheckCreator(middlewares.CallerFrom(c), policy.Events, act, e.CreatedBy); err != nil {
			respondError(c, err)
			return
		}

		var in eventInput
		if err := bindJSON(c, &in); err != nil {
			respondError(c, err)
			return
		}
		dateSent := in.Date != nil
		if partial {
			in = in.mergeFrom(e)
		}
		if err := in.validate(dateSent, d); err != nil {
			respondError(c, err)
			return
		}

		in.apply(&e)
		if err := d.events.Update(c.Request.Context(), &e); err != nil {
			respondError(c, eventWriteError(err, e.Location))
			return
		}
		d.record(c, "event."+string(act), policy.Events, e.ID, nil)
		c.JSON(http.StatusOK, e)
	}
}

// DELETE /api/events/:id/
func (d *deps) deleteEvent(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	e, err := d.events.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := policy.CheckCreator(middlewares.CallerFrom(c), policy.Events, policy.Destroy, e.CreatedBy); err != nil {
		respondError(c, err)
		return
	}
	if err := d.events.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	d.record(c, "event.delete", policy.Events, id, nil)
	c.Status(http.StatusNoContent)
}
