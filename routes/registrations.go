package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventsapi/middlewares"
	"eventsapi/models"
	"eventsapi/policy"
)

type registrationInput struct {
	Event *int64 `json:"event" validate:"required"`
}

type acceptInput struct {
	Accepted *bool `json:"accepted"`
}

const invalidChoice = "Select a valid choice. That choice is not one of the available choices."

// parseRegistrationFilter reads ?user= and ?event=; both must name existing rows.
func (d *deps) parseRegistrationFilter(c *gin.Context) (models.RegistrationFilter, error) {
	var (
		f   models.RegistrationFilter
		ve  = models.ValidationError{}
		ctx = c.Request.Context()
	)
	lookup := func(param string, exists func(int64) error) (*int64, error) {
		raw := c.Query(param)
		if raw == "" {
			return nil, nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			err = exists(id)
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				return nil, err
			}
		}
		if err != nil {
			ve.Add(param, invalidChoice)
		}
		return &id, nil
	}

	var err error
	if f.User, err = lookup("user", func(id int64) error {
		_, err := d.users.GetByID(ctx, id)
		return err
	}); err != nil {
		return f, err
	}
	if f.Event, err = lookup("event", func(id int64) error {
		_, err := d.events.GetByID(ctx, id)
		return err
	}); err != nil {
		return f, err
	}
	return f, ve.OrNil()
}

// GET /api/registrations/
// Non-admins only ever see their own registrations.
func (d *deps) listRegistrations(c *gin.Context) {
	p, err := d.parsePage(c)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	f, err := d.parseRegistrationFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	caller := middlewares.CallerFrom(c)
	regs, total := []models.Registration{}, 0
	// a non-admin filtering on someone else sees nothing
	if caller.IsAdmin || f.User == nil || *f.User == caller.UserID {
		if !caller.IsAdmin {
			f.User = &caller.UserID
		}
		regs, total, err = d.regs.List(c.Request.Context(), f, p.window())
		if err != nil {
			respondError(c, err)
			return
		}
	}

	resp, err := pageOf(c, p, total, regs)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/registrations/:id/
func (d *deps) getRegistration(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reg, err := d.regs.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !policy.Visible(middlewares.CallerFrom(c), reg.User) {
		respondError(c, models.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// POST /api/registrations/
// The user is always the caller and a new registration is never accepted.
func (d *deps) createRegistration(c *gin.Context) {
	var in registrationInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if ve := validateStruct(in); len(ve) > 0 {
		respondError(c, ve)
		return
	}

	reg := models.Registration{
		User:     middlewares.CallerFrom(c).UserID,
		Event:    *in.Event,
		Accepted: false,
	}
	if err := d.regs.Create(c.Request.Context(), &reg); err != nil {
		var ref *models.ReferenceError
		if errors.As(err, &ref) && ref.Field == "event" {
			err = invalidPK("event", reg.Event)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// PATCH /api/registrations/:id/
// Only the accepted flag can change.
func (d *deps) acceptRegistration(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reg, err := d.regs.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var in acceptInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if in.Accepted != nil {
		reg, err = d.regs.SetAccepted(c.Request.Context(), id, *in.Accepted)
		if err != nil {
			respondError(c, err)
			return
		}
		d.record(c, "registration.accept", policy.Registrations, id,
			map[string]string{"accepted": strconv.FormatBool(reg.Accepted)})
	}
	c.JSON(http.StatusOK, reg)
}
