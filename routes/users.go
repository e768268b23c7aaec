package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventsapi/middlewares"
	"eventsapi/models"
	"eventsapi/policy"
)

type userInput struct {
	Username    *string `json:"username" validate:"required,notblank,max=150,username"`
	Password    *string `json:"password" validate:"required,notblank,max=128,maxbytes=72"`
	Email       *string `json:"email" validate:"omitempty,max=254,optemail"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	IsSuperuser *bool   `json:"is_superuser"`
	IsStaff     *bool   `json:"is_staff"`
}

// userPatch has no password: it cannot be changed through the API.
type userPatch struct {
	Username    *string `json:"username" validate:"required,notblank,max=150,username"`
	Email       *string `json:"email" validate:"omitempty,max=254,optemail"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	IsSuperuser *bool   `json:"is_superuser"`
	IsStaff     *bool   `json:"is_staff"`
	IsActive    *bool   `json:"is_active"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// GET /api/users/
func (d *deps) listUsers(c *gin.Context) {
	p, err := d.parsePage(c)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	users, total, err := d.users.List(c.Request.Context(), p.window())
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := pageOf(c, p, total, users)
	if err != nil {
		respondInvalidPage(c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/users/:id/
// Non-admins can only see themselves; anyone else is reported as missing.
func (d *deps) getUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if !policy.Visible(middlewares.CallerFrom(c), id) {
		respondError(c, models.ErrNotFound)
		return
	}
	if self, ok := middlewares.UserFrom(c); ok && self.ID == id {
		c.JSON(http.StatusOK, self)
		return
	}
	u, err := d.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/users/
// Open to anyone. Admin flags are only honoured when an admin creates the user.
func (d *deps) createUser(c *gin.Context) {
	var in userInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if ve := validateStruct(in); len(ve) > 0 {
		respondError(c, ve)
		return
	}

	u := models.User{Username: *in.Username, Password: *in.Password, IsActive: true}
	setIf(&u.Email, in.Email)
	setIf(&u.FirstName, in.FirstName)
	setIf(&u.LastName, in.LastName)
	caller := middlewares.CallerFrom(c)
	if caller.IsAdmin {
		setIf(&u.IsSuperuser, in.IsSuperuser)
		setIf(&u.IsStaff, in.IsStaff)
	}

	if err := d.users.Create(c.Request.Context(), &u); err != nil {
		respondError(c, err)
		return
	}
	if caller.IsAdmin {
		d.record(c, "user.create", policy.Users, u.ID, map[string]string{"username": u.Username})
	}
	c.JSON(http.StatusCreated, u)
}

// PATCH /api/users/:id/
func (d *deps) updateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	u, err := d.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var in userPatch
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if in.Username == nil {
		in.Username = &u.Username
	}
	if ve := validateStruct(in); len(ve) > 0 {
		respondError(c, ve)
		return
	}

	u.Username = *in.Username
	setIf(&u.Email, in.Email)
	setIf(&u.FirstName, in.FirstName)
	setIf(&u.LastName, in.LastName)
	setIf(&u.IsSuperuser, in.IsSuperuser)
	setIf(&u.IsStaff, in.IsStaff)
	setIf(&u.IsActive, in.IsActive)

	if err := d.users.Update(c.Request.Context(), &u); err != nil {
		respondError(c, err)
		return
	}
	d.record(c, "user.update", policy.Users, u.ID, nil)
	c.JSON(http.StatusOK, u)
}

// DELETE /api/users/:id/
func (d *deps) deleteUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := d.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	d.record(c, "user.delete", policy.Users, id, nil)
	c.Status(http.StatusNoContent)
}
