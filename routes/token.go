package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventsapi/models"
	"eventsapi/utils"
)

type credentialsInput struct {
	Username *string `json:"username" validate:"required,notblank"`
	Password *string `json:"password" validate:"required,notblank"`
}

type refreshInput struct {
	Refresh *string `json:"refresh" validate:"required,notblank"`
}

// POST /api/token/
func (d *deps) obtainToken(c *gin.Context) {
	var in credentialsInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if ve := validateStruct(in); len(ve) > 0 {
		respondError(c, ve)
		return
	}

	user, err := d.users.ValidateCredentials(c.Request.Context(), *in.Username, *in.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
			return
		}
		respondError(c, err)
		return
	}

	access, refresh, err := d.tokens.Pair(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refresh": refresh, "access": access})
}

// POST /api/token/refresh/
func (d *deps) refreshToken(c *gin.Context) {
	var in refreshInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	if ve := validateStruct(in); len(ve) > 0 {
		respondError(c, ve)
		return
	}

	claims, err := d.tokens.Verify(*in.Refresh, utils.RefreshToken)
	if err == nil {
		var u models.User
		u, err = d.users.GetByID(c.Request.Context(), claims.UserID)
		if err == nil && !u.IsActive {
			err = models.ErrNotFound
		}
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			respondError(c, err)
			return
		}
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}

	access, err := d.tokens.Generate(claims.UserID, utils.AccessToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}
