package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventsapi/models"
	"eventsapi/policy"
)

const (
	detailNotFound    = "Not found."
	detailServerError = "A server error occurred."
)

// duplicateMessages maps unique constraints to the field error clients see.
var duplicateMessages = map[string]models.ValidationError{
	"users_username_key":                 {"username": {"A user with that username already exists."}},
	"venues_name_key":                    {"name": {"venue with this name already exists."}},
	"registrations_user_id_event_id_key": {"non_field_errors": {"The fields user, event must make a unique set."}},
}

// invalidPK is the field error for a reference to a row that does not exist.
func invalidPK(field string, pk int64) models.ValidationError {
	return models.ValidationError{field: {fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", pk)}}
}

// respondError writes the response for err. Unexpected errors are attached
// to the context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	var (
		ve    models.ValidationError
		dup   *models.DuplicateError
		ref   *models.ReferenceError
		ce    *policy.CreatorError
		parse parseError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ve)
	case errors.As(err, &parse):
		c.JSON(http.StatusBadRequest, gin.H{"detail": parse.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	case errors.As(err, &ce):
		c.JSON(http.StatusForbidden, gin.H{"detail": ce.Error()})
	case errors.Is(err, policy.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, policy.ErrNotAuthenticated):
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
	case errors.As(err, &dup):
		if msg, ok := duplicateMessages[dup.Constraint]; ok {
			c.JSON(http.StatusBadRequest, msg)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Duplicate value."}})
	case errors.As(err, &ref):
		c.JSON(http.StatusBadRequest, gin.H{ref.Field: []string{"Invalid pk - object does not exist."}})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailServerError})
	}
}
