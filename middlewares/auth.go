package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventsapi/models"
	"eventsapi/policy"
	"eventsapi/utils"
)

const (
	callerKey = "caller"
	userKey   = "user"
)

// Authenticate resolves an optional bearer token into a caller. Requests
// without an Authorization header continue as anonymous; a header that does
// not carry a valid access token for an active user is rejected.
func Authenticate(tokens *utils.TokenManager, users models.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(callerKey, policy.Caller{})
			c.Next()
			return
		}

		raw, err := utils.TokenFromHeader(header)
		if err != nil {
			abortUnauthorized(c, gin.H{"detail": "Authorization header must contain two space-delimited values", "code": "bad_authorization_header"})
			return
		}
		claims, err := tokens.Verify(raw, utils.AccessToken)
		if err != nil {
			abortUnauthorized(c, gin.H{"detail": "Given token not valid for any token type", "code": "token_not_valid"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				abortUnauthorized(c, gin.H{"detail": "User not found", "code": "user_not_found"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "A server error occurred."})
			return
		}
		if !user.IsActive {
			abortUnauthorized(c, gin.H{"detail": "User is inactive", "code": "user_inactive"})
			return
		}

		c.Set(userKey, user)
		c.Set(callerKey, policy.Caller{UserID: user.ID, IsAdmin: user.IsSuperuser})
		c.Next()
	}
}

// Authorize applies the policy table entry for (res, act) before the handler runs.
func Authorize(res policy.Resource, act policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := policy.Check(CallerFrom(c), res, act)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, policy.ErrNotAuthenticated):
			abortUnauthorized(c, gin.H{"detail": err.Error()})
		case errors.Is(err, policy.ErrPermissionDenied):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": err.Error()})
		default:
			MethodNotAllowed(c)
		}
	}
}

// MethodNotAllowed answers a verb the resource does not expose.
func MethodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed,
		gin.H{"detail": `Method "` + c.Request.Method + `" not allowed.`})
}

func abortUnauthorized(c *gin.Context, body gin.H) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, body)
}

// CallerFrom returns the caller set by Authenticate, or anonymous.
func CallerFrom(c *gin.Context) policy.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(policy.Caller); ok {
			return caller
		}
	}
	return policy.Caller{}
}

// UserFrom returns the authenticated user, if any.
func UserFrom(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}
