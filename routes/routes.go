package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"eventsapi/audit"
	"eventsapi/export"
	"eventsapi/middlewares"
	"eventsapi/models"
	"eventsapi/policy"
	"eventsapi/utils"
)

// Limits configures request throttling. Zero rates disable a limiter and a
// zero quota disables the daily quota.
type Limits struct {
	GlobalRPS   float64
	GlobalBurst int
	AuthRPS     float64
	AuthBurst   int
	UserRPS     float64
	UserBurst   int
	DailyQuota  int
}

// Pinger reports store health for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the HTTP layer needs. Redis, Pinger and Metrics are
// optional.
type Deps struct {
	Users         models.UserRepository
	Venues        models.VenueRepository
	Events        models.EventRepository
	Registrations models.RegistrationRepository

	Tokens   *utils.TokenManager
	Audit    audit.Recorder
	Exporter export.Exporter
	Redis    *redis.Client
	Pinger   Pinger
	Metrics  *middlewares.Metrics

	Now         func() time.Time
	PageSize    int
	MaxPageSize int
	Limits      Limits
}

type deps struct {
	users  models.UserRepository
	venues models.VenueRepository
	events models.EventRepository
	regs   models.RegistrationRepository

	tokens   *utils.TokenManager
	audit    audit.Recorder
	exporter export.Exporter
	pinger   Pinger

	now         func() time.Time
	pageSize    int
	maxPageSize int
}

// RegisterRoutes mounts the API under /api plus /healthz and /metrics.
func RegisterRoutes(server *gin.Engine, in Deps) {
	d := &deps{
		users:       in.Users,
		venues:      in.Venues,
		events:      in.Events,
		regs:        in.Registrations,
		tokens:      in.Tokens,
		audit:       in.Audit,
		exporter:    in.Exporter,
		pinger:      in.Pinger,
		now:         in.Now,
		pageSize:    in.PageSize,
		maxPageSize: in.MaxPageSize,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.pageSize <= 0 {
		d.pageSize = 10
	}
	if d.maxPageSize < d.pageSize {
		d.maxPageSize = max(100, d.pageSize)
	}
	if d.exporter == nil {
		d.exporter = export.NewXLSX()
	}

	server.HandleMethodNotAllowed = true
	server.NoMethod(middlewares.MethodNotAllowed)
	server.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	})

	if in.Metrics != nil {
		server.Use(in.Metrics.Middleware())
		server.GET("/metrics", gin.WrapH(promhttp.HandlerFor(in.Metrics.Registry, promhttp.HandlerOpts{})))
	}
	server.GET("/healthz", d.health)

	// ===== global per-IP limiter =====
	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     in.Limits.GlobalRPS,
		Burst:   in.Limits.GlobalBurst,
		IdleTTL: 3 * time.Minute,
	})
	byIP := func(prefix string) middlewares.KeySelector {
		return func(c *gin.Context) string { return prefix + c.ClientIP() }
	}

	// ===== stricter limiter for credential and sign-up endpoints =====
	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     in.Limits.AuthRPS,
		Burst:   in.Limits.AuthBurst,
		IdleTTL: 10 * time.Minute,
	})

	// ===== per-user limiter and daily quota for authenticated callers =====
	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     in.Limits.UserRPS,
		Burst:   in.Limits.UserBurst,
		IdleTTL: 10 * time.Minute,
	})
	byUser := func(c *gin.Context) string {
		uid := middlewares.CallerFrom(c).UserID
		if uid == 0 {
			return ""
		}
		return fmt.Sprintf("u:%d", uid)
	}

	api := server.Group("/api")
	api.Use(globalLimiter.Middleware(byIP("ip:")))

	api.POST("/token/", authLimiter.Middleware(byIP("token:")), d.obtainToken)
	api.POST("/token/refresh/", authLimiter.Middleware(byIP("refresh:")), d.refreshToken)

	auth := api.Group("")
	auth.Use(
		middlewares.Authenticate(in.Tokens, in.Users),
		userLimiter.Middleware(byUser),
		middlewares.Quota(in.Redis, middlewares.QuotaRule{
			Limit:  in.Limits.DailyQuota,
			Window: 24 * time.Hour,
			KeyFn:  middlewares.UserQuotaKey,
		}),
	)

	can := middlewares.Authorize

	auth.GET("/venues/", can(policy.Venues, policy.List), d.listVenues)
	auth.POST("/venues/", can(policy.Venues, policy.Create), d.createVenue)
	auth.GET("/venues/:id/", can(policy.Venues, policy.Retrieve), d.getVenue)
	auth.PUT("/venues/:id/", can(policy.Venues, policy.Update), d.updateVenue(false))
	auth.PATCH("/venues/:id/", can(policy.Venues, policy.PartialUpdate), d.updateVenue(true))
	auth.DELETE("/venues/:id/", can(policy.Venues, policy.Destroy), d.deleteVenue)

	auth.GET("/events/", can(policy.Events, policy.List), d.listEvents)
	auth.POST("/events/", can(policy.Events, policy.Create), d.createEvent)
	auth.GET("/events/:id/", can(policy.Events, policy.Retrieve), d.getEvent)
	auth.PUT("/events/:id/", can(policy.Events, policy.Update), d.updateEvent(policy.Update))
	auth.PATCH("/events/:id/", can(policy.Events, policy.PartialUpdate), d.updateEvent(policy.PartialUpdate))
	auth.DELETE("/events/:id/", can(policy.Events, policy.Destroy), d.deleteEvent)

	auth.GET("/registrations/", can(policy.Registrations, policy.List), d.listRegistrations)
	auth.POST("/registrations/", can(policy.Registrations, policy.Create), d.createRegistration)
	auth.GET("/registrations/:id/", can(policy.Registrations, policy.Retrieve), d.getRegistration)
	auth.PATCH("/registrations/:id/", can(policy.Registrations, policy.PartialUpdate), d.acceptRegistration)

	auth.GET("/users/", can(policy.Users, policy.List), d.listUsers)
	auth.POST("/users/", authLimiter.Middleware(byIP("signup:")), can(policy.Users, policy.Create), d.createUser)
	auth.GET("/users/:id/", can(policy.Users, policy.Retrieve), d.getUser)
	auth.PATCH("/users/:id/", can(policy.Users, policy.PartialUpdate), d.updateUser)
	auth.DELETE("/users/:id/", can(policy.Users, policy.Destroy), d.deleteUser)

	auth.GET("/registration_export/", can(policy.RegistrationExport, policy.List), d.exportRegistrations)
}

/* -------------------- Ambient -------------------- */

// GET /healthz
func (d *deps) health(c *gin.Context) {
	if d.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.pinger.PingContext(ctx); err != nil {
			middlewares.Logger(c).Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *deps) today() models.Date {
	return models.DateOf(d.now())
}

// record writes an audit entry. A failing recorder is logged and otherwise
// ignored so the client still sees the outcome of its mutation.
func (d *deps) record(c *gin.Context, action string, res policy.Resource, id int64, details map[string]string) {
	if d.audit == nil {
		return
	}
	e := audit.Entry{
		Timestamp:  d.now().UTC(),
		Action:     action,
		ActorID:    middlewares.CallerFrom(c).UserID,
		Resource:   string(res),
		ResourceID: id,
		IPAddress:  c.ClientIP(),
		RequestID:  middlewares.RequestIDFrom(c),
		Details:    details,
	}
	if err := d.audit.Record(c.Request.Context(), e); err != nil {
		middlewares.Logger(c).Error().Err(err).Str("action", action).Msg("audit record failed")
	}
}
