package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventsapi/mocks"
	"eventsapi/models"
	"eventsapi/policy"
	"eventsapi/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
}

func get(s *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	s.ServeHTTP(w, req)
	return w
}

/* ---------- rate limiter ---------- */

// RPS=1, Burst=1: the second immediate call is throttled with Retry-After.
func TestRateLimiter_429(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})

	s := gin.New()
	s.Use(rl.Middleware(func(c *gin.Context) string { return "k" }))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })

	if w := get(s, "/x", ""); w.Code != 200 {
		t.Fatalf("first call want 200, got %d", w.Code)
	}
	w := get(s, "/x", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}

func TestRateLimiter_ZeroRPSDisabled(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{})
	s := gin.New()
	s.Use(rl.Middleware(func(c *gin.Context) string { return "k" }))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })

	for i := 0; i < 5; i++ {
		if w := get(s, "/x", ""); w.Code != 200 {
			t.Fatalf("call %d: want 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_SeparateKeysAndSweep(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	rl.getLimiter("b")
	assert.Equal(t, 2, rl.size())

	now = now.Add(2 * time.Minute)
	rl.getLimiter("c")
	assert.Equal(t, 1, rl.size(), "idle buckets should be dropped")
}

/* ---------- quota ---------- */

func quotaServer(t *testing.T, rdb *redis.Client, uid int64) *gin.Engine {
	s := gin.New()
	s.Use(func(c *gin.Context) { c.Set(callerKey, policy.Caller{UserID: uid}); c.Next() })
	s.Use(Quota(rdb, QuotaRule{Limit: 2, Window: time.Hour, KeyFn: UserQuotaKey}))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })
	return s
}

// Limit=2: two calls pass, the third is rejected.
func TestQuota_Exceed429(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := quotaServer(t, rdb, 7)

	for i := 0; i < 2; i++ {
		w := get(s, "/x", "")
		if w.Code != 200 {
			t.Fatalf("unexpected %d", w.Code)
		}
	}
	w := get(s, "/x", "")
	if w.Code != 429 {
		t.Fatalf("want 429, got %d; body=%s", w.Code, w.Body.String())
	}
	assert.Equal(t, time.Hour, mr.TTL("quota:user:7:day"))
}

func TestQuota_AnonymousAndNilRedisSkip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	anon := quotaServer(t, rdb, 0)
	for i := 0; i < 3; i++ {
		require.Equal(t, 200, get(anon, "/x", "").Code)
	}
	assert.False(t, mr.Exists("quota:user:0:day"))

	noRedis := quotaServer(t, nil, 5)
	for i := 0; i < 3; i++ {
		require.Equal(t, 200, get(noRedis, "/x", "").Code)
	}
}

func TestQuota_RedisDownLetsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	s := quotaServer(t, rdb, 3)
	assert.Equal(t, 200, get(s, "/x", "").Code)
}

/* ---------- auth ---------- */

type authFixture struct {
	s      *gin.Engine
	tokens *utils.TokenManager
	admin  models.User
	normal models.User
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	store := mocks.NewStore(nil)
	users := store.Users()
	admin := models.User{Username: "admin", Password: "pw", IsSuperuser: true, IsActive: true}
	normal := models.User{Username: "user", Password: "pw", IsActive: true}
	require.NoError(t, users.Create(context.Background(), &admin))
	require.NoError(t, users.Create(context.Background(), &normal))

	tokens := utils.NewTokenManager("test-secret-test-secret-test-123", time.Minute, time.Hour)
	s := gin.New()
	s.Use(Authenticate(tokens, users))
	s.GET("/venues", Authorize(policy.Venues, policy.List), func(c *gin.Context) { c.String(200, "ok") })
	s.GET("/events", Authorize(policy.Events, policy.List), func(c *gin.Context) {
		c.JSON(200, gin.H{"caller": CallerFrom(c).UserID})
	})
	s.GET("/regs", Authorize(policy.Registrations, policy.Destroy), func(c *gin.Context) { c.String(200, "ok") })
	return authFixture{s: s, tokens: tokens, admin: admin, normal: normal}
}

func (f authFixture) bearer(t *testing.T, uid int64) string {
	tok, err := f.tokens.Generate(uid, utils.AccessToken)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthorize_Anonymous401(t *testing.T) {
	f := newAuthFixture(t)
	w := get(f.s, "/venues", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Bearer realm="api"`, w.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, w.Body.String())
}

func TestAuthorize_NonAdmin403(t *testing.T) {
	f := newAuthFixture(t)
	w := get(f.s, "/venues", f.bearer(t, f.normal.ID))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail":"You do not have permission to perform this action."}`, w.Body.String())
}

func TestAuthorize_AdminOK(t *testing.T) {
	f := newAuthFixture(t)
	assert.Equal(t, 200, get(f.s, "/venues", f.bearer(t, f.admin.ID)).Code)
}

func TestAuthorize_UnexposedAction405(t *testing.T) {
	f := newAuthFixture(t)
	w := get(f.s, "/regs", f.bearer(t, f.admin.ID))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"detail":"Method \"GET\" not allowed."}`, w.Body.String())
}

func TestAuthenticate_OptionalForPublicRoutes(t *testing.T) {
	f := newAuthFixture(t)
	w := get(f.s, "/events", "")
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"caller":0}`, w.Body.String())

	w = get(f.s, "/events", f.bearer(t, f.normal.ID))
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"caller":2}`, w.Body.String())
}

func TestAuthenticate_BadTokens(t *testing.T) {
	f := newAuthFixture(t)
	refresh, err := f.tokens.Generate(f.normal.ID, utils.RefreshToken)
	require.NoError(t, err)
	ghost, err := f.tokens.Generate(999, utils.AccessToken)
	require.NoError(t, err)

	cases := map[string]string{
		"Bearer garbage":    "token_not_valid",
		"Bearer " + refresh: "token_not_valid",
		"Bearer " + ghost:   "user_not_found",
		"Basic abc":         "bad_authorization_header",
	}
	for header, code := range cases {
		w := get(f.s, "/events", header)
		require.Equal(t, http.StatusUnauthorized, w.Code, header)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, code, body["code"], header)
	}
}

/* ---------- request id / logging / metrics ---------- */

func TestRequestID_GeneratedAndPropagated(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	s := gin.New()
	s.Use(RequestID(logger), RequestLogging())
	s.GET("/x", func(c *gin.Context) { c.String(200, RequestIDFrom(c)) })

	w := get(s, "/x", "")
	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
	assert.Contains(t, buf.String(), `"route":"/x"`)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "from-proxy")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, "from-proxy", w.Header().Get(RequestIDHeader))
}

func TestRequestLogging_ServerErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	s := gin.New()
	s.Use(RequestID(zerolog.New(&buf)), RequestLogging())
	s.GET("/boom", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(500)
	})

	get(s, "/boom", "")
	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, `"level":"error"`)
	assert.Contains(t, line, assert.AnError.Error())
}

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	m := NewMetrics()
	s := gin.New()
	s.Use(m.Middleware())
	s.GET("/items/:id", func(c *gin.Context) { c.String(200, "ok") })

	get(s, "/items/1", "")
	get(s, "/items/2", "")
	get(s, "/missing", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}
