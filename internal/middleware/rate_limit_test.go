package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

func TestRateLimitDisabled(t *testing.T) {
	rl := NewWriteRateLimiter(nil, 0)
	r := gin.New()
	r.POST("/", rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	client := testhelpers.StartRedis(t)

	rl := NewWriteRateLimiter(client, 2)
	now := time.Date(2024, 1, 1, 8, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/", rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })
	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := send("10.0.0.1")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusCreated, send("10.0.0.1").Code)

	rr = send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "31", rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, send("10.0.0.2").Code, "callers are counted separately")

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusCreated, send("10.0.0.1").Code, "a new window resets the count")
}
