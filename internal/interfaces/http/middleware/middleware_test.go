package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

var cartCfg = config.CartConfig{CookieName: "cart_token", HeaderName: "X-Cart-Token", CookieMaxAge: 3600}

func newJWT() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"})
}

func identityRouter(jwt *auth.JWTManager, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ResolveIdentity(jwt, cartCfg))
	handlers := append(extra, func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{
			"caller":      id.String(),
			"guest_token": GuestTokenFromContext(c),
		})
	})
	r.GET("/whoami", handlers...)
	return r
}

func TestResolveIdentity(t *testing.T) {
	jwt := newJWT()
	r := identityRouter(jwt)

	t.Run("new guest gets a token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		require.Equal(t, http.StatusOK, w.Code)
		token := w.Header().Get("X-Cart-Token")
		_, err := uuid.Parse(token)
		require.NoError(t, err)
		assert.Contains(t, w.Header().Get("Set-Cookie"), "cart_token="+token)
		assert.Contains(t, w.Body.String(), `"caller":"guest"`)
	})

	t.Run("returning guest keeps the cookie token", func(t *testing.T) {
		token := identity.NewGuestToken()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: "cart_token", Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Set-Cookie"))
		assert.Contains(t, w.Body.String(), token)
	})

	t.Run("malformed guest token is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Cart-Token", "../../etc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.NotEqual(t, "../../etc", w.Header().Get("X-Cart-Token"))
		assert.NotEmpty(t, w.Header().Get("X-Cart-Token"))
	})

	t.Run("bearer token makes a user and keeps the guest token", func(t *testing.T) {
		tok, err := jwt.GenerateAccessToken(42, "u@example.com", false, time.Hour)
		require.NoError(t, err)
		guest := identity.NewGuestToken()

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("X-Cart-Token", guest)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"caller":"user:42"`)
		assert.Contains(t, w.Body.String(), guest)
	})

	t.Run("invalid bearer token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
	})
}

func TestGuards(t *testing.T) {
	jwt := newJWT()
	userTok, _ := jwt.GenerateAccessToken(1, "", false, time.Hour)
	adminTok, _ := jwt.GenerateAccessToken(2, "", true, time.Hour)

	tests := []struct {
		name   string
		guard  gin.HandlerFunc
		token  string
		status int
	}{
		{"guest on user route", RequireUser(), "", http.StatusUnauthorized},
		{"user on user route", RequireUser(), userTok, http.StatusOK},
		{"guest on admin route", AdminMiddleware(), "", http.StatusUnauthorized},
		{"user on admin route", AdminMiddleware(), userTok, http.StatusForbidden},
		{"admin on admin route", AdminMiddleware(), adminTok, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := identityRouter(jwt, tt.guard)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) TTL(context.Context, string) (time.Duration, error) {
	return 30 * time.Second, nil
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("blocks after the limit", func(t *testing.T) {
		r := gin.New()
		r.Use(TrackingThrottle(&fakeCounter{}, 2, logger.Discard()))
		r.GET("/track", func(c *gin.Context) { c.Status(http.StatusOK) })

		codes := make([]int, 0, 3)
		var last *httptest.ResponseRecorder
		for i := 0; i < 3; i++ {
			last = httptest.NewRecorder()
			r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/track", nil))
			codes = append(codes, last.Code)
		}
		assert.Equal(t, []int{200, 200, 429}, codes)
		assert.Equal(t, "30", last.Header().Get("Retry-After"))
		assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("fails open", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimit(&fakeCounter{err: errors.New("redis down")}, 1, logger.Discard()))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestRequestIDAndSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestSizeLimit(16))
	r.POST("/", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	req.Header.Set("X-Request-ID", "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789abcdef"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(config.SecurityConfig{
		CORSAllowedOrigins: []string{"https://shop.example.com", "*.example.org"},
		CORSAllowedMethods: []string{"GET"},
	}, "X-Cart-Token"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	check := func(origin string) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Header().Get("Access-Control-Allow-Origin")
	}
	assert.Equal(t, "https://shop.example.com", check("https://shop.example.com"))
	assert.Equal(t, "https://a.example.org", check("https://a.example.org"))
	assert.Empty(t, check("https://evilexample.org"))
	assert.Empty(t, check("https://other.com"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
