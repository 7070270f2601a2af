package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestEngine(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return router
}

func get(router *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth(t *testing.T) {
	router := newTestEngine(APIKeyAuth("topsecret"))

	t.Run("missing key", func(t *testing.T) {
		w := get(router, "/ping", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		w := get(router, "/ping", map[string]string{"x-api-key": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("header key", func(t *testing.T) {
		w := get(router, "/ping", map[string]string{"x-api-key": "topsecret"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query key", func(t *testing.T) {
		w := get(router, "/ping?api_key=topsecret", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("disabled when unconfigured", func(t *testing.T) {
		open := newTestEngine(APIKeyAuth(""))
		w := get(open, "/ping", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	router := newTestEngine(RateLimit(1, 2))

	assert.Equal(t, http.StatusOK, get(router, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, get(router, "/ping", nil).Code)
	// Burst exhausted and the bucket refills at 1 rps.
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/ping", nil).Code)
}

func TestRecovery(t *testing.T) {
	newPanicRouter := func(value interface{}) *gin.Engine {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(Recovery(zap.NewNop()))
		router.GET("/boom", func(c *gin.Context) { panic(value) })
		return router
	}

	t.Run("recovers handler panics", func(t *testing.T) {
		w := get(newPanicRouter("kaboom"), "/boom", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("propagates connection aborts", func(t *testing.T) {
		// Swallowing ErrAbortHandler would let the response end cleanly;
		// net/http must see the panic to tear the connection down.
		router := newPanicRouter(http.ErrAbortHandler)
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
		})
	})
}

func TestCORS(t *testing.T) {
	router := newTestEngine(CORS())

	w := get(router, "/ping", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
