package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSEchoesListedOriginWithCredentials(t *testing.T) {
	r := newRouter([]string{"https://registrar.uni.edu/"})

	w := serve(r, http.MethodGet, "https://registrar.uni.edu")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://registrar.uni.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestCORSRejectsUnlistedPreflight(t *testing.T) {
	r := newRouter([]string{"https://registrar.uni.edu"})

	w := serve(r, http.MethodOptions, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	w = serve(r, http.MethodOptions, "https://registrar.uni.edu")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, PUT, PATCH, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSWildcardNeverAllowsCredentials(t *testing.T) {
	r := newRouter(nil)

	w := serve(r, http.MethodGet, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	w = serve(r, http.MethodGet, "https://any.example")
	assert.Equal(t, "https://any.example", w.Header().Get("Access-Control-Allow-Origin"))
}
