package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func request(allowed []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	r.POST("/api/register-student", func(c *gin.Context) { c.Status(http.StatusCreated) })
	req := httptest.NewRequest(method, "/api/register-student", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowList(t *testing.T) {
	allowed := []string{"https://forms.example.edu/"}

	w := request(allowed, http.MethodPost, "https://forms.example.edu")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "https://forms.example.edu", w.Header().Get("Access-Control-Allow-Origin"))

	w = request(allowed, http.MethodPost, "https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowAllAndPreflight(t *testing.T) {
	w := request(nil, http.MethodPost, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = request([]string{"*"}, http.MethodOptions, "https://anywhere.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://anywhere.example", w.Header().Get("Access-Control-Allow-Origin"))
}
