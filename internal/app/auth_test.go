package app

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		username   string
		password   string
		header     string
		wantStatus int
	}{
		{"no password, no header", "prometheus", "", "", http.StatusOK},
		{"no password ignores credentials", "prometheus", "", basicAuth("someone", "else"), http.StatusOK},
		{"no username or password", "", "", "", http.StatusOK},
		{"valid credentials", "prometheus", "secret123", basicAuth("prometheus", "secret123"), http.StatusOK},
		{"empty username accepted when configured", "", "secret123", basicAuth("", "secret123"), http.StatusOK},
		{"missing header", "prometheus", "secret123", "", http.StatusUnauthorized},
		{"wrong username", "prometheus", "secret123", basicAuth("wronguser", "secret123"), http.StatusUnauthorized},
		{"wrong password", "prometheus", "secret123", basicAuth("prometheus", "wrongpass"), http.StatusUnauthorized},
		{"username required when configured", "prometheus", "secret123", basicAuth("", "secret123"), http.StatusUnauthorized},
		{"only basic", "prometheus", "secret123", "Basic", http.StatusUnauthorized},
		{"invalid base64", "prometheus", "secret123", "Basic notbase64!!!", http.StatusUnauthorized},
		{"bearer token", "prometheus", "secret123", "Bearer sometoken", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.GET("/metrics", metricsAuthMiddleware(tt.username, tt.password), func(c *gin.Context) {
				c.String(http.StatusOK, "metrics")
			})

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="metrics"`, w.Header().Get("WWW-Authenticate"))
			} else {
				assert.Equal(t, "metrics", w.Body.String())
			}
		})
	}
}
