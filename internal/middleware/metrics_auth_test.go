package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testToken = "test-secret-token-123"

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
		wantError  string
	}{
		{"no token configured", "", "", http.StatusOK, ""},
		{"valid token", testToken, "Bearer " + testToken, http.StatusOK, ""},
		{"lowercase scheme", testToken, "bearer " + testToken, http.StatusOK, ""},
		{"missing header", testToken, "", http.StatusUnauthorized, "invalid_request"},
		{"basic auth", testToken, "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "invalid_request"},
		{"wrong token", testToken, "Bearer wrong", http.StatusUnauthorized, "invalid_token"},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(MetricsAuthMiddleware(tt.configured))
			r.GET("/metrics", func(c *gin.Context) {
				c.String(http.StatusOK, "metrics")
			})

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), `realm="metrics"`)
				assert.Contains(t, w.Body.String(), tt.wantError)
			} else {
				assert.Equal(t, "metrics", w.Body.String())
			}
		})
	}
}
