package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/notes", "/api/notes"},
		{"/api/notes?page=2", "/api/notes?page=2"},
		{"/api/feed/ws?token=abc.def", "/api/feed/ws?token=REDACTED"},
		{"/api/feed/ws?a=1&token=abc", "/api/feed/ws?a=1&token=REDACTED"},
		{"/x?%zz", "/x?REDACTED"},
	}
	for _, tt := range tests {
		if got := RedactQuery(tt.in); got != tt.want {
			t.Errorf("RedactQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAccessLoggerHidesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(AccessLogger(&buf))
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ws?token=secret-jwt-value", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	if strings.Contains(line, "secret-jwt-value") {
		t.Fatalf("token leaked into access log: %s", line)
	}
	if !strings.Contains(line, "/ws?token=REDACTED") {
		t.Fatalf("unexpected log line: %s", line)
	}
}
