package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(`{"name":"Ada"}`))
	var dest struct {
		Name string `json:"name"`
	}
	require.NoError(t, ParseJSON(req, &dest))
	assert.Equal(t, "Ada", dest.Name)
}

func TestParseJSONOrError_Invalid(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()

	var dest map[string]string
	assert.False(t, ParseJSONOrError(rec, req, &dest))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for single",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			remoteAddr: "10.0.0.1:4711",
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for first hop wins",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"},
			remoteAddr: "10.0.0.1:4711",
			want:       "203.0.113.9",
		},
		{
			name:       "x-real-ip",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			remoteAddr: "10.0.0.1:4711",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded-for beats real-ip",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "203.0.113.7"},
			remoteAddr: "10.0.0.1:4711",
			want:       "203.0.113.9",
		},
		{
			name:       "remote addr fallback strips port",
			remoteAddr: "10.0.0.1:4711",
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestRequireNonEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.True(t, RequireNonEmpty(rec, "value", "name"))

	rec = httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(rec, "  ", "name"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
