package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginPolicyNormalizesEntries(t *testing.T) {
	policy := NewOriginPolicy([]string{" http://localhost:3000/ ", "", "https://app.example.com"})

	assert.True(t, policy.Allows("http://localhost:3000"))
	assert.True(t, policy.Allows("https://app.example.com"))
	assert.False(t, policy.Allows("https://evil.example.com"))
	assert.False(t, policy.AllowsAll())
	assert.ElementsMatch(t, []string{"http://localhost:3000", "https://app.example.com"}, policy.Origins())
}

func TestOriginPolicyIgnoresCase(t *testing.T) {
	policy := NewOriginPolicy([]string{"http://LOCALHOST:3000"})

	assert.True(t, policy.Allows("http://localhost:3000"))
	assert.True(t, policy.Allows("http://LocalHost:3000"))
	assert.Equal(t, []string{"http://localhost:3000"}, policy.Origins())
	assert.False(t, policy.Allows("http://localhost:3001"))
}

func TestOriginPolicyWildcard(t *testing.T) {
	policy := NewOriginPolicy([]string{"*"})

	assert.True(t, policy.AllowsAll())
	assert.True(t, policy.Allows("https://anything.example"))
}

func TestOriginPolicyAllowsMissingOrigin(t *testing.T) {
	policy := NewOriginPolicy(nil)
	assert.True(t, policy.Allows(""))
	assert.False(t, policy.Allows("http://localhost:3000"))
}

func TestOriginGuard(t *testing.T) {
	policy := NewOriginPolicy([]string{"http://localhost:3000"})

	tests := []struct {
		name       string
		origin     string
		wantStatus int
		wantCalled bool
	}{
		{name: "allowed origin", origin: "http://localhost:3000", wantStatus: http.StatusOK, wantCalled: true},
		{name: "no origin header", origin: "", wantStatus: http.StatusOK, wantCalled: true},
		{name: "disallowed origin", origin: "https://evil.example.com", wantStatus: http.StatusForbidden, wantCalled: false},
		{name: "trailing slash is not normalized on requests", origin: "http://localhost:3000/", wantStatus: http.StatusForbidden, wantCalled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := OriginGuard(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantStatus == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "origin not allowed")
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
			}
		})
	}
}
