package riot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckKey_Status(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    KeyStatus
		wantErr bool
	}{
		{"accepted", http.StatusOK, KeyAccepted, false},
		{"expired dev key", http.StatusForbidden, KeyRejected, false},
		{"missing key", http.StatusUnauthorized, KeyRejected, false},
		{"platform outage", http.StatusServiceUnavailable, KeyUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, platformStatusPath, r.URL.Path)
				assert.Equal(t, "RGAPI-test-key", r.Header.Get("X-Riot-Token"))
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			status, err := CheckKey(context.Background(), server.Client(), server.URL, "RGAPI-test-key")
			assert.Equal(t, tt.want, status)
			if tt.wantErr {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.status, se.StatusCode)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckKey_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer server.Close()

	status, err := CheckKey(context.Background(), nil, server.URL, "RGAPI-test-key")
	assert.Error(t, err)
	assert.Equal(t, KeyUnknown, status)
}

func TestCheckKey_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	status, err := CheckKey(ctx, server.Client(), server.URL, "RGAPI-test-key")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, KeyUnknown, status)
}

func TestCheckKey_EmptyKey(t *testing.T) {
	status, err := CheckKey(context.Background(), nil, NA1BaseURL, "")
	require.Error(t, err)
	assert.Equal(t, KeyUnknown, status)
}

func TestKeyStatus_String(t *testing.T) {
	assert.Equal(t, "accepted", KeyAccepted.String())
	assert.Equal(t, "rejected", KeyRejected.String())
	assert.Equal(t, "unknown", KeyUnknown.String())
}
