package memberservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestClient_GetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/members/5/profile":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":5,"name":"Lin","phone":"0912345678","email":"lin@example.com"}`))
		case "/internal/members/6/profile":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nopLogger{})

	profile, err := c.GetProfile(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Lin", profile.Name)
	assert.Equal(t, "0912345678", profile.Phone)
	require.NotNil(t, profile.Email)
	assert.Nil(t, profile.Gender)

	_, err = c.GetProfileWithGracefulDegradation(context.Background(), 6)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = c.GetProfileWithGracefulDegradation(context.Background(), 7)
	assert.ErrorIs(t, err, ErrServiceDegraded)
}
