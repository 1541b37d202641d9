// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenInfo(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token/info", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"resource_owner_id": "auth0|12345",
			"scope": ["public", "scenarios:read", "scenarios:write"],
			"expires_in": 3600,
			"created_at": 1700000000
		}`))
	}), Options{})

	info, err := client.TokenInfo(context.Background())
	require.NoError(t, err)

	assert.True(t, info.HasScope(ScopeScenariosRead))
	assert.False(t, info.HasScope(ScopeScenariosDelete))
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), info.CreatedTime())

	expiry, ok := info.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700003600, 0).UTC(), expiry)
}

func TestTokenInfoNeverExpires(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"scope": ["public"], "expires_in": null, "created_at": 1700000000}`))
	}), Options{})

	info, err := client.TokenInfo(context.Background())
	require.NoError(t, err)

	_, ok := info.ExpiresAt()
	assert.False(t, ok)
}

func TestTokenInfoWithoutToken(t *testing.T) {
	t.Setenv("ETM_API_TOKEN", "")
	t.Setenv("ETM_ACCESS_TOKEN", "")

	client := New("https://engine.example.org/api/v3", Options{})

	_, err := client.TokenInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorContains(t, err, "no personal access token assigned")
}

func TestUser(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token/info" {
			_, _ = w.Write([]byte(`{"scope": ["public", "openid"], "created_at": 1700000000}`))
			return
		}
		assert.Equal(t, "/oauth/userinfo", r.URL.Path)
		_, _ = w.Write([]byte(`{"sub": "auth0|12345", "name": "A. Modeller", "email": "modeller@example.org"}`))
	}), Options{})

	user, err := client.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "auth0|12345", user.Sub)
	assert.Equal(t, "A. Modeller", user.Name)
}

func TestUserNeedsOpenIDScope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"scope": ["public"], "created_at": 1700000000}`))
	}), Options{})

	_, err := client.User(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTransitionPaths(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transition_paths", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": 1, "title": "II3050"}]`))
	}), Options{})

	paths, err := client.TransitionPaths(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "II3050", paths[0]["title"])
}
