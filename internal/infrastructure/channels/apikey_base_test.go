package channels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propman/backend/internal/domain/syndication"
)

func newTestAPIKeyBase(t *testing.T, handler http.Handler) *APIKeyBase {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewAPIKeyBase(
		syndication.PlatformApartmentsCom,
		srv.URL,
		APIKeyHeaders{KeyHeader: "X-Api-Key", SecretHeader: "X-Api-Secret"},
		srv.Client(),
	)
}

func TestAPIKeyBase_Initialize(t *testing.T) {
	base := newTestAPIKeyBase(t, http.NotFoundHandler())
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := base.Initialize(ctx, &syndication.AuthConfig{Platform: syndication.PlatformApartmentsCom})
		assert.ErrorIs(t, err, syndication.ErrAuthMissingAPIKey)
	})

	t.Run("valid key connects without network", func(t *testing.T) {
		result, err := base.Initialize(ctx, &syndication.AuthConfig{
			Platform: syndication.PlatformApartmentsCom,
			APIKey:   "key-1",
		})
		require.NoError(t, err)
		assert.True(t, result.Connected)
	})
}

func TestAPIKeyBase_TestConnection(t *testing.T) {
	var gotKey, gotSecret string
	base := newTestAPIKeyBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotSecret = r.Header.Get("X-Api-Secret")
		if r.URL.Path != "/ping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))

	ctx := context.Background()
	_, err := base.Initialize(ctx, &syndication.AuthConfig{
		Platform:  syndication.PlatformApartmentsCom,
		APIKey:    "key-1",
		APISecret: "secret-1",
	})
	require.NoError(t, err)

	require.NoError(t, base.TestConnection(ctx))
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "secret-1", gotSecret)

	// Refresh is the same validity check for static keys
	assert.NoError(t, base.RefreshAuthentication(ctx))
}

func TestAPIKeyBase_TestConnection_RejectedKey(t *testing.T) {
	base := newTestAPIKeyBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	ctx := context.Background()
	_, err := base.Initialize(ctx, &syndication.AuthConfig{
		Platform: syndication.PlatformApartmentsCom,
		APIKey:   "bad-key",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, base.Authenticate(ctx), syndication.ErrAuthFailed)
}
