package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propman/backend/internal/domain/syndication"
)

func newTestOAuthBase(t *testing.T, handler http.Handler) (*OAuthBase, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := NewOAuthBase(
		syndication.PlatformZillow,
		OAuthEndpoints{
			AuthorizeURL: srv.URL + "/oauth/authorize",
			TokenURL:     srv.URL + "/oauth/token",
			APIBaseURL:   srv.URL + "/api",
		},
		[]string{"listings:write"},
		srv.Client(),
	)
	return base, srv
}

func oauthConfig() *syndication.AuthConfig {
	return &syndication.AuthConfig{
		Platform:     syndication.PlatformZillow,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/callback",
	}
}

func TestOAuthBase_Initialize(t *testing.T) {
	base, _ := newTestOAuthBase(t, http.NotFoundHandler())
	ctx := context.Background()

	t.Run("missing client id", func(t *testing.T) {
		_, err := base.Initialize(ctx, &syndication.AuthConfig{
			Platform:     syndication.PlatformZillow,
			ClientSecret: "secret",
		})
		assert.ErrorIs(t, err, syndication.ErrAuthMissingClientID)
	})

	t.Run("no stored token returns authorization URL", func(t *testing.T) {
		result, err := base.Initialize(ctx, oauthConfig())
		require.NoError(t, err)
		assert.False(t, result.Connected)

		u, err := url.Parse(result.AuthURL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "code", q.Get("response_type"))
		assert.Equal(t, "client-id", q.Get("client_id"))
		assert.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
		assert.Equal(t, "listings:write", q.Get("scope"))
		assert.NotEmpty(t, q.Get("state"))
	})

	t.Run("stored token is silently reused", func(t *testing.T) {
		cfg := oauthConfig()
		cfg.AccessToken = "stored-token"
		cfg.TokenExpiresAt = time.Now().Add(time.Hour)

		result, err := base.Initialize(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, result.Connected)
		assert.Empty(t, result.AuthURL)
	})

	t.Run("expired stored token requires authorization", func(t *testing.T) {
		cfg := oauthConfig()
		cfg.AccessToken = "stale-token"
		cfg.TokenExpiresAt = time.Now().Add(-time.Hour)

		result, err := base.Initialize(ctx, cfg)
		require.NoError(t, err)
		assert.False(t, result.Connected)
		assert.NotEmpty(t, result.AuthURL)
	})
}

func TestOAuthBase_ExchangeCode(t *testing.T) {
	var gotForm url.Values
	base, _ := newTestOAuthBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    3600,
		})
	}))

	ctx := context.Background()
	_, err := base.Initialize(ctx, oauthConfig())
	require.NoError(t, err)

	require.NoError(t, base.ExchangeCode(ctx, "the-code"))

	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "the-code", gotForm.Get("code"))
	assert.Equal(t, "client-id", gotForm.Get("client_id"))
	assert.Equal(t, "client-secret", gotForm.Get("client_secret"))

	snap := base.AuthConfigSnapshot()
	assert.Equal(t, "new-access", snap.AccessToken)
	assert.Equal(t, "new-refresh", snap.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), snap.TokenExpiresAt, 5*time.Second)
}

func TestOAuthBase_ExchangeCode_JWTExpiryFallback(t *testing.T) {
	// Token endpoint omits expires_in but issues a JWT carrying exp
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "listing-api",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	base, _ := newTestOAuthBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: signed})
	}))

	ctx := context.Background()
	_, err = base.Initialize(ctx, oauthConfig())
	require.NoError(t, err)
	require.NoError(t, base.ExchangeCode(ctx, "code"))

	snap := base.AuthConfigSnapshot()
	assert.True(t, snap.TokenExpiresAt.Equal(exp), "expiry should come from the token's exp claim")
}

func TestOAuthBase_RefreshAuthentication(t *testing.T) {
	t.Run("refresh grant", func(t *testing.T) {
		var gotForm url.Values
		base, _ := newTestOAuthBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = r.PostForm
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "refreshed", ExpiresIn: 3600})
		}))

		ctx := context.Background()
		cfg := oauthConfig()
		cfg.RefreshToken = "old-refresh"
		_, err := base.Initialize(ctx, cfg)
		require.NoError(t, err)

		require.NoError(t, base.RefreshAuthentication(ctx))
		assert.Equal(t, "refresh_token", gotForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", gotForm.Get("refresh_token"))
		assert.Equal(t, "refreshed", base.AuthConfigSnapshot().AccessToken)
	})

	t.Run("no refresh token", func(t *testing.T) {
		base, _ := newTestOAuthBase(t, http.NotFoundHandler())
		_, err := base.Initialize(context.Background(), oauthConfig())
		require.NoError(t, err)

		assert.ErrorIs(t, base.RefreshAuthentication(context.Background()), syndication.ErrAuthNoRefreshToken)
	})

	t.Run("token endpoint rejects grant", func(t *testing.T) {
		base, _ := newTestOAuthBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		cfg := oauthConfig()
		cfg.RefreshToken = "revoked"
		_, err := base.Initialize(context.Background(), cfg)
		require.NoError(t, err)

		assert.ErrorIs(t, base.RefreshAuthentication(context.Background()), syndication.ErrAuthFailed)
	})
}

func TestOAuthBase_Authenticate(t *testing.T) {
	t.Run("usable token passes without network", func(t *testing.T) {
		base, _ := newTestOAuthBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no network call expected")
		}))
		cfg := oauthConfig()
		cfg.AccessToken = "live"
		cfg.TokenExpiresAt = time.Now().Add(time.Hour)
		_, err := base.Initialize(context.Background(), cfg)
		require.NoError(t, err)

		assert.NoError(t, base.Authenticate(context.Background()))
	})

	t.Run("expired token without refresh token", func(t *testing.T) {
		base, _ := newTestOAuthBase(t, http.NotFoundHandler())
		cfg := oauthConfig()
		cfg.AccessToken = "stale"
		cfg.TokenExpiresAt = time.Now().Add(-time.Hour)
		_, err := base.Initialize(context.Background(), cfg)
		require.NoError(t, err)

		assert.ErrorIs(t, base.Authenticate(context.Background()), syndication.ErrAuthTokenExpired)
	})
}

func TestOAuthBase_TestConnection(t *testing.T) {
	var gotAuth string
	base, _ := newTestOAuthBase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"id":"acct-1"}`))
	}))

	cfg := oauthConfig()
	cfg.AccessToken = "probe-token"
	cfg.TokenExpiresAt = time.Now().Add(time.Hour)
	_, err := base.Initialize(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, base.TestConnection(context.Background()))
	assert.Equal(t, "Bearer probe-token", gotAuth)
}
