package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/propman/backend/internal/domain/syndication"
)

// OAuthEndpoints names the three URLs a delegated-authorization platform
// exposes.
type OAuthEndpoints struct {
	// AuthorizeURL is where the user grants consent
	AuthorizeURL string
	// TokenURL is the code-for-token and refresh grant endpoint
	TokenURL string
	// APIBaseURL prefixes every authenticated API call
	APIBaseURL string
}

// OAuthBase is the strategy base for platforms using delegated
// authorization. It owns the token lifecycle (authorization URL, code
// exchange, refresh) and authenticated transport; concrete adapters supply
// payload shaping and response parsing on top.
type OAuthBase struct {
	platform  syndication.Platform
	endpoints OAuthEndpoints
	scopes    []string

	httpClient *http.Client

	mu  sync.RWMutex
	cfg *syndication.AuthConfig

	// nowFn is replaceable in tests
	nowFn func() time.Time
}

// NewOAuthBase creates the base for one platform
func NewOAuthBase(platform syndication.Platform, endpoints OAuthEndpoints, scopes []string, client *http.Client) *OAuthBase {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OAuthBase{
		platform:   platform,
		endpoints:  endpoints,
		scopes:     scopes,
		httpClient: client,
		nowFn:      time.Now,
	}
}

// Platform returns the platform this adapter handles
func (b *OAuthBase) Platform() syndication.Platform {
	return b.platform
}

// Initialize validates the client credentials and attempts silent reuse of a
// stored token. Without a usable token the result carries the authorization
// URL for the caller to visit.
func (b *OAuthBase) Initialize(ctx context.Context, cfg *syndication.AuthConfig) (*syndication.InitializeResult, error) {
	if cfg == nil {
		return nil, syndication.ErrAuthMissingClientID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	stored := *cfg
	b.cfg = &stored
	b.mu.Unlock()

	if cfg.HasUsableToken(b.nowFn()) {
		return &syndication.InitializeResult{
			Connected: true,
			Message:   fmt.Sprintf("%s connected with stored token", b.platform.DisplayName()),
		}, nil
	}

	authURL, err := b.buildAuthorizeURL(cfg)
	if err != nil {
		return nil, err
	}
	return &syndication.InitializeResult{
		Connected: false,
		AuthURL:   authURL,
		Message:   "authorization required: visit the authorization URL",
	}, nil
}

// buildAuthorizeURL assembles the consent URL with a fresh state value
func (b *OAuthBase) buildAuthorizeURL(cfg *syndication.AuthConfig) (string, error) {
	u, err := url.Parse(b.endpoints.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("channels: parse authorize url: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("state", uuid.NewString())
	if len(b.scopes) > 0 {
		q.Set("scope", strings.Join(b.scopes, " "))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Authenticate proves a usable token exists, refreshing once if a refresh
// token is available.
func (b *OAuthBase) Authenticate(ctx context.Context) error {
	b.mu.RLock()
	cfg := b.cfg
	b.mu.RUnlock()
	if cfg == nil {
		return syndication.ErrAuthMissingClientID
	}
	if cfg.HasUsableToken(b.nowFn()) {
		return nil
	}
	if cfg.RefreshToken != "" {
		return b.RefreshAuthentication(ctx)
	}
	if cfg.AccessToken != "" {
		return syndication.ErrAuthTokenExpired
	}
	return syndication.ErrAuthFailed
}

// ExchangeCode trades an authorization code for tokens and stores them
func (b *OAuthBase) ExchangeCode(ctx context.Context, code string) error {
	b.mu.RLock()
	cfg := b.cfg
	b.mu.RUnlock()
	if cfg == nil {
		return syndication.ErrAuthMissingClientID
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"redirect_uri":  {cfg.RedirectURI},
	}
	return b.requestToken(ctx, form)
}

// RefreshAuthentication renews the access token with the refresh grant
func (b *OAuthBase) RefreshAuthentication(ctx context.Context) error {
	b.mu.RLock()
	cfg := b.cfg
	b.mu.RUnlock()
	if cfg == nil {
		return syndication.ErrAuthMissingClientID
	}
	if cfg.RefreshToken == "" {
		return syndication.ErrAuthNoRefreshToken
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cfg.RefreshToken},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
	}
	return b.requestToken(ctx, form)
}

// tokenResponse is the token endpoint's answer for both grants
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// requestToken posts a grant to the token endpoint and stores the result
func (b *OAuthBase) requestToken(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("channels: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", syndication.ErrPlatformUnavailable, err)
	}
	body, err := readResponse(resp)
	if err != nil {
		return err
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("%w: parse token response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	if tok.AccessToken == "" {
		return syndication.ErrAuthFailed
	}

	expiresAt := b.tokenExpiry(tok)

	b.mu.Lock()
	b.cfg.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		b.cfg.RefreshToken = tok.RefreshToken
	}
	b.cfg.TokenExpiresAt = expiresAt
	b.mu.Unlock()
	return nil
}

// tokenExpiry derives the absolute expiry timestamp. Platforms that omit
// expires_in but issue JWT access tokens still carry an exp claim, so that
// is used as a fallback; the claim is read without signature verification
// because the token is treated as opaque everywhere else.
func (b *OAuthBase) tokenExpiry(tok tokenResponse) time.Time {
	if tok.ExpiresIn > 0 {
		return b.nowFn().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Time{}
}

// TestConnection makes one lightweight authenticated call
func (b *OAuthBase) TestConnection(ctx context.Context) error {
	_, err := b.doJSON(ctx, http.MethodGet, "/me", nil)
	return err
}

// AuthConfigSnapshot returns a copy of the credentials including any tokens
// obtained since Initialize.
func (b *OAuthBase) AuthConfigSnapshot() syndication.AuthConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cfg == nil {
		return syndication.AuthConfig{Platform: b.platform}
	}
	return *b.cfg
}

// doJSON performs an authenticated JSON API call against the platform
func (b *OAuthBase) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	b.mu.RLock()
	var token string
	if b.cfg != nil {
		token = b.cfg.AccessToken
	}
	b.mu.RUnlock()
	if token == "" {
		return nil, syndication.ErrAuthFailed
	}

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("channels: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.endpoints.APIBaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("channels: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syndication.ErrPlatformUnavailable, err)
	}
	return readResponse(resp)
}
