package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/propman/backend/internal/domain/syndication"
)

// APIKeyHeaders names the request headers a static-key platform expects.
// SecretHeader is empty for platforms using a single key header.
type APIKeyHeaders struct {
	KeyHeader    string
	SecretHeader string
}

// APIKeyBase is the strategy base for platforms authenticated with a static
// key. There is no token lifecycle: authenticating is a synchronous validity
// check and refresh re-runs the same check.
type APIKeyBase struct {
	platform syndication.Platform
	baseURL  string
	headers  APIKeyHeaders

	httpClient *http.Client

	mu  sync.RWMutex
	cfg *syndication.AuthConfig
}

// NewAPIKeyBase creates the base for one platform
func NewAPIKeyBase(platform syndication.Platform, baseURL string, headers APIKeyHeaders, client *http.Client) *APIKeyBase {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if headers.KeyHeader == "" {
		headers.KeyHeader = "X-Api-Key"
	}
	return &APIKeyBase{
		platform:   platform,
		baseURL:    baseURL,
		headers:    headers,
		httpClient: client,
	}
}

// Platform returns the platform this adapter handles
func (b *APIKeyBase) Platform() syndication.Platform {
	return b.platform
}

// Initialize requires a non-empty key and stores the credentials
func (b *APIKeyBase) Initialize(ctx context.Context, cfg *syndication.AuthConfig) (*syndication.InitializeResult, error) {
	if cfg == nil {
		return nil, syndication.ErrAuthMissingAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	stored := *cfg
	b.cfg = &stored
	b.mu.Unlock()

	return &syndication.InitializeResult{
		Connected: true,
		Message:   fmt.Sprintf("%s connected with API key", b.platform.DisplayName()),
	}, nil
}

// Authenticate checks the key against the platform
func (b *APIKeyBase) Authenticate(ctx context.Context) error {
	return b.TestConnection(ctx)
}

// RefreshAuthentication is a validity re-check; static keys do not rotate
func (b *APIKeyBase) RefreshAuthentication(ctx context.Context) error {
	return b.Authenticate(ctx)
}

// TestConnection makes one lightweight authenticated call
func (b *APIKeyBase) TestConnection(ctx context.Context) error {
	_, err := b.doJSON(ctx, http.MethodGet, "/ping", nil)
	return err
}

// AuthConfigSnapshot returns a copy of the stored credentials
func (b *APIKeyBase) AuthConfigSnapshot() syndication.AuthConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cfg == nil {
		return syndication.AuthConfig{Platform: b.platform}
	}
	return *b.cfg
}

// doJSON performs an authenticated JSON API call against the platform
func (b *APIKeyBase) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	b.mu.RLock()
	cfg := b.cfg
	b.mu.RUnlock()
	if cfg == nil || cfg.APIKey == "" {
		return nil, syndication.ErrAuthMissingAPIKey
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

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("channels: create request: %w", err)
	}
	req.Header.Set(b.headers.KeyHeader, cfg.APIKey)
	if b.headers.SecretHeader != "" && cfg.APISecret != "" {
		req.Header.Set(b.headers.SecretHeader, cfg.APISecret)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syndication.ErrPlatformUnavailable, err)
	}
	return readResponse(resp)
}
