package syndication

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// AuthConfig
// ---------------------------------------------------------------------------

// AuthConfig holds the credentials for one platform. Which fields are
// required depends on the platform's auth family; Validate enforces the
// family-specific subset. The orchestrator persists one record per platform
// and mutates it on connect, disconnect and token refresh.
type AuthConfig struct {
	Platform Platform `json:"platform"`

	// Delegated authorization (oauth family)
	ClientID       string    `json:"client_id,omitempty"`
	ClientSecret   string    `json:"client_secret,omitempty"`
	RedirectURI    string    `json:"redirect_uri,omitempty"`
	AccessToken    string    `json:"access_token,omitempty"`
	RefreshToken   string    `json:"refresh_token,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`

	// Static key (api_key family)
	APIKey    string `json:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty"`

	// Session emulation (credentials family)
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Validate checks that the fields required by the platform's auth family
// are present.
func (c *AuthConfig) Validate() error {
	if !c.Platform.IsValid() {
		return ErrPlatformUnsupported
	}
	switch c.Platform.AuthFamily() {
	case AuthFamilyOAuth:
		if c.ClientID == "" {
			return ErrAuthMissingClientID
		}
		if c.ClientSecret == "" {
			return ErrAuthMissingClientSecret
		}
	case AuthFamilyAPIKey:
		if c.APIKey == "" {
			return ErrAuthMissingAPIKey
		}
	case AuthFamilyCredentials:
		if c.Username == "" || c.Password == "" {
			return ErrAuthMissingCredentials
		}
	}
	return nil
}

// HasUsableToken returns true if a stored access token exists and has not
// expired yet. Only meaningful for the oauth family.
func (c *AuthConfig) HasUsableToken(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	if c.TokenExpiresAt.IsZero() {
		return true
	}
	return now.Before(c.TokenExpiresAt)
}

// ---------------------------------------------------------------------------
// ConnectionState
// ---------------------------------------------------------------------------

// ConnectionHealth is the observed usability of a platform connection.
type ConnectionHealth string

const (
	// HealthHealthy indicates the last probe succeeded
	HealthHealthy ConnectionHealth = "healthy"
	// HealthWarning indicates the connection works but is degraded
	// (e.g. token close to expiry)
	HealthWarning ConnectionHealth = "warning"
	// HealthError indicates the last probe failed
	HealthError ConnectionHealth = "error"
)

// String returns the string representation of the health value.
func (h ConnectionHealth) String() string {
	return string(h)
}

// ConnectionState is the orchestrator-owned, in-memory view of one
// platform connection. It is derived from the stored AuthConfig plus the
// last live probe and is never persisted directly.
type ConnectionState struct {
	Connected     bool             `json:"connected"`
	Health        ConnectionHealth `json:"health"`
	LastCheckedAt time.Time        `json:"last_checked_at"`
	Error         string           `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Webhook classification
// ---------------------------------------------------------------------------

// WebhookAction is the named domain action a platform callback maps to.
type WebhookAction string

const (
	WebhookActionListingPublished WebhookAction = "listing_published"
	WebhookActionListingUpdated   WebhookAction = "listing_updated"
	WebhookActionListingRemoved   WebhookAction = "listing_removed"
	WebhookActionListingExpired   WebhookAction = "listing_expired"
	WebhookActionListingRejected  WebhookAction = "listing_rejected"
	WebhookActionLeadReceived     WebhookAction = "lead_received"
)

// IsValid returns true if the action is one of the six handled actions.
func (a WebhookAction) IsValid() bool {
	switch a {
	case WebhookActionListingPublished, WebhookActionListingUpdated,
		WebhookActionListingRemoved, WebhookActionListingExpired,
		WebhookActionListingRejected, WebhookActionLeadReceived:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action.
func (a WebhookAction) String() string {
	return string(a)
}

// ---------------------------------------------------------------------------
// ChannelAdapter Port Interface
// ---------------------------------------------------------------------------

// ChannelAdapter is the port every marketplace integration implements.
// It is defined in the domain layer following the Ports & Adapters pattern;
// concrete implementations (Zillow, Apartments.com, Craigslist, ...) live in
// the infrastructure layer, each extending the strategy base matching its
// auth family.
//
// Adapters never mutate their own stored credentials outside Initialize;
// the connection orchestrator owns AuthConfig persistence.
type ChannelAdapter interface {
	// Platform returns the platform this adapter handles
	Platform() Platform

	// Initialize injects credentials and prepares the adapter. For oauth
	// platforms without a usable stored token the result carries the
	// authorization URL instead of Connected=true.
	Initialize(ctx context.Context, cfg *AuthConfig) (*InitializeResult, error)

	// Authenticate proves the injected credentials are usable
	Authenticate(ctx context.Context) error

	// RefreshAuthentication renews expiring credentials (token refresh for
	// oauth, re-login for session platforms, no-op validity check for keys)
	RefreshAuthentication(ctx context.Context) error

	// TestConnection makes one lightweight authenticated call
	TestConnection(ctx context.Context) error

	// PublishListing creates a listing on the platform
	PublishListing(ctx context.Context, data *ListingData) (*PublishResponse, error)

	// UpdateListing updates an existing listing identified by externalID
	UpdateListing(ctx context.Context, externalID string, data *ListingData) (*PublishResponse, error)

	// RemoveListing takes down an existing listing
	RemoveListing(ctx context.Context, externalID string) error

	// GetListingStatus fetches the platform-side status of a listing
	GetListingStatus(ctx context.Context, externalID string) (ListingStatus, error)

	// GetAnalytics fetches aggregate listing performance for a time range
	GetAnalytics(ctx context.Context, rng AnalyticsRange) (*AnalyticsReport, error)

	// TransformProperty converts raw property data into canonical listing
	// data, applying the platform's renames and truncation limits
	TransformProperty(property *Property) (*ListingData, error)

	// ValidationRules returns the platform's rule table
	ValidationRules() ValidationRules

	// ValidateListing checks canonical data against the platform's rules
	ValidateListing(data *ListingData) *ValidationResult

	// RateLimitInfo returns the platform's request budget
	RateLimitInfo() RateLimitInfo

	// ClassifyWebhook maps a raw callback payload to a named action
	ClassifyWebhook(payload map[string]any) (WebhookAction, error)
}

// CodeExchanger is implemented by adapters whose auth flow has a separate
// authorization-code exchange step (the delegated-authorization family).
// The orchestrator type-asserts for it when completing an authorization.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) error
}

// CredentialReporter is implemented by adapters whose auth flow derives new
// credentials after Initialize (token exchange, session login). The
// orchestrator reads the snapshot to persist what the adapter obtained.
type CredentialReporter interface {
	AuthConfigSnapshot() AuthConfig
}

// AdapterRegistry provides access to the adapter for each supported
// platform. The registry is built once at startup and covers the full
// closed platform set; platforms without a real integration are backed by
// a deterministic stub.
type AdapterRegistry interface {
	// Adapter returns the adapter for the given platform
	Adapter(platform Platform) (ChannelAdapter, error)

	// Adapters returns every registered adapter keyed by platform
	Adapters() map[Platform]ChannelAdapter
}
