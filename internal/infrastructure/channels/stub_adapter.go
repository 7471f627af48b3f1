package channels

import (
	"context"
	"fmt"

	"github.com/propman/backend/internal/domain/syndication"
)

// StubAdapter stands in for platforms without a real integration yet. Every
// operation deterministically fails with the same message and validation
// always fails, so callers treat "not implemented" exactly like
// "implemented but down" with no special-casing.
type StubAdapter struct {
	platform syndication.Platform
}

// NewStubAdapter creates the stub for one platform
func NewStubAdapter(platform syndication.Platform) *StubAdapter {
	return &StubAdapter{platform: platform}
}

// Platform returns the platform this stub stands in for
func (a *StubAdapter) Platform() syndication.Platform {
	return a.platform
}

func (a *StubAdapter) notImplemented() error {
	return fmt.Errorf("%w: %s integration coming soon", syndication.ErrPlatformNotImplemented, a.platform.DisplayName())
}

// Initialize always fails
func (a *StubAdapter) Initialize(ctx context.Context, cfg *syndication.AuthConfig) (*syndication.InitializeResult, error) {
	return nil, a.notImplemented()
}

// Authenticate always fails
func (a *StubAdapter) Authenticate(ctx context.Context) error {
	return a.notImplemented()
}

// RefreshAuthentication always fails
func (a *StubAdapter) RefreshAuthentication(ctx context.Context) error {
	return a.notImplemented()
}

// TestConnection always fails
func (a *StubAdapter) TestConnection(ctx context.Context) error {
	return a.notImplemented()
}

// PublishListing always fails
func (a *StubAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	return nil, a.notImplemented()
}

// UpdateListing always fails
func (a *StubAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	return nil, a.notImplemented()
}

// RemoveListing always fails
func (a *StubAdapter) RemoveListing(ctx context.Context, externalID string) error {
	return a.notImplemented()
}

// GetListingStatus always fails
func (a *StubAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	return "", a.notImplemented()
}

// GetAnalytics always fails
func (a *StubAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	return nil, a.notImplemented()
}

// TransformProperty always fails
func (a *StubAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	return nil, a.notImplemented()
}

// ValidationRules returns an empty rule table
func (a *StubAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{}
}

// ValidateListing always fails
func (a *StubAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	result := &syndication.ValidationResult{Valid: true, Errors: []string{}}
	result.AddError(a.notImplemented().Error())
	return result
}

// RateLimitInfo returns a zero budget
func (a *StubAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{}
}

// ClassifyWebhook always fails
func (a *StubAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	return "", a.notImplemented()
}

var _ syndication.ChannelAdapter = (*StubAdapter)(nil)
