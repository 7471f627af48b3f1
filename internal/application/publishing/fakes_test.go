package publishing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/propman/backend/internal/domain/syndication"
	"github.com/propman/backend/internal/infrastructure/store"
)

// fakeAdapter is a scriptable in-memory ChannelAdapter that records every
// network-facing call.
type fakeAdapter struct {
	platform syndication.Platform

	initResult     *syndication.InitializeResult
	initErr        error
	testErr        error
	publishResp    *syndication.PublishResponse
	publishErr     error
	updateResp     *syndication.PublishResponse
	updateErr      error
	removeErr      error
	transformErr   error
	validationErrs []string
	analytics      *syndication.AnalyticsReport
	analyticsErr   error

	// mu guards the call recorders; batch publishing runs concurrently
	mu           sync.Mutex
	publishCalls int
	updateCalls  []string
	removeCalls  []string
	testCalls    int
}

var _ syndication.ChannelAdapter = (*fakeAdapter)(nil)

func newFakeAdapter(platform syndication.Platform) *fakeAdapter {
	return &fakeAdapter{
		platform:   platform,
		initResult: &syndication.InitializeResult{Connected: true, Message: "connected"},
		publishResp: &syndication.PublishResponse{
			ExternalID: "ext-" + platform.String(),
			ListingURL: "https://example.com/" + platform.String(),
			Status:     syndication.ListingStatusPublished,
		},
		updateResp: &syndication.PublishResponse{
			ExternalID: "ext-" + platform.String(),
			Status:     syndication.ListingStatusPublished,
		},
	}
}

func (f *fakeAdapter) Platform() syndication.Platform { return f.platform }

func (f *fakeAdapter) Initialize(ctx context.Context, cfg *syndication.AuthConfig) (*syndication.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.initResult, nil
}

func (f *fakeAdapter) Authenticate(ctx context.Context) error          { return f.testErr }
func (f *fakeAdapter) RefreshAuthentication(ctx context.Context) error { return f.testErr }

func (f *fakeAdapter) TestConnection(ctx context.Context) error {
	f.mu.Lock()
	f.testCalls++
	f.mu.Unlock()
	return f.testErr
}

func (f *fakeAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	f.mu.Lock()
	f.publishCalls++
	f.mu.Unlock()
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return f.publishResp, nil
}

func (f *fakeAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, externalID)
	f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateResp, nil
}

func (f *fakeAdapter) RemoveListing(ctx context.Context, externalID string) error {
	f.mu.Lock()
	f.removeCalls = append(f.removeCalls, externalID)
	f.mu.Unlock()
	return f.removeErr
}

func (f *fakeAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	return syndication.ListingStatusPublished, nil
}

func (f *fakeAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	if f.analyticsErr != nil {
		return nil, f.analyticsErr
	}
	if f.analytics != nil {
		return f.analytics, nil
	}
	return &syndication.AnalyticsReport{Platform: f.platform}, nil
}

func (f *fakeAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	if f.transformErr != nil {
		return nil, f.transformErr
	}
	if property == nil {
		return nil, syndication.ErrListingMissingProperty
	}
	return &syndication.ListingData{
		PropertyID:  property.ID,
		Title:       property.Title,
		Description: property.Description,
		Price:       property.RentAmount,
	}, nil
}

func (f *fakeAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{}
}

func (f *fakeAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	result := &syndication.ValidationResult{Valid: true}
	for _, msg := range f.validationErrs {
		result.AddError(msg)
	}
	return result
}

func (f *fakeAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{}
}

func (f *fakeAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	return "", syndication.ErrWebhookUnknownEvent
}

// fakeExchangerAdapter adds the authorization-code exchange step
type fakeExchangerAdapter struct {
	*fakeAdapter
	exchangeErr   error
	exchangedCode string
	snapshot      syndication.AuthConfig
}

var (
	_ syndication.CodeExchanger      = (*fakeExchangerAdapter)(nil)
	_ syndication.CredentialReporter = (*fakeExchangerAdapter)(nil)
)

func (f *fakeExchangerAdapter) ExchangeCode(ctx context.Context, code string) error {
	if f.exchangeErr != nil {
		return f.exchangeErr
	}
	f.exchangedCode = code
	return nil
}

func (f *fakeExchangerAdapter) AuthConfigSnapshot() syndication.AuthConfig {
	return f.snapshot
}

// fakeRegistry serves only the adapters handed to it
type fakeRegistry struct {
	adapters map[syndication.Platform]syndication.ChannelAdapter
}

var _ syndication.AdapterRegistry = (*fakeRegistry)(nil)

func newFakeRegistry(adapters ...syndication.ChannelAdapter) *fakeRegistry {
	r := &fakeRegistry{adapters: make(map[syndication.Platform]syndication.ChannelAdapter)}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

func (r *fakeRegistry) Adapter(platform syndication.Platform) (syndication.ChannelAdapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", syndication.ErrPlatformUnsupported, platform)
	}
	return adapter, nil
}

func (r *fakeRegistry) Adapters() map[syndication.Platform]syndication.ChannelAdapter {
	return r.adapters
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func fixtureProperty() *syndication.Property {
	return &syndication.Property{
		ID:           "prop-42",
		Title:        "Sunny 2BR near the park",
		Description:  "Bright two-bedroom with balcony.",
		RentAmount:   decimal.NewFromInt(2450),
		Currency:     "USD",
		Street:       "12 Elm St",
		City:         "Portland",
		State:        "OR",
		PostalCode:   "97201",
		Bedrooms:     2,
		Bathrooms:    1,
		ContactEmail: "owner@example.com",
	}
}

type testHarness struct {
	orch     *Orchestrator
	store    *store.MemoryStore
	registry *fakeRegistry
	now      time.Time

	sleepMu sync.Mutex
	sleeps  []time.Duration
}

func newTestOrchestrator(t *testing.T, adapters ...syndication.ChannelAdapter) *testHarness {
	t.Helper()
	h := &testHarness{
		store:    store.NewMemoryStore(),
		registry: newFakeRegistry(adapters...),
		now:      time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	h.orch = NewOrchestrator(h.registry, h.store, nil, 10*time.Millisecond)
	h.orch.nowFn = func() time.Time { return h.now }
	h.orch.sleepFn = func(d time.Duration) {
		h.sleepMu.Lock()
		h.sleeps = append(h.sleeps, d)
		h.sleepMu.Unlock()
	}
	return h
}

// connect marks the platform connected through the public path
func (h *testHarness) connect(t *testing.T, platform syndication.Platform) {
	t.Helper()
	result, err := h.orch.ConnectPlatform(context.Background(), platform, &syndication.AuthConfig{
		Platform: platform,
		APIKey:   "key",
	}, "tester")
	require.NoError(t, err)
	require.True(t, result.Success, result.Message)
}

func newTestService(t *testing.T, h *testHarness, cfg ServiceConfig) *Service {
	t.Helper()
	svc := NewService(h.orch, h.store, store.NewStoreNotifier(h.store), nil, cfg)
	svc.nowFn = h.orch.nowFn
	svc.sleepFn = h.orch.sleepFn
	return svc
}
