package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propman/backend/internal/domain/syndication"
	"github.com/propman/backend/internal/infrastructure/cache"
	"github.com/propman/backend/internal/infrastructure/store"
)

// classifierAdapter is a ChannelAdapter stub whose only interesting method
// is ClassifyWebhook.
type classifierAdapter struct {
	platform   syndication.Platform
	classifyFn func(payload map[string]any) (syndication.WebhookAction, error)
}

var _ syndication.ChannelAdapter = (*classifierAdapter)(nil)

func (a *classifierAdapter) Platform() syndication.Platform { return a.platform }
func (a *classifierAdapter) Initialize(ctx context.Context, cfg *syndication.AuthConfig) (*syndication.InitializeResult, error) {
	return &syndication.InitializeResult{Connected: true}, nil
}
func (a *classifierAdapter) Authenticate(ctx context.Context) error          { return nil }
func (a *classifierAdapter) RefreshAuthentication(ctx context.Context) error { return nil }
func (a *classifierAdapter) TestConnection(ctx context.Context) error        { return nil }
func (a *classifierAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	return nil, syndication.ErrPlatformUnavailable
}
func (a *classifierAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	return nil, syndication.ErrPlatformUnavailable
}
func (a *classifierAdapter) RemoveListing(ctx context.Context, externalID string) error {
	return syndication.ErrPlatformUnavailable
}
func (a *classifierAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	return syndication.ListingStatusPublished, nil
}
func (a *classifierAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	return &syndication.AnalyticsReport{Platform: a.platform}, nil
}
func (a *classifierAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	return &syndication.ListingData{}, nil
}
func (a *classifierAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{}
}
func (a *classifierAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	return &syndication.ValidationResult{Valid: true}
}
func (a *classifierAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{}
}
func (a *classifierAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	if a.classifyFn != nil {
		return a.classifyFn(payload)
	}
	if raw, ok := payload["event_type"].(string); ok {
		action := syndication.WebhookAction(raw)
		if action.IsValid() {
			return action, nil
		}
	}
	return "", syndication.ErrWebhookUnknownEvent
}

type stubRegistry struct {
	adapters map[syndication.Platform]syndication.ChannelAdapter
}

var _ syndication.AdapterRegistry = (*stubRegistry)(nil)

func (r *stubRegistry) Adapter(platform syndication.Platform) (syndication.ChannelAdapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", syndication.ErrPlatformUnsupported, platform)
	}
	return adapter, nil
}

func (r *stubRegistry) Adapters() map[syndication.Platform]syndication.ChannelAdapter {
	return r.adapters
}

type pipelineHarness struct {
	pipeline *Pipeline
	store    *store.MemoryStore
	notifier *store.StoreNotifier
	adapter  *classifierAdapter
}

func newPipelineHarness(t *testing.T, config Config) *pipelineHarness {
	t.Helper()
	adapter := &classifierAdapter{platform: syndication.PlatformZumper}
	registry := &stubRegistry{adapters: map[syndication.Platform]syndication.ChannelAdapter{
		syndication.PlatformZumper: adapter,
	}}
	memStore := store.NewMemoryStore()
	notifier := store.NewStoreNotifier(memStore)
	dedup := cache.NewMemoryDedupStore()
	t.Cleanup(func() { dedup.Close() })

	if config.QueueSize == 0 {
		config.QueueSize = 16
	}
	return &pipelineHarness{
		pipeline: NewPipeline(registry, memStore, dedup, notifier, nil, config),
		store:    memStore,
		notifier: notifier,
		adapter:  adapter,
	}
}

func (h *pipelineHarness) seedListing(t *testing.T, externalID string, status syndication.ListingStatus) {
	t.Helper()
	listing := syndication.ExternalListing{
		PropertyID: "prop-1",
		Platform:   syndication.PlatformZumper,
		ExternalID: externalID,
		Status:     status,
	}
	listings := map[string]syndication.ExternalListing{listing.Key(): listing}
	require.NoError(t, h.store.Set(context.Background(), syndication.StoreKeyListings, listings))
}

func (h *pipelineHarness) listing(t *testing.T) syndication.ExternalListing {
	t.Helper()
	listings := make(map[string]syndication.ExternalListing)
	_, err := h.store.Get(context.Background(), syndication.StoreKeyListings, &listings)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	for _, l := range listings {
		return l
	}
	return syndication.ExternalListing{}
}

func TestPipeline_ListingPublishedEvent(t *testing.T) {
	h := newPipelineHarness(t, Config{})
	h.seedListing(t, "ext-9", syndication.ListingStatusPending)
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	payload := map[string]any{
		"event_id":   "evt-1",
		"event_type": "listing_published",
		"listing_id": "ext-9",
	}
	event, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, payload, nil, "")
	require.NoError(t, err)
	assert.False(t, event.Processed, "acknowledged before processing")

	require.NoError(t, h.pipeline.Stop(ctx))

	// The mapping transitioned and a notification was raised
	assert.Equal(t, syndication.ListingStatusPublished, h.listing(t).Status)
	notifications, err := h.notifier.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "listing_live", notifications[0].Type)

	// The history record carries the outcome
	events, err := h.pipeline.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Processed)
	require.NotNil(t, events[0].Result)
	assert.True(t, events[0].Result.Success)
	assert.Equal(t, syndication.WebhookActionListingPublished, events[0].Result.Action)
}

func TestPipeline_DuplicateDelivery(t *testing.T) {
	h := newPipelineHarness(t, Config{})
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))
	defer h.pipeline.Stop(ctx)

	payload := map[string]any{"event_id": "evt-dup", "event_type": "listing_updated", "listing_id": "x"}
	_, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, payload, nil, "")
	require.NoError(t, err)

	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, payload, nil, "")
	assert.ErrorIs(t, err, syndication.ErrWebhookDuplicateEvent)

	events, err := h.pipeline.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1, "the replay leaves no second record")
}

func TestPipeline_SignatureVerification(t *testing.T) {
	h := newPipelineHarness(t, Config{})
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))
	defer h.pipeline.Stop(ctx)

	require.NoError(t, h.pipeline.UpdateSubscription(ctx, syndication.WebhookSubscription{
		Platform: syndication.PlatformZumper,
		Secret:   "whsec-1",
		Active:   true,
	}))

	payload := map[string]any{"event_id": "evt-s1", "event_type": "listing_updated", "listing_id": "x"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, payload, body, "forged")
	assert.ErrorIs(t, err, syndication.ErrWebhookInvalidSignature)

	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, payload, body, ComputeSignature(body, "whsec-1"))
	assert.NoError(t, err)
}

func TestPipeline_LeadReceived(t *testing.T) {
	h := newPipelineHarness(t, Config{})
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	payload := map[string]any{
		"event_id":    "evt-lead",
		"event_type":  "lead_received",
		"property_id": "prop-1",
		"name":        "Dana Renter",
		"email":       "dana@example.com",
		"message":     "Is the unit still available?",
	}
	_, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, payload, nil, "")
	require.NoError(t, err)
	require.NoError(t, h.pipeline.Stop(ctx))

	leads, err := h.pipeline.Leads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Dana Renter", leads[0].Name)
	assert.Equal(t, "prop-1", leads[0].PropertyID)
	assert.Equal(t, syndication.PlatformZumper, leads[0].Platform)

	notifications, err := h.notifier.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, syndication.NotificationPriorityHigh, notifications[0].Priority)
}

func TestPipeline_BadEventDoesNotStallQueue(t *testing.T) {
	h := newPipelineHarness(t, Config{})
	h.seedListing(t, "ext-9", syndication.ListingStatusPending)
	h.adapter.classifyFn = func(payload map[string]any) (syndication.WebhookAction, error) {
		if payload["event_type"] == "garbage" {
			return "", errors.New("classifier exploded")
		}
		return syndication.WebhookActionListingPublished, nil
	}
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	_, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper,
		map[string]any{"event_id": "evt-bad", "event_type": "garbage"}, nil, "")
	require.NoError(t, err)
	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper,
		map[string]any{"event_id": "evt-good", "event_type": "listing_published", "listing_id": "ext-9"}, nil, "")
	require.NoError(t, err)

	require.NoError(t, h.pipeline.Stop(ctx))

	events, err := h.pipeline.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Both processed, in arrival order, the failure contained to its event
	assert.True(t, events[0].Processed)
	assert.False(t, events[0].Result.Success)
	assert.Contains(t, events[0].Result.Error, "classifier exploded")
	assert.True(t, events[1].Processed)
	assert.True(t, events[1].Result.Success)
	assert.Equal(t, syndication.ListingStatusPublished, h.listing(t).Status)
}

func TestPipeline_StopDrainsQueue(t *testing.T) {
	h := newPipelineHarness(t, Config{QueueSize: 32})
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	for i := 0; i < 10; i++ {
		payload := map[string]any{
			"event_id":   fmt.Sprintf("evt-%d", i),
			"event_type": "listing_updated",
			"listing_id": "nope",
		}
		_, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, payload, nil, "")
		require.NoError(t, err)
	}
	require.NoError(t, h.pipeline.Stop(ctx))

	events, err := h.pipeline.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 10)
	for _, event := range events {
		assert.True(t, event.Processed, event.RemoteEventID)
	}
}

func TestPipeline_RejectsAfterStop(t *testing.T) {
	h := newPipelineHarness(t, Config{QueueSize: 1})
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))
	require.NoError(t, h.pipeline.Stop(ctx))

	_, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper,
		map[string]any{"event_id": "evt-1", "event_type": "listing_updated"}, nil, "")
	assert.ErrorIs(t, err, syndication.ErrWebhookQueueFull)

	// The rejected delivery must not hold its dedup slot; the platform's
	// identical retry is turned away for capacity, never as a replay.
	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper,
		map[string]any{"event_id": "evt-1", "event_type": "listing_updated"}, nil, "")
	assert.ErrorIs(t, err, syndication.ErrWebhookQueueFull)
	assert.NotErrorIs(t, err, syndication.ErrWebhookDuplicateEvent)
}

func TestPipeline_RetryAfterDroppedDelivery(t *testing.T) {
	h := newPipelineHarness(t, Config{QueueSize: 1})
	entered := make(chan struct{}, 8)
	release := make(chan struct{})
	h.adapter.classifyFn = func(payload map[string]any) (syndication.WebhookAction, error) {
		entered <- struct{}{}
		<-release
		return syndication.WebhookActionListingUpdated, nil
	}
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	// Occupy the worker, then fill the single queue slot
	_, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper,
		map[string]any{"event_id": "evt-busy", "event_type": "listing_updated", "listing_id": "x"}, nil, "")
	require.NoError(t, err)
	<-entered
	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper,
		map[string]any{"event_id": "evt-fill", "event_type": "listing_updated", "listing_id": "x"}, nil, "")
	require.NoError(t, err)

	lost := map[string]any{"event_id": "evt-lost", "event_type": "listing_updated", "listing_id": "x"}
	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, lost, nil, "")
	require.ErrorIs(t, err, syndication.ErrWebhookQueueFull)

	// Once capacity returns, the retry of the dropped delivery is accepted
	// rather than rejected as a duplicate.
	close(release)
	<-entered
	_, err = h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper, lost, nil, "")
	assert.NoError(t, err)

	require.NoError(t, h.pipeline.Stop(ctx))
}

func TestPipeline_UnknownPlatform(t *testing.T) {
	h := newPipelineHarness(t, Config{})
	_, err := h.pipeline.HandleWebhook(context.Background(), syndication.PlatformTrulia,
		map[string]any{"event_id": "evt-1"}, nil, "")
	assert.ErrorIs(t, err, syndication.ErrPlatformUnsupported)
}

func TestPipeline_SeedsDefaultSubscriptions(t *testing.T) {
	h := newPipelineHarness(t, Config{EndpointBase: "/api/v1/webhooks"})
	subs, err := h.pipeline.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, len(syndication.AllPlatforms()))
	for _, sub := range subs {
		assert.True(t, sub.Active)
		assert.Contains(t, sub.Endpoint, "/api/v1/webhooks/")
	}
}

func TestRemoteEventIDExtraction(t *testing.T) {
	assert.Equal(t, "a", remoteEventID(map[string]any{"event_id": "a", "id": "b"}))
	assert.Equal(t, "b", remoteEventID(map[string]any{"id": "b"}))
	assert.Empty(t, remoteEventID(map[string]any{"payload": 12}))
}

func TestPipeline_DrainPause(t *testing.T) {
	h := newPipelineHarness(t, Config{DrainPause: time.Millisecond})
	var pauses int
	h.pipeline.sleepFn = func(time.Duration) { pauses++ }
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	for i := 0; i < 3; i++ {
		_, err := h.pipeline.HandleWebhook(ctx, syndication.PlatformZumper,
			map[string]any{"event_id": fmt.Sprintf("p-%d", i), "event_type": "listing_updated", "listing_id": "x"}, nil, "")
		require.NoError(t, err)
	}
	require.NoError(t, h.pipeline.Stop(ctx))
	assert.Equal(t, 3, pauses, "one pause after every drained event")
}
