// Package webhook receives platform callbacks, verifies and deduplicates
// them, and drains them serially through a single worker.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propman/backend/internal/domain/syndication"
)

// Config holds the pipeline's tunables.
type Config struct {
	// QueueSize bounds the in-flight event queue
	QueueSize int
	// DrainPause is the pause between processed events
	DrainPause time.Duration
	// DedupTTL is the retention window for seen remote event ids
	DedupTTL time.Duration
	// EndpointBase prefixes the per-platform callback endpoints
	EndpointBase string
}

// Pipeline is the inbound webhook path: verify, dedup, record, enqueue,
// then process in arrival order on one dedicated worker.
type Pipeline struct {
	registry syndication.AdapterRegistry
	store    syndication.Store
	dedup    syndication.IdempotencyStore
	notifier syndication.Notifier
	logger   *zap.Logger
	config   Config

	queue chan *syndication.WebhookEvent

	// storeMu serializes read-modify-write cycles on the shared lists;
	// HandleWebhook and the worker both write
	storeMu sync.Mutex

	mu        sync.Mutex
	isRunning bool
	wg        sync.WaitGroup

	nowFn   func() time.Time
	sleepFn func(time.Duration)
}

// NewPipeline creates the webhook pipeline
func NewPipeline(registry syndication.AdapterRegistry, store syndication.Store, dedup syndication.IdempotencyStore, notifier syndication.Notifier, logger *zap.Logger, config Config) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.DedupTTL <= 0 {
		config.DedupTTL = 24 * time.Hour
	}
	return &Pipeline{
		registry: registry,
		store:    store,
		dedup:    dedup,
		notifier: notifier,
		logger:   logger,
		config:   config,
		queue:    make(chan *syndication.WebhookEvent, config.QueueSize),
		nowFn:    time.Now,
		sleepFn:  time.Sleep,
	}
}

// Start launches the drain worker
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.drainLoop(ctx)

	p.logger.Info("Webhook pipeline started",
		zap.Int("queue_size", p.config.QueueSize),
		zap.Duration("dedup_ttl", p.config.DedupTTL),
	)
	return nil
}

// Stop stops accepting events and drains what is already queued
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Webhook pipeline stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Webhook pipeline stop timed out")
		return ctx.Err()
	}
}

// ---------------------------------------------------------------------------
// Intake
// ---------------------------------------------------------------------------

// HandleWebhook verifies, deduplicates and enqueues one inbound callback.
// It returns the recorded event for the fast acknowledgment; processing
// happens asynchronously on the drain worker.
func (p *Pipeline) HandleWebhook(ctx context.Context, platform syndication.Platform, payload map[string]any, rawBody []byte, signature string) (*syndication.WebhookEvent, error) {
	if _, err := p.registry.Adapter(platform); err != nil {
		return nil, err
	}

	subscription, err := p.subscription(ctx, platform)
	if err != nil {
		return nil, err
	}
	if subscription != nil && subscription.Secret != "" {
		if !verifySignature(rawBody, signature, subscription.Secret) {
			return nil, syndication.ErrWebhookInvalidSignature
		}
	}

	remoteID := remoteEventID(payload)
	if remoteID != "" {
		fresh, err := p.dedup.MarkProcessed(ctx, dedupKey(platform, remoteID), p.config.DedupTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, fmt.Errorf("%w: %s", syndication.ErrWebhookDuplicateEvent, remoteID)
		}
	}

	event := syndication.NewWebhookEvent(platform, eventTypeOf(payload), remoteID, payload, p.nowFn())
	if err := p.appendEvent(ctx, event); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isRunning {
		p.releaseDedup(ctx, platform, remoteID)
		return nil, syndication.ErrWebhookQueueFull
	}
	select {
	case p.queue <- event:
		return event, nil
	default:
		p.logger.Warn("Webhook queue full, event dropped",
			zap.String("platform", platform.String()),
			zap.String("event_id", event.ID.String()))
		p.releaseDedup(ctx, platform, remoteID)
		return nil, syndication.ErrWebhookQueueFull
	}
}

// releaseDedup frees the dedup reservation for a delivery that was rejected
// after marking. Without it a dropped event would shadow the platform's
// retry for the whole retention window.
func (p *Pipeline) releaseDedup(ctx context.Context, platform syndication.Platform, remoteID string) {
	if remoteID == "" {
		return
	}
	if err := p.dedup.Forget(ctx, dedupKey(platform, remoteID)); err != nil {
		p.logger.Warn("Dedup reservation not released",
			zap.String("platform", platform.String()),
			zap.String("remote_event_id", remoteID),
			zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Drain Worker
// ---------------------------------------------------------------------------

func (p *Pipeline) drainLoop(ctx context.Context) {
	defer p.wg.Done()

	for event := range p.queue {
		p.process(ctx, event)
		if p.config.DrainPause > 0 {
			p.sleepFn(p.config.DrainPause)
		}
	}
}

// process classifies and handles one event. Handler errors are recorded on
// the event, never propagated; one bad event cannot stall the queue.
func (p *Pipeline) process(ctx context.Context, event *syndication.WebhookEvent) {
	result := syndication.WebhookResult{Success: true}

	action, err := p.classify(ctx, event)
	if err == nil {
		result.Action = action
		err = p.dispatch(ctx, event, action)
	}
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		p.logger.Warn("Webhook event processing failed",
			zap.String("platform", event.Platform.String()),
			zap.String("event_type", event.EventType),
			zap.Error(err))
	}

	event.MarkProcessed(result)
	if err := p.updateEvent(ctx, event); err != nil {
		p.logger.Error("Webhook event not updated", zap.Error(err))
	}
}

func (p *Pipeline) classify(ctx context.Context, event *syndication.WebhookEvent) (syndication.WebhookAction, error) {
	adapter, err := p.registry.Adapter(event.Platform)
	if err != nil {
		return "", err
	}
	return adapter.ClassifyWebhook(event.Payload)
}

func (p *Pipeline) dispatch(ctx context.Context, event *syndication.WebhookEvent, action syndication.WebhookAction) error {
	switch action {
	case syndication.WebhookActionListingPublished:
		return p.transitionListing(ctx, event, syndication.ListingStatusPublished,
			"listing_live", syndication.NotificationPriorityNormal,
			"Listing is now live on %s")
	case syndication.WebhookActionListingUpdated:
		return p.transitionListing(ctx, event, syndication.ListingStatusPublished, "", syndication.NotificationPriorityLow, "")
	case syndication.WebhookActionListingRemoved:
		return p.transitionListing(ctx, event, syndication.ListingStatusRemoved,
			"listing_removed", syndication.NotificationPriorityNormal,
			"Listing was removed on %s")
	case syndication.WebhookActionListingExpired:
		return p.transitionListing(ctx, event, syndication.ListingStatusExpired,
			"listing_expired", syndication.NotificationPriorityNormal,
			"Listing expired on %s")
	case syndication.WebhookActionListingRejected:
		return p.transitionListing(ctx, event, syndication.ListingStatusRejected,
			"listing_rejected", syndication.NotificationPriorityHigh,
			"Listing was rejected by %s")
	case syndication.WebhookActionLeadReceived:
		return p.recordLead(ctx, event)
	default:
		return fmt.Errorf("%w: %s", syndication.ErrWebhookUnknownEvent, action)
	}
}

// transitionListing moves the matching external listing to the new status
// and optionally appends a notification. Events for unknown listings are
// not an error; the takedown may have raced the callback.
func (p *Pipeline) transitionListing(ctx context.Context, event *syndication.WebhookEvent, status syndication.ListingStatus, notificationType string, priority syndication.NotificationPriority, messageFormat string) error {
	externalID := listingExternalID(event.Payload)
	if externalID == "" {
		return fmt.Errorf("%w: payload carries no listing id", syndication.ErrWebhookUnknownEvent)
	}

	p.storeMu.Lock()
	listings := make(map[string]syndication.ExternalListing)
	if _, err := p.store.Get(ctx, syndication.StoreKeyListings, &listings); err != nil {
		p.storeMu.Unlock()
		return err
	}
	var matched *syndication.ExternalListing
	for key, listing := range listings {
		if listing.Platform == event.Platform && listing.ExternalID == externalID {
			listing.Status = status
			listings[key] = listing
			matched = &listing
			break
		}
	}
	if matched != nil {
		if err := p.store.Set(ctx, syndication.StoreKeyListings, listings); err != nil {
			p.storeMu.Unlock()
			return err
		}
	}
	p.storeMu.Unlock()

	if matched == nil {
		p.logger.Debug("Webhook for unknown listing",
			zap.String("platform", event.Platform.String()),
			zap.String("external_id", externalID))
		return nil
	}

	if notificationType != "" {
		p.notify(ctx, notificationType,
			fmt.Sprintf(messageFormat, event.Platform.DisplayName()), priority)
	}
	return nil
}

// recordLead appends the inquiry to the lead list and raises a notification
func (p *Pipeline) recordLead(ctx context.Context, event *syndication.WebhookEvent) error {
	lead := syndication.Lead{
		ID:         uuid.New(),
		Platform:   event.Platform,
		PropertyID: stringField(event.Payload, "property_id"),
		Name:       stringField(event.Payload, "name", "contact_name", "from_name"),
		Email:      stringField(event.Payload, "email", "contact_email"),
		Phone:      stringField(event.Payload, "phone", "contact_phone"),
		Message:    stringField(event.Payload, "message", "body", "text"),
		ReceivedAt: p.nowFn(),
	}

	p.storeMu.Lock()
	var leads []syndication.Lead
	if _, err := p.store.Get(ctx, syndication.StoreKeyLeads, &leads); err != nil {
		p.storeMu.Unlock()
		return err
	}
	leads = append(leads, lead)
	if err := p.store.Set(ctx, syndication.StoreKeyLeads, leads); err != nil {
		p.storeMu.Unlock()
		return err
	}
	p.storeMu.Unlock()

	name := lead.Name
	if name == "" {
		name = "A renter"
	}
	p.notify(ctx, "lead_received",
		fmt.Sprintf("%s inquired via %s", name, event.Platform.DisplayName()),
		syndication.NotificationPriorityHigh)
	return nil
}

// ---------------------------------------------------------------------------
// Subscriptions & History
// ---------------------------------------------------------------------------

// Subscriptions returns the per-platform subscriptions, seeding the
// defaults on first call.
func (p *Pipeline) Subscriptions(ctx context.Context) ([]syndication.WebhookSubscription, error) {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()
	return p.loadSubscriptions(ctx)
}

// UpdateSubscription replaces one platform's subscription
func (p *Pipeline) UpdateSubscription(ctx context.Context, sub syndication.WebhookSubscription) error {
	if !sub.Platform.IsValid() {
		return syndication.ErrPlatformUnsupported
	}
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	subs, err := p.loadSubscriptions(ctx)
	if err != nil {
		return err
	}
	for i := range subs {
		if subs[i].Platform == sub.Platform {
			subs[i] = sub
			return p.store.Set(ctx, syndication.StoreKeySubscriptions, subs)
		}
	}
	subs = append(subs, sub)
	return p.store.Set(ctx, syndication.StoreKeySubscriptions, subs)
}

// Events returns the recorded event history, oldest first
func (p *Pipeline) Events(ctx context.Context) ([]syndication.WebhookEvent, error) {
	var events []syndication.WebhookEvent
	if _, err := p.store.Get(ctx, syndication.StoreKeyWebhookEvents, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Leads returns the recorded leads, oldest first
func (p *Pipeline) Leads(ctx context.Context) ([]syndication.Lead, error) {
	var leads []syndication.Lead
	if _, err := p.store.Get(ctx, syndication.StoreKeyLeads, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (p *Pipeline) subscription(ctx context.Context, platform syndication.Platform) (*syndication.WebhookSubscription, error) {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	subs, err := p.loadSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].Platform == platform {
			return &subs[i], nil
		}
	}
	return nil, nil
}

// loadSubscriptions must be called with storeMu held
func (p *Pipeline) loadSubscriptions(ctx context.Context) ([]syndication.WebhookSubscription, error) {
	var subs []syndication.WebhookSubscription
	found, err := p.store.Get(ctx, syndication.StoreKeySubscriptions, &subs)
	if err != nil {
		return nil, err
	}
	if !found || len(subs) == 0 {
		subs = syndication.DefaultSubscriptions(p.config.EndpointBase)
		if err := p.store.Set(ctx, syndication.StoreKeySubscriptions, subs); err != nil {
			return nil, err
		}
	}
	return subs, nil
}

func (p *Pipeline) appendEvent(ctx context.Context, event *syndication.WebhookEvent) error {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	var events []syndication.WebhookEvent
	if _, err := p.store.Get(ctx, syndication.StoreKeyWebhookEvents, &events); err != nil {
		return err
	}
	events = syndication.CapList(append(events, *event), syndication.MaxWebhookHistory)
	return p.store.Set(ctx, syndication.StoreKeyWebhookEvents, events)
}

func (p *Pipeline) updateEvent(ctx context.Context, event *syndication.WebhookEvent) error {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	var events []syndication.WebhookEvent
	if _, err := p.store.Get(ctx, syndication.StoreKeyWebhookEvents, &events); err != nil {
		return err
	}
	for i := range events {
		if events[i].ID == event.ID {
			events[i] = *event
			break
		}
	}
	return p.store.Set(ctx, syndication.StoreKeyWebhookEvents, events)
}

func (p *Pipeline) notify(ctx context.Context, notificationType, message string, priority syndication.NotificationPriority) {
	if p.notifier == nil {
		return
	}
	err := p.notifier.Notify(ctx, syndication.Notification{
		Type:      notificationType,
		Message:   message,
		Priority:  priority,
		CreatedAt: p.nowFn(),
	})
	if err != nil {
		p.logger.Error("Notification not recorded", zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Payload Helpers
// ---------------------------------------------------------------------------

// verifySignature checks the hex-encoded HMAC-SHA256 of the raw body
func verifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ComputeSignature signs a payload the way platforms are expected to
func ComputeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func dedupKey(platform syndication.Platform, remoteID string) string {
	return platform.String() + ":" + remoteID
}

// remoteEventID extracts the platform-assigned delivery id
func remoteEventID(payload map[string]any) string {
	return stringField(payload, "event_id", "delivery_id", "webhook_id", "id")
}

// eventTypeOf extracts the raw event discriminator for the history record
func eventTypeOf(payload map[string]any) string {
	return stringField(payload, "event_type", "type", "event", "action", "field")
}

// listingExternalID extracts the platform-side listing id
func listingExternalID(payload map[string]any) string {
	return stringField(payload, "listing_id", "pad_id", "posting_id", "object_id")
}

func stringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
