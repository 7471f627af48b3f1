package syndication

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// Store Port Interface
// ---------------------------------------------------------------------------

// Store is the persisted key/value document store the core writes every
// durable record through (auth configs, job/event/audit histories,
// templates, schedules, external-listing mappings). Values are JSON
// documents; writes are last-write-wins with no transaction guarantees.
// Implementations live in internal/infrastructure/store.
type Store interface {
	// Get reads the value at key into dest. It returns false when the key
	// does not exist, leaving dest untouched.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set writes value at key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Store key prefixes. Every durable record the core owns lives under the
// "syndication:" namespace.
const (
	StoreKeyAuthConfigs   = "syndication:auth_configs"
	StoreKeyJobs          = "syndication:jobs"
	StoreKeyAuditLog      = "syndication:audit_log"
	StoreKeyListings      = "syndication:external_listings"
	StoreKeyTemplates     = "syndication:templates"
	StoreKeySchedules     = "syndication:schedules"
	StoreKeyWebhookEvents = "syndication:webhook_events"
	StoreKeySubscriptions = "syndication:webhook_subscriptions"
	StoreKeyLeads         = "syndication:leads"
	StoreKeyNotifications = "syndication:notifications"
)

// ---------------------------------------------------------------------------
// IdempotencyStore Port Interface
// ---------------------------------------------------------------------------

// IdempotencyStore deduplicates webhook deliveries by platform-assigned
// event id over a retention window.
type IdempotencyStore interface {
	// MarkProcessed marks an event id as seen with a TTL. It returns true
	// when the id was newly marked, false when it was already seen.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an event id was seen within its TTL.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Forget releases a marked event id so the platform's redelivery is
	// accepted again. Callers use it when a delivery was rejected after
	// marking.
	Forget(ctx context.Context, eventID string) error
}

// ---------------------------------------------------------------------------
// Notifier Port Interface
// ---------------------------------------------------------------------------

// Notifier is the append-only user-facing notification sink.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
