package syndication

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// WebhookEvent
// ---------------------------------------------------------------------------

// WebhookResult records the processing outcome of one event.
type WebhookResult struct {
	Success bool          `json:"success"`
	Action  WebhookAction `json:"action,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// WebhookEvent is one inbound platform callback. Events are appended to a
// capped history and queued for serial processing; Processed flips exactly
// once when the drain worker finishes with the event.
type WebhookEvent struct {
	ID        uuid.UUID      `json:"id"`
	Platform  Platform       `json:"platform"`
	EventType string         `json:"event_type"`
	// RemoteEventID is the platform-assigned delivery id used for
	// at-least-once deduplication; empty when the platform sends none.
	RemoteEventID string         `json:"remote_event_id,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	Payload       map[string]any `json:"payload"`
	Processed     bool           `json:"processed"`
	Result        *WebhookResult `json:"result,omitempty"`
}

// NewWebhookEvent constructs an event for an inbound callback.
func NewWebhookEvent(platform Platform, eventType, remoteEventID string, payload map[string]any, now time.Time) *WebhookEvent {
	return &WebhookEvent{
		ID:            uuid.New(),
		Platform:      platform,
		EventType:     eventType,
		RemoteEventID: remoteEventID,
		Timestamp:     now,
		Payload:       payload,
	}
}

// MarkProcessed records the processing outcome.
func (e *WebhookEvent) MarkProcessed(result WebhookResult) {
	e.Processed = true
	e.Result = &result
}

// ---------------------------------------------------------------------------
// WebhookSubscription
// ---------------------------------------------------------------------------

// WebhookSubscription declares which event types are expected from a
// platform and the secret used to verify its signatures.
type WebhookSubscription struct {
	Platform   Platform `json:"platform"`
	EventTypes []string `json:"event_types"`
	Endpoint   string   `json:"endpoint"`
	Secret     string   `json:"secret,omitempty"`
	Active     bool     `json:"active"`
}

// DefaultSubscriptions returns the subscriptions seeded on first run: every
// platform subscribed to the six handled actions, no secret configured.
func DefaultSubscriptions(endpointBase string) []WebhookSubscription {
	eventTypes := []string{
		WebhookActionListingPublished.String(),
		WebhookActionListingUpdated.String(),
		WebhookActionListingRemoved.String(),
		WebhookActionListingExpired.String(),
		WebhookActionListingRejected.String(),
		WebhookActionLeadReceived.String(),
	}
	subs := make([]WebhookSubscription, 0, len(AllPlatforms()))
	for _, p := range AllPlatforms() {
		subs = append(subs, WebhookSubscription{
			Platform:   p,
			EventTypes: eventTypes,
			Endpoint:   endpointBase + "/" + p.String(),
			Active:     true,
		})
	}
	return subs
}

// ---------------------------------------------------------------------------
// Lead
// ---------------------------------------------------------------------------

// Lead is a renter inquiry delivered by a platform webhook.
type Lead struct {
	ID         uuid.UUID `json:"id"`
	PropertyID string    `json:"property_id"`
	Platform   Platform  `json:"platform"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Message    string    `json:"message,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// ---------------------------------------------------------------------------
// Notifications and audit
// ---------------------------------------------------------------------------

// NotificationPriority orders user-facing notifications.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is a user-facing record appended by the core; rendering
// belongs to the excluded application layer.
type Notification struct {
	Type      string               `json:"type"`
	Message   string               `json:"message"`
	Priority  NotificationPriority `json:"priority"`
	CreatedAt time.Time            `json:"created_at"`
}

// AuditEntry is one append-only audit log record for connection and
// publishing operations.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	Success   bool      `json:"success"`
}
