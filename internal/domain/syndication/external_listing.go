package syndication

import "time"

// ExternalListing is the durable mapping between an internal property and
// its identity on one platform. Update and remove operations address the
// remote resource through this record; webhook events drive its status
// transitions.
//
// Invariant: at most one live ExternalListing per (property, platform)
// pair. A new successful publish replaces it, a successful removal deletes
// it.
type ExternalListing struct {
	PropertyID  string        `json:"property_id"`
	Platform    Platform      `json:"platform"`
	ExternalID  string        `json:"external_id"`
	ListingURL  string        `json:"listing_url,omitempty"`
	PublishedAt time.Time     `json:"published_at"`
	Status      ListingStatus `json:"status"`
}

// Key returns the store key fragment identifying this mapping.
func (l *ExternalListing) Key() string {
	return ExternalListingKey(l.PropertyID, l.Platform)
}

// ExternalListingKey builds the (property, platform) mapping key.
func ExternalListingKey(propertyID string, platform Platform) string {
	return propertyID + ":" + platform.String()
}
