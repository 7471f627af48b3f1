package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/propman/backend/internal/domain/syndication"
)

// Zumper limits applied during transform
const (
	zumperMaxTitleLength       = 80
	zumperMaxDescriptionLength = 2000
	zumperMaxPhotos            = 20
)

const defaultZumperBaseURL = "https://api.zumper.com/partner/v2"

// ZumperAdapter integrates Zumper through its single-key partner API.
type ZumperAdapter struct {
	*APIKeyBase
}

// NewZumperAdapter creates the adapter with the default base URL
func NewZumperAdapter(client *http.Client) *ZumperAdapter {
	return NewZumperAdapterWithBaseURL(defaultZumperBaseURL, client)
}

// NewZumperAdapterWithBaseURL creates the adapter against a custom base URL
func NewZumperAdapterWithBaseURL(baseURL string, client *http.Client) *ZumperAdapter {
	return &ZumperAdapter{
		APIKeyBase: NewAPIKeyBase(
			syndication.PlatformZumper,
			baseURL,
			APIKeyHeaders{KeyHeader: "X-Zumper-Key"},
			client,
		),
	}
}

// zumperPadPayload is the platform's listing ("pad") shape
type zumperPadPayload struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	MinPrice     int64    `json:"min_price"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	Beds         int      `json:"beds"`
	Baths        float64  `json:"baths"`
	SqFt         float64  `json:"sq_ft,omitempty"`
	BuildingType string   `json:"building_type,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	MediaURLs    []string `json:"media_urls,omitempty"`
	DateAvail    string   `json:"date_available,omitempty"`
	PetFriendly  bool     `json:"pet_friendly"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone string   `json:"contact_phone,omitempty"`
}

// zumperPadResponse is the platform's answer to pad calls
type zumperPadResponse struct {
	PadID   string `json:"pad_id"`
	PadURL  string `json:"pad_url"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// zumperStatsResponse is the platform's stats shape
type zumperStatsResponse struct {
	Impressions int64 `json:"impressions"`
	Messages    int64 `json:"messages"`
	Shortlists  int64 `json:"shortlists"`
}

// TransformProperty converts a raw property into canonical listing data
// with Zumper's truncation limits applied.
func (a *ZumperAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	return canonicalFromProperty(property, zumperMaxTitleLength, zumperMaxDescriptionLength, zumperMaxPhotos)
}

// ValidationRules returns Zumper's rule table
func (a *ZumperAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{
		RequiredFields:       []string{"title", "price", "address", "bedrooms", "contact_email"},
		MinPrice:             decimal.NewFromInt(100),
		MaxPhotos:            zumperMaxPhotos,
		MaxDescriptionLength: zumperMaxDescriptionLength,
	}
}

// ValidateListing checks canonical data against Zumper's rules
func (a *ZumperAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	return syndication.ValidateAgainstRules(data, a.ValidationRules())
}

// RateLimitInfo returns Zumper's request budget
func (a *ZumperAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{RequestsPerMinute: 90, MinInterval: 700 * time.Millisecond}
}

// PublishListing creates a pad on Zumper
func (a *ZumperAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPost, "/pads", a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parsePadResponse(body)
}

// UpdateListing updates an existing pad
func (a *ZumperAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPut, "/pads/"+url.PathEscape(externalID), a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parsePadResponse(body)
}

// RemoveListing takes a pad down
func (a *ZumperAdapter) RemoveListing(ctx context.Context, externalID string) error {
	_, err := a.doJSON(ctx, http.MethodDelete, "/pads/"+url.PathEscape(externalID), nil)
	return err
}

// GetListingStatus fetches the platform-side status of a pad
func (a *ZumperAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	body, err := a.doJSON(ctx, http.MethodGet, "/pads/"+url.PathEscape(externalID), nil)
	if err != nil {
		return "", err
	}
	var resp zumperPadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: parse status response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	return mapZumperStatus(resp.Status), nil
}

// GetAnalytics fetches pad stats for a time range
func (a *ZumperAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	path := fmt.Sprintf("/stats?from=%d&to=%d", rng.From.Unix(), rng.To.Unix())
	body, err := a.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp zumperStatsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse stats response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	return &syndication.AnalyticsReport{
		Platform:  a.Platform(),
		Views:     resp.Impressions,
		Inquiries: resp.Messages,
		Saves:     resp.Shortlists,
		From:      rng.From,
		To:        rng.To,
	}, nil
}

// ClassifyWebhook maps a Zumper callback to a named action
func (a *ZumperAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	eventType, ok := webhookEventType(payload, "type", "event")
	if !ok {
		return "", syndication.ErrWebhookUnknownEvent
	}
	switch eventType {
	case "pad.activated":
		return syndication.WebhookActionListingPublished, nil
	case "pad.updated":
		return syndication.WebhookActionListingUpdated, nil
	case "pad.deactivated":
		return syndication.WebhookActionListingRemoved, nil
	case "pad.expired":
		return syndication.WebhookActionListingExpired, nil
	case "pad.rejected":
		return syndication.WebhookActionListingRejected, nil
	case "message.received":
		return syndication.WebhookActionLeadReceived, nil
	default:
		return "", fmt.Errorf("%w: %s", syndication.ErrWebhookUnknownEvent, eventType)
	}
}

func (a *ZumperAdapter) toPayload(data *syndication.ListingData) *zumperPadPayload {
	p := &zumperPadPayload{
		Title:        data.Title,
		Description:  data.Description,
		MinPrice:     data.Price.Round(0).IntPart(),
		Address:      data.Address.Street,
		City:         data.Address.City,
		State:        data.Address.State,
		Zip:          data.Address.PostalCode,
		Beds:         data.Bedrooms,
		Baths:        data.Bathrooms,
		SqFt:         data.AreaSqFt,
		BuildingType: data.PropertyType,
		Amenities:    data.Amenities,
		MediaURLs:    data.PhotoURLs,
		PetFriendly:  data.PetsAllowed,
		ContactEmail: data.ContactEmail,
		ContactPhone: data.ContactPhone,
	}
	if !data.AvailableFrom.IsZero() {
		p.DateAvail = data.AvailableFrom.Format("2006-01-02")
	}
	return p
}

func (a *ZumperAdapter) parsePadResponse(body []byte) (*syndication.PublishResponse, error) {
	var resp zumperPadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse pad response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	if resp.PadID == "" {
		return nil, fmt.Errorf("%w: missing pad id", syndication.ErrPlatformInvalidResponse)
	}
	return &syndication.PublishResponse{
		ExternalID: resp.PadID,
		ListingURL: resp.PadURL,
		Status:     mapZumperStatus(resp.Status),
		Message:    resp.Message,
	}, nil
}

// mapZumperStatus maps the platform's status strings to listing statuses
func mapZumperStatus(status string) syndication.ListingStatus {
	switch status {
	case "active":
		return syndication.ListingStatusPublished
	case "pending":
		return syndication.ListingStatusPending
	case "expired":
		return syndication.ListingStatusExpired
	case "rejected":
		return syndication.ListingStatusRejected
	case "deactivated":
		return syndication.ListingStatusRemoved
	default:
		return syndication.ListingStatusPending
	}
}

var _ syndication.ChannelAdapter = (*ZumperAdapter)(nil)
