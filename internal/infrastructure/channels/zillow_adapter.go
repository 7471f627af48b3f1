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

// Zillow limits applied during transform
const (
	zillowMaxTitleLength       = 100
	zillowMaxDescriptionLength = 5000
	zillowMaxPhotos            = 50
)

// Default Zillow endpoints; overridable for tests
var defaultZillowEndpoints = OAuthEndpoints{
	AuthorizeURL: "https://api.zillow.com/oauth/authorize",
	TokenURL:     "https://api.zillow.com/oauth/token",
	APIBaseURL:   "https://api.zillow.com/v2",
}

// ZillowAdapter integrates the Zillow rental network through its delegated
// authorization API.
type ZillowAdapter struct {
	*OAuthBase
}

// NewZillowAdapter creates the adapter with default endpoints
func NewZillowAdapter(client *http.Client) *ZillowAdapter {
	return NewZillowAdapterWithEndpoints(defaultZillowEndpoints, client)
}

// NewZillowAdapterWithEndpoints creates the adapter against custom endpoints
func NewZillowAdapterWithEndpoints(endpoints OAuthEndpoints, client *http.Client) *ZillowAdapter {
	return &ZillowAdapter{
		OAuthBase: NewOAuthBase(
			syndication.PlatformZillow,
			endpoints,
			[]string{"listings:write", "analytics:read"},
			client,
		),
	}
}

// zillowListingPayload is the platform's listing shape
type zillowListingPayload struct {
	Headline     string   `json:"headline"`
	Body         string   `json:"body"`
	MonthlyRent  string   `json:"monthly_rent"`
	Deposit      string   `json:"deposit,omitempty"`
	Currency     string   `json:"currency"`
	StreetLine   string   `json:"street_line"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	Beds         int      `json:"beds"`
	Baths        float64  `json:"baths"`
	SquareFeet   float64  `json:"square_feet,omitempty"`
	HomeType     string   `json:"home_type,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	PhotoURLs    []string `json:"photo_urls,omitempty"`
	AvailableOn  string   `json:"available_on,omitempty"`
	LeaseMonths  int      `json:"lease_months,omitempty"`
	PetsAllowed  bool     `json:"pets_allowed"`
	ContactName  string   `json:"contact_name,omitempty"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone string   `json:"contact_phone,omitempty"`
}

// zillowListingResponse is the platform's answer to listing calls
type zillowListingResponse struct {
	ListingID string `json:"listing_id"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// zillowAnalyticsResponse is the platform's analytics shape
type zillowAnalyticsResponse struct {
	Views     int64 `json:"views"`
	Inquiries int64 `json:"inquiries"`
	Saves     int64 `json:"saves"`
}

// TransformProperty converts a raw property into canonical listing data
// with Zillow's truncation limits applied.
func (a *ZillowAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	return canonicalFromProperty(property, zillowMaxTitleLength, zillowMaxDescriptionLength, zillowMaxPhotos)
}

// ValidationRules returns Zillow's rule table
func (a *ZillowAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{
		RequiredFields:       []string{"title", "description", "price", "address", "photos", "contact_email"},
		MinPrice:             decimal.NewFromInt(100),
		MaxPrice:             decimal.NewFromInt(50000),
		MaxPhotos:            zillowMaxPhotos,
		MaxDescriptionLength: zillowMaxDescriptionLength,
	}
}

// ValidateListing checks canonical data against Zillow's rules
func (a *ZillowAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	return syndication.ValidateAgainstRules(data, a.ValidationRules())
}

// RateLimitInfo returns Zillow's request budget
func (a *ZillowAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{RequestsPerMinute: 60, MinInterval: time.Second}
}

// PublishListing creates a listing on Zillow
func (a *ZillowAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPost, "/listings", a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parseListingResponse(body)
}

// UpdateListing updates an existing Zillow listing
func (a *ZillowAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPut, "/listings/"+url.PathEscape(externalID), a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parseListingResponse(body)
}

// RemoveListing takes a Zillow listing down
func (a *ZillowAdapter) RemoveListing(ctx context.Context, externalID string) error {
	_, err := a.doJSON(ctx, http.MethodDelete, "/listings/"+url.PathEscape(externalID), nil)
	return err
}

// GetListingStatus fetches the platform-side status of a listing
func (a *ZillowAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	body, err := a.doJSON(ctx, http.MethodGet, "/listings/"+url.PathEscape(externalID), nil)
	if err != nil {
		return "", err
	}
	var resp zillowListingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: parse status response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	return mapZillowStatus(resp.Status), nil
}

// GetAnalytics fetches aggregate listing performance
func (a *ZillowAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	path := fmt.Sprintf("/analytics?start=%s&end=%s",
		url.QueryEscape(rng.From.Format(time.RFC3339)),
		url.QueryEscape(rng.To.Format(time.RFC3339)))
	body, err := a.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp zillowAnalyticsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse analytics response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	return &syndication.AnalyticsReport{
		Platform:  a.Platform(),
		Views:     resp.Views,
		Inquiries: resp.Inquiries,
		Saves:     resp.Saves,
		From:      rng.From,
		To:        rng.To,
	}, nil
}

// ClassifyWebhook maps a Zillow callback to a named action
func (a *ZillowAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	eventType, ok := webhookEventType(payload, "event_type", "event")
	if !ok {
		return "", syndication.ErrWebhookUnknownEvent
	}
	switch eventType {
	case "listing.activated":
		return syndication.WebhookActionListingPublished, nil
	case "listing.updated":
		return syndication.WebhookActionListingUpdated, nil
	case "listing.deleted":
		return syndication.WebhookActionListingRemoved, nil
	case "listing.expired":
		return syndication.WebhookActionListingExpired, nil
	case "listing.declined":
		return syndication.WebhookActionListingRejected, nil
	case "lead.created":
		return syndication.WebhookActionLeadReceived, nil
	default:
		return "", fmt.Errorf("%w: %s", syndication.ErrWebhookUnknownEvent, eventType)
	}
}

func (a *ZillowAdapter) toPayload(data *syndication.ListingData) *zillowListingPayload {
	p := &zillowListingPayload{
		Headline:     data.Title,
		Body:         data.Description,
		MonthlyRent:  data.Price.StringFixed(2),
		Currency:     data.Currency,
		StreetLine:   data.Address.Street,
		City:         data.Address.City,
		State:        data.Address.State,
		Zip:          data.Address.PostalCode,
		Beds:         data.Bedrooms,
		Baths:        data.Bathrooms,
		SquareFeet:   data.AreaSqFt,
		HomeType:     data.PropertyType,
		Amenities:    data.Amenities,
		PhotoURLs:    data.PhotoURLs,
		LeaseMonths:  data.LeaseTermMonths,
		PetsAllowed:  data.PetsAllowed,
		ContactName:  data.ContactName,
		ContactEmail: data.ContactEmail,
		ContactPhone: data.ContactPhone,
	}
	if syndication.IsPositive(data.Deposit) {
		p.Deposit = data.Deposit.StringFixed(2)
	}
	if !data.AvailableFrom.IsZero() {
		p.AvailableOn = data.AvailableFrom.Format("2006-01-02")
	}
	return p
}

func (a *ZillowAdapter) parseListingResponse(body []byte) (*syndication.PublishResponse, error) {
	var resp zillowListingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse listing response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	if resp.ListingID == "" {
		return nil, fmt.Errorf("%w: missing listing id", syndication.ErrPlatformInvalidResponse)
	}
	return &syndication.PublishResponse{
		ExternalID: resp.ListingID,
		ListingURL: resp.URL,
		Status:     mapZillowStatus(resp.Status),
		Message:    resp.Message,
	}, nil
}

// mapZillowStatus maps the platform's status strings to listing statuses
func mapZillowStatus(status string) syndication.ListingStatus {
	switch status {
	case "active":
		return syndication.ListingStatusPublished
	case "pending_review":
		return syndication.ListingStatusPending
	case "expired":
		return syndication.ListingStatusExpired
	case "declined":
		return syndication.ListingStatusRejected
	case "deleted":
		return syndication.ListingStatusRemoved
	default:
		return syndication.ListingStatusPending
	}
}

var _ syndication.ChannelAdapter = (*ZillowAdapter)(nil)
var _ syndication.CodeExchanger = (*ZillowAdapter)(nil)
var _ syndication.CredentialReporter = (*ZillowAdapter)(nil)
