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

// Apartments.com limits applied during transform
const (
	apartmentsMaxTitleLength       = 120
	apartmentsMaxDescriptionLength = 3000
	apartmentsMaxPhotos            = 25
)

const defaultApartmentsBaseURL = "https://api.apartments.com/v1"

// ApartmentsAdapter integrates Apartments.com through its key-authenticated
// listing API.
type ApartmentsAdapter struct {
	*APIKeyBase
}

// NewApartmentsAdapter creates the adapter with the default base URL
func NewApartmentsAdapter(client *http.Client) *ApartmentsAdapter {
	return NewApartmentsAdapterWithBaseURL(defaultApartmentsBaseURL, client)
}

// NewApartmentsAdapterWithBaseURL creates the adapter against a custom base URL
func NewApartmentsAdapterWithBaseURL(baseURL string, client *http.Client) *ApartmentsAdapter {
	return &ApartmentsAdapter{
		APIKeyBase: NewAPIKeyBase(
			syndication.PlatformApartmentsCom,
			baseURL,
			APIKeyHeaders{KeyHeader: "X-Api-Key", SecretHeader: "X-Api-Secret"},
			client,
		),
	}
}

// apartmentsListingPayload is the platform's listing shape
type apartmentsListingPayload struct {
	ListingTitle    string   `json:"listingTitle"`
	ListingText     string   `json:"listingText"`
	Rent            string   `json:"rent"`
	Deposit         string   `json:"deposit,omitempty"`
	AddressLine1    string   `json:"addressLine1"`
	City            string   `json:"city"`
	StateCode       string   `json:"stateCode"`
	ZipCode         string   `json:"zipCode"`
	BedroomCount    int      `json:"bedroomCount"`
	BathroomCount   float64  `json:"bathroomCount"`
	SquareFootage   float64  `json:"squareFootage,omitempty"`
	UnitType        string   `json:"unitType,omitempty"`
	AmenityList     []string `json:"amenityList,omitempty"`
	Photos          []string `json:"photos,omitempty"`
	DateAvailable   string   `json:"dateAvailable,omitempty"`
	LeaseTermMonths int      `json:"leaseTermMonths,omitempty"`
	PetsAllowed     bool     `json:"petsAllowed"`
	ContactEmail    string   `json:"contactEmail"`
	ContactPhone    string   `json:"contactPhone,omitempty"`
}

// apartmentsListingResponse is the platform's answer to listing calls
type apartmentsListingResponse struct {
	ListingKey string `json:"listingKey"`
	ListingURL string `json:"listingUrl"`
	State      string `json:"state"`
	Detail     string `json:"detail"`
}

// apartmentsMetricsResponse is the platform's metrics shape
type apartmentsMetricsResponse struct {
	PageViews int64 `json:"pageViews"`
	Leads     int64 `json:"leads"`
	Favorites int64 `json:"favorites"`
}

// TransformProperty converts a raw property into canonical listing data
// with Apartments.com's truncation limits applied.
func (a *ApartmentsAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	return canonicalFromProperty(property, apartmentsMaxTitleLength, apartmentsMaxDescriptionLength, apartmentsMaxPhotos)
}

// ValidationRules returns Apartments.com's rule table
func (a *ApartmentsAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{
		RequiredFields:       []string{"title", "description", "price", "address", "bedrooms", "contact_email"},
		MinPrice:             decimal.NewFromInt(200),
		MaxPrice:             decimal.NewFromInt(25000),
		MaxPhotos:            apartmentsMaxPhotos,
		MaxDescriptionLength: apartmentsMaxDescriptionLength,
	}
}

// ValidateListing checks canonical data against Apartments.com's rules
func (a *ApartmentsAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	return syndication.ValidateAgainstRules(data, a.ValidationRules())
}

// RateLimitInfo returns Apartments.com's request budget
func (a *ApartmentsAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{RequestsPerMinute: 120, MinInterval: 500 * time.Millisecond}
}

// PublishListing creates a listing on Apartments.com
func (a *ApartmentsAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPost, "/listings", a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parseListingResponse(body)
}

// UpdateListing updates an existing Apartments.com listing
func (a *ApartmentsAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPut, "/listings/"+url.PathEscape(externalID), a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parseListingResponse(body)
}

// RemoveListing takes an Apartments.com listing down
func (a *ApartmentsAdapter) RemoveListing(ctx context.Context, externalID string) error {
	_, err := a.doJSON(ctx, http.MethodDelete, "/listings/"+url.PathEscape(externalID), nil)
	return err
}

// GetListingStatus fetches the platform-side status of a listing
func (a *ApartmentsAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	body, err := a.doJSON(ctx, http.MethodGet, "/listings/"+url.PathEscape(externalID), nil)
	if err != nil {
		return "", err
	}
	var resp apartmentsListingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: parse status response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	return mapApartmentsState(resp.State), nil
}

// GetAnalytics fetches aggregate listing metrics
func (a *ApartmentsAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	path := fmt.Sprintf("/metrics?from=%s&to=%s",
		url.QueryEscape(rng.From.Format("2006-01-02")),
		url.QueryEscape(rng.To.Format("2006-01-02")))
	body, err := a.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp apartmentsMetricsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse metrics response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	return &syndication.AnalyticsReport{
		Platform:  a.Platform(),
		Views:     resp.PageViews,
		Inquiries: resp.Leads,
		Saves:     resp.Favorites,
		From:      rng.From,
		To:        rng.To,
	}, nil
}

// ClassifyWebhook maps an Apartments.com callback to a named action
func (a *ApartmentsAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	eventType, ok := webhookEventType(payload, "event", "eventType")
	if !ok {
		return "", syndication.ErrWebhookUnknownEvent
	}
	switch eventType {
	case "listing_live":
		return syndication.WebhookActionListingPublished, nil
	case "listing_changed":
		return syndication.WebhookActionListingUpdated, nil
	case "listing_removed":
		return syndication.WebhookActionListingRemoved, nil
	case "listing_expired":
		return syndication.WebhookActionListingExpired, nil
	case "listing_declined":
		return syndication.WebhookActionListingRejected, nil
	case "lead_submitted":
		return syndication.WebhookActionLeadReceived, nil
	default:
		return "", fmt.Errorf("%w: %s", syndication.ErrWebhookUnknownEvent, eventType)
	}
}

func (a *ApartmentsAdapter) toPayload(data *syndication.ListingData) *apartmentsListingPayload {
	p := &apartmentsListingPayload{
		ListingTitle:    data.Title,
		ListingText:     data.Description,
		Rent:            data.Price.StringFixed(2),
		AddressLine1:    data.Address.Street,
		City:            data.Address.City,
		StateCode:       data.Address.State,
		ZipCode:         data.Address.PostalCode,
		BedroomCount:    data.Bedrooms,
		BathroomCount:   data.Bathrooms,
		SquareFootage:   data.AreaSqFt,
		UnitType:        data.PropertyType,
		AmenityList:     data.Amenities,
		Photos:          data.PhotoURLs,
		LeaseTermMonths: data.LeaseTermMonths,
		PetsAllowed:     data.PetsAllowed,
		ContactEmail:    data.ContactEmail,
		ContactPhone:    data.ContactPhone,
	}
	if syndication.IsPositive(data.Deposit) {
		p.Deposit = data.Deposit.StringFixed(2)
	}
	if !data.AvailableFrom.IsZero() {
		p.DateAvailable = data.AvailableFrom.Format("2006-01-02")
	}
	return p
}

func (a *ApartmentsAdapter) parseListingResponse(body []byte) (*syndication.PublishResponse, error) {
	var resp apartmentsListingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse listing response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	if resp.ListingKey == "" {
		return nil, fmt.Errorf("%w: missing listing key", syndication.ErrPlatformInvalidResponse)
	}
	return &syndication.PublishResponse{
		ExternalID: resp.ListingKey,
		ListingURL: resp.ListingURL,
		Status:     mapApartmentsState(resp.State),
		Message:    resp.Detail,
	}, nil
}

// mapApartmentsState maps the platform's listing states to listing statuses
func mapApartmentsState(state string) syndication.ListingStatus {
	switch state {
	case "Active":
		return syndication.ListingStatusPublished
	case "PendingApproval":
		return syndication.ListingStatusPending
	case "Expired":
		return syndication.ListingStatusExpired
	case "Declined":
		return syndication.ListingStatusRejected
	case "Removed":
		return syndication.ListingStatusRemoved
	default:
		return syndication.ListingStatusPending
	}
}

var _ syndication.ChannelAdapter = (*ApartmentsAdapter)(nil)
var _ syndication.CredentialReporter = (*ApartmentsAdapter)(nil)
