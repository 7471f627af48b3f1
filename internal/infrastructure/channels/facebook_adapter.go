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

// Facebook Marketplace limits applied during transform
const (
	facebookMaxTitleLength       = 99
	facebookMaxDescriptionLength = 9000
	facebookMaxPhotos            = 20
)

var defaultFacebookEndpoints = OAuthEndpoints{
	AuthorizeURL: "https://www.facebook.com/v19.0/dialog/oauth",
	TokenURL:     "https://graph.facebook.com/v19.0/oauth/access_token",
	APIBaseURL:   "https://graph.facebook.com/v19.0",
}

// FacebookAdapter integrates Facebook Marketplace through the Graph API.
type FacebookAdapter struct {
	*OAuthBase
}

// NewFacebookAdapter creates the adapter with default endpoints
func NewFacebookAdapter(client *http.Client) *FacebookAdapter {
	return NewFacebookAdapterWithEndpoints(defaultFacebookEndpoints, client)
}

// NewFacebookAdapterWithEndpoints creates the adapter against custom endpoints
func NewFacebookAdapterWithEndpoints(endpoints OAuthEndpoints, client *http.Client) *FacebookAdapter {
	return &FacebookAdapter{
		OAuthBase: NewOAuthBase(
			syndication.PlatformFacebookMarketplace,
			endpoints,
			[]string{"marketplace_manage_listings"},
			client,
		),
	}
}

// facebookListingPayload is the Graph API listing shape. Prices are integer
// cents per Graph conventions.
type facebookListingPayload struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	PriceAmountCents  int64    `json:"price_amount"`
	Currency          string   `json:"currency"`
	Category          string   `json:"category"`
	Address           string   `json:"address"`
	City              string   `json:"city"`
	Region            string   `json:"region"`
	PostalCode        string   `json:"postal_code"`
	Bedrooms          int      `json:"bedrooms"`
	Bathrooms         float64  `json:"bathrooms"`
	AreaSize          float64  `json:"area_size,omitempty"`
	AreaUnit          string   `json:"area_unit,omitempty"`
	ImageURLs         []string `json:"image_urls,omitempty"`
	AvailabilityDate  string   `json:"availability_date,omitempty"`
	PetPolicy         string   `json:"pet_policy,omitempty"`
	ContactEmail      string   `json:"contact_email"`
	ContactPhone      string   `json:"contact_phone,omitempty"`
	MinimumLeaseTerms int      `json:"minimum_lease_terms,omitempty"`
}

// facebookListingResponse is the Graph API answer to listing calls
type facebookListingResponse struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink_url"`
	Status    string `json:"listing_status"`
}

// facebookInsightsResponse is the Graph API insights shape
type facebookInsightsResponse struct {
	Data []struct {
		Name  string `json:"name"`
		Value int64  `json:"value"`
	} `json:"data"`
}

// TransformProperty converts a raw property into canonical listing data
// with Marketplace's truncation limits applied.
func (a *FacebookAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	return canonicalFromProperty(property, facebookMaxTitleLength, facebookMaxDescriptionLength, facebookMaxPhotos)
}

// ValidationRules returns Marketplace's rule table. Listings without photos
// are declined at review, so photos are required up front.
func (a *FacebookAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{
		RequiredFields:       []string{"title", "description", "price", "address", "photos"},
		MinPrice:             decimal.NewFromInt(50),
		MaxPhotos:            facebookMaxPhotos,
		MaxDescriptionLength: facebookMaxDescriptionLength,
	}
}

// ValidateListing checks canonical data against Marketplace's rules
func (a *FacebookAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	return syndication.ValidateAgainstRules(data, a.ValidationRules())
}

// RateLimitInfo returns the Graph API request budget
func (a *FacebookAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{RequestsPerMinute: 200, MinInterval: 300 * time.Millisecond}
}

// PublishListing creates a Marketplace listing
func (a *FacebookAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPost, "/me/marketplace_listings", a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parseListingResponse(body)
}

// UpdateListing updates an existing Marketplace listing
func (a *FacebookAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	body, err := a.doJSON(ctx, http.MethodPost, "/"+url.PathEscape(externalID), a.toPayload(data))
	if err != nil {
		return nil, err
	}
	return a.parseListingResponse(body)
}

// RemoveListing deletes a Marketplace listing
func (a *FacebookAdapter) RemoveListing(ctx context.Context, externalID string) error {
	_, err := a.doJSON(ctx, http.MethodDelete, "/"+url.PathEscape(externalID), nil)
	return err
}

// GetListingStatus fetches the platform-side status of a listing
func (a *FacebookAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	body, err := a.doJSON(ctx, http.MethodGet, "/"+url.PathEscape(externalID)+"?fields=listing_status", nil)
	if err != nil {
		return "", err
	}
	var resp facebookListingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: parse status response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	return mapFacebookStatus(resp.Status), nil
}

// GetAnalytics fetches listing insights for a time range
func (a *FacebookAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	path := fmt.Sprintf("/me/marketplace_listings/insights?since=%d&until=%d", rng.From.Unix(), rng.To.Unix())
	body, err := a.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp facebookInsightsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse insights response: %v", syndication.ErrPlatformInvalidResponse, err)
	}

	report := &syndication.AnalyticsReport{Platform: a.Platform(), From: rng.From, To: rng.To}
	for _, metric := range resp.Data {
		switch metric.Name {
		case "listing_views":
			report.Views = metric.Value
		case "listing_messages":
			report.Inquiries = metric.Value
		case "listing_saves":
			report.Saves = metric.Value
		}
	}
	return report, nil
}

// ClassifyWebhook maps a Graph webhook change to a named action. Graph
// callbacks carry a field/verb pair rather than a single event type.
func (a *FacebookAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	field, _ := webhookEventType(payload, "field")
	if field == "marketplace_leads" {
		return syndication.WebhookActionLeadReceived, nil
	}

	verb, ok := webhookEventType(payload, "verb")
	if !ok {
		return "", syndication.ErrWebhookUnknownEvent
	}
	switch verb {
	case "add":
		return syndication.WebhookActionListingPublished, nil
	case "edit":
		return syndication.WebhookActionListingUpdated, nil
	case "remove":
		return syndication.WebhookActionListingRemoved, nil
	case "expire":
		return syndication.WebhookActionListingExpired, nil
	case "reject":
		return syndication.WebhookActionListingRejected, nil
	default:
		return "", fmt.Errorf("%w: %s", syndication.ErrWebhookUnknownEvent, verb)
	}
}

func (a *FacebookAdapter) toPayload(data *syndication.ListingData) *facebookListingPayload {
	p := &facebookListingPayload{
		Name:              data.Title,
		Description:       data.Description,
		PriceAmountCents:  data.Price.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:          data.Currency,
		Category:          "PROPERTY_RENTAL",
		Address:           data.Address.Street,
		City:              data.Address.City,
		Region:            data.Address.State,
		PostalCode:        data.Address.PostalCode,
		Bedrooms:          data.Bedrooms,
		Bathrooms:         data.Bathrooms,
		ImageURLs:         data.PhotoURLs,
		ContactEmail:      data.ContactEmail,
		ContactPhone:      data.ContactPhone,
		MinimumLeaseTerms: data.LeaseTermMonths,
	}
	if data.AreaSqFt > 0 {
		p.AreaSize = data.AreaSqFt
		p.AreaUnit = "sqft"
	}
	if !data.AvailableFrom.IsZero() {
		p.AvailabilityDate = data.AvailableFrom.Format("2006-01-02")
	}
	if data.PetsAllowed {
		p.PetPolicy = "pets_allowed"
	} else {
		p.PetPolicy = "no_pets"
	}
	return p
}

func (a *FacebookAdapter) parseListingResponse(body []byte) (*syndication.PublishResponse, error) {
	var resp facebookListingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse listing response: %v", syndication.ErrPlatformInvalidResponse, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: missing listing id", syndication.ErrPlatformInvalidResponse)
	}
	status := mapFacebookStatus(resp.Status)
	return &syndication.PublishResponse{
		ExternalID: resp.ID,
		ListingURL: resp.Permalink,
		Status:     status,
	}, nil
}

// mapFacebookStatus maps Graph listing statuses to listing statuses
func mapFacebookStatus(status string) syndication.ListingStatus {
	switch status {
	case "live", "published":
		return syndication.ListingStatusPublished
	case "in_review", "draft":
		return syndication.ListingStatusPending
	case "expired":
		return syndication.ListingStatusExpired
	case "rejected":
		return syndication.ListingStatusRejected
	case "deleted", "archived":
		return syndication.ListingStatusRemoved
	default:
		return syndication.ListingStatusPending
	}
}

var _ syndication.ChannelAdapter = (*FacebookAdapter)(nil)
var _ syndication.CodeExchanger = (*FacebookAdapter)(nil)
