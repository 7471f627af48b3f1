package channels

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/propman/backend/internal/domain/syndication"
)

// Craigslist limits applied during transform
const (
	craigslistMaxTitleLength       = 70
	craigslistMaxDescriptionLength = 4000
	craigslistMaxPhotos            = 24
)

const (
	defaultCraigslistBaseURL  = "https://post.craigslist.org"
	defaultCraigslistLoginURL = "https://accounts.craigslist.org/login"
)

var craigslistPostingIDPattern = regexp.MustCompile(`posting id:\s*(\d+)`)

// CraigslistAdapter integrates Craigslist by emulating its posting forms.
// There is no structured API: publishing posts an HTML form and the posting
// id is scraped from the confirmation page.
type CraigslistAdapter struct {
	*SessionBase
}

// NewCraigslistAdapter creates the adapter with default URLs
func NewCraigslistAdapter(client *http.Client) *CraigslistAdapter {
	return NewCraigslistAdapterWithURLs(defaultCraigslistBaseURL, defaultCraigslistLoginURL, client)
}

// NewCraigslistAdapterWithURLs creates the adapter against custom URLs
func NewCraigslistAdapterWithURLs(baseURL, loginURL string, client *http.Client) *CraigslistAdapter {
	return &CraigslistAdapter{
		SessionBase: NewSessionBase(
			syndication.PlatformCraigslist,
			baseURL,
			loginURL,
			"csrf_token",
			DefaultLoginClassifier,
			client,
		),
	}
}

// TransformProperty converts a raw property into canonical listing data
// with Craigslist's truncation limits applied. Craigslist titles carry the
// rent and bedroom count up front, following the site's listing convention.
func (a *CraigslistAdapter) TransformProperty(property *syndication.Property) (*syndication.ListingData, error) {
	data, err := canonicalFromProperty(property, craigslistMaxTitleLength, craigslistMaxDescriptionLength, craigslistMaxPhotos)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("$%s / %dbr - ", data.Price.Round(0), data.Bedrooms)
	data.Title = syndication.TruncateText(prefix+data.Title, craigslistMaxTitleLength)
	return data, nil
}

// ValidationRules returns Craigslist's rule table
func (a *CraigslistAdapter) ValidationRules() syndication.ValidationRules {
	return syndication.ValidationRules{
		RequiredFields:       []string{"title", "description", "price", "address", "contact_email"},
		MinPrice:             decimal.NewFromInt(1),
		MaxPhotos:            craigslistMaxPhotos,
		MaxDescriptionLength: craigslistMaxDescriptionLength,
	}
}

// ValidateListing checks canonical data against Craigslist's rules
func (a *CraigslistAdapter) ValidateListing(data *syndication.ListingData) *syndication.ValidationResult {
	return syndication.ValidateAgainstRules(data, a.ValidationRules())
}

// RateLimitInfo returns a conservative budget; the site throttles
// aggressive posters without documenting limits.
func (a *CraigslistAdapter) RateLimitInfo() syndication.RateLimitInfo {
	return syndication.RateLimitInfo{RequestsPerMinute: 10, MinInterval: 6 * time.Second}
}

// PublishListing submits the posting form and scrapes the posting id from
// the confirmation page.
func (a *CraigslistAdapter) PublishListing(ctx context.Context, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	status, page, err := a.doForm(ctx, "/post", a.toForm(data))
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", syndication.ErrPlatformRequestFailed, status)
	}

	postingID := a.scrapePostingID(page)
	if postingID == "" {
		return nil, fmt.Errorf("%w: confirmation page has no posting id", syndication.ErrPlatformInvalidResponse)
	}
	return &syndication.PublishResponse{
		ExternalID: postingID,
		ListingURL: a.baseURL + "/posting/" + postingID,
		Status:     syndication.ListingStatusPublished,
		Message:    "posting submitted",
	}, nil
}

// UpdateListing re-submits the posting form for an existing posting
func (a *CraigslistAdapter) UpdateListing(ctx context.Context, externalID string, data *syndication.ListingData) (*syndication.PublishResponse, error) {
	form := a.toForm(data)
	form.Set("posting_id", externalID)
	status, page, err := a.doForm(ctx, "/manage/"+url.PathEscape(externalID)+"/edit", form)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", syndication.ErrPlatformRequestFailed, status)
	}
	if strings.Contains(strings.ToLower(page), "not found") {
		return nil, syndication.ErrListingNotFound
	}
	return &syndication.PublishResponse{
		ExternalID: externalID,
		ListingURL: a.baseURL + "/posting/" + externalID,
		Status:     syndication.ListingStatusPublished,
		Message:    "posting updated",
	}, nil
}

// RemoveListing deletes the posting through its manage form
func (a *CraigslistAdapter) RemoveListing(ctx context.Context, externalID string) error {
	form := url.Values{"posting_id": {externalID}, "action": {"delete"}}
	status, page, err := a.doForm(ctx, "/manage/"+url.PathEscape(externalID)+"/delete", form)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("%w: HTTP %d", syndication.ErrPlatformRequestFailed, status)
	}
	if strings.Contains(strings.ToLower(page), "not found") {
		return syndication.ErrListingNotFound
	}
	return nil
}

// GetListingStatus scrapes the posting's manage page for its state
func (a *CraigslistAdapter) GetListingStatus(ctx context.Context, externalID string) (syndication.ListingStatus, error) {
	_, page, err := a.doGet(ctx, "/manage/"+url.PathEscape(externalID))
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(page)
	switch {
	case strings.Contains(lower, "deleted"):
		return syndication.ListingStatusRemoved, nil
	case strings.Contains(lower, "expired"):
		return syndication.ListingStatusExpired, nil
	case strings.Contains(lower, "flagged"):
		return syndication.ListingStatusRejected, nil
	case strings.Contains(lower, "active"):
		return syndication.ListingStatusPublished, nil
	default:
		return syndication.ListingStatusPending, nil
	}
}

// GetAnalytics returns an empty report; the site exposes no listing counters
func (a *CraigslistAdapter) GetAnalytics(ctx context.Context, rng syndication.AnalyticsRange) (*syndication.AnalyticsReport, error) {
	return &syndication.AnalyticsReport{Platform: a.Platform(), From: rng.From, To: rng.To}, nil
}

// ClassifyWebhook maps a relay callback to a named action. Craigslist has no
// native webhooks; events arrive through an email-to-webhook relay that
// normalizes them to an action field.
func (a *CraigslistAdapter) ClassifyWebhook(payload map[string]any) (syndication.WebhookAction, error) {
	action, ok := webhookEventType(payload, "action")
	if !ok {
		return "", syndication.ErrWebhookUnknownEvent
	}
	switch action {
	case "post_live":
		return syndication.WebhookActionListingPublished, nil
	case "post_edited":
		return syndication.WebhookActionListingUpdated, nil
	case "post_deleted":
		return syndication.WebhookActionListingRemoved, nil
	case "post_expired":
		return syndication.WebhookActionListingExpired, nil
	case "post_flagged":
		return syndication.WebhookActionListingRejected, nil
	case "reply_received":
		return syndication.WebhookActionLeadReceived, nil
	default:
		return "", fmt.Errorf("%w: %s", syndication.ErrWebhookUnknownEvent, action)
	}
}

func (a *CraigslistAdapter) toForm(data *syndication.ListingData) url.Values {
	form := url.Values{
		"PostingTitle": {data.Title},
		"PostingBody":  {data.Description},
		"price":        {data.Price.Round(0).String()},
		"xstreet0":     {data.Address.Street},
		"city":         {data.Address.City},
		"region":       {data.Address.State},
		"postal":       {data.Address.PostalCode},
		"bedrooms":     {strconv.Itoa(data.Bedrooms)},
		"bathrooms":    {strconv.FormatFloat(data.Bathrooms, 'f', -1, 64)},
		"FromEMail":    {data.ContactEmail},
	}
	if data.AreaSqFt > 0 {
		form.Set("sqft", strconv.FormatFloat(data.AreaSqFt, 'f', 0, 64))
	}
	if data.PetsAllowed {
		form.Set("pets_ok", "1")
	}
	for i, photo := range data.PhotoURLs {
		form.Set(fmt.Sprintf("image_%d", i), photo)
	}
	return form
}

func (a *CraigslistAdapter) scrapePostingID(page string) string {
	if m := craigslistPostingIDPattern.FindStringSubmatch(strings.ToLower(page)); m != nil {
		return m[1]
	}
	return ""
}

var _ syndication.ChannelAdapter = (*CraigslistAdapter)(nil)
var _ syndication.CredentialReporter = (*CraigslistAdapter)(nil)
