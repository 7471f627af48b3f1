// Package channels contains the marketplace integrations: three strategy
// bases (one per auth family) handling identity and transport, and the
// concrete per-platform adapters that extend them with payload shaping,
// validation rules and response parsing. Platforms without a real
// integration yet are served by a deterministic stub.
package channels

import (
	"fmt"
	"io"
	"net/http"

	"github.com/propman/backend/internal/domain/syndication"
)

// maxResponseSize is the maximum allowed response size from a platform (10MB)
const maxResponseSize = 10 * 1024 * 1024

// canonicalFromProperty builds canonical listing data from a raw property,
// applying a platform's truncation limits. Adapters call it from their
// TransformProperty and layer platform-specific adjustments on top.
func canonicalFromProperty(p *syndication.Property, titleMax, descMax, photoMax int) (*syndication.ListingData, error) {
	if p == nil {
		return nil, syndication.ErrListingMissingProperty
	}
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	return &syndication.ListingData{
		PropertyID:  p.ID,
		Title:       syndication.TruncateText(syndication.SanitizeText(p.Title), titleMax),
		Description: syndication.TruncateText(syndication.SanitizeText(p.Description), descMax),
		Price:       p.RentAmount,
		Deposit:     p.SecurityDeposit,
		Currency:    currency,
		Address: syndication.Address{
			Street:     p.Street,
			City:       p.City,
			State:      p.State,
			PostalCode: p.PostalCode,
		},
		Bedrooms:        p.Bedrooms,
		Bathrooms:       p.Bathrooms,
		AreaSqFt:        p.AreaSqFt,
		PropertyType:    p.PropertyType,
		Amenities:       p.Amenities,
		PhotoURLs:       syndication.TruncatePhotos(p.PhotoURLs, photoMax),
		AvailableFrom:   p.AvailableFrom,
		LeaseTermMonths: p.LeaseTermMonths,
		PetsAllowed:     p.PetsAllowed,
		ContactName:     p.ContactName,
		ContactEmail:    p.ContactEmail,
		ContactPhone:    p.ContactPhone,
	}, nil
}

// webhookEventType pulls the event discriminator out of a raw callback
// payload, trying the field names seen across platforms.
func webhookEventType(payload map[string]any, fields ...string) (string, bool) {
	for _, f := range fields {
		if v, ok := payload[f].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// readResponse drains a response body with the size cap applied and maps
// HTTP-level failures onto the domain error taxonomy.
func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", syndication.ErrPlatformInvalidResponse, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return body, fmt.Errorf("%w: HTTP %d", syndication.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 400:
		return body, fmt.Errorf("%w: HTTP %d", syndication.ErrPlatformRequestFailed, resp.StatusCode)
	}

	return body, nil
}
