package syndication

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Property (caller-supplied input)
// ---------------------------------------------------------------------------

// Property is the property record handed to the publishing subsystem by the
// surrounding application. It is the raw input each adapter transforms into
// its canonical ListingData.
type Property struct {
	// ID is the internal property identifier
	ID string
	// Title is the marketing title
	Title string
	// Description is the long-form marketing description
	Description string
	// RentAmount is the monthly rent
	RentAmount decimal.Decimal
	// SecurityDeposit is the required deposit
	SecurityDeposit decimal.Decimal
	// Currency is the ISO currency code (default: USD)
	Currency string
	// Street, City, State, PostalCode locate the property
	Street     string
	City       string
	State      string
	PostalCode string
	// Bedrooms is the bedroom count
	Bedrooms int
	// Bathrooms is the bathroom count (halves allowed)
	Bathrooms float64
	// AreaSqFt is the living area in square feet
	AreaSqFt float64
	// PropertyType is e.g. apartment, house, condo, townhouse
	PropertyType string
	// Amenities lists amenity names
	Amenities []string
	// PhotoURLs lists photo URLs in display order
	PhotoURLs []string
	// AvailableFrom is the earliest move-in date
	AvailableFrom time.Time
	// LeaseTermMonths is the minimum lease term
	LeaseTermMonths int
	// PetsAllowed indicates the pet policy
	PetsAllowed bool
	// ContactName, ContactEmail, ContactPhone identify the listing contact
	ContactName  string
	ContactEmail string
	ContactPhone string
}

// ---------------------------------------------------------------------------
// ListingData (canonical representation)
// ---------------------------------------------------------------------------

// ListingData is the canonical platform-agnostic listing representation.
// Every adapter produces it from a Property via TransformProperty, applying
// its own truncation limits, and validates it against its own rule table.
type ListingData struct {
	// PropertyID is the internal property identifier
	PropertyID string
	// Title is the listing title, sanitized and truncated per platform
	Title string
	// Description is the listing body, sanitized and truncated per platform
	Description string
	// Price is the monthly rent
	Price decimal.Decimal
	// Deposit is the security deposit
	Deposit decimal.Decimal
	// Currency is the ISO currency code
	Currency string
	// Address is the normalized address
	Address Address
	// Bedrooms, Bathrooms, AreaSqFt describe the unit
	Bedrooms  int
	Bathrooms float64
	AreaSqFt  float64
	// PropertyType is the normalized property type
	PropertyType string
	// Amenities lists amenity names
	Amenities []string
	// PhotoURLs lists photo URLs, truncated to the platform's maximum
	PhotoURLs []string
	// AvailableFrom is the earliest move-in date
	AvailableFrom time.Time
	// LeaseTermMonths is the minimum lease term
	LeaseTermMonths int
	// PetsAllowed indicates the pet policy
	PetsAllowed bool
	// ContactName, ContactEmail, ContactPhone identify the listing contact
	ContactName  string
	ContactEmail string
	ContactPhone string
}

// Address is a normalized postal address.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
}

// IsComplete returns true if every address component is present.
func (a Address) IsComplete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.PostalCode != ""
}

// ---------------------------------------------------------------------------
// Listing status
// ---------------------------------------------------------------------------

// ListingStatus is the lifecycle status of a listing on a platform.
type ListingStatus string

const (
	// ListingStatusPending indicates the listing was submitted and awaits review
	ListingStatusPending ListingStatus = "pending"
	// ListingStatusPublished indicates the listing is live
	ListingStatusPublished ListingStatus = "published"
	// ListingStatusExpired indicates the platform expired the listing
	ListingStatusExpired ListingStatus = "expired"
	// ListingStatusRejected indicates the platform rejected the listing
	ListingStatusRejected ListingStatus = "rejected"
	// ListingStatusRemoved indicates the listing was taken down
	ListingStatusRemoved ListingStatus = "removed"
)

// IsValid returns true if the status is known.
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusPending, ListingStatusPublished, ListingStatusExpired,
		ListingStatusRejected, ListingStatusRemoved:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s ListingStatus) String() string {
	return string(s)
}

// IsLive returns true if the listing is visible to renters.
func (s ListingStatus) IsLive() bool {
	return s == ListingStatusPublished
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// ValidationRules is the per-platform rule table applied to canonical
// listing data before any network call.
type ValidationRules struct {
	// RequiredFields names the ListingData fields that must be non-empty
	RequiredFields []string
	// MinPrice and MaxPrice bound the monthly rent (zero max = unbounded)
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	// MaxPhotos is the platform's photo count limit
	MaxPhotos int
	// MaxDescriptionLength is the platform's description length limit
	MaxDescriptionLength int
	// MinBedrooms is the lowest accepted bedroom count (0 = studio allowed)
	MinBedrooms int
}

// ValidationResult reports the outcome of validating listing data.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// AddError records a validation failure.
func (r *ValidationResult) AddError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// ---------------------------------------------------------------------------
// Adapter call results
// ---------------------------------------------------------------------------

// PublishResponse is an adapter's answer to a publish or update call.
type PublishResponse struct {
	// ExternalID is the listing's identifier on the platform
	ExternalID string
	// ListingURL is the public URL of the listing, when the platform returns one
	ListingURL string
	// Status is the listing status reported by the platform
	Status ListingStatus
	// Message is an optional human-readable platform message
	Message string
}

// InitializeResult is the outcome of initializing an adapter with auth
// configuration. For delegated-authorization platforms that still need user
// consent it carries the authorization URL to visit.
type InitializeResult struct {
	// Connected is true when the adapter is ready to make authenticated calls
	Connected bool
	// AuthURL is the authorization URL the caller must visit (OAuth only)
	AuthURL string
	// Message describes the initialization outcome
	Message string
}

// RateLimitInfo describes an adapter's request budget. The orchestrator uses
// it only for the courtesy delay between fan-out calls.
type RateLimitInfo struct {
	// RequestsPerMinute is the platform's advertised request budget
	RequestsPerMinute int
	// MinInterval is the smallest interval the adapter wants between calls
	MinInterval time.Duration
}

// ---------------------------------------------------------------------------
// Analytics
// ---------------------------------------------------------------------------

// AnalyticsRange bounds an analytics query.
type AnalyticsRange struct {
	From time.Time
	To   time.Time
}

// AnalyticsReport aggregates per-listing performance on one platform.
type AnalyticsReport struct {
	Platform  Platform
	Views     int64
	Inquiries int64
	Saves     int64
	From      time.Time
	To        time.Time
}
