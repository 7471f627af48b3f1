package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/propman/backend/internal/domain/syndication"
)

// ConnectRequest carries the credentials for connecting a platform. Which
// fields matter depends on the platform's auth family.
type ConnectRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri" binding:"omitempty,url"`
	APIKey       string `json:"api_key"`
	APISecret    string `json:"api_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// AuthConfig converts the request into the domain credential record
func (r *ConnectRequest) AuthConfig(platform syndication.Platform) *syndication.AuthConfig {
	return &syndication.AuthConfig{
		Platform:     platform,
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		RedirectURI:  r.RedirectURI,
		APIKey:       r.APIKey,
		APISecret:    r.APISecret,
		Username:     r.Username,
		Password:     r.Password,
	}
}

// AuthorizeCallbackRequest carries the delegated-authorization callback code.
type AuthorizeCallbackRequest struct {
	Code string `json:"code" binding:"required"`
}

// PropertyRequest is the inbound property payload.
type PropertyRequest struct {
	ID              string          `json:"id" binding:"required"`
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	RentAmount      decimal.Decimal `json:"rent_amount" binding:"required"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	Currency        string          `json:"currency"`
	Street          string          `json:"street"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	PostalCode      string          `json:"postal_code"`
	Bedrooms        int             `json:"bedrooms" binding:"min=0"`
	Bathrooms       float64         `json:"bathrooms" binding:"min=0"`
	AreaSqFt        float64         `json:"area_sqft"`
	PropertyType    string          `json:"property_type"`
	Amenities       []string        `json:"amenities"`
	PhotoURLs       []string        `json:"photo_urls"`
	AvailableFrom   time.Time       `json:"available_from"`
	LeaseTermMonths int             `json:"lease_term_months"`
	PetsAllowed     bool            `json:"pets_allowed"`
	ContactName     string          `json:"contact_name"`
	ContactEmail    string          `json:"contact_email" binding:"omitempty,email"`
	ContactPhone    string          `json:"contact_phone"`
}

// Property converts the request into the domain property
func (r *PropertyRequest) Property() *syndication.Property {
	return &syndication.Property{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		RentAmount:      r.RentAmount,
		SecurityDeposit: r.SecurityDeposit,
		Currency:        r.Currency,
		Street:          r.Street,
		City:            r.City,
		State:           r.State,
		PostalCode:      r.PostalCode,
		Bedrooms:        r.Bedrooms,
		Bathrooms:       r.Bathrooms,
		AreaSqFt:        r.AreaSqFt,
		PropertyType:    r.PropertyType,
		Amenities:       r.Amenities,
		PhotoURLs:       r.PhotoURLs,
		AvailableFrom:   r.AvailableFrom,
		LeaseTermMonths: r.LeaseTermMonths,
		PetsAllowed:     r.PetsAllowed,
		ContactName:     r.ContactName,
		ContactEmail:    r.ContactEmail,
		ContactPhone:    r.ContactPhone,
	}
}

// PublishRequest publishes one property.
type PublishRequest struct {
	Property     PropertyRequest        `json:"property" binding:"required"`
	Platforms    []syndication.Platform `json:"platforms" binding:"omitempty,dive,platform"`
	TemplateID   string                 `json:"template_id"`
	ValidateOnly bool                   `json:"validate_only"`
	ScheduleAt   *time.Time             `json:"schedule_at"`
}

// BatchPublishRequest publishes many properties.
type BatchPublishRequest struct {
	Properties []PropertyRequest      `json:"properties" binding:"required,min=1,dive"`
	Platforms  []syndication.Platform `json:"platforms" binding:"omitempty,dive,platform"`
	TemplateID string                 `json:"template_id"`
}

// UpdateListingRequest pushes current property data to listed platforms.
type UpdateListingRequest struct {
	Property  PropertyRequest        `json:"property" binding:"required"`
	Platforms []syndication.Platform `json:"platforms" binding:"required,min=1,dive,platform"`
}

// RemoveListingRequest takes a property down from platforms.
type RemoveListingRequest struct {
	PropertyID string                 `json:"property_id" binding:"required"`
	Platforms  []syndication.Platform `json:"platforms" binding:"required,min=1,dive,platform"`
}

// TemplateRequest creates or replaces a publishing template.
type TemplateRequest struct {
	Name          string                       `json:"name" binding:"required"`
	Description   string                       `json:"description"`
	Platforms     []syndication.Platform       `json:"platforms"`
	Settings      syndication.TemplateSettings `json:"settings"`
	FieldMappings map[string]string            `json:"field_mappings"`
}

// Template converts the request into the domain template
func (r *TemplateRequest) Template() syndication.PublishingTemplate {
	return syndication.PublishingTemplate{
		Name:          r.Name,
		Description:   r.Description,
		Platforms:     r.Platforms,
		Settings:      r.Settings,
		FieldMappings: r.FieldMappings,
	}
}

// SubscriptionRequest replaces one platform's webhook subscription.
type SubscriptionRequest struct {
	EventTypes []string `json:"event_types"`
	Endpoint   string   `json:"endpoint"`
	Secret     string   `json:"secret"`
	Active     bool     `json:"active"`
}

// AnalyticsRequest bounds an analytics query.
type AnalyticsRequest struct {
	Platforms []syndication.Platform `json:"platforms" binding:"required,min=1,dive,platform"`
	From      time.Time              `json:"from" binding:"required"`
	To        time.Time              `json:"to" binding:"required"`
}
