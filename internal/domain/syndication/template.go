package syndication

import (
	"time"

	"github.com/google/uuid"
)

// TemplateSettings controls how a publish run driven by a template behaves.
type TemplateSettings struct {
	// AutoPublish publishes immediately instead of requiring confirmation
	AutoPublish bool `json:"auto_publish"`
	// RetryFailures schedules a delayed retry for failed platforms
	RetryFailures bool `json:"retry_failures"`
	// MaxRetries bounds the retry attempts per property
	MaxRetries int `json:"max_retries"`
	// NotifyOnCompletion appends a notification when the run finishes
	NotifyOnCompletion bool `json:"notify_on_completion"`
}

// PublishingTemplate is a named, reusable bundle of target platforms,
// run settings and field overrides. Templates are independent of jobs.
type PublishingTemplate struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Platforms   []Platform        `json:"platforms"`
	Settings    TemplateSettings  `json:"settings"`
	// FieldMappings overrides property fields by name before transform,
	// e.g. {"title": "Cozy 2BR near downtown"}
	FieldMappings map[string]string `json:"field_mappings,omitempty"`
	System        bool              `json:"system"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Validate checks template integrity.
func (t *PublishingTemplate) Validate() error {
	if t.Name == "" {
		return ErrTemplateNameEmpty
	}
	for _, p := range t.Platforms {
		if !p.IsValid() {
			return ErrPlatformUnsupported
		}
	}
	return nil
}

// DefaultTemplates returns the system-seeded templates written to the
// store on first run.
func DefaultTemplates(now time.Time) []PublishingTemplate {
	return []PublishingTemplate{
		{
			ID:          uuid.New(),
			Name:        "All major platforms",
			Description: "Publish to the large national marketplaces",
			Platforms: []Platform{
				PlatformZillow, PlatformTrulia, PlatformHotpads,
				PlatformApartmentsCom, PlatformZumper,
			},
			Settings: TemplateSettings{
				AutoPublish:        true,
				RetryFailures:      true,
				MaxRetries:         3,
				NotifyOnCompletion: true,
			},
			System:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.New(),
			Name:        "Free channels only",
			Description: "Publish to channels without listing fees",
			Platforms:   []Platform{PlatformCraigslist, PlatformFacebookMarketplace},
			Settings: TemplateSettings{
				AutoPublish:        true,
				RetryFailures:      false,
				MaxRetries:         0,
				NotifyOnCompletion: true,
			},
			System:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
