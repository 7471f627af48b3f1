package publishing

import (
	"time"

	"github.com/propman/backend/internal/domain/syndication"
)

// ConnectResult is the outcome of a connect, authorization or disconnect
// call. AuthURL is set when the platform still needs user consent.
type ConnectResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	AuthURL string `json:"auth_url,omitempty"`
}

// PublishOptions modifies a publish run.
type PublishOptions struct {
	// TemplateID applies a stored template: its platforms when the caller
	// passes none, its field mappings, and its run settings
	TemplateID string
	// ValidateOnly runs transform+validate per platform and returns without
	// side effects
	ValidateOnly bool
	// ScheduleAt defers the publish to a future time
	ScheduleAt *time.Time
	// Actor is recorded in the audit log
	Actor string
}

// PublishOutcome is the service-level answer to a publish call.
type PublishOutcome struct {
	Success    bool                           `json:"success"`
	JobID      string                         `json:"job_id,omitempty"`
	ScheduleID string                         `json:"schedule_id,omitempty"`
	Results    []syndication.PublishingResult `json:"results,omitempty"`
	// ValidationErrors is populated by validate-only runs
	ValidationErrors map[syndication.Platform][]string `json:"validation_errors,omitempty"`
	Message          string                            `json:"message"`
}

// BatchOutcome aggregates a batch publish run.
type BatchOutcome struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []BatchItemOutcome `json:"results"`
}

// BatchItemOutcome is one property's outcome within a batch.
type BatchItemOutcome struct {
	PropertyID string `json:"property_id"`
	Success    bool   `json:"success"`
	JobID      string `json:"job_id,omitempty"`
	Message    string `json:"message"`
}

// PlatformStats aggregates one platform's results inside a stats window.
type PlatformStats struct {
	Attempts    int     `json:"attempts"`
	Published   int     `json:"published"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// PublishingStats aggregates the job history over a time window.
type PublishingStats struct {
	From        time.Time                              `json:"from"`
	To          time.Time                              `json:"to"`
	TotalJobs   int                                    `json:"total_jobs"`
	Published   int                                    `json:"published"`
	Failed      int                                    `json:"failed"`
	SuccessRate float64                                `json:"success_rate"`
	ByPlatform  map[syndication.Platform]PlatformStats `json:"by_platform"`
}
