package syndication

import (
	"time"

	"github.com/google/uuid"
)

// Retention caps for store-backed histories. Lists are trimmed oldest-first
// when they exceed the cap.
const (
	// MaxJobHistory bounds the publishing job history
	MaxJobHistory = 100
	// MaxAuditEntries bounds the connection audit log
	MaxAuditEntries = 500
	// MaxWebhookHistory bounds the webhook event history
	MaxWebhookHistory = 1000
	// MaxNotifications bounds the user-facing notification list
	MaxNotifications = 500
)

// CapList trims a list to its newest max entries, evicting oldest-first.
// Histories are append-only, so the newest entries are at the tail.
func CapList[T any](list []T, max int) []T {
	if max <= 0 || len(list) <= max {
		return list
	}
	return list[len(list)-max:]
}

// ---------------------------------------------------------------------------
// PublishingJob
// ---------------------------------------------------------------------------

// JobStatus is the lifecycle status of a publishing job.
type JobStatus string

const (
	// JobStatusInProgress indicates the fan-out is still running
	JobStatusInProgress JobStatus = "in_progress"
	// JobStatusCompleted indicates every platform succeeded
	JobStatusCompleted JobStatus = "completed"
	// JobStatusPartial indicates a mix of successes and failures
	JobStatusPartial JobStatus = "partial"
	// JobStatusFailed indicates every platform failed
	JobStatusFailed JobStatus = "failed"
)

// String returns the string representation of the job status.
func (s JobStatus) String() string {
	return string(s)
}

// ResultStatus is the per-platform outcome inside a job.
type ResultStatus string

const (
	// ResultStatusPublished indicates the platform accepted the listing
	ResultStatusPublished ResultStatus = "published"
	// ResultStatusFailed indicates the platform call failed or was skipped
	ResultStatusFailed ResultStatus = "failed"
)

// PublishingResult is one platform's outcome within a fan-out job.
type PublishingResult struct {
	Platform   Platform     `json:"platform"`
	Status     ResultStatus `json:"status"`
	ExternalID string       `json:"external_id,omitempty"`
	ListingURL string       `json:"listing_url,omitempty"`
	Error      string       `json:"error,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// PublishingJob records one fan-out publish call. It is created once per
// call, has results appended in caller-supplied platform order, and is
// immutable after completion.
type PublishingJob struct {
	ID           uuid.UUID          `json:"id"`
	PropertyID   string             `json:"property_id"`
	Platforms    []Platform         `json:"platforms"`
	Status       JobStatus          `json:"status"`
	SubmittedAt  time.Time          `json:"submitted_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	Results      []PublishingResult `json:"results"`
	SuccessCount int                `json:"success_count"`
	FailureCount int                `json:"failure_count"`
}

// NewPublishingJob creates a job for one fan-out call.
func NewPublishingJob(propertyID string, platforms []Platform, now time.Time) *PublishingJob {
	return &PublishingJob{
		ID:          uuid.New(),
		PropertyID:  propertyID,
		Platforms:   platforms,
		Status:      JobStatusInProgress,
		SubmittedAt: now,
		Results:     make([]PublishingResult, 0, len(platforms)),
	}
}

// AddResult appends one platform's outcome and updates the counters.
func (j *PublishingJob) AddResult(r PublishingResult) {
	j.Results = append(j.Results, r)
	if r.Status == ResultStatusPublished {
		j.SuccessCount++
	} else {
		j.FailureCount++
	}
}

// FailedPlatforms returns the platforms whose result failed.
func (j *PublishingJob) FailedPlatforms() []Platform {
	var failed []Platform
	for _, r := range j.Results {
		if r.Status == ResultStatusFailed {
			failed = append(failed, r.Platform)
		}
	}
	return failed
}

// Complete finalizes the job status from its counters.
func (j *PublishingJob) Complete(now time.Time) {
	j.CompletedAt = &now
	switch {
	case j.FailureCount == 0 && j.SuccessCount > 0:
		j.Status = JobStatusCompleted
	case j.SuccessCount > 0:
		j.Status = JobStatusPartial
	default:
		j.Status = JobStatusFailed
	}
}
