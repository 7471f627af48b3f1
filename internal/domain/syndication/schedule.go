package syndication

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleReason records why a schedule entry exists.
type ScheduleReason string

const (
	// ScheduleReasonUser is a caller-requested future publish
	ScheduleReasonUser ScheduleReason = "scheduled"
	// ScheduleReasonRetry is an automatic retry of failed platforms
	ScheduleReasonRetry ScheduleReason = "retry"
)

// PublishingSchedule is a deferred publish record. User-scheduled publishes
// and automatic retries share the shape; the schedule runner drains due
// entries and republishes to the recorded platforms only.
type PublishingSchedule struct {
	ID         uuid.UUID      `json:"id"`
	PropertyID string         `json:"property_id"`
	// Property is the property snapshot captured at scheduling time
	Property   Property       `json:"property"`
	Platforms  []Platform     `json:"platforms"`
	RunAt      time.Time      `json:"run_at"`
	Reason     ScheduleReason `json:"reason"`
	// Attempt counts retries already made for this property
	Attempt    int            `json:"attempt"`
	MaxRetries int            `json:"max_retries"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Due reports whether the entry should run now.
func (s *PublishingSchedule) Due(now time.Time) bool {
	return !s.RunAt.After(now)
}
