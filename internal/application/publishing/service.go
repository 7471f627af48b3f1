package publishing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propman/backend/internal/domain/syndication"
)

// ServiceConfig carries the publishing service's tunables.
type ServiceConfig struct {
	// BatchSize bounds the concurrent fan-out inside one batch group
	BatchSize int
	// BatchDelay is the pause between batch groups
	BatchDelay time.Duration
	// RetryDelay is how far out failed-platform retries are scheduled
	RetryDelay time.Duration
	// MaxRetries bounds automatic retries per property
	MaxRetries int
}

// Service is the façade over the orchestrator adding validate-only runs,
// templates, scheduling, batch publishing, retry bookkeeping and aggregate
// statistics.
type Service struct {
	orch     *Orchestrator
	store    syndication.Store
	notifier syndication.Notifier
	logger   *zap.Logger
	cfg      ServiceConfig

	// scheduleMu serializes schedule list rewrites; the batch path runs
	// publishes concurrently and retries append from inside them
	scheduleMu sync.Mutex

	nowFn   func() time.Time
	sleepFn func(time.Duration)
}

// NewService creates the publishing service
func NewService(orch *Orchestrator, store syndication.Store, notifier syndication.Notifier, logger *zap.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Service{
		orch:     orch,
		store:    store,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		nowFn:    time.Now,
		sleepFn:  time.Sleep,
	}
}

// ---------------------------------------------------------------------------
// Publishing
// ---------------------------------------------------------------------------

// PublishProperty publishes one property, honoring template, validate-only
// and scheduling options. Per-platform failures land in the outcome, not in
// the returned error.
func (s *Service) PublishProperty(ctx context.Context, property *syndication.Property, platforms []syndication.Platform, opts PublishOptions) (*PublishOutcome, error) {
	if property == nil {
		return nil, syndication.ErrListingMissingProperty
	}

	settings := syndication.TemplateSettings{RetryFailures: true, MaxRetries: s.cfg.MaxRetries}
	if opts.TemplateID != "" {
		tmpl, err := s.GetTemplate(ctx, opts.TemplateID)
		if err != nil {
			return nil, err
		}
		if len(platforms) == 0 {
			platforms = tmpl.Platforms
		}
		property = applyFieldMappings(property, tmpl.FieldMappings)
		settings = tmpl.Settings
	}
	if len(platforms) == 0 {
		return &PublishOutcome{Success: false, Message: "no platforms selected"}, nil
	}

	if opts.ValidateOnly {
		return s.validateOnly(property, platforms), nil
	}

	if opts.ScheduleAt != nil {
		return s.schedulePublish(ctx, property, platforms, *opts.ScheduleAt, settings)
	}

	job, err := s.orch.PublishListing(ctx, property, platforms, opts.Actor)
	if err != nil {
		return nil, err
	}

	if failed := job.FailedPlatforms(); len(failed) > 0 && settings.RetryFailures && settings.MaxRetries > 0 {
		if err := s.scheduleRetry(ctx, property, failed, 1, settings.MaxRetries); err != nil {
			s.logger.Error("retry not scheduled", zap.String("property_id", property.ID), zap.Error(err))
		}
	}
	if settings.NotifyOnCompletion {
		s.notify(ctx, "publishing_completed",
			fmt.Sprintf("Publishing finished for property %s: %d published, %d failed",
				property.ID, job.SuccessCount, job.FailureCount),
			notificationPriorityFor(job))
	}

	return outcomeFromJob(job), nil
}

// validateOnly runs transform+validate per platform without side effects
func (s *Service) validateOnly(property *syndication.Property, platforms []syndication.Platform) *PublishOutcome {
	outcome := &PublishOutcome{
		Success:          true,
		ValidationErrors: make(map[syndication.Platform][]string),
		Message:          "validation passed for all platforms",
	}
	for _, platform := range platforms {
		adapter, err := s.orch.registry.Adapter(platform)
		if err != nil {
			outcome.Success = false
			outcome.ValidationErrors[platform] = []string{err.Error()}
			continue
		}
		data, err := adapter.TransformProperty(property)
		if err != nil {
			outcome.Success = false
			outcome.ValidationErrors[platform] = []string{err.Error()}
			continue
		}
		if result := adapter.ValidateListing(data); !result.Valid {
			outcome.Success = false
			outcome.ValidationErrors[platform] = result.Errors
		}
	}
	if !outcome.Success {
		outcome.Message = "validation failed for one or more platforms"
	}
	return outcome
}

// schedulePublish stores a future-dated schedule instead of publishing now
func (s *Service) schedulePublish(ctx context.Context, property *syndication.Property, platforms []syndication.Platform, runAt time.Time, settings syndication.TemplateSettings) (*PublishOutcome, error) {
	if !runAt.After(s.nowFn()) {
		return nil, syndication.ErrScheduleInPast
	}
	schedule := syndication.PublishingSchedule{
		ID:         uuid.New(),
		PropertyID: property.ID,
		Property:   *property,
		Platforms:  platforms,
		RunAt:      runAt,
		Reason:     syndication.ScheduleReasonUser,
		MaxRetries: settings.MaxRetries,
		CreatedAt:  s.nowFn(),
	}
	if err := s.appendSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return &PublishOutcome{
		Success:    true,
		ScheduleID: schedule.ID.String(),
		Message:    fmt.Sprintf("publishing scheduled for %s", runAt.Format(time.RFC3339)),
	}, nil
}

// BatchPublish publishes many properties, chunked into fixed-size groups.
// Properties inside a group run concurrently; a delay separates groups.
func (s *Service) BatchPublish(ctx context.Context, properties []*syndication.Property, platforms []syndication.Platform, opts PublishOptions) (*BatchOutcome, error) {
	outcome := &BatchOutcome{
		Total:   len(properties),
		Results: make([]BatchItemOutcome, len(properties)),
	}

	for start := 0; start < len(properties); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(properties) {
			end = len(properties)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				outcome.Results[idx] = s.publishBatchItem(ctx, properties[idx], platforms, opts)
			}(i)
		}
		wg.Wait()

		if end < len(properties) && s.cfg.BatchDelay > 0 {
			s.sleepFn(s.cfg.BatchDelay)
		}
	}

	for _, item := range outcome.Results {
		if item.Success {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
	}
	s.logger.Info("batch publish finished",
		zap.Int("total", outcome.Total),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed))
	return outcome, nil
}

func (s *Service) publishBatchItem(ctx context.Context, property *syndication.Property, platforms []syndication.Platform, opts PublishOptions) BatchItemOutcome {
	item := BatchItemOutcome{}
	if property != nil {
		item.PropertyID = property.ID
	}
	result, err := s.PublishProperty(ctx, property, platforms, opts)
	if err != nil {
		item.Message = err.Error()
		return item
	}
	item.Success = result.Success
	item.JobID = result.JobID
	item.Message = result.Message
	return item
}

// UpdateListing pushes the property's current data to the platforms it is
// listed on.
func (s *Service) UpdateListing(ctx context.Context, property *syndication.Property, platforms []syndication.Platform, actor string) (*PublishOutcome, error) {
	job, err := s.orch.UpdateListing(ctx, property, platforms, actor)
	if err != nil {
		return nil, err
	}
	return outcomeFromJob(job), nil
}

// RemoveListing takes the property down from the given platforms
func (s *Service) RemoveListing(ctx context.Context, propertyID string, platforms []syndication.Platform, actor string) (*PublishOutcome, error) {
	job, err := s.orch.RemoveListing(ctx, propertyID, platforms, actor)
	if err != nil {
		return nil, err
	}
	return outcomeFromJob(job), nil
}

// ---------------------------------------------------------------------------
// Retry & Schedule Running
// ---------------------------------------------------------------------------

// scheduleRetry records a delayed re-attempt for the failed platforms only
func (s *Service) scheduleRetry(ctx context.Context, property *syndication.Property, failed []syndication.Platform, attempt, maxRetries int) error {
	schedule := syndication.PublishingSchedule{
		ID:         uuid.New(),
		PropertyID: property.ID,
		Property:   *property,
		Platforms:  failed,
		RunAt:      s.nowFn().Add(s.cfg.RetryDelay),
		Reason:     syndication.ScheduleReasonRetry,
		Attempt:    attempt,
		MaxRetries: maxRetries,
		CreatedAt:  s.nowFn(),
	}
	if err := s.appendSchedule(ctx, schedule); err != nil {
		return err
	}
	s.logger.Info("retry scheduled",
		zap.String("property_id", property.ID),
		zap.Int("attempt", attempt),
		zap.Time("run_at", schedule.RunAt))
	return nil
}

// RunDueSchedules publishes every schedule entry that is due and removes it
// from the list. Failed platforms are rescheduled while attempts remain.
// The schedule runner calls this on every tick; it returns how many entries
// ran.
func (s *Service) RunDueSchedules(ctx context.Context, now time.Time) (int, error) {
	s.scheduleMu.Lock()
	var schedules []syndication.PublishingSchedule
	if _, err := s.store.Get(ctx, syndication.StoreKeySchedules, &schedules); err != nil {
		s.scheduleMu.Unlock()
		return 0, err
	}
	var due, pending []syndication.PublishingSchedule
	for _, entry := range schedules {
		if entry.Due(now) {
			due = append(due, entry)
		} else {
			pending = append(pending, entry)
		}
	}
	if len(due) == 0 {
		s.scheduleMu.Unlock()
		return 0, nil
	}
	if err := s.store.Set(ctx, syndication.StoreKeySchedules, pending); err != nil {
		s.scheduleMu.Unlock()
		return 0, err
	}
	s.scheduleMu.Unlock()

	for _, entry := range due {
		s.runSchedule(ctx, entry)
	}
	return len(due), nil
}

func (s *Service) runSchedule(ctx context.Context, entry syndication.PublishingSchedule) {
	property := entry.Property
	job, err := s.orch.PublishListing(ctx, &property, entry.Platforms, "scheduler")
	if err != nil {
		s.logger.Error("scheduled publish failed", zap.String("schedule_id", entry.ID.String()), zap.Error(err))
		return
	}

	failed := job.FailedPlatforms()
	if len(failed) == 0 {
		s.notify(ctx, "scheduled_publish_completed",
			fmt.Sprintf("Scheduled publishing finished for property %s", entry.PropertyID),
			syndication.NotificationPriorityNormal)
		return
	}

	if entry.Attempt < entry.MaxRetries {
		if err := s.scheduleRetry(ctx, &property, failed, entry.Attempt+1, entry.MaxRetries); err != nil {
			s.logger.Error("retry not rescheduled", zap.String("property_id", entry.PropertyID), zap.Error(err))
		}
		return
	}
	s.notify(ctx, "publishing_retries_exhausted",
		fmt.Sprintf("Publishing for property %s still failing on %d platform(s) after %d attempts",
			entry.PropertyID, len(failed), entry.Attempt),
		syndication.NotificationPriorityHigh)
}

// Schedules returns the pending schedule entries
func (s *Service) Schedules(ctx context.Context) ([]syndication.PublishingSchedule, error) {
	var schedules []syndication.PublishingSchedule
	if _, err := s.store.Get(ctx, syndication.StoreKeySchedules, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *Service) appendSchedule(ctx context.Context, schedule syndication.PublishingSchedule) error {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	var schedules []syndication.PublishingSchedule
	if _, err := s.store.Get(ctx, syndication.StoreKeySchedules, &schedules); err != nil {
		return err
	}
	schedules = append(schedules, schedule)
	return s.store.Set(ctx, syndication.StoreKeySchedules, schedules)
}

// ---------------------------------------------------------------------------
// Statistics
// ---------------------------------------------------------------------------

// GetPublishingStats aggregates the job history over the trailing window
func (s *Service) GetPublishingStats(ctx context.Context, window time.Duration) (*PublishingStats, error) {
	jobs, err := s.orch.Jobs(ctx)
	if err != nil {
		return nil, err
	}

	to := s.nowFn()
	from := to.Add(-window)
	stats := &PublishingStats{
		From:       from,
		To:         to,
		ByPlatform: make(map[syndication.Platform]PlatformStats),
	}

	for _, job := range jobs {
		if job.SubmittedAt.Before(from) {
			continue
		}
		stats.TotalJobs++
		for _, result := range job.Results {
			ps := stats.ByPlatform[result.Platform]
			ps.Attempts++
			if result.Status == syndication.ResultStatusPublished {
				ps.Published++
				stats.Published++
			} else {
				ps.Failed++
				stats.Failed++
			}
			stats.ByPlatform[result.Platform] = ps
		}
	}

	for platform, ps := range stats.ByPlatform {
		if ps.Attempts > 0 {
			ps.SuccessRate = float64(ps.Published) / float64(ps.Attempts)
		}
		stats.ByPlatform[platform] = ps
	}
	if total := stats.Published + stats.Failed; total > 0 {
		stats.SuccessRate = float64(stats.Published) / float64(total)
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func outcomeFromJob(job *syndication.PublishingJob) *PublishOutcome {
	outcome := &PublishOutcome{
		Success: job.FailureCount == 0 && job.SuccessCount > 0,
		JobID:   job.ID.String(),
		Results: job.Results,
	}
	switch {
	case outcome.Success:
		outcome.Message = fmt.Sprintf("published to %d platform(s)", job.SuccessCount)
	case job.SuccessCount > 0:
		outcome.Message = fmt.Sprintf("published to %d platform(s), %d failed", job.SuccessCount, job.FailureCount)
	default:
		outcome.Message = "publishing failed on all platforms"
	}
	return outcome
}

func notificationPriorityFor(job *syndication.PublishingJob) syndication.NotificationPriority {
	if job.FailureCount > 0 {
		return syndication.NotificationPriorityHigh
	}
	return syndication.NotificationPriorityNormal
}

// applyFieldMappings copies the property and overrides fields by name.
// Field names match the validation rule tables.
func applyFieldMappings(property *syndication.Property, mappings map[string]string) *syndication.Property {
	if len(mappings) == 0 {
		return property
	}
	out := *property
	for field, value := range mappings {
		switch field {
		case "title":
			out.Title = value
		case "description":
			out.Description = value
		case "property_type":
			out.PropertyType = value
		case "contact_name":
			out.ContactName = value
		case "contact_email":
			out.ContactEmail = value
		case "contact_phone":
			out.ContactPhone = value
		}
	}
	return &out
}

func (s *Service) notify(ctx context.Context, notificationType, message string, priority syndication.NotificationPriority) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, syndication.Notification{
		Type:      notificationType,
		Message:   message,
		Priority:  priority,
		CreatedAt: s.nowFn(),
	})
	if err != nil {
		s.logger.Error("notification not recorded", zap.Error(err))
	}
}
