package publishing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/propman/backend/internal/domain/syndication"
)

// Orchestrator owns the per-platform connections and the sequential fan-out
// of publish/update/remove calls. It is the only writer of AuthConfig
// records and connection states; adapters receive credentials at Initialize
// and never persist anything themselves.
type Orchestrator struct {
	registry syndication.AdapterRegistry
	store    syndication.Store
	logger   *zap.Logger

	// platformDelay is the courtesy pause between fan-out calls
	platformDelay time.Duration

	mu     sync.Mutex
	states map[syndication.Platform]syndication.ConnectionState

	// storeMu serializes read-modify-write cycles on shared store lists;
	// batch publishing runs fan-outs concurrently
	storeMu sync.Mutex

	// replaceable in tests
	nowFn   func() time.Time
	sleepFn func(time.Duration)
}

// NewOrchestrator creates the orchestrator
func NewOrchestrator(registry syndication.AdapterRegistry, store syndication.Store, logger *zap.Logger, platformDelay time.Duration) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		registry:      registry,
		store:         store,
		logger:        logger,
		platformDelay: platformDelay,
		states:        make(map[syndication.Platform]syndication.ConnectionState),
		nowFn:         time.Now,
		sleepFn:       time.Sleep,
	}
}

// ---------------------------------------------------------------------------
// Connection Lifecycle
// ---------------------------------------------------------------------------

// Restore re-initializes adapters from persisted auth configs. Called once
// at startup so connections survive a restart.
func (o *Orchestrator) Restore(ctx context.Context) error {
	configs, err := o.loadAuthConfigs(ctx)
	if err != nil {
		return err
	}
	for platform, cfg := range configs {
		adapter, err := o.registry.Adapter(platform)
		if err != nil {
			continue
		}
		cfg := cfg
		result, err := adapter.Initialize(ctx, &cfg)
		if err != nil || !result.Connected {
			o.setState(platform, syndication.ConnectionState{
				Connected:     false,
				Health:        syndication.HealthError,
				LastCheckedAt: o.nowFn(),
				Error:         "stored credentials no longer usable",
			})
			o.logger.Warn("stored connection not restored", zap.String("platform", platform.String()), zap.Error(err))
			continue
		}
		o.setState(platform, syndication.ConnectionState{
			Connected:     true,
			Health:        syndication.HealthHealthy,
			LastCheckedAt: o.nowFn(),
		})
	}
	return nil
}

// ConnectPlatform initializes the platform's adapter with the given
// credentials, probes the connection, persists the config and records the
// transition. For delegated-authorization platforms the result may instead
// carry the authorization URL to visit.
func (o *Orchestrator) ConnectPlatform(ctx context.Context, platform syndication.Platform, cfg *syndication.AuthConfig, actor string) (*ConnectResult, error) {
	adapter, err := o.registry.Adapter(platform)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &syndication.AuthConfig{}
	}
	cfg.Platform = platform

	initResult, err := adapter.Initialize(ctx, cfg)
	if err != nil {
		o.setState(platform, syndication.ConnectionState{
			Connected:     false,
			Health:        syndication.HealthError,
			LastCheckedAt: o.nowFn(),
			Error:         err.Error(),
		})
		o.audit(ctx, actor, "connect_platform", fmt.Sprintf("%s: %v", platform.DisplayName(), err), false)
		return &ConnectResult{Success: false, Message: err.Error()}, nil
	}

	if !initResult.Connected {
		// Authorization still pending; persist the config so the callback
		// can complete the flow after user consent
		if err := o.saveAuthConfig(ctx, platform, *cfg); err != nil {
			return nil, err
		}
		o.audit(ctx, actor, "connect_platform", fmt.Sprintf("%s: authorization pending", platform.DisplayName()), true)
		return &ConnectResult{Success: false, Message: initResult.Message, AuthURL: initResult.AuthURL}, nil
	}

	if err := adapter.TestConnection(ctx); err != nil {
		o.setState(platform, syndication.ConnectionState{
			Connected:     false,
			Health:        syndication.HealthError,
			LastCheckedAt: o.nowFn(),
			Error:         err.Error(),
		})
		o.audit(ctx, actor, "connect_platform", fmt.Sprintf("%s: connection probe failed: %v", platform.DisplayName(), err), false)
		return &ConnectResult{Success: false, Message: fmt.Sprintf("connection probe failed: %v", err)}, nil
	}

	if err := o.saveAuthConfig(ctx, platform, o.credentialSnapshot(adapter, cfg)); err != nil {
		return nil, err
	}
	o.setState(platform, syndication.ConnectionState{
		Connected:     true,
		Health:        syndication.HealthHealthy,
		LastCheckedAt: o.nowFn(),
	})
	o.audit(ctx, actor, "connect_platform", fmt.Sprintf("%s connected", platform.DisplayName()), true)
	o.logger.Info("platform connected", zap.String("platform", platform.String()))
	return &ConnectResult{Success: true, Message: initResult.Message}, nil
}

// CompleteAuthorization finishes a delegated-authorization connect by
// exchanging the callback code for tokens.
func (o *Orchestrator) CompleteAuthorization(ctx context.Context, platform syndication.Platform, code, actor string) (*ConnectResult, error) {
	adapter, err := o.registry.Adapter(platform)
	if err != nil {
		return nil, err
	}
	exchanger, ok := adapter.(syndication.CodeExchanger)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not use authorization codes", syndication.ErrPlatformUnsupported, platform)
	}

	if err := exchanger.ExchangeCode(ctx, code); err != nil {
		o.audit(ctx, actor, "complete_authorization", fmt.Sprintf("%s: %v", platform.DisplayName(), err), false)
		return &ConnectResult{Success: false, Message: err.Error()}, nil
	}
	if err := adapter.TestConnection(ctx); err != nil {
		o.audit(ctx, actor, "complete_authorization", fmt.Sprintf("%s: probe failed: %v", platform.DisplayName(), err), false)
		return &ConnectResult{Success: false, Message: err.Error()}, nil
	}

	if err := o.saveAuthConfig(ctx, platform, o.credentialSnapshot(adapter, nil)); err != nil {
		return nil, err
	}
	o.setState(platform, syndication.ConnectionState{
		Connected:     true,
		Health:        syndication.HealthHealthy,
		LastCheckedAt: o.nowFn(),
	})
	o.audit(ctx, actor, "complete_authorization", fmt.Sprintf("%s connected", platform.DisplayName()), true)
	return &ConnectResult{Success: true, Message: fmt.Sprintf("%s connected", platform.DisplayName())}, nil
}

// DisconnectPlatform clears the platform's stored credentials and state
func (o *Orchestrator) DisconnectPlatform(ctx context.Context, platform syndication.Platform, actor string) (bool, error) {
	if _, err := o.registry.Adapter(platform); err != nil {
		return false, err
	}

	o.storeMu.Lock()
	configs, err := o.loadAuthConfigs(ctx)
	if err != nil {
		o.storeMu.Unlock()
		return false, err
	}
	delete(configs, platform)
	if err := o.store.Set(ctx, syndication.StoreKeyAuthConfigs, configs); err != nil {
		o.storeMu.Unlock()
		return false, err
	}
	o.storeMu.Unlock()

	o.mu.Lock()
	delete(o.states, platform)
	o.mu.Unlock()

	o.audit(ctx, actor, "disconnect_platform", fmt.Sprintf("%s disconnected", platform.DisplayName()), true)
	o.logger.Info("platform disconnected", zap.String("platform", platform.String()))
	return true, nil
}

// TestPlatformConnection probes the platform and refreshes its health.
// Probing a disconnected platform reports the disconnected state without a
// network call.
func (o *Orchestrator) TestPlatformConnection(ctx context.Context, platform syndication.Platform) (*syndication.ConnectionState, error) {
	adapter, err := o.registry.Adapter(platform)
	if err != nil {
		return nil, err
	}

	current, connected := o.state(platform)
	if !connected {
		state := syndication.ConnectionState{
			Connected:     false,
			Health:        syndication.HealthError,
			LastCheckedAt: o.nowFn(),
			Error:         current.Error,
		}
		return &state, nil
	}

	state := syndication.ConnectionState{Connected: true, LastCheckedAt: o.nowFn()}
	if err := adapter.TestConnection(ctx); err != nil {
		state.Health = syndication.HealthError
		state.Error = err.Error()
	} else {
		state.Health = syndication.HealthHealthy
	}
	o.setState(platform, state)
	return &state, nil
}

// AllConnectionStatuses returns the current state of every platform.
// Platforms never connected report a disconnected state.
func (o *Orchestrator) AllConnectionStatuses() map[syndication.Platform]syndication.ConnectionState {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[syndication.Platform]syndication.ConnectionState, len(syndication.AllPlatforms()))
	for _, platform := range syndication.AllPlatforms() {
		if state, ok := o.states[platform]; ok {
			out[platform] = state
		} else {
			out[platform] = syndication.ConnectionState{Connected: false, Health: syndication.HealthError}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Fan-out Operations
// ---------------------------------------------------------------------------

// PublishListing fans one property out across the requested platforms,
// sequentially and in caller-supplied order. Per-platform failures are
// recorded in the job and never abort the loop; the returned error covers
// only store failures.
func (o *Orchestrator) PublishListing(ctx context.Context, property *syndication.Property, platforms []syndication.Platform, actor string) (*syndication.PublishingJob, error) {
	if property == nil {
		return nil, syndication.ErrListingMissingProperty
	}

	job := syndication.NewPublishingJob(property.ID, platforms, o.nowFn())
	for i, platform := range platforms {
		job.AddResult(o.publishOne(ctx, platform, property))
		if i < len(platforms)-1 && o.platformDelay > 0 {
			o.sleepFn(o.platformDelay)
		}
	}
	job.Complete(o.nowFn())

	if err := o.appendJob(ctx, job); err != nil {
		return nil, err
	}
	o.audit(ctx, actor, "publish_listing",
		fmt.Sprintf("property %s: %d published, %d failed", property.ID, job.SuccessCount, job.FailureCount),
		job.FailureCount == 0)
	o.logger.Info("publish fan-out finished",
		zap.String("property_id", property.ID),
		zap.String("job_id", job.ID.String()),
		zap.Int("published", job.SuccessCount),
		zap.Int("failed", job.FailureCount))
	return job, nil
}

// publishOne handles one platform inside the fan-out
func (o *Orchestrator) publishOne(ctx context.Context, platform syndication.Platform, property *syndication.Property) syndication.PublishingResult {
	result := syndication.PublishingResult{Platform: platform, Status: syndication.ResultStatusFailed}

	if _, connected := o.state(platform); !connected {
		result.Error = "Platform not connected"
		return result
	}
	adapter, err := o.registry.Adapter(platform)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	data, err := adapter.TransformProperty(property)
	if err != nil {
		result.Error = fmt.Sprintf("transform failed: %v", err)
		return result
	}
	if validation := adapter.ValidateListing(data); !validation.Valid {
		result.Error = fmt.Sprintf("validation failed: %v", validation.Errors)
		return result
	}

	resp, err := adapter.PublishListing(ctx, data)
	if err != nil {
		result.Error = err.Error()
		o.logger.Warn("platform publish failed", zap.String("platform", platform.String()), zap.Error(err))
		return result
	}

	result.Status = syndication.ResultStatusPublished
	result.ExternalID = resp.ExternalID
	result.ListingURL = resp.ListingURL
	result.Message = resp.Message

	if err := o.upsertListing(ctx, syndication.ExternalListing{
		PropertyID:  property.ID,
		Platform:    platform,
		ExternalID:  resp.ExternalID,
		ListingURL:  resp.ListingURL,
		PublishedAt: o.nowFn(),
		Status:      resp.Status,
	}); err != nil {
		o.logger.Error("external listing mapping not saved", zap.String("platform", platform.String()), zap.Error(err))
	}
	return result
}

// UpdateListing fans an update out across the platforms the property is
// currently listed on. The remote resource is addressed through the
// ExternalListing mapping; platforms without a mapping fail fast.
func (o *Orchestrator) UpdateListing(ctx context.Context, property *syndication.Property, platforms []syndication.Platform, actor string) (*syndication.PublishingJob, error) {
	if property == nil {
		return nil, syndication.ErrListingMissingProperty
	}
	listings, err := o.loadListings(ctx)
	if err != nil {
		return nil, err
	}

	job := syndication.NewPublishingJob(property.ID, platforms, o.nowFn())
	for i, platform := range platforms {
		job.AddResult(o.updateOne(ctx, platform, property, listings))
		if i < len(platforms)-1 && o.platformDelay > 0 {
			o.sleepFn(o.platformDelay)
		}
	}
	job.Complete(o.nowFn())

	if err := o.appendJob(ctx, job); err != nil {
		return nil, err
	}
	o.audit(ctx, actor, "update_listing",
		fmt.Sprintf("property %s: %d updated, %d failed", property.ID, job.SuccessCount, job.FailureCount),
		job.FailureCount == 0)
	return job, nil
}

func (o *Orchestrator) updateOne(ctx context.Context, platform syndication.Platform, property *syndication.Property, listings map[string]syndication.ExternalListing) syndication.PublishingResult {
	result := syndication.PublishingResult{Platform: platform, Status: syndication.ResultStatusFailed}

	if _, connected := o.state(platform); !connected {
		result.Error = "Platform not connected"
		return result
	}
	listing, ok := listings[syndication.ExternalListingKey(property.ID, platform)]
	if !ok {
		result.Error = syndication.ErrListingNotFound.Error()
		return result
	}
	adapter, err := o.registry.Adapter(platform)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	data, err := adapter.TransformProperty(property)
	if err != nil {
		result.Error = fmt.Sprintf("transform failed: %v", err)
		return result
	}
	if validation := adapter.ValidateListing(data); !validation.Valid {
		result.Error = fmt.Sprintf("validation failed: %v", validation.Errors)
		return result
	}

	resp, err := adapter.UpdateListing(ctx, listing.ExternalID, data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Status = syndication.ResultStatusPublished
	result.ExternalID = resp.ExternalID
	result.ListingURL = resp.ListingURL
	result.Message = resp.Message

	listing.Status = resp.Status
	if resp.ListingURL != "" {
		listing.ListingURL = resp.ListingURL
	}
	if err := o.upsertListing(ctx, listing); err != nil {
		o.logger.Error("external listing mapping not saved", zap.String("platform", platform.String()), zap.Error(err))
	}
	return result
}

// RemoveListing takes the property down from the requested platforms and
// deletes the mappings that were successfully removed.
func (o *Orchestrator) RemoveListing(ctx context.Context, propertyID string, platforms []syndication.Platform, actor string) (*syndication.PublishingJob, error) {
	listings, err := o.loadListings(ctx)
	if err != nil {
		return nil, err
	}

	job := syndication.NewPublishingJob(propertyID, platforms, o.nowFn())
	for i, platform := range platforms {
		result := syndication.PublishingResult{Platform: platform, Status: syndication.ResultStatusFailed}

		key := syndication.ExternalListingKey(propertyID, platform)
		listing, ok := listings[key]
		if _, connected := o.state(platform); !connected {
			result.Error = "Platform not connected"
		} else if !ok {
			result.Error = syndication.ErrListingNotFound.Error()
		} else if adapter, err := o.registry.Adapter(platform); err != nil {
			result.Error = err.Error()
		} else if err := adapter.RemoveListing(ctx, listing.ExternalID); err != nil {
			result.Error = err.Error()
		} else {
			result.Status = syndication.ResultStatusPublished
			result.ExternalID = listing.ExternalID
			result.Message = "listing removed"
			if err := o.deleteListing(ctx, key); err != nil {
				o.logger.Error("external listing mapping not deleted", zap.String("platform", platform.String()), zap.Error(err))
			}
		}

		job.AddResult(result)
		if i < len(platforms)-1 && o.platformDelay > 0 {
			o.sleepFn(o.platformDelay)
		}
	}
	job.Complete(o.nowFn())

	if err := o.appendJob(ctx, job); err != nil {
		return nil, err
	}
	o.audit(ctx, actor, "remove_listing",
		fmt.Sprintf("property %s: %d removed, %d failed", propertyID, job.SuccessCount, job.FailureCount),
		job.FailureCount == 0)
	return job, nil
}

// GetAnalytics collects per-platform analytics for a time range. Platforms
// that fail are logged and skipped.
func (o *Orchestrator) GetAnalytics(ctx context.Context, platforms []syndication.Platform, rng syndication.AnalyticsRange) map[syndication.Platform]*syndication.AnalyticsReport {
	reports := make(map[syndication.Platform]*syndication.AnalyticsReport)
	for _, platform := range platforms {
		if _, connected := o.state(platform); !connected {
			continue
		}
		adapter, err := o.registry.Adapter(platform)
		if err != nil {
			continue
		}
		report, err := adapter.GetAnalytics(ctx, rng)
		if err != nil {
			o.logger.Warn("analytics fetch failed", zap.String("platform", platform.String()), zap.Error(err))
			continue
		}
		reports[platform] = report
	}
	return reports
}

// ---------------------------------------------------------------------------
// State & Store Helpers
// ---------------------------------------------------------------------------

// ExternalListings returns the current (property, platform) mappings
func (o *Orchestrator) ExternalListings(ctx context.Context) (map[string]syndication.ExternalListing, error) {
	return o.loadListings(ctx)
}

// Jobs returns the persisted job history, newest last
func (o *Orchestrator) Jobs(ctx context.Context) ([]syndication.PublishingJob, error) {
	var jobs []syndication.PublishingJob
	if _, err := o.store.Get(ctx, syndication.StoreKeyJobs, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (o *Orchestrator) state(platform syndication.Platform) (syndication.ConnectionState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, ok := o.states[platform]
	return state, ok && state.Connected
}

func (o *Orchestrator) setState(platform syndication.Platform, state syndication.ConnectionState) {
	o.mu.Lock()
	o.states[platform] = state
	o.mu.Unlock()
}

func (o *Orchestrator) credentialSnapshot(adapter syndication.ChannelAdapter, fallback *syndication.AuthConfig) syndication.AuthConfig {
	if reporter, ok := adapter.(syndication.CredentialReporter); ok {
		return reporter.AuthConfigSnapshot()
	}
	if fallback != nil {
		return *fallback
	}
	return syndication.AuthConfig{Platform: adapter.Platform()}
}

func (o *Orchestrator) loadAuthConfigs(ctx context.Context) (map[syndication.Platform]syndication.AuthConfig, error) {
	configs := make(map[syndication.Platform]syndication.AuthConfig)
	if _, err := o.store.Get(ctx, syndication.StoreKeyAuthConfigs, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (o *Orchestrator) saveAuthConfig(ctx context.Context, platform syndication.Platform, cfg syndication.AuthConfig) error {
	o.storeMu.Lock()
	defer o.storeMu.Unlock()
	configs, err := o.loadAuthConfigs(ctx)
	if err != nil {
		return err
	}
	cfg.Platform = platform
	configs[platform] = cfg
	return o.store.Set(ctx, syndication.StoreKeyAuthConfigs, configs)
}

func (o *Orchestrator) loadListings(ctx context.Context) (map[string]syndication.ExternalListing, error) {
	listings := make(map[string]syndication.ExternalListing)
	if _, err := o.store.Get(ctx, syndication.StoreKeyListings, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (o *Orchestrator) upsertListing(ctx context.Context, listing syndication.ExternalListing) error {
	o.storeMu.Lock()
	defer o.storeMu.Unlock()
	listings, err := o.loadListings(ctx)
	if err != nil {
		return err
	}
	listings[listing.Key()] = listing
	return o.store.Set(ctx, syndication.StoreKeyListings, listings)
}

func (o *Orchestrator) deleteListing(ctx context.Context, key string) error {
	o.storeMu.Lock()
	defer o.storeMu.Unlock()
	listings, err := o.loadListings(ctx)
	if err != nil {
		return err
	}
	delete(listings, key)
	return o.store.Set(ctx, syndication.StoreKeyListings, listings)
}

func (o *Orchestrator) appendJob(ctx context.Context, job *syndication.PublishingJob) error {
	o.storeMu.Lock()
	defer o.storeMu.Unlock()
	var jobs []syndication.PublishingJob
	if _, err := o.store.Get(ctx, syndication.StoreKeyJobs, &jobs); err != nil {
		return err
	}
	jobs = syndication.CapList(append(jobs, *job), syndication.MaxJobHistory)
	return o.store.Set(ctx, syndication.StoreKeyJobs, jobs)
}

// audit appends to the capped connection/publishing audit log. Audit
// failures are logged, never propagated.
func (o *Orchestrator) audit(ctx context.Context, actor, action, message string, success bool) {
	o.storeMu.Lock()
	defer o.storeMu.Unlock()
	var entries []syndication.AuditEntry
	if _, err := o.store.Get(ctx, syndication.StoreKeyAuditLog, &entries); err != nil {
		o.logger.Error("audit log read failed", zap.Error(err))
		return
	}
	entries = syndication.CapList(append(entries, syndication.AuditEntry{
		Timestamp: o.nowFn(),
		Actor:     actor,
		Action:    action,
		Message:   message,
		Success:   success,
	}), syndication.MaxAuditEntries)
	if err := o.store.Set(ctx, syndication.StoreKeyAuditLog, entries); err != nil {
		o.logger.Error("audit log write failed", zap.Error(err))
	}
}
