package syndication

import "errors"

var (
	// Platform errors
	ErrPlatformUnsupported     = errors.New("syndication: unsupported platform")
	ErrPlatformNotConnected    = errors.New("syndication: platform not connected")
	ErrPlatformNotImplemented  = errors.New("syndication: platform integration coming soon")
	ErrPlatformUnavailable     = errors.New("syndication: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("syndication: platform request failed")
	ErrPlatformInvalidResponse = errors.New("syndication: invalid platform response")

	// Authentication errors
	ErrAuthMissingClientID     = errors.New("syndication: client id is required")
	ErrAuthMissingClientSecret = errors.New("syndication: client secret is required")
	ErrAuthMissingAPIKey       = errors.New("syndication: api key is required")
	ErrAuthMissingCredentials  = errors.New("syndication: username and password are required")
	ErrAuthFailed              = errors.New("syndication: platform authentication failed")
	ErrAuthTokenExpired        = errors.New("syndication: platform token expired")
	ErrAuthNoRefreshToken      = errors.New("syndication: no refresh token available")
	ErrAuthSessionInvalid      = errors.New("syndication: platform session is no longer valid")

	// Listing errors
	ErrListingValidationFailed = errors.New("syndication: listing failed platform validation")
	ErrListingNotFound         = errors.New("syndication: external listing not found")
	ErrListingMissingProperty  = errors.New("syndication: property data is required")

	// Template and schedule errors
	ErrTemplateNotFound  = errors.New("syndication: publishing template not found")
	ErrTemplateNameEmpty = errors.New("syndication: template name is required")
	ErrTemplateSystem    = errors.New("syndication: system templates cannot be changed")
	ErrScheduleInPast    = errors.New("syndication: scheduled time must be in the future")

	// Webhook errors
	ErrWebhookInvalidSignature = errors.New("syndication: invalid webhook signature")
	ErrWebhookUnknownEvent     = errors.New("syndication: unknown webhook event type")
	ErrWebhookDuplicateEvent   = errors.New("syndication: duplicate webhook delivery")
	ErrWebhookQueueFull        = errors.New("syndication: webhook queue is full")
)
