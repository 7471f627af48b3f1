// Package syndication contains the domain model for publishing property
// listings to external rental marketplaces.
//
// It defines the closed set of supported platforms, the canonical listing
// representation, the ChannelAdapter port every marketplace integration
// implements, and the value objects shared by the publishing orchestrator
// and the webhook pipeline. Concrete adapters live in
// internal/infrastructure/channels; this package has no outbound
// dependencies beyond uuid and decimal.
package syndication
