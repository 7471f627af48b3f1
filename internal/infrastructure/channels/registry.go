package channels

import (
	"fmt"
	"net/http"
	"time"

	"github.com/propman/backend/internal/domain/syndication"
)

// Registry holds one adapter per supported platform, built once at startup.
// The platform set is closed; platforms without a real integration get the
// stub so every lookup succeeds for valid platforms.
type Registry struct {
	adapters map[syndication.Platform]syndication.ChannelAdapter
}

// NewRegistry builds the full adapter set sharing one HTTP client. A zero
// timeout selects 30 seconds.
func NewRegistry(httpTimeout time.Duration) *Registry {
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	client := &http.Client{Timeout: httpTimeout}

	adapters := make(map[syndication.Platform]syndication.ChannelAdapter)
	for _, platform := range syndication.AllPlatforms() {
		adapters[platform] = buildAdapter(platform, client)
	}
	return &Registry{adapters: adapters}
}

// buildAdapter constructs the adapter for one platform
func buildAdapter(platform syndication.Platform, client *http.Client) syndication.ChannelAdapter {
	switch platform {
	case syndication.PlatformZillow:
		return NewZillowAdapter(client)
	case syndication.PlatformFacebookMarketplace:
		return NewFacebookAdapter(client)
	case syndication.PlatformApartmentsCom:
		return NewApartmentsAdapter(client)
	case syndication.PlatformZumper:
		return NewZumperAdapter(client)
	case syndication.PlatformCraigslist:
		return NewCraigslistAdapter(client)
	default:
		return NewStubAdapter(platform)
	}
}

// Adapter returns the adapter for the given platform
func (r *Registry) Adapter(platform syndication.Platform) (syndication.ChannelAdapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", syndication.ErrPlatformUnsupported, platform)
	}
	return adapter, nil
}

// Adapters returns every registered adapter keyed by platform
func (r *Registry) Adapters() map[syndication.Platform]syndication.ChannelAdapter {
	out := make(map[syndication.Platform]syndication.ChannelAdapter, len(r.adapters))
	for platform, adapter := range r.adapters {
		out[platform] = adapter
	}
	return out
}

var _ syndication.AdapterRegistry = (*Registry)(nil)
