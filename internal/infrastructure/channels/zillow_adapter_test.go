package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propman/backend/internal/domain/syndication"
)

// testProperty is a fixture satisfying every concrete platform's rules
func testProperty() *syndication.Property {
	return &syndication.Property{
		ID:              "prop-42",
		Title:           "Sunny 2BR near the park",
		Description:     "Bright two-bedroom with in-unit laundry and parking.",
		RentAmount:      decimal.NewFromInt(2450),
		SecurityDeposit: decimal.NewFromInt(2450),
		Currency:        "USD",
		Street:          "18 Elm Street",
		City:            "Portland",
		State:           "OR",
		PostalCode:      "97201",
		Bedrooms:        2,
		Bathrooms:       1.5,
		AreaSqFt:        960,
		PropertyType:    "apartment",
		Amenities:       []string{"laundry", "parking"},
		PhotoURLs:       []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"},
		AvailableFrom:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		LeaseTermMonths: 12,
		PetsAllowed:     true,
		ContactName:     "Dana",
		ContactEmail:    "dana@example.com",
		ContactPhone:    "+1 503 555 0100",
	}
}

func newConnectedZillow(t *testing.T, handler http.Handler) *ZillowAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	adapter := NewZillowAdapterWithEndpoints(OAuthEndpoints{
		AuthorizeURL: srv.URL + "/oauth/authorize",
		TokenURL:     srv.URL + "/oauth/token",
		APIBaseURL:   srv.URL,
	}, srv.Client())

	cfg := oauthConfig()
	cfg.AccessToken = "live-token"
	cfg.TokenExpiresAt = time.Now().Add(time.Hour)
	_, err := adapter.Initialize(context.Background(), cfg)
	require.NoError(t, err)
	return adapter
}

func TestZillowAdapter_TransformAndValidate(t *testing.T) {
	adapter := NewZillowAdapter(nil)

	t.Run("valid property round-trips clean", func(t *testing.T) {
		data, err := adapter.TransformProperty(testProperty())
		require.NoError(t, err)

		result := adapter.ValidateListing(data)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("nil property", func(t *testing.T) {
		_, err := adapter.TransformProperty(nil)
		assert.ErrorIs(t, err, syndication.ErrListingMissingProperty)
	})

	t.Run("markup is stripped and long text truncated", func(t *testing.T) {
		p := testProperty()
		p.Title = "<b>Sunny</b>  \t 2BR"
		p.Description = strings.Repeat("roomy ", 2000)

		data, err := adapter.TransformProperty(p)
		require.NoError(t, err)
		assert.Equal(t, "Sunny 2BR", data.Title)
		assert.LessOrEqual(t, len([]rune(data.Description)), zillowMaxDescriptionLength)
	})

	t.Run("photos truncated to platform limit", func(t *testing.T) {
		p := testProperty()
		p.PhotoURLs = make([]string, zillowMaxPhotos+10)
		for i := range p.PhotoURLs {
			p.PhotoURLs[i] = "https://cdn.example.com/p.jpg"
		}
		data, err := adapter.TransformProperty(p)
		require.NoError(t, err)
		assert.Len(t, data.PhotoURLs, zillowMaxPhotos)
	})

	t.Run("missing address fails validation", func(t *testing.T) {
		p := testProperty()
		p.Street = ""
		data, err := adapter.TransformProperty(p)
		require.NoError(t, err)

		result := adapter.ValidateListing(data)
		assert.False(t, result.Valid)
		require.NotEmpty(t, result.Errors)
		assert.Contains(t, result.Errors[0], "address")
	})
}

func TestZillowAdapter_PublishListing(t *testing.T) {
	var gotPayload zillowListingPayload
	adapter := newConnectedZillow(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/listings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(zillowListingResponse{
			ListingID: "zl-100",
			URL:       "https://zillow.example.com/zl-100",
			Status:    "active",
		})
	}))

	data, err := adapter.TransformProperty(testProperty())
	require.NoError(t, err)

	resp, err := adapter.PublishListing(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "zl-100", resp.ExternalID)
	assert.Equal(t, syndication.ListingStatusPublished, resp.Status)
	assert.Equal(t, "2450.00", gotPayload.MonthlyRent)
	assert.Equal(t, "Portland", gotPayload.City)
	assert.Equal(t, "2026-09-01", gotPayload.AvailableOn)
}

func TestZillowAdapter_UpdateAndRemove(t *testing.T) {
	adapter := newConnectedZillow(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/listings/zl-100":
			json.NewEncoder(w).Encode(zillowListingResponse{ListingID: "zl-100", Status: "pending_review"})
		case r.Method == http.MethodDelete && r.URL.Path == "/listings/zl-100":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	data, err := adapter.TransformProperty(testProperty())
	require.NoError(t, err)

	resp, err := adapter.UpdateListing(context.Background(), "zl-100", data)
	require.NoError(t, err)
	assert.Equal(t, syndication.ListingStatusPending, resp.Status)

	assert.NoError(t, adapter.RemoveListing(context.Background(), "zl-100"))
}

func TestZillowAdapter_GetAnalytics(t *testing.T) {
	adapter := newConnectedZillow(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analytics", r.URL.Path)
		json.NewEncoder(w).Encode(zillowAnalyticsResponse{Views: 340, Inquiries: 12, Saves: 57})
	}))

	rng := syndication.AnalyticsRange{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
	report, err := adapter.GetAnalytics(context.Background(), rng)
	require.NoError(t, err)
	assert.Equal(t, int64(340), report.Views)
	assert.Equal(t, int64(12), report.Inquiries)
	assert.Equal(t, syndication.PlatformZillow, report.Platform)
}

func TestZillowAdapter_ClassifyWebhook(t *testing.T) {
	adapter := NewZillowAdapter(nil)

	tests := []struct {
		eventType string
		want      syndication.WebhookAction
	}{
		{"listing.activated", syndication.WebhookActionListingPublished},
		{"listing.updated", syndication.WebhookActionListingUpdated},
		{"listing.deleted", syndication.WebhookActionListingRemoved},
		{"listing.expired", syndication.WebhookActionListingExpired},
		{"listing.declined", syndication.WebhookActionListingRejected},
		{"lead.created", syndication.WebhookActionLeadReceived},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			action, err := adapter.ClassifyWebhook(map[string]any{"event_type": tt.eventType})
			require.NoError(t, err)
			assert.Equal(t, tt.want, action)
		})
	}

	t.Run("unknown event", func(t *testing.T) {
		_, err := adapter.ClassifyWebhook(map[string]any{"event_type": "listing.sparkled"})
		assert.ErrorIs(t, err, syndication.ErrWebhookUnknownEvent)
	})

	t.Run("missing discriminator", func(t *testing.T) {
		_, err := adapter.ClassifyWebhook(map[string]any{"data": "x"})
		assert.ErrorIs(t, err, syndication.ErrWebhookUnknownEvent)
	})
}
