package channels

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propman/backend/internal/domain/syndication"
)

// craigslistTestServer extends the login server with posting endpoints
func craigslistTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "cl_session", Value: "pre-login"})
		fmt.Fprint(w, `<input type="hidden" name="csrf_token" value="tok-9"/>`)
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "cl_session", Value: "logged-in"})
		fmt.Fprint(w, "your account - logout")
	})
	mux.HandleFunc("POST /post", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("cl_session"); err != nil || c.Value != "logged-in" {
			fmt.Fprint(w, "invalid session")
			return
		}
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("PostingTitle") == "" {
			fmt.Fprint(w, "posting rejected")
			return
		}
		fmt.Fprint(w, "<html>thanks for posting! posting id: 7613349021</html>")
	})
	mux.HandleFunc("POST /manage/7613349021/delete", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "posting deleted")
	})
	mux.HandleFunc("GET /manage/7613349021", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "posting status: active")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newConnectedCraigslist(t *testing.T) *CraigslistAdapter {
	t.Helper()
	srv := craigslistTestServer(t)
	adapter := NewCraigslistAdapterWithURLs(srv.URL, srv.URL+"/login", srv.Client())
	_, err := adapter.Initialize(context.Background(), &syndication.AuthConfig{
		Platform: syndication.PlatformCraigslist,
		Username: "lister",
		Password: "hunter2",
	})
	require.NoError(t, err)
	return adapter
}

func TestCraigslistAdapter_TransformProperty(t *testing.T) {
	adapter := NewCraigslistAdapter(nil)

	data, err := adapter.TransformProperty(testProperty())
	require.NoError(t, err)

	// Titles follow the site convention: rent and bedroom count up front
	assert.Equal(t, "$2450 / 2br - Sunny 2BR near the park", data.Title)
	assert.LessOrEqual(t, len([]rune(data.Title)), craigslistMaxTitleLength)

	result := adapter.ValidateListing(data)
	assert.True(t, result.Valid)
}

func TestCraigslistAdapter_PublishListing(t *testing.T) {
	adapter := newConnectedCraigslist(t)

	data, err := adapter.TransformProperty(testProperty())
	require.NoError(t, err)

	resp, err := adapter.PublishListing(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "7613349021", resp.ExternalID)
	assert.Equal(t, syndication.ListingStatusPublished, resp.Status)
	assert.Contains(t, resp.ListingURL, "/posting/7613349021")
}

func TestCraigslistAdapter_RemoveAndStatus(t *testing.T) {
	adapter := newConnectedCraigslist(t)
	ctx := context.Background()

	status, err := adapter.GetListingStatus(ctx, "7613349021")
	require.NoError(t, err)
	assert.Equal(t, syndication.ListingStatusPublished, status)

	assert.NoError(t, adapter.RemoveListing(ctx, "7613349021"))
}

func TestCraigslistAdapter_GetAnalyticsIsEmpty(t *testing.T) {
	adapter := NewCraigslistAdapter(nil)
	report, err := adapter.GetAnalytics(context.Background(), syndication.AnalyticsRange{})
	require.NoError(t, err)
	assert.Zero(t, report.Views)
	assert.Equal(t, syndication.PlatformCraigslist, report.Platform)
}

func TestCraigslistAdapter_ClassifyWebhook(t *testing.T) {
	adapter := NewCraigslistAdapter(nil)

	action, err := adapter.ClassifyWebhook(map[string]any{"action": "reply_received"})
	require.NoError(t, err)
	assert.Equal(t, syndication.WebhookActionLeadReceived, action)

	_, err = adapter.ClassifyWebhook(map[string]any{"action": "post_vanished"})
	assert.ErrorIs(t, err, syndication.ErrWebhookUnknownEvent)
}
