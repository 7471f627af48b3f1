package channels

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/propman/backend/internal/domain/syndication"
)

// ResponseClassifier judges whether an HTML response indicates a logged-in
// session. Platforms in the credential family have no structured auth API,
// so success is inferred from page text; keeping the heuristic pluggable
// isolates it per platform and makes it independently testable.
type ResponseClassifier func(statusCode int, body string) error

// DefaultLoginClassifier is the shared heuristic: an error page mentions
// "invalid" or "incorrect", a logged-in page shows account markers.
func DefaultLoginClassifier(statusCode int, body string) error {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "incorrect") {
		return syndication.ErrAuthFailed
	}
	if statusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", syndication.ErrAuthFailed, statusCode)
	}
	if strings.Contains(lower, "account") || strings.Contains(lower, "logout") {
		return nil
	}
	return syndication.ErrAuthFailed
}

// SessionBase is the strategy base for platforms authenticated by emulating
// a browser login: fetch the login page for a session cookie and
// anti-forgery token, POST the credentials, then attach the captured cookie
// to every later request. There is no token refresh; refreshing means
// logging in again.
type SessionBase struct {
	platform syndication.Platform
	baseURL  string
	loginURL string
	// tokenField is the hidden form field carrying the anti-forgery token
	tokenField string
	classify   ResponseClassifier

	httpClient *http.Client

	mu      sync.RWMutex
	cfg     *syndication.AuthConfig
	cookies []*http.Cookie
}

// NewSessionBase creates the base for one platform. A nil classifier
// selects DefaultLoginClassifier.
func NewSessionBase(platform syndication.Platform, baseURL, loginURL, tokenField string, classify ResponseClassifier, client *http.Client) *SessionBase {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if tokenField == "" {
		tokenField = "csrf_token"
	}
	if classify == nil {
		classify = DefaultLoginClassifier
	}
	return &SessionBase{
		platform:   platform,
		baseURL:    baseURL,
		loginURL:   loginURL,
		tokenField: tokenField,
		classify:   classify,
		httpClient: client,
	}
}

// Platform returns the platform this adapter handles
func (b *SessionBase) Platform() syndication.Platform {
	return b.platform
}

// Initialize stores the credentials and performs the login transaction
func (b *SessionBase) Initialize(ctx context.Context, cfg *syndication.AuthConfig) (*syndication.InitializeResult, error) {
	if cfg == nil {
		return nil, syndication.ErrAuthMissingCredentials
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	stored := *cfg
	b.cfg = &stored
	b.mu.Unlock()

	if err := b.login(ctx); err != nil {
		return nil, err
	}
	return &syndication.InitializeResult{
		Connected: true,
		Message:   fmt.Sprintf("%s session established", b.platform.DisplayName()),
	}, nil
}

// Authenticate verifies a live session exists, logging in again if not
func (b *SessionBase) Authenticate(ctx context.Context) error {
	b.mu.RLock()
	haveSession := len(b.cookies) > 0
	b.mu.RUnlock()
	if haveSession {
		return nil
	}
	return b.login(ctx)
}

// RefreshAuthentication re-runs the login transaction
func (b *SessionBase) RefreshAuthentication(ctx context.Context) error {
	return b.login(ctx)
}

// TestConnection fetches the account page with the captured session
func (b *SessionBase) TestConnection(ctx context.Context) error {
	status, body, err := b.doGet(ctx, "/account")
	if err != nil {
		return err
	}
	if err := b.classify(status, body); err != nil {
		return fmt.Errorf("%w: session rejected", syndication.ErrAuthSessionInvalid)
	}
	return nil
}

// AuthConfigSnapshot returns a copy of the stored credentials
func (b *SessionBase) AuthConfigSnapshot() syndication.AuthConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cfg == nil {
		return syndication.AuthConfig{Platform: b.platform}
	}
	return *b.cfg
}

var hiddenInputPattern = regexp.MustCompile(`name="([^"]+)"\s+value="([^"]+)"`)

// login performs the two-step login transaction: GET the login page to
// capture the initial cookie and anti-forgery token, then POST credentials.
func (b *SessionBase) login(ctx context.Context) error {
	b.mu.RLock()
	cfg := b.cfg
	b.mu.RUnlock()
	if cfg == nil {
		return syndication.ErrAuthMissingCredentials
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.loginURL, nil)
	if err != nil {
		return fmt.Errorf("channels: create login request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", syndication.ErrPlatformUnavailable, err)
	}
	pageCookies := resp.Cookies()
	page, err := readResponse(resp)
	if err != nil {
		return err
	}

	token := b.scrapeToken(string(page))

	form := url.Values{
		"username": {cfg.Username},
		"password": {cfg.Password},
	}
	if token != "" {
		form.Set(b.tokenField, token)
	}

	postReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("channels: create login request: %w", err)
	}
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range pageCookies {
		postReq.AddCookie(c)
	}

	postResp, err := b.httpClient.Do(postReq)
	if err != nil {
		return fmt.Errorf("%w: %v", syndication.ErrPlatformUnavailable, err)
	}
	sessionCookies := postResp.Cookies()
	body, readErr := readResponse(postResp)
	// The login POST answers with the account page on success and the login
	// form again on failure, both usually 200; the classifier decides.
	if err := b.classify(postResp.StatusCode, string(body)); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}

	if len(sessionCookies) == 0 {
		sessionCookies = pageCookies
	}
	// A logged-in page without any cookie cannot carry a session; storing an
	// empty jar would report success and then fail every later call.
	if len(sessionCookies) == 0 {
		return fmt.Errorf("%w: login set no session cookie", syndication.ErrAuthSessionInvalid)
	}
	b.mu.Lock()
	b.cookies = sessionCookies
	b.mu.Unlock()
	return nil
}

// scrapeToken extracts the anti-forgery token from the login page HTML
func (b *SessionBase) scrapeToken(page string) string {
	for _, m := range hiddenInputPattern.FindAllStringSubmatch(page, -1) {
		if m[1] == b.tokenField {
			return m[2]
		}
	}
	return ""
}

// doGet fetches a page with the captured session attached
func (b *SessionBase) doGet(ctx context.Context, path string) (int, string, error) {
	return b.do(ctx, http.MethodGet, path, nil)
}

// doForm posts a form with the captured session attached
func (b *SessionBase) doForm(ctx context.Context, path string, form url.Values) (int, string, error) {
	return b.do(ctx, http.MethodPost, path, form)
}

func (b *SessionBase) do(ctx context.Context, method, path string, form url.Values) (int, string, error) {
	b.mu.RLock()
	cookies := b.cookies
	b.mu.RUnlock()
	if len(cookies) == 0 {
		return 0, "", syndication.ErrAuthSessionInvalid
	}

	var reqBody *strings.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	} else {
		reqBody = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return 0, "", fmt.Errorf("channels: create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", syndication.ErrPlatformUnavailable, err)
	}
	body, err := readResponse(resp)
	return resp.StatusCode, string(body), err
}
