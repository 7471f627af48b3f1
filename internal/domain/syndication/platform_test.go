package syndication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlatform_IsValid(t *testing.T) {
	for _, p := range AllPlatforms() {
		assert.True(t, p.IsValid(), "platform %s should be valid", p)
	}
	assert.False(t, Platform("").IsValid())
	assert.False(t, Platform("myspace").IsValid())
}

func TestPlatform_AuthFamily(t *testing.T) {
	tests := []struct {
		platform Platform
		family   AuthFamily
	}{
		{PlatformZillow, AuthFamilyOAuth},
		{PlatformTrulia, AuthFamilyOAuth},
		{PlatformFacebookMarketplace, AuthFamilyOAuth},
		{PlatformApartmentsCom, AuthFamilyAPIKey},
		{PlatformZumper, AuthFamilyAPIKey},
		{PlatformHomesCom, AuthFamilyAPIKey},
		{PlatformCraigslist, AuthFamilyCredentials},
		{PlatformPadmapper, AuthFamilyCredentials},
		{PlatformRentberry, AuthFamilyCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.platform.String(), func(t *testing.T) {
			assert.Equal(t, tt.family, tt.platform.AuthFamily())
		})
	}

	// Every platform must belong to a valid family
	for _, p := range AllPlatforms() {
		assert.True(t, p.AuthFamily().IsValid(), "platform %s has no auth family", p)
	}
}

func TestPlatform_DisplayName(t *testing.T) {
	assert.Equal(t, "Apartments.com", PlatformApartmentsCom.DisplayName())
	assert.Equal(t, "Zillow", PlatformZillow.DisplayName())
	// Unknown platforms fall back to the raw code
	assert.Equal(t, "unknown", Platform("unknown").DisplayName())
}

func TestAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *AuthConfig
		wantErr error
	}{
		{
			name: "valid oauth config",
			config: &AuthConfig{
				Platform:     PlatformZillow,
				ClientID:     "client",
				ClientSecret: "secret",
			},
			wantErr: nil,
		},
		{
			name:    "oauth missing client id",
			config:  &AuthConfig{Platform: PlatformZillow, ClientSecret: "secret"},
			wantErr: ErrAuthMissingClientID,
		},
		{
			name:    "oauth missing client secret",
			config:  &AuthConfig{Platform: PlatformZillow, ClientID: "client"},
			wantErr: ErrAuthMissingClientSecret,
		},
		{
			name:    "valid api key config",
			config:  &AuthConfig{Platform: PlatformApartmentsCom, APIKey: "key"},
			wantErr: nil,
		},
		{
			name:    "api key missing",
			config:  &AuthConfig{Platform: PlatformApartmentsCom},
			wantErr: ErrAuthMissingAPIKey,
		},
		{
			name:    "valid credentials config",
			config:  &AuthConfig{Platform: PlatformCraigslist, Username: "u", Password: "p"},
			wantErr: nil,
		},
		{
			name:    "credentials missing password",
			config:  &AuthConfig{Platform: PlatformCraigslist, Username: "u"},
			wantErr: ErrAuthMissingCredentials,
		},
		{
			name:    "unsupported platform",
			config:  &AuthConfig{Platform: "myspace"},
			wantErr: ErrPlatformUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthConfig_HasUsableToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	cfg := &AuthConfig{Platform: PlatformZillow}
	assert.False(t, cfg.HasUsableToken(now))

	cfg.AccessToken = "token"
	assert.True(t, cfg.HasUsableToken(now), "token without expiry is usable")

	cfg.TokenExpiresAt = now.Add(-1)
	assert.False(t, cfg.HasUsableToken(now))

	cfg.TokenExpiresAt = now.Add(1)
	assert.True(t, cfg.HasUsableToken(now))
}
