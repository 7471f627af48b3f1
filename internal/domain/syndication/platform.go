package syndication

// ---------------------------------------------------------------------------
// Platform
// ---------------------------------------------------------------------------

// Platform identifies an external listing marketplace.
// The set is closed; adding a platform means extending AllPlatforms,
// AuthFamily and the adapter registry together.
type Platform string

const (
	// PlatformZillow represents Zillow Rental Manager
	PlatformZillow Platform = "zillow"
	// PlatformTrulia represents Trulia Rentals
	PlatformTrulia Platform = "trulia"
	// PlatformHotpads represents HotPads
	PlatformHotpads Platform = "hotpads"
	// PlatformRealtorCom represents Realtor.com
	PlatformRealtorCom Platform = "realtor_com"
	// PlatformFacebookMarketplace represents Facebook Marketplace
	PlatformFacebookMarketplace Platform = "facebook_marketplace"
	// PlatformApartmentsCom represents Apartments.com
	PlatformApartmentsCom Platform = "apartments_com"
	// PlatformRentCom represents Rent.com
	PlatformRentCom Platform = "rent_com"
	// PlatformZumper represents Zumper
	PlatformZumper Platform = "zumper"
	// PlatformApartmentList represents Apartment List
	PlatformApartmentList Platform = "apartment_list"
	// PlatformRentalsCom represents Rentals.com
	PlatformRentalsCom Platform = "rentals_com"
	// PlatformHomesCom represents Homes.com
	PlatformHomesCom Platform = "homes_com"
	// PlatformDoorsteps represents Doorsteps
	PlatformDoorsteps Platform = "doorsteps"
	// PlatformCraigslist represents Craigslist
	PlatformCraigslist Platform = "craigslist"
	// PlatformPadmapper represents PadMapper
	PlatformPadmapper Platform = "padmapper"
	// PlatformRentberry represents Rentberry
	PlatformRentberry Platform = "rentberry"
)

// AllPlatforms returns every supported platform in stable order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformZillow,
		PlatformTrulia,
		PlatformHotpads,
		PlatformRealtorCom,
		PlatformFacebookMarketplace,
		PlatformApartmentsCom,
		PlatformRentCom,
		PlatformZumper,
		PlatformApartmentList,
		PlatformRentalsCom,
		PlatformHomesCom,
		PlatformDoorsteps,
		PlatformCraigslist,
		PlatformPadmapper,
		PlatformRentberry,
	}
}

// IsValid returns true if the platform is part of the supported set.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformZillow, PlatformTrulia, PlatformHotpads, PlatformRealtorCom,
		PlatformFacebookMarketplace, PlatformApartmentsCom, PlatformRentCom,
		PlatformZumper, PlatformApartmentList, PlatformRentalsCom,
		PlatformHomesCom, PlatformDoorsteps, PlatformCraigslist,
		PlatformPadmapper, PlatformRentberry:
		return true
	default:
		return false
	}
}

// String returns the string representation of the platform.
func (p Platform) String() string {
	return string(p)
}

// DisplayName returns a human-readable name for the platform.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformZillow:
		return "Zillow"
	case PlatformTrulia:
		return "Trulia"
	case PlatformHotpads:
		return "HotPads"
	case PlatformRealtorCom:
		return "Realtor.com"
	case PlatformFacebookMarketplace:
		return "Facebook Marketplace"
	case PlatformApartmentsCom:
		return "Apartments.com"
	case PlatformRentCom:
		return "Rent.com"
	case PlatformZumper:
		return "Zumper"
	case PlatformApartmentList:
		return "Apartment List"
	case PlatformRentalsCom:
		return "Rentals.com"
	case PlatformHomesCom:
		return "Homes.com"
	case PlatformDoorsteps:
		return "Doorsteps"
	case PlatformCraigslist:
		return "Craigslist"
	case PlatformPadmapper:
		return "PadMapper"
	case PlatformRentberry:
		return "Rentberry"
	default:
		return string(p)
	}
}

// ---------------------------------------------------------------------------
// AuthFamily
// ---------------------------------------------------------------------------

// AuthFamily classifies how a platform proves identity.
type AuthFamily string

const (
	// AuthFamilyOAuth is delegated authorization: code exchange, bearer
	// tokens with refresh.
	AuthFamilyOAuth AuthFamily = "oauth"
	// AuthFamilyAPIKey is a static key (optionally key+secret) sent on
	// every request.
	AuthFamilyAPIKey AuthFamily = "api_key"
	// AuthFamilyCredentials is username/password session emulation against
	// platforms with no structured auth API.
	AuthFamilyCredentials AuthFamily = "credentials"
)

// IsValid returns true if the auth family is known.
func (f AuthFamily) IsValid() bool {
	switch f {
	case AuthFamilyOAuth, AuthFamilyAPIKey, AuthFamilyCredentials:
		return true
	default:
		return false
	}
}

// String returns the string representation of the auth family.
func (f AuthFamily) String() string {
	return string(f)
}

// AuthFamily returns the authentication family the platform belongs to.
func (p Platform) AuthFamily() AuthFamily {
	switch p {
	case PlatformZillow, PlatformTrulia, PlatformHotpads,
		PlatformRealtorCom, PlatformFacebookMarketplace:
		return AuthFamilyOAuth
	case PlatformApartmentsCom, PlatformRentCom, PlatformZumper,
		PlatformApartmentList, PlatformRentalsCom, PlatformHomesCom,
		PlatformDoorsteps:
		return AuthFamilyAPIKey
	case PlatformCraigslist, PlatformPadmapper, PlatformRentberry:
		return AuthFamilyCredentials
	default:
		return ""
	}
}
