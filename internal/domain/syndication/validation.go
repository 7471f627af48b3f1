package syndication

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Shared validation and formatting helpers used by every adapter so that
// platform subclasses only carry platform-specific logic.

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\-\s().]{6,18}$`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsValidPhone reports whether s looks like a phone number.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// InRange reports whether d lies within [min, max]. A zero max means
// unbounded above.
func InRange(d, min, max decimal.Decimal) bool {
	if d.LessThan(min) {
		return false
	}
	if !max.IsZero() && d.GreaterThan(max) {
		return false
	}
	return true
}

// SanitizeText strips markup and collapses whitespace. Listing titles and
// descriptions pass through here before any platform transform.
func SanitizeText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TruncateText shortens s to at most max runes, appending an ellipsis when
// truncation happened. A non-positive max leaves s untouched.
func TruncateText(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// TruncatePhotos limits the photo list to the platform's maximum. A
// non-positive max leaves the list untouched.
func TruncatePhotos(urls []string, max int) []string {
	if max <= 0 || len(urls) <= max {
		return urls
	}
	return urls[:max]
}

// FormatCurrency renders an amount for human-readable messages, e.g.
// "USD 1,250.00".
func FormatCurrency(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	whole := amount.Floor()
	frac := amount.Sub(whole).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	digits := whole.String()
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s %s%s.%02d", currency, sign, strings.Join(groups, ","), frac)
}

// ParseAddress splits a single-line address into components. It is a naive
// "street, city, state zip" split; adapters use it only when the caller
// provides an unstructured address.
func ParseAddress(line string) Address {
	var addr Address
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch len(parts) {
	case 0:
		return addr
	case 1:
		addr.Street = parts[0]
	case 2:
		addr.Street = parts[0]
		addr.City = parts[1]
	default:
		addr.Street = strings.Join(parts[:len(parts)-2], ", ")
		addr.City = parts[len(parts)-2]
		tail := strings.Fields(parts[len(parts)-1])
		if len(tail) > 0 {
			addr.State = tail[0]
		}
		if len(tail) > 1 {
			addr.PostalCode = tail[1]
		}
	}
	return addr
}

// ValidateAgainstRules applies a platform rule table to canonical listing
// data. It is the shared engine behind every adapter's ValidateListing.
func ValidateAgainstRules(data *ListingData, rules ValidationRules) *ValidationResult {
	result := &ValidationResult{Valid: true, Errors: []string{}}
	if data == nil {
		result.AddError("listing data is required")
		return result
	}

	for _, field := range rules.RequiredFields {
		if !hasField(data, field) {
			result.AddError(fmt.Sprintf("required field missing: %s", field))
		}
	}

	if !rules.MinPrice.IsZero() || !rules.MaxPrice.IsZero() {
		if !InRange(data.Price, rules.MinPrice, rules.MaxPrice) {
			result.AddError(fmt.Sprintf("price %s outside allowed range [%s, %s]",
				data.Price, rules.MinPrice, rules.MaxPrice))
		}
	}
	if rules.MaxPhotos > 0 && len(data.PhotoURLs) > rules.MaxPhotos {
		result.AddError(fmt.Sprintf("too many photos: %d (max %d)", len(data.PhotoURLs), rules.MaxPhotos))
	}
	if rules.MaxDescriptionLength > 0 && len([]rune(data.Description)) > rules.MaxDescriptionLength {
		result.AddError(fmt.Sprintf("description too long: %d characters (max %d)",
			len([]rune(data.Description)), rules.MaxDescriptionLength))
	}
	if data.Bedrooms < rules.MinBedrooms {
		result.AddError(fmt.Sprintf("bedrooms %d below minimum %d", data.Bedrooms, rules.MinBedrooms))
	}
	if data.ContactEmail != "" && !IsValidEmail(data.ContactEmail) {
		result.AddError("contact email is invalid")
	}
	if data.ContactPhone != "" && !IsValidPhone(data.ContactPhone) {
		result.AddError("contact phone is invalid")
	}

	return result
}

// hasField reports whether the named ListingData field is populated.
// Field names match the rule tables, not Go identifiers.
func hasField(data *ListingData, field string) bool {
	switch field {
	case "title":
		return data.Title != ""
	case "description":
		return data.Description != ""
	case "price":
		return IsPositive(data.Price)
	case "address":
		return data.Address.IsComplete()
	case "bedrooms":
		return data.Bedrooms > 0
	case "photos":
		return len(data.PhotoURLs) > 0
	case "contact_email":
		return data.ContactEmail != ""
	case "contact_phone":
		return data.ContactPhone != ""
	case "available_from":
		return !data.AvailableFrom.IsZero()
	case "property_type":
		return data.PropertyType != ""
	default:
		return false
	}
}
