package syndication

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"owner@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{" owner@example.com ", true},
		{"owner", false},
		{"owner@", false},
		{"@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+1 (555) 123-4567"))
	assert.True(t, IsValidPhone("5551234567"))
	assert.False(t, IsValidPhone("call me"))
	assert.False(t, IsValidPhone(""))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Bright 2BR apartment",
		SanitizeText("<b>Bright</b>  2BR\n\tapartment "))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 100))
	assert.Equal(t, "short", TruncateText("short", 0))
	got := TruncateText(strings.Repeat("a", 50), 10)
	assert.Len(t, got, 10)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncatePhotos(t *testing.T) {
	urls := []string{"a", "b", "c", "d"}
	assert.Len(t, TruncatePhotos(urls, 2), 2)
	assert.Len(t, TruncatePhotos(urls, 10), 4)
	assert.Len(t, TruncatePhotos(urls, 0), 4)
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "USD 1,250.00", FormatCurrency(decimal.NewFromInt(1250), "USD"))
	assert.Equal(t, "USD 950.50", FormatCurrency(decimal.NewFromFloat(950.5), ""))
	assert.Equal(t, "EUR 1,234,567.89", FormatCurrency(decimal.NewFromFloat(1234567.89), "EUR"))
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Address
	}{
		{
			name: "full address",
			line: "12 Oak St, Springfield, IL 62704",
			want: Address{Street: "12 Oak St", City: "Springfield", State: "IL", PostalCode: "62704"},
		},
		{
			name: "street with unit",
			line: "12 Oak St, Apt 4B, Springfield, IL 62704",
			want: Address{Street: "12 Oak St, Apt 4B", City: "Springfield", State: "IL", PostalCode: "62704"},
		},
		{
			name: "street and city only",
			line: "12 Oak St, Springfield",
			want: Address{Street: "12 Oak St", City: "Springfield"},
		},
		{
			name: "street only",
			line: "12 Oak St",
			want: Address{Street: "12 Oak St"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAddress(tt.line))
		})
	}
}

func validTestListing() *ListingData {
	return &ListingData{
		PropertyID:  "prop-1",
		Title:       "Unit 4B",
		Description: "Bright two bedroom apartment near downtown.",
		Price:       decimal.NewFromInt(1800),
		Currency:    "USD",
		Address: Address{
			Street:     "12 Oak St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62704",
		},
		Bedrooms:     2,
		Bathrooms:    1,
		AreaSqFt:     860,
		PropertyType: "apartment",
		PhotoURLs:    []string{"https://cdn.example.com/1.jpg"},
		ContactEmail: "owner@example.com",
		ContactPhone: "+1 555 123 4567",
	}
}

func TestValidateAgainstRules(t *testing.T) {
	rules := ValidationRules{
		RequiredFields:       []string{"title", "description", "price", "address"},
		MinPrice:             decimal.NewFromInt(100),
		MaxPrice:             decimal.NewFromInt(50000),
		MaxPhotos:            2,
		MaxDescriptionLength: 200,
	}

	t.Run("valid listing passes", func(t *testing.T) {
		result := ValidateAgainstRules(validTestListing(), rules)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("nil data fails", func(t *testing.T) {
		result := ValidateAgainstRules(nil, rules)
		assert.False(t, result.Valid)
	})

	t.Run("missing address reported by field name", func(t *testing.T) {
		data := validTestListing()
		data.Address = Address{}
		result := ValidateAgainstRules(data, rules)
		require.False(t, result.Valid)
		assert.Contains(t, result.Errors[0], "address")
	})

	t.Run("price out of range", func(t *testing.T) {
		data := validTestListing()
		data.Price = decimal.NewFromInt(5)
		result := ValidateAgainstRules(data, rules)
		assert.False(t, result.Valid)
	})

	t.Run("too many photos", func(t *testing.T) {
		data := validTestListing()
		data.PhotoURLs = []string{"a", "b", "c"}
		result := ValidateAgainstRules(data, rules)
		assert.False(t, result.Valid)
	})

	t.Run("description too long", func(t *testing.T) {
		data := validTestListing()
		data.Description = strings.Repeat("x", 300)
		result := ValidateAgainstRules(data, rules)
		assert.False(t, result.Valid)
	})

	t.Run("zero bedroom count fails a required bedrooms rule", func(t *testing.T) {
		data := validTestListing()
		data.Bedrooms = 0
		result := ValidateAgainstRules(data, ValidationRules{RequiredFields: []string{"bedrooms"}})
		require.False(t, result.Valid)
		assert.Contains(t, result.Errors[0], "bedrooms")
	})

	t.Run("invalid contact email", func(t *testing.T) {
		data := validTestListing()
		data.ContactEmail = "not-an-email"
		result := ValidateAgainstRules(data, rules)
		assert.False(t, result.Valid)
	})
}
