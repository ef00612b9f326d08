package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProperty_String(t *testing.T) {
	p := Property{Title: "Test Property", RentAmount: decimal.RequireFromString("1200.00")}
	assert.Equal(t, "Test Property - $1200.00/month", p.String())

	// Whole numbers read back from the database still render two places
	p.RentAmount = decimal.NewFromInt(950)
	assert.Equal(t, "Test Property - $950.00/month", p.String())
}

func TestProperty_Image(t *testing.T) {
	var p Property
	assert.Equal(t, ImageRef{URL: DefaultPropertyImage, Placeholder: true}, p.Image())

	empty := ""
	p.MainImage = &empty
	assert.True(t, p.Image().Placeholder)

	ref := "/media/properties/a.png"
	p.MainImage = &ref
	assert.Equal(t, ImageRef{URL: ref}, p.Image())
}

func TestUser_AvatarImage(t *testing.T) {
	u := User{}
	assert.Equal(t, DefaultAvatar, u.AvatarImage().URL)
	assert.False(t, u.IsAdmin())

	u.Role = RoleAdmin
	assert.True(t, u.IsAdmin())
}

func TestPropertyType_Valid(t *testing.T) {
	for _, pt := range PropertyTypes {
		assert.True(t, pt.Valid(), pt)
	}
	assert.False(t, PropertyType("castle").Valid())
	assert.False(t, PropertyType("").Valid())
	assert.False(t, PropertyType("Apartment").Valid())
}

func TestMessage_String(t *testing.T) {
	assert.Equal(t, "short", Message{Body: "short"}.String())

	long := strings.Repeat("ab", 40)
	assert.Equal(t, long[:50], Message{Body: long}.String())
}

func TestParseRent(t *testing.T) {
	for _, ok := range []string{"1200", "1200.5", "1200.50", "1200.500", " 99.99 ", "99999999.99"} {
		_, err := ParseRent(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", "abc", "12.345", "123456789", "1e400x"} {
		_, err := ParseRent(bad)
		assert.ErrorIs(t, err, ErrInvalidRent, bad)
	}
}
