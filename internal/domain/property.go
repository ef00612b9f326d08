package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PropertyType enumerates the kinds of listing a landlord can publish
type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyStudio    PropertyType = "studio"
	PropertyCondo     PropertyType = "condo"
	PropertyTownhouse PropertyType = "townhouse"
)

// PropertyTypes lists every valid type in display order
var PropertyTypes = []PropertyType{
	PropertyApartment,
	PropertyHouse,
	PropertyStudio,
	PropertyCondo,
	PropertyTownhouse,
}

// Valid reports whether t is one of the known property types
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Rent amounts fit a decimal(10,2) column
const (
	rentDigits = 10
	rentPlaces = 2
)

// ErrInvalidRent is returned by ParseRent for values that do not fit a rent column
var ErrInvalidRent = errors.New("enter a number with at most 8 digits before and 2 after the decimal point")

// ParseRent parses a monthly rent amount. Trailing zeros beyond two places
// are accepted ("1200.500"); significant extra places are not.
func ParseRent(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidRent
	}
	if !d.Equal(d.Truncate(rentPlaces)) {
		return decimal.Zero, ErrInvalidRent
	}
	if len(d.Truncate(0).Abs().String()) > rentDigits-rentPlaces {
		return decimal.Zero, ErrInvalidRent
	}
	return d, nil
}

// Property Model
type Property struct {
	ID            uint            `gorm:"primaryKey" json:"id"`                                          // Primary key
	LandlordID    uint            `gorm:"not null;index" json:"landlord_id"`                             // Owning user
	Landlord      *User           `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`               // Owning user, when preloaded
	Title         string          `gorm:"size:200;not null" json:"title"`                                // Listing title
	PropertyType  PropertyType    `gorm:"size:20;not null;default:apartment;index" json:"property_type"` // One of PropertyTypes
	RentAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;index" json:"rent_amount"`          // Monthly rent
	Location      string          `gorm:"size:200;not null" json:"location"`                             // Neighbourhood or city
	Address       string          `gorm:"type:text;not null" json:"address"`                             // Street address
	Bedrooms      int             `gorm:"not null" json:"bedrooms"`                                      // Bedroom count
	Bathrooms     int             `gorm:"not null" json:"bathrooms"`                                     // Bathroom count
	AreaSqft      int             `gorm:"column:area_sqft;not null" json:"area_sqft"`                    // Area in square feet
	Description   string          `gorm:"type:text;not null" json:"description"`                         // Free text description
	Amenities     string          `gorm:"type:text" json:"amenities"`                                    // Comma-separated amenities
	IsAvailable   bool            `gorm:"not null;index" json:"is_available"`                            // Listed in public search
	DateAvailable time.Time       `gorm:"type:date;not null" json:"date_available"`                      // Move-in date
	MainImage     *string         `gorm:"size:255" json:"-"`                                             // Optional main image reference
	Images        []PropertyImage `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`           // Gallery images
	CreatedAt     time.Time       `gorm:"index" json:"created"`                                          // Listing time
	UpdatedAt     time.Time       `json:"updated"`                                                       // Last edit
}

// String renders the listing the way it is shown in lists, e.g. "Loft - $1200.00/month"
func (p Property) String() string {
	return fmt.Sprintf("%s - $%s/month", p.Title, p.RentAmount.StringFixed(2))
}

// Image returns the main image or the default house placeholder
func (p *Property) Image() ImageRef {
	return imageOrPlaceholder(p.MainImage, DefaultPropertyImage)
}

// PropertyImage Model
type PropertyImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`              // Primary key
	PropertyID uint      `gorm:"not null;index" json:"property_id"` // Owning property
	Image      string    `gorm:"size:255;not null" json:"image"`    // Image reference
	Caption    string    `gorm:"size:200" json:"caption"`           // Optional caption
	CreatedAt  time.Time `json:"created"`                           // Upload time
}
