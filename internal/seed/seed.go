// Package seed loads sample landlords and listings for local development.
// Seeding is idempotent: users are matched by email and properties by
// title and landlord, so running it twice creates nothing new.
package seed

import (
	"context"   // Cancellation
	_ "embed"   // Built-in fixture
	"errors"    // Validation errors
	"fmt"       // Error wrapping
	"io"        // Fixture readers
	"math/rand" // Random move-in dates
	"strings"   // String manipulation
	"time"      // Move-in dates

	"keja/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gopkg.in/yaml.v3"           // Fixture format
	"gorm.io/gorm"               // GORM ORM library
)

//go:embed fixtures.yaml
var defaultFixture []byte

// Landlord is a sample user
type Landlord struct {
	Username string `yaml:"username"` // Lowercase username
	Email    string `yaml:"email"`    // Match key
	Name     string `yaml:"name"`     // Display name
}

// Property is a sample listing. AvailableInDays of zero picks a random
// move-in date within the next 30 days.
type Property struct {
	Title           string              `yaml:"title"`
	PropertyType    domain.PropertyType `yaml:"property_type"`
	RentAmount      string              `yaml:"rent_amount"`
	Location        string              `yaml:"location"`
	Address         string              `yaml:"address"`
	Bedrooms        int                 `yaml:"bedrooms"`
	Bathrooms       int                 `yaml:"bathrooms"`
	AreaSqft        int                 `yaml:"area_sqft"`
	Description     string              `yaml:"description"`
	Amenities       string              `yaml:"amenities"`
	AvailableInDays int                 `yaml:"available_in_days"`
}

// Fixture is a full sample data set. Properties are assigned to landlords
// round-robin in file order.
type Fixture struct {
	Password   string     `yaml:"password"`   // Shared by every sample landlord
	Landlords  []Landlord `yaml:"landlords"`  // At least one
	Properties []Property `yaml:"properties"` // Listings to create
}

// Report counts what a run created
type Report struct {
	UsersCreated      int   // New landlords
	PropertiesCreated int   // New listings
	TotalProperties   int64 // Listings after the run
}

// DefaultFixture returns the built-in sample data
func DefaultFixture() (*Fixture, error) {
	return LoadFixture(strings.NewReader(string(defaultFixture)))
}

// LoadFixture decodes and checks a YAML fixture
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // Typos in keys are errors
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if f.Password == "" {
		return errors.New("fixture: password is required")
	}
	if len(f.Landlords) == 0 && len(f.Properties) > 0 {
		return errors.New("fixture: properties need at least one landlord")
	}
	for i, l := range f.Landlords {
		if l.Email == "" || l.Username == "" {
			return fmt.Errorf("fixture: landlord %d needs an email and a username", i)
		}
	}
	for i, p := range f.Properties {
		if !p.PropertyType.Valid() {
			return fmt.Errorf("fixture: property %d has unknown type %q", i, p.PropertyType)
		}
		if _, err := domain.ParseRent(p.RentAmount); err != nil {
			return fmt.Errorf("fixture: property %d rent %q: %w", i, p.RentAmount, err)
		}
	}
	return nil
}

// Apply get-or-creates every landlord and property in f
func Apply(ctx context.Context, conn *gorm.DB, f *Fixture) (*Report, error) {
	conn = conn.WithContext(ctx)
	report := &Report{}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	landlords := make([]domain.User, len(f.Landlords))
	for i, l := range f.Landlords {
		email := strings.ToLower(l.Email)
		var user domain.User
		res := conn.Where(domain.User{Email: email}).
			Attrs(domain.User{
				Username: strings.ToLower(l.Username),
				Name:     &f.Landlords[i].Name,
				Password: string(hash),
				Role:     domain.RoleUser,
			}).
			FirstOrCreate(&user)
		if res.Error != nil {
			return nil, fmt.Errorf("landlord %s: %w", email, res.Error)
		}
		if res.RowsAffected > 0 {
			report.UsersCreated++
			logrus.WithField("email", email).Info("Created user")
		}
		landlords[i] = user
	}

	today := time.Now().Truncate(24 * time.Hour)
	for i, p := range f.Properties {
		landlord := landlords[i%len(landlords)] // Rotate through landlords
		days := p.AvailableInDays
		if days <= 0 {
			days = rand.Intn(30) + 1
		}
		rent, _ := domain.ParseRent(p.RentAmount) // Checked by validate
		var property domain.Property
		res := conn.Where(domain.Property{Title: p.Title, LandlordID: landlord.ID}).
			Attrs(domain.Property{
				PropertyType:  p.PropertyType,
				RentAmount:    rent,
				Location:      p.Location,
				Address:       p.Address,
				Bedrooms:      p.Bedrooms,
				Bathrooms:     p.Bathrooms,
				AreaSqft:      p.AreaSqft,
				Description:   p.Description,
				Amenities:     p.Amenities,
				IsAvailable:   true,
				DateAvailable: today.AddDate(0, 0, days),
			}).
			FirstOrCreate(&property)
		if res.Error != nil {
			return nil, fmt.Errorf("property %q: %w", p.Title, res.Error)
		}
		log := logrus.WithField("title", property.Title)
		if res.RowsAffected > 0 {
			report.PropertiesCreated++
			log.Info("Created property")
		} else {
			log.Info("Property already exists")
		}
	}

	if err := conn.Model(&domain.Property{}).Count(&report.TotalProperties).Error; err != nil {
		return nil, err
	}
	return report, nil
}
