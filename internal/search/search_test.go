package search

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"keja/internal/dbtest"
	"keja/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createLandlord(t *testing.T, conn *gorm.DB) *domain.User {
	u := &domain.User{Email: "test@example.com", Username: "testuser", Password: "x", Role: domain.RoleUser}
	require.NoError(t, conn.Create(u).Error)
	return u
}

type propertyOpt func(*domain.Property)

func createProperty(t *testing.T, conn *gorm.DB, landlord *domain.User, opts ...propertyOpt) *domain.Property {
	p := &domain.Property{
		LandlordID:    landlord.ID,
		Title:         "Test Property",
		PropertyType:  domain.PropertyApartment,
		RentAmount:    decimal.RequireFromString("1200.00"),
		Location:      "Test City",
		Address:       "123 Test Street",
		Bedrooms:      2,
		Bathrooms:     1,
		AreaSqft:      800,
		Description:   "A nice test property",
		IsAvailable:   true,
		DateAvailable: time.Now().AddDate(0, 0, 30),
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func titles(props []domain.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Title
	}
	return out
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, p Params)
	}{
		{
			name:  "empty",
			query: "",
			check: func(t *testing.T, p Params) {
				assert.Equal(t, Params{Page: 1}, p)
			},
		},
		{
			name:  "all valid",
			query: "location=Test+City&min_price=1000&max_price=1500.50&property_type=house&bedrooms=2&page=3",
			check: func(t *testing.T, p Params) {
				require.NotNil(t, p.Location)
				assert.Equal(t, "Test City", *p.Location)
				assert.True(t, p.MinPrice.Equal(decimal.NewFromInt(1000)))
				assert.True(t, p.MaxPrice.Equal(decimal.RequireFromString("1500.5")))
				assert.Equal(t, domain.PropertyHouse, *p.PropertyType)
				assert.Equal(t, 2, *p.Bedrooms)
				assert.Equal(t, 3, p.Page)
			},
		},
		{
			name:  "garbage fields are dropped",
			query: "min_price=abc&max_price=12.345&property_type=castle&bedrooms=two&page=-4",
			check: func(t *testing.T, p Params) {
				assert.Nil(t, p.MinPrice)
				assert.Nil(t, p.MaxPrice)
				assert.Nil(t, p.PropertyType)
				assert.Nil(t, p.Bedrooms)
				assert.Equal(t, 1, p.Page)
			},
		},
		{
			name:  "price wider than the column is dropped",
			query: "max_price=123456789",
			check: func(t *testing.T, p Params) {
				assert.Nil(t, p.MaxPrice)
			},
		},
		{
			name:  "blank location is absent",
			query: "location=+++",
			check: func(t *testing.T, p Params) {
				assert.Nil(t, p.Location)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			tt.check(t, ParseParams(q))
		})
	}
}

func TestRun_ExcludesUnavailable(t *testing.T) {
	conn := dbtest.New(t)
	landlord := createLandlord(t, conn)
	createProperty(t, conn, landlord, func(p *domain.Property) { p.Title = "Listed" })
	createProperty(t, conn, landlord, func(p *domain.Property) { p.Title = "Rented"; p.IsAvailable = false })

	res, err := Run(context.Background(), conn, Params{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Listed"}, titles(res.Properties))
	assert.Equal(t, int64(1), res.TotalProperties)
	assert.Equal(t, int64(1), res.Count)
}

func TestRun_PriceRangeInclusive(t *testing.T) {
	conn := dbtest.New(t)
	landlord := createLandlord(t, conn)
	for _, rent := range []string{"999.99", "1000.00", "1200.00", "1500.00", "1500.01"} {
		rent := rent
		createProperty(t, conn, landlord, func(p *domain.Property) {
			p.Title = rent
			p.RentAmount = decimal.RequireFromString(rent)
		})
	}

	q, _ := url.ParseQuery("min_price=1000&max_price=1500")
	res, err := Run(context.Background(), conn, ParseParams(q))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1000.00", "1200.00", "1500.00"}, titles(res.Properties))
}

func TestRun_LocationMatchesLocationOrAddress(t *testing.T) {
	conn := dbtest.New(t)
	landlord := createLandlord(t, conn)
	createProperty(t, conn, landlord, func(p *domain.Property) { p.Title = "by location" })
	createProperty(t, conn, landlord, func(p *domain.Property) {
		p.Title = "by address"
		p.Location = "Elsewhere"
		p.Address = "1 Road, TEST CITY"
	})
	createProperty(t, conn, landlord, func(p *domain.Property) {
		p.Title = "no match"
		p.Location = "Suburbs"
		p.Address = "9 Lane"
	})

	createProperty(t, conn, landlord, func(p *domain.Property) {
		p.Title = "accented"
		p.Location = "ÖSTERMALM"
		p.Address = "Strandvägen 7"
	})

	q, _ := url.ParseQuery("location=test+city")
	res, err := Run(context.Background(), conn, ParseParams(q))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"by location", "by address"}, titles(res.Properties))

	// Case folding covers non-ASCII letters
	for _, loc := range []string{"östermalm", "ÖSTERMALM", "Östermalm", "STRANDVÄGEN"} {
		res, err := Run(context.Background(), conn, ParseParams(url.Values{"location": {loc}}))
		require.NoError(t, err)
		assert.Equal(t, []string{"accented"}, titles(res.Properties), loc)
	}
}

func TestRun_TypeAndBedrooms(t *testing.T) {
	conn := dbtest.New(t)
	landlord := createLandlord(t, conn)
	createProperty(t, conn, landlord, func(p *domain.Property) {
		p.Title = "big house"
		p.PropertyType = domain.PropertyHouse
		p.Bedrooms = 4
	})
	createProperty(t, conn, landlord, func(p *domain.Property) {
		p.Title = "small house"
		p.PropertyType = domain.PropertyHouse
		p.Bedrooms = 1
	})
	createProperty(t, conn, landlord, func(p *domain.Property) {
		p.Title = "big studio"
		p.PropertyType = domain.PropertyStudio
		p.Bedrooms = 4
	})

	q, _ := url.ParseQuery("property_type=house&bedrooms=3")
	res, err := Run(context.Background(), conn, ParseParams(q))
	require.NoError(t, err)
	assert.Equal(t, []string{"big house"}, titles(res.Properties))
	assert.Equal(t, []domain.PropertyType{domain.PropertyHouse, domain.PropertyStudio}, res.PropertyTypes)

	// An invalid field is ignored while the others still apply
	q, _ = url.ParseQuery("property_type=castle&bedrooms=3")
	res, err = Run(context.Background(), conn, ParseParams(q))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"big house", "big studio"}, titles(res.Properties))
}

func TestRun_PaginationNewestFirst(t *testing.T) {
	conn := dbtest.New(t)
	landlord := createLandlord(t, conn)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 13; i++ {
		i := i
		createProperty(t, conn, landlord, func(p *domain.Property) {
			p.Title = fmt.Sprintf("p%02d", i)
			p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
	}

	res, err := Run(context.Background(), conn, Params{Page: 1})
	require.NoError(t, err)
	require.Len(t, res.Properties, 12)
	assert.Equal(t, "p12", res.Properties[0].Title)
	assert.Equal(t, 2, res.NumPages)
	assert.True(t, res.HasNext)
	assert.False(t, res.HasPrevious)

	res, err = Run(context.Background(), conn, Params{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"p00"}, titles(res.Properties))
	assert.True(t, res.HasPrevious)
	assert.False(t, res.HasNext)

	// Out of range falls back to the first page
	res, err = Run(context.Background(), conn, Params{Page: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Properties, 12)
}

func TestRun_Empty(t *testing.T) {
	conn := dbtest.New(t)
	res, err := Run(context.Background(), conn, Params{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Properties)
	assert.Equal(t, 1, res.NumPages)
	assert.Empty(t, res.PropertyTypes)
}
