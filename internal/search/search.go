// Package search builds the public, filtered and paginated view of available
// property listings.
package search

import (
	"context" // Request scoped queries
	"net/url" // Query string parsing
	"strconv" // Integer filters
	"strings" // String manipulation

	"keja/internal/db"     // Case-insensitive matching helpers
	"keja/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Exact rent amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// PageSize is the fixed number of listings per result page
const PageSize = 12

const maxLocationLen = 200 // Longer locations are ignored

// Params holds the accepted search filters. A nil field imposes no constraint.
type Params struct {
	Location     *string              // Substring of location or address
	MinPrice     *decimal.Decimal     // Inclusive lower rent bound
	MaxPrice     *decimal.Decimal     // Inclusive upper rent bound
	PropertyType *domain.PropertyType // Exact type
	Bedrooms     *int                 // Minimum bedrooms
	Page         int                  // Requested page, 1-based
}

// ParseParams reads filters from a query string. Values that fail to parse
// are dropped so that a garbage field never fails the whole search.
func ParseParams(q url.Values) Params {
	p := Params{Page: 1}
	if v := strings.TrimSpace(q.Get("location")); v != "" && len([]rune(v)) <= maxLocationLen {
		p.Location = &v
	}
	p.MinPrice = parsePrice(q.Get("min_price"))
	p.MaxPrice = parsePrice(q.Get("max_price"))
	if v := domain.PropertyType(strings.TrimSpace(q.Get("property_type"))); v.Valid() {
		p.PropertyType = &v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("bedrooms"))); err == nil {
		p.Bedrooms = &v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	return p
}

// parsePrice accepts decimals that fit the rent column
func parsePrice(raw string) *decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d, err := domain.ParseRent(raw)
	if err != nil {
		return nil
	}
	return &d
}

// Result is one page of matching listings plus catalogue-wide stats
type Result struct {
	Properties      []domain.Property     `json:"properties"`       // Current page
	Page            int                   `json:"page"`             // Page actually served
	NumPages        int                   `json:"num_pages"`        // At least one
	HasNext         bool                  `json:"has_next"`         // Another page follows
	HasPrevious     bool                  `json:"has_previous"`     // A page precedes
	Count           int64                 `json:"count"`            // Matching listings
	TotalProperties int64                 `json:"total_properties"` // All available listings
	PropertyTypes   []domain.PropertyType `json:"property_types"`   // Distinct types in the catalogue
}

// Available scopes a query to publicly listed properties
func Available(tx *gorm.DB) *gorm.DB {
	return tx.Where("is_available = ?", true)
}

// Apply adds every present filter in p to tx
func (p Params) Apply(tx *gorm.DB) *gorm.DB {
	if p.Location != nil {
		pattern := db.ContainsPattern(*p.Location)
		tx = tx.Where(tx.Session(&gorm.Session{NewDB: true}).
			Where(db.ContainsFold("location"), pattern).
			Or(db.ContainsFold("address"), pattern))
	}
	if p.MinPrice != nil {
		tx = tx.Where("rent_amount >= ?", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		tx = tx.Where("rent_amount <= ?", *p.MaxPrice)
	}
	if p.PropertyType != nil {
		tx = tx.Where("property_type = ?", *p.PropertyType)
	}
	if p.Bedrooms != nil {
		tx = tx.Where("bedrooms >= ?", *p.Bedrooms)
	}
	return tx
}

// Run executes the search against conn
func Run(ctx context.Context, conn *gorm.DB, p Params) (*Result, error) {
	conn = conn.WithContext(ctx)
	filtered := func() *gorm.DB {
		return p.Apply(Available(conn.Model(&domain.Property{})))
	}

	res := &Result{Properties: []domain.Property{}}
	if err := filtered().Count(&res.Count).Error; err != nil {
		return nil, err
	}
	res.NumPages = int((res.Count + PageSize - 1) / PageSize)
	if res.NumPages == 0 {
		res.NumPages = 1 // an empty result still has one (empty) page
	}
	res.Page = p.Page
	if res.Page < 1 || res.Page > res.NumPages {
		res.Page = 1
	}
	res.HasPrevious = res.Page > 1        // Not on the first page
	res.HasNext = res.Page < res.NumPages // Not on the last page

	if err := filtered().
		Order("created_at desc").Order("id desc").
		Offset((res.Page - 1) * PageSize).
		Limit(PageSize).
		Find(&res.Properties).Error; err != nil {
		return nil, err
	}

	if err := Available(conn.Model(&domain.Property{})).Count(&res.TotalProperties).Error; err != nil {
		return nil, err
	}
	res.PropertyTypes = []domain.PropertyType{}
	if err := conn.Model(&domain.Property{}).
		Distinct("property_type").
		Order("property_type").
		Pluck("property_type", &res.PropertyTypes).Error; err != nil {
		return nil, err
	}
	return res, nil
}
