package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation

	"keja/internal/db"     // Case-insensitive matching helpers
	"keja/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// pageParams reads page and page_size, falling back to 1 and 20
func pageParams(c *gin.Context) (int, int) {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		// If valid, set page size
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID         uint   `json:"id"`         // User ID
	Username   string `json:"username"`   // Username
	Email      string `json:"email"`      // Email
	Role       string `json:"role"`       // User role
	Properties int64  `json:"properties"` // Listings owned
}

// ListUsersHandler returns all users with their listing counts
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pageParams(c)
		offset := (page - 1) * pageSize // Calculate offset for pagination
		var total int64                 // Total user count
		if err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
			respondServerError(c, "Failed to count users", err, nil)
			return
		}
		resp := []UserAdminResponse{} // Users with listing counts
		if err := db.WithContext(ctx).Model(&domain.User{}).
			Select("users.id, users.username, users.email, users.role, (SELECT COUNT(*) FROM properties WHERE properties.landlord_id = users.id) AS properties").
			Order("users.id").Offset(offset).Limit(pageSize).
			Scan(&resp).Error; err != nil {
			respondServerError(c, "Failed to fetch users", err, nil)
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"users":       resp,       // List of users
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of users
			"total_pages": totalPages, // Total pages
		})
	}
}

// ListPropertiesHandler returns every property, with optional filtering by type, availability or text
func ListPropertiesHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		offset := (page - 1) * pageSize // Calculate offset for pagination
		query := conn.WithContext(c.Request.Context()).Model(&domain.Property{})
		if t := domain.PropertyType(c.Query("property_type")); t.Valid() {
			query = query.Where("property_type = ?", t) // Filter by type
		}
		if v, err := strconv.ParseBool(c.Query("is_available")); err == nil {
			query = query.Where("is_available = ?", v) // Filter by availability
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			pattern := db.ContainsPattern(q)
			landlords := conn.WithContext(c.Request.Context()).Model(&domain.User{}).Select("id").Where(db.ContainsFold("username"), pattern)
			query = query.Where(conn.Session(&gorm.Session{NewDB: true}).
				Where(db.ContainsFold("title"), pattern).
				Or(db.ContainsFold("location"), pattern).
				Or(db.ContainsFold("address"), pattern).
				Or("landlord_id IN (?)", landlords)) // Title, place or landlord username
		}
		query = query.Session(&gorm.Session{}) // Reused for count and page
		var total int64                        // Total property count
		if err := query.Count(&total).Error; err != nil {
			respondServerError(c, "Failed to count properties", err, nil)
			return
		}
		properties := []domain.Property{}
		if err := query.Preload("Landlord").
			Order("created_at desc").Order("id desc").
			Offset(offset).Limit(pageSize).
			Find(&properties).Error; err != nil {
			respondServerError(c, "Failed to fetch properties", err, nil)
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		c.JSON(http.StatusOK, gin.H{
			"properties":  newPropertyViews(properties), // List of properties
			"page":        page,                         // Current page
			"page_size":   pageSize,                     // Page size
			"total":       total,                        // Total number of properties
			"total_pages": totalPages,                   // Total pages
		})
	}
}

// AvailabilityRequest holds the admin availability toggle
type AvailabilityRequest struct {
	IsAvailable *bool `form:"is_available" json:"is_available" binding:"required"` // New availability
}

// SetAvailabilityHandler lists or unlists any property
func SetAvailabilityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		var req AvailabilityRequest
		if fe := bindForm(c, &req); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		var property domain.Property
		if err := db.WithContext(c.Request.Context()).First(&property, id).Error; err != nil {
			respondLookupError(c, err, "property")
			return
		}
		if err := db.WithContext(c.Request.Context()).
			Model(&property).
			Update("is_available", *req.IsAvailable).Error; err != nil {
			respondServerError(c, "Failed to update property", err, logrus.Fields{"property_id": id})
			return
		}
		logrus.WithFields(logrus.Fields{
			"property_id":  id,               // Property
			"is_available": *req.IsAvailable, // New state
			"admin_id":     principal(c).ID,  // Acting admin
		}).Info("Property availability changed")
		c.JSON(http.StatusOK, gin.H{"id": id, "is_available": *req.IsAvailable})
	}
}
