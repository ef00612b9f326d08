package api

import (
	"context"  // Request context
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // Path id parsing

	"keja/internal/domain"     // Importing domain models
	"keja/internal/middleware" // Principal lookup

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// errBadID marks a path id that is not a positive integer
var errBadID = errors.New("invalid id")

// pathID parses the :id path parameter
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return uint(id), nil
}

// principal returns the authenticated user. Only call it behind LoginRequired.
func principal(c *gin.Context) *domain.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

// respondNotFound answers with the generic not-found body
func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// respondServerError logs err with fields and answers with a generic 500
func respondServerError(c *gin.Context, msg string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["error"] = err.Error()       // Error message
	fields["path"] = c.Request.URL.Path // Request path
	logrus.WithFields(fields).Error(msg)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// respondLookupError maps a failed single-row lookup to 404 or 500
func respondLookupError(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errBadID) {
		respondNotFound(c)
		return
	}
	respondServerError(c, "Failed to load "+what, err, nil)
}

// ownedProperty loads property id only if owner is its landlord. Someone
// else's property is reported exactly like a missing one.
func ownedProperty(ctx context.Context, db *gorm.DB, id uint, owner *domain.User) (*domain.Property, error) {
	var property domain.Property
	err := db.WithContext(ctx).
		Where("id = ? AND landlord_id = ?", id, owner.ID).
		First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// hostedRoom loads room id only if host is its host
func hostedRoom(ctx context.Context, db *gorm.DB, id uint, host *domain.User) (*domain.Room, error) {
	var room domain.Room
	err := db.WithContext(ctx).
		Preload("Topic").
		Where("id = ? AND host_id = ?", id, host.ID).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// authoredMessage loads message id only if author wrote it
func authoredMessage(ctx context.Context, db *gorm.DB, id uint, author *domain.User) (*domain.Message, error) {
	var message domain.Message
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, author.ID).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}
