package middleware

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"net/url"  // Query escaping
	"strings"  // String manipulation

	"keja/internal/domain"  // Importing domain models
	"keja/internal/session" // Session manager

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// currentUserKey is the gin context key holding the authenticated *domain.User
const currentUserKey = "currentUser"

// SessionToken extracts the session token from the cookie or a Bearer header
func SessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token // Browser clients
	}
	authHeader := c.GetHeader("Authorization") // API clients
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// SessionMiddleware resolves the request's session into the current user.
// Anonymous requests pass through untouched.
func SessionMiddleware(sessions *session.Manager, db *gorm.DB, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName) // Cookie or Authorization header
		if token == "" {
			c.Next() // Anonymous visitor
			return
		}
		userID, err := sessions.Resolve(c.Request.Context(), token) // Validate token and session record
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) && !errors.Is(err, session.ErrInvalidToken) {
				logrus.WithError(err).Error("Session lookup failed") // Store failure, treat as anonymous
			}
			c.Next()
			return
		}
		var user domain.User // Re-read the user so role and profile are current
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("Session refers to a missing user")
			c.Next()
			return
		}
		c.Set(currentUserKey, &user) // Store the principal in context
		c.Next()                     // Proceed to the next handler
	}
}

// CurrentUser returns the authenticated user, if any
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// LoginURL is where unauthenticated visitors of protected pages are sent
func LoginURL(next string) string {
	if next == "" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// LoginRequired redirects anonymous requests to the login page
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			// Not logged in, send to login and come back afterwards
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}
