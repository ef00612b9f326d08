package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Redirect URLs
	"strings"  // String manipulation

	"keja/internal/db"     // Case-insensitive matching helpers
	"keja/internal/domain" // Importing domain models
	"keja/internal/media"  // Upload storage

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// UserView is a user as shown on profile pages
type UserView struct {
	domain.User
	Avatar domain.ImageRef `json:"avatar"` // Avatar or placeholder
}

func newUserView(u domain.User) UserView {
	return UserView{User: u, Avatar: u.AvatarImage()}
}

// UserForm holds the profile edit form
type UserForm struct {
	Name     string `form:"name" json:"name" binding:"max=200"`                  // Display name
	Username string `form:"username" json:"username" binding:"required,max=150"` // Username
	Email    string `form:"email" json:"email" binding:"required,email,max=254"` // Email
	Bio      string `form:"bio" json:"bio"`                                      // Biography
}

func profileURL(id uint) string {
	return "/profile/" + strconv.FormatUint(uint64(id), 10)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ProfileHandler shows a user with their rooms, messages and all topics
func ProfileHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		ctx := c.Request.Context()
		var user domain.User
		if err := conn.WithContext(ctx).First(&user, id).Error; err != nil {
			respondLookupError(c, err, "user")
			return
		}
		rooms := []domain.Room{}
		if err := conn.WithContext(ctx).Preload("Topic").
			Where("host_id = ?", user.ID).
			Order("updated_at desc").Order("id desc").
			Find(&rooms).Error; err != nil {
			respondServerError(c, "Failed to load rooms", err, logrus.Fields{"user_id": id})
			return
		}
		messages := []domain.Message{}
		if err := conn.WithContext(ctx).Preload("Room").
			Where("user_id = ?", user.ID).
			Order("created_at desc").Order("id desc").
			Find(&messages).Error; err != nil {
			respondServerError(c, "Failed to load messages", err, logrus.Fields{"user_id": id})
			return
		}
		topics := []domain.Topic{}
		if err := conn.WithContext(ctx).Order("name").Find(&topics).Error; err != nil {
			respondServerError(c, "Failed to load topics", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":     newUserView(user), // Profile owner
			"rooms":    rooms,             // Hosted rooms
			"messages": messages,          // Recent activity
			"topics":   topics,            // All topics
		})
	}
}

// UpdateUserPageHandler shows the principal's profile form
func UpdateUserPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": "update_user", "user": newUserView(*principal(c))})
	}
}

// UpdateUserHandler edits the principal's profile
func UpdateUserHandler(conn *gorm.DB, store media.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		var form UserForm
		if fe := bindForm(c, &form); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		ctx := c.Request.Context()
		fe := FieldErrors{}
		username := strings.ToLower(strings.TrimSpace(form.Username))
		email := strings.ToLower(strings.TrimSpace(form.Email))
		if !isValidUsername(username) {
			fe.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
		}
		// Uniqueness against everyone but the principal
		var count int64
		if err := conn.WithContext(ctx).Model(&domain.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			respondServerError(c, "Failed to validate profile", err, logrus.Fields{"user_id": user.ID})
			return
		}
		if count > 0 {
			fe.Add("email", "A user with this email already exists.")
		}
		if err := conn.WithContext(ctx).Model(&domain.User{}).Where("username = ? AND id <> ?", username, user.ID).Count(&count).Error; err != nil {
			respondServerError(c, "Failed to validate profile", err, logrus.Fields{"user_id": user.ID})
			return
		}
		if count > 0 {
			fe.Add("username", "A user with that username already exists.")
		}
		upload := checkUpload(c, "avatar", "avatars", fe)
		if fe.Any() {
			respondFormErrors(c, fe)
			return
		}
		avatar, err := upload.store(c, store)
		if err != nil {
			respondServerError(c, "Failed to store avatar", err, logrus.Fields{"user_id": user.ID})
			return
		}
		updates := map[string]any{
			"name":     optional(form.Name), // Cleared when blank
			"username": username,            // Lowercase
			"email":    email,               // Lowercase
			"bio":      optional(form.Bio),  // Cleared when blank
		}
		if avatar != nil {
			updates["avatar"] = *avatar
		}
		if err := conn.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			discardUpload(store, avatar)
			respondServerError(c, "Failed to update profile", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithField("user_id", user.ID).Info("Profile updated")
		c.Redirect(http.StatusFound, profileURL(user.ID))
	}
}

// TopicsHandler lists topics whose name contains q, ignoring case
func TopicsHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		tx := conn.WithContext(c.Request.Context()).Order("name")
		if q != "" {
			tx = tx.Where(db.ContainsFold("name"), db.ContainsPattern(q))
		}
		topics := []domain.Topic{}
		if err := tx.Find(&topics).Error; err != nil {
			respondServerError(c, "Failed to load topics", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"topics": topics, "q": q})
	}
}

// ActivityHandler lists every message, newest first
func ActivityHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		messages := []domain.Message{}
		if err := conn.WithContext(c.Request.Context()).
			Preload("User").Preload("Room").
			Order("created_at desc").Order("id desc").
			Find(&messages).Error; err != nil {
			respondServerError(c, "Failed to load activity", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}
