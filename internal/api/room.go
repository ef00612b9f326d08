package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // Redirect URLs
	"strings"  // String manipulation

	"keja/internal/db"     // Topic lookup
	"keja/internal/domain" // Importing domain models
	"keja/internal/media"  // Upload storage

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// RoomForm holds the create and update room form
type RoomForm struct {
	Topic       string `form:"topic" json:"topic" binding:"required,max=200"` // Topic name, created on first use
	Name        string `form:"name" json:"name" binding:"required,max=200"`   // Room name
	Description string `form:"description" json:"description"`                // Optional description
	Amount      *int   `form:"amount" json:"amount"`                          // Optional amount
}

// MessageForm holds a posted room message
type MessageForm struct {
	Body string `form:"body" json:"body" binding:"required"` // Message text
}

func roomURL(id uint) string {
	return "/room/" + strconv.FormatUint(uint64(id), 10)
}

// applyRoomForm resolves the topic and copies the form onto room
func applyRoomForm(c *gin.Context, conn *gorm.DB, form *RoomForm, room *domain.Room) FieldErrors {
	topic, err := db.FindOrCreateTopic(c.Request.Context(), conn, form.Topic)
	if errors.Is(err, db.ErrEmptyTopic) {
		return FieldErrors{"topic": {"This field is required."}}
	}
	if err != nil {
		respondServerError(c, "Failed to resolve topic", err, logrus.Fields{"topic": form.Topic})
		return nil
	}
	room.TopicID = &topic.ID
	room.Topic = topic
	room.Name = strings.TrimSpace(form.Name)
	room.Amount = form.Amount
	room.Description = nil
	if desc := strings.TrimSpace(form.Description); desc != "" {
		room.Description = &desc
	}
	return FieldErrors{}
}

// RoomHandler shows a room with its messages, newest first
func RoomHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		ctx := c.Request.Context()
		var room domain.Room
		if err := conn.WithContext(ctx).Preload("Host").Preload("Topic").Preload("Participants").First(&room, id).Error; err != nil {
			respondLookupError(c, err, "room")
			return
		}
		messages := []domain.Message{}
		if err := conn.WithContext(ctx).
			Preload("User").
			Where("room_id = ?", room.ID).
			Order("created_at desc").Order("id desc").
			Find(&messages).Error; err != nil {
			respondServerError(c, "Failed to load messages", err, logrus.Fields{"room_id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"room":         room,              // Room with host and topic
			"messages":     messages,          // Newest first
			"participants": room.Participants, // Everyone who posted
		})
	}
}

// PostMessageHandler adds a message to a room and makes the author a participant
func PostMessageHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		ctx := c.Request.Context()
		var room domain.Room
		if err := conn.WithContext(ctx).First(&room, id).Error; err != nil {
			respondLookupError(c, err, "room")
			return
		}
		var form MessageForm
		if fe := bindForm(c, &form); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		message := domain.Message{UserID: user.ID, RoomID: room.ID, Body: form.Body}
		err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&message).Error; err != nil {
				return err
			}
			// Append skips users already in the room
			return tx.Model(&room).Omit("Participants.*").Association("Participants").Append(user)
		})
		if err != nil {
			respondServerError(c, "Failed to post message", err, logrus.Fields{"room_id": id, "user_id": user.ID})
			return
		}
		c.Redirect(http.StatusFound, roomURL(room.ID))
	}
}

// CreateRoomPageHandler shows the empty room form with every topic
func CreateRoomPageHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		topics := []domain.Topic{}
		if err := conn.WithContext(c.Request.Context()).Order("name").Find(&topics).Error; err != nil {
			respondServerError(c, "Failed to load topics", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": "room_form", "topics": topics})
	}
}

// CreateRoomHandler creates a room hosted by the principal
func CreateRoomHandler(conn *gorm.DB, store media.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		var form RoomForm
		if fe := bindForm(c, &form); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		room := domain.Room{HostID: &user.ID}
		fe := applyRoomForm(c, conn, &form, &room)
		if fe == nil {
			return // Already answered
		}
		upload := checkUpload(c, "image", "room_images", fe)
		if fe.Any() {
			respondFormErrors(c, fe)
			return
		}
		image, err := upload.store(c, store)
		if err != nil {
			respondServerError(c, "Failed to store image", err, logrus.Fields{"user_id": user.ID})
			return
		}
		room.Image = image
		if err := conn.WithContext(c.Request.Context()).Omit("Topic", "Host").Create(&room).Error; err != nil {
			discardUpload(store, image)
			respondServerError(c, "Failed to create room", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithFields(logrus.Fields{
			"room_id": room.ID, // New room
			"user_id": user.ID, // Host
		}).Info("Room created")
		c.Redirect(http.StatusFound, "/")
	}
}

// UpdateRoomPageHandler shows the form prefilled with the principal's room
func UpdateRoomPageHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		room, err := hostedRoom(c.Request.Context(), conn, id, principal(c))
		if err != nil {
			respondLookupError(c, err, "room")
			return
		}
		topics := []domain.Topic{}
		if err := conn.WithContext(c.Request.Context()).Order("name").Find(&topics).Error; err != nil {
			respondServerError(c, "Failed to load topics", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": "room_form", "room": room, "topics": topics})
	}
}

// UpdateRoomHandler edits a room hosted by the principal
func UpdateRoomHandler(conn *gorm.DB, store media.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		// Rooms hosted by others are a 404
		room, err := hostedRoom(c.Request.Context(), conn, id, user)
		if err != nil {
			respondLookupError(c, err, "room")
			return
		}
		var form RoomForm
		if fe := bindForm(c, &form); fe != nil {
			respondFormErrors(c, fe)
			return
		}
		fe := applyRoomForm(c, conn, &form, room)
		if fe == nil {
			return // Already answered
		}
		upload := checkUpload(c, "image", "room_images", fe)
		if fe.Any() {
			respondFormErrors(c, fe)
			return
		}
		image, err := upload.store(c, store)
		if err != nil {
			respondServerError(c, "Failed to store image", err, logrus.Fields{"room_id": id})
			return
		}
		if image != nil {
			room.Image = image
		}
		if err := conn.WithContext(c.Request.Context()).Omit("Topic", "Host", "Participants").Save(room).Error; err != nil {
			discardUpload(store, image)
			respondServerError(c, "Failed to update room", err, logrus.Fields{"room_id": id})
			return
		}
		logrus.WithFields(logrus.Fields{
			"room_id": room.ID, // Updated room
			"user_id": user.ID, // Host
		}).Info("Room updated")
		c.Redirect(http.StatusFound, "/")
	}
}

// DeleteRoomPageHandler asks for confirmation before deleting a room
func DeleteRoomPageHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		room, err := hostedRoom(c.Request.Context(), conn, id, principal(c))
		if err != nil {
			respondLookupError(c, err, "room")
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": "delete", "obj": room})
	}
}

// DeleteRoomHandler removes a room hosted by the principal with its messages
func DeleteRoomHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		room, err := hostedRoom(c.Request.Context(), conn, id, user)
		if err != nil {
			respondLookupError(c, err, "room")
			return
		}
		err = conn.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("room_id = ?", room.ID).Delete(&domain.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Model(room).Association("Participants").Clear(); err != nil {
				return err
			}
			return tx.Delete(room).Error
		})
		if err != nil {
			respondServerError(c, "Failed to delete room", err, logrus.Fields{"room_id": id})
			return
		}
		logrus.WithFields(logrus.Fields{
			"room_id": room.ID, // Deleted room
			"user_id": user.ID, // Host
		}).Info("Room deleted")
		c.Redirect(http.StatusFound, "/")
	}
}

// DeleteMessagePageHandler asks for confirmation before deleting a message
func DeleteMessagePageHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		message, err := authoredMessage(c.Request.Context(), conn, id, principal(c))
		if err != nil {
			respondLookupError(c, err, "message")
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": "delete", "obj": message})
	}
}

// DeleteMessageHandler removes a message written by the principal
func DeleteMessageHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		id, err := pathID(c)
		if err != nil {
			respondNotFound(c)
			return
		}
		// Messages by others are a 404
		message, err := authoredMessage(c.Request.Context(), conn, id, user)
		if err != nil {
			respondLookupError(c, err, "message")
			return
		}
		if err := conn.WithContext(c.Request.Context()).Delete(message).Error; err != nil {
			respondServerError(c, "Failed to delete message", err, logrus.Fields{"message_id": id})
			return
		}
		logrus.WithFields(logrus.Fields{
			"message_id": message.ID, // Deleted message
			"user_id":    user.ID,    // Author
		}).Info("Message deleted")
		c.Redirect(http.StatusFound, "/")
	}
}
