package domain

import (
	"time"
	"unicode/utf8"
)

// Topic tags legacy rooms; names are unique so rooms can find-or-insert them
type Topic struct {
	ID   uint   `gorm:"primaryKey" json:"id"`                      // Primary key
	Name string `gorm:"size:200;uniqueIndex;not null" json:"name"` // Unique topic name
}

// String returns the topic name
func (t Topic) String() string {
	return t.Name
}

// Room Model (legacy chat room)
type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                                      // Primary key
	HostID       *uint     `gorm:"index" json:"host_id"`                                      // Hosting user, nulled when the user goes away
	Host         *User     `gorm:"constraint:OnDelete:SET NULL" json:"host,omitempty"`        // Hosting user, when preloaded
	TopicID      *uint     `gorm:"index" json:"topic_id"`                                     // Topic, nulled when the topic goes away
	Topic        *Topic    `gorm:"constraint:OnDelete:SET NULL" json:"topic,omitempty"`       // Topic, when preloaded
	Name         string    `gorm:"size:200;not null" json:"name"`                             // Room name
	Amount       *int      `json:"amount"`                                                    // Optional amount
	Description  *string   `gorm:"type:text" json:"description"`                              // Optional description
	Image        *string   `gorm:"size:255" json:"image"`                                     // Optional image reference
	Participants []User    `gorm:"many2many:room_participants" json:"participants,omitempty"` // Users who posted in the room
	CreatedAt    time.Time `json:"created"`                                                   // Creation time
	UpdatedAt    time.Time `gorm:"index" json:"updated"`                                      // Last update
}

// String returns the room name
func (r Room) String() string {
	return r.Name
}

// Message Model (legacy chat message)
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                              // Primary key
	UserID    uint      `gorm:"not null;index" json:"user_id"`                     // Author
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"` // Author, when preloaded
	RoomID    uint      `gorm:"not null;index" json:"room_id"`                     // Room
	Room      *Room     `gorm:"constraint:OnDelete:CASCADE" json:"room,omitempty"` // Room, when preloaded
	Body      string    `gorm:"type:text;not null" json:"body"`                    // Message text
	CreatedAt time.Time `json:"created"`                                           // Creation time
	UpdatedAt time.Time `gorm:"index" json:"updated"`                              // Last update
}

// String returns the first 50 characters of the body
func (m Message) String() string {
	if utf8.RuneCountInString(m.Body) <= 50 {
		return m.Body
	}
	return string([]rune(m.Body)[:50])
}
