package domain

import "time"

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User Model
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`                                       // Primary key
	Email      string     `gorm:"size:254;uniqueIndex;not null" json:"email"`                 // Unique login identity, stored lowercase
	Username   string     `gorm:"size:150;uniqueIndex;not null" json:"username"`              // Unique username, stored lowercase
	Name       *string    `gorm:"size:200" json:"name"`                                       // Optional display name
	Bio        *string    `gorm:"type:text" json:"bio"`                                       // Optional biography
	Avatar     *string    `gorm:"size:255" json:"-"`                                          // Optional avatar reference
	Password   string     `gorm:"not null" json:"-"`                                          // Hashed password
	Role       string     `gorm:"size:16;not null;default:user" json:"role"`                  // Role: user or admin
	CreatedAt  time.Time  `json:"created_at"`                                                 // Registration time
	UpdatedAt  time.Time  `json:"updated_at"`                                                 // Last profile update
	Properties []Property `gorm:"foreignKey:LandlordID;constraint:OnDelete:CASCADE" json:"-"` // Listings owned as landlord
}

// IsAdmin reports whether the user may use the admin endpoints
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AvatarImage returns the avatar reference or the default avatar placeholder
func (u *User) AvatarImage() ImageRef {
	return imageOrPlaceholder(u.Avatar, DefaultAvatar)
}
