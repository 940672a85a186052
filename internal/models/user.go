package models

import "time"

// User represents an account that owns tasks.
type User struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Username          string    `json:"username" gorm:"uniqueIndex;type:varchar(255);not null" bson:"username"`
	PasswordHash      string    `json:"-" gorm:"type:varchar(255);not null" bson:"passwordHash"` // never serialized
	Phone             *string   `json:"phone,omitempty" gorm:"type:varchar(32)" bson:"phone,omitempty"`
	ProfileCompleted  bool      `json:"profileCompleted" gorm:"not null" bson:"profileCompleted"`
	ProfilePictureURL *string   `json:"profilePictureUrl,omitempty" gorm:"column:profile_picture_url;type:varchar(2048)" bson:"profilePictureUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Identity is the public view of a user returned by the auth endpoints.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Identity strips everything but the id and username.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username}
}
