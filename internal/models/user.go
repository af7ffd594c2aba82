package models

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// User represents a user of the store.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" bson:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null" bson:"password"` // No json tag for security
	Role      Role      `json:"role" gorm:"type:varchar(20);not null" bson:"role"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Sanitized returns a copy of u without the password hash.
func (u *User) Sanitized() *User {
	c := *u
	c.Password = ""
	return &c
}

// Summary returns the public projection embedded in order listings.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is the part of a user shown next to their orders.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
