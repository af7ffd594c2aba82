package models

import "time"

// Category groups products.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;index" bson:"name"`
	Slug        string    `json:"slug" gorm:"type:varchar(120);not null;uniqueIndex" bson:"slug"`
	Description string    `json:"description,omitempty" gorm:"type:text" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}
