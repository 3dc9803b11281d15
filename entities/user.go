package entities

import (
	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:254;uniqueIndex" json:"email"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"-"`

	Recipes []*Recipe `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Timestamp
}
