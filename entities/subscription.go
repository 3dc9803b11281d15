package entities

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is an edge from a subscriber to an author. Self-subscription
// is rejected at the service layer.
type Subscription struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_subscription_user_author" json:"user_id"`
	AuthorID  uuid.UUID `gorm:"uniqueIndex:idx_subscription_user_author" json:"author_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
