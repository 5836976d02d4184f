package parliament

import (
	"time"

	"github.com/google/uuid"
)

// Print is a sejm print (druk sejmowy) mirrored from the upstream API.
// Only the columns retrieval and the chat tools touch are modeled here.
type Print struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Number string    `gorm:"column:number;not null;uniqueIndex" json:"number"`

	Title   string `gorm:"column:title;type:text;not null" json:"title"`
	Summary string `gorm:"column:summary;type:text;not null;default:''" json:"summary"`

	ChangeDate *time.Time `gorm:"column:change_date;index" json:"change_date,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Print) TableName() string { return "print" }
