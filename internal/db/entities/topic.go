package entities

import (
	"time"

	"github.com/leafsii/blog-backend/internal/validation"
)

// Topic represents a topic entity. Deleting a topic removes its posts.
type Topic struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TopicCreate is the payload accepted when creating a topic.
type TopicCreate struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// TopicPatch carries the fields of a partial topic update. Absent fields are
// left untouched; an explicit null description clears it.
type TopicPatch struct {
	Name        validation.Optional[string] `json:"name" validate:"omitempty,min=1,max=100"`
	Description validation.Optional[string] `json:"description" validate:"omitempty,max=500" nullable:"true"`
}
