package entities

import (
	"time"

	"github.com/leafsii/blog-backend/internal/validation"
)

// Post represents a post entity. Topic and Comments are populated by
// repository reads of a single post.
type Post struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	TopicID   int64     `json:"topic_id" db:"topic_id"`

	Topic    *Topic    `json:"topic,omitempty" db:"-"`
	Comments []Comment `json:"comments,omitempty" db:"-"`
}

// PostCreate is the payload accepted when creating a post.
type PostCreate struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1"`
	TopicID int64  `json:"topic_id" validate:"required,gt=0"`
}

// PostPatch carries the fields of a partial post update.
type PostPatch struct {
	Title   validation.Optional[string] `json:"title" validate:"omitempty,min=1,max=200"`
	Content validation.Optional[string] `json:"content" validate:"omitempty,min=1"`
	TopicID validation.Optional[int64]  `json:"topic_id" validate:"omitempty,gt=0"`
}

// PostFilter selects a window of posts, newest first.
type PostFilter struct {
	Skip    int
	Limit   int
	TopicID *int64
}
