package entities

import (
	"time"

	"github.com/leafsii/blog-backend/internal/validation"
)

// Comment represents a comment left on a post
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	Author    string    `json:"author" db:"author"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	PostID    int64     `json:"post_id" db:"post_id"`
}

// CommentCreate is the payload accepted when commenting on a post.
type CommentCreate struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
	Author  string `json:"author" validate:"required,min=1,max=100"`
}

// CommentPatch carries the fields of a partial comment update.
type CommentPatch struct {
	Content validation.Optional[string] `json:"content" validate:"omitempty,min=1,max=1000"`
	Author  validation.Optional[string] `json:"author" validate:"omitempty,min=1,max=100"`
}
