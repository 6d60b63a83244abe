package interfaces

import (
	"context"

	"github.com/leafsii/blog-backend/internal/db/entities"
)

// TopicRepository provides CRUD operations for topics
type TopicRepository interface {
	// GetByID retrieves a single topic by its ID
	GetByID(ctx context.Context, id int64) (*entities.Topic, error)

	// GetByName retrieves the topic with the given name
	GetByName(ctx context.Context, name string) (*entities.Topic, error)

	// Exists reports whether a topic with the ID exists
	Exists(ctx context.Context, id int64) (bool, error)

	// List returns topics ordered by name
	List(ctx context.Context, skip, limit int) ([]entities.Topic, error)

	// Create inserts a new topic
	Create(ctx context.Context, in entities.TopicCreate) (*entities.Topic, error)

	// Update applies the present fields of patch to an existing topic
	Update(ctx context.Context, id int64, patch entities.TopicPatch) (*entities.Topic, error)

	// Delete removes a topic together with its posts and their comments.
	// It reports whether a topic existed.
	Delete(ctx context.Context, id int64) (bool, error)
}

// PostRepository provides CRUD operations for posts
type PostRepository interface {
	// GetByID retrieves a post with its topic and comments loaded
	GetByID(ctx context.Context, id int64) (*entities.Post, error)

	// Exists reports whether a post with the ID exists
	Exists(ctx context.Context, id int64) (bool, error)

	// List returns a window of posts, newest first, and the number of
	// posts matching the filter before pagination
	List(ctx context.Context, filter entities.PostFilter) ([]entities.Post, int64, error)

	// Create inserts a new post and returns it hydrated
	Create(ctx context.Context, in entities.PostCreate) (*entities.Post, error)

	// Update applies the present fields of patch and refreshes updated_at
	Update(ctx context.Context, id int64, patch entities.PostPatch) (*entities.Post, error)

	// Delete removes a post together with its comments
	Delete(ctx context.Context, id int64) (bool, error)
}

// CommentRepository provides CRUD operations for comments
type CommentRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Comment, error)

	// ListByPost returns comments of a post, oldest first
	ListByPost(ctx context.Context, postID int64, skip, limit int) ([]entities.Comment, error)

	Create(ctx context.Context, postID int64, in entities.CommentCreate) (*entities.Comment, error)
	Update(ctx context.Context, id int64, patch entities.CommentPatch) (*entities.Comment, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
