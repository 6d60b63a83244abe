package api

import (
	"time"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/query"
	"github.com/leafsii/blog-backend/internal/validation"
)

type TopicDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type CommentDTO struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	PostID    int64     `json:"post_id"`
}

// PostDTO is the full post representation with its topic and comments.
type PostDTO struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	TopicID   int64        `json:"topic_id"`
	Topic     *TopicDTO    `json:"topic"`
	Comments  []CommentDTO `json:"comments"`
}

type PostSummaryDTO struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	TopicID   int64     `json:"topic_id"`
}

type PostListDTO struct {
	Items []PostSummaryDTO `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Pages int64            `json:"pages"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// Query parameters for endpoints

type ListParams struct {
	Skip  int `query:"skip" validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

type PostListParams struct {
	Page    int    `query:"page" validate:"gte=1"`
	Size    int    `query:"size" validate:"gte=1,lte=100"`
	TopicID *int64 `query:"topic_id" validate:"omitempty,gte=1"`
}

func toTopicDTO(t *entities.Topic) TopicDTO {
	return TopicDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func toTopicDTOs(topics []entities.Topic) []TopicDTO {
	out := make([]TopicDTO, 0, len(topics))
	for i := range topics {
		out = append(out, toTopicDTO(&topics[i]))
	}
	return out
}

func toCommentDTO(c *entities.Comment) CommentDTO {
	return CommentDTO{
		ID:        c.ID,
		Content:   c.Content,
		Author:    c.Author,
		CreatedAt: c.CreatedAt,
		PostID:    c.PostID,
	}
}

func toCommentDTOs(comments []entities.Comment) []CommentDTO {
	out := make([]CommentDTO, 0, len(comments))
	for i := range comments {
		out = append(out, toCommentDTO(&comments[i]))
	}
	return out
}

func toPostDTO(p *entities.Post) PostDTO {
	dto := PostDTO{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		TopicID:   p.TopicID,
		Comments:  toCommentDTOs(p.Comments),
	}
	if p.Topic != nil {
		topic := toTopicDTO(p.Topic)
		dto.Topic = &topic
	}
	return dto
}

func toPostList(posts []entities.Post, total int64, page, size int) PostListDTO {
	items := make([]PostSummaryDTO, 0, len(posts))
	for _, p := range posts {
		items = append(items, PostSummaryDTO{
			ID:        p.ID,
			Title:     p.Title,
			CreatedAt: p.CreatedAt,
			TopicID:   p.TopicID,
		})
	}
	return PostListDTO{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: query.PageCount(total, size),
	}
}
