package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/query"
)

const postColumns = "id, title, content, created_at, updated_at, topic_id"

type postRepository struct {
	tx *sql.Tx
	b  *query.Builder
}

func scanPost(s scanner) (*entities.Post, error) {
	var p entities.Post
	if err := s.Scan(&p.ID, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt, &p.TopicID); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// GetByID loads the post with its topic and every comment, oldest first.
func (r *postRepository) GetByID(ctx context.Context, id int64) (*entities.Post, error) {
	row := r.tx.QueryRowContext(ctx, r.b.Rebind("SELECT "+postColumns+" FROM posts WHERE id = ?"), id)
	p, err := scanPost(row)
	if err != nil {
		return nil, mapError("get post", err)
	}

	topics := &topicRepository{tx: r.tx, b: r.b}
	if p.Topic, err = topics.GetByID(ctx, p.TopicID); err != nil {
		return nil, err
	}

	comments := &commentRepository{tx: r.tx, b: r.b}
	if p.Comments, err = comments.ListByPost(ctx, p.ID, 0, -1); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.tx, r.b, "posts", id)
}

func (r *postRepository) List(ctx context.Context, filter entities.PostFilter) ([]entities.Post, int64, error) {
	var (
		where string
		args  []any
	)
	if filter.TopicID != nil {
		where = " WHERE topic_id = ?"
		args = append(args, *filter.TopicID)
	}

	var total int64
	if err := r.tx.QueryRowContext(ctx, r.b.Rebind("SELECT COUNT(*) FROM posts"+where), args...).Scan(&total); err != nil {
		return nil, 0, mapError("count posts", err)
	}

	q, args := r.b.Paginate("SELECT "+postColumns+" FROM posts"+where+" ORDER BY created_at DESC, id DESC",
		args, filter.Limit, filter.Skip)
	rows, err := r.tx.QueryContext(ctx, r.b.Rebind(q), args...)
	if err != nil {
		return nil, 0, mapError("list posts", err)
	}
	defer rows.Close()

	posts := []entities.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, mapError("list posts", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("list posts", err)
	}
	return posts, total, nil
}

func (r *postRepository) Create(ctx context.Context, in entities.PostCreate) (*entities.Post, error) {
	now := entities.Timestamp()

	var id int64
	err := r.tx.QueryRowContext(ctx,
		r.b.Rebind("INSERT INTO posts (title, content, created_at, updated_at, topic_id) VALUES (?, ?, ?, ?, ?) RETURNING id"),
		in.Title, in.Content, now, now, in.TopicID,
	).Scan(&id)
	if err != nil {
		return nil, mapError("create post", err)
	}
	return r.GetByID(ctx, id)
}

// Update always moves updated_at forward, even when no field changes.
func (r *postRepository) Update(ctx context.Context, id int64, patch entities.PostPatch) (*entities.Post, error) {
	var prev time.Time
	err := r.tx.QueryRowContext(ctx, r.b.Rebind("SELECT updated_at FROM posts WHERE id = ?"), id).Scan(&prev)
	if err != nil {
		return nil, mapError("update post", err)
	}

	now := entities.Timestamp()
	if !now.After(prev) {
		now = prev.UTC().Add(time.Microsecond)
	}

	sets := []query.Set{{Column: "updated_at", Value: now}}
	if patch.Title.Present() {
		sets = append(sets, query.Set{Column: "title", Value: patch.Title.Value})
	}
	if patch.Content.Present() {
		sets = append(sets, query.Set{Column: "content", Value: patch.Content.Value})
	}
	if patch.TopicID.Present() {
		sets = append(sets, query.Set{Column: "topic_id", Value: patch.TopicID.Value})
	}

	q, args, err := r.b.Update("posts", sets, "id", id)
	if err != nil {
		return nil, err
	}
	if err := execOne(ctx, r.tx, "update post", q, args...); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.tx, r.b, "posts", id)
}
