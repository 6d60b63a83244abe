package sqlstore

import (
	"context"
	"database/sql"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/query"
)

const commentColumns = "id, content, author, created_at, post_id"

type commentRepository struct {
	tx *sql.Tx
	b  *query.Builder
}

func scanComment(s scanner) (*entities.Comment, error) {
	var c entities.Comment
	if err := s.Scan(&c.ID, &c.Content, &c.Author, &c.CreatedAt, &c.PostID); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*entities.Comment, error) {
	row := r.tx.QueryRowContext(ctx, r.b.Rebind("SELECT "+commentColumns+" FROM comments WHERE id = ?"), id)
	c, err := scanComment(row)
	if err != nil {
		return nil, mapError("get comment", err)
	}
	return c, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID int64, skip, limit int) ([]entities.Comment, error) {
	q, args := r.b.Paginate(
		"SELECT "+commentColumns+" FROM comments WHERE post_id = ? ORDER BY created_at ASC, id ASC",
		[]any{postID}, limit, skip)
	rows, err := r.tx.QueryContext(ctx, r.b.Rebind(q), args...)
	if err != nil {
		return nil, mapError("list comments", err)
	}
	defer rows.Close()

	comments := []entities.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, mapError("list comments", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list comments", err)
	}
	return comments, nil
}

func (r *commentRepository) Create(ctx context.Context, postID int64, in entities.CommentCreate) (*entities.Comment, error) {
	var id int64
	err := r.tx.QueryRowContext(ctx,
		r.b.Rebind("INSERT INTO comments (content, author, created_at, post_id) VALUES (?, ?, ?, ?) RETURNING id"),
		in.Content, in.Author, entities.Timestamp(), postID,
	).Scan(&id)
	if err != nil {
		return nil, mapError("create comment", err)
	}
	return r.GetByID(ctx, id)
}

func (r *commentRepository) Update(ctx context.Context, id int64, patch entities.CommentPatch) (*entities.Comment, error) {
	var sets []query.Set
	if patch.Content.Present() {
		sets = append(sets, query.Set{Column: "content", Value: patch.Content.Value})
	}
	if patch.Author.Present() {
		sets = append(sets, query.Set{Column: "author", Value: patch.Author.Value})
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q, args, err := r.b.Update("comments", sets, "id", id)
	if err != nil {
		return nil, err
	}
	if err := execOne(ctx, r.tx, "update comment", q, args...); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *commentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.tx, r.b, "comments", id)
}
