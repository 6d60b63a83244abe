package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/db/query"
)

const topicColumns = "id, name, description, created_at"

type scanner interface {
	Scan(dest ...any) error
}

type topicRepository struct {
	tx *sql.Tx
	b  *query.Builder
}

func scanTopic(s scanner) (*entities.Topic, error) {
	var (
		t    entities.Topic
		desc sql.NullString
	)
	if err := s.Scan(&t.ID, &t.Name, &desc, &t.CreatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (r *topicRepository) GetByID(ctx context.Context, id int64) (*entities.Topic, error) {
	row := r.tx.QueryRowContext(ctx, r.b.Rebind("SELECT "+topicColumns+" FROM topics WHERE id = ?"), id)
	t, err := scanTopic(row)
	if err != nil {
		return nil, mapError("get topic", err)
	}
	return t, nil
}

func (r *topicRepository) GetByName(ctx context.Context, name string) (*entities.Topic, error) {
	row := r.tx.QueryRowContext(ctx, r.b.Rebind("SELECT "+topicColumns+" FROM topics WHERE name = ?"), name)
	t, err := scanTopic(row)
	if err != nil {
		return nil, mapError("get topic by name", err)
	}
	return t, nil
}

func (r *topicRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.tx, r.b, "topics", id)
}

func (r *topicRepository) List(ctx context.Context, skip, limit int) ([]entities.Topic, error) {
	q, args := r.b.Paginate("SELECT "+topicColumns+" FROM topics ORDER BY name ASC, id ASC", nil, limit, skip)
	rows, err := r.tx.QueryContext(ctx, r.b.Rebind(q), args...)
	if err != nil {
		return nil, mapError("list topics", err)
	}
	defer rows.Close()

	topics := []entities.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, mapError("list topics", err)
		}
		topics = append(topics, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list topics", err)
	}
	return topics, nil
}

func (r *topicRepository) Create(ctx context.Context, in entities.TopicCreate) (*entities.Topic, error) {
	var id int64
	err := r.tx.QueryRowContext(ctx,
		r.b.Rebind("INSERT INTO topics (name, description, created_at) VALUES (?, ?, ?) RETURNING id"),
		in.Name, nullable(in.Description), entities.Timestamp(),
	).Scan(&id)
	if err != nil {
		return nil, mapError("create topic", err)
	}
	return r.GetByID(ctx, id)
}

func (r *topicRepository) Update(ctx context.Context, id int64, patch entities.TopicPatch) (*entities.Topic, error) {
	var sets []query.Set
	if patch.Name.Present() {
		sets = append(sets, query.Set{Column: "name", Value: patch.Name.Value})
	}
	if patch.Description.Set {
		sets = append(sets, query.Set{Column: "description", Value: nullable(patch.Description.Ptr())})
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q, args, err := r.b.Update("topics", sets, "id", id)
	if err != nil {
		return nil, err
	}
	if err := execOne(ctx, r.tx, "update topic", q, args...); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *topicRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.tx, r.b, "topics", id)
}

func exists(ctx context.Context, tx *sql.Tx, b *query.Builder, table string, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, b.Rebind("SELECT 1 FROM "+table+" WHERE id = ?"), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError("exists "+table, err)
	}
	return true, nil
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, op, q string, args ...any) error {
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(op, err)
	}
	if n == 0 {
		return &interfaces.DatabaseError{Op: op, Err: interfaces.ErrNotFound}
	}
	return nil
}

func deleteByID(ctx context.Context, tx *sql.Tx, b *query.Builder, table string, id int64) (bool, error) {
	err := execOne(ctx, tx, "delete from "+table, b.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
