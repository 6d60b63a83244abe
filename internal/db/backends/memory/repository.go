package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/db/query"
)

func notFound(op string) error {
	return &interfaces.DatabaseError{Op: op, Err: interfaces.ErrNotFound}
}

type topicRepository struct {
	db *Database
	tx *Transaction
}

func (r *topicRepository) GetByID(ctx context.Context, id int64) (*entities.Topic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.data.topics[id]
	if !ok {
		return nil, notFound("get topic")
	}
	return &t, nil
}

func (r *topicRepository) GetByName(ctx context.Context, name string) (*entities.Topic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, t := range r.db.data.topics {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, notFound("get topic by name")
}

func (r *topicRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.data.topics[id]
	return ok, nil
}

func (r *topicRepository) List(ctx context.Context, skip, limit int) ([]entities.Topic, error) {
	r.db.mu.RLock()
	topics := make([]entities.Topic, 0, len(r.db.data.topics))
	for _, t := range r.db.data.topics {
		topics = append(topics, t)
	}
	r.db.mu.RUnlock()

	slices.SortFunc(topics, func(a, b entities.Topic) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return query.ApplyPagination(topics, limit, skip), nil
}

func (r *topicRepository) Create(ctx context.Context, in entities.TopicCreate) (*entities.Topic, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	if err := r.checkUniqueName(in.Name, 0); err != nil {
		return nil, &interfaces.DatabaseError{Op: "create topic", Err: err}
	}

	r.db.data.topicSeq++
	t := entities.Topic{
		ID:          r.db.data.topicSeq,
		Name:        in.Name,
		Description: copyString(in.Description),
		CreatedAt:   entities.Timestamp(),
	}
	r.db.data.topics[t.ID] = t
	return &t, nil
}

func (r *topicRepository) Update(ctx context.Context, id int64, patch entities.TopicPatch) (*entities.Topic, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	t, ok := r.db.data.topics[id]
	if !ok {
		return nil, notFound("update topic")
	}

	if patch.Name.Present() {
		if err := r.checkUniqueName(patch.Name.Value, id); err != nil {
			return nil, &interfaces.DatabaseError{Op: "update topic", Err: err}
		}
		t.Name = patch.Name.Value
	}
	if patch.Description.Set {
		t.Description = patch.Description.Ptr()
	}

	r.db.data.topics[id] = t
	return &t, nil
}

// Delete removes the topic and cascades to its posts and their comments.
func (r *topicRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	if _, ok := r.db.data.topics[id]; !ok {
		return false, nil
	}
	for postID, p := range r.db.data.posts {
		if p.TopicID == id {
			deletePost(r.db.data, postID)
		}
	}
	delete(r.db.data.topics, id)
	return true, nil
}

func (r *topicRepository) checkUniqueName(name string, excludeID int64) error {
	for id, t := range r.db.data.topics {
		if id != excludeID && t.Name == name {
			return fmt.Errorf("%w: field 'name' value '%s'", interfaces.ErrUniqueConstraint, name)
		}
	}
	return nil
}

type postRepository struct {
	db *Database
	tx *Transaction
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*entities.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return hydratePost(r.db.data, id, "get post")
}

func (r *postRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.data.posts[id]
	return ok, nil
}

func (r *postRepository) List(ctx context.Context, filter entities.PostFilter) ([]entities.Post, int64, error) {
	r.db.mu.RLock()
	posts := make([]entities.Post, 0, len(r.db.data.posts))
	for _, p := range r.db.data.posts {
		if filter.TopicID != nil && p.TopicID != *filter.TopicID {
			continue
		}
		posts = append(posts, p)
	}
	r.db.mu.RUnlock()

	slices.SortFunc(posts, func(a, b entities.Post) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return query.ApplyPagination(posts, filter.Limit, filter.Skip), int64(len(posts)), nil
}

func (r *postRepository) Create(ctx context.Context, in entities.PostCreate) (*entities.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	if _, ok := r.db.data.topics[in.TopicID]; !ok {
		return nil, &interfaces.DatabaseError{
			Op:  "create post",
			Err: fmt.Errorf("%w: field 'topic_id' references non-existent record '%d'", interfaces.ErrForeignKeyConstraint, in.TopicID),
		}
	}

	now := entities.Timestamp()
	r.db.data.postSeq++
	p := entities.Post{
		ID:        r.db.data.postSeq,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
		TopicID:   in.TopicID,
	}
	r.db.data.posts[p.ID] = p
	return hydratePost(r.db.data, p.ID, "create post")
}

func (r *postRepository) Update(ctx context.Context, id int64, patch entities.PostPatch) (*entities.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	p, ok := r.db.data.posts[id]
	if !ok {
		return nil, notFound("update post")
	}

	if patch.TopicID.Present() {
		if _, ok := r.db.data.topics[patch.TopicID.Value]; !ok {
			return nil, &interfaces.DatabaseError{
				Op:  "update post",
				Err: fmt.Errorf("%w: field 'topic_id' references non-existent record '%d'", interfaces.ErrForeignKeyConstraint, patch.TopicID.Value),
			}
		}
		p.TopicID = patch.TopicID.Value
	}
	if patch.Title.Present() {
		p.Title = patch.Title.Value
	}
	if patch.Content.Present() {
		p.Content = patch.Content.Value
	}

	now := entities.Timestamp()
	if !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = now

	r.db.data.posts[id] = p
	return hydratePost(r.db.data, id, "update post")
}

func (r *postRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	if _, ok := r.db.data.posts[id]; !ok {
		return false, nil
	}
	deletePost(r.db.data, id)
	return true, nil
}

type commentRepository struct {
	db *Database
	tx *Transaction
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*entities.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.data.comments[id]
	if !ok {
		return nil, notFound("get comment")
	}
	return &c, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID int64, skip, limit int) ([]entities.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return query.ApplyPagination(commentsOf(r.db.data, postID), limit, skip), nil
}

func (r *commentRepository) Create(ctx context.Context, postID int64, in entities.CommentCreate) (*entities.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	if _, ok := r.db.data.posts[postID]; !ok {
		return nil, &interfaces.DatabaseError{
			Op:  "create comment",
			Err: fmt.Errorf("%w: field 'post_id' references non-existent record '%d'", interfaces.ErrForeignKeyConstraint, postID),
		}
	}

	r.db.data.commentSeq++
	c := entities.Comment{
		ID:        r.db.data.commentSeq,
		Content:   in.Content,
		Author:    in.Author,
		CreatedAt: entities.Timestamp(),
		PostID:    postID,
	}
	r.db.data.comments[c.ID] = c
	return &c, nil
}

func (r *commentRepository) Update(ctx context.Context, id int64, patch entities.CommentPatch) (*entities.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	c, ok := r.db.data.comments[id]
	if !ok {
		return nil, notFound("update comment")
	}
	if patch.Content.Present() {
		c.Content = patch.Content.Value
	}
	if patch.Author.Present() {
		c.Author = patch.Author.Value
	}

	r.db.data.comments[id] = c
	return &c, nil
}

func (r *commentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.tx.snapshotLocked()

	if _, ok := r.db.data.comments[id]; !ok {
		return false, nil
	}
	delete(r.db.data.comments, id)
	return true, nil
}

// Helper functions below expect db.mu to be held by the caller.

func hydratePost(t *tables, id int64, op string) (*entities.Post, error) {
	p, ok := t.posts[id]
	if !ok {
		return nil, notFound(op)
	}
	topic, ok := t.topics[p.TopicID]
	if !ok {
		return nil, &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: post %d has no topic", interfaces.ErrForeignKeyConstraint, id)}
	}
	p.Topic = &topic
	p.Comments = commentsOf(t, id)
	return &p, nil
}

func commentsOf(t *tables, postID int64) []entities.Comment {
	comments := []entities.Comment{}
	for _, c := range t.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	slices.SortFunc(comments, func(a, b entities.Comment) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return comments
}

func deletePost(t *tables, postID int64) {
	for id, c := range t.comments {
		if c.PostID == postID {
			delete(t.comments, id)
		}
	}
	delete(t.posts, postID)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
