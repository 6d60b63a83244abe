// Package dbtest provides conformance tests for interfaces.Database implementations
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/validation"
)

// DatabaseFactory creates a fresh, connected and migrated Database for testing.
// The factory is responsible for registering cleanup with t.
type DatabaseFactory func(t *testing.T) interfaces.Database

// RunConformanceTests runs all conformance tests against a Database implementation
func RunConformanceTests(t *testing.T, factory DatabaseFactory) {
	tests := []struct {
		name string
		test func(t *testing.T, db interfaces.Database)
	}{
		{"TopicCRUD", testTopicCRUD},
		{"TopicListOrder", testTopicListOrder},
		{"TopicUniqueName", testTopicUniqueName},
		{"TopicPatchDescription", testTopicPatchDescription},
		{"PostCreateHydrated", testPostCreateHydrated},
		{"PostForeignKey", testPostForeignKey},
		{"PostListPagination", testPostListPagination},
		{"PostListFilter", testPostListFilter},
		{"PostPartialUpdate", testPostPartialUpdate},
		{"PostUpdateMissing", testPostUpdateMissing},
		{"CommentCRUD", testCommentCRUD},
		{"CommentOrder", testCommentOrder},
		{"CommentForeignKey", testCommentForeignKey},
		{"CascadeTopicDelete", testCascadeTopicDelete},
		{"CascadePostDelete", testCascadePostDelete},
		{"TransactionRollback", testTransactionRollback},
		{"TransactionPanic", testTransactionPanic},
		{"Health", testHealth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.test(t, factory(t))
		})
	}
}

// run executes fn in a transaction and fails the test on error.
func run(t *testing.T, db interfaces.Database, fn func(ctx context.Context, tx interfaces.Tx) error) {
	t.Helper()
	require.NoError(t, db.Transaction(context.Background(), fn))
}

func strPtr(s string) *string { return &s }

func mustTopic(t *testing.T, db interfaces.Database, name string) *entities.Topic {
	t.Helper()
	var topic *entities.Topic
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		topic, err = tx.Topics().Create(ctx, entities.TopicCreate{Name: name})
		return err
	})
	return topic
}

func mustPost(t *testing.T, db interfaces.Database, topicID int64, title string) *entities.Post {
	t.Helper()
	var post *entities.Post
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		post, err = tx.Posts().Create(ctx, entities.PostCreate{Title: title, Content: "body of " + title, TopicID: topicID})
		return err
	})
	return post
}

func mustComment(t *testing.T, db interfaces.Database, postID int64, content string) *entities.Comment {
	t.Helper()
	var comment *entities.Comment
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		comment, err = tx.Comments().Create(ctx, postID, entities.CommentCreate{Content: content, Author: "tester"})
		return err
	})
	return comment
}

func testTopicCRUD(t *testing.T, db interfaces.Database) {
	var created *entities.Topic
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		created, err = tx.Topics().Create(ctx, entities.TopicCreate{Name: "golang", Description: strPtr("all things go")})
		return err
	})
	require.NotZero(t, created.ID)
	assert.Equal(t, "golang", created.Name)
	require.NotNil(t, created.Description)
	assert.Equal(t, "all things go", *created.Description)
	assert.False(t, created.CreatedAt.IsZero())

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		got, err := tx.Topics().GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		byName, err := tx.Topics().GetByName(ctx, "golang")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byName.ID)

		ok, err := tx.Topics().Exists(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		updated, err := tx.Topics().Update(ctx, created.ID, entities.TopicPatch{Name: validation.Some("go")})
		require.NoError(t, err)
		assert.Equal(t, "go", updated.Name)
		assert.Equal(t, created.Description, updated.Description)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)

		// an empty patch returns the topic unchanged
		same, err := tx.Topics().Update(ctx, created.ID, entities.TopicPatch{})
		require.NoError(t, err)
		assert.Equal(t, updated, same)
		return nil
	})

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		deleted, err := tx.Topics().Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = tx.Topics().Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = tx.Topics().GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		_, err = tx.Topics().GetByName(ctx, "go")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		_, err = tx.Topics().Update(ctx, created.ID, entities.TopicPatch{Name: validation.Some("x")})
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		_, err = tx.Topics().Update(ctx, created.ID, entities.TopicPatch{})
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
		return nil
	})
}

func testTopicListOrder(t *testing.T, db interfaces.Database) {
	for _, name := range []string{"rust", "c", "zig", "go", "ada"} {
		mustTopic(t, db, name)
	}

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		all, err := tx.Topics().List(ctx, 0, 100)
		require.NoError(t, err)
		names := make([]string, 0, len(all))
		for _, topic := range all {
			names = append(names, topic.Name)
		}
		assert.Equal(t, []string{"ada", "c", "go", "rust", "zig"}, names)

		page, err := tx.Topics().List(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "c", page[0].Name)
		assert.Equal(t, "go", page[1].Name)

		empty, err := tx.Topics().List(ctx, 10, 5)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
		return nil
	})
}

func testTopicUniqueName(t *testing.T, db interfaces.Database) {
	first := mustTopic(t, db, "first")
	mustTopic(t, db, "second")

	err := db.Transaction(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().Create(ctx, entities.TopicCreate{Name: "first"})
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrUniqueConstraint)

	err = db.Transaction(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().Update(ctx, first.ID, entities.TopicPatch{Name: validation.Some("second")})
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrUniqueConstraint)

	// renaming a topic to its own name is not a conflict
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().Update(ctx, first.ID, entities.TopicPatch{Name: validation.Some("first")})
		return err
	})
}

func testTopicPatchDescription(t *testing.T, db interfaces.Database) {
	var topic *entities.Topic
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		topic, err = tx.Topics().Create(ctx, entities.TopicCreate{Name: "described", Description: strPtr("keep me")})
		return err
	})

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		// omitted description stays
		got, err := tx.Topics().Update(ctx, topic.ID, entities.TopicPatch{Name: validation.Some("renamed")})
		require.NoError(t, err)
		require.NotNil(t, got.Description)
		assert.Equal(t, "keep me", *got.Description)

		// explicit null clears it
		got, err = tx.Topics().Update(ctx, topic.ID, entities.TopicPatch{Description: validation.Null[string]()})
		require.NoError(t, err)
		assert.Nil(t, got.Description)
		assert.Equal(t, "renamed", got.Name)

		got, err = tx.Topics().Update(ctx, topic.ID, entities.TopicPatch{Description: validation.Some("back")})
		require.NoError(t, err)
		require.NotNil(t, got.Description)
		assert.Equal(t, "back", *got.Description)
		return nil
	})
}

func testPostCreateHydrated(t *testing.T, db interfaces.Database) {
	topic := mustTopic(t, db, "hydration")
	post := mustPost(t, db, topic.ID, "hello")

	require.NotZero(t, post.ID)
	assert.Equal(t, topic.ID, post.TopicID)
	require.NotNil(t, post.Topic)
	assert.Equal(t, *topic, *post.Topic)
	assert.NotNil(t, post.Comments)
	assert.Empty(t, post.Comments)
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)

	comment := mustComment(t, db, post.ID, "first!")

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		got, err := tx.Posts().GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.Title, got.Title)
		assert.Equal(t, post.CreatedAt, got.CreatedAt)
		require.NotNil(t, got.Topic)
		assert.Equal(t, topic.Name, got.Topic.Name)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, *comment, got.Comments[0])
		return nil
	})
}

func testPostForeignKey(t *testing.T, db interfaces.Database) {
	err := db.Transaction(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Posts().Create(ctx, entities.PostCreate{Title: "orphan", Content: "x", TopicID: 9999})
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrForeignKeyConstraint)

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		posts, total, err := tx.Posts().List(ctx, entities.PostFilter{Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, posts)
		return nil
	})

	topic := mustTopic(t, db, "fk")
	post := mustPost(t, db, topic.ID, "moving")
	err = db.Transaction(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Posts().Update(ctx, post.ID, entities.PostPatch{TopicID: validation.Some[int64](9999)})
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrForeignKeyConstraint)
}

func testPostListPagination(t *testing.T, db interfaces.Database) {
	topic := mustTopic(t, db, "paging")
	ids := make([]int64, 0, 25)
	for i := 1; i <= 25; i++ {
		ids = append(ids, mustPost(t, db, topic.ID, fmt.Sprintf("post %02d", i)).ID)
	}

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		posts, total, err := tx.Posts().List(ctx, entities.PostFilter{Skip: 10, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		require.Len(t, posts, 10)

		// newest first: the 15th created post down to the 6th
		for i, p := range posts {
			assert.Equal(t, ids[14-i], p.ID)
		}
		for i := 1; i < len(posts); i++ {
			assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
		}

		last, total, err := tx.Posts().List(ctx, entities.PostFilter{Skip: 20, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.Len(t, last, 5)

		beyond, total, err := tx.Posts().List(ctx, entities.PostFilter{Skip: 30, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.NotNil(t, beyond)
		assert.Empty(t, beyond)
		return nil
	})
}

func testPostListFilter(t *testing.T, db interfaces.Database) {
	a := mustTopic(t, db, "a")
	b := mustTopic(t, db, "b")
	mustPost(t, db, a.ID, "a1")
	mustPost(t, db, b.ID, "b1")
	mustPost(t, db, a.ID, "a2")

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		posts, total, err := tx.Posts().List(ctx, entities.PostFilter{Limit: 10, TopicID: &a.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, posts, 2)
		assert.Equal(t, "a2", posts[0].Title)
		assert.Equal(t, "a1", posts[1].Title)

		_, total, err = tx.Posts().List(ctx, entities.PostFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		return nil
	})
}

func testPostPartialUpdate(t *testing.T, db interfaces.Database) {
	topic := mustTopic(t, db, "partial")
	other := mustTopic(t, db, "other")
	post := mustPost(t, db, topic.ID, "original")

	var updated *entities.Post
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		updated, err = tx.Posts().Update(ctx, post.ID, entities.PostPatch{Content: validation.Some("new content")})
		return err
	})
	assert.Equal(t, "new content", updated.Content)
	assert.Equal(t, post.Title, updated.Title)
	assert.Equal(t, post.TopicID, updated.TopicID)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt), "updated_at must advance")

	// an empty patch still refreshes updated_at
	var touched *entities.Post
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		touched, err = tx.Posts().Update(ctx, post.ID, entities.PostPatch{})
		return err
	})
	assert.True(t, touched.UpdatedAt.After(updated.UpdatedAt))
	assert.Equal(t, "new content", touched.Content)

	var moved *entities.Post
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		moved, err = tx.Posts().Update(ctx, post.ID, entities.PostPatch{TopicID: validation.Some(other.ID), Title: validation.Some("moved")})
		return err
	})
	assert.Equal(t, other.ID, moved.TopicID)
	require.NotNil(t, moved.Topic)
	assert.Equal(t, "other", moved.Topic.Name)
	assert.Equal(t, "moved", moved.Title)
}

func testPostUpdateMissing(t *testing.T, db interfaces.Database) {
	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Posts().Update(ctx, 4242, entities.PostPatch{Title: validation.Some("x")})
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		_, err = tx.Posts().GetByID(ctx, 4242)
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		ok, err := tx.Posts().Exists(ctx, 4242)
		require.NoError(t, err)
		assert.False(t, ok)

		deleted, err := tx.Posts().Delete(ctx, 4242)
		require.NoError(t, err)
		assert.False(t, deleted)
		return nil
	})
}

func testCommentCRUD(t *testing.T, db interfaces.Database) {
	topic := mustTopic(t, db, "comments")
	post := mustPost(t, db, topic.ID, "discussed")
	comment := mustComment(t, db, post.ID, "nice post")

	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "tester", comment.Author)

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		got, err := tx.Comments().GetByID(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, comment, got)

		updated, err := tx.Comments().Update(ctx, comment.ID, entities.CommentPatch{Author: validation.Some("editor")})
		require.NoError(t, err)
		assert.Equal(t, "editor", updated.Author)
		assert.Equal(t, "nice post", updated.Content)
		assert.Equal(t, comment.CreatedAt, updated.CreatedAt)

		deleted, err := tx.Comments().Delete(ctx, comment.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = tx.Comments().GetByID(ctx, comment.ID)
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		_, err = tx.Comments().Update(ctx, comment.ID, entities.CommentPatch{Author: validation.Some("x")})
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		deleted, err = tx.Comments().Delete(ctx, comment.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
		return nil
	})
}

func testCommentOrder(t *testing.T, db interfaces.Database) {
	topic := mustTopic(t, db, "ordering")
	post := mustPost(t, db, topic.ID, "thread")
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, mustComment(t, db, post.ID, fmt.Sprintf("comment %d", i)).ID)
	}

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		all, err := tx.Comments().ListByPost(ctx, post.ID, 0, 100)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i, c := range all {
			assert.Equal(t, ids[i], c.ID)
		}

		page, err := tx.Comments().ListByPost(ctx, post.ID, 3, 10)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[3], page[0].ID)

		none, err := tx.Comments().ListByPost(ctx, 4242, 0, 100)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
		return nil
	})
}

func testCommentForeignKey(t *testing.T, db interfaces.Database) {
	err := db.Transaction(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Comments().Create(ctx, 4242, entities.CommentCreate{Content: "x", Author: "y"})
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrForeignKeyConstraint)
}

func testCascadeTopicDelete(t *testing.T, db interfaces.Database) {
	topic := mustTopic(t, db, "doomed")
	keep := mustTopic(t, db, "kept")
	kept := mustPost(t, db, keep.ID, "survivor")

	var postIDs, commentIDs []int64
	for i := 0; i < 3; i++ {
		p := mustPost(t, db, topic.ID, fmt.Sprintf("doomed %d", i))
		postIDs = append(postIDs, p.ID)
		for j := 0; j < 2; j++ {
			commentIDs = append(commentIDs, mustComment(t, db, p.ID, fmt.Sprintf("c%d-%d", i, j)).ID)
		}
	}

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		deleted, err := tx.Topics().Delete(ctx, topic.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		return nil
	})

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		for _, id := range postIDs {
			ok, err := tx.Posts().Exists(ctx, id)
			require.NoError(t, err)
			assert.False(t, ok, "post %d should be gone", id)
		}
		for _, id := range commentIDs {
			_, err := tx.Comments().GetByID(ctx, id)
			assert.ErrorIs(t, err, interfaces.ErrNotFound, "comment %d should be gone", id)
		}

		_, total, err := tx.Posts().List(ctx, entities.PostFilter{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		ok, err := tx.Posts().Exists(ctx, kept.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
}

func testCascadePostDelete(t *testing.T, db interfaces.Database) {
	topic := mustTopic(t, db, "posts")
	post := mustPost(t, db, topic.ID, "short lived")
	c1 := mustComment(t, db, post.ID, "one")
	c2 := mustComment(t, db, post.ID, "two")

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		deleted, err := tx.Posts().Delete(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		for _, id := range []int64{c1.ID, c2.ID} {
			_, err := tx.Comments().GetByID(ctx, id)
			assert.ErrorIs(t, err, interfaces.ErrNotFound)
		}

		ok, err := tx.Topics().Exists(ctx, topic.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
}

func testTransactionRollback(t *testing.T, db interfaces.Database) {
	errBoom := errors.New("boom")
	err := db.Transaction(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
		if _, err := tx.Topics().Create(ctx, entities.TopicCreate{Name: "ghost"}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().GetByName(ctx, "ghost")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
		return nil
	})

	// the name is free again after the rollback
	mustTopic(t, db, "ghost")
}

func testTransactionPanic(t *testing.T, db interfaces.Database) {
	assert.Panics(t, func() {
		_ = db.Transaction(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
			if _, err := tx.Topics().Create(ctx, entities.TopicCreate{Name: "panicky"}); err != nil {
				return err
			}
			panic("boom")
		})
	})

	run(t, db, func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().GetByName(ctx, "panicky")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
		return nil
	})
}

func testHealth(t *testing.T, db interfaces.Database) {
	assert.True(t, db.IsHealthy(context.Background()))
}
