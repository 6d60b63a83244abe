package db

import (
	"context"
	"fmt"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

func describe(s string) *string { return &s }

// TopicFixtures provides sample topic data for seeding
var TopicFixtures = []entities.TopicCreate{
	{Name: "Go", Description: describe("The Go programming language")},
	{Name: "Databases", Description: describe("Relational stores, migrations and query tuning")},
	{Name: "Announcements"},
}

// PostFixtures provides sample post data for seeding.
// topicIDs must hold the IDs of the created topic fixtures, in order.
func PostFixtures(topicIDs []int64) []entities.PostCreate {
	if len(topicIDs) == 0 {
		return []entities.PostCreate{}
	}

	pick := func(i int) int64 {
		if i < len(topicIDs) {
			return topicIDs[i]
		}
		return topicIDs[0]
	}

	return []entities.PostCreate{
		{
			Title:   "Introduction to Go",
			Content: "Go is a programming language developed at Google...",
			TopicID: pick(0),
		},
		{
			Title:   "Database Design Patterns",
			Content: "When designing databases, there are several patterns...",
			TopicID: pick(1),
		},
		{
			Title:   "Advanced Go Techniques",
			Content: "This post covers advanced Go programming techniques...",
			TopicID: pick(0),
		},
		{
			Title:   "Welcome to the blog",
			Content: "Posts are grouped by topic and open for comments.",
			TopicID: pick(2),
		},
	}
}

// CommentFixtures provides sample comments for the first seeded post
var CommentFixtures = []entities.CommentCreate{
	{Content: "Great introduction, thanks!", Author: "jane"},
	{Content: "Looking forward to the next part.", Author: "bob"},
}

// Seed inserts the fixtures in a single transaction when the store holds no
// topics yet. It returns the number of records inserted.
func Seed(ctx context.Context, db interfaces.Database) (int, error) {
	inserted := 0
	err := db.Transaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		existing, err := tx.Topics().List(ctx, 0, 1)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		topicIDs := make([]int64, 0, len(TopicFixtures))
		for _, in := range TopicFixtures {
			topic, err := tx.Topics().Create(ctx, in)
			if err != nil {
				return fmt.Errorf("seed topic %q: %w", in.Name, err)
			}
			topicIDs = append(topicIDs, topic.ID)
		}

		var firstPost int64
		for i, in := range PostFixtures(topicIDs) {
			post, err := tx.Posts().Create(ctx, in)
			if err != nil {
				return fmt.Errorf("seed post %q: %w", in.Title, err)
			}
			if i == 0 {
				firstPost = post.ID
			}
		}

		for _, in := range CommentFixtures {
			if _, err := tx.Comments().Create(ctx, firstPost, in); err != nil {
				return fmt.Errorf("seed comment: %w", err)
			}
		}

		inserted = len(topicIDs) + len(PostFixtures(topicIDs)) + len(CommentFixtures)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
