package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/leafsii/blog-backend/internal/db"
	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

func main() {
	dbType := flag.String("type", "memory", "database type (memory, sqlite, postgres)")
	dsn := flag.String("dsn", "", "database DSN for sql backends")
	flag.Parse()

	ctx := context.Background()

	fmt.Println("=== Blog Storage Demo ===")

	database, err := db.NewDatabase(&db.Config{Type: *dbType, DSN: *dsn})
	if err != nil {
		log.Fatalf("Invalid database config: %v", err)
	}

	// Connect and migrate
	if err := db.ConnectAndMigrate(ctx, database); err != nil {
		log.Fatalf("Failed to setup database: %v", err)
	}
	defer database.Disconnect(ctx)

	n, err := db.Seed(ctx, database)
	if err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}
	fmt.Printf("Seeded %d records\n", n)

	run := func(fn func(ctx context.Context, tx interfaces.Tx) error) error {
		return database.Transaction(ctx, fn)
	}

	fmt.Println("\n--- Topics ---")

	err = run(func(ctx context.Context, tx interfaces.Tx) error {
		topics, err := tx.Topics().List(ctx, 0, 100)
		if err != nil {
			return err
		}
		for _, t := range topics {
			desc := "-"
			if t.Description != nil {
				desc = *t.Description
			}
			fmt.Printf("  [%d] %s: %s\n", t.ID, t.Name, desc)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to list topics: %v", err)
	}

	fmt.Println("\n--- Pagination Example ---")

	size := 2
	for page := 1; ; page++ {
		var (
			posts []entities.Post
			total int64
		)
		err := run(func(ctx context.Context, tx interfaces.Tx) error {
			var err error
			posts, total, err = tx.Posts().List(ctx, entities.PostFilter{Skip: (page - 1) * size, Limit: size})
			return err
		})
		if err != nil {
			log.Fatalf("Failed to get page: %v", err)
		}
		if len(posts) == 0 {
			break
		}

		fmt.Printf("Page %d (total: %d):\n", page, total)
		for _, p := range posts {
			fmt.Printf("  - %s (topic %d)\n", p.Title, p.TopicID)
		}
	}

	fmt.Println("\n--- Transaction Example ---")

	// Failed transaction (should rollback)
	err = run(func(ctx context.Context, tx interfaces.Tx) error {
		if _, err := tx.Topics().Create(ctx, entities.TopicCreate{Name: "Ephemeral"}); err != nil {
			return err
		}
		return fmt.Errorf("simulated error")
	})
	fmt.Printf("Transaction failed as expected: %v\n", err)

	err = run(func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().GetByName(ctx, "Ephemeral")
		return err
	})
	if errors.Is(err, interfaces.ErrNotFound) {
		fmt.Println("Rollback successful - topic was not created")
	} else {
		log.Printf("Rollback check failed: %v", err)
	}

	fmt.Println("\n--- Constraint Examples ---")

	err = run(func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().Create(ctx, db.TopicFixtures[0])
		return err
	})
	if errors.Is(err, interfaces.ErrUniqueConstraint) {
		fmt.Printf("Unique constraint error (expected): %v\n", err)
	}

	err = run(func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Posts().Create(ctx, entities.PostCreate{Title: "Orphan", Content: "No topic", TopicID: 9999})
		return err
	})
	if errors.Is(err, interfaces.ErrForeignKeyConstraint) {
		fmt.Printf("Foreign key constraint error (expected): %v\n", err)
	}

	fmt.Println("\n--- Cascade Example ---")

	err = run(func(ctx context.Context, tx interfaces.Tx) error {
		topics, err := tx.Topics().List(ctx, 0, 1)
		if err != nil || len(topics) == 0 {
			return err
		}
		if _, err := tx.Topics().Delete(ctx, topics[0].ID); err != nil {
			return err
		}
		_, total, err := tx.Posts().List(ctx, entities.PostFilter{Limit: -1})
		if err != nil {
			return err
		}
		fmt.Printf("Deleted topic %q, %d posts remain\n", topics[0].Name, total)
		return nil
	})
	if err != nil {
		log.Fatalf("Cascade example failed: %v", err)
	}

	fmt.Println("\n=== Demo completed ===")
}
