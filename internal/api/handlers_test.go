package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leafsii/blog-backend/internal/db"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

// Mock metrics for testing
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	m.Called(method, route, status)
}

func (m *MockMetrics) RecordTransaction(ctx context.Context, outcome string) {
	m.Called(outcome)
}

// countingMetrics tallies transaction outcomes without expectations.
type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *countingMetrics) RecordHTTPRequest(context.Context, string, string, int, time.Duration) {}

func (c *countingMetrics) RecordTransaction(_ context.Context, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}

func createTestHandler(t *testing.T, store interfaces.Database, metrics MetricsInterface) http.Handler {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, db.ConnectAndMigrate(ctx, store))
	t.Cleanup(func() { _ = store.Disconnect(ctx) })

	logger, _ := zap.NewDevelopment()
	sugar := logger.Sugar()

	handler := NewHandler(store, sugar, metrics)
	return handler.Routes(NewMiddleware(sugar, metrics), RouteOptions{
		CORSOrigins:    []string{"*"},
		RequestTimeout: 5 * time.Second,
	})
}

// backends runs fn against the in-memory store and an in-memory SQLite database.
func backends(t *testing.T, fn func(t *testing.T, h http.Handler)) {
	factories := map[string]func() interfaces.Database{
		"memory": db.NewInMemoryDatabase,
		"sqlite": func() interfaces.Database {
			return db.MustNewDatabase(&db.Config{Type: "sqlite", DSN: ":memory:"})
		},
	}
	for _, name := range []string{"memory", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			fn(t, createTestHandler(t, factories[name](), &countingMetrics{}))
		})
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createTopic(t *testing.T, h http.Handler, name string) TopicDTO {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/topics", map[string]any{"name": name, "description": name + " things"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[TopicDTO](t, w)
}

func createPost(t *testing.T, h http.Handler, topicID int64, title string) PostDTO {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/posts", map[string]any{"title": title, "content": "body of " + title, "topic_id": topicID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[PostDTO](t, w)
}

func createComment(t *testing.T, h http.Handler, postID int64, content string) CommentDTO {
	t.Helper()
	w := do(t, h, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", postID), map[string]any{"content": content, "author": "alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[CommentDTO](t, w)
}

func TestRootAndHealth(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		w := do(t, h, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Blog API is running", decode[MessageResponse](t, w).Message)

		w = do(t, h, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", decode[HealthResponse](t, w).Status)
	})
}

func TestHealthUnhealthy(t *testing.T) {
	store := db.NewInMemoryDatabase()
	h := createTestHandler(t, store, &countingMetrics{})
	require.NoError(t, store.Disconnect(context.Background()))

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode[HealthResponse](t, w).Status)
}

func TestTopicLifecycle(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		golang := createTopic(t, h, "golang")
		assert.NotZero(t, golang.ID)
		require.NotNil(t, golang.Description)
		assert.Equal(t, "golang things", *golang.Description)

		w := do(t, h, http.MethodGet, fmt.Sprintf("/api/topics/%d", golang.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, golang, decode[TopicDTO](t, w))

		// duplicate name
		w = do(t, h, http.MethodPost, "/api/topics", map[string]any{"name": "golang"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decode[ErrorResponse](t, w)
		assert.Equal(t, "CONFLICT", errResp.Code)
		assert.Equal(t, "Topic with name 'golang' already exists", errResp.Message)

		rust := createTopic(t, h, "rust")
		createTopic(t, h, "assembly")

		w = do(t, h, http.MethodGet, "/api/topics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var names []string
		for _, topic := range decode[[]TopicDTO](t, w) {
			names = append(names, topic.Name)
		}
		assert.Equal(t, []string{"assembly", "golang", "rust"}, names)

		w = do(t, h, http.MethodGet, "/api/topics?skip=1&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[[]TopicDTO](t, w)
		require.Len(t, page, 1)
		assert.Equal(t, "golang", page[0].Name)

		// renaming onto another topic's name conflicts, keeping its own is fine
		w = do(t, h, http.MethodPut, fmt.Sprintf("/api/topics/%d", rust.ID), map[string]any{"name": "golang"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = do(t, h, http.MethodPut, fmt.Sprintf("/api/topics/%d", golang.ID), map[string]any{"name": "golang"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = do(t, h, http.MethodPut, fmt.Sprintf("/api/topics/%d", rust.ID), map[string]any{"name": "ferris"})
		require.Equal(t, http.StatusOK, w.Code)
		renamed := decode[TopicDTO](t, w)
		assert.Equal(t, "ferris", renamed.Name)
		assert.Equal(t, rust.Description, renamed.Description)
		assert.True(t, rust.CreatedAt.Equal(renamed.CreatedAt))

		w = do(t, h, http.MethodDelete, fmt.Sprintf("/api/topics/%d", rust.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Topic deleted successfully", decode[MessageResponse](t, w).Message)

		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/topics/%d", rust.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Topic not found", decode[ErrorResponse](t, w).Message)

		w = do(t, h, http.MethodDelete, fmt.Sprintf("/api/topics/%d", rust.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = do(t, h, http.MethodPut, fmt.Sprintf("/api/topics/%d", rust.ID), map[string]any{"name": "again"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTopicDescriptionPatch(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		topic := createTopic(t, h, "cooking")
		path := fmt.Sprintf("/api/topics/%d", topic.ID)

		// omitted description is kept
		w := do(t, h, http.MethodPut, path, `{"name":"baking"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, decode[TopicDTO](t, w).Description)

		// explicit null clears it
		w = do(t, h, http.MethodPut, path, `{"description":null}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"description":null`)
		assert.Nil(t, decode[TopicDTO](t, w).Description)

		// explicit null on a required field is rejected
		w = do(t, h, http.MethodPut, path, `{"name":null}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		// empty body changes nothing
		w = do(t, h, http.MethodPut, path, `{}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "baking", decode[TopicDTO](t, w).Name)
	})
}

func TestCreatePost(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		topic := createTopic(t, h, "travel")

		post := createPost(t, h, topic.ID, "Lisbon")
		assert.Equal(t, topic.ID, post.TopicID)
		require.NotNil(t, post.Topic)
		assert.Equal(t, topic.Name, post.Topic.Name)
		assert.Empty(t, post.Comments)
		assert.True(t, post.CreatedAt.Equal(post.UpdatedAt))

		w := do(t, h, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"comments":[]`)

		// unknown topic persists nothing
		w = do(t, h, http.MethodPost, "/api/posts", map[string]any{"title": "x", "content": "y", "topic_id": 999})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Topic with id 999 not found", decode[ErrorResponse](t, w).Message)

		w = do(t, h, http.MethodGet, "/api/posts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), decode[PostListDTO](t, w).Total)

		w = do(t, h, http.MethodGet, "/api/posts/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Post not found", decode[ErrorResponse](t, w).Message)
	})
}

func TestPostPagination(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		topic := createTopic(t, h, "news")
		other := createTopic(t, h, "sports")

		ids := make([]int64, 0, 25)
		for i := 0; i < 25; i++ {
			ids = append(ids, createPost(t, h, topic.ID, fmt.Sprintf("post %d", i)).ID)
		}
		createPost(t, h, other.ID, "match report")

		w := do(t, h, http.MethodGet, fmt.Sprintf("/api/posts?page=2&size=10&topic_id=%d", topic.ID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		list := decode[PostListDTO](t, w)
		assert.Equal(t, int64(25), list.Total)
		assert.Equal(t, 2, list.Page)
		assert.Equal(t, 10, list.Size)
		assert.Equal(t, int64(3), list.Pages)
		require.Len(t, list.Items, 10)
		for i, item := range list.Items {
			// newest first: the second page holds the 11th to 20th newest
			assert.Equal(t, ids[14-i], item.ID)
		}

		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/posts?page=3&size=10&topic_id=%d", topic.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[PostListDTO](t, w).Items, 5)

		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/posts?page=9&topic_id=%d", topic.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		list = decode[PostListDTO](t, w)
		assert.Empty(t, list.Items)
		assert.Contains(t, w.Body.String(), `"items":[]`)

		w = do(t, h, http.MethodGet, "/api/posts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list = decode[PostListDTO](t, w)
		assert.Equal(t, int64(26), list.Total)
		assert.Equal(t, 1, list.Page)
		assert.Equal(t, 10, list.Size)
		assert.Equal(t, int64(3), list.Pages)

		w = do(t, h, http.MethodGet, "/api/posts?topic_id=999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEmptyPostListHasOnePage(t *testing.T) {
	h := createTestHandler(t, db.NewInMemoryDatabase(), &countingMetrics{})

	w := do(t, h, http.MethodGet, "/api/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[PostListDTO](t, w)
	assert.Zero(t, list.Total)
	assert.Equal(t, int64(1), list.Pages)
}

func TestUpdatePost(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		topic := createTopic(t, h, "music")
		other := createTopic(t, h, "film")
		post := createPost(t, h, topic.ID, "Jazz")
		path := fmt.Sprintf("/api/posts/%d", post.ID)

		w := do(t, h, http.MethodPut, path, map[string]any{"title": "Bebop"})
		require.Equal(t, http.StatusOK, w.Code)
		updated := decode[PostDTO](t, w)
		assert.Equal(t, "Bebop", updated.Title)
		assert.Equal(t, post.Content, updated.Content)
		assert.Equal(t, topic.ID, updated.TopicID)
		assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(post.CreatedAt))

		w = do(t, h, http.MethodPut, path, map[string]any{"topic_id": other.ID})
		require.Equal(t, http.StatusOK, w.Code)
		moved := decode[PostDTO](t, w)
		assert.Equal(t, other.ID, moved.TopicID)
		require.NotNil(t, moved.Topic)
		assert.Equal(t, "film", moved.Topic.Name)
		assert.True(t, moved.UpdatedAt.After(updated.UpdatedAt))

		// missing topic leaves the post unchanged
		w = do(t, h, http.MethodPut, path, map[string]any{"title": "Swing", "topic_id": 999})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Topic with id 999 not found", decode[ErrorResponse](t, w).Message)

		w = do(t, h, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Bebop", decode[PostDTO](t, w).Title)

		w = do(t, h, http.MethodPut, "/api/posts/999", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Post not found", decode[ErrorResponse](t, w).Message)

		w = do(t, h, http.MethodPut, path, `{"title":null}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = do(t, h, http.MethodPut, path, map[string]any{"topic_id": 0})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestComments(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		topic := createTopic(t, h, "books")
		post := createPost(t, h, topic.ID, "Dune")

		first := createComment(t, h, post.ID, "first")
		second := createComment(t, h, post.ID, "second")
		third := createComment(t, h, post.ID, "third")
		assert.Equal(t, post.ID, first.PostID)

		listPath := fmt.Sprintf("/api/posts/%d/comments", post.ID)
		w := do(t, h, http.MethodGet, listPath, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []int64
		for _, c := range decode[[]CommentDTO](t, w) {
			got = append(got, c.ID)
		}
		assert.Equal(t, []int64{first.ID, second.ID, third.ID}, got)

		w = do(t, h, http.MethodGet, listPath+"?skip=1&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[[]CommentDTO](t, w)
		require.Len(t, page, 1)
		assert.Equal(t, second.ID, page[0].ID)

		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[PostDTO](t, w).Comments, 3)

		commentPath := fmt.Sprintf("/api/comments/%d", second.ID)
		w = do(t, h, http.MethodPut, commentPath, map[string]any{"content": "edited"})
		require.Equal(t, http.StatusOK, w.Code)
		edited := decode[CommentDTO](t, w)
		assert.Equal(t, "edited", edited.Content)
		assert.Equal(t, "alice", edited.Author)

		w = do(t, h, http.MethodGet, commentPath, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "edited", decode[CommentDTO](t, w).Content)

		w = do(t, h, http.MethodDelete, commentPath, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Comment deleted successfully", decode[MessageResponse](t, w).Message)

		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			w = do(t, h, method, commentPath, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "Comment not found", decode[ErrorResponse](t, w).Message)
		}
		w = do(t, h, http.MethodPut, commentPath, map[string]any{"content": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(t, h, http.MethodPost, "/api/posts/999/comments", map[string]any{"content": "x", "author": "y"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Post not found", decode[ErrorResponse](t, w).Message)

		w = do(t, h, http.MethodGet, "/api/posts/999/comments", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCascadeDeletes(t *testing.T) {
	backends(t, func(t *testing.T, h http.Handler) {
		topic := createTopic(t, h, "garden")
		kept := createTopic(t, h, "kitchen")
		post := createPost(t, h, topic.ID, "Roses")
		other := createPost(t, h, topic.ID, "Tulips")
		survivor := createPost(t, h, kept.ID, "Knives")
		comment := createComment(t, h, post.ID, "lovely")
		survivingComment := createComment(t, h, survivor.ID, "sharp")

		// deleting a post removes its comments
		w := do(t, h, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Post deleted successfully", decode[MessageResponse](t, w).Message)
		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/comments/%d", comment.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		// deleting a topic removes its posts and their comments
		otherComment := createComment(t, h, other.ID, "pretty")
		w = do(t, h, http.MethodDelete, fmt.Sprintf("/api/topics/%d", topic.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/posts/%d", other.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/comments/%d", otherComment.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		// unrelated rows are untouched
		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/posts/%d", survivor.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[PostDTO](t, w).Comments, 1)
		w = do(t, h, http.MethodGet, fmt.Sprintf("/api/comments/%d", survivingComment.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = do(t, h, http.MethodGet, "/api/posts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), decode[PostListDTO](t, w).Total)
	})
}

func TestValidationErrors(t *testing.T) {
	h := createTestHandler(t, db.NewInMemoryDatabase(), &countingMetrics{})
	topic := createTopic(t, h, "valid")
	post := createPost(t, h, topic.ID, "valid")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		field  string
	}{
		{"empty topic name", http.MethodPost, "/api/topics", map[string]any{"name": ""}, "name"},
		{"missing topic name", http.MethodPost, "/api/topics", map[string]any{"description": "x"}, "name"},
		{"long topic name", http.MethodPost, "/api/topics", map[string]any{"name": strings.Repeat("n", 101)}, "name"},
		{"long description", http.MethodPost, "/api/topics", map[string]any{"name": "d", "description": strings.Repeat("d", 501)}, "description"},
		{"long title", http.MethodPost, "/api/posts", map[string]any{"title": strings.Repeat("t", 201), "content": "c", "topic_id": topic.ID}, "title"},
		{"missing content", http.MethodPost, "/api/posts", map[string]any{"title": "t", "topic_id": topic.ID}, "content"},
		{"missing topic id", http.MethodPost, "/api/posts", map[string]any{"title": "t", "content": "c"}, "topic_id"},
		{"wrong topic id type", http.MethodPost, "/api/posts", `{"title":"t","content":"c","topic_id":"one"}`, "topic_id"},
		{"long comment", http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), map[string]any{"content": strings.Repeat("c", 1001), "author": "a"}, "content"},
		{"empty author", http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), map[string]any{"content": "c", "author": ""}, "author"},
		{"empty comment patch", http.MethodPut, "/api/comments/1", map[string]any{"content": ""}, "content"},
		{"malformed json", http.MethodPost, "/api/topics", `{"name":`, "body"},
		{"empty body", http.MethodPost, "/api/topics", nil, "body"},
		{"non-integer id", http.MethodGet, "/api/topics/abc", nil, "topic_id"},
		{"negative skip", http.MethodGet, "/api/topics?skip=-1", nil, "skip"},
		{"limit too large", http.MethodGet, "/api/topics?limit=101", nil, "limit"},
		{"zero limit", http.MethodGet, fmt.Sprintf("/api/posts/%d/comments?limit=0", post.ID), nil, "limit"},
		{"page zero", http.MethodGet, "/api/posts?page=0", nil, "page"},
		{"size too large", http.MethodGet, "/api/posts?size=101", nil, "size"},
		{"zero topic filter", http.MethodGet, "/api/posts?topic_id=0", nil, "topic_id"},
		{"non-integer page", http.MethodGet, "/api/posts?page=two", nil, "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.field, resp.Details[0].Field)
		})
	}
}

func TestUnicodeLengthLimits(t *testing.T) {
	h := createTestHandler(t, db.NewInMemoryDatabase(), &countingMetrics{})

	// 100 multi-byte characters are within the limit
	w := do(t, h, http.MethodPost, "/api/topics", map[string]any{"name": strings.Repeat("é", 100)})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTrailingSlash(t *testing.T) {
	h := createTestHandler(t, db.NewInMemoryDatabase(), &countingMetrics{})

	w := do(t, h, http.MethodPost, "/api/topics/", map[string]any{"name": "slash"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodGet, "/api/topics/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]TopicDTO](t, w), 1)
}

func TestTransactionOutcomesRecorded(t *testing.T) {
	m := &MockMetrics{}
	m.On("RecordHTTPRequest", mock.Anything, mock.Anything, mock.Anything).Return()
	m.On("RecordTransaction", "commit").Return().Times(2)
	m.On("RecordTransaction", "rollback").Return().Once()

	h := createTestHandler(t, db.NewInMemoryDatabase(), m)

	w := do(t, h, http.MethodPost, "/api/topics", map[string]any{"name": "once"})
	require.Equal(t, http.StatusCreated, w.Code)
	topic := decode[TopicDTO](t, w)
	w = do(t, h, http.MethodPost, "/api/topics", map[string]any{"name": "once"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodGet, fmt.Sprintf("/api/topics/%d", topic.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	m.AssertExpectations(t)
	m.AssertCalled(t, "RecordHTTPRequest", http.MethodGet, "/api/topics/{topic_id}", http.StatusOK)
}

func TestConflictRollsBack(t *testing.T) {
	metrics := &countingMetrics{}
	h := createTestHandler(t, db.NewInMemoryDatabase(), metrics)

	createTopic(t, h, "solo")
	w := do(t, h, http.MethodPost, "/api/topics", map[string]any{"name": "solo"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/topics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]TopicDTO](t, w), 1)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 2, metrics.outcomes["commit"])
	assert.Equal(t, 1, metrics.outcomes["rollback"])
}
