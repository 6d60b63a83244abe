package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/db/query"
)

// Post endpoints

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in entities.PostCreate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var post *entities.Post
	err := h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		if err := ensureTopic(ctx, tx, in.TopicID); err != nil {
			return err
		}
		created, err := tx.Posts().Create(ctx, in)
		if errors.Is(err, interfaces.ErrForeignKeyConstraint) {
			return notFound("Topic with id %d not found", in.TopicID)
		}
		post = created
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.logger.Infow("Post created", "post_id", post.ID, "topic_id", post.TopicID)
	h.writeJSON(w, http.StatusCreated, toPostDTO(post))
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	params, err := parsePostListParams(r)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var (
		posts []entities.Post
		total int64
	)
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		if params.TopicID != nil {
			if err := ensureTopic(ctx, tx, *params.TopicID); err != nil {
				return err
			}
		}

		var err error
		posts, total, err = tx.Posts().List(ctx, entities.PostFilter{
			Skip:    query.Offset(params.Page, params.Size),
			Limit:   params.Size,
			TopicID: params.TopicID,
		})
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPostList(posts, total, params.Page, params.Size))
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "post_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var post *entities.Post
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		post, err = tx.Posts().GetByID(ctx, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return notFound("Post not found")
		}
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPostDTO(post))
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "post_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var patch entities.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var post *entities.Post
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		if patch.TopicID.Present() {
			if err := ensureTopic(ctx, tx, patch.TopicID.Value); err != nil {
				return err
			}
		}

		var err error
		post, err = tx.Posts().Update(ctx, id, patch)
		switch {
		case errors.Is(err, interfaces.ErrNotFound):
			return notFound("Post not found")
		case errors.Is(err, interfaces.ErrForeignKeyConstraint):
			return notFound("Topic with id %d not found", patch.TopicID.Value)
		}
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPostDTO(post))
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "post_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		deleted, err := tx.Posts().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("Post not found")
		}
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.logger.Infow("Post deleted", "post_id", id)
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Post deleted successfully"})
}

func ensureTopic(ctx context.Context, tx interfaces.Tx, id int64) error {
	exists, err := tx.Topics().Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("Topic with id %d not found", id)
	}
	return nil
}
