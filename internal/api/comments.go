package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

// Comment endpoints

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "post_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var in entities.CommentCreate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var comment *entities.Comment
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		if err := ensurePost(ctx, tx, postID); err != nil {
			return err
		}
		created, err := tx.Comments().Create(ctx, postID, in)
		if errors.Is(err, interfaces.ErrForeignKeyConstraint) {
			return notFound("Post not found")
		}
		comment = created
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.logger.Infow("Comment created", "comment_id", comment.ID, "post_id", postID)
	h.writeJSON(w, http.StatusCreated, toCommentDTO(comment))
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "post_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var comments []entities.Comment
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		if err := ensurePost(ctx, tx, postID); err != nil {
			return err
		}
		var err error
		comments, err = tx.Comments().ListByPost(ctx, postID, params.Skip, params.Limit)
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCommentDTOs(comments))
}

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "comment_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var comment *entities.Comment
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		comment, err = tx.Comments().GetByID(ctx, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return notFound("Comment not found")
		}
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCommentDTO(comment))
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "comment_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var patch entities.CommentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var comment *entities.Comment
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		comment, err = tx.Comments().Update(ctx, id, patch)
		if errors.Is(err, interfaces.ErrNotFound) {
			return notFound("Comment not found")
		}
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCommentDTO(comment))
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "comment_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		deleted, err := tx.Comments().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("Comment not found")
		}
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Comment deleted successfully"})
}

func ensurePost(ctx context.Context, tx interfaces.Tx, id int64) error {
	exists, err := tx.Posts().Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("Post not found")
	}
	return nil
}
