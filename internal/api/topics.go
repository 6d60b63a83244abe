package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

// Topic endpoints

func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var in entities.TopicCreate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var topic *entities.Topic
	err := h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		if err := ensureNameFree(ctx, tx, in.Name, 0); err != nil {
			return err
		}
		created, err := tx.Topics().Create(ctx, in)
		if errors.Is(err, interfaces.ErrUniqueConstraint) {
			return conflict("Topic with name '%s' already exists", in.Name)
		}
		topic = created
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.logger.Infow("Topic created", "topic_id", topic.ID, "name", topic.Name)
	h.writeJSON(w, http.StatusCreated, toTopicDTO(topic))
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var topics []entities.Topic
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		topics, err = tx.Topics().List(ctx, params.Skip, params.Limit)
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTopicDTOs(topics))
}

func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "topic_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var topic *entities.Topic
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		topic, err = tx.Topics().GetByID(ctx, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return notFound("Topic not found")
		}
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTopicDTO(topic))
}

func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "topic_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var patch entities.TopicPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var topic *entities.Topic
	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		exists, err := tx.Topics().Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("Topic not found")
		}

		if patch.Name.Present() {
			if err := ensureNameFree(ctx, tx, patch.Name.Value, id); err != nil {
				return err
			}
		}

		topic, err = tx.Topics().Update(ctx, id, patch)
		switch {
		case errors.Is(err, interfaces.ErrUniqueConstraint):
			return conflict("Topic with name '%s' already exists", patch.Name.Value)
		case errors.Is(err, interfaces.ErrNotFound):
			return notFound("Topic not found")
		}
		return err
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTopicDTO(topic))
}

func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "topic_id")
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	err = h.withTx(r.Context(), func(ctx context.Context, tx interfaces.Tx) error {
		deleted, err := tx.Topics().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("Topic not found")
		}
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.logger.Infow("Topic deleted", "topic_id", id)
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Topic deleted successfully"})
}

// ensureNameFree fails with a conflict when another topic than self already
// uses name.
func ensureNameFree(ctx context.Context, tx interfaces.Tx, name string, self int64) error {
	existing, err := tx.Topics().GetByName(ctx, name)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return conflict("Topic with name '%s' already exists", name)
	}
	return nil
}
