package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/metrics"
	"github.com/leafsii/blog-backend/internal/validation"
)

const maxBodyBytes = 1 << 20

// MetricsInterface defines the interface for metrics recording
type MetricsInterface interface {
	RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration)
	RecordTransaction(ctx context.Context, outcome string)
}

type Handler struct {
	db      interfaces.Database
	logger  *zap.SugaredLogger
	metrics MetricsInterface
}

func NewHandler(db interfaces.Database, logger *zap.SugaredLogger, metrics MetricsInterface) *Handler {
	return &Handler{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// apiError is returned from inside a transaction to abort it with a
// specific HTTP response.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func notFound(format string, args ...any) *apiError {
	return &apiError{status: http.StatusNotFound, code: "NOT_FOUND", message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, code: "CONFLICT", message: fmt.Sprintf(format, args...)}
}

// withTx runs fn in a single store transaction and records its outcome.
func (h *Handler) withTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	err := h.db.Transaction(ctx, fn)

	outcome := metrics.OutcomeCommit
	if err != nil {
		outcome = metrics.OutcomeRollback
	}
	h.metrics.RecordTransaction(ctx, outcome)

	return err
}

// Health and ops endpoints
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Blog API is running"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.db.IsHealthy(r.Context()) {
		h.logger.Warnw("Health check failed", "request_id", middleware.GetReqID(r.Context()))
		h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// Utility methods
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	fields := []any{
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"message", message,
		"status", status,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("API error", fields...)
	} else {
		h.logger.Infow("API error", fields...)
	}

	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, r *http.Request, errs validation.Errors) {
	h.logger.Infow("Validation failed",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"errors", errs.Error(),
	)

	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Request validation failed",
		Details: errs,
	})
}

// writeStoreError maps an error coming out of a handler transaction to a
// response. Anything unrecognised is a 500 and is logged with its cause.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ae   *apiError
		errs validation.Errors
	)
	switch {
	case errors.As(err, &ae):
		h.writeError(w, r, ae.status, ae.code, ae.message)
	case errors.As(err, &errs):
		h.writeValidationError(w, r, errs)
	case errors.Is(err, interfaces.ErrUniqueConstraint):
		h.writeError(w, r, http.StatusBadRequest, "CONFLICT", "Resource already exists")
	case errors.Is(err, interfaces.ErrForeignKeyConstraint):
		h.writeError(w, r, http.StatusNotFound, "NOT_FOUND", "Referenced resource not found")
	case errors.Is(err, interfaces.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.writeError(w, r, http.StatusServiceUnavailable, "TIMEOUT", "Request timeout")
	default:
		h.logger.Errorw("Store operation failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// decodeJSON reads a JSON request body into dst and validates it.
// Malformed or mistyped bodies are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return validation.Errors{{Field: "body", Rule: "json", Message: "must contain a single JSON object"}}
	}
	return validation.Struct(dst)
}

func bodyError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return validation.Errors{{Field: "body", Rule: "required", Message: "field required"}}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return validation.Errors{{Field: field, Rule: "type", Message: "must be of type " + typeErr.Type.String()}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return validation.Errors{{Field: "body", Rule: "json", Message: "must be valid JSON"}}
	case errors.As(err, &maxErr):
		return validation.Errors{{Field: "body", Rule: "max", Message: fmt.Sprintf("must be at most %d bytes", maxErr.Limit)}}
	default:
		return validation.Errors{{Field: "body", Rule: "json", Message: err.Error()}}
	}
}

// pathID parses an integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validation.Errors{{Field: name, Rule: "int", Message: "must be an integer"}}
	}
	return id, nil
}

// queryInt reads an optional integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errors{{Field: name, Rule: "int", Message: "must be an integer"}}
	}
	return v, nil
}

func parseListParams(r *http.Request) (ListParams, error) {
	var (
		p    ListParams
		err  error
		errs validation.Errors
	)
	if p.Skip, err = queryInt(r, "skip", 0); err != nil {
		errs = append(errs, err.(validation.Errors)...)
	}
	if p.Limit, err = queryInt(r, "limit", 100); err != nil {
		errs = append(errs, err.(validation.Errors)...)
	}
	if len(errs) > 0 {
		return p, errs
	}
	return p, validation.Struct(p)
}

func parsePostListParams(r *http.Request) (PostListParams, error) {
	var (
		p    PostListParams
		err  error
		errs validation.Errors
	)
	if p.Page, err = queryInt(r, "page", 1); err != nil {
		errs = append(errs, err.(validation.Errors)...)
	}
	if p.Size, err = queryInt(r, "size", 10); err != nil {
		errs = append(errs, err.(validation.Errors)...)
	}
	if raw := r.URL.Query().Get("topic_id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			errs = append(errs, validation.FieldError{Field: "topic_id", Rule: "int", Message: "must be an integer"})
		} else {
			p.TopicID = &id
		}
	}
	if len(errs) > 0 {
		return p, errs
	}
	return p, validation.Struct(p)
}
