package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/postcrud/pkg/postcrud"
)

// Error codes carried in the JSON error envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeNotFound     = "not_found"
	CodeHostRejected = "host_rejected"
	CodeInvalidState = "invalid_state"
	CodeInternal     = "internal_error"
)

// CreateItemResponse is returned by POST /items.
type CreateItemResponse struct {
	ID int64 `json:"id"`
}

// MetaValue is the body of the meta endpoints.
type MetaValue struct {
	Value postcrud.Value `json:"value"`
}

// ErrorBody is the inner object of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ItemHandler exposes a postcrud.Host over HTTP.
type ItemHandler struct {
	host   postcrud.Host
	logger *slog.Logger
}

// NewItemHandler creates a new item handler. A nil logger uses slog.Default.
func NewItemHandler(host postcrud.Host, logger *slog.Logger) *ItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemHandler{
		host:   host,
		logger: logger,
	}
}

// Routes returns the item routes, to be mounted under a prefix such as
// /api/v1.
func (h *ItemHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/items", h.CreateItem)
	r.Route("/items/{id}", func(r chi.Router) {
		r.Get("/", h.GetItem)
		r.Put("/", h.UpdateItem)
		r.Delete("/", h.DeleteItem)
		r.Get("/meta/{key}", h.GetMeta)
		r.Put("/meta/{key}", h.SetMeta)
	})

	return r
}

// CreateItem handles POST /items. The body is a create payload.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var payload postcrud.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.host.InsertItem(r.Context(), payload)
	if err != nil {
		h.logger.Error("Failed to create item", "post_type", payload.PostType(), "error", err)
		h.writeHostError(w, r, err)
		return
	}

	h.logger.Info("Item created", "id", id, "post_type", payload.PostType())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateItemResponse{ID: id})
}

// GetItem handles GET /items/{id}.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	fields, err := h.host.FetchItem(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get item", "id", id, "error", err)
		h.writeHostError(w, r, err)
		return
	}

	render.JSON(w, r, fields)
}

// UpdateItem handles PUT /items/{id}. The body is an update payload; its ID
// defaults to the path id and must match it when present.
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var payload postcrud.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if bodyID := payload.UpdateID(); bodyID == 0 {
		payload.Fields[postcrud.KeyUpdateID] = postcrud.Int(id)
	} else if bodyID != id {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "body ID does not match path id")
		return
	}

	if err := h.host.UpdateItem(r.Context(), payload); err != nil {
		h.logger.Error("Failed to update item", "id", id, "error", err)
		h.writeHostError(w, r, err)
		return
	}

	h.logger.Info("Item updated", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem handles DELETE /items/{id}?force=true. Without force the item
// is moved to the trash.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		var err error
		force, err = strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid force parameter")
			return
		}
	}

	if err := h.host.DeleteItem(r.Context(), id, force); err != nil {
		h.logger.Error("Failed to delete item", "id", id, "force", force, "error", err)
		h.writeHostError(w, r, err)
		return
	}

	h.logger.Info("Item deleted", "id", id, "force", force)
	w.WriteHeader(http.StatusNoContent)
}

// GetMeta handles GET /items/{id}/meta/{key}.
func (h *ItemHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	v, err := h.host.GetMeta(r.Context(), id, key)
	if err != nil {
		h.logger.Error("Failed to get item meta", "id", id, "key", key, "error", err)
		h.writeHostError(w, r, err)
		return
	}

	render.JSON(w, r, MetaValue{Value: v})
}

// SetMeta handles PUT /items/{id}/meta/{key}.
func (h *ItemHandler) SetMeta(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	var body MetaValue
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.host.SetMeta(r.Context(), id, key, body.Value); err != nil {
		h.logger.Error("Failed to set item meta", "id", id, "key", key, "error", err)
		h.writeHostError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Error("Invalid item ID", "id", idStr)
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid item ID")
		return 0, false
	}
	return id, true
}

func (h *ItemHandler) writeHostError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	h.writeError(w, r, status, code, err.Error())
}

func (h *ItemHandler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// StatusFor maps a host error to an HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, postcrud.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, postcrud.ErrInvalidState):
		return http.StatusUnprocessableEntity, CodeInvalidState
	case errors.Is(err, postcrud.ErrHostRejected):
		return http.StatusUnprocessableEntity, CodeHostRejected
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// ErrorFor is the inverse of StatusFor: it turns an error response back into
// an error matching the corresponding sentinel.
func ErrorFor(status int, body ErrorResponse) error {
	msg := body.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case body.Error.Code == CodeNotFound || status == http.StatusNotFound:
		return withSentinel(postcrud.ErrNotFound, msg)
	case body.Error.Code == CodeInvalidState:
		return withSentinel(postcrud.ErrInvalidState, msg)
	case body.Error.Code == CodeHostRejected, body.Error.Code == CodeBadRequest,
		status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return withSentinel(postcrud.ErrHostRejected, msg)
	default:
		return fmt.Errorf("server error (%d): %s", status, msg)
	}
}

// withSentinel avoids repeating the sentinel text when the server message
// already starts with it.
func withSentinel(sentinel error, msg string) error {
	rest, found := strings.CutPrefix(msg, sentinel.Error())
	if !found {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	if rest == "" {
		return sentinel
	}
	return fmt.Errorf("%w%s", sentinel, rest)
}
