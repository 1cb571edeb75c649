package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zaiko-app/zaiko/internal/finance"
	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
	"github.com/zaiko-app/zaiko/internal/photo"
	"github.com/zaiko-app/zaiko/internal/store"
)

// ItemsHandler handles item endpoints. Every query is scoped to the owner
// in the request's claims; clients never filter by owner themselves.
type ItemsHandler struct {
	DB *sql.DB
}

type setStatusRequest struct {
	Status lifecycle.Stage `json:"status"`
}

type itemDetail struct {
	Item      *model.Item       `json:"item"`
	Breakdown finance.Breakdown `json:"breakdown"`
	NextLabel string            `json:"next_label,omitempty"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var view lifecycle.View
	if v := r.URL.Query().Get("view"); v != "" {
		parsed, err := lifecycle.ParseView(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		view = parsed
	}

	items, err := store.ListItems(r.Context(), h.DB, claims.UserID, view)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items. Owner and initial stage are set here, not
// by the client. The response carries the inserted rows as an array.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.Draft
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, req)
	if errors.Is(err, store.ErrInvalidItem) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	rows := []model.Item{}
	if item != nil {
		rows = append(rows, *item)
		slog.Info("item created", "user", claims.Username, "item", item.ID)
	}
	jsonResponse(w, http.StatusCreated, rows)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	next, _ := lifecycle.NextLabel(item.Status)
	jsonResponse(w, http.StatusOK, itemDetail{
		Item:      item,
		Breakdown: finance.Of(*item),
		NextLabel: next,
	})
}

// Update handles PUT /api/items/{id}: a full overwrite of the editable fields.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var req model.ItemUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := store.UpdateItem(r.Context(), h.DB, claims.UserID, id, req)
	if errors.Is(err, store.ErrInvalidItem) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	rows := []model.Item{}
	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		// The write went through; the client falls back to a reload.
		slog.Warn("updated item could not be read back", "item", id, "error", err)
	}
	if item != nil {
		rows = append(rows, *item)
	}
	jsonResponse(w, http.StatusOK, rows)
}

// SetStatus handles PATCH /api/items/{id}/status.
func (h *ItemsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !lifecycle.Valid(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	ok, err := store.SetItemStatus(r.Context(), h.DB, claims.UserID, r.PathValue("id"), req.Status)
	if err != nil {
		slog.Error("failed to set item status", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to set item status")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	ok, err := store.DeleteItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", id)
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/items/summary.
func (h *ItemsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, err := store.ListItems(r.Context(), h.DB, claims.UserID, "")
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to summarize items")
		return
	}
	jsonResponse(w, http.StatusOK, finance.Summarize(items))
}

// UploadPhoto handles PUT /api/items/{id}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(photo.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	data, err := photo.Normalize(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := store.SetItemPhoto(r.Context(), h.DB, claims.UserID, id, data, photo.MIME)
	if err != nil {
		slog.Error("failed to save photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}
