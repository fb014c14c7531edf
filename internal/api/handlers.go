package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kexin94yyds/RI-Flow/internal/collection"
	"github.com/kexin94yyds/RI-Flow/internal/itemservice"
)

const (
	maxItemBody   = 1 << 20
	maxImportBody = 32 << 20
)

// Handler holds API route handlers.
type Handler struct {
	svc *itemservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *itemservice.Service) *Handler {
	return &Handler{svc: svc}
}

func filterParam(r *http.Request) string {
	if f := strings.TrimSpace(r.URL.Query().Get("platform")); f != "" {
		return f
	}
	return collection.FilterAll
}

// ListItems handles GET /api/items.
//
//	@Summary		List the collection, optionally filtered by platform
//	@Tags			items
//	@Produce		json
//	@Param			platform	query		string	false	"Platform filter"	Enums(all, Twitter, YouTube, Web)
//	@Success		200			{array}		models.Item
//	@Success		304
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	view, tag := h.svc.List(r.Context(), filterParam(r))
	if tag != "" {
		quoted := `"` + tag + `"`
		w.Header().Set("ETag", quoted)
		if match := r.Header.Get("If-None-Match"); match == quoted || strings.Trim(match, `"`) == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateItem handles POST /api/items.
//
//	@Summary		Add an item; missing title and image are scraped from the page
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateItemRequest	true	"Item to add"
//	@Success		201		{array}		models.Item
//	@Failure		400		{object}	errResponse
//	@Router			/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxItemBody)
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	_, full, err := h.svc.Add(r.Context(), req)
	if err != nil {
		writeError(w, "create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, full)
}

// ReplaceItems handles PUT /api/items.
//
//	@Summary		Replace the whole collection
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Success		200		{array}		models.Item
//	@Failure		400		{object}	errResponse
//	@Router			/items [put]
func (h *Handler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxImportBody)
	if !ok {
		return
	}
	items, err := collection.DecodeImport(data)
	if err != nil {
		writeError(w, "replace items", err)
		return
	}
	full, err := h.svc.Replace(r.Context(), items)
	if err != nil {
		writeError(w, "replace items", err)
		return
	}
	writeJSON(w, http.StatusOK, full)
}

// DeleteItem handles DELETE /api/items/{id}.
//
//	@Summary		Delete an item
//	@Tags			items
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{array}		models.Item
//	@Failure		404	{object}	errResponse
//	@Router			/items/{id} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	full, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "delete item", err)
		return
	}
	writeJSON(w, http.StatusOK, full)
}

// TogglePin handles POST /api/items/{id}/pin.
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	full, err := h.svc.TogglePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle pin", err)
		return
	}
	writeJSON(w, http.StatusOK, full)
}

// ReorderItems handles POST /api/items/reorder.
//
//	@Summary		Apply a drag reorder made in the view for a filter
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReorderRequest	true	"New visible order"
//	@Success		200		{object}	ReorderResponse
//	@Failure		400		{object}	errResponse
//	@Router			/items/reorder [post]
func (h *Handler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxItemBody)
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Filter == "" {
		req.Filter = collection.FilterAll
	}
	full, view, err := h.svc.Reorder(r.Context(), req.IDs, req.Filter)
	if err != nil {
		writeError(w, "reorder items", err)
		return
	}
	writeJSON(w, http.StatusOK, ReorderResponse{Items: full, View: view})
}

// Search handles GET /api/search.
//
//	@Summary		Fuzzy search over item titles
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, SearchResponse{Results: h.svc.Search(r.Context(), q, limit)})
}

// Metadata handles GET /api/metadata.
//
//	@Summary		Preview the title and image of a page
//	@Tags			metadata
//	@Produce		json
//	@Param			url		query		string	true	"Page URL"
//	@Param			client	query		string	false	"Caller key for stale-response detection"
//	@Success		200		{object}	PreviewResponse
//	@Failure		400		{object}	errResponse
//	@Router			/metadata [get]
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	u := strings.TrimSpace(r.URL.Query().Get("url"))
	if u == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'url' is required"))
		return
	}
	client := r.URL.Query().Get("client")
	if client == "" {
		client = "default"
	}
	writeJSON(w, http.StatusOK, h.svc.Preview(r.Context(), client, u))
}

// Export handles GET /api/export.
//
//	@Summary		Download the collection as a dated backup file
//	@Tags			backup
//	@Produce		json
//	@Success		200	{array}	models.Item
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import.
//
//	@Summary		Merge a backup file into the collection
//	@Tags			backup
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		400	{object}	errResponse
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxImportBody)
	if !ok {
		return
	}
	res, err := h.svc.Import(r.Context(), data, nil)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SyncPull handles POST /api/sync/pull.
//
//	@Summary		Pull and merge the collection of a desktop host
//	@Tags			backup
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PullRequest	false	"Desktop host; empty for discovery"
//	@Success		200		{object}	ImportResponse
//	@Failure		502		{object}	errResponse
//	@Router			/sync/pull [post]
func (h *Handler) SyncPull(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxItemBody)
	var req PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.PullDesktop(r.Context(), req.Host, nil)
	if err != nil {
		writeError(w, "desktop pull", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, false
	}
	return data, true
}
