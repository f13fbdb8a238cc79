package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/borrow/internal/lending"
	"github.com/erazemk/borrow/internal/model"
)

// ItemsHandler handles catalog endpoints.
type ItemsHandler struct {
	Lending *lending.Service
}

type createItemRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Condition   string     `json:"condition"`
	Location    string     `json:"location"`
	Image       string     `json:"image"`
	ReturnBy    *time.Time `json:"return_by"`
}

type updateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Condition   *string `json:"condition"`
	Location    *string `json:"location"`
	Image       *string `json:"image"`
}

// List handles GET /api/items?q=&category=&exclude_mine=&status=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := lending.ItemFilter{
		Query:    query.Get("q"),
		Category: query.Get("category"),
		Status:   query.Get("status"),
	}
	if excludeMine, _ := strconv.ParseBool(query.Get("exclude_mine")); excludeMine {
		filter.ExcludeOwnerID = CurrentUser(r.Context()).ID
	}

	items, err := h.Lending.ListItems(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Items: itemList(items)})
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Lending.ListItemsByOwner(r.Context(), CurrentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Items: itemList(items)})
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	item, err := h.Lending.CreateItem(r.Context(), CurrentUser(r.Context()).ID, model.ItemDraft{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Image:       req.Image,
		ReturnBy:    req.ReturnBy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusCreated, envelope{Item: item, Message: "item created"})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Lending.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Item: item})
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	item, err := h.Lending.UpdateItem(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id"), model.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Image:       req.Image,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Item: item, Message: "item updated"})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Lending.DeleteItem(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Message: "item deleted"})
}

// Toggle handles POST /api/items/{id}/toggle.
func (h *ItemsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	item, err := h.Lending.ToggleStatus(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Item: item})
}

// History handles GET /api/items/{id}/history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Lending.ItemHistory(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Requests: requestList(requests)})
}
