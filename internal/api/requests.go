package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/borrow/internal/lending"
)

// RequestsHandler handles the borrow request ledger.
type RequestsHandler struct {
	Lending *lending.Service
}

type createRequestRequest struct {
	ItemID string `json:"item_id"`
	Rating int    `json:"rating"`
}

// ListAll handles GET /api/requests (admin only).
func (h *RequestsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Lending.ListAllRequests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Requests: requestList(requests)})
}

// Incoming handles GET /api/requests/incoming.
func (h *RequestsHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Lending.IncomingRequests(r.Context(), CurrentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Requests: requestList(requests)})
}

// Outgoing handles GET /api/requests/outgoing.
func (h *RequestsHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Lending.OutgoingRequests(r.Context(), CurrentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Requests: requestList(requests)})
}

// PendingCount handles GET /api/requests/pending-count.
func (h *RequestsHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Lending.PendingCount(r.Context(), CurrentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Count: &count})
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}
	if req.ItemID == "" {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "item_id required")
		return
	}

	created, err := h.Lending.CreateRequest(r.Context(), CurrentUser(r.Context()).ID, req.ItemID, req.Rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusCreated, envelope{Request: created, Message: "request sent"})
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.Lending.GetRequest(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Request: found})
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	approved, err := h.Lending.Approve(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Request: approved, Message: "request approved"})
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.Lending.Reject(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Message: "request rejected"})
}

// Complete handles POST /api/requests/{id}/complete.
func (h *RequestsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	completed, err := h.Lending.Complete(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Request: completed, Message: "request completed"})
}

// Cancel handles DELETE /api/requests/{id}.
func (h *RequestsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Lending.Cancel(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{Message: "request cancelled"})
}
