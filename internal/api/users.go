package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/borrow/internal/auth"
	"github.com/erazemk/borrow/internal/model"
)

// UsersHandler handles profile endpoints.
type UsersHandler struct {
	Identity *auth.Identity
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Bio      string `json:"bio"`
}

// List handles GET /api/users (admin only).
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Identity.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonOK(w, http.StatusOK, envelope{Users: &users})
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Identity.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{User: user})
}

// UpdateMe handles PUT /api/users/me.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	user, err := h.Identity.UpdateProfile(r.Context(), CurrentUser(r.Context()).ID, req.Name, req.Location, req.Bio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, envelope{User: user, Message: "profile updated"})
}
