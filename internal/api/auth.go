package api

import (
	"net/http"

	"github.com/erazemk/borrow/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Identity *auth.Identity
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	session, err := h.Identity.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonOK(w, http.StatusCreated, envelope{
		Message:  "account created",
		Token:    session.Token,
		User:     session.User,
		Redirect: auth.RedirectAfterLogin,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "email and password required")
		return
	}

	session, err := h.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonOK(w, http.StatusOK, envelope{
		Token:    session.Token,
		User:     session.User,
		Redirect: auth.RedirectAfterLogin,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Identity.Logout(r.Context(), sessionToken(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}

	jsonOK(w, http.StatusOK, envelope{Message: "logged out", Redirect: auth.RedirectAfterLogout})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, envelope{User: CurrentUser(r.Context())})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, codeInvalidInput, "current and new password required")
		return
	}

	if err := h.Identity.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	jsonOK(w, http.StatusOK, envelope{Message: "password updated"})
}
