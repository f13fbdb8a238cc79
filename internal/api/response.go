package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/borrow/internal/model"
)

// Error codes that are not tied to a domain error.
const (
	codeInternal     = "INTERNAL"
	codeInvalidInput = "INVALID_INPUT"
	codeUnauthorized = "UNAUTHORIZED"
	codeRateLimited  = "RATE_LIMITED"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message,omitempty"`
	Code     string                 `json:"code,omitempty"`
	Redirect string                 `json:"redirect,omitempty"`
	Token    string                 `json:"token,omitempty"`
	User     *model.User            `json:"user,omitempty"`
	Users    *[]model.User          `json:"users,omitempty"`
	Item     *model.Item            `json:"item,omitempty"`
	Items    *[]model.Item          `json:"items,omitempty"`
	Request  *model.BorrowRequest   `json:"request,omitempty"`
	Requests *[]model.BorrowRequest `json:"requests,omitempty"`
	Count    *int                   `json:"count,omitempty"`
}

// errorMapping pairs a domain error with its HTTP status and code.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{model.ErrEmailAlreadyRegistered, http.StatusConflict, "EMAIL_ALREADY_REGISTERED"},
	{model.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{model.ErrItemNotFound, http.StatusNotFound, "ITEM_NOT_FOUND"},
	{model.ErrRequestNotFound, http.StatusNotFound, "REQUEST_NOT_FOUND"},
	{model.ErrDuplicatePending, http.StatusConflict, "DUPLICATE_PENDING"},
	{model.ErrNotPending, http.StatusConflict, "NOT_PENDING"},
	{model.ErrAlreadyCompleted, http.StatusConflict, "ALREADY_COMPLETED"},
	{model.ErrItemUnavailable, http.StatusConflict, "ITEM_UNAVAILABLE"},
	{model.ErrItemOnLoan, http.StatusConflict, "ITEM_ON_LOAN"},
	{model.ErrOwnItem, http.StatusBadRequest, "OWN_ITEM"},
	{model.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{model.ErrInvalidInput, http.StatusBadRequest, codeInvalidInput},
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonOK writes a successful envelope.
func jsonOK(w http.ResponseWriter, status int, env envelope) {
	env.Success = true
	jsonResponse(w, status, env)
}

// jsonError writes a failed envelope.
func jsonError(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, envelope{Code: code, Message: message})
}

// writeError maps err to its status and code. Unknown errors are logged and
// reported as internal without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			jsonError(w, m.status, m.code, err.Error())
			return
		}
	}

	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	jsonError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

func itemList(items []model.Item) *[]model.Item {
	if items == nil {
		items = []model.Item{}
	}
	return &items
}

func requestList(requests []model.BorrowRequest) *[]model.BorrowRequest {
	if requests == nil {
		requests = []model.BorrowRequest{}
	}
	return &requests
}
