package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/invoice-manager/internal/auth"
	"github.com/diewo77/invoice-manager/internal/httpx"
	"github.com/diewo77/invoice-manager/internal/services"
	"github.com/diewo77/invoice-manager/internal/view"
)

// AuthHandler serves the session login/logout flow.
type AuthHandler struct {
	Users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{Users: users}
}

// LoginForm: GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ActorFromContext(r.Context()); ok {
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
		return
	}
	_ = view.Render(w, r, "login.html", nil)
}

// Login: POST /login – JSON or form credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
			return
		}
		email, password = req.Email, req.Password
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		email = strings.TrimSpace(r.FormValue("email"))
		password = r.FormValue("password")
	}

	user, err := h.Users.Authenticate(email, password)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			_ = view.Render(w, r, "login.html", map[string]any{"Error": "invalid_credentials", "Email": email})
			return
		}
		writeError(w, r, err, "/login")
		return
	}
	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, user)
		return
	}
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

// Logout: POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"logged_out": true})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
