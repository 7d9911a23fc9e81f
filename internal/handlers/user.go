package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/diewo77/invoice-manager/internal/auth"
	gatepkg "github.com/diewo77/invoice-manager/internal/gate"
	"github.com/diewo77/invoice-manager/internal/httpx"
	"github.com/diewo77/invoice-manager/internal/middleware"
	"github.com/diewo77/invoice-manager/internal/models"
	"github.com/diewo77/invoice-manager/internal/policy"
	"github.com/diewo77/invoice-manager/internal/services"
	"github.com/diewo77/invoice-manager/internal/view"
)

// UserHandler serves the admin-only user management surface. The user policy
// denies every action to non-admins, so gating with a nil resource is enough
// for the collection routes.
type UserHandler struct {
	Gate     *gatepkg.Gate[models.Actor]
	Svc      *services.UserService
	PageSize int
}

func NewUserHandler(g *gatepkg.Gate[models.Actor], svc *services.UserService, pageSize int) *UserHandler {
	if pageSize < 1 {
		pageSize = services.DefaultPageSize
	}
	return &UserHandler{Gate: g, Svc: svc, PageSize: pageSize}
}

// List: GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), actor, gatepkg.ActionList, policy.ResourceUser, nil); err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", h.PageSize)
	result, err := h.Svc.List(page, pageSize)
	if err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, result)
		return
	}
	_ = view.Render(w, r, "users/index.html", map[string]any{
		"Users":    result.Items,
		"Total":    result.Total,
		"Page":     result.Page,
		"PageSize": result.PageSize,
		"HasPrev":  result.Page > 1,
		"HasNext":  int64(result.Page)*int64(result.PageSize) < result.Total,
		"PrevPage": result.Page - 1,
		"NextPage": result.Page + 1,
		"Flash":    middleware.PopFlash(w, r),
	})
}

// New: GET /users/new
func (h *UserHandler) New(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), actor, gatepkg.ActionCreate, policy.ResourceUser, nil); err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	_ = view.Render(w, r, "users/form.html", map[string]any{
		"Input":  services.UserInput{Role: string(models.RoleUser)},
		"Errors": map[string]string{},
	})
}

// Create: POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), actor, gatepkg.ActionCreate, policy.ResourceUser, nil); err != nil {
		writeError(w, r, err, "/invoices")
		return
	}
	in, err := decodeUserInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}
	user, err := h.Svc.Create(in)
	if err != nil {
		h.writeUserError(w, r, err, in, nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, user)
		return
	}
	middleware.Flash(w, r, "user_created")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// Show: GET /users/{id}
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r, gatepkg.ActionView)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, user)
		return
	}
	_ = view.Render(w, r, "users/show.html", map[string]any{
		"User":  user,
		"Flash": middleware.PopFlash(w, r),
	})
}

// Edit: GET /users/{id}/edit
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r, gatepkg.ActionUpdate)
	if !ok {
		return
	}
	in := services.UserInput{Name: user.Name, Email: user.Email, Role: string(user.Role)}
	_ = view.Render(w, r, "users/form.html", map[string]any{
		"User":   user,
		"Input":  in,
		"Errors": map[string]string{},
	})
}

// Update: PUT/POST /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r, gatepkg.ActionUpdate)
	if !ok {
		return
	}
	in, err := decodeUserInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}
	updated, err := h.Svc.Update(user, in)
	if err != nil {
		h.writeUserError(w, r, err, in, user)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, updated)
		return
	}
	middleware.Flash(w, r, "user_updated")
	http.Redirect(w, r, fmt.Sprintf("/users/%d", updated.ID), http.StatusSeeOther)
}

// Delete: DELETE/POST /users/{id}/delete
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r, gatepkg.ActionDelete)
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Svc.Delete(actor, user); err != nil {
		writeError(w, r, err, "/users")
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	middleware.Flash(w, r, "user_deleted")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *UserHandler) load(w http.ResponseWriter, r *http.Request, action gatepkg.Action) (*models.User, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, services.ErrNotFound, "/users")
		return nil, false
	}
	actor, _ := auth.ActorFromContext(r.Context())
	// Non-admins are rejected before the lookup: the user list must not leak.
	if err := h.Gate.Authorize(r.Context(), actor, action, policy.ResourceUser, nil); err != nil {
		writeError(w, r, err, "/invoices")
		return nil, false
	}
	user, err := h.Svc.Get(id)
	if err != nil {
		writeError(w, r, err, "/users")
		return nil, false
	}
	return user, true
}

func (h *UserHandler) writeUserError(w http.ResponseWriter, r *http.Request, err error, in services.UserInput, user *models.User) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) && !httpx.WantsJSON(r) {
		in.Password = ""
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = view.Render(w, r, "users/form.html", map[string]any{
			"User":   user,
			"Input":  in,
			"Errors": vErr.Fields,
		})
		return
	}
	writeError(w, r, err, "/users")
}
