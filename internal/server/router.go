package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-manager/internal/auth"
	"github.com/diewo77/invoice-manager/internal/config"
	"github.com/diewo77/invoice-manager/internal/export"
	"github.com/diewo77/invoice-manager/internal/handlers"
	"github.com/diewo77/invoice-manager/internal/httpx"
	"github.com/diewo77/invoice-manager/internal/middleware"
	"github.com/diewo77/invoice-manager/internal/models"
	"github.com/diewo77/invoice-manager/internal/policy"
	"github.com/diewo77/invoice-manager/internal/services"
	"github.com/diewo77/invoice-manager/internal/view"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// The session cookie only carries a user id; the resolver turns it into
	// the current actor (id + role) on every request.
	auth.SetActorResolver(func(_ context.Context, uid uint) (models.Actor, bool) {
		var user models.User
		if err := db.Select("id", "role").First(&user, uid).Error; err != nil {
			return models.Actor{}, false
		}
		return models.ActorFor(&user), true
	})
	view.SetLangResolver(middleware.LangFrom)
	view.SetIsAdminResolver(func(r *http.Request) bool {
		a, ok := auth.ActorFromContext(r.Context())
		return ok && a.IsAdmin()
	})

	appGate := policy.NewGate()
	renderer, err := export.NewTemplateRenderer()
	if err != nil {
		// The template is a compile-time constant; failing to parse it is a
		// programming error.
		panic(err)
	}

	invQuery := services.NewInvoiceQuery(db)
	invSvc := services.NewInvoiceService(db)
	userSvc := services.NewUserService(db)

	ah := handlers.NewAuthHandler(userSvc)
	ih := handlers.NewInvoiceHandler(appGate, invQuery, invSvc, renderer, cfg.PageSize)
	uh := handlers.NewUserHandler(appGate, userSvc, cfg.PageSize)

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("GET /login", ah.LoginForm)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)

	protect := func(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }

	// Invoices
	mux.Handle("GET /invoices", protect(ih.List))
	mux.Handle("POST /invoices", protect(ih.Create))
	mux.Handle("GET /invoices/new", protect(ih.New))
	mux.Handle("GET /invoices/{id}", protect(ih.Show))
	mux.Handle("PUT /invoices/{id}", protect(ih.Update))
	mux.Handle("POST /invoices/{id}", protect(ih.Update)) // form method override
	mux.Handle("DELETE /invoices/{id}", protect(ih.Delete))
	mux.Handle("POST /invoices/{id}/delete", protect(ih.Delete))
	mux.Handle("GET /invoices/{id}/edit", protect(ih.Edit))
	mux.Handle("GET /invoices/{id}/export", protect(ih.Export))

	// Users (admin only, enforced by the user policy)
	mux.Handle("GET /users", protect(uh.List))
	mux.Handle("POST /users", protect(uh.Create))
	mux.Handle("GET /users/new", protect(uh.New))
	mux.Handle("GET /users/{id}", protect(uh.Show))
	mux.Handle("PUT /users/{id}", protect(uh.Update))
	mux.Handle("POST /users/{id}", protect(uh.Update))
	mux.Handle("DELETE /users/{id}", protect(uh.Delete))
	mux.Handle("POST /users/{id}/delete", protect(uh.Delete))
	mux.Handle("GET /users/{id}/edit", protect(uh.Edit))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
	})

	return middleware.Prefs(auth.Middleware(withRecover(withLogging(mux))))
}

// withLogging attaches a request id and logs method, path, and duration.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r)
		log.Printf("req_id=%s method=%s path=%s duration=%s", reqID, r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic: %v", rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
