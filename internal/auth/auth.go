package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/invoice-manager/internal/models"
)

// This package only authenticates: it ties a signed cookie to a user id and
// resolves the corresponding actor for the request. Authorization is the
// gate's job, downstream.

type ctxKey string

const (
	sessionCookieName = "session"
	actorCtxKey       = ctxKey("actor")
)

// ActorResolver turns a session's user id into the current actor (id + role).
// Set it during app bootstrap via SetActorResolver; returning false means the
// session refers to a user that no longer exists.
type ActorResolver func(ctx context.Context, uid uint) (models.Actor, bool)

var resolver ActorResolver

// SetActorResolver configures the global resolver used by Middleware.
func SetActorResolver(r ActorResolver) { resolver = r }

// Secret returns SESSION_SECRET or a default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

// CreateSession sets a signed cookie with the user id.
func CreateSession(w http.ResponseWriter, userID uint) {
	uidStr := strconv.FormatUint(uint64(userID), 10)
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(uidStr))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    uidStr + "." + sig,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie signature and returns the user id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return 0, false
	}
	uidStr, sig := parts[0], parts[1]
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(uidStr))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return 0, false
	}
	id64, err := strconv.ParseUint(uidStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

// WithActor stores the resolved actor in context.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// ActorFromContext extracts the current actor.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorCtxKey).(models.Actor)
	return a, ok && a.ID != 0
}

// Middleware resolves the session into an actor and attaches it to the
// request context. Requests without a valid session pass through without an
// actor; RequireAuth rejects those.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseSession(r); ok && resolver != nil {
			if actor, ok := resolver(r.Context(), uid); ok {
				r = r.WithContext(WithActor(r.Context(), actor))
			} else {
				// Session refers to a deleted user: drop it.
				ClearSession(w)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			accept := r.Header.Get("Accept")
			if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
