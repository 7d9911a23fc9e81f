package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/invoice-manager/internal/models"
)

func requestWithSession(t *testing.T, userID uint) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, userID)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	req := requestWithSession(t, 42)
	uid, ok := ParseSession(req)
	if !ok || uid != 42 {
		t.Fatalf("expected uid 42 got %d ok=%v", uid, ok)
	}
}

func TestTamperedSessionIsRejected(t *testing.T) {
	req := requestWithSession(t, 42)
	c := req.Cookies()[0]

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: c.Name, Value: "43." + c.Value[3:]})
	if _, ok := ParseSession(forged); ok {
		t.Fatal("forged user id must not validate")
	}

	garbage := httptest.NewRequest(http.MethodGet, "/", nil)
	garbage.AddCookie(&http.Cookie{Name: c.Name, Value: "not-a-session"})
	if _, ok := ParseSession(garbage); ok {
		t.Fatal("malformed cookie must not validate")
	}
}

func TestMiddlewareResolvesActor(t *testing.T) {
	SetActorResolver(func(_ context.Context, uid uint) (models.Actor, bool) {
		if uid == 42 {
			return models.Actor{ID: 42, Role: models.RoleAdmin}, true
		}
		return models.Actor{}, false
	})

	var got models.Actor
	var ok bool
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, ok = ActorFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), requestWithSession(t, 42))
	if !ok || got.ID != 42 || !got.IsAdmin() {
		t.Fatalf("expected resolved admin actor, got %+v ok=%v", got, ok)
	}
}

func TestMiddlewareClearsStaleSession(t *testing.T) {
	SetActorResolver(func(_ context.Context, _ uint) (models.Actor, bool) {
		return models.Actor{}, false // user no longer exists
	})

	var ok bool
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, ok = ActorFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSession(t, 7))
	if ok {
		t.Fatal("stale session must not yield an actor")
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("stale session cookie must be cleared")
	}
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	jsonReq := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	jsonReq.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonReq)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	htmlReq := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, htmlReq)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login got %s", loc)
	}
}
