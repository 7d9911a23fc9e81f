package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/diewo77/invoice-manager/internal/i18n"
)

type ctxKey string

const ctxLang ctxKey = "pref_lang"

// Prefs extracts the language preference (cookie > query > header) and stores
// it in context. Query-provided prefs persist in a cookie for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30})
		}
		if lang != "en" && lang != "fr" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		ctx := context.WithValue(r.Context(), ctxLang, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LangFrom returns the language preference from context or the default.
func LangFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxLang).(string); ok && v != "" {
		return v
	}
	return "en"
}

// Flash sets a translated flash message cookie using a translation code.
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	lang := LangFrom(r)
	msg := i18n.T(lang, code)
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: url.QueryEscape(msg), Path: "/"})
}

// PopFlash returns the pending flash message, if any, and clears the cookie.
func PopFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie("flash")
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: "", Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
