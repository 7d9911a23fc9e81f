// Package view renders HTML pages from the templates directory, wrapping
// each page in layout.html unless the page is a full document.
package view

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/invoice-manager/internal/auth"
	"github.com/diewo77/invoice-manager/internal/i18n"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	langResolver = func(_ *http.Request) string { return "en" }
	// isAdminResolver lets templates show admin-only navigation.
	isAdminResolver = func(_ *http.Request) bool { return false }
)

// SetLangResolver allows the host app to provide a custom language resolver
// (e.g., reading from context or a cookie).
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetIsAdminResolver sets a callback used by templates to detect admin users.
func SetIsAdminResolver(f func(*http.Request) bool) {
	if f != nil {
		isAdminResolver = f
	}
}

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the standard func map including i18n and simple helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := langResolver(r)
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"isAdmin": func() bool {
			return isAdminResolver(r)
		},
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"year": func() int { return time.Now().Year() },
		// dict creates a map from key-value pairs for passing to sub-templates.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// SetBaseDir overrides the template base directory (useful for tests).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

// Render parses and executes a single template file with shared funcs.
// name should be the filename (e.g., "invoices/index.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.ActorFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}

	key := name
	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[key]
		tplCache.RUnlock()
		if ok && t != nil {
			return t.Execute(w, data)
		}
	}

	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err != nil {
		return err
	}
	funcMap := Funcs(r)

	// Pages that ship a full document (the export template does) skip the
	// layout wrapping.
	contentBytes, _ := os.ReadFile(mainPath)
	useLayout := !bytes.Contains(bytes.ToLower(contentBytes), []byte("<!doctype"))

	var t *template.Template
	layoutPath := filepath.Join(baseDir, "layout.html")
	if useLayout {
		if fi, err := os.Stat(layoutPath); err == nil && !fi.IsDir() {
			parsed, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, mainPath)
			if err != nil {
				return err
			}
			t = parsed
		} else {
			useLayout = false
		}
	}
	if !useLayout {
		parsed, err := template.New(filepath.Base(name)).Funcs(funcMap).ParseFiles(mainPath)
		if err != nil {
			return err
		}
		t = parsed
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	if t == nil {
		return errors.New("template not cached")
	}
	return t.Execute(w, data)
}
