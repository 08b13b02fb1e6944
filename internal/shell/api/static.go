package api

import (
	_ "embed"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/api/middleware"
)

//go:embed docs/index.html
var docsPage []byte

// DocsHandler serves the Swagger UI page for /openapi.json.
func DocsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(docsPage)
	})
}

// PublicHandler serves the public directory, where uploaded pictures live.
// Directory listings are disabled and unknown paths get a JSON 404.
func PublicHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
			return
		}

		urlPath := path.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(urlPath)))
		if err != nil || info.IsDir() || strings.Contains(urlPath, "/.") {
			middleware.WriteError(w, http.StatusNotFound, "route not found", "not_found")
			return
		}

		files.ServeHTTP(w, r)
	})
}
