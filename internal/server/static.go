package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sydneysamil/samil-web/internal/respond"
)

// Static serves the built front end from dir.  Paths that do not name a
// file fall back to index.html so client-side routes survive a reload.
// Unknown /api/ paths answer a JSON 404 instead.
func Static(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			respond.JSON(w, http.StatusNotFound, respond.ErrorEnvelope{Error: "Not found."})
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			respond.MethodNotAllowed(w, r)
			return
		}

		clean := path.Clean("/" + r.URL.Path)
		if fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !fi.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
