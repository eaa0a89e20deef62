package handlers

import (
	"net/http"
	"path"
	"strings"
)

// Static serves the front-end bundle in dir. Paths that are not files get
// index.html so client-side routes survive a reload; unknown /api/ paths get
// a JSON 404.
func (h *Handlers) Static(dir string) http.HandlerFunc {
	root := http.Dir(dir)
	fileServer := http.FileServer(root)

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			writeError(w, http.StatusNotFound, "Rota não encontrada")
			return
		}

		if isFile(root, path.Clean("/"+r.URL.Path)) {
			fileServer.ServeHTTP(w, r)
			return
		}
		h.serveIndex(w, r, root)
	}
}

func (h *Handlers) serveIndex(w http.ResponseWriter, r *http.Request, root http.FileSystem) {
	f, err := root.Open("/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		h.logger.Error("failed to stat index.html", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", st.ModTime(), f)
}

func isFile(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	st, err := f.Stat()
	return err == nil && !st.IsDir()
}
