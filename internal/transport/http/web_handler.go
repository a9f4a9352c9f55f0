package http

import (
	"io"
	"io/fs"
	"net/http"
)

// WebHandler serves the embedded single-page dashboard
type WebHandler struct {
	assets fs.FS
}

// NewWebHandler creates a static asset handler backed by an embedded
// filesystem rooted at the directory containing index.html
func NewWebHandler(assets fs.FS) *WebHandler {
	return &WebHandler{assets: assets}
}

// ServeHTTP serves static assets, falling back to index.html so the
// dashboard loads at the root path
func (h *WebHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" || path == "" {
		path = "index.html"
	} else {
		path = path[1:]
	}

	info, err := fs.Stat(h.assets, path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// http.ServeFileFS requires Go 1.22; serve the opened file directly
	// to stay compatible with Go 1.21
	f, err := h.assets.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, path, info.ModTime(), rs)
}
