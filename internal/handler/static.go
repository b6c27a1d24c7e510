package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves a single-page frontend: existing files are served
// as-is and every other GET falls back to index.html.
type StaticHandler struct {
	root  string
	files http.Handler
}

// NewStaticHandler serves files below root.
func NewStaticHandler(root string) *StaticHandler {
	return &StaticHandler{
		root:  root,
		files: http.FileServer(http.Dir(root)),
	}
}

// ServeHTTP implements http.Handler.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusNotFound, CodeNotFound, "Resource not found")
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if name != "/" && !hasHiddenSegment(name) {
		info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(name)))
		if err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusInternalServerError, CodeInternal, "An internal error occurred")
			return
		}
	}

	http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
}

func hasHiddenSegment(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
