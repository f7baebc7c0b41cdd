package api

import (
	"errors"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"strings"
	"sync"
)

const indexPage = "/index.html"

var registerMimeOnce sync.Once

// Minimal hosts often lack /etc/mime.types, and instantiateStreaming refuses
// WASM served with anything but application/wasm.
func registerMimeTypes() {
	registerMimeOnce.Do(func() {
		types := map[string]string{
			".wasm": "application/wasm",
			".js":   "text/javascript; charset=utf-8",
			".mjs":  "text/javascript; charset=utf-8",
			".css":  "text/css; charset=utf-8",
			".html": "text/html; charset=utf-8",
			".svg":  "image/svg+xml",
			".json": "application/json",
		}
		for ext, typ := range types {
			if err := mime.AddExtensionType(ext, typ); err != nil {
				log.Printf("Warning: could not register MIME type for %s: %v", ext, err)
			}
		}
	})
}

// staticHandler is http.FileServer, except that .../index.html is served
// in place instead of being redirected to its directory.
type staticHandler struct {
	root  http.Dir
	files http.Handler
}

func newStaticHandler(root string) *staticHandler {
	dir := http.Dir(root)
	return &staticHandler{
		root:  dir,
		files: http.FileServer(dir),
	}
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, indexPage) && s.serveIndex(w, r) {
		return
	}
	s.files.ServeHTTP(w, r)
}

// serveIndex reports false when the file server should handle the request
// instead. The file server redirects before it opens anything, so open errors
// are mapped here the way it maps them.
func (s *staticHandler) serveIndex(w http.ResponseWriter, r *http.Request) bool {
	f, err := s.root.Open(r.URL.Path)
	if err != nil {
		msg, code := toHTTPError(err)
		http.Error(w, msg, code)
		return true
	}
	defer f.Close()

	d, err := f.Stat()
	if err != nil {
		msg, code := toHTTPError(err)
		http.Error(w, msg, code)
		return true
	}
	if d.IsDir() {
		return false
	}

	http.ServeContent(w, r, d.Name(), d.ModTime(), f)
	return true
}

func toHTTPError(err error) (string, int) {
	if errors.Is(err, fs.ErrNotExist) {
		return "404 page not found", http.StatusNotFound
	}
	if errors.Is(err, fs.ErrPermission) {
		return "403 Forbidden", http.StatusForbidden
	}
	return "500 Internal Server Error", http.StatusInternalServerError
}
