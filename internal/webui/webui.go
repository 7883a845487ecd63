// Package webui serves the chat page, either from the embedded assets or
// from a directory on disk.
package webui

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

//go:embed static
var staticFS embed.FS

// Handler returns a handler for the chat page. When dir is empty the
// embedded assets are served.
func Handler(dir string) (http.Handler, error) {
	if dir == "" {
		sub, err := fs.Sub(staticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("opening embedded assets: %w", err)
		}
		return newStaticHandler(sub), nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %s is not a directory", dir)
	}
	return newStaticHandler(os.DirFS(dir)), nil
}

// newStaticHandler serves files from root and falls back to index.html for
// paths that do not name a file.
func newStaticHandler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))

	// FileServer redirects /index.html to ./, so the page is written directly.
	indexHTML, _ := fs.ReadFile(root, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path != "" && path != "index.html" {
			if f, err := root.Open(path); err == nil {
				_ = f.Close()
				fileServer.ServeHTTP(w, r)
				return
			}
		}

		if indexHTML == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
}
