package handlers

import (
	_ "embed"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

//go:embed web/index.html
var indexPage []byte

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(indexPage); err != nil {
			slog.Error("Unable to write index page", "err", err)
		}
		return
	}

	filepath := strings.TrimPrefix(r.URL.Path, "/static/")

	// Prevent directory traversal attacks
	if strings.Contains(filepath, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	switch {
	case strings.HasPrefix(filepath, "uploads/"):
		serveFrom(w, r, h.cfg.UploadDir, strings.TrimPrefix(filepath, "uploads/"))
	case strings.HasPrefix(filepath, "output/"):
		serveFrom(w, r, h.cfg.OutputDir, strings.TrimPrefix(filepath, "output/"))
	default:
		http.NotFound(w, r)
	}
}

func serveFrom(w http.ResponseWriter, r *http.Request, dir, name string) {
	if name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(dir, name))
}
