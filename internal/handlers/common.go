package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/collager/internal/config"
	"github.com/lehigh-university-libraries/collager/internal/images"
	"github.com/lehigh-university-libraries/collager/internal/storage"
	"golang.org/x/sync/singleflight"
)

type Handler struct {
	cfg         config.Config
	uploadStore *storage.UploadStore
	fetcher     *images.Fetcher
	// concurrent collage requests share one build of the fixed output file
	builds singleflight.Group
}

func New(cfg config.Config) *Handler {
	store := storage.New(cfg.UploadDir)
	if err := store.Init(); err != nil {
		slog.Error("Unable to create upload folder", "dir", cfg.UploadDir, "err", err)
	}

	return &Handler{
		cfg:         cfg,
		uploadStore: store,
		fetcher:     images.NewFetcher(),
	}
}

// Routes registers every endpoint on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/images", h.HandleImages)
	mux.HandleFunc("/api/images/", h.HandleImageDetail)
	mux.HandleFunc("/api/upload", h.HandleUpload)
	mux.HandleFunc("/api/collage", h.HandleCollage)
	mux.HandleFunc("/", h.HandleStatic)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
