package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/collager/internal/metrics"
	"github.com/lehigh-university-libraries/collager/internal/storage"
)

func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		list, err := h.uploadStore.List()
		if err != nil {
			h.writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, list)
	case "POST":
		// form posts from the manage page: delete=<name>
		name := r.FormValue("delete")
		if name == "" {
			h.writeError(w, "delete is required", http.StatusBadRequest)
			return
		}
		h.deleteImage(w, name)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleImageDetail(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/images/")

	switch r.Method {
	case "DELETE":
		h.deleteImage(w, name)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) deleteImage(w http.ResponseWriter, name string) {
	err := h.uploadStore.Delete(name)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "Image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to delete image: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.RecordUpload("delete")

	h.writeJSON(w, map[string]any{
		"message": "Deleted " + name,
	})
}
