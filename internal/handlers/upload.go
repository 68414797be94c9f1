package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/collager/internal/images"
	"github.com/lehigh-university-libraries/collager/internal/metrics"
)

var errTooLarge = errors.New("file too large")

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	// Handle file upload
	h.handleFileUpload(w, r)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL string `json:"image_url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	data, filename, err := h.fetcher.Download(request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	name, err := h.uploadStore.Save(filename, data)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.RecordUpload("add")

	response := map[string]any{
		"message": "Successfully saved image from URL",
		"files":   []string{name},
		"source":  "url",
	}

	h.writeJSON(w, response)
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10*images.MaxImageBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	var headers []*multipart.FileHeader
	for _, field := range []string{"files[]", "files", "file"} {
		headers = append(headers, r.MultipartForm.File[field]...)
	}
	if len(headers) == 0 {
		h.writeError(w, "No files in upload", http.StatusBadRequest)
		return
	}

	saved := make([]string, 0, len(headers))
	for _, header := range headers {
		if header.Filename == "" {
			continue
		}

		data, err := readPart(header)
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusBadRequest)
			return
		}

		name, err := h.uploadStore.Save(header.Filename, data)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		metrics.RecordUpload("add")
		saved = append(saved, name)
		slog.Info("Image saved", "filename", name, "bytes", len(data))
	}

	response := map[string]any{
		"message": "Upload complete",
		"files":   saved,
	}

	h.writeJSON(w, response)
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, images.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > images.MaxImageBytes {
		return nil, errTooLarge
	}
	return data, nil
}
