package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/collager/internal/collage"
	"github.com/lehigh-university-libraries/collager/internal/metrics"
	"github.com/lehigh-university-libraries/collager/internal/models"
)

type buildResult struct {
	summary *models.BuildSummary
	data    []byte
}

func (h *Handler) HandleCollage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := h.cfg
	if err := parseBuildParams(r, &cfg.ScaleFactor, &cfg.BorderThickness); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("%d/%d", cfg.ScaleFactor, cfg.BorderThickness)
	v, err, shared := h.builds.Do(key, func() (interface{}, error) {
		var res buildResult
		err := h.uploadStore.Exclusive(func(dir string) error {
			start := time.Now()
			summary, err := collage.NewBuilder(cfg).Build(dir, cfg.OutputPath())
			metrics.RecordBuild(summary, time.Since(start), err)
			if err != nil {
				return err
			}

			// read back before releasing the lock; the next build overwrites the file
			data, err := os.ReadFile(summary.OutputPath)
			if err != nil {
				return fmt.Errorf("failed to read collage: %w", err)
			}
			res = buildResult{summary: summary, data: data}
			return nil
		})
		return res, err
	})
	if err != nil {
		h.writeError(w, "Failed to create collage: "+err.Error(), http.StatusInternalServerError)
		return
	}
	res := v.(buildResult)
	if shared {
		slog.Debug("Collage build shared between requests", "key", key)
	}

	if r.URL.Query().Get("format") == "json" {
		h.writeJSON(w, res.summary)
		return
	}

	ext := filepath.Ext(res.summary.OutputPath)
	if ct := mime.TypeByExtension(ext); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(res.summary.OutputPath)))
	w.Header().Set("X-Collage-Placed", strconv.Itoa(res.summary.Placed))
	w.Header().Set("X-Collage-Layout", res.summary.Grid.String())
	w.Header().Set("X-Collage-Size", fmt.Sprintf("%dx%d", res.summary.Width, res.summary.Height))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.data)))
	if _, err := w.Write(res.data); err != nil {
		slog.Error("Unable to write collage", "err", err)
	}
}

// parseBuildParams reads scale_factor and frame_width from a JSON body or
// from the query string / form, leaving the defaults when absent
func parseBuildParams(r *http.Request, scale, border *int) error {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var request struct {
			ScaleFactor *int `json:"scale_factor"`
			FrameWidth  *int `json:"frame_width"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		if request.ScaleFactor != nil {
			*scale = *request.ScaleFactor
		}
		if request.FrameWidth != nil {
			*border = *request.FrameWidth
		}
		return nil
	}

	for field, dst := range map[string]*int{"scale_factor": scale, "frame_width": border} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q", field, v)
		}
		*dst = n
	}
	return nil
}
