package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/collager/internal/config"
	"github.com/lehigh-university-libraries/collager/internal/models"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func newTestServer(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.UploadDir = filepath.Join(root, "uploads")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.MotifPath = filepath.Join(root, "flower.png")
	cfg.CellWidth = 5
	cfg.CellHeight = 5
	cfg.ScaleFactor = 1
	cfg.BorderThickness = 2

	if err := os.WriteFile(cfg.MotifPath, pngBytes(t, 4, 4, color.NRGBA{G: 255, A: 255}), 0644); err != nil {
		t.Fatalf("Failed to write motif: %v", err)
	}

	mux := http.NewServeMux()
	New(cfg).Routes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, cfg
}

func upload(t *testing.T, server *httptest.Server, files map[string][]byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile("files[]", name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	resp, err := http.Post(server.URL+"/api/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("Upload request failed: %v", err)
	}
	return resp
}

func TestUploadListDelete(t *testing.T) {
	server, _ := newTestServer(t)

	resp := upload(t, server, map[string][]byte{
		"beach day.png": pngBytes(t, 6, 3, color.White),
		"alps.png":      pngBytes(t, 2, 2, color.Black),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from upload, got %d", resp.StatusCode)
	}

	resp, err := http.Get(server.URL + "/api/images")
	if err != nil {
		t.Fatalf("List request failed: %v", err)
	}
	var list []models.UploadedImage
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	resp.Body.Close()

	if len(list) != 2 || list[0].Name != "alps.png" || list[1].Name != "beach_day.png" {
		t.Fatalf("Unexpected listing: %+v", list)
	}
	if list[1].Width != 6 || list[1].Height != 3 {
		t.Errorf("Expected 6x3, got %dx%d", list[1].Width, list[1].Height)
	}

	resp, err = http.Get(server.URL + list[0].URL)
	if err != nil {
		t.Fatalf("Static request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected uploaded file to be served, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/images/alps.png", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Delete request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from delete, got %d", resp.StatusCode)
	}

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Delete request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for second delete, got %d", resp.StatusCode)
	}
}

func TestCollageDownload(t *testing.T) {
	server, cfg := newTestServer(t)

	resp := upload(t, server, map[string][]byte{
		"a.png": pngBytes(t, 3, 3, color.NRGBA{R: 255, A: 255}),
		"b.png": pngBytes(t, 3, 3, color.NRGBA{B: 255, A: 255}),
	})
	resp.Body.Close()

	resp, err := http.PostForm(server.URL+"/api/collage", map[string][]string{"frame_width": {"3"}})
	if err != nil {
		t.Fatalf("Collage request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "collage.png") {
		t.Errorf("Expected attachment named collage.png, got %q", resp.Header.Get("Content-Disposition"))
	}
	if resp.Header.Get("X-Collage-Placed") != "2" || resp.Header.Get("X-Collage-Layout") != "2x2" {
		t.Errorf("Unexpected summary headers: %v", resp.Header)
	}
	// 2*5 + 2*3
	if resp.Header.Get("X-Collage-Size") != "16x16" {
		t.Errorf("Expected 16x16, got %s", resp.Header.Get("X-Collage-Size"))
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Response is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("Expected 16x16 image, got %v", img.Bounds())
	}

	if _, err := os.Stat(cfg.OutputPath()); err != nil {
		t.Errorf("Expected collage at %s: %v", cfg.OutputPath(), err)
	}
}

func TestCollageSummaryJSON(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/collage?format=json", "application/json",
		strings.NewReader(`{"scale_factor": 2, "frame_width": 1}`))
	if err != nil {
		t.Fatalf("Collage request failed: %v", err)
	}
	defer resp.Body.Close()

	var summary models.BuildSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}

	if summary.Placed != 0 || summary.Grid.String() != "2x2" {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.Width != 22 || summary.Height != 22 {
		t.Errorf("Expected 22x22, got %dx%d", summary.Width, summary.Height)
	}
}

func TestCollageRejectsBadParams(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"non-numeric scale", "scale_factor=big"},
		{"zero scale", "scale_factor=0"},
		{"negative border", "frame_width=-4"},
		{"canvas too large for memory", "scale_factor=1000000"},
		{"border overflows canvas", "frame_width=1099511627776"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/api/collage?"+tt.query, "text/plain", nil)
			if err != nil {
				t.Fatalf("Collage request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestCollageRejectsOversizeJSONParams(t *testing.T) {
	server, cfg := newTestServer(t)

	body := strings.NewReader(`{"scale_factor": 2, "frame_width": 1099511627776}`)
	resp, err := http.Post(server.URL+"/api/collage", "application/json", body)
	if err != nil {
		t.Fatalf("Collage request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if _, err := os.Stat(cfg.OutputPath()); !os.IsNotExist(err) {
		t.Errorf("Expected no collage to be written, stat returned %v", err)
	}
}

func TestCollageMissingMotif(t *testing.T) {
	server, cfg := newTestServer(t)
	if err := os.Remove(cfg.MotifPath); err != nil {
		t.Fatalf("Failed to remove motif: %v", err)
	}

	resp, err := http.Post(server.URL+"/api/collage", "text/plain", nil)
	if err != nil {
		t.Fatalf("Collage request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestIndexPage(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Expected HTML, got %s", resp.Header.Get("Content-Type"))
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.Contains(body.String(), "/api/collage") {
		t.Error("Expected the page to drive the collage endpoint")
	}

	missing, err := http.Get(server.URL + "/nothing-here.html")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", missing.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/api/upload", "/api/collage"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405 for GET %s, got %d", path, resp.StatusCode)
		}
	}
}
