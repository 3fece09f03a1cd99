package main

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geoglow/geoglow/heat"
)

func testApp() *App {
	app := NewApp()
	app.Config = &heat.Config{
		Processing: heat.ProcessingConfig{GridResolution: 16, BlurRadius: 1, ThresholdRatio: 0.3},
	}
	return app
}

func seedPoints(app *App) {
	app.Collector.Add([]heat.Point{
		{Lat: 40.7, Lon: -74.0, Category: "accidents"},
		{Lat: 40.8, Lon: -74.1, Category: "accidents"},
		{Lat: 40.75, Lon: -74.05, Category: "construction"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	app := testApp()
	seedPoints(app)
	server := newHTTPServer(app)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var status struct {
		Status     string `json:"status"`
		Points     int    `json:"points"`
		HasArchive bool   `json:"hasArchive"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("health response is not JSON: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("status = %q, want %q", status.Status, "ok")
	}
	if status.Points != 3 {
		t.Errorf("points = %d, want 3", status.Points)
	}
	if status.HasArchive {
		t.Error("hasArchive should be false before any render")
	}
}

func TestArchiveEndpoint_BeforeAndAfterRender(t *testing.T) {
	app := testApp()
	seedPoints(app)
	server := newHTTPServer(app)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/heatmap.kmz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before render = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/render", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	var result struct {
		Layers int `json:"layers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("render response is not JSON: %v", err)
	}
	if result.Layers != 2 {
		t.Errorf("layers = %d, want 2", result.Layers)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/heatmap.kmz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status after render = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.google-earth.kmz" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("archive response is empty")
	}
}

func TestRenderEndpoint_RequiresPOST(t *testing.T) {
	server := newHTTPServer(testApp())

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/render", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestRenderEndpoint_NoPoints(t *testing.T) {
	server := newHTTPServer(testApp())

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/render", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for empty collector", w.Code)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	app := testApp()
	seedPoints(app)
	server := newHTTPServer(app)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/preview.png", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before render = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/render", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/preview.png", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status after render = %d, want 200", w.Code)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("preview size = %dx%d, want 16x16", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
