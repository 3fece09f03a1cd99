package main

import (
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/geoglow/geoglow/heat"
)

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(app *App) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		_, hasArchive := app.Collector.Archive()

		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status     string    `json:"status"`
			Timestamp  time.Time `json:"timestamp"`
			Points     int       `json:"points"`
			HasArchive bool      `json:"hasArchive"`
			RenderedAt time.Time `json:"renderedAt,omitempty"`
		}{
			Status:     "ok",
			Timestamp:  time.Now(),
			Points:     app.Collector.Len(),
			HasArchive: hasArchive,
			RenderedAt: app.Collector.RenderedAt(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Latest archive endpoint
	mux.HandleFunc("/heatmap.kmz", func(w http.ResponseWriter, r *http.Request) {
		archive, ok := app.Collector.Archive()
		if !ok {
			http.Error(w, "No archive rendered yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.google-earth.kmz")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(archive); err != nil {
			log.Printf("Error writing archive response: %v", err)
		}
	})

	// Composite preview endpoint
	mux.HandleFunc("/preview.png", func(w http.ResponseWriter, r *http.Request) {
		layers := app.Collector.Layers()
		if len(layers) == 0 {
			http.Error(w, "No layers rendered yet", http.StatusServiceUnavailable)
			return
		}

		img, err := heat.RenderPreview(layers, app.baseColor)
		if err != nil {
			log.Printf("Error rendering preview: %v", err)
			http.Error(w, "Preview rendering failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := png.Encode(w, img); err != nil {
			log.Printf("Error encoding preview PNG: %v", err)
		}
	})

	// Rebuild endpoint
	mux.HandleFunc("/render", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		if err := app.renderNow(r.Context()); err != nil {
			log.Printf("Error rendering on request: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		result := struct {
			Layers int       `json:"layers"`
			At     time.Time `json:"at"`
		}{
			Layers: len(app.Collector.Layers()),
			At:     app.Collector.RenderedAt(),
		}
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Printf("Error encoding render result: %v", err)
		}
	})

	return mux
}
