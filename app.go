package main

import (
	"context"
	"fmt"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/geoglow/geoglow/heat"
)

// App encapsulates the application state and dependencies
type App struct {
	Config    *heat.Config
	Collector *heat.Collector
	Store     *heat.PointStore
	MQTT      *heat.MQTTClient
	Publisher *heat.Publisher

	// CLI flags (effectively dependencies)
	ConfigFile     string
	OutputFile     string
	PreviewFile    string
	Resolution     int
	BlurRadius     float64
	ThresholdRatio float64
	HTTPPort       int
	StorePath      string
}

// AppOptions carries CLI flag values into the App.
type AppOptions struct {
	ConfigFile     string
	OutputFile     string
	PreviewFile    string
	Resolution     int
	BlurRadius     float64
	ThresholdRatio float64
	HTTPPort       int
	StorePath      string
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		Collector: heat.NewCollector(),
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.OutputFile = opts.OutputFile
	a.PreviewFile = opts.PreviewFile
	a.Resolution = opts.Resolution
	a.BlurRadius = opts.BlurRadius
	a.ThresholdRatio = opts.ThresholdRatio
	a.HTTPPort = opts.HTTPPort
	a.StorePath = opts.StorePath
}

// loadConfig loads the YAML config when present, falls back to defaults
// otherwise, and applies CLI overrides on top.
func (a *App) loadConfig() {
	if _, err := os.Stat(a.ConfigFile); err == nil {
		config, err := heat.LoadConfig(a.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		a.Config = config
		log.Printf("Loaded config from %s", a.ConfigFile)
	} else {
		a.Config = heat.DefaultConfig()
	}

	if a.Resolution > 0 {
		a.Config.Processing.GridResolution = a.Resolution
	}
	if a.BlurRadius > 0 {
		a.Config.Processing.BlurRadius = a.BlurRadius
	}
	if a.ThresholdRatio >= 0 {
		a.Config.Processing.ThresholdRatio = a.ThresholdRatio
	}
	if err := a.Config.Processing.Validate(); err != nil {
		log.Fatalf("Invalid processing parameters: %v", err)
	}
}

// RunConvert decodes the given CSV files and writes one KMZ archive.
func (a *App) RunConvert(paths []string) {
	if len(paths) == 0 {
		log.Fatal("No input files. Usage: geoglow [flags] points.csv [more.csv...]")
	}

	a.loadConfig()

	var points []heat.Point
	for _, path := range paths {
		res, err := heat.DecodeFile(path)
		if err != nil {
			log.Fatalf("Error reading %s: %v", path, err)
		}
		if res.Skipped > 0 {
			log.Printf("Warning: %s: skipped %d malformed row(s)", path, res.Skipped)
		}
		fmt.Printf("Loaded %d points from %s\n", len(res.Points), path)
		points = append(points, res.Points...)
	}

	layers, err := heat.RenderBatch(context.Background(), points, a.Config.Processing, a.Config.ColorFor)
	if err != nil {
		log.Fatalf("Error rendering: %v", err)
	}
	for _, layer := range layers {
		fmt.Printf("Rendered layer %q (%d bytes)\n", layer.Label, len(layer.Image))
	}

	legend := a.renderLegend(layers)

	out, err := os.Create(a.OutputFile)
	if err != nil {
		log.Fatalf("Error creating %s: %v", a.OutputFile, err)
	}
	defer func() { _ = out.Close() }()

	if err := heat.WriteArchive(out, "geoglow heatmap", layers, legend); err != nil {
		log.Fatalf("Error writing archive: %v", err)
	}
	fmt.Printf("Created %s (%d layers)\n", a.OutputFile, len(layers))

	if a.PreviewFile != "" {
		if err := a.writePreview(layers); err != nil {
			log.Printf("Warning: preview not written: %v", err)
		} else {
			fmt.Printf("Created preview %s\n", a.PreviewFile)
		}
	}
}

// RunService starts the MQTT ingest and HTTP service.
func (a *App) RunService() {
	fmt.Println("Starting geoglow service...")

	a.loadConfig()

	// Point store: samples survive restarts.
	storePath := a.StorePath
	if storePath == "" {
		storePath = a.Config.StorePath
	}
	if storePath == "" {
		storePath = "geoglow.db"
	}
	store, err := heat.OpenStore(storePath)
	if err != nil {
		log.Fatalf("Failed to open point store: %v", err)
	}
	a.Store = store
	defer func() { _ = store.Close() }()

	persisted, err := store.All()
	if err != nil {
		log.Fatalf("Failed to load persisted points: %v", err)
	}
	a.Collector.Add(persisted)
	log.Printf("Point store %s: %d point(s) loaded", storePath, len(persisted))

	// MQTT ingest: payloads are delimited point rows.
	mqttClient, err := heat.InitMQTT(a.Config, func(points []heat.Point, skipped int) {
		if skipped > 0 {
			log.Printf("Ingest: skipped %d malformed row(s)", skipped)
		}
		if err := a.Store.Insert(points); err != nil {
			log.Printf("Error persisting %d point(s): %v", len(points), err)
		}
		a.Collector.Add(points)
		log.Printf("Ingested %d point(s), %d total", len(points), a.Collector.Len())
	})
	if err != nil {
		log.Fatalf("Failed to initialize MQTT: %v", err)
	}
	a.MQTT = mqttClient
	if mqttClient != nil {
		a.Publisher = heat.NewPublisher(mqttClient.GetClient(), a.Config.MQTT.PublishPrefix)
	}

	// Initial render so the HTTP endpoints have content when data exists.
	if a.Collector.Len() > 0 {
		if err := a.renderNow(context.Background()); err != nil {
			log.Printf("Warning: initial render failed: %v", err)
		}
	}

	httpServer := newHTTPServer(a)
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", a.HTTPPort)
		log.Printf("[HTTP] Starting server on %s", addr)
		if err := http.ListenAndServe(addr, httpServer); err != nil {
			log.Fatalf("[HTTP] Server error: %v", err)
		}
	}()

	fmt.Println("\nService Running")
	fmt.Println("===============")
	if mqttClient != nil {
		fmt.Printf("\nMQTT:\n  Ingest topic: %s\n  Render notices: %s/renders\n",
			mqttClient.IngestTopic(), publishPrefix(a.Config))
	}
	fmt.Printf("\nHTTP endpoints (port %d):\n", a.HTTPPort)
	fmt.Println("  GET  /health       - Health check")
	fmt.Println("  GET  /heatmap.kmz  - Latest georeferenced archive")
	fmt.Println("  GET  /preview.png  - Composite preview image")
	fmt.Println("  POST /render       - Rebuild from accumulated points")
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down service...")
	if a.MQTT != nil {
		a.MQTT.Disconnect()
	}
	fmt.Println("Service stopped")
}

// renderNow runs the full batch over the accumulated points and swaps the
// finished archive into the collector. Failures leave the previous archive
// untouched.
func (a *App) renderNow(ctx context.Context) error {
	points := a.Collector.Points()

	layers, err := heat.RenderBatch(ctx, points, a.Config.Processing, a.Config.ColorFor)
	if err != nil {
		return err
	}

	legend := a.renderLegend(layers)

	archive, err := heat.BuildArchive("geoglow heatmap", layers, legend)
	if err != nil {
		return err
	}
	a.Collector.SetArchive(archive, layers)
	log.Printf("Rendered %d layer(s) from %d point(s), archive %d bytes",
		len(layers), len(points), len(archive))

	if a.Publisher != nil {
		labels := make([]string, len(layers))
		for i, layer := range layers {
			labels[i] = layer.Label
		}
		if err := a.Publisher.PublishRender(labels, len(points), len(archive)); err != nil {
			log.Printf("Error publishing render notice: %v", err)
		}
	}
	return nil
}

// renderLegend builds the ScreenOverlay legend; a failure only costs the
// legend, never the archive.
func (a *App) renderLegend(layers []heat.RasterLayer) []byte {
	labels := make([]string, len(layers))
	for i, layer := range layers {
		labels[i] = layer.Label
	}
	legend, err := heat.RenderLegend(labels, a.baseColor)
	if err != nil {
		log.Printf("Warning: legend not rendered: %v", err)
		return nil
	}
	return legend
}

// baseColor resolves a category's configured color, logging a fallback for
// malformed codes.
func (a *App) baseColor(category string) color.NRGBA {
	hex := a.Config.ColorFor(category)
	c := heat.ParseHexColor(hex)
	if c == (color.NRGBA{0, 0, 0, 255}) && hex != "" && hex != "#000000" && hex != "000000" {
		log.Printf("Warning: malformed color %q for category %q, using black", hex, category)
	}
	return c
}

func (a *App) writePreview(layers []heat.RasterLayer) error {
	img, err := heat.RenderPreview(layers, a.baseColor)
	if err != nil {
		return err
	}

	f, err := os.Create(a.PreviewFile)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return png.Encode(f, img)
}

func publishPrefix(config *heat.Config) string {
	if config.MQTT.PublishPrefix != "" {
		return config.MQTT.PublishPrefix
	}
	return "geoglow"
}
