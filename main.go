package main

import (
	"flag"
	"fmt"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile     = flag.String("config", "config.yaml", "Path to configuration file")
	outputFile     = flag.String("output", "heatmap.kmz", "Output KMZ file for batch mode")
	previewFile    = flag.String("preview", "", "Also write a composite preview PNG to this path")
	resolution     = flag.Int("resolution", 0, "Override grid resolution (cells per side)")
	blurRadius     = flag.Float64("blur", 0, "Override Gaussian blur sigma (grid cells)")
	thresholdRatio = flag.Float64("threshold", -1, "Override background cutoff ratio (0-1)")
	serveMode      = flag.Bool("serve", false, "Run MQTT/HTTP service mode instead of batch conversion")
	httpPort       = flag.Int("http-port", 8080, "HTTP server port for service mode")
	storePath      = flag.String("store", "", "Override SQLite point store path for service mode")
)

func main() {
	flag.Parse()
	fmt.Printf("geoglow version: %s\n", Version)

	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile:     *configFile,
		OutputFile:     *outputFile,
		PreviewFile:    *previewFile,
		Resolution:     *resolution,
		BlurRadius:     *blurRadius,
		ThresholdRatio: *thresholdRatio,
		HTTPPort:       *httpPort,
		StorePath:      *storePath,
	})

	if *serveMode {
		app.RunService()
		return
	}

	app.RunConvert(flag.Args())
}
