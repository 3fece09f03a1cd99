package heat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline defaults. Resolution is the raster side length in cells, blur
// radius is the Gaussian sigma in cells, threshold ratio is the background
// cutoff as a fraction of the saturation density.
const (
	DefaultGridResolution = 2000
	DefaultBlurRadius     = 30.0
	DefaultThresholdRatio = 0.3
)

// DefaultProcessingConfig returns the pipeline defaults.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		GridResolution: DefaultGridResolution,
		BlurRadius:     DefaultBlurRadius,
		ThresholdRatio: DefaultThresholdRatio,
	}
}

// Validate checks the pipeline parameters.
func (pc ProcessingConfig) Validate() error {
	if pc.GridResolution <= 0 {
		return fmt.Errorf("processing.gridResolution must be positive, got %d", pc.GridResolution)
	}
	if pc.BlurRadius <= 0 {
		return fmt.Errorf("processing.blurRadius must be positive, got %g", pc.BlurRadius)
	}
	if pc.ThresholdRatio < 0 || pc.ThresholdRatio > 1 {
		return fmt.Errorf("processing.thresholdRatio must be in [0,1], got %g", pc.ThresholdRatio)
	}
	return nil
}

// DefaultConfig returns a config with pipeline defaults and no MQTT.
func DefaultConfig() *Config {
	return &Config{Processing: DefaultProcessingConfig()}
}

// LoadConfig loads the configuration from a YAML file. Unset pipeline
// fields take the defaults before validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if config.Processing.GridResolution == 0 {
		config.Processing.GridResolution = DefaultGridResolution
	}
	if config.Processing.BlurRadius == 0 {
		config.Processing.BlurRadius = DefaultBlurRadius
	}
	if config.Processing.ThresholdRatio == 0 {
		config.Processing.ThresholdRatio = DefaultThresholdRatio
	}

	if err := config.Processing.Validate(); err != nil {
		return nil, err
	}

	for i, cs := range config.Categories {
		if cs.Category == "" {
			return nil, fmt.Errorf("categories[%d].category is required", i)
		}
		if cs.Color == "" {
			return nil, fmt.Errorf("categories[%d].color is required for %s", i, cs.Category)
		}
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
