// Package config holds the YAML configuration for the studio tools: viewer
// window and palette settings plus the release lines the model fetcher pulls
// from. A missing config file yields defaults; a malformed one is an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all studio configuration.
type Config struct {
	Viewer ViewerConfig `yaml:"viewer"`
	Fetch  FetchConfig  `yaml:"fetch"`
}

// ViewerConfig configures the 3D viewer window and cell coloring.
type ViewerConfig struct {
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	OutputDir    string `yaml:"output_dir"`

	// Background is the window clear color as an RGB triple (0-255).
	Background [3]uint8 `yaml:"background"`

	// CellColors maps a cell type index to an RGB triple. Types beyond the
	// end of the list fall back to light gray.
	CellColors [][3]uint8 `yaml:"cell_colors"`
}

// FetchConfig configures where pre-built model executables come from and
// where they are installed.
type FetchConfig struct {
	PhysiCellVersion string `yaml:"physicell_version"`
	PhysiBoSSVersion string `yaml:"physiboss_version"`
	InstallDir       string `yaml:"install_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Viewer: ViewerConfig{
			WindowWidth:  800,
			WindowHeight: 600,
			OutputDir:    "output",
			Background:   [3]uint8{26, 51, 77}, // dark blue
			CellColors: [][3]uint8{
				{128, 128, 128},
				{255, 0, 0},
				{255, 255, 0},
				{0, 255, 0},
				{0, 0, 255},
			},
		},
		Fetch: FetchConfig{
			PhysiCellVersion: "1.14.2",
			PhysiBoSSVersion: "v2.2.3",
			InstallDir:       ".",
		},
	}
}

// Load reads the configuration from path. If the file does not exist the
// defaults are returned without error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
