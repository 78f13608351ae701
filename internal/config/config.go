// Package config loads the editor settings from YAML and watches the file
// for changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level editor configuration.
type Config struct {
	Canvas  CanvasConfig  `yaml:"canvas"`
	History HistoryConfig `yaml:"history"`
	Objects ObjectsConfig `yaml:"objects"`
	Handles HandlesConfig `yaml:"handles"`
	Crop    CropConfig    `yaml:"crop"`
	Export  ExportConfig  `yaml:"export"`
	Filters FiltersConfig `yaml:"filters"`
	Log     LogConfig     `yaml:"log"`
}

// CanvasConfig selects the paper the workspace is sized to.
type CanvasConfig struct {
	Paper       string `yaml:"paper"`       // a3 | a4 | a5 | letter | legal | tabloid
	Orientation string `yaml:"orientation"` // portrait | landscape
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// ObjectsConfig controls placement of ingested images.
type ObjectsConfig struct {
	MinSize       float64 `yaml:"min_size"`
	MaxIngestSize float64 `yaml:"max_ingest_size"`
	MaxPixels     int     `yaml:"max_pixels"` // larger images are refused before decoding
	DefaultX      float64 `yaml:"default_x"`
	DefaultY      float64 `yaml:"default_y"`
}

// HandlesConfig sizes the interactive grips.
type HandlesConfig struct {
	Radius       float64 `yaml:"radius"`
	RotateOffset float64 `yaml:"rotate_offset"`
}

// CropConfig controls new crop sessions.
type CropConfig struct {
	InitialFraction float64 `yaml:"initial_fraction"`
}

// ExportConfig controls rasterized output.
type ExportConfig struct {
	Scale float64 `yaml:"scale"`
}

// FiltersConfig holds the filter values given to new objects.
type FiltersConfig struct {
	Contrast   float64 `yaml:"contrast"`
	Brightness float64 `yaml:"brightness"`
	Saturation float64 `yaml:"saturation"`
	Sharpness  float64 `yaml:"sharpness"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Canvas:  CanvasConfig{Paper: "a4", Orientation: Portrait},
		History: HistoryConfig{Capacity: 50},
		Objects: ObjectsConfig{MinSize: 20, MaxIngestSize: 600, MaxPixels: 100_000_000, DefaultX: 50, DefaultY: 50},
		Handles: HandlesConfig{Radius: 10, RotateOffset: 30},
		Crop:    CropConfig{InitialFraction: 0.8},
		Export:  ExportConfig{Scale: 3},
		Filters: FiltersConfig{Contrast: 1.05, Brightness: 1.02, Saturation: 1.05, Sharpness: 0},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// applyDefaults fills zero values an explicit file may have left out.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Canvas.Paper == "" {
		c.Canvas.Paper = d.Canvas.Paper
	}
	if c.Canvas.Orientation == "" {
		c.Canvas.Orientation = d.Canvas.Orientation
	}
	if c.History.Capacity <= 0 {
		c.History.Capacity = d.History.Capacity
	}
	if c.Objects.MinSize <= 0 {
		c.Objects.MinSize = d.Objects.MinSize
	}
	if c.Objects.MaxIngestSize <= 0 {
		c.Objects.MaxIngestSize = d.Objects.MaxIngestSize
	}
	if c.Objects.MaxPixels <= 0 {
		c.Objects.MaxPixels = d.Objects.MaxPixels
	}
	if c.Handles.Radius <= 0 {
		c.Handles.Radius = d.Handles.Radius
	}
	if c.Handles.RotateOffset <= 0 {
		c.Handles.RotateOffset = d.Handles.RotateOffset
	}
	if c.Crop.InitialFraction <= 0 {
		c.Crop.InitialFraction = d.Crop.InitialFraction
	}
	if c.Export.Scale <= 0 {
		c.Export.Scale = d.Export.Scale
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks names and ranges.
func (c *Config) Validate() error {
	if _, ok := Papers[strings.ToLower(c.Canvas.Paper)]; !ok {
		return fmt.Errorf("canvas.paper: unknown paper %q", c.Canvas.Paper)
	}
	if o := strings.ToLower(c.Canvas.Orientation); o != Portrait && o != Landscape {
		return fmt.Errorf("canvas.orientation: must be portrait or landscape, got %q", c.Canvas.Orientation)
	}
	if c.Crop.InitialFraction > 1 {
		return fmt.Errorf("crop.initial_fraction must be <= 1, got %v", c.Crop.InitialFraction)
	}
	if c.Objects.DefaultX < 0 || c.Objects.DefaultY < 0 {
		return fmt.Errorf("objects.default_x/default_y must be >= 0")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// CanvasSize returns the workspace size of the configured paper.
func (c *Config) CanvasSize() (float64, float64) {
	p, err := LookupPaper(c.Canvas.Paper)
	if err != nil {
		p = Papers["a4"]
	}
	return p.Units(c.Canvas.Orientation)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}
