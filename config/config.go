// Package config loads gumdrop settings from YAML.
//
// Parse overlays a document on Default, so a file only needs the keys it
// changes:
//
//	canvas:
//	  width: 64
//	  height: 64
//	  palette: ["#ff66cc", "skyblue"]
//	export:
//	  scale: 8
//	  background: "#0b0b12"
//	log:
//	  level: debug
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/composite"
	"github.com/pinkpixel/gumdrop/export"
	"github.com/pinkpixel/gumdrop/history"
	"github.com/pinkpixel/gumdrop/session"
)

// Config is the complete configuration.
type Config struct {
	Canvas  Canvas  `yaml:"canvas"`
	History History `yaml:"history"`
	Export  Export  `yaml:"export"`
	View    View    `yaml:"view"`
	Log     Log     `yaml:"log"`
}

// Canvas configures new documents.
type Canvas struct {
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
	Title   string   `yaml:"title"`
	Palette []string `yaml:"palette"`
}

// History configures the undo stack.
type History struct {
	MaxEntries int   `yaml:"maxEntries"`
	MaxBytes   int64 `yaml:"maxBytes"`
}

// Export configures encoders and the export policy.
type Export struct {
	JPEGQuality     int    `yaml:"jpegQuality"`
	Scale           int    `yaml:"scale"`
	Background      string `yaml:"background"`
	RestartOnChange bool   `yaml:"restartOnChange"`
	Workers         int    `yaml:"workers"`
}

// View configures the initial view state.
type View struct {
	Zoom     int  `yaml:"zoom"`
	MinZoom  int  `yaml:"minZoom"`
	MaxZoom  int  `yaml:"maxZoom"`
	ZoomStep int  `yaml:"zoomStep"`
	Grid     bool `yaml:"grid"`
	Dark     bool `yaml:"dark"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Canvas: Canvas{
			Width:   40,
			Height:  40,
			Title:   "My Pixel Pet",
			Palette: []string{"#ff66cc", "#000000", "#ffffff"},
		},
		History: History{
			MaxEntries: history.DefaultMaxEntries,
			MaxBytes:   history.DefaultMaxBytes,
		},
		Export: Export{
			JPEGQuality: export.DefaultQuality,
			Scale:       1,
		},
		View: View{
			Zoom:     40,
			MinZoom:  4,
			MaxZoom:  40,
			ZoomStep: 2,
			Grid:     true,
			Dark:     true,
		},
		Log: Log{Level: "info"},
	}
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return data, nil
}

// Validate checks ranges and colour syntax.
func (c Config) Validate() error {
	var errs []string
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Sprintf("canvas %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if _, err := c.PaletteColors(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.History.MaxEntries < 1 {
		errs = append(errs, fmt.Sprintf("history.maxEntries %d", c.History.MaxEntries))
	}
	if c.History.MaxBytes < 1 {
		errs = append(errs, fmt.Sprintf("history.maxBytes %d", c.History.MaxBytes))
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		errs = append(errs, fmt.Sprintf("export.jpegQuality %d", c.Export.JPEGQuality))
	}
	if c.Export.Scale < 1 {
		errs = append(errs, fmt.Sprintf("export.scale %d", c.Export.Scale))
	}
	if _, err := c.BackgroundColor(); err != nil {
		errs = append(errs, err.Error())
	}
	v := c.View
	if v.MinZoom < 1 || v.MaxZoom < v.MinZoom || v.ZoomStep < 1 || v.Zoom < v.MinZoom || v.Zoom > v.MaxZoom {
		errs = append(errs, fmt.Sprintf("view zoom %d in [%d,%d] step %d", v.Zoom, v.MinZoom, v.MaxZoom, v.ZoomStep))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s: %w", strings.Join(errs, "; "), gumdrop.ErrInvalidValue)
	}
	return nil
}

// PaletteColors parses the canvas palette.
func (c Config) PaletteColors() ([]gumdrop.Color, error) {
	out := make([]gumdrop.Color, 0, len(c.Canvas.Palette))
	for _, s := range c.Canvas.Palette {
		col, err := gumdrop.ParseColor(s)
		if err != nil {
			return nil, fmt.Errorf("canvas.palette: %w", err)
		}
		out = append(out, col)
	}
	return out, nil
}

// BackgroundColor parses the export background. It is nil when unset.
func (c Config) BackgroundColor() (*gumdrop.Color, error) {
	if c.Export.Background == "" {
		return nil, nil
	}
	col, err := gumdrop.ParseColor(c.Export.Background)
	if err != nil {
		return nil, fmt.Errorf("export.background: %w", err)
	}
	return &col, nil
}

// LogLevel returns the configured slog level.
func (c Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q", s)
	}
	return l, nil
}

// DocumentOptions returns the options for a new document.
func (c Config) DocumentOptions() []gumdrop.DocumentOption {
	palette, _ := c.PaletteColors()
	return []gumdrop.DocumentOption{
		gumdrop.WithTitle(c.Canvas.Title),
		gumdrop.WithPalette(palette...),
	}
}

// NewDocument creates a blank document from the canvas section.
func (c Config) NewDocument() (*gumdrop.Document, error) {
	return gumdrop.NewDocument(c.Canvas.Width, c.Canvas.Height, c.DocumentOptions()...)
}

// SessionOptions returns the options for a session.
func (c Config) SessionOptions() []session.Option {
	policy := session.Snapshot
	if c.Export.RestartOnChange {
		policy = session.RestartOnChange
	}
	return []session.Option{
		session.WithHistory(
			history.WithMaxEntries(c.History.MaxEntries),
			history.WithMaxBytes(c.History.MaxBytes),
		),
		session.WithCompositor(composite.WithWorkers(c.Export.Workers)),
		session.WithPolicy(policy),
	}
}

// ExportOptions returns the encoder options.
func (c Config) ExportOptions() export.Options {
	bg, _ := c.BackgroundColor()
	return export.Options{
		Background: bg,
		Quality:    c.Export.JPEGQuality,
		Scale:      c.Export.Scale,
	}
}
