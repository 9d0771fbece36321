package main

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/tilebucket"
	"github.com/gogpu/tilebucket/style"
	"github.com/gogpu/tilebucket/tile"
)

// config is the optional TOML build configuration.
//
//	workers = 4
//	log_level = "debug"
//	zoom = 14.5
//	fade_duration = "300ms"
//
//	[preview]
//	path = "tile.png"
//	size = 512
//
//	[[layer]]
//	id = "parks"
//	source = "landuse"
//	color = "#4caf50"
//	opacity = 0.8
//	outline = true
//	pattern = '{"stops": [[0, "grass-sm"], [14, "grass-lg"]]}'
//	filter = { class = "park" }
type config struct {
	Workers      int           `toml:"workers"`
	LogLevel     string        `toml:"log_level"`
	Zoom         float64       `toml:"zoom"`
	FadeDuration time.Duration `toml:"fade_duration"`
	Preview      previewConfig `toml:"preview"`
	Layers       []layerConfig `toml:"layer"`
}

type previewConfig struct {
	Path string `toml:"path"`
	Size int    `toml:"size"`
}

type layerConfig struct {
	ID      string            `toml:"id"`
	Source  string            `toml:"source"`
	Color   string            `toml:"color"`
	Opacity *float64          `toml:"opacity"`
	Outline bool              `toml:"outline"`
	Pattern string            `toml:"pattern"`
	Filter  map[string]string `toml:"filter"`
}

func defaultConfig() config {
	return config{
		LogLevel:     "warn",
		FadeDuration: 300 * time.Millisecond,
		Preview:      previewConfig{Size: 512},
	}
}

// loadConfig reads path over the defaults. Unknown keys are logged.
func loadConfig(path string) (config, error) {
	conf := defaultConfig()
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return conf, fmt.Errorf("read config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		tilebucket.Logger().Warn("unknown config key", "file", path, "key", key.String())
	}
	return conf, nil
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// styleLayers converts the layer tables into style layers and the filters
// of the layers that declare one.
func (c config) styleLayers() ([]*tilebucket.StyleLayer, map[string]tile.Filter, error) {
	layers := make([]*tilebucket.StyleLayer, 0, len(c.Layers))
	filters := make(map[string]tile.Filter)
	seen := make(map[string]bool)

	for i, lc := range c.Layers {
		if lc.ID == "" || lc.Source == "" {
			return nil, nil, fmt.Errorf("layer %d: id and source are required", i)
		}
		if seen[lc.ID] {
			return nil, nil, fmt.Errorf("layer %q: duplicate id", lc.ID)
		}
		seen[lc.ID] = true

		l := &tilebucket.StyleLayer{
			ID:          lc.ID,
			SourceLayer: lc.Source,
			Opacity:     1,
			Outline:     lc.Outline,
		}
		if lc.Opacity != nil {
			l.Opacity = *lc.Opacity
		}
		rgba, err := parseColor(lc.Color, l.Opacity)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %q: %w", lc.ID, err)
		}
		l.Color = rgba

		if lc.Pattern != "" {
			var f style.PiecewiseConstantFunction[string]
			if err := f.UnmarshalJSON([]byte(lc.Pattern)); err != nil {
				return nil, nil, fmt.Errorf("layer %q pattern: %w", lc.ID, err)
			}
			l.Pattern = &f
		}
		if len(lc.Filter) > 0 {
			filters[lc.ID] = filterFor(lc.Filter)
		}
		layers = append(layers, l)
	}
	return layers, filters, nil
}

// parseColor reads a #rgb or #rrggbb color; empty means black.
func parseColor(s string, alpha float64) ([4]float32, error) {
	if s == "" {
		return [4]float32{0, 0, 0, float32(alpha)}, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return [4]float32{}, fmt.Errorf("color %q: %w", s, err)
	}
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(alpha)}, nil
}

// filterFor keeps features whose properties match every pair of want.
func filterFor(want map[string]string) tile.Filter {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]tile.Filter, len(keys))
	for i, k := range keys {
		parts[i] = tile.PropertyMatches(k, want[k])
	}
	return tile.All(parts...)
}
