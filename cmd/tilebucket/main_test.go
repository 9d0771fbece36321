package main

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/tilebucket/tile"
)

const testConfig = `
workers = 2
log_level = "debug"
zoom = 3.5
fade_duration = "150ms"

[preview]
size = 128

[[layer]]
id = "parks"
source = "landuse"
color = "#00ff00"
opacity = 0.5
outline = true
pattern = '{"stops": [[0, "grass-sm"], [3, "grass-lg"]]}'
filter = { class = "park" }

[[layer]]
id = "everything"
source = "landuse"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	conf, err := loadConfig(writeFile(t, "build.toml", testConfig))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if conf.Workers != 2 || conf.Zoom != 3.5 || conf.FadeDuration != 150*time.Millisecond {
		t.Errorf("conf = %+v", conf)
	}
	if conf.Preview.Size != 128 || len(conf.Layers) != 2 {
		t.Errorf("preview = %+v, layers = %d", conf.Preview, len(conf.Layers))
	}

	layers, filters, err := conf.styleLayers()
	if err != nil {
		t.Fatalf("styleLayers: %v", err)
	}
	parks := layers[0]
	if d := cmp.Diff([4]float32{0, 1, 0, 0.5}, parks.Color); d != "" {
		t.Errorf("parks color (-want +got):\n%s", d)
	}
	if parks.Pattern == nil || len(parks.Pattern.Stops) != 2 {
		t.Errorf("parks pattern = %+v", parks.Pattern)
	}
	if layers[1].Opacity != 1 || layers[1].Outline {
		t.Errorf("everything = %+v", layers[1])
	}
	if _, ok := filters["parks"]; !ok || len(filters) != 1 {
		t.Errorf("filters = %v", filters)
	}

	if _, err := loadConfig(writeFile(t, "bad.toml", "workers = [")); err == nil {
		t.Error("loadConfig accepted invalid TOML")
	}
}

func TestConfig_StyleLayersErrors(t *testing.T) {
	tests := []struct {
		name   string
		layers []layerConfig
	}{
		{"missing source", []layerConfig{{ID: "a"}}},
		{"duplicate id", []layerConfig{{ID: "a", Source: "s"}, {ID: "a", Source: "s"}}},
		{"bad color", []layerConfig{{ID: "a", Source: "s", Color: "green"}}},
		{"bad pattern", []layerConfig{{ID: "a", Source: "s", Pattern: `{"stops": []}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := defaultConfig()
			conf.Layers = tt.layers
			if _, _, err := conf.styleLayers(); err == nil {
				t.Error("styleLayers succeeded")
			}
		})
	}
}

func TestConfig_Level(t *testing.T) {
	conf := defaultConfig()
	conf.LogLevel = "nonsense"
	if _, err := conf.level(); err == nil {
		t.Error("level accepted nonsense")
	}
}

func TestTileIDFromName(t *testing.T) {
	fallback := maptile.New(7, 7, 7)
	tests := []struct {
		path string
		want maptile.Tile
	}{
		{"tiles/14-8192-5461.mvt", maptile.New(8192, 5461, 14)},
		{"0-0-0.pbf", maptile.New(0, 0, 0)},
		{"1-2-0.mvt", fallback},
		{"landuse.mvt", fallback},
	}
	for _, tt := range tests {
		if got := tileIDFromName(tt.path, fallback); got != tt.want {
			t.Errorf("tileIDFromName(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPreviewPath(t *testing.T) {
	if got := previewPath("out.png", 0, 1); got != "out.png" {
		t.Errorf("single = %q", got)
	}
	if got := previewPath("dir/out.png", 2, 3); got != "dir/out-2.png" {
		t.Errorf("numbered = %q", got)
	}
}

func testTile(t *testing.T) *tile.Tile {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	park := geojson.NewFeature(orb.Polygon{{{0, 0}, {2048, 0}, {2048, 2048}, {0, 2048}, {0, 0}}})
	park.Properties["class"] = "park"
	fc.Append(park)
	farm := geojson.NewFeature(orb.Polygon{{{3000, 3000}, {4000, 3000}, {4000, 4000}, {3000, 4000}, {3000, 3000}}})
	farm.Properties["class"] = "farm"
	fc.Append(farm)

	data, err := mvt.Marshal(mvt.Layers{mvt.NewLayer("landuse", fc)})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "3-1-2.mvt")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	tl, err := readTile(path, maptile.New(0, 0, 0), "unused")
	if err != nil {
		t.Fatalf("readTile: %v", err)
	}
	if tl.ID != maptile.New(1, 2, 3) {
		t.Fatalf("tile id = %v", tl.ID)
	}
	return tl
}

func TestRun(t *testing.T) {
	conf, err := loadConfig(writeFile(t, "build.toml", testConfig))
	if err != nil {
		t.Fatal(err)
	}
	conf.Preview.Path = filepath.Join(t.TempDir(), "preview.png")

	var out bytes.Buffer
	if err := run(conf, []*tile.Tile{testTile(t)}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.String()
	for _, want := range []string{"tile 3/1/2", "parks", "everything"} {
		if !strings.Contains(report, want) {
			t.Errorf("report misses %q:\n%s", want, report)
		}
	}
	if _, err := os.Stat(conf.Preview.Path); err != nil {
		t.Errorf("preview not written: %v", err)
	}
}

func TestRun_DefaultLayers(t *testing.T) {
	conf := defaultConfig()
	conf.Preview.Size = 64

	var out bytes.Buffer
	if err := run(conf, []*tile.Tile{testTile(t)}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "landuse") {
		t.Errorf("report misses the default landuse layer:\n%s", out.String())
	}
}

func TestRenderPreview(t *testing.T) {
	b := tile.NewBuilder(defaultLayers(testTile(t)), tile.WithWorkers(1))
	defer b.Close()
	r := b.BuildTile(testTile(t))

	img := renderPreview(r, 64)
	// The park covers the top-left quarter; the bottom-left corner is empty.
	if got := img.RGBAAt(16, 16); got == previewBackground {
		t.Errorf("park pixel = %v, want fill color", got)
	}
	if got := img.RGBAAt(8, 56); got != previewBackground {
		t.Errorf("empty pixel = %v, want background", got)
	}
}

func TestLayerColor(t *testing.T) {
	got := layerColor(defaultLayers(testTile(t))[0])
	want := color.RGBA{0x8f, 0xbc, 0x8f, 0xff}
	if got != want {
		t.Errorf("layerColor = %v, want %v", got, want)
	}
}
