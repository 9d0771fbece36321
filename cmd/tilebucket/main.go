// Command tilebucket builds fill buckets for vector tiles and reports the
// resulting draw groups.
//
// Usage:
//
//	tilebucket [flags] tile.mvt [more tiles...]
//
// Inputs are Mapbox Vector Tiles (.mvt, .pbf, optionally gzipped) or GeoJSON
// feature collections (.geojson, .json). A tile named z-x-y.mvt takes its id
// from the name, otherwise from -z, -x and -y. Buckets are uploaded to a noop
// GPU device and drawn once, so the report reflects real draw submission.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/tilebucket"
	"github.com/gogpu/tilebucket/gpu"
	"github.com/gogpu/tilebucket/style"
	"github.com/gogpu/tilebucket/tile"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML build configuration")
		z          = flag.Uint("z", 0, "tile zoom when the file name carries no id")
		x          = flag.Uint("x", 0, "tile column when the file name carries no id")
		y          = flag.Uint("y", 0, "tile row when the file name carries no id")
		layerName  = flag.String("layer", "features", "layer name for GeoJSON input")
		workers    = flag.Int("workers", 0, "tiles built concurrently (0: config or GOMAXPROCS)")
		preview    = flag.String("preview", "", "write a PNG preview of each tile to this path")
		size       = flag.Int("size", 0, "preview size in pixels (0: config)")
		zoom       = flag.Float64("zoom", -1, "display zoom for pattern evaluation (<0: config or tile zoom)")
		logLevel   = flag.String("v", "", "log level: debug, info, warn, error")
	)
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	conf := defaultConfig()
	if *configPath != "" {
		var err error
		if conf, err = loadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *workers > 0 {
		conf.Workers = *workers
	}
	if *preview != "" {
		conf.Preview.Path = *preview
	}
	if *size > 0 {
		conf.Preview.Size = *size
	}
	if *zoom >= 0 {
		conf.Zoom = *zoom
	}
	if *logLevel != "" {
		conf.LogLevel = *logLevel
	}

	level, err := conf.level()
	if err != nil {
		log.Fatal(err)
	}
	tilebucket.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	fallback := maptile.New(uint32(*x), uint32(*y), maptile.Zoom(*z))
	tiles := make([]*tile.Tile, 0, flag.NArg())
	for _, path := range flag.Args() {
		t, err := readTile(path, fallback, *layerName)
		if err != nil {
			log.Fatal(err)
		}
		tiles = append(tiles, t)
	}

	if err := run(conf, tiles, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run builds, uploads and draws every tile and prints the report to out.
func run(conf config, tiles []*tile.Tile, out io.Writer) error {
	layers, filters, err := conf.styleLayers()
	if err != nil {
		return err
	}
	if len(layers) == 0 && len(tiles) > 0 {
		layers = defaultLayers(tiles[0])
	}

	opts := []tile.Option{tile.WithWorkers(conf.Workers)}
	for id, f := range filters {
		opts = append(opts, tile.WithFilter(id, f))
	}
	builder := tile.NewBuilder(layers, opts...)
	defer builder.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	start := time.Now()
	results := builder.Build(ctx, tiles)
	tilebucket.Logger().Info("tiles built", "tiles", len(results), "workers", builder.Workers(), "elapsed", time.Since(start))

	dev, err := openNoopDevice()
	if err != nil {
		return err
	}
	defer dev.close()

	stats, err := drawResults(dev, conf, results)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderReport(stats))

	if conf.Preview.Path != "" {
		for i, r := range results {
			path := previewPath(conf.Preview.Path, i, len(results))
			if err := writePNG(path, renderPreview(r, conf.Preview.Size)); err != nil {
				return err
			}
			tilebucket.Logger().Info("preview written", "path", path)
		}
	}
	return nil
}

// drawResults uploads each tile to the device and draws it in one frame.
func drawResults(dev *device, conf config, results []*tile.Result) ([]tileStats, error) {
	set, err := gpu.NewPipelineSet(dev.device, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, err
	}
	defer set.Destroy()

	target, err := gpu.NewTarget(dev.device, uint32(conf.Preview.Size), uint32(conf.Preview.Size), gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, err
	}
	defer target.Destroy()

	var history style.ZoomHistory
	stats := make([]tileStats, 0, len(results))
	for _, r := range results {
		up, err := gpu.NewUploader(dev.device, dev.queue)
		if err != nil {
			return nil, err
		}
		if err := r.Upload(up); err != nil {
			up.Release()
			return nil, err
		}

		zoom := conf.Zoom
		if zoom == 0 {
			zoom = float64(r.ID.Z)
		}
		now := time.Now()
		history.Update(zoom, now)

		frame, err := gpu.BeginFrame(dev.device, dev.queue, target, set.Pipelines())
		if err != nil {
			up.Release()
			return nil, err
		}
		painter := tilebucket.NewPainter(frame)
		painter.SetParameters(style.CalculationParameters{
			Z:                   zoom,
			Now:                 now,
			ZoomHistory:         history,
			DefaultFadeDuration: conf.FadeDuration,
		})
		r.Render(painter, tilebucket.Identity())
		err = frame.Submit()
		stats = append(stats, tileStats{result: r, draws: frame.Draws(), bytes: up.Bytes()})
		up.Release()
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// defaultLayers draws every source layer of t with an outline.
func defaultLayers(t *tile.Tile) []*tilebucket.StyleLayer {
	palette := []string{"#8fbc8f", "#a0c4e8", "#e8d8a0", "#d8a0c8", "#b0b0b0"}
	layers := make([]*tilebucket.StyleLayer, 0, len(t.Layers))
	for i, l := range t.Layers {
		c, _ := parseColor(palette[i%len(palette)], 1)
		layers = append(layers, &tilebucket.StyleLayer{
			ID:          l.Name,
			SourceLayer: l.Name,
			Color:       c,
			Opacity:     1,
			Outline:     true,
		})
	}
	return layers
}

func readTile(path string, fallback maptile.Tile, layer string) (*tile.Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	id := tileIDFromName(path, fallback)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return tile.DecodeGeoJSON(id, layer, data)
	default:
		return tile.Decode(id, data)
	}
}

// tileIDFromName parses z-x-y from the file name, or returns fallback.
func tileIDFromName(path string, fallback maptile.Tile) maptile.Tile {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var z, x, y uint32
	if n, err := fmt.Sscanf(base, "%d-%d-%d", &z, &x, &y); err != nil || n != 3 {
		return fallback
	}
	if z > 30 || x >= 1<<z || y >= 1<<z {
		return fallback
	}
	return maptile.New(x, y, maptile.Zoom(z))
}

// previewPath numbers the preview files when there is more than one tile.
func previewPath(path string, i, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i, ext)
}

// device is a noop HAL device; buckets go through the full upload and
// draw path without a GPU.
type device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
}

func openNoopDevice() (*device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &device{instance: instance, device: open.Device, queue: open.Queue}, nil
}

func (d *device) close() {
	d.device.Destroy()
	d.instance.Destroy()
}
