// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/tilebucket"
	"github.com/gogpu/tilebucket/internal/worker"
)

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers sets the number of tiles built concurrently.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithFilter restricts the style layer with the given ID to the features
// passing f.
func WithFilter(layerID string, f Filter) Option {
	return func(b *Builder) {
		b.filters[layerID] = f
	}
}

// WithAllocHints sizes the tessellator arena of every bucket.
func WithAllocHints(h tilebucket.AllocHints) Option {
	return func(b *Builder) {
		b.hints = &h
	}
}

// Builder builds fill buckets for a fixed list of style layers.
//
// Builder is safe for concurrent use. Close releases its workers.
type Builder struct {
	layers  []*tilebucket.StyleLayer
	filters map[string]Filter
	hints   *tilebucket.AllocHints
	workers int
	pool    *worker.Pool
}

// NewBuilder returns a builder for layers, drawn in the given order.
func NewBuilder(layers []*tilebucket.StyleLayer, opts ...Option) *Builder {
	b := &Builder{
		layers:  layers,
		filters: make(map[string]Filter),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pool = worker.New(b.workers)
	return b
}

// Workers returns the number of tiles built concurrently.
func (b *Builder) Workers() int {
	return b.pool.Workers()
}

// Close stops the workers. Build must not be called afterwards.
func (b *Builder) Close() {
	b.pool.Close()
}

// Bucket is the fill bucket built for one style layer.
type Bucket struct {
	*tilebucket.FillBucket
	Layer    *tilebucket.StyleLayer
	Features int
}

// Result holds the buckets built for one tile. All buckets of a tile
// share Buffers.
type Result struct {
	ID      maptile.Tile
	Buffers *tilebucket.Buffers
	// Buckets are in style order. Layers without features or whose build
	// failed are left out.
	Buckets []Bucket
	// Err joins the errors of failed buckets.
	Err error
}

// Build builds every tile and returns the results in input order.
// Tiles not started when ctx is done carry ctx.Err().
func (b *Builder) Build(ctx context.Context, tiles []*Tile) []*Result {
	results := make([]*Result, len(tiles))
	tasks := make([]worker.Task, len(tiles))
	for i, t := range tiles {
		tasks[i] = func(context.Context) error {
			results[i] = b.BuildTile(t)
			return results[i].Err
		}
	}

	for i, err := range b.pool.Run(ctx, tasks) {
		if results[i] == nil {
			results[i] = &Result{ID: tiles[i].ID, Err: err}
		}
	}
	return results
}

// BuildTile builds the buckets of one tile on the calling goroutine.
func (b *Builder) BuildTile(t *Tile) *Result {
	r := &Result{ID: t.ID, Buffers: tilebucket.NewBuffers()}
	var opts []tilebucket.BucketOption
	if b.hints != nil {
		opts = append(opts, tilebucket.WithAllocHints(*b.hints))
	}

	var errs []error
	for _, layer := range b.layers {
		features := t.Features(layer.SourceLayer, b.filters[layer.ID])
		if len(features) == 0 {
			continue
		}
		bucket := tilebucket.NewFillBucket(r.Buffers, opts...)
		var err error
		for _, g := range features {
			if err = bucket.AddGeometry(g); err != nil {
				break
			}
		}
		if err != nil {
			tilebucket.Logger().Error("tile: bucket build failed",
				"tile", idString(t.ID), "layer", layer.ID, "err", err)
			errs = append(errs, fmt.Errorf("tile %s layer %s: %w", idString(t.ID), layer.ID, err))
			continue
		}
		if !bucket.HasData() {
			continue
		}
		r.Buckets = append(r.Buckets, Bucket{FillBucket: bucket, Layer: layer, Features: len(features)})
	}
	r.Err = errors.Join(errs...)

	tilebucket.Logger().Debug("tile: built",
		"tile", idString(t.ID), "buckets", len(r.Buckets),
		"fillVertices", r.Buffers.FillVertices.Index(),
		"lineVertices", r.Buffers.LineVertices.Index())
	return r
}

// Upload uploads the shared buffers of the tile once and marks every
// bucket ready to draw.
func (r *Result) Upload(u tilebucket.Uploader) error {
	for _, b := range r.Buckets {
		if err := b.Upload(u); err != nil {
			return fmt.Errorf("tile %s layer %s: %w", idString(r.ID), b.Layer.ID, err)
		}
	}
	return nil
}

// Render draws every bucket of the tile with p.
func (r *Result) Render(p tilebucket.FillPainter, m tilebucket.Mat4) {
	for _, b := range r.Buckets {
		b.Render(p, b.Layer, r.ID, m)
	}
}
