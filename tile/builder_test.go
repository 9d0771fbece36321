// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/tilebucket"
)

type countingUploader struct {
	uploads int
}

func (u *countingUploader) Upload(_ tilebucket.BufferUsage, label string, data []byte) (tilebucket.GPUBuffer, error) {
	u.uploads++
	return label, nil
}

type countingPass struct {
	draws int
}

func (*countingPass) SetShader(tilebucket.ShaderKind) {}
func (*countingPass) SetVertexBuffer(tilebucket.GPUBuffer, uint64) {}
func (*countingPass) SetIndexBuffer(tilebucket.GPUBuffer, uint64) {}
func (p *countingPass) DrawIndexed(uint32) { p.draws++ }

func testStyle() []*tilebucket.StyleLayer {
	return []*tilebucket.StyleLayer{
		{ID: "parks", SourceLayer: "landuse", Outline: true},
		{ID: "farms", SourceLayer: "landuse"},
		{ID: "water", SourceLayer: "water"},
	}
}

func decoded(t *testing.T, id maptile.Tile) *Tile {
	t.Helper()
	tl, err := Decode(id, encode(t, testLayers(), false))
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

func TestBuilder_BuildTile(t *testing.T) {
	b := NewBuilder(testStyle(),
		WithWorkers(1),
		WithFilter("parks", PropertyEquals("class", "park")),
		WithFilter("farms", PropertyEquals("class", "farm")),
	)
	defer b.Close()

	r := b.BuildTile(decoded(t, maptile.New(0, 0, 0)))
	if r.Err != nil {
		t.Fatalf("Err = %v", r.Err)
	}
	if len(r.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2 (water has no source layer)", len(r.Buckets))
	}
	if r.Buckets[0].Layer.ID != "parks" || r.Buckets[0].Features != 2 {
		t.Errorf("bucket 0 = %s with %d features", r.Buckets[0].Layer.ID, r.Buckets[0].Features)
	}
	if r.Buckets[1].Layer.ID != "farms" || r.Buckets[1].Features != 1 {
		t.Errorf("bucket 1 = %s with %d features", r.Buckets[1].Layer.ID, r.Buckets[1].Features)
	}

	// Buckets share the tile's buffers and start where the previous ended.
	_, _, lv, _ := r.Buckets[1].BaseOffsets()
	if lv != 2*4*8 {
		t.Errorf("farms line vertex base = %d, want %d", lv, 2*4*8)
	}
	if got := r.Buffers.FillVertices.Index(); got != 12 {
		t.Errorf("fill vertices = %d, want 12", got)
	}

	up := &countingUploader{}
	if err := r.Upload(up); err != nil {
		t.Fatal(err)
	}
	if up.uploads != 4 {
		t.Errorf("uploads = %d, want 4 shared buffers uploaded once", up.uploads)
	}

	pass := &countingPass{}
	r.Render(tilebucket.NewPainter(pass), tilebucket.Identity())
	// parks: fill + outline, farms: fill.
	if pass.draws != 3 {
		t.Errorf("draws = %d, want 3", pass.draws)
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(testStyle(), WithWorkers(4), WithAllocHints(tilebucket.DefaultAllocHints()))
	defer b.Close()

	var tiles []*Tile
	for x := range uint32(8) {
		tiles = append(tiles, decoded(t, maptile.New(x, 0, 3)))
	}
	results := b.Build(context.Background(), tiles)

	if len(results) != len(tiles) {
		t.Fatalf("results = %d, want %d", len(results), len(tiles))
	}
	for i, r := range results {
		if r.ID != tiles[i].ID {
			t.Errorf("result %d is tile %v, want %v", i, r.ID, tiles[i].ID)
		}
		if r.Err != nil || len(r.Buckets) != 2 {
			t.Errorf("result %d: err %v, %d buckets", i, r.Err, len(r.Buckets))
		}
	}
}

func TestBuilder_BuildCanceled(t *testing.T) {
	b := NewBuilder(testStyle(), WithWorkers(2))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := b.Build(ctx, []*Tile{decoded(t, maptile.New(0, 0, 0))})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", results[0].Err)
	}
	if results[0].Buckets != nil {
		t.Error("canceled tile has buckets")
	}
}

func TestBuilder_TooLarge(t *testing.T) {
	// 2048 squares exceed the line mesh bound of a single ring set.
	fc := geojson.NewFeatureCollection()
	var mp orb.MultiPolygon
	for i := range 2048 {
		x, y := float64(i%64)*20, float64(i/64)*20
		mp = append(mp, rect(x, y, x+10, y+10))
	}
	fc.Append(geojson.NewFeature(mp))
	tl := &Tile{ID: maptile.New(1, 1, 1), Layers: mvt.Layers{mvt.NewLayer("landuse", fc)}}

	b := NewBuilder([]*tilebucket.StyleLayer{{ID: "dense", SourceLayer: "landuse"}}, WithWorkers(1))
	defer b.Close()
	r := b.BuildTile(tl)

	if !errors.Is(r.Err, tilebucket.ErrGeometryTooLarge) {
		t.Errorf("Err = %v, want ErrGeometryTooLarge", r.Err)
	}
	if len(r.Buckets) != 0 {
		t.Errorf("failed bucket kept: %d buckets", len(r.Buckets))
	}
}
