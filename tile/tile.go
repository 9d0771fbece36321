// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tile turns vector tiles into fill buckets.
//
// A [Tile] holds the decoded layers of one Mapbox Vector Tile in tile
// coordinates. A [Builder] builds one bucket per style layer for many tiles
// at once, each tile on its own worker with its own shared buffers.
package tile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/tilebucket"
)

// ErrDecode is returned when tile data cannot be decoded.
var ErrDecode = errors.New("tile: decode failed")

var gzipMagic = []byte{0x1f, 0x8b}

// Tile is one decoded vector tile.
type Tile struct {
	ID     maptile.Tile
	Layers mvt.Layers
}

// Decode decodes MVT data, gzipped or not, for the tile id.
func Decode(id maptile.Tile, data []byte) (*Tile, error) {
	var (
		layers mvt.Layers
		err    error
	)
	if bytes.HasPrefix(data, gzipMagic) {
		layers, err = mvt.UnmarshalGzipped(data)
	} else {
		layers, err = mvt.Unmarshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, idString(id), err)
	}
	return &Tile{ID: id, Layers: layers}, nil
}

// DecodeGeoJSON reads a WGS84 feature collection as a single layer named
// name, projected into the coordinates of tile id.
func DecodeGeoJSON(id maptile.Tile, name string, data []byte) (*Tile, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, idString(id), err)
	}
	layers := mvt.Layers{mvt.NewLayer(name, fc)}
	layers.ProjectToTile(id)
	return &Tile{ID: id, Layers: layers}, nil
}

func idString(id maptile.Tile) string {
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}

// Layer returns the source layer with the given name, or nil.
func (t *Tile) Layer(name string) *mvt.Layer {
	for _, l := range t.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Filter selects the features of a source layer a style layer draws.
type Filter func(f *geojson.Feature) bool

// Features returns the polygonal features of the source layer that pass
// filter, each converted to a geometry collection. A nil filter keeps
// every polygonal feature.
func (t *Tile) Features(sourceLayer string, filter Filter) []tilebucket.GeometryCollection {
	l := t.Layer(sourceLayer)
	if l == nil {
		return nil
	}
	var out []tilebucket.GeometryCollection
	for _, f := range l.Features {
		if f == nil || !polygonal(f.Geometry) {
			continue
		}
		if filter != nil && !filter(f) {
			continue
		}
		if g := tilebucket.FromOrbGeometry(f.Geometry); len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func polygonal(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		return true
	default:
		return false
	}
}

// PropertyEquals returns a filter keeping features whose property key
// equals value.
func PropertyEquals(key string, value any) Filter {
	return func(f *geojson.Feature) bool {
		v, ok := f.Properties[key]
		return ok && v == value
	}
}

// PropertyMatches returns a filter keeping features whose property key
// prints as value. Numbers and booleans compare by their fmt form.
func PropertyMatches(key, value string) Filter {
	return func(f *geojson.Feature) bool {
		v, ok := f.Properties[key]
		return ok && fmt.Sprint(v) == value
	}
}

// All returns a filter keeping features that pass every filter.
func All(filters ...Filter) Filter {
	return func(f *geojson.Feature) bool {
		for _, fl := range filters {
			if !fl(f) {
				return false
			}
		}
		return true
	}
}
