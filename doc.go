// Package tilebucket turns polygon geometry from map tiles into draw-ready
// 16-bit indexed vertex and index buffers.
//
// # Overview
//
// A [FillBucket] exists per style layer per tile. Each [FillBucket.AddGeometry]
// call merges the given rings under the even-odd rule, tessellates the fill
// interior, builds a stroked quad-and-bevel mesh around every ring, and
// appends both results to the tile's shared [Buffers]. Output is split into
// [Group]s so that no group addresses more than 65535 vertices or indices.
//
// # Quick Start
//
//	bufs := tilebucket.NewBuffers()
//	b := tilebucket.NewFillBucket(bufs)
//	if err := b.AddGeometry(rings); err != nil {
//	    // ErrGeometryTooLarge: discard the bucket
//	}
//	if err := b.Upload(uploader); err != nil {
//	    return err
//	}
//	draws, err := b.DrawElements(pass, tilebucket.ShaderPlain)
//
// # Lifecycle
//
// Building happens on one goroutine per bucket. [FillBucket.Upload] hands
// the bucket over to the render side; after it, AddGeometry fails with
// [ErrAlreadyUploaded]. Buckets of different tiles own different Buffers and
// may be built concurrently.
//
// # Coordinate System
//
// Tile-local coordinates, stored as int16 after rounding. X increases right,
// Y increases down. Ring orientation is not significant for filling.
//
// # Sub-packages
//
//   - style: zoom-dependent cross-faded style values
//   - gpu: wgpu HAL uploader and render pass adapter
//   - tile: Mapbox Vector Tile decoding and concurrent bucket builds
package tilebucket

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
