package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/tilebucket"
	"github.com/gogpu/tilebucket/tile"
)

// tileExtent is the coordinate range of a decoded tile.
const tileExtent = 4096

var (
	previewBackground = color.RGBA{0xf4, 0xf1, 0xea, 0xff}
	previewOutline    = color.RGBA{0x30, 0x30, 0x30, 0xc0}
	previewLabel      = color.RGBA{0x20, 0x20, 0x20, 0xff}
)

// renderPreview rasterizes the fill and outline meshes of r into a
// size x size image.
func renderPreview(r *tile.Result, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(previewBackground), image.Point{}, draw.Src)

	scale := float32(size) / tileExtent
	for _, b := range r.Buckets {
		fill := vector.NewRasterizer(size, size)
		b.FillTriangles(func(t tilebucket.Triangle) {
			addTriangle(fill, t, scale)
		})
		fill.Draw(img, img.Bounds(), image.NewUniform(layerColor(b.Layer)), image.Point{})

		if b.Layer.Outline {
			line := vector.NewRasterizer(size, size)
			b.LineTriangles(func(t tilebucket.Triangle) {
				addTriangle(line, t, scale)
			})
			line.Draw(img, img.Bounds(), image.NewUniform(previewOutline), image.Point{})
		}
	}

	label(img, fmt.Sprintf("%d/%d/%d", r.ID.Z, r.ID.X, r.ID.Y))
	return img
}

func addTriangle(z *vector.Rasterizer, t tilebucket.Triangle, scale float32) {
	z.MoveTo(float32(t[0].X)*scale, float32(t[0].Y)*scale)
	z.LineTo(float32(t[1].X)*scale, float32(t[1].Y)*scale)
	z.LineTo(float32(t[2].X)*scale, float32(t[2].Y)*scale)
	z.ClosePath()
}

// layerColor converts a style color to premultiplied RGBA.
func layerColor(l *tilebucket.StyleLayer) color.RGBA {
	a := clamp01(l.Color[3])
	return color.RGBA{
		R: uint8(clamp01(l.Color[0])*a*255 + 0.5),
		G: uint8(clamp01(l.Color[1])*a*255 + 0.5),
		B: uint8(clamp01(l.Color[2])*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func label(img *image.RGBA, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(previewLabel),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 13),
	}
	d.DrawString(s)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
