package main

import (
	"image"
	"image/draw"
	"math"

	"github.com/gogpu/lines/geom"
	"golang.org/x/image/vector"
	"honnef.co/go/curve"
)

// renderPreview rasterizes the scene on the CPU from the same per-vertex
// evaluation the vertex shader performs. Each strip is split into its
// triangles; degenerate triangles contribute no coverage.
func renderPreview(s *Scene, workers int) *image.RGBA {
	w, h := int(s.Resolution[0]), int(s.Resolution[1])
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	bg, _ := parseColor(s.Background)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	style := s.Style()
	for i := range s.Lines {
		l := &s.Lines[i]
		fg, _ := parseColor(l.Color)

		z := vector.NewRasterizer(w, h)
		z.DrawOp = draw.Over
		rasterizeLine(z, s, l, style, workers)
		z.Draw(dst, dst.Bounds(), image.NewUniform(fg), image.Point{})
	}
	return dst
}

func rasterizeLine(z *vector.Rasterizer, s *Scene, l *SceneLine, style geom.Style, workers int) {
	pts := l.Polyline(s.Tolerance)
	u := style.Uniforms()
	u.Resolution = s.Resolution
	u.PointCount = uint32(len(pts)) //nolint:gosec // scene sizes fit uint32

	src := geom.Source{
		Clamp: true,
		Get: func(i int32) geom.Vertex {
			return geom.Vertex{Position: toClip(pts[i], s.Resolution), Width: l.Width}
		},
	}
	for _, strip := range geom.Strips(&u, src, workers) {
		for j := 0; j+2 < len(strip); j++ {
			a, okA := toPixel(strip[j].Position, s.Resolution)
			b, okB := toPixel(strip[j+1].Position, s.Resolution)
			c, okC := toPixel(strip[j+2].Position, s.Resolution)
			if okA && okB && okC {
				addTriangle(z, a, b, c)
			}
		}
	}
}

// addTriangle adds a triangle with positive orientation. The rasterizer
// accumulates signed area, so mixed orientations would cancel where
// triangles of a strip overlap.
func addTriangle(z *vector.Rasterizer, a, b, c geom.Vec2) {
	if b.Sub(a).Cross(c.Sub(a)) < 0 {
		b, c = c, b
	}
	z.MoveTo(a.X, a.Y)
	z.LineTo(b.X, b.Y)
	z.LineTo(c.X, c.Y)
	z.ClosePath()
}

// toClip maps a pixel position (y down) to clip space. Points with a NaN
// coordinate become line breaks.
func toClip(p curve.Point, res [2]float32) geom.Vec4 {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return geom.Break()
	}
	return geom.Point(
		float32(2*p.X/float64(res[0])-1),
		float32(1-2*p.Y/float64(res[1])),
	)
}

// toPixel maps a homogeneous clip-space position back to pixels.
func toPixel(p geom.Vec4, res [2]float32) (geom.Vec2, bool) {
	if p.W <= 0 {
		return geom.Vec2{}, false
	}
	x := (p.X/p.W + 1) * res[0] / 2
	y := (1 - p.Y/p.W) * res[1] / 2
	if !finite(x) || !finite(y) {
		return geom.Vec2{}, false
	}
	return geom.Vec2{X: x, Y: y}, true
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
