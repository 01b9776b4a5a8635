package main

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/lines/geom"
	"golang.org/x/image/colornames"
	"honnef.co/go/curve"
)

// Scene is a set of polylines drawn with one style, read from TOML:
//
//	resolution = [800, 600]
//	join = "round"
//	cap = "round"
//
//	[[line]]
//	width = 24
//	color = "crimson"
//	points = [[100, 100], [300, 400], [nan, nan], [500, 100], [700, 400]]
//
//	[[line]]
//	width = 8
//	cubics = [[[100, 500], [300, 300], [500, 700], [700, 500]]]
type Scene struct {
	Resolution     [2]float32 `toml:"resolution"`
	Background     string     `toml:"background"`
	Join           geom.Join  `toml:"join"`
	Cap            geom.Cap   `toml:"cap"`
	JoinResolution int        `toml:"join_resolution"`
	CapResolution  int        `toml:"cap_resolution"`
	MiterLimit     float32    `toml:"miter_limit"`

	// Tolerance is the maximum distance in pixels between a cubic and its
	// flattened polyline.
	Tolerance float64 `toml:"tolerance"`

	Lines []SceneLine `toml:"line"`
}

// SceneLine is one polyline. Points are in pixels with y down; a point
// with a NaN coordinate is a line break. Cubics are flattened and
// appended after Points, each one continuing from the previous end.
type SceneLine struct {
	Width  float32         `toml:"width"`
	Color  string          `toml:"color"`
	Points [][2]float64    `toml:"points"`
	Cubics [][4][2]float64 `toml:"cubics"`
}

func defaultScene() Scene {
	style := geom.DefaultStyle()
	return Scene{
		Resolution:     [2]float32{800, 600},
		Background:     "white",
		Join:           style.Join,
		Cap:            style.Cap,
		JoinResolution: style.MaxJoinResolution,
		CapResolution:  style.MaxCapResolution,
		MiterLimit:     style.MiterLimit,
		Tolerance:      0.25,
	}
}

// loadScene reads a scene file. Keys missing from the file keep their
// default values.
func loadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScene(string(data))
}

func parseScene(data string) (*Scene, error) {
	s := defaultScene()
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown scene keys: %v", undecoded)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scene) validate() error {
	if s.Resolution[0] < 1 || s.Resolution[1] < 1 {
		return fmt.Errorf("invalid resolution %v", s.Resolution)
	}
	if s.Tolerance <= 0 {
		return fmt.Errorf("invalid tolerance %v", s.Tolerance)
	}
	if _, err := parseColor(s.Background); err != nil {
		return err
	}
	for i, l := range s.Lines {
		if l.Width <= 0 {
			return fmt.Errorf("line %d: width must be positive", i)
		}
		if _, err := parseColor(l.Color); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

// Style returns the line style of the scene.
func (s *Scene) Style() geom.Style {
	return geom.Style{
		Join:              s.Join,
		Cap:               s.Cap,
		MaxJoinResolution: s.JoinResolution,
		MaxCapResolution:  s.CapResolution,
		MiterLimit:        s.MiterLimit,
	}
}

// Polyline returns the flattened points of l in pixels.
func (l *SceneLine) Polyline(tolerance float64) []curve.Point {
	pts := make([]curve.Point, 0, len(l.Points))
	for _, p := range l.Points {
		pts = append(pts, curve.Point{X: p[0], Y: p[1]})
	}
	for _, c := range l.Cubics {
		samples := flattenCubic(
			curve.Vec(c[0][0], c[0][1]),
			curve.Vec(c[1][0], c[1][1]),
			curve.Vec(c[2][0], c[2][1]),
			curve.Vec(c[3][0], c[3][1]),
			tolerance,
		)
		if len(pts) > 0 && pts[len(pts)-1] == samples[0] {
			samples = samples[1:]
		}
		pts = append(pts, samples...)
	}
	return pts
}

// Degree term sqrt(n(n-1)/8) of Wang's formula for cubics.
const wangCubicTerm = 0.86602540378

// flattenCubic samples a cubic at uniform parameter steps. The step count
// follows Wang's formula, which bounds the distance between the curve and
// the chords by tolerance.
func flattenCubic(p0, p1, p2, p3 curve.Vec2, tolerance float64) []curve.Point {
	v1 := p1.Mul(-2).Add(p0).Add(p2)
	v2 := p2.Mul(-2).Add(p1).Add(p3)
	m := max(v1.Hypot(), v2.Hypot())
	n := max(1, int(math.Ceil(wangCubicTerm*math.Sqrt(m/tolerance))))

	cb := curve.CubicBez{P0: curve.Point(p0), P1: curve.Point(p1), P2: curve.Point(p2), P3: curve.Point(p3)}
	out := make([]curve.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, cb.Eval(float64(i)/float64(n)))
	}
	return out
}

// parseColor looks up an SVG color name. An empty name is black.
func parseColor(name string) (color.RGBA, error) {
	if name == "" {
		return colornames.Black, nil
	}
	c, ok := colornames.Map[name]
	if !ok {
		return color.RGBA{}, fmt.Errorf("unknown color %q", name)
	}
	return c, nil
}
