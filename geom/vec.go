package geom

import "math"

// Vec2 is a 2D vector in single precision, matching WGSL vec2f.
type Vec2 struct {
	X, Y float32
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Scale returns the vector scaled by s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Mul returns the component-wise product of two vectors.
func (v Vec2) Mul(w Vec2) Vec2 {
	return Vec2{X: v.X * w.X, Y: v.Y * w.Y}
}

// Neg returns the negated vector.
func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

// Dot returns the dot product of two vectors.
func (v Vec2) Dot(w Vec2) float32 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the 2D cross product (z-component of 3D cross).
func (v Vec2) Cross(w Vec2) float32 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the length of the vector.
func (v Vec2) Length() float32 {
	return sqrt32(v.X*v.X + v.Y*v.Y)
}

// Perp returns the perpendicular vector (rotated 90 degrees counter-clockwise).
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// unit returns v divided by its length and the length itself.
// A zero vector is returned unchanged, like the shader does.
func (v Vec2) unit() (Vec2, float32) {
	l := v.Length()
	if l > 0 {
		return v.Scale(1 / l), l
	}
	return v, l
}

// Vec4 is a homogeneous clip-space point, matching WGSL vec4f.
type Vec4 struct {
	X, Y, Z, W float32
}

// XY returns the first two components.
func (v Vec4) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Add returns the component-wise sum of two points.
func (v Vec4) Add(w Vec4) Vec4 {
	return Vec4{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z, W: v.W + w.W}
}

// Sub returns the component-wise difference of two points.
func (v Vec4) Sub(w Vec4) Vec4 {
	return Vec4{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z, W: v.W - w.W}
}

// Scale returns the point with every component multiplied by s.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}

// Point returns a clip-space point with z = 0 and w = 1.
func Point(x, y float32) Vec4 {
	return Vec4{X: x, Y: y, W: 1}
}

// Break returns the line-break sentinel. Any point with w == 0 works;
// this one additionally carries a NaN x so it is invalid under both tests.
func Break() Vec4 {
	return Vec4{X: float32(math.NaN())}
}

// Invalid reports whether p marks a line break: w == 0 or x is NaN.
func Invalid(p Vec4) bool {
	return p.W == 0 || p.X != p.X
}

func sqrt32(x float32) float32 { return float32(math.Sqrt(float64(x))) }
func acos32(x float32) float32 { return float32(math.Acos(float64(x))) }
func cos32(x float32) float32  { return float32(math.Cos(float64(x))) }
func sin32(x float32) float32  { return float32(math.Sin(float64(x))) }

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp32(x, lo, hi float32) float32 {
	return min(max(x, lo), hi)
}

func sign32(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func mix32(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// select32 mirrors WGSL select(f, t, cond).
func select32(f, t float32, cond bool) float32 {
	if cond {
		return t
	}
	return f
}
