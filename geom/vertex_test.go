package geom

import (
	"math"
	"slices"
	"testing"
)

// polyline returns a clamped source over pts with a constant width.
// Indices outside pts yield a zero (invalid) position.
func polyline(width float32, pts ...Vec4) Source {
	return Source{
		Get: func(i int32) Vertex {
			if i < 0 || int(i) >= len(pts) {
				return Vertex{Width: width}
			}
			return Vertex{Position: pts[i], Width: width, Varyings: []float32{float32(i) * 10}}
		},
		Clamp: true,
	}
}

func styleUniforms(s Style, res [2]float32, n int) *Uniforms {
	u := s.Uniforms()
	u.Resolution = res
	u.PointCount = uint32(n) //nolint:gosec // test sizes
	return &u
}

// pixels converts a w=1 clip-space output position to screen pixels
// relative to the viewport center.
func pixels(o Output, u *Uniforms) Vec2 {
	return Vec2{X: o.Position.X / o.Position.W * u.Resolution[0] / 2, Y: o.Position.Y / o.Position.W * u.Resolution[1] / 2}
}

func near(a, b, tol float32) bool {
	return abs32(a-b) <= tol
}

func finite(v Vec4) bool {
	for _, c := range []float32{v.X, v.Y, v.Z, v.W} {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}

func TestEvaluate_StraightSegmentButtCaps(t *testing.T) {
	s := DefaultStyle()
	s.Cap = CapButt
	u := styleUniforms(s, [2]float32{200, 100}, 2)
	src := polyline(10, Point(-0.5, 0), Point(0.5, 0))

	strip := Strip(0, u, src)
	if len(strip) != 10 {
		t.Fatalf("strip size = %d, want 10", len(strip))
	}
	for v, o := range strip {
		if o.Kind == KindDegenerate {
			t.Fatalf("vertex %d is degenerate", v)
		}
		p := pixels(o, u)
		if !near(abs32(p.X), 50, 1e-3) {
			t.Errorf("vertex %d: x = %v px, want ±50 (no cap geometry)", v, p.X)
		}
		wantY := float32(5)
		if o.Kind == KindHub {
			wantY = 0
		}
		if !near(abs32(p.Y), wantY, 1e-3) {
			t.Errorf("vertex %d (%v): |y| = %v px, want %v", v, o.Kind, abs32(p.Y), wantY)
		}
	}
}

func TestEvaluate_RoundJoinQuarterTurn(t *testing.T) {
	s := Style{Join: JoinRound, Cap: CapButt, MaxJoinResolution: 4, MaxCapResolution: 4, MiterLimit: 4}
	u := styleUniforms(s, [2]float32{200, 200}, 3)
	src := polyline(10, Point(-0.5, 0), Point(0, 0), Point(0, 0.5))

	vB := u.VertCnt2[1] + 3
	var angles []float64
	collect := func(instance uint32, inHalf func(v int) bool) {
		for v, o := range Strip(instance, u, src) {
			if !inHalf(v) || o.Kind != KindArc {
				continue
			}
			p := pixels(o, u)
			if r := p.Length(); !near(r, 5, 1e-3) {
				t.Errorf("instance %d vertex %d: radius %v px, want 5", instance, v, r)
			}
			angles = append(angles, math.Atan2(float64(p.Y), float64(p.X))*180/math.Pi)
		}
	}
	collect(0, func(v int) bool { return float32(v) >= vB })
	collect(1, func(v int) bool { return float32(v) < vB })

	slices.Sort(angles)
	angles = slices.CompactFunc(angles, func(a, b float64) bool { return math.Abs(a-b) < 1e-2 })
	if len(angles) != 9 {
		t.Fatalf("distinct arc angles = %v, want 9 values", angles)
	}
	if span := angles[len(angles)-1] - angles[0]; math.Abs(span-90) > 1e-2 {
		t.Errorf("arc span = %v°, want 90°", span)
	}
	for k := 1; k < len(angles); k++ {
		if step := angles[k] - angles[k-1]; math.Abs(step-11.25) > 1e-2 {
			t.Errorf("step %d = %v°, want 11.25°", k, step)
		}
	}
}

func TestEvaluate_LineBreak(t *testing.T) {
	for k := 1; k <= 5; k++ {
		pts := []Vec4{
			Point(-0.9, 0), Point(-0.6, 0.3), Point(-0.3, -0.3), Point(0, 0.3),
			Point(0.3, -0.3), Point(0.6, 0.3), Point(0.9, 0),
		}
		pts[k] = Break()
		u := styleUniforms(DefaultStyle(), [2]float32{400, 400}, len(pts))
		src := polyline(4, pts...)

		for inst := range InstanceCount(len(pts)) {
			broken := int(inst) == k-1 || int(inst) == k
			strip := Strip(inst, u, src)
			for v, o := range strip {
				if broken {
					if o.Kind != KindDegenerate {
						t.Fatalf("break at %d: instance %d vertex %d not degenerate", k, inst, v)
					}
					if o.LineCoord != (Vec2{}) {
						t.Fatalf("break at %d: instance %d vertex %d lineCoord = %v, want 0", k, inst, v, o.LineCoord)
					}
					// B is the break itself in instance k; its NaN x never compares equal.
					if int(inst) == k {
						if !Invalid(o.Position) {
							t.Fatalf("break at %d: instance %d vertex %d = %+v, want the break point", k, inst, v, o.Position)
						}
						continue
					}
					if o.Position != pts[k-1] {
						t.Fatalf("break at %d: instance %d vertex %d = %+v, want collapse onto %+v", k, inst, v, o.Position, pts[k-1])
					}
					continue
				}
				if o.Kind == KindDegenerate || !finite(o.Position) {
					t.Fatalf("break at %d: instance %d vertex %d = %+v, want drawn", k, inst, v, o)
				}
			}
		}
	}
}

func TestEvaluate_BreakAddsCaps(t *testing.T) {
	pts := []Vec4{Point(-0.6, 0), Point(-0.2, 0.2), Break(), Point(0.2, 0.2), Point(0.6, 0)}
	u := styleUniforms(DefaultStyle(), [2]float32{400, 400}, len(pts))
	src := polyline(4, pts...)

	for inst, want := range map[uint32]float32{0: -1, 3: -4} {
		if got := Evaluate(0, inst, u, src).InstanceID; got != want {
			t.Errorf("instance %d InstanceID = %v, want %v", inst, got, want)
		}
	}
}

func TestEvaluate_Hairpin(t *testing.T) {
	s := DefaultStyle()
	s.Cap = CapButt
	u := styleUniforms(s, [2]float32{200, 100}, 3)
	src := polyline(10, Point(-0.5, 0), Point(0.5, 0), Point(-0.2, 0))

	strip := Strip(1, u, src)
	for v, o := range strip {
		if !finite(o.Position) {
			t.Fatalf("vertex %d: non-finite position %+v", v, o.Position)
		}
		if math.IsNaN(float64(o.LineCoord.X)) || math.IsNaN(float64(o.LineCoord.Y)) {
			t.Fatalf("vertex %d: NaN line coordinate", v)
		}
	}
	sharp := strip[0]
	if sharp.Kind != KindSharp {
		t.Fatalf("vertex 0 kind = %v, want sharp", sharp.Kind)
	}
	if p := pixels(sharp, u); !near(p.X, 50, 1e-3) || !near(p.Y, 0, 1e-3) {
		t.Errorf("hairpin miter point = %v, want collapsed onto B (50, 0)", p)
	}
}

func TestEvaluate_MiterLimitSwitch(t *testing.T) {
	const limit = 4
	tests := []struct {
		deg   float64
		bevel bool
	}{
		{90, false},
		{150, false},
		{151, false},
		{151.1, true},
		{152, true},
		{170, true},
	}
	for _, tt := range tests {
		phi := tt.deg * math.Pi / 180
		c := Point(float32(0.5*math.Cos(phi)), float32(0.5*math.Sin(phi)))
		s := Style{Join: JoinMiter, Cap: CapButt, MaxJoinResolution: 8, MaxCapResolution: 8, MiterLimit: limit}
		u := styleUniforms(s, [2]float32{200, 200}, 3)
		src := polyline(10, Point(-0.5, 0), Point(0, 0), c)

		half := math.Cos(phi / 2)
		m2 := half * half
		if got := 1 > limit*limit*m2; got != tt.bevel {
			t.Fatalf("%v°: predicate 1 > L²|m|² = %v, want %v", tt.deg, got, tt.bevel)
		}

		o := Evaluate(0, 1, u, src)
		if o.Kind != KindSharp {
			t.Fatalf("%v°: vertex 0 kind = %v, want sharp", tt.deg, o.Kind)
		}
		want := 5 / half
		if tt.bevel {
			want = 5 * half
		}
		if got := float64(pixels(o, u).Length()); math.Abs(got-want) > 1e-2*want {
			t.Errorf("%v°: sharp vertex at %v px from B, want %v", tt.deg, got, want)
		}
	}
}

func TestEvaluate_SeamContinuity(t *testing.T) {
	pts := []Vec4{Point(-0.8, -0.5), Point(-0.3, 0.4), Point(0.1, -0.2), Point(0.6, 0.5), Point(0.7, -0.6)}
	for _, join := range []Join{JoinMiter, JoinBevel, JoinRound} {
		s := DefaultStyle()
		s.Join = join
		s.Cap = CapRound
		u := styleUniforms(s, [2]float32{200, 100}, len(pts))
		src := polyline(10, pts...)
		last := s.StripSize() - 1

		for k := range InstanceCount(len(pts)) - 1 {
			end := Evaluate(last, k, u, src)
			start := Evaluate(0, k+1, u, src)
			if end.Fan != 0 || start.Fan != 0 {
				t.Fatalf("%v: seam vertices have fan indices %v, %v, want 0", join, end.Fan, start.Fan)
			}
			if !near(end.Position.X, start.Position.X, 1e-5) || !near(end.Position.Y, start.Position.Y, 1e-5) {
				t.Errorf("%v: seam between instances %d and %d: %v != %v", join, k, k+1, end.Position, start.Position)
			}
		}
	}
}

func TestEvaluate_ArcPointsOnUnitCircle(t *testing.T) {
	pts := []Vec4{Point(-0.8, -0.5), Point(-0.3, 0.4), Point(0.1, -0.2), Point(0.6, 0.5)}
	s := Style{Join: JoinRound, Cap: CapRound, MaxJoinResolution: 6, MaxCapResolution: 5, MiterLimit: 4}
	u := styleUniforms(s, [2]float32{300, 300}, len(pts))
	src := polyline(8, pts...)

	arcs := 0
	for i, strip := range Strips(u, src, 2) {
		for v, o := range strip {
			switch o.Kind {
			case KindArc:
				arcs++
				if l := o.Local.Length(); !near(l, 1, 1e-5) {
					t.Errorf("instance %d vertex %d: |xy| = %v, want 1", i, v, l)
				}
			case KindHub:
				if o.Local != (Vec2{}) {
					t.Errorf("instance %d vertex %d: hub offset %v, want 0", i, v, o.Local)
				}
			}
		}
	}
	if arcs == 0 {
		t.Fatal("no arc vertices evaluated")
	}
}

func TestEvaluate_BevelHubNudge(t *testing.T) {
	s := Style{Join: JoinBevel, Cap: CapButt, MaxJoinResolution: 8, MaxCapResolution: 8, MiterLimit: 4}
	u := styleUniforms(s, [2]float32{200, 200}, 3)
	src := polyline(10, Point(-0.5, 0), Point(0, 0), Point(0, 0.5))

	// Only the B half joins two segments; the C half ends the line.
	vB := int(u.VertCnt2[1]) + 3
	for v, o := range Strip(1, u, src) {
		if v >= vB || o.Kind != KindHub {
			continue
		}
		want := float32(-1 + math.Sqrt(0.5)) // cosB = 0
		if !near(o.Local.Y, want, 1e-5) {
			t.Errorf("hub offset = %v, want %v", o.Local.Y, want)
		}
	}
}

func TestEvaluate_VaryingsLinear(t *testing.T) {
	pts := []Vec4{Point(-0.6, -0.2), Point(0, 0.3), Point(0.5, -0.4)}
	s := Style{Join: JoinRound, Cap: CapSquare, MaxJoinResolution: 4, MaxCapResolution: 4, MiterLimit: 4}
	u := styleUniforms(s, [2]float32{240, 160}, len(pts))
	src := polyline(12, pts...)

	for inst := range InstanceCount(len(pts)) {
		b := pts[inst].XY().Mul(Vec2{X: u.Resolution[0], Y: u.Resolution[1]})
		c := pts[inst+1].XY().Mul(Vec2{X: u.Resolution[0], Y: u.Resolution[1]})
		bc := c.Sub(b)
		for v, o := range Strip(inst, u, src) {
			p := o.Position.XY().Mul(Vec2{X: u.Resolution[0], Y: u.Resolution[1]})
			tc := clamp32(p.Sub(b).Dot(bc)/bc.Dot(bc), 0, 1)
			want := mix32(float32(inst)*10, float32(inst+1)*10, tc)
			if len(o.Varyings) != 1 || !near(o.Varyings[0], want, 1e-3) {
				t.Errorf("instance %d vertex %d: varying = %v, want %v", inst, v, o.Varyings, want)
			}
		}
	}
}

func TestEvaluate_RoundCapLineCoord(t *testing.T) {
	s := Style{Join: JoinMiter, Cap: CapRound, MaxJoinResolution: 8, MaxCapResolution: 4, MiterLimit: 4}
	u := styleUniforms(s, [2]float32{200, 100}, 2)
	src := polyline(10, Point(-0.5, 0), Point(0.5, 0))

	var minX, maxX float32
	for v, o := range Strip(0, u, src) {
		p := pixels(o, u)
		if p.X < -50-1e-3 && o.LineCoord.X > 0 {
			t.Errorf("vertex %d: start cap line coordinate x = %v, want <= 0", v, o.LineCoord.X)
		}
		if p.X > 50+1e-3 && o.LineCoord.X < 0 {
			t.Errorf("vertex %d: end cap line coordinate x = %v, want >= 0", v, o.LineCoord.X)
		}
		minX = min(minX, o.LineCoord.X)
		maxX = max(maxX, o.LineCoord.X)
		if r := p.Sub(Vec2{X: select32(-50, 50, p.X > 0)}).Length(); o.Kind == KindArc && !near(r, 5, 1e-3) {
			t.Errorf("vertex %d: cap radius %v px, want 5", v, r)
		}
	}
	if !near(minX, -1, 1e-5) || !near(maxX, 1, 1e-5) {
		t.Errorf("cap line coordinate x range = [%v, %v], want [-1, 1]", minX, maxX)
	}
}

func TestEvaluate_SquareCapCorners(t *testing.T) {
	u := styleUniforms(DefaultStyle(), [2]float32{200, 100}, 2)
	src := polyline(10, Point(-0.5, 0), Point(0.5, 0))

	corners := map[[2]int]bool{}
	for v, o := range Strip(0, u, src) {
		p := pixels(o, u)
		if abs32(p.X) > 55+1e-3 || abs32(p.Y) > 5+1e-3 {
			t.Errorf("vertex %d at %v outside the square cap box", v, p)
		}
		if near(abs32(p.X), 55, 1e-3) && near(abs32(p.Y), 5, 1e-3) {
			corners[[2]int{int(sign32(p.X)), int(sign32(p.Y))}] = true
		}
	}
	if len(corners) != 4 {
		t.Errorf("reached corners %v, want all 4", corners)
	}
}

func TestEvaluate_DepthCull(t *testing.T) {
	b := Vec4{X: -0.5, Z: 2, W: 1}
	c := Vec4{X: 0.5, Z: -3, W: 1}
	u := styleUniforms(DefaultStyle(), [2]float32{200, 100}, 2)
	src := polyline(10, b, c)

	for v, o := range Strip(0, u, src) {
		if o.Kind != KindDegenerate || o.Position != b {
			t.Fatalf("vertex %d = %+v, want degenerate at B", v, o)
		}
	}
}

func TestEvaluate_DepthCullOneEndpoint(t *testing.T) {
	u := styleUniforms(DefaultStyle(), [2]float32{200, 100}, 2)
	tests := []struct {
		name string
		b, c Vec4
		cull bool
	}{
		{"both inside", Vec4{X: -0.5, Z: 0.5, W: 1}, Vec4{X: 0.5, Z: -0.9, W: 1}, false},
		{"C beyond far", Vec4{X: -0.5, Z: 0.5, W: 1}, Vec4{X: 0.5, Z: 1.5, W: 1}, true},
		{"B beyond near", Vec4{X: -0.5, Z: -1.5, W: 1}, Vec4{X: 0.5, Z: 0.5, W: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			culled := true
			for _, o := range Strip(0, u, polyline(10, tt.b, tt.c)) {
				if o.Kind != KindDegenerate || o.Position != tt.b {
					culled = false
				}
			}
			if culled != tt.cull {
				t.Errorf("culled = %v, want %v", culled, tt.cull)
			}
		})
	}
}

func TestEvaluate_HomogeneousScale(t *testing.T) {
	pts := []Vec4{Point(-0.5, -0.1), Point(0.1, 0.3), Point(0.4, -0.2)}
	scaled := make([]Vec4, len(pts))
	for i, p := range pts {
		scaled[i] = p.Scale(2)
	}
	u := styleUniforms(DefaultStyle(), [2]float32{200, 100}, len(pts))
	a, b := polyline(6, pts...), polyline(6, scaled...)

	for inst := range InstanceCount(len(pts)) {
		sa, sb := Strip(inst, u, a), Strip(inst, u, b)
		for v := range sa {
			want := sa[v].Position.Scale(2)
			got := sb[v].Position
			if !near(got.X, want.X, 1e-5) || !near(got.Y, want.Y, 1e-5) || !near(got.W, want.W, 1e-6) {
				t.Errorf("instance %d vertex %d: %v, want %v", inst, v, got, want)
			}
		}
	}
}

func TestEvaluate_IndexClamping(t *testing.T) {
	pts := []Vec4{Point(-0.5, 0), Point(0, 0.2), Point(0.5, 0)}
	for _, clamp := range []bool{true, false} {
		var seen []int32
		src := Source{
			Get: func(i int32) Vertex {
				seen = append(seen, i)
				if i < 0 || int(i) >= len(pts) {
					return Vertex{}
				}
				return Vertex{Position: pts[i], Width: 4}
			},
			Clamp: clamp,
		}
		u := styleUniforms(DefaultStyle(), [2]float32{200, 100}, len(pts))
		Evaluate(0, 0, u, src)
		Evaluate(0, 1, u, src)

		lo, hi := slices.Min(seen), slices.Max(seen)
		if clamp && (lo != 0 || hi != 2) {
			t.Errorf("clamped lookups span [%d, %d], want [0, 2]", lo, hi)
		}
		if !clamp && (lo != -1 || hi != 3) {
			t.Errorf("raw lookups span [%d, %d], want [-1, 3]", lo, hi)
		}
	}
}

func TestEvaluate_InstanceIDAndStripCoord(t *testing.T) {
	pts := []Vec4{Point(-0.5, 0), Point(0, 0.2), Point(0.3, 0), Point(0.5, 0.1)}
	tests := []struct {
		cap  Cap
		inst uint32
		want float32
	}{
		{CapRound, 0, -1},
		{CapRound, 1, 1},
		{CapRound, 2, -3},
		{CapButt, 0, 0},
		{CapButt, 2, 2},
	}
	for _, tt := range tests {
		s := DefaultStyle()
		s.Cap = tt.cap
		u := styleUniforms(s, [2]float32{200, 100}, len(pts))
		for v, o := range Strip(tt.inst, u, polyline(4, pts...)) {
			if o.InstanceID != tt.want {
				t.Errorf("%v instance %d: InstanceID = %v, want %v", tt.cap, tt.inst, o.InstanceID, tt.want)
			}
			want := Vec2{X: float32(v / 2), Y: float32(v % 2)}
			if o.TriStripCoord != want {
				t.Errorf("vertex %d: TriStripCoord = %v, want %v", v, o.TriStripCoord, want)
			}
		}
	}
}

func TestFanIndex(t *testing.T) {
	tests := []struct {
		index, vTotal, dirB float32
		mirror              bool
		want                float32
	}{
		{0, 10, 1, false, 0},
		{0, 10, -1, false, 0},
		{3, 10, 1, false, 3},
		{3, 10, -1, false, 2},
		{9, 10, 1, true, 0},
		{9, 10, -1, true, 0},
		{6, 10, 1, true, 3},
		{6, 10, -1, true, 2},
	}
	for _, tt := range tests {
		if got := fanIndex(tt.index, tt.vTotal, tt.dirB, tt.mirror); got != tt.want {
			t.Errorf("fanIndex(%v, %v, %v, %v) = %v, want %v", tt.index, tt.vTotal, tt.dirB, tt.mirror, got, tt.want)
		}
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		p    Vec4
		want bool
	}{
		{Point(0, 0), false},
		{Vec4{X: 1, Y: 1, Z: 0, W: 0}, true},
		{Break(), true},
		{Vec4{X: float32(math.NaN()), W: 1}, true},
		{Vec4{X: 0, Y: float32(math.NaN()), W: 1}, false},
	}
	for _, tt := range tests {
		if got := Invalid(tt.p); got != tt.want {
			t.Errorf("Invalid(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
