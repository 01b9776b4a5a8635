package geom

import "math"

// collinearTolerance is the |sin| below which two segments are treated as
// parallel and the turn direction falls back to the strip half.
const collinearTolerance = 1e-4

// Vertex is the record returned by an Accessor for one polyline point.
type Vertex struct {
	// Position is the clip-space position. w == 0 or a NaN x marks a
	// line break.
	Position Vec4

	// Width is the line width at this point. One unit of width offsets the
	// edge by half a pixel from the center line, so Width is the full line
	// width in pixels. It must be positive.
	Width float32

	// Varyings are the remaining fields of the record flattened into
	// scalars, in declaration order. They are interpolated along the
	// segment.
	Varyings []float32
}

// Accessor returns the vertex record for a point index. Depending on
// Source.Clamp it receives indices clamped to [0, N) or raw indices one
// before the first and up to two past the last point.
type Accessor func(index int32) Vertex

// Source is the point data seen by the geometry generator.
type Source struct {
	Get Accessor

	// Clamp clamps the previous/next lookups to the valid index range and
	// treats out-of-range neighbours as line ends.
	Clamp bool
}

// Kind classifies an output vertex by the branch that produced it.
type Kind int

const (
	// KindDegenerate is emitted when the instance draws nothing:
	// an invalid segment endpoint or a depth-culled segment.
	KindDegenerate Kind = iota
	// KindInteriorMiter is the inner corner of a join.
	KindInteriorMiter
	// KindArc is a point on a round join or cap arc.
	KindArc
	// KindSharp is the outer point of a miter or bevel join.
	KindSharp
	// KindHub is a center-line vertex of the join fan.
	KindHub
)

// Output is the result of evaluating one strip vertex.
type Output struct {
	// Position is the clip-space position.
	Position Vec4

	// LineCoord is the signed-distance input of the fragment stage.
	// Y spans [-1, 1] across the line; X is non-zero only in caps.
	LineCoord Vec2

	// Varyings are the interpolated user varyings.
	Varyings []float32

	// InstanceID is the instance index, or -index-1 for instances with a cap.
	InstanceID float32

	// TriStripCoord is (pair index, top/bottom) within the strip.
	TriStripCoord Vec2

	// Kind is the branch that produced the vertex, Fan the local fan index
	// and Local the offset in the join's basis before scaling by width.
	// They are diagnostics not present in the shader output.
	Kind  Kind
	Fan   float32
	Local Vec2
}

// window is the four-point neighbourhood of a strip half, relabelled so
// that b is always the endpoint the half is attached to.
type window struct {
	a, b, c, d         Vec4 // pixel space
	aInvalid, dInvalid bool
}

// roles swaps the segment ends and their neighbours for the mirrored half.
func (w window) roles(mirror bool) window {
	if !mirror {
		return w
	}
	return window{
		a: w.d, b: w.c, c: w.b, d: w.a,
		aInvalid: w.dInvalid,
		dInvalid: w.aInvalid,
	}
}

// Evaluate computes one vertex of the triangle strip of one instance.
// Instance i draws the segment from point i to point i+1 together with
// half of the join or cap at each end. Evaluate is a pure function of its
// arguments; it can be called for any vertex in any order.
func Evaluate(vertexIndex, instanceIndex uint32, u *Uniforms, src Source) Output { //nolint:funlen,gocyclo // mirrors the single branch structure of the vertex shader
	var out Output

	n := int32(u.PointCount) //nolint:gosec // point counts fit int32
	aIdx := int32(instanceIndex) - 1
	bIdx := int32(instanceIndex)
	cIdx := bIdx + 1
	dIdx := bIdx + 2

	var vertexA, vertexB, vertexC, vertexD Vertex
	if src.Clamp {
		vertexA = src.Get(min(max(aIdx, 0), n-1))
		vertexB = src.Get(bIdx)
		vertexC = src.Get(cIdx)
		vertexD = src.Get(min(max(dIdx, 0), n-1))
	} else {
		vertexA = src.Get(aIdx)
		vertexB = src.Get(bIdx)
		vertexC = src.Get(cIdx)
		vertexD = src.Get(dIdx)
	}

	pA, pB, pC, pD := vertexA.Position, vertexB.Position, vertexC.Position, vertexD.Position

	aInvalid := Invalid(pA) || (src.Clamp && aIdx < 0)
	dInvalid := Invalid(pD) || (src.Clamp && dIdx >= n)

	out.Position = pB
	if Invalid(pB) || Invalid(pC) {
		return out
	}

	capRes, joinRes := u.VertCnt2[0], u.VertCnt2[1]
	resB := select32(joinRes, capRes, aInvalid && u.InsertCaps)
	resC := select32(joinRes, capRes, dInvalid && u.InsertCaps)
	vB := resB + 3
	vC := resC + 3
	vTotal := vB + vC

	index := float32(vertexIndex)
	mirror := index >= vB

	pw := select32(pB.W, pC.W, mirror)

	wA := select32(pA.W, pB.W, aInvalid)
	wD := select32(pD.W, pC.W, dInvalid)
	res := Vec2{X: u.Resolution[0], Y: u.Resolution[1]}
	w := window{
		a:        toPixels(pA, res, wA),
		b:        toPixels(pB, res, pB.W),
		c:        toPixels(pC, res, pC.W),
		d:        toPixels(pD, res, wD),
		aInvalid: aInvalid,
		dInvalid: dInvalid,
	}

	if max(abs32(w.b.Z), abs32(w.c.Z)) > 1 {
		return out
	}

	isStartCap := aInvalid && u.InsertCaps
	isEndCap := dInvalid && u.InsertCaps

	w = w.roles(mirror)

	isCap := w.aInvalid && u.InsertCaps
	if w.aInvalid {
		if u.InsertCaps {
			w.a = w.c
		} else {
			w.a = w.b.Scale(2).Sub(w.c)
		}
	}
	if w.dInvalid {
		w.d = w.c.Scale(2).Sub(w.b)
	}

	tBC, lBC := w.c.XY().Sub(w.b.XY()).unit()
	nBC := tBC.Perp()
	tAB, lAB := w.b.XY().Sub(w.a.XY()).unit()
	nAB := tAB.Perp()

	cosB := clamp32(tAB.Dot(tBC), -1, 1)

	mirrorSign := select32(1, -1, mirror)
	dirB := -tBC.Dot(nAB)
	bCollinear := abs32(dirB) < collinearTolerance
	bIsHairpin := bCollinear && cosB < 0
	dirB = select32(sign32(dirB), -mirrorSign, bCollinear)

	miter := nAB.Add(nBC).Scale(0.5 * dirB)
	if bIsHairpin {
		miter = tBC.Neg()
	}

	fanRes := select32(resB, resC, mirror)
	i := fanIndex(index, vTotal, dirB, mirror)

	xBasis := tBC
	yBasis := nBC.Scale(dirB)
	var xy Vec2
	var lineCoord Vec2
	lineCoord.Y = dirB * mirrorSign

	width := select32(vertexB.Width, vertexC.Width, mirror)
	roundOrCap := u.RoundJoin || isCap

	if i == fanRes+1 {
		out.Kind = KindInteriorMiter
		m := select32(tAB.Cross(tBC)/(1+cosB), 0, cosB <= -0.9999)
		xy = Vec2{X: min(abs32(m), min(lBC, lAB)/width), Y: -1}
		lineCoord.Y = -lineCoord.Y
	} else {
		m2 := miter.Dot(miter)
		lm := sqrt32(m2)
		if lm > 0 {
			yBasis = miter.Scale(1 / lm)
			xBasis = Vec2{X: yBasis.Y, Y: -yBasis.X}.Scale(dirB)
		}
		isBevel := 1 > u.MiterLimit2*m2

		if mod32(i, 2) == 0 {
			if roundOrCap || i != 0 {
				out.Kind = KindArc
				t := clamp32(i, 0, fanRes) / fanRes
				capMult := select32(1, 2, isCap)
				theta := -0.5 * (acos32(cosB)*t - math.Pi) * capMult
				xy = Vec2{X: cos32(theta), Y: sin32(theta)}

				if isCap {
					if xy.Y > 0.001 {
						xy = xy.Mul(Vec2{X: u.CapScale[0], Y: u.CapScale[1]})
					}
					prev := lineCoord.Y
					lineCoord.X = select32(-xy.Y, xy.Y, mirror)
					lineCoord.Y = xy.X * prev
				}
			} else {
				out.Kind = KindSharp
				yBasis = miter
				if bIsHairpin {
					yBasis = Vec2{}
				}
				xy.Y = select32(1/m2, 1, isBevel)
			}
		} else {
			out.Kind = KindHub
			lineCoord.Y = 0
			if isBevel && !roundOrCap {
				xy.Y = -1 + sqrt32((1+cosB)*0.5)
			}
		}
	}

	dP := xBasis.Scale(xy.X).Add(yBasis.Scale(xy.Y))
	dx := dP.Dot(tBC) * mirrorSign

	pos := w.b
	pos.X += width * dP.X
	pos.Y += width * dP.Y
	pos.X /= res.X
	pos.Y /= res.Y
	pos = pos.Scale(pw)

	useC := select32(0, 1, mirror) + dx*(width/lBC)
	if len(vertexB.Varyings) > 0 {
		t := clamp32(useC, 0, 1)
		out.Varyings = make([]float32, len(vertexB.Varyings))
		for k, vb := range vertexB.Varyings {
			var vc float32
			if k < len(vertexC.Varyings) {
				vc = vertexC.Varyings[k]
			}
			out.Varyings[k] = mix32(vb, vc, t)
		}
	}

	out.Position = pos
	out.LineCoord = lineCoord
	out.InstanceID = select32(float32(instanceIndex), -float32(instanceIndex)-1, isStartCap || isEndCap)
	out.TriStripCoord = Vec2{X: float32(vertexIndex / 2), Y: float32(vertexIndex % 2)}
	out.Fan = i
	out.Local = xy
	return out
}

// fanIndex folds a strip vertex index into the local fan index of its
// half. The mirrored half counts back from the end of the strip and is
// shifted by one so the two fans meet without a duplicated vertex. A
// right turn starts one slot early to keep the winding consistent. Each
// half counts from its own end of the strip, so halves of different
// resolutions need no further alignment. Slots that land below zero
// collapse onto slot zero as zero-area triangles.
func fanIndex(index, vTotal, dirB float32, mirror bool) float32 {
	i := select32(index, vTotal-index, mirror)
	i += select32(0, -1, dirB < 0)
	i -= select32(0, 1, mirror)
	return max(0, i)
}

// toPixels divides xyz by w and scales xy by the resolution.
func toPixels(p Vec4, res Vec2, w float32) Vec4 {
	return Vec4{X: p.X * res.X / w, Y: p.Y * res.Y / w, Z: p.Z / w, W: 1}
}

// mod32 mirrors WGSL % on floats (truncated remainder).
func mod32(x, y float32) float32 {
	return float32(math.Mod(float64(x), float64(y)))
}
