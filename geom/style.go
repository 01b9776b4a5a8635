package geom

import (
	"fmt"
	"math"
)

// Join specifies the shape of line joins.
type Join int

const (
	// JoinMiter extends both edges to their intersection, falling back to
	// a bevel when the miter limit is exceeded.
	JoinMiter Join = iota
	// JoinBevel cuts the corner with a straight edge.
	JoinBevel
	// JoinRound fills the corner with a circular arc.
	JoinRound
)

// String returns the lowercase name of the join.
func (j Join) String() string {
	switch j {
	case JoinMiter:
		return "miter"
	case JoinBevel:
		return "bevel"
	case JoinRound:
		return "round"
	}
	return fmt.Sprintf("Join(%d)", int(j))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (j *Join) UnmarshalText(text []byte) error {
	switch string(text) {
	case "miter":
		*j = JoinMiter
	case "bevel":
		*j = JoinBevel
	case "round":
		*j = JoinRound
	default:
		return fmt.Errorf("unknown join %q", text)
	}
	return nil
}

// Cap specifies the shape of line endpoints.
type Cap int

const (
	// CapButt ends the line flat at the endpoint.
	CapButt Cap = iota
	// CapSquare extends the line by half its width with a square end.
	CapSquare
	// CapRound ends the line with a semicircle.
	CapRound
)

// String returns the lowercase name of the cap.
func (c Cap) String() string {
	switch c {
	case CapButt:
		return "butt"
	case CapSquare:
		return "square"
	case CapRound:
		return "round"
	}
	return fmt.Sprintf("Cap(%d)", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cap) UnmarshalText(text []byte) error {
	switch string(text) {
	case "butt":
		*c = CapButt
	case "square":
		*c = CapSquare
	case "round":
		*c = CapRound
	default:
		return fmt.Errorf("unknown cap %q", text)
	}
	return nil
}

// Tessellation resolutions used by the non-round cap styles. A butt cap
// needs a single step (it only closes the strip), a square cap is a round
// cap with three steps stretched by the square cap scale.
const (
	buttCapResolution   = 1
	squareCapResolution = 3
)

// Style is the draw-independent part of the line configuration.
type Style struct {
	Join Join
	Cap  Cap

	// MaxJoinResolution is the number of arc steps of a round join.
	// Ignored for other join styles.
	MaxJoinResolution int

	// MaxCapResolution is the number of arc steps of a round cap.
	// Ignored for other cap styles.
	MaxCapResolution int

	// MiterLimit is the ratio of miter length to line width beyond which
	// a miter join is drawn as a bevel.
	MiterLimit float32
}

// DefaultStyle returns the default style: square caps, miter joins with a
// miter limit of 4, eight arc steps for round joins and caps.
func DefaultStyle() Style {
	return Style{
		Join:              JoinMiter,
		Cap:               CapSquare,
		MaxJoinResolution: 8,
		MaxCapResolution:  8,
		MiterLimit:        4,
	}
}

// CapResolution returns the cap tessellation step count for the style.
func (s Style) CapResolution() int {
	switch s.Cap {
	case CapButt:
		return buttCapResolution
	case CapSquare:
		return squareCapResolution
	}
	return s.MaxCapResolution
}

// CapVertices returns the cap vertex count per half (resolution × 2).
func (s Style) CapVertices() float32 {
	return float32(s.CapResolution() * 2)
}

// JoinVertices returns the join vertex count per half. Only round joins
// tessellate; miter and bevel joins use a single fan step.
func (s Style) JoinVertices() float32 {
	if s.Join == JoinRound {
		return float32(s.MaxJoinResolution * 2)
	}
	return 2
}

// MiterLimit2 returns the squared miter limit, or zero for bevel joins so
// that the bevel branch is always taken.
func (s Style) MiterLimit2() float32 {
	if s.Join == JoinBevel {
		return 0
	}
	return s.MiterLimit * s.MiterLimit
}

// CapScale returns the anisotropic scale applied to the cap arc. A square
// cap stretches its three-step arc so the outer vertices land on the
// corners of the square.
func (s Style) CapScale() [2]float32 {
	if s.Cap == CapSquare {
		return [2]float32{2, float32(2 / math.Sqrt(3))}
	}
	return [2]float32{1, 1}
}

// StripSize returns the fixed per-instance vertex count for the style.
func (s Style) StripSize() uint32 {
	return StripSize(s.CapVertices(), s.JoinVertices())
}

// Uniforms returns the uniform block for the style. Resolution and point
// count are per-draw values and left zero.
func (s Style) Uniforms() Uniforms {
	return Uniforms{
		VertCnt2:    [2]float32{s.CapVertices(), s.JoinVertices()},
		MiterLimit2: s.MiterLimit2(),
		RoundJoin:   s.Join == JoinRound,
		InsertCaps:  s.Cap != CapButt,
		CapScale:    s.CapScale(),
	}
}
