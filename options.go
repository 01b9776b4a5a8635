package lines

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/lines/geom"
	"github.com/gogpu/lines/internal/wgsl"
	"github.com/gogpu/wgpu/hal"
)

// Join and cap styles.
type (
	Join = geom.Join
	Cap  = geom.Cap
)

const (
	JoinMiter = geom.JoinMiter
	JoinBevel = geom.JoinBevel
	JoinRound = geom.JoinRound

	CapButt   = geom.CapButt
	CapSquare = geom.CapSquare
	CapRound  = geom.CapRound
)

// Field and VertexLayout describe the record returned by the vertex
// accessor when it is given explicitly instead of being reflected.
type (
	Field        = wgsl.Field
	VertexLayout = wgsl.VertexLayout
)

// NewLayout builds an explicit vertex layout. position and width name the
// mandatory fields; every other field becomes a varying.
func NewLayout(name string, fields []Field, position, width string) (*VertexLayout, error) {
	return wgsl.NewLayout(name, fields, position, width)
}

// Defaults applied by NewOptions, and by New to zero fields.
const (
	DefaultVertexFunction    = "getVertex"
	DefaultPositionField     = "position"
	DefaultWidthField        = "width"
	DefaultMaxJoinResolution = 8
	DefaultMaxCapResolution  = 8
	DefaultMiterLimit        = 4
)

// Options configures a Renderer. Build it with NewOptions; a zero Options
// draws butt caps, which is not the default style.
type Options struct {
	// VertexSource declares the vertex accessor, its record struct and
	// the bindings it reads from (groups 1 and up). The accessor takes a
	// u32 index, or an i32 index when NoClampIndices is set.
	VertexSource string

	// FragmentSource declares
	//	fn getColor(lineCoord: vec2f, <varyings in declaration order>) -> vec4f
	// If it mentions instanceID, getColor also receives
	// instanceID: f32 and triStripCoord: vec2f after the varyings.
	FragmentSource string

	Join Join
	Cap  Cap

	// MaxJoinResolution and MaxCapResolution are the round join and
	// round cap arc steps. Per-draw overrides are clamped to them.
	MaxJoinResolution int
	MaxCapResolution  int

	// MiterLimit is the miter length to width ratio beyond which a miter
	// join turns into a bevel.
	MiterLimit float32

	VertexFunction string
	PositionField  string
	WidthField     string

	// Layout replaces the reflection of VertexSource.
	Layout *VertexLayout

	// NoClampIndices passes raw neighbour indices (-1 and N) to the
	// accessor. Line ends must then be marked by the accessor returning
	// an invalid position.
	NoClampIndices bool

	// ColorTargets are the fragment outputs. At least one is required.
	ColorTargets []gputypes.ColorTargetState

	DepthStencil *hal.DepthStencilState
	Multisample  gputypes.MultisampleState

	// Topology overrides the triangle strip topology. The geometry is
	// only correct as a strip.
	Topology  *gputypes.PrimitiveTopology
	CullMode  gputypes.CullMode
	FrontFace gputypes.FrontFace

	// BindGroups are the layouts of the user bind groups 1..n read by
	// VertexSource and FragmentSource.
	BindGroups [][]gputypes.BindGroupLayoutEntry

	// SPIRV compiles the programs with naga and creates the shader
	// modules from SPIR-V instead of WGSL.
	SPIRV bool

	// Label prefixes the labels of the created GPU objects.
	Label string
}

// Option configures Options.
//
// Example:
//
//	opts := lines.NewOptions(vertexSrc, fragmentSrc, targets,
//	    lines.WithJoin(lines.JoinRound),
//	    lines.WithCap(lines.CapRound),
//	)
type Option func(*Options)

// NewOptions returns options with the default style (miter joins, square
// caps, miter limit 4, eight arc steps) and clamped indices.
func NewOptions(vertexSource, fragmentSource string, targets []gputypes.ColorTargetState, opts ...Option) Options {
	o := Options{
		VertexSource:      vertexSource,
		FragmentSource:    fragmentSource,
		Join:              JoinMiter,
		Cap:               CapSquare,
		MaxJoinResolution: DefaultMaxJoinResolution,
		MaxCapResolution:  DefaultMaxCapResolution,
		MiterLimit:        DefaultMiterLimit,
		VertexFunction:    DefaultVertexFunction,
		PositionField:     DefaultPositionField,
		WidthField:        DefaultWidthField,
		ColorTargets:      targets,
		CullMode:          gputypes.CullModeNone,
		Label:             "lines",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithJoin sets the join style.
func WithJoin(j Join) Option {
	return func(o *Options) { o.Join = j }
}

// WithCap sets the cap style.
func WithCap(c Cap) Option {
	return func(o *Options) { o.Cap = c }
}

// WithMaxJoinResolution sets the number of round join arc steps.
func WithMaxJoinResolution(n int) Option {
	return func(o *Options) { o.MaxJoinResolution = n }
}

// WithMaxCapResolution sets the number of round cap arc steps.
func WithMaxCapResolution(n int) Option {
	return func(o *Options) { o.MaxCapResolution = n }
}

// WithMiterLimit sets the miter limit.
func WithMiterLimit(limit float32) Option {
	return func(o *Options) { o.MiterLimit = limit }
}

// WithVertexFunction sets the name of the vertex accessor.
func WithVertexFunction(name string) Option {
	return func(o *Options) { o.VertexFunction = name }
}

// WithFields sets the names of the position and width fields.
func WithFields(position, width string) Option {
	return func(o *Options) {
		o.PositionField = position
		o.WidthField = width
	}
}

// WithLayout describes the vertex record explicitly.
func WithLayout(l *VertexLayout) Option {
	return func(o *Options) { o.Layout = l }
}

// WithoutIndexClamping passes raw neighbour indices to the accessor.
func WithoutIndexClamping() Option {
	return func(o *Options) { o.NoClampIndices = true }
}

// WithDepthStencil enables depth testing.
func WithDepthStencil(ds *hal.DepthStencilState) Option {
	return func(o *Options) { o.DepthStencil = ds }
}

// WithMultisample sets the multisample state.
func WithMultisample(ms gputypes.MultisampleState) Option {
	return func(o *Options) { o.Multisample = ms }
}

// WithCullMode sets face culling.
func WithCullMode(mode gputypes.CullMode) Option {
	return func(o *Options) { o.CullMode = mode }
}

// WithTopology overrides the primitive topology.
func WithTopology(t gputypes.PrimitiveTopology) Option {
	return func(o *Options) { o.Topology = &t }
}

// WithBindGroups declares the user bind group layouts, starting at group 1.
func WithBindGroups(groups ...[]gputypes.BindGroupLayoutEntry) Option {
	return func(o *Options) { o.BindGroups = groups }
}

// WithSPIRV compiles the generated programs to SPIR-V with naga.
func WithSPIRV() Option {
	return func(o *Options) { o.SPIRV = true }
}

// WithLabel sets the label prefix of the created GPU objects.
func WithLabel(label string) Option {
	return func(o *Options) { o.Label = label }
}

// withDefaults fills zero names and resolutions.
func (o Options) withDefaults() Options {
	if o.VertexFunction == "" {
		o.VertexFunction = DefaultVertexFunction
	}
	if o.PositionField == "" {
		o.PositionField = DefaultPositionField
	}
	if o.WidthField == "" {
		o.WidthField = DefaultWidthField
	}
	if o.MaxJoinResolution <= 0 {
		o.MaxJoinResolution = DefaultMaxJoinResolution
	}
	if o.MaxCapResolution <= 0 {
		o.MaxCapResolution = DefaultMaxCapResolution
	}
	if o.MiterLimit <= 0 {
		o.MiterLimit = DefaultMiterLimit
	}
	if o.Multisample.Count == 0 {
		o.Multisample.Count = 1
	}
	if o.Multisample.Mask == 0 {
		o.Multisample.Mask = 0xFFFFFFFF
	}
	if o.Label == "" {
		o.Label = "lines"
	}
	return o
}

// Style returns the draw-independent line style of o.
func (o Options) Style() geom.Style {
	return geom.Style{
		Join:              o.Join,
		Cap:               o.Cap,
		MaxJoinResolution: o.MaxJoinResolution,
		MaxCapResolution:  o.MaxCapResolution,
		MiterLimit:        o.MiterLimit,
	}
}
