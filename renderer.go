package lines

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/lines/geom"
	"github.com/gogpu/lines/internal/shadergen"
	"github.com/gogpu/wgpu/hal"
)

// RenderPass is the part of a render pass encoder used by Draw.
// hal.RenderPassEncoder satisfies it.
type RenderPass interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

// DrawParams are the per-draw parameters of a line.
type DrawParams struct {
	// VertexCount is the number of points of the line.
	VertexCount int

	// Resolution is the render target size in pixels.
	Resolution [2]float32

	// Optional overrides. JoinResolution only applies to round joins and
	// CapResolution only to round caps; both are clamped to the
	// configured maximum. MiterLimit is ignored for bevel joins.
	MiterLimit     *float32
	JoinResolution *int
	CapResolution  *int

	// SkipUniformUpdate makes Draw use the uniforms of the previous
	// UpdateUniforms call.
	SkipUniformUpdate bool
}

// Renderer draws polylines with one instanced draw call per line. Each
// point pair is an instance; the strip of every instance is generated in
// the vertex shader from the vertex and instance indices.
//
// Thread safety: UpdateUniforms and Draw may be called from different
// goroutines, but uniform writes must not overlap a submitted pass that
// reads them.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	opts   Options

	style   geom.Style
	program *shadergen.Program
	strip   uint32

	// GPU objects, in creation order.
	vertexShader   hal.ShaderModule
	fragmentShader hal.ShaderModule
	layouts        []hal.BindGroupLayout
	pipeLayout     hal.PipelineLayout
	pipeline       hal.RenderPipeline
	uniformBuf     hal.Buffer
	bindGroup      hal.BindGroup

	mu       sync.Mutex
	uniforms geom.Uniforms
	staging  [geom.UniformSize]byte
	written  bool
	writes   int
}

// New generates the shader programs for opts and creates the pipeline,
// the uniform buffer and its bind group. Configuration errors are
// returned before any GPU object is created; a GPU failure releases the
// objects created so far.
func New(device hal.Device, queue hal.Queue, opts Options) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if len(opts.ColorTargets) == 0 {
		return nil, ErrNoColorTargets
	}
	opts = opts.withDefaults()
	log := Logger()

	if opts.Topology != nil && *opts.Topology != gputypes.PrimitiveTopologyTriangleStrip {
		log.Warn("lines: primitive topology is not a triangle strip; lines may not render correctly",
			"topology", *opts.Topology)
	}

	program, err := shadergen.Generate(shadergen.Config{
		VertexSource:   opts.VertexSource,
		FragmentSource: opts.FragmentSource,
		VertexFunction: opts.VertexFunction,
		PositionField:  opts.PositionField,
		WidthField:     opts.WidthField,
		Layout:         opts.Layout,
		ClampIndices:   !opts.NoClampIndices,
	})
	if err != nil {
		return nil, fmt.Errorf("lines: generate shaders: %w", err)
	}

	style := opts.Style()
	r := &Renderer{
		device:   device,
		queue:    queue,
		opts:     opts,
		style:    style,
		program:  program,
		strip:    style.StripSize(),
		uniforms: style.Uniforms(),
	}
	log.Debug("lines: generated programs",
		"vertex_bytes", len(program.Vertex),
		"fragment_bytes", len(program.Fragment),
		"varyings", len(program.Varyings),
		"strip_size", r.strip)

	if err := r.createPipeline(); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.createUniforms(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

// NewFromProvider creates a renderer on the device of a gpucontext
// provider. The provider must expose HalDevice() and HalQueue() returning
// hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts Options) (*Renderer, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}
	return New(device, queue, opts)
}

func (r *Renderer) label(s string) string {
	return r.opts.Label + "_" + s
}

// createPipeline creates the shader modules, bind group layouts and the
// render pipeline.
func (r *Renderer) createPipeline() error {
	vertexSource := hal.ShaderSource{WGSL: r.program.Vertex}
	fragmentSource := hal.ShaderSource{WGSL: r.program.Fragment}
	if r.opts.SPIRV {
		vs, fs, err := r.program.CompileSPIRV()
		if err != nil {
			return fmt.Errorf("lines: %w", err)
		}
		vertexSource = hal.ShaderSource{SPIRV: vs}
		fragmentSource = hal.ShaderSource{SPIRV: fs}
	}

	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  r.label("vertex"),
		Source: vertexSource,
	})
	if err != nil {
		return fmt.Errorf("lines: compile vertex shader: %w", err)
	}
	r.vertexShader = shader

	shader, err = r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  r.label("fragment"),
		Source: fragmentSource,
	})
	if err != nil {
		return fmt.Errorf("lines: compile fragment shader: %w", err)
	}
	r.fragmentShader = shader

	groups := make([][]gputypes.BindGroupLayoutEntry, 0, len(r.opts.BindGroups)+1)
	groups = append(groups, []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	})
	groups = append(groups, r.opts.BindGroups...)
	for i, entries := range groups {
		layout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   r.label(fmt.Sprintf("group%d_layout", i)),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("lines: create bind group layout %d: %w", i, err)
		}
		r.layouts = append(r.layouts, layout)
	}

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            r.label("pipe_layout"),
		BindGroupLayouts: r.layouts,
	})
	if err != nil {
		return fmt.Errorf("lines: create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	topology := gputypes.PrimitiveTopologyTriangleStrip
	if r.opts.Topology != nil {
		topology = *r.opts.Topology
	}
	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  r.label("pipeline"),
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.vertexShader,
			EntryPoint: shadergen.VertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     r.fragmentShader,
			EntryPoint: shadergen.FragmentEntryPoint,
			Targets:    r.opts.ColorTargets,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  topology,
			FrontFace: r.opts.FrontFace,
			CullMode:  r.opts.CullMode,
		},
		DepthStencil: r.opts.DepthStencil,
		Multisample:  r.opts.Multisample,
	})
	if err != nil {
		return fmt.Errorf("lines: create pipeline: %w", err)
	}
	r.pipeline = pipeline

	Logger().Debug("lines: pipeline created",
		"spirv", r.opts.SPIRV,
		"bind_groups", len(r.layouts))
	return nil
}

// createUniforms creates the uniform buffer and the group 0 bind group.
func (r *Renderer) createUniforms() error {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: r.label("uniforms"),
		Size:  geom.UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("lines: create uniform buffer: %w", err)
	}
	r.uniformBuf = buf

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  r.label("uniforms_bind"),
		Layout: r.layouts[0],
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: geom.UniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("lines: create uniform bind group: %w", err)
	}
	r.bindGroup = bindGroup
	return nil
}

// UpdateUniforms writes the uniform block for p. The buffer is only
// written when a value differs from the previous call.
func (r *Renderer) UpdateUniforms(p DrawParams) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.style.Uniforms()
	next.Resolution = p.Resolution
	next.PointCount = uint32(max(p.VertexCount, 0)) //nolint:gosec // point counts fit uint32

	if r.style.Cap == CapRound && p.CapResolution != nil {
		next.VertCnt2[0] = float32(r.clampResolution("cap", *p.CapResolution, r.style.MaxCapResolution) * 2)
	}
	if r.style.Join == JoinRound && p.JoinResolution != nil {
		next.VertCnt2[1] = float32(r.clampResolution("join", *p.JoinResolution, r.style.MaxJoinResolution) * 2)
	}
	if r.style.Join != JoinBevel && p.MiterLimit != nil {
		next.MiterLimit2 = *p.MiterLimit * *p.MiterLimit
	}

	if r.written && next == r.uniforms {
		return
	}
	next.Put(r.staging[:])
	if err := r.queue.WriteBuffer(r.uniformBuf, 0, r.staging[:]); err != nil {
		Logger().Warn("lines: uniform write failed", "err", err)
		return
	}
	r.uniforms = next
	r.written = true
	r.writes++

	Logger().Debug("lines: uniforms written",
		"points", next.PointCount,
		"resolution", next.Resolution,
		"vert_cnt2", next.VertCnt2)
}

func (r *Renderer) clampResolution(kind string, n, limit int) int {
	if n > limit {
		Logger().Warn("lines: resolution exceeds maximum, clamping",
			"kind", kind, "requested", n, "max", limit)
		return limit
	}
	return n
}

// Draw records one instanced draw of a line with p.VertexCount points.
// groups are bound at indices 1 and up. Nothing is recorded for lines
// with fewer than two points.
func (r *Renderer) Draw(pass RenderPass, p DrawParams, groups ...hal.BindGroup) {
	if !p.SkipUniformUpdate {
		r.UpdateUniforms(p)
	}
	instances := geom.InstanceCount(p.VertexCount)
	if instances == 0 {
		return
	}
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	for i, g := range groups {
		pass.SetBindGroup(uint32(i+1), g, nil) //nolint:gosec // bind group counts are small
	}
	pass.Draw(r.strip, instances, 0, 0)
}

// BindGroupLayout returns the layout of bind group index, or nil. Group 0
// holds the line uniforms; groups 1 and up are Options.BindGroups.
func (r *Renderer) BindGroupLayout(index int) hal.BindGroupLayout {
	if index < 0 || index >= len(r.layouts) {
		return nil
	}
	return r.layouts[index]
}

// StripSize returns the number of vertices drawn per instance.
func (r *Renderer) StripSize() uint32 {
	return r.strip
}

// VertexSource returns the generated vertex program.
func (r *Renderer) VertexSource() string {
	return r.program.Vertex
}

// FragmentSource returns the generated fragment program.
func (r *Renderer) FragmentSource() string {
	return r.program.Fragment
}

// Destroy releases the GPU objects in reverse creation order. It is safe
// to call more than once.
func (r *Renderer) Destroy() {
	if r.device == nil {
		return
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	for i := len(r.layouts) - 1; i >= 0; i-- {
		r.device.DestroyBindGroupLayout(r.layouts[i])
	}
	r.layouts = nil
	if r.fragmentShader != nil {
		r.device.DestroyShaderModule(r.fragmentShader)
		r.fragmentShader = nil
	}
	if r.vertexShader != nil {
		r.device.DestroyShaderModule(r.vertexShader)
		r.vertexShader = nil
	}
}
