// Command linesdemo builds the line pipeline for a scene file, writes the
// generated WGSL programs and renders a CPU preview of the scene.
//
// Usage:
//
//	linesdemo -scene scene.toml -png preview.png -wgsl out/ -spirv
//
// The pipeline is created on the noop HAL backend, so no GPU is required.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/lines"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

const vertexSource = `
struct LineParams {
  color: vec4f,
  width: f32,
}

@group(1) @binding(0) var<storage, read> points: array<vec4f>;
@group(1) @binding(1) var<uniform> line: LineParams;

struct Vertex {
  position: vec4f,
  width: f32,
}

fn getVertex(index: u32) -> Vertex {
  return Vertex(points[index], line.width);
}
`

const fragmentSource = `
struct LineParams {
  color: vec4f,
  width: f32,
}

@group(1) @binding(1) var<uniform> line: LineParams;

fn getColor(lineCoord: vec2f) -> vec4f {
  return line.color;
}
`

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file (TOML); empty uses a built-in scene")
		pngPath   = flag.String("png", "", "write a CPU preview to this PNG file")
		wgslDir   = flag.String("wgsl", "", "write the generated WGSL programs to this directory")
		spirv     = flag.Bool("spirv", false, "compile the programs to SPIR-V with naga")
		workers   = flag.Int("workers", 0, "preview worker count (0 = GOMAXPROCS)")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	lines.SetLogger(logger)

	if err := run(logger, *scenePath, *pngPath, *wgslDir, *spirv, *workers); err != nil {
		logger.Error("linesdemo failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, scenePath, pngPath, wgslDir string, spirv bool, workers int) error {
	scene, err := openScene(scenePath)
	if err != nil {
		return err
	}

	device, queue, release, err := openNoopDevice()
	if err != nil {
		return err
	}
	defer release()

	opts := sceneOptions(scene, spirv)
	r, err := lines.New(device, queue, opts)
	if err != nil {
		return err
	}
	defer r.Destroy()

	pass := &loggingPass{logger: logger}
	for i, l := range scene.Lines {
		n := len(l.Polyline(scene.Tolerance))
		pass.line = i
		r.Draw(pass, lines.DrawParams{VertexCount: n, Resolution: scene.Resolution})
	}
	logger.Info("pipeline built",
		"join", scene.Join, "cap", scene.Cap,
		"strip_size", r.StripSize(), "lines", len(scene.Lines), "draws", pass.draws)

	if wgslDir != "" {
		if err := writePrograms(wgslDir, r); err != nil {
			return err
		}
		logger.Info("programs written", "dir", wgslDir)
	}
	if pngPath != "" {
		if err := writePreview(pngPath, scene, workers); err != nil {
			return err
		}
		logger.Info("preview written", "path", pngPath)
	}
	return nil
}

func openScene(path string) (*Scene, error) {
	if path == "" {
		return parseScene(builtinScene)
	}
	return loadScene(path)
}

func sceneOptions(s *Scene, spirv bool) lines.Options {
	targets := []gputypes.ColorTargetState{{
		Format:    gputypes.TextureFormatBGRA8Unorm,
		WriteMask: gputypes.ColorWriteMaskAll,
	}}
	group := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	}
	opts := []lines.Option{
		lines.WithJoin(s.Join),
		lines.WithCap(s.Cap),
		lines.WithMaxJoinResolution(s.JoinResolution),
		lines.WithMaxCapResolution(s.CapResolution),
		lines.WithMiterLimit(s.MiterLimit),
		lines.WithBindGroups(group),
		lines.WithLabel("linesdemo"),
	}
	if spirv {
		opts = append(opts, lines.WithSPIRV())
	}
	return lines.NewOptions(vertexSource, fragmentSource, targets, opts...)
}

func openNoopDevice() (hal.Device, hal.Queue, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, errors.New("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open device: %w", err)
	}
	release := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, release, nil
}

func writePrograms(dir string, r *lines.Renderer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "vertex.wgsl"), []byte(r.VertexSource()), 0o644); err != nil { //nolint:gosec // generated source is not secret
		return err
	}
	return os.WriteFile(filepath.Join(dir, "fragment.wgsl"), []byte(r.FragmentSource()), 0o644) //nolint:gosec // generated source is not secret
}

func writePreview(path string, s *Scene, workers int) error {
	img := renderPreview(s, workers)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// loggingPass logs the commands a renderer records.
type loggingPass struct {
	logger *slog.Logger
	line   int
	draws  int
}

func (p *loggingPass) SetPipeline(hal.RenderPipeline) {}

func (p *loggingPass) SetBindGroup(uint32, hal.BindGroup, []uint32) {}

func (p *loggingPass) Draw(vertexCount, instanceCount, _, _ uint32) {
	p.draws++
	p.logger.Debug("draw", "line", p.line, "vertices", vertexCount, "instances", instanceCount)
}

const builtinScene = `
resolution = [800, 600]
join = "round"
cap = "round"

[[line]]
width = 30
color = "steelblue"
points = [[100, 100], [300, 450], [500, 150], [nan, nan], [600, 100], [720, 300]]

[[line]]
width = 12
color = "crimson"
cubics = [[[80, 520], [300, 250], [500, 750], [720, 480]]]
`
