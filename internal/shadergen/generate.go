// Package shadergen emits the vertex and fragment programs of the
// instanced line renderer around user-supplied WGSL.
package shadergen

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/gogpu/lines/geom"
	"github.com/gogpu/lines/internal/wgsl"
	"github.com/gogpu/naga"
)

// Entry points of the generated programs.
const (
	VertexEntryPoint   = "vertexMain"
	FragmentEntryPoint = "fragmentMain"
)

// ColorFunction is the name of the user color function called by the
// fragment program.
const ColorFunction = "getColor"

// debugIdent is the identifier whose presence in the fragment source
// makes the fragment program pass the debug inputs to the color function.
const debugIdent = "instanceID"

//go:embed shaders/*.wgsl.tmpl
var shaderFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"location": func(i int) uint32 { return uint32(i) + 1 }, //nolint:gosec // varying counts are small
	"next":     func(loc uint32) uint32 { return loc + 1 },
}).ParseFS(shaderFS, "shaders/*.wgsl.tmpl"))

// Config is the input of Generate.
type Config struct {
	// VertexSource declares the vertex accessor, its record struct and
	// any bindings it uses (group 1 and up).
	VertexSource string

	// FragmentSource declares getColor(lineCoord: vec2f, varyings...).
	FragmentSource string

	// VertexFunction names the accessor. With ClampIndices it takes a u32
	// index, otherwise an i32.
	VertexFunction string

	PositionField string
	WidthField    string

	// Layout describes the accessor record. When nil it is reflected from
	// VertexSource.
	Layout *wgsl.VertexLayout

	// ClampIndices clamps neighbour lookups to [0, pointCount) and treats
	// out-of-range neighbours as line ends.
	ClampIndices bool
}

// Program is a generated vertex/fragment pair.
type Program struct {
	Vertex   string
	Fragment string

	// Varyings are passed at locations 1..len(Varyings).
	Varyings []wgsl.Field

	// DebugLocation is the location of instanceID; triStripCoord follows
	// at DebugLocation+1.
	DebugLocation uint32

	// DebugInputs reports whether getColor receives instanceID and
	// triStripCoord after the varyings.
	DebugInputs bool
}

type templateData struct {
	UserCode       string
	EntryPoint     string
	ColorFunction  string
	VertexFunction string
	PositionField  string
	WidthField     string
	Uniforms       []geom.UniformField
	Varyings       []wgsl.Field
	DebugLocation  uint32
	DebugInputs    bool
	ClampIndices   bool
}

// Generate reflects the vertex record and renders both programs.
func Generate(cfg Config) (*Program, error) {
	layout := cfg.Layout
	if layout == nil {
		var err error
		layout, err = wgsl.Reflect(cfg.VertexSource, cfg.VertexFunction, cfg.PositionField, cfg.WidthField)
		if err != nil {
			return nil, err
		}
	}

	data := templateData{
		VertexFunction: cfg.VertexFunction,
		PositionField:  layout.Position,
		WidthField:     layout.Width,
		ColorFunction:  ColorFunction,
		Uniforms:       geom.UniformFields,
		Varyings:       layout.Varyings,
		DebugLocation:  uint32(len(layout.Varyings)) + 1, //nolint:gosec // varying counts are small
		DebugInputs:    wgsl.MentionsIdent(cfg.FragmentSource, debugIdent),
		ClampIndices:   cfg.ClampIndices,
	}

	vd := data
	vd.UserCode = cfg.VertexSource
	vd.EntryPoint = VertexEntryPoint
	vertex, err := render("vertex.wgsl.tmpl", vd)
	if err != nil {
		return nil, err
	}

	fd := data
	fd.UserCode = cfg.FragmentSource
	fd.EntryPoint = FragmentEntryPoint
	fragment, err := render("fragment.wgsl.tmpl", fd)
	if err != nil {
		return nil, err
	}

	return &Program{
		Vertex:        vertex,
		Fragment:      fragment,
		Varyings:      layout.Varyings,
		DebugLocation: data.DebugLocation,
		DebugInputs:   data.DebugInputs,
	}, nil
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// CompileSPIRV compiles both programs to SPIR-V words.
func (p *Program) CompileSPIRV() (vertex, fragment []uint32, err error) {
	vertex, err = compileSPIRV(p.Vertex)
	if err != nil {
		return nil, nil, fmt.Errorf("vertex program: %w", err)
	}
	fragment, err = compileSPIRV(p.Fragment)
	if err != nil {
		return nil, nil, fmt.Errorf("fragment program: %w", err)
	}
	return vertex, fragment, nil
}

func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
