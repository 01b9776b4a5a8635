// Package lines draws wide polylines on the GPU with one instanced draw
// call per line.
//
// # Overview
//
// Every segment between two consecutive points is one instance of a
// fixed-size triangle strip. The vertex shader reads the segment's four
// neighbouring points through a user-supplied accessor function and
// places each strip vertex on the line body, a join fan or a cap fan
// purely from the vertex and instance indices. No geometry is built on
// the CPU and no index buffer is used.
//
// # Quick Start
//
//	opts := lines.NewOptions(vertexSrc, fragmentSrc, targets,
//	    lines.WithJoin(lines.JoinRound),
//	    lines.WithCap(lines.CapRound),
//	    lines.WithBindGroups(pointsLayout),
//	)
//	r, err := lines.New(device, queue, opts)
//	if err != nil {
//	    return err
//	}
//	defer r.Destroy()
//
//	// inside a render pass
//	r.Draw(pass, lines.DrawParams{VertexCount: n, Resolution: [2]float32{w, h}}, pointsGroup)
//
// # User Programs
//
// The vertex source declares an accessor
//
//	fn getVertex(index: u32) -> Vertex
//
// returning a struct with a vec4f position in clip space, an f32 width in
// pixels and any number of further fields. Each further field is
// interpolated along the segment and passed to the fragment function
//
//	fn getColor(lineCoord: vec2f, <fields in declaration order>) -> vec4f
//
// lineCoord spans the line cross-section: length(lineCoord) is 1 on the
// edge and on the rim of round caps and joins. A point whose w is 0 or
// whose x is NaN breaks the line; the next point starts a new one with its
// own caps.
//
// The record layout is found with a lightweight scan of the source text.
// Use WithLayout for records the scan cannot read.
//
// # Packages
//
//   - geom: a CPU model of the vertex stage and the uniform block layout
//   - cmd/linesdemo: builds a pipeline for a TOML scene, writes the
//     generated WGSL and renders a CPU preview
package lines
