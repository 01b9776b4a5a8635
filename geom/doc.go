// Package geom is the reference implementation of the per-vertex geometry
// generator that the lines vertex shader runs on the GPU.
//
// # Strip layout
//
// A polyline of N points is drawn as N-1 instances. Instance i draws the
// segment from point i (B) to point i+1 (C), using point i-1 (A) and point
// i+2 (D) to shape the join or cap at each end. Every instance is a
// triangle strip of a fixed vertex count (see [StripSize]); the strip is
// split into a B-side half and a mirrored C-side half:
//
//	A -----> B =======> C -----> D
//	         |  B-half  |  C-half
//
// Each half is a fan alternating outer vertices (even local index) and
// center-line hub vertices (odd local index), followed by the interior
// miter point. Halves with fewer vertices than the strip budget collapse
// their excess vertices into zero-area triangles.
//
// # Units
//
// Positions are clip-space vec4. The generator works in units of
// clip xy times resolution, i.e. half pixels; a width of w therefore
// produces a line w pixels wide.
//
// # Use
//
// [Evaluate] computes a single vertex and is what the shader does for
// every (vertex_index, instance_index) pair. It is pure and safe for
// concurrent use. [Strip] and [Strips] evaluate whole instances for
// previews and tests; the renderer itself never tessellates on the CPU.
//
// [Uniforms] is the uniform block shared by the renderer and the shader,
// with its canonical byte encoding described by [UniformFields].
package geom
