package lines

import (
	"errors"

	"github.com/gogpu/lines/internal/wgsl"
)

// Configuration errors returned by New. Reflection errors are wrapped with
// the offending function, struct or field name; match them with errors.Is.
var (
	// ErrFunctionNotFound is returned when the vertex accessor is not
	// declared in the vertex source.
	ErrFunctionNotFound = wgsl.ErrFunctionNotFound

	// ErrStructNotParsed is returned when the accessor's return type is
	// not a struct the reflector can read.
	ErrStructNotParsed = wgsl.ErrStructNotParsed

	// ErrPositionFieldMissing is returned when the record has no field
	// named Options.PositionField.
	ErrPositionFieldMissing = wgsl.ErrPositionFieldMissing

	// ErrWidthFieldMissing is returned when the record has no field named
	// Options.WidthField.
	ErrWidthFieldMissing = wgsl.ErrWidthFieldMissing

	// ErrNoColorTargets is returned when Options.ColorTargets is empty.
	ErrNoColorTargets = errors.New("lines: at least one color target is required")

	// ErrNilDevice is returned when New is called without a device or queue.
	ErrNilDevice = errors.New("lines: nil device or queue")

	// ErrProviderNotHAL is returned by NewFromProvider when the provider
	// does not expose HAL device and queue handles.
	ErrProviderNotHAL = errors.New("lines: provider does not expose HAL types")
)
