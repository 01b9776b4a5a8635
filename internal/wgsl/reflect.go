// Package wgsl locates the vertex accessor and its record struct in
// user-supplied WGSL source.
//
// Reflection is textual: a pair of regular expressions over the function
// signature and the struct body. Only single-line field declarations are
// recognized. Nested generic types (array<vec2<f32>, 4>) and comments
// inside the struct body are not supported; callers that need them should
// describe the layout directly with NewLayout.
package wgsl

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// Reflection errors. Reflect wraps them with the offending name.
var (
	ErrFunctionNotFound     = errors.New("wgsl: vertex function not found")
	ErrStructNotParsed      = errors.New("wgsl: vertex struct not parsed")
	ErrPositionFieldMissing = errors.New("wgsl: position field missing")
	ErrWidthFieldMissing    = errors.New("wgsl: width field missing")
)

// Field is one member of the vertex record struct.
type Field struct {
	Name string
	Type string
}

// VertexLayout describes the record returned by the vertex accessor.
type VertexLayout struct {
	// Struct is the name of the record type.
	Struct string

	// Fields lists every member in declaration order.
	Fields []Field

	// Position and Width name the mandatory members.
	Position string
	Width    string

	// Varyings are the remaining members in declaration order.
	Varyings []Field
}

var fieldPattern = regexp.MustCompile(`(\w+)\s*:\s*([\w<>]+)\s*,?`)

// ReturnType returns the name of the type returned by function fn.
func ReturnType(src, fn string) (string, bool) {
	re, err := regexp.Compile(`(?s)fn\s+` + regexp.QuoteMeta(fn) + `\s*\([^)]*\)\s*->\s*(\w+)`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(src)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StructFields returns the members of struct name in declaration order,
// or nil when the struct is not found.
func StructFields(src, name string) []Field {
	re, err := regexp.Compile(`(?s)struct\s+` + regexp.QuoteMeta(name) + `\s*\{([^}]+)\}`)
	if err != nil {
		return nil
	}
	m := re.FindStringSubmatch(src)
	if m == nil {
		return nil
	}
	var fields []Field
	for _, f := range fieldPattern.FindAllStringSubmatch(m[1], -1) {
		fields = append(fields, Field{Name: f[1], Type: f[2]})
	}
	return fields
}

// Reflect finds the record type returned by fn in src and splits its
// members into the position, the width and the varyings.
func Reflect(src, fn, position, width string) (*VertexLayout, error) {
	name, ok := ReturnType(src, fn)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, fn)
	}
	fields := StructFields(src, name)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrStructNotParsed, name)
	}
	return NewLayout(name, fields, position, width)
}

// NewLayout builds a layout from an explicit field list. It applies the
// same checks as Reflect.
func NewLayout(name string, fields []Field, position, width string) (*VertexLayout, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q has no fields", ErrStructNotParsed, name)
	}
	has := func(n string) bool {
		return slices.ContainsFunc(fields, func(f Field) bool { return f.Name == n })
	}
	if !has(position) {
		return nil, fmt.Errorf("%w: %q not in struct %q", ErrPositionFieldMissing, position, name)
	}
	if !has(width) {
		return nil, fmt.Errorf("%w: %q not in struct %q", ErrWidthFieldMissing, width, name)
	}

	l := &VertexLayout{
		Struct:   name,
		Fields:   slices.Clone(fields),
		Position: position,
		Width:    width,
	}
	for _, f := range fields {
		if f.Name != position && f.Name != width {
			l.Varyings = append(l.Varyings, f)
		}
	}
	return l, nil
}

// MentionsIdent reports whether src contains ident as a whole word.
func MentionsIdent(src, ident string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(ident) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(src)
}
