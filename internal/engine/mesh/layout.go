package mesh

import (
	"fmt"

	"github.com/Faultbox/glmesh/internal/gpu"
)

// Attribute describes one interleaved vertex attribute.
type Attribute struct {
	Index      uint32
	Components int32
	Type       gpu.ComponentType
	Normalized bool
	Stride     int32 // bytes between consecutive vertices
	Offset     int   // bytes from the start of a vertex
}

// Size returns the byte size of one value of the attribute.
func (a Attribute) Size() int {
	return int(a.Components) * a.Type.Size()
}

// Validate checks that the attribute fits inside one vertex.
func (a Attribute) Validate() error {
	if a.Components < 1 || a.Components > 4 {
		return fmt.Errorf("%w: attribute %d has %d components", ErrInvalidLayout, a.Index, a.Components)
	}
	if a.Type.Size() == 0 {
		return fmt.Errorf("%w: attribute %d has unknown component type", ErrInvalidLayout, a.Index)
	}
	if a.Offset < 0 || a.Stride <= 0 {
		return fmt.Errorf("%w: attribute %d has offset %d, stride %d", ErrInvalidLayout, a.Index, a.Offset, a.Stride)
	}
	if a.Offset+a.Size() > int(a.Stride) {
		return fmt.Errorf("%w: attribute %d ends at byte %d past stride %d",
			ErrInvalidLayout, a.Index, a.Offset+a.Size(), a.Stride)
	}
	return nil
}

// Interleaved builds a tightly packed layout of typ attributes. Attribute i
// gets location i and components[i] components.
//
//	Interleaved(gpu.Float, 3, 3) // position + color, stride 24, offsets 0 and 12
func Interleaved(typ gpu.ComponentType, components ...int32) []Attribute {
	var stride int32
	for _, c := range components {
		stride += c * int32(typ.Size())
	}
	attrs := make([]Attribute, len(components))
	offset := 0
	for i, c := range components {
		attrs[i] = Attribute{
			Index:      uint32(i),
			Components: c,
			Type:       typ,
			Stride:     stride,
			Offset:     offset,
		}
		offset += int(c) * typ.Size()
	}
	return attrs
}

// BindLayout registers attrs with the currently bound vertex array and
// enables each index. A later entry for the same index overwrites an earlier one.
func BindLayout(d gpu.Driver, attrs []Attribute) {
	for _, a := range attrs {
		d.VertexAttribPointer(a.Index, a.Components, a.Type, a.Normalized, a.Stride, a.Offset)
		d.EnableVertexAttribArray(a.Index)
	}
}

// stride returns the vertex stride shared by attrs, or 0 if attrs is empty.
// Attributes with different strides are reported as an error.
func stride(attrs []Attribute) (int, error) {
	s := 0
	for _, a := range attrs {
		if s == 0 {
			s = int(a.Stride)
			continue
		}
		if int(a.Stride) != s {
			return 0, fmt.Errorf("%w: attribute %d stride %d differs from %d", ErrInvalidLayout, a.Index, a.Stride, s)
		}
	}
	return s, nil
}
