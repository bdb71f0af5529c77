// Package render describes what feature modules draw and the painters that
// draw it.
package render

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// PrimitiveType says how a DrawEntity's vertices connect.
type PrimitiveType int

const (
	Points PrimitiveType = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

func (p PrimitiveType) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case LineLoop:
		return "line-loop"
	case LineStrip:
		return "line-strip"
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case TriangleFan:
		return "triangle-fan"
	default:
		return "unknown"
	}
}

// VertexFormat is the combination of attributes a DrawEntity carries.
type VertexFormat int

const (
	FormatPosition VertexFormat = iota
	FormatPositionColor
	FormatPositionTexture
	FormatPositionTextureColor

	numFormats
)

// Formats lists every vertex format.
func Formats() []VertexFormat {
	out := make([]VertexFormat, numFormats)
	for i := range out {
		out[i] = VertexFormat(i)
	}
	return out
}

func (f VertexFormat) String() string {
	switch f {
	case FormatPosition:
		return "position"
	case FormatPositionColor:
		return "position_color"
	case FormatPositionTexture:
		return "position_texture"
	case FormatPositionTextureColor:
		return "position_texture_color"
	default:
		return "unknown"
	}
}

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// RGB returns the color (r, g, b).
func RGB(r, g, b float64) Color { return Color{R: r, G: g, B: b} }

// Scale returns c with every component multiplied by k.
func (c Color) Scale(k float64) Color {
	return Color{R: c.R * k, G: c.G * k, B: c.B * k}
}

func channel(v float64) int {
	return int(math.Round(255 * math.Max(0, math.Min(1, v))))
}

// Lipgloss returns c as a terminal color.
func (c Color) Lipgloss() lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B)))
}

// DrawEntity is one batch of vertices sharing a primitive type. Colors and
// TexCoords are either empty or parallel to Positions. Indices, when set,
// select vertices in drawing order.
type DrawEntity struct {
	Primitive PrimitiveType
	Positions []r3.Vec
	TexCoords []r2.Vec
	Colors    []Color
	Indices   []uint16

	// Glyph marks points on character painters. Zero picks a default.
	Glyph rune
}

// IsIndexed reports whether the entity draws through Indices.
func (e *DrawEntity) IsIndexed() bool { return len(e.Indices) > 0 }

// IsTextured reports whether every vertex has a texture coordinate.
func (e *DrawEntity) IsTextured() bool { return len(e.TexCoords) > 0 }

// IsColored reports whether every vertex has its own color.
func (e *DrawEntity) IsColored() bool { return len(e.Colors) > 0 }

// Format returns the vertex format implied by the attributes present.
func (e *DrawEntity) Format() VertexFormat {
	switch {
	case e.IsTextured() && e.IsColored():
		return FormatPositionTextureColor
	case e.IsTextured():
		return FormatPositionTexture
	case e.IsColored():
		return FormatPositionColor
	default:
		return FormatPosition
	}
}

// Valid reports whether the attribute slices agree with Positions and
// every index is in range.
func (e *DrawEntity) Valid() bool {
	n := len(e.Positions)
	if e.IsTextured() && len(e.TexCoords) != n {
		return false
	}
	if e.IsColored() && len(e.Colors) != n {
		return false
	}
	for _, i := range e.Indices {
		if int(i) >= n {
			return false
		}
	}
	return true
}

// order returns the vertex sequence to draw.
func (e *DrawEntity) order() []int {
	if e.IsIndexed() {
		out := make([]int, len(e.Indices))
		for k, i := range e.Indices {
			out[k] = int(i)
		}
		return out
	}
	out := make([]int, len(e.Positions))
	for i := range out {
		out[i] = i
	}
	return out
}
