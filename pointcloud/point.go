package pointcloud

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Property marks the lifecycle state of a point within a cloud.
type Property uint8

// Points marked PropertyInvalid must be compacted away before any indexed
// operation; down-sampled output points are marked PropertyInactive.
const (
	PropertyInvalid Property = iota
	PropertyActive
	PropertyInactive
)

func (p Property) String() string {
	switch p {
	case PropertyActive:
		return "active"
	case PropertyInactive:
		return "inactive"
	default:
		return "invalid"
	}
}

// Color is an RGB triple normalized to [0,1].
type Color struct {
	R, G, B float32
}

// Add returns the componentwise sum of two colors.
func (c Color) Add(other Color) Color {
	return Color{c.R + other.R, c.G + other.G, c.B + other.B}
}

// Div returns the color scaled by 1/n.
func (c Color) Div(n float64) Color {
	inv := float32(1.0 / n)
	return Color{c.R * inv, c.G * inv, c.B * inv}
}

// Intensity converts the color to a perceptual intensity.
// See "Why You Should Forget Luminance Conversion and Do Something Better",
// CVPR 2017.
func (c Color) Intensity() float32 {
	return float32(0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B))
}

// Average returns the mean of the three channels.
func (c Color) Average() float32 {
	return float32((float64(c.R) + float64(c.G) + float64(c.B)) / 3.0)
}

// Point is one colored sample of a cloud.
type Point struct {
	Position r3.Vector
	Color    Color
	Property Property
}

// NewPoint creates an active point at the given position with no color.
func NewPoint(x, y, z float64) Point {
	return Point{Position: r3.Vector{X: x, Y: y, Z: z}, Property: PropertyActive}
}

// NewColoredPoint creates an active point with the given normalized color.
func NewColoredPoint(x, y, z float64, c Color) Point {
	return Point{Position: r3.Vector{X: x, Y: y, Z: z}, Color: c, Property: PropertyActive}
}

func (p Point) String() string {
	return fmt.Sprintf("(%v, %v, %v) rgb(%v, %v, %v) %v",
		p.Position.X, p.Position.Y, p.Position.Z, p.Color.R, p.Color.G, p.Color.B, p.Property)
}
