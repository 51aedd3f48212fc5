package tracker

import (
	"image"
	"math"
)

// Point represents a 2D position with floating point coordinates.
type Point struct {
	X, Y float64
}

// SizeF represents a width and height pair.
type SizeF struct {
	Width, Height float64
}

// Rect is an axis aligned rectangle in top-left/width/height format.
type Rect struct {
	X, Y, Width, Height float64
}

// NewRect creates a new Rect with the given coordinates
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// NewRectFromImage converts a stdlib image.Rectangle into a Rect
func NewRectFromImage(r image.Rectangle) Rect {
	return Rect{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

// Right returns the bottom-right x coordinate of the rectangle
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the bottom-right y coordinate of the rectangle
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Center returns the center point of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Area returns the rectangle area
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Diagonal returns the length of the rectangle diagonal
func (r Rect) Diagonal() float64 {
	return math.Hypot(r.Width, r.Height)
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether the rectangle overlaps other
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// ToImage converts the rectangle to an image.Rectangle clipped against the
// given bounds, for cropping frame Mats
func (r Rect) ToImage(bounds image.Rectangle) image.Rectangle {
	ir := image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)),
		int(math.Ceil(r.Y+r.Height)),
	)
	return ir.Intersect(bounds)
}

// IoU calculates the Intersection over Union (IoU) with another rectangle
func (r Rect) IoU(other Rect) float64 {
	xA := math.Max(r.X, other.X)
	yA := math.Max(r.Y, other.Y)
	xB := math.Min(r.Right(), other.Right())
	yB := math.Min(r.Bottom(), other.Bottom())

	interArea := math.Max(0, xB-xA) * math.Max(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	return interArea / (r.Area() + other.Area() - interArea)
}

// RotatedRect is a rectangle with an orientation. Angle is in radians,
// measured counter clockwise from the x axis.
type RotatedRect struct {
	Center Point
	Size   SizeF
	Angle  float64
}

// euclideanDistance returns the distance between two points
func euclideanDistance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
