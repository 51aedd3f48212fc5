package tracker

import (
	"image"
	"math"
	"testing"
)

// almostEqual checks if two float64 values are approximately equal
func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestRectIoU(t *testing.T) {

	cases := []struct {
		name     string
		a, b     Rect
		expected float64
	}{
		{"identical", NewRect(10, 10, 20, 20), NewRect(10, 10, 20, 20), 1.0},
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(100, 100, 10, 10), 0.0},
		{"half overlap", NewRect(0, 0, 10, 10), NewRect(5, 0, 10, 10), 50.0 / 150.0},
		{"touching edges", NewRect(0, 0, 10, 10), NewRect(10, 0, 10, 10), 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.IoU(tc.b); !almostEqual(got, tc.expected, 1e-9) {
				t.Errorf("expected IoU %v, got %v", tc.expected, got)
			}
			// IoU is symmetric
			if got := tc.b.IoU(tc.a); !almostEqual(got, tc.expected, 1e-9) {
				t.Errorf("expected symmetric IoU %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestRectAccessors(t *testing.T) {

	r := NewRect(10, 20, 30, 40)

	if r.Right() != 40 || r.Bottom() != 60 {
		t.Errorf("unexpected right/bottom: %v/%v", r.Right(), r.Bottom())
	}

	c := r.Center()
	if c.X != 25 || c.Y != 40 {
		t.Errorf("unexpected center: %v", c)
	}

	if !almostEqual(r.Diagonal(), 50, 1e-9) {
		t.Errorf("unexpected diagonal: %v", r.Diagonal())
	}
}

func TestRectToImageClamps(t *testing.T) {

	bounds := image.Rect(0, 0, 640, 480)

	// rect hanging over the frame edge is clipped
	r := NewRect(630, 470, 20, 20)
	clipped := r.ToImage(bounds)

	if clipped.Max.X > 640 || clipped.Max.Y > 480 {
		t.Errorf("rect not clipped to bounds: %v", clipped)
	}

	if clipped.Dx() != 10 || clipped.Dy() != 10 {
		t.Errorf("unexpected clipped size: %v", clipped)
	}

	// rect fully outside yields an empty crop
	outside := NewRect(700, 500, 20, 20).ToImage(bounds)

	if outside.Dx() > 0 && outside.Dy() > 0 {
		t.Errorf("rect outside bounds should clip to empty, got %v", outside)
	}
}

func TestRectIntersects(t *testing.T) {

	frame := NewRect(0, 0, 640, 480)

	if !NewRect(10, 10, 20, 20).Intersects(frame) {
		t.Error("rect inside the frame must intersect it")
	}

	if NewRect(700, 10, 20, 20).Intersects(frame) {
		t.Error("rect beyond the frame must not intersect it")
	}

	if !NewRect(-10, -10, 20, 20).Intersects(frame) {
		t.Error("rect straddling the frame corner must intersect it")
	}
}
