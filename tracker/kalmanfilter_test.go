package tracker

import (
	"math"
	"testing"
)

func TestKalmanFilterFollowsConstantVelocity(t *testing.T) {

	s := NewSettings()
	s.FilterGoal = FilterCenter

	kf := NewKalmanFilter(s, NewRect(100, 100, 20, 20))

	// object moving 5 px per frame along x
	var measured Rect

	for i := 1; i <= 15; i++ {
		measured = NewRect(100+float64(i)*5, 100, 20, 20)
		kf.Predict()
		kf.Update(measured, true)
	}

	smoothed := kf.LastRect()

	if d := math.Abs(smoothed.Center().X - measured.Center().X); d > 5 {
		t.Errorf("smoothed center lags measurement by %v px", d)
	}

	if d := math.Abs(smoothed.Center().Y - measured.Center().Y); d > 1 {
		t.Errorf("smoothed y drifted by %v px from a static measurement", d)
	}

	vx, vy := kf.Velocity()

	if vx <= 1 {
		t.Errorf("expected positive x velocity after constant motion, got %v", vx)
	}

	if math.Abs(vy) > 1 {
		t.Errorf("expected near zero y velocity, got %v", vy)
	}

	// the center goal keeps the measured size
	if smoothed.Width != 20 || smoothed.Height != 20 {
		t.Errorf("expected measured size to be kept, got %vx%v", smoothed.Width, smoothed.Height)
	}
}

func TestKalmanFilterRectGoalTracksSize(t *testing.T) {

	s := NewSettings()
	s.FilterGoal = FilterRect

	kf := NewKalmanFilter(s, NewRect(0, 0, 20, 20))

	// object growing 2 px per frame
	var measured Rect

	for i := 1; i <= 15; i++ {
		size := 20 + float64(i)*2
		measured = NewRect(0, 0, size, size)
		kf.Predict()
		kf.Update(measured, true)
	}

	smoothed := kf.LastRect()

	if d := math.Abs(smoothed.Width - measured.Width); d > 5 {
		t.Errorf("smoothed width lags measurement by %v px", d)
	}

	if smoothed.Width <= 20 {
		t.Errorf("smoothed width never grew: %v", smoothed.Width)
	}
}

func TestKalmanFilterCoasting(t *testing.T) {

	s := NewSettings()
	s.FilterGoal = FilterCenter

	kf := NewKalmanFilter(s, NewRect(100, 100, 20, 20))

	for i := 1; i <= 15; i++ {
		kf.Predict()
		kf.Update(NewRect(100+float64(i)*5, 100, 20, 20), true)
	}

	before := kf.LastRect().Center().X

	// no measurement: the filter keeps moving along its velocity estimate
	for i := 0; i < 5; i++ {
		kf.Predict()
		kf.Update(Rect{}, false)
	}

	after := kf.LastRect().Center().X

	if after <= before {
		t.Errorf("expected coasting to continue along x, got %v -> %v", before, after)
	}
}

func TestKalmanFilterAcceleration(t *testing.T) {

	s := NewSettings()
	s.FilterGoal = FilterCenter
	s.UseAcceleration = true

	kf := NewKalmanFilter(s, NewRect(0, 0, 10, 10))

	if kf.stateDim != 6 {
		t.Errorf("expected 6 state components with acceleration, got %d", kf.stateDim)
	}

	var measured Rect

	for i := 1; i <= 10; i++ {
		measured = NewRect(float64(i*i), 0, 10, 10)
		kf.Predict()
		kf.Update(measured, true)
	}

	vx, _ := kf.Velocity()

	if vx <= 0 {
		t.Errorf("expected positive velocity under acceleration, got %v", vx)
	}
}
