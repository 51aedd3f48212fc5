package tracker

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// measurementNoiseVar is the variance assumed on every measured component
const measurementNoiseVar = 0.1

// KalmanFilter is the linear motion filter backing each track.  Depending
// on the filter goal the state is either the region center with its
// velocity, or the full rectangle (center and size) with velocities.  With
// acceleration enabled two extra center acceleration components are added.
type KalmanFilter struct {
	goal            FilterGoal
	useAcceleration bool
	dt              float64

	stateDim int
	measDim  int

	// motionMat is the state transition matrix
	motionMat *mat.Dense
	// updateMat projects the state into measurement space
	updateMat *mat.Dense
	// processNoise and measurementNoise are the constant noise covariances
	processNoise     *mat.Dense
	measurementNoise *mat.Dense

	state      *mat.VecDense
	covariance *mat.Dense

	// lastRect is the most recent rectangle result, predicted by Predict or
	// smoothed by Update
	lastRect Rect
	// lastSize is the most recent measured size, used to rebuild rects for
	// the center-only goal
	lastSize SizeF
}

// NewKalmanFilter creates a motion filter initialized on the given
// rectangle with zero velocity
func NewKalmanFilter(s *Settings, initial Rect) *KalmanFilter {

	kf := &KalmanFilter{
		goal:            s.FilterGoal,
		useAcceleration: s.UseAcceleration,
		dt:              s.DT,
	}

	if kf.goal == FilterRect {
		kf.measDim = 4
	} else {
		kf.measDim = 2
	}

	kf.stateDim = kf.measDim * 2
	if kf.useAcceleration {
		kf.stateDim += 2
	}

	dt := kf.dt

	// constant velocity transition, each measured component coupled to its
	// velocity
	kf.motionMat = mat.NewDense(kf.stateDim, kf.stateDim, nil)

	for i := 0; i < kf.stateDim; i++ {
		kf.motionMat.Set(i, i, 1.0)
	}

	for i := 0; i < kf.measDim; i++ {
		kf.motionMat.Set(i, kf.measDim+i, dt)
	}

	if kf.useAcceleration {
		// acceleration acts on the center components only
		accelBase := kf.measDim * 2
		for a := 0; a < 2; a++ {
			kf.motionMat.Set(a, accelBase+a, 0.5*dt*dt)
			kf.motionMat.Set(kf.measDim+a, accelBase+a, dt)
		}
	}

	kf.updateMat = mat.NewDense(kf.measDim, kf.stateDim, nil)

	for i := 0; i < kf.measDim; i++ {
		kf.updateMat.Set(i, i, 1.0)
	}

	q := s.AccelNoiseMag
	kf.processNoise = mat.NewDense(kf.stateDim, kf.stateDim, nil)

	for i := 0; i < kf.stateDim; i++ {
		switch {
		case i < kf.measDim:
			kf.processNoise.Set(i, i, q*math.Pow(dt, 4)/4)
		case i < kf.measDim*2:
			kf.processNoise.Set(i, i, q*dt*dt)
		default:
			kf.processNoise.Set(i, i, q)
		}
	}

	kf.measurementNoise = mat.NewDense(kf.measDim, kf.measDim, nil)

	for i := 0; i < kf.measDim; i++ {
		kf.measurementNoise.Set(i, i, measurementNoiseVar)
	}

	// initial state: measured components from the rectangle, derivatives 0
	center := initial.Center()
	kf.state = mat.NewVecDense(kf.stateDim, nil)
	kf.state.SetVec(0, center.X)
	kf.state.SetVec(1, center.Y)

	if kf.goal == FilterRect {
		kf.state.SetVec(2, initial.Width)
		kf.state.SetVec(3, initial.Height)
	}

	kf.covariance = mat.NewDense(kf.stateDim, kf.stateDim, nil)

	for i := 0; i < kf.stateDim; i++ {
		if i < kf.measDim {
			kf.covariance.Set(i, i, 1.0)
		} else {
			kf.covariance.Set(i, i, 100.0)
		}
	}

	kf.lastRect = initial
	kf.lastSize = SizeF{Width: initial.Width, Height: initial.Height}

	return kf
}

// Predict advances the filter state one time step and refreshes the last
// rectangle with the prediction
func (kf *KalmanFilter) Predict() {

	// state = F * state
	predicted := mat.NewVecDense(kf.stateDim, nil)
	predicted.MulVec(kf.motionMat, kf.state)
	kf.state = predicted

	// covariance = F * P * F^T + Q
	var fp mat.Dense
	fp.Mul(kf.motionMat, kf.covariance)

	var fpft mat.Dense
	fpft.Mul(&fp, kf.motionMat.T())
	fpft.Add(&fpft, kf.processNoise)
	kf.covariance = &fpft

	kf.lastRect = kf.stateRect()
}

// Update ingests a measurement and returns the smoothed rectangle.  When
// dataCorrect is false the filter coasts: the measurement argument is
// ignored and the rectangle held by LastRect (the prediction, when Predict
// ran first) is fed back as a synthetic measurement.
func (kf *KalmanFilter) Update(measurement Rect, dataCorrect bool) Rect {

	m := measurement

	if !dataCorrect {
		m = kf.lastRect
	} else if kf.goal == FilterCenter {
		kf.lastSize = SizeF{Width: m.Width, Height: m.Height}
	}

	center := m.Center()
	z := mat.NewVecDense(kf.measDim, nil)
	z.SetVec(0, center.X)
	z.SetVec(1, center.Y)

	if kf.goal == FilterRect {
		z.SetVec(2, m.Width)
		z.SetVec(3, m.Height)
	}

	// innovation covariance S = H * P * H^T + R
	var hp mat.Dense
	hp.Mul(kf.updateMat, kf.covariance)

	var s mat.Dense
	s.Mul(&hp, kf.updateMat.T())
	s.Add(&s, kf.measurementNoise)

	projectedCov := mat.NewSymDense(kf.measDim, nil)

	for i := 0; i < kf.measDim; i++ {
		for j := i; j < kf.measDim; j++ {
			projectedCov.SetSym(i, j, 0.5*(s.At(i, j)+s.At(j, i)))
		}
	}

	chol := mat.Cholesky{}

	if ok := chol.Factorize(projectedCov); !ok {
		// degenerate covariance, keep the prediction
		return kf.lastRect
	}

	// gainT = S^-1 * H * P, the transpose of the Kalman gain
	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, &hp); err != nil {
		return kf.lastRect
	}

	// innovation = z - H * state
	projected := mat.NewVecDense(kf.measDim, nil)
	projected.MulVec(kf.updateMat, kf.state)

	innovation := mat.NewVecDense(kf.measDim, nil)
	innovation.SubVec(z, projected)

	// state += K * innovation
	delta := mat.NewVecDense(kf.stateDim, nil)
	delta.MulVec(gainT.T(), innovation)
	kf.state.AddVec(kf.state, delta)

	// covariance = P - K * H * P
	var khp mat.Dense
	khp.Mul(gainT.T(), &hp)

	var updated mat.Dense
	updated.Sub(kf.covariance, &khp)
	kf.covariance = &updated

	kf.lastRect = kf.stateRect()

	return kf.lastRect
}

// Velocity returns the estimated center velocity components
func (kf *KalmanFilter) Velocity() (float64, float64) {
	return kf.state.AtVec(kf.measDim), kf.state.AtVec(kf.measDim + 1)
}

// LastRect returns the most recent rectangle: the prediction after Predict,
// the smoothed result after Update
func (kf *KalmanFilter) LastRect() Rect {
	return kf.lastRect
}

// stateRect rebuilds a rectangle from the current state vector
func (kf *KalmanFilter) stateRect() Rect {

	cx := kf.state.AtVec(0)
	cy := kf.state.AtVec(1)

	w := kf.lastSize.Width
	h := kf.lastSize.Height

	if kf.goal == FilterRect {
		w = math.Max(kf.state.AtVec(2), 0)
		h = math.Max(kf.state.AtVec(3), 0)
	}

	return Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}
