package tracker

import (
	"math"

	"gocv.io/x/gocv"
)

// Track is one tracked identity.  It wraps a motion filter and carries the
// id, bounded trace, skipped/static frame counters and the EMA smoothed
// appearance descriptors used by the cost matrix.
type Track struct {
	id     int
	filter *KalmanFilter

	lastRegion      Region
	predictionPoint Point

	trace         []Point
	skippedFrames int
	staticFrames  int
	outOfFrame    bool

	lostTrackType LostTrackType

	histCoeff float64
	embCoeff  float64

	// stored appearance, merged from associated regions
	hist         []float32
	embedding    []float32
	embeddingDot float64
}

// NewTrack starts a new track on an unassigned region.  The region
// embedding may be nil when no appearance terms are enabled.
func NewTrack(reg Region, re *RegionEmbedding, s *Settings, id int) *Track {

	t := &Track{
		id:              id,
		filter:          NewKalmanFilter(s, reg.BRect),
		lastRegion:      reg,
		predictionPoint: reg.BRect.Center(),
		lostTrackType:   s.LostTrackType,
		histCoeff:       s.HistEMACoeff,
		embCoeff:        s.EmbeddingEMACoeff,
		trace:           make([]Point, 0, s.MaxTraceLength),
	}

	t.trace = append(t.trace, t.predictionPoint)

	if re != nil {
		t.hist = append([]float32(nil), re.Hist...)
		t.embedding = append([]float32(nil), re.Embedding...)
		t.embeddingDot = re.Dot
	}

	return t
}

// ID returns the track's identifier
func (t *Track) ID() int {
	return t.id
}

// LastRegion returns the smoothed region emitted on the last update
func (t *Track) LastRegion() Region {
	return t.lastRegion
}

// Trace returns the history of smoothed center points.  Be careful: this is
// not a copy of the trace, but a reference to it.
func (t *Track) Trace() []Point {
	return t.trace
}

// SkippedFrames returns the number of frames since the last association
func (t *Track) SkippedFrames() int {
	return t.skippedFrames
}

// StaticFrames returns the number of consecutive near motionless frames
func (t *Track) StaticFrames() int {
	return t.staticFrames
}

// Type returns the object type of the last associated region
func (t *Track) Type() ObjectType {
	return t.lastRegion.Type
}

// IsOutOfFrame reports whether the smoothed region left the frame entirely
// on the last update
func (t *Track) IsOutOfFrame() bool {
	return t.outOfFrame
}

// IsStaticTimeout reports whether the track has been static for at least
// framesTime frames
func (t *Track) IsStaticTimeout(framesTime int) bool {
	return t.staticFrames >= framesTime
}

// CalcPredictionEllipse builds the gating ellipse around the predicted
// center.  The axes are at least minRadius in each direction and grow with
// the estimated velocity; at significant speed the ellipse is rotated
// toward the motion and shifted half a step along it.
func (t *Track) CalcPredictionEllipse(minRadius SizeF) RotatedRect {

	vx, vy := t.filter.Velocity()
	dx := 3 * vx
	dy := 3 * vy

	ellipse := RotatedRect{
		Center: t.predictionPoint,
		Size: SizeF{
			Width:  math.Max(minRadius.Width, math.Abs(dx)),
			Height: math.Max(minRadius.Height, math.Abs(dy)),
		},
	}

	if math.Abs(dx)+math.Abs(dy) > 4 {
		ellipse.Angle = math.Atan2(dy, dx)

		half := math.Hypot(dx, dy) / 2
		if half > ellipse.Size.Width {
			ellipse.Size.Width = half
		}

		ellipse.Center.X += dx / 2
		ellipse.Center.Y += dy / 2
	}

	return ellipse
}

// IsInsideArea returns the ellipse quadratic form (x/a)² + (y/b)² of pt in
// the rotated ellipse frame, the square of the normalised radial distance:
// values up to 1 are inside, values above 1 outside.  The value is reused by
// the cost matrix as a smoothness term.
func (t *Track) IsInsideArea(pt Point, ellipse RotatedRect) float64 {

	if ellipse.Size.Width <= 0 || ellipse.Size.Height <= 0 {
		return math.MaxFloat64
	}

	dx := pt.X - ellipse.Center.X
	dy := pt.Y - ellipse.Center.Y

	// rotate into the ellipse frame
	sin, cos := math.Sincos(-ellipse.Angle)
	rx := dx*cos - dy*sin
	ry := dx*sin + dy*cos

	return rx*rx/(ellipse.Size.Width*ellipse.Size.Width) +
		ry*ry/(ellipse.Size.Height*ellipse.Size.Height)
}

// DistCenter returns the normalised center displacement to the region,
// saturating at 1 beyond the combined rectangle diagonals
func (t *Track) DistCenter(reg Region) float64 {

	d := euclideanDistance(t.predictionPoint, reg.RRect.Center)
	norm := t.lastRegion.BRect.Diagonal() + reg.BRect.Diagonal()

	if norm <= 0 {
		return 1
	}

	return math.Min(d/norm, 1)
}

// widthDist returns the width similarity ratio, 1 for equal widths
func (t *Track) widthDist(reg Region) float64 {

	w1 := t.lastRegion.RRect.Size.Width
	w2 := reg.RRect.Size.Width

	if w1 <= 0 || w2 <= 0 {
		return 0
	}

	if w1 < w2 {
		return w1 / w2
	}

	return w2 / w1
}

// heightDist returns the height similarity ratio, 1 for equal heights
func (t *Track) heightDist(reg Region) float64 {

	h1 := t.lastRegion.RRect.Size.Height
	h2 := reg.RRect.Size.Height

	if h1 <= 0 || h2 <= 0 {
		return 0
	}

	if h1 < h2 {
		return h1 / h2
	}

	return h2 / h1
}

// DistRect combines the width and height mismatch into one value in [0, 1]
func (t *Track) DistRect(reg Region) float64 {
	return 1 - (t.widthDist(reg)+t.heightDist(reg))*0.5
}

// DistJaccard returns 1 - IoU of the bounding rectangles
func (t *Track) DistJaccard(reg Region) float64 {
	return 1 - t.lastRegion.BRect.IoU(reg.BRect)
}

// DistHist returns the Bhattacharyya distance between the stored histogram
// and the region's, or 1 when either histogram is missing
func (t *Track) DistHist(re *RegionEmbedding) float64 {
	if d, ok := t.histDistance(re); ok {
		return d
	}
	return 1
}

// histDistance reports ok=false when the term has to be skipped: either
// histogram missing or a dimension mismatch
func (t *Track) histDistance(re *RegionEmbedding) (float64, bool) {
	if re == nil || len(t.hist) == 0 || len(re.Hist) != len(t.hist) {
		return 0, false
	}
	return bhattacharyyaDistance(t.hist, re.Hist), true
}

// DistCosine returns the cosine distance between the stored embedding and
// the region's, or 1 when either embedding is missing
func (t *Track) DistCosine(re *RegionEmbedding) float64 {
	if d, ok := t.cosineTo(re); ok {
		return d
	}
	return 1
}

// cosineTo reports ok=false when the term has to be skipped: either
// embedding missing, a dimension mismatch or a zero norm
func (t *Track) cosineTo(re *RegionEmbedding) (float64, bool) {

	if re == nil || len(t.embedding) == 0 || len(re.Embedding) != len(t.embedding) {
		return 0, false
	}

	denom := math.Sqrt(t.embeddingDot * re.Dot)

	if denom <= 0 {
		return 0, false
	}

	var dot float64
	for i := range t.embedding {
		dot += float64(t.embedding[i]) * float64(re.Embedding[i])
	}

	d := 1 - dot/denom

	if d < 0 {
		return 0, true
	}
	if d > 1 {
		return 1, true
	}

	return d, true
}

// Update runs one filter step for the track.  With an assigned region the
// measurement is ingested, the skipped counter reset and the appearance
// merged; without one the filter coasts and the counter grows.  In both
// cases the smoothed center is appended to the trace and the static and
// out-of-frame states are refreshed.
func (t *Track) Update(reg Region, re *RegionEmbedding, assigned bool,
	maxTraceLen int, prevFrame, currFrame gocv.Mat,
	abandonedWindow int, maxStaticSpeed float64) {

	t.filter.Predict()
	t.predictionPoint = t.filter.LastRect().Center()

	var smoothed Rect

	if assigned {
		smoothed = t.filter.Update(reg.BRect, true)
		t.skippedFrames = 0
		t.lastRegion = reg
		t.mergeAppearance(re)
	} else {
		smoothed = t.filter.Update(t.lastRegion.BRect, false)
	}

	t.lastRegion.BRect = smoothed
	t.lastRegion.RRect = RotatedRect{
		Center: smoothed.Center(),
		Size:   SizeF{Width: smoothed.Width, Height: smoothed.Height},
		Angle:  t.lastRegion.RRect.Angle,
	}
	t.predictionPoint = smoothed.Center()

	t.trace = append(t.trace, t.predictionPoint)
	if maxTraceLen > 0 && len(t.trace) > maxTraceLen {
		t.trace = t.trace[len(t.trace)-maxTraceLen:]
	}

	t.checkStatic(abandonedWindow, maxStaticSpeed)

	if !currFrame.Empty() {
		frame := Rect{
			Width:  float64(currFrame.Cols()),
			Height: float64(currFrame.Rows()),
		}
		t.outOfFrame = !smoothed.Intersects(frame)
	}
}

// IncSkippedFrames increments the skipped frame counter
func (t *Track) IncSkippedFrames() {
	t.skippedFrames++
}

// checkStatic refreshes the static frame counter from the displacement over
// the last window trace points.  A window of zero disables the check.
func (t *Track) checkStatic(window int, maxSpeed float64) {

	if window <= 0 {
		t.staticFrames = 0
		return
	}

	if len(t.trace) < 2 {
		return
	}

	if window > len(t.trace) {
		window = len(t.trace)
	}

	d := euclideanDistance(t.trace[len(t.trace)-window], t.trace[len(t.trace)-1])

	if d < maxSpeed {
		t.staticFrames++
	} else {
		t.staticFrames = 0
	}
}

// mergeAppearance folds the region's descriptors into the stored ones with
// exponential smoothing.  Dimension mismatches leave the stored descriptor
// untouched.
func (t *Track) mergeAppearance(re *RegionEmbedding) {

	if re == nil {
		return
	}

	if len(re.Hist) > 0 {
		switch {
		case len(t.hist) == len(re.Hist):
			a := float32(t.histCoeff)
			for i := range t.hist {
				t.hist[i] = (1-a)*t.hist[i] + a*re.Hist[i]
			}
		case len(t.hist) == 0:
			t.hist = append([]float32(nil), re.Hist...)
		}
	}

	if len(re.Embedding) > 0 {
		switch {
		case len(t.embedding) == len(re.Embedding):
			a := float32(t.embCoeff)
			for i := range t.embedding {
				t.embedding[i] = (1-a)*t.embedding[i] + a*re.Embedding[i]
			}
			var dot float64
			for _, v := range t.embedding {
				dot += float64(v) * float64(v)
			}
			t.embeddingDot = dot
		case len(t.embedding) == 0:
			t.embedding = append([]float32(nil), re.Embedding...)
			t.embeddingDot = re.Dot
		}
	}
}
