package tracker

import (
	"image"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// MatchType selects the assignment solver strategy
type MatchType int

const (
	// MatchHungarian solves the assignment optimally with the Kuhn-Munkres
	// algorithm on a padded square matrix
	MatchHungarian MatchType = iota
	// MatchBipart matches on a bipartite graph keeping only edges within
	// the gating distance, cheaper for sparse gated problems
	MatchBipart
)

// KalmanType selects the motion filter family
type KalmanType int

// KalmanLinear is the linear Kalman filter.  It is the only implemented
// family; Validate rejects other values.
const KalmanLinear KalmanType = iota

// FilterGoal selects what the motion filter estimates
type FilterGoal int

const (
	// FilterCenter filters the region center only
	FilterCenter FilterGoal = iota
	// FilterRect filters the full bounding rectangle (center and size)
	FilterRect
)

// LostTrackType tags the continuation policy stored on tracks that lose
// their detection.  Visual single-object continuation backends are external
// collaborators, so only the tag travels through the core.
type LostTrackType int

// TrackNone performs no visual continuation for lost tracks
const TrackNone LostTrackType = iota

// Indices into the distance weight array.  The cost matrix evaluates the
// terms in exactly this order.
const (
	// DistCenters weighs the prediction ellipse distance between the track
	// and the region center
	DistCenters = iota
	// DistRects weighs the width/height mismatch, coupled to the ellipse
	DistRects
	// DistJaccard weighs 1 - IoU of the bounding rectangles
	DistJaccard
	// DistHist weighs the Bhattacharyya distance between colour histograms
	DistHist
	// DistFeatureCos weighs the cosine distance between embeddings
	DistFeatureCos
	// DistsCount is the number of distance terms
	DistsCount
)

// EmbeddingParam describes one DNN appearance backend and the object types
// it serves.
type EmbeddingParam struct {
	// ConfigPath is the network config file (may be empty for single file
	// formats such as ONNX)
	ConfigPath string
	// WeightsPath is the network weights file
	WeightsPath string
	// InputLayer is the input layer name passed to SetInput
	InputLayer string
	// OutputLayer is the layer read back after the forward pass
	OutputLayer string
	// InputSize is the tensor input size crops are scaled to.  Defaults to
	// 128x256 when zero.
	InputSize image.Point
	// ObjectTypes lists the type tags routed to this backend
	ObjectTypes []ObjectType
}

// Settings holds the tracker configuration.  All fields are immutable after
// the tracker is constructed.
type Settings struct {
	// MatchType selects the assignment solver strategy
	MatchType MatchType
	// DistThreshold voids solved assignments whose cost exceeds it
	DistThreshold float64
	// DistWeights are the non-negative weights for the
	// {Centers, Rects, Jaccard, Hist, FeatureCos} terms; zero disables a term
	DistWeights [DistsCount]float64

	// KalmanType selects the motion filter family
	KalmanType KalmanType
	// FilterGoal selects center-only or full rectangle filtering
	FilterGoal FilterGoal
	// DT is the filter time step
	DT float64
	// AccelNoiseMag scales the filter process noise
	AccelNoiseMag float64
	// UseAcceleration enables the constant acceleration motion model
	UseAcceleration bool

	// MaxTraceLength bounds the per track history of smoothed centers
	MaxTraceLength int
	// MaximumAllowedSkippedFrames retires a track once it was not
	// associated for more than this many frames
	MaximumAllowedSkippedFrames int

	// MinStaticTime and MaxStaticTime bound the static object window in
	// seconds; a static track is retired after
	// round(fps * (MaxStaticTime - MinStaticTime)) frames
	MinStaticTime float64
	MaxStaticTime float64
	// MaxSpeedForStatic is the displacement in pixels below which a frame
	// counts as static
	MaxSpeedForStatic float64
	// UseAbandonedDetection enables the static object side channel with a
	// window of round(MinStaticTime * fps) frames
	UseAbandonedDetection bool

	// MinAreaRadiusPix is the minimum prediction ellipse radius in pixels.
	// Negative values switch to MinAreaRadiusK.
	MinAreaRadiusPix float64
	// MinAreaRadiusK is the minimum ellipse radius as a fraction of the
	// last region size, used when MinAreaRadiusPix is negative
	MinAreaRadiusK float64

	// LostTrackType tags the continuation policy for lost tracks
	LostTrackType LostTrackType

	// HistEMACoeff is the exponential smoothing weight merging a newly
	// associated histogram into the stored one, in (0, 1)
	HistEMACoeff float64
	// EmbeddingEMACoeff is the exponential smoothing weight for stored
	// embeddings, in (0, 1)
	EmbeddingEMACoeff float64

	// Embeddings configures the DNN appearance backends
	Embeddings []EmbeddingParam

	// TypeCompat permits association across object types.  When nil, types
	// are compatible when equal or when either side is TypeUnknown.
	TypeCompat func(a, b ObjectType) bool
}

// NewSettings returns settings with the default configuration
func NewSettings() *Settings {
	return &Settings{
		MatchType:     MatchHungarian,
		DistThreshold: 0.8,
		// sum of the enabled weights should stay around 1
		DistWeights: [DistsCount]float64{0.25, 0.25, 0.5, 0, 0},

		KalmanType:    KalmanLinear,
		FilterGoal:    FilterCenter,
		DT:            0.3,
		AccelNoiseMag: 0.1,

		MaxTraceLength:              50,
		MaximumAllowedSkippedFrames: 25,

		MinStaticTime:     5,
		MaxStaticTime:     25,
		MaxSpeedForStatic: 10,

		MinAreaRadiusPix: -1,
		MinAreaRadiusK:   0.8,

		HistEMACoeff:      0.25,
		EmbeddingEMACoeff: 0.1,
	}
}

// CheckType reports whether a track of type a may be associated with a
// region of type b
func (s *Settings) CheckType(a, b ObjectType) bool {
	if s.TypeCompat != nil {
		return s.TypeCompat(a, b)
	}
	return a == b || a == TypeUnknown || b == TypeUnknown
}

// Validate checks the settings for values the tracker cannot work with
func (s *Settings) Validate() error {

	if s.MatchType != MatchHungarian && s.MatchType != MatchBipart {
		return errors.Errorf("unknown match type %d", s.MatchType)
	}

	if s.KalmanType != KalmanLinear {
		return errors.Errorf("unsupported kalman type %d", s.KalmanType)
	}

	if s.FilterGoal != FilterCenter && s.FilterGoal != FilterRect {
		return errors.Errorf("unknown filter goal %d", s.FilterGoal)
	}

	if s.DistThreshold < 0 {
		return errors.New("dist threshold must be non-negative")
	}

	for i, w := range s.DistWeights {
		if w < 0 {
			return errors.Errorf("distance weight %d must be non-negative", i)
		}
	}

	if s.DT <= 0 {
		return errors.New("dt must be positive")
	}

	if s.MaxTraceLength < 1 {
		return errors.New("max trace length must be at least 1")
	}

	if s.MaxStaticTime < s.MinStaticTime {
		return errors.New("max static time must not be below min static time")
	}

	if s.HistEMACoeff <= 0 || s.HistEMACoeff >= 1 {
		return errors.New("histogram EMA coefficient must be in (0, 1)")
	}

	if s.EmbeddingEMACoeff <= 0 || s.EmbeddingEMACoeff >= 1 {
		return errors.New("embedding EMA coefficient must be in (0, 1)")
	}

	return nil
}

// LoadSettings parses tracker settings from JSON.  Missing keys keep their
// defaults; unknown enum strings are an error.
func LoadSettings(data []byte) (*Settings, error) {

	if !gjson.ValidBytes(data) {
		return nil, errors.New("settings are not valid JSON")
	}

	s := NewSettings()
	root := gjson.ParseBytes(data)

	if v := root.Get("match_type"); v.Exists() {
		switch v.String() {
		case "hungarian":
			s.MatchType = MatchHungarian
		case "bipart":
			s.MatchType = MatchBipart
		default:
			return nil, errors.Errorf("unknown match_type %q", v.String())
		}
	}

	if v := root.Get("filter_goal"); v.Exists() {
		switch v.String() {
		case "center":
			s.FilterGoal = FilterCenter
		case "rect":
			s.FilterGoal = FilterRect
		default:
			return nil, errors.Errorf("unknown filter_goal %q", v.String())
		}
	}

	if v := root.Get("dist_threshold"); v.Exists() {
		s.DistThreshold = v.Float()
	}

	if v := root.Get("dist_weights"); v.Exists() {
		weights := v.Array()
		if len(weights) != DistsCount {
			return nil, errors.Errorf("dist_weights needs %d entries, got %d", DistsCount, len(weights))
		}
		for i, w := range weights {
			s.DistWeights[i] = w.Float()
		}
	}

	if v := root.Get("dt"); v.Exists() {
		s.DT = v.Float()
	}
	if v := root.Get("accel_noise_mag"); v.Exists() {
		s.AccelNoiseMag = v.Float()
	}
	if v := root.Get("use_acceleration"); v.Exists() {
		s.UseAcceleration = v.Bool()
	}
	if v := root.Get("max_trace_length"); v.Exists() {
		s.MaxTraceLength = int(v.Int())
	}
	if v := root.Get("max_skipped_frames"); v.Exists() {
		s.MaximumAllowedSkippedFrames = int(v.Int())
	}
	if v := root.Get("min_static_time"); v.Exists() {
		s.MinStaticTime = v.Float()
	}
	if v := root.Get("max_static_time"); v.Exists() {
		s.MaxStaticTime = v.Float()
	}
	if v := root.Get("max_speed_for_static"); v.Exists() {
		s.MaxSpeedForStatic = v.Float()
	}
	if v := root.Get("use_abandoned_detection"); v.Exists() {
		s.UseAbandonedDetection = v.Bool()
	}
	if v := root.Get("min_area_radius_pix"); v.Exists() {
		s.MinAreaRadiusPix = v.Float()
	}
	if v := root.Get("min_area_radius_k"); v.Exists() {
		s.MinAreaRadiusK = v.Float()
	}
	if v := root.Get("hist_ema_coeff"); v.Exists() {
		s.HistEMACoeff = v.Float()
	}
	if v := root.Get("embedding_ema_coeff"); v.Exists() {
		s.EmbeddingEMACoeff = v.Float()
	}

	root.Get("embeddings").ForEach(func(_, emb gjson.Result) bool {
		param := EmbeddingParam{
			ConfigPath:  emb.Get("config").String(),
			WeightsPath: emb.Get("weights").String(),
			InputLayer:  emb.Get("input_layer").String(),
			OutputLayer: emb.Get("output_layer").String(),
			InputSize: image.Pt(
				int(emb.Get("input_width").Int()),
				int(emb.Get("input_height").Int()),
			),
		}
		emb.Get("object_types").ForEach(func(_, objType gjson.Result) bool {
			param.ObjectTypes = append(param.ObjectTypes, ObjectType(objType.Int()))
			return true
		})
		s.Embeddings = append(s.Embeddings, param)
		return true
	})

	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "loaded settings are invalid")
	}

	return s, nil
}
