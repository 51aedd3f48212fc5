package tracker

import "image"

// ObjectType identifies the detector class a region belongs to.
type ObjectType int

// TypeUnknown marks regions carrying no classification.  Under the default
// compatibility predicate it can be associated with any other type.
const TypeUnknown ObjectType = -1

// Region is a single detection produced for one frame.  It is immutable
// once constructed: the tracker only ever reads it.
type Region struct {
	// BRect is the axis aligned bounding rectangle of the detection
	BRect Rect
	// RRect is the oriented rectangle (center, size, angle) of the detection
	RRect RotatedRect
	// Type is the detector class of the object
	Type ObjectType
	// Confidence is the detection score
	Confidence float64
}

// NewRegion creates a Region from a bounding rectangle.  The oriented
// rectangle is derived from the bounding rectangle with zero angle.
func NewRegion(brect Rect, objType ObjectType, confidence float64) Region {
	return Region{
		BRect: brect,
		RRect: RotatedRect{
			Center: brect.Center(),
			Size:   SizeF{Width: brect.Width, Height: brect.Height},
		},
		Type:       objType,
		Confidence: confidence,
	}
}

// NewRegionFromImage creates a Region from a stdlib image.Rectangle, the
// format object detectors commonly report boxes in
func NewRegionFromImage(r image.Rectangle, objType ObjectType, confidence float64) Region {
	return NewRegion(NewRectFromImage(r), objType, confidence)
}

// RegionEmbedding holds the appearance descriptors computed for one region
// on one frame.  Instances are built once per frame by the extractors and
// consumed by the cost matrix; the track assigned to the region merges the
// descriptors into its own stored appearance.
type RegionEmbedding struct {
	// Hist is the normalised colour histogram of the region crop, 64 bins
	// per channel concatenated across all frame channels.  Empty when the
	// histogram term is disabled or the crop was empty.
	Hist []float32
	// Embedding is the appearance feature vector produced by the DNN
	// backend registered for the region's object type.  Empty when no
	// backend is registered.
	Embedding []float32
	// Dot caches the self dot product of Embedding for cosine denominators
	Dot float64
}

// HasHist reports whether a histogram was computed for the region
func (re *RegionEmbedding) HasHist() bool {
	return re != nil && len(re.Hist) > 0
}

// HasEmbedding reports whether an embedding was computed for the region
func (re *RegionEmbedding) HasEmbedding() bool {
	return re != nil && len(re.Embedding) > 0
}
