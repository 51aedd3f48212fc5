package tracker

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// histBins is the per channel bin count used for region colour histograms
const histBins = 64

// EmbeddingsExtractor produces appearance vectors for region crops using a
// DNN backend loaded through gocv.  A single extractor instance may be
// shared by several object types; Extract is only called from the
// single threaded extraction phase so no locking is needed.
type EmbeddingsExtractor struct {
	net         gocv.Net
	inputLayer  string
	outputLayer string
	inputSize   image.Point
}

// NewEmbeddingsExtractor loads the backend network described by param.  An
// error leaves the backend unregistered; the affected object types then
// fall back to empty embeddings.
func NewEmbeddingsExtractor(param EmbeddingParam) (*EmbeddingsExtractor, error) {

	net := gocv.ReadNet(param.WeightsPath, param.ConfigPath)

	if net.Empty() {
		return nil, errors.Errorf("can't read network %s (config %s)",
			param.WeightsPath, param.ConfigPath)
	}

	size := param.InputSize

	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(128, 256)
	}

	return &EmbeddingsExtractor{
		net:         net,
		inputLayer:  param.InputLayer,
		outputLayer: param.OutputLayer,
		inputSize:   size,
	}, nil
}

// Extract runs the backend over the crop of frame described by brect and
// returns the embedding vector with its cached self dot product.  An empty
// crop yields an empty embedding.
func (e *EmbeddingsExtractor) Extract(frame gocv.Mat, brect Rect) ([]float32, float64, error) {

	roi := brect.ToImage(image.Rect(0, 0, frame.Cols(), frame.Rows()))

	if roi.Dx() < 1 || roi.Dy() < 1 {
		return nil, 0, nil
	}

	region := frame.Region(roi)
	defer region.Close()

	blob := gocv.BlobFromImage(region, 1.0/255.0, e.inputSize,
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	e.net.SetInput(blob, e.inputLayer)

	output := e.net.Forward(e.outputLayer)
	defer output.Close()

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, 0, errors.Wrap(err, "can't read network output")
	}

	// copy out of the Mat backed buffer before it is released
	embedding := make([]float32, len(data))
	copy(embedding, data)

	var dot float64
	for _, v := range embedding {
		dot += float64(v) * float64(v)
	}

	return embedding, dot, nil
}

// Close frees the backend network
func (e *EmbeddingsExtractor) Close() error {
	return e.net.Close()
}

// calcRegionHist computes the concatenated per channel colour histogram of
// the crop of frame described by brect, 64 bins per channel min-max
// normalised to [0, 1].  An empty crop yields nil.
func calcRegionHist(frame gocv.Mat, brect Rect) []float32 {

	roi := brect.ToImage(image.Rect(0, 0, frame.Cols(), frame.Rows()))

	if roi.Dx() < 1 || roi.Dy() < 1 {
		return nil
	}

	region := frame.Region(roi)
	defer region.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	channels := frame.Channels()
	out := make([]float32, 0, histBins*channels)

	for c := 0; c < channels; c++ {

		hist := gocv.NewMat()

		gocv.CalcHist([]gocv.Mat{region}, []int{c}, mask, &hist,
			[]int{histBins}, []float64{0, 255}, false)
		gocv.Normalize(hist, &hist, 0, 1, gocv.NormMinMax)

		data, err := hist.DataPtrFloat32()

		if err == nil {
			out = append(out, data...)
		}

		hist.Close()
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// bhattacharyyaDistance computes the Bhattacharyya histogram distance using
// the same formulation as the OpenCV histogram comparison
func bhattacharyyaDistance(h1, h2 []float32) float64 {

	var s1, s2, sb float64

	for i := range h1 {
		a := float64(h1[i])
		b := float64(h2[i])
		s1 += a
		s2 += b
		sb += math.Sqrt(a * b)
	}

	denom := math.Sqrt(s1 * s2)

	if denom <= 0 {
		return 1
	}

	v := 1 - sb/denom

	if v < 0 {
		v = 0
	}

	return math.Sqrt(v)
}
