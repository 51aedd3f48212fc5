package tracker

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
	"gocv.io/x/gocv"
)

// Tracker maintains the set of live tracks and assimilates each frame's
// detections into it: deciding which regions continue which tracks, which
// start new ones and which tracks are retired.  Update is not reentrant,
// callers must serialize frames.
type Tracker struct {
	settings *Settings
	solver   AssignmentSolver

	tracks      []*Track
	nextTrackID int

	// extractors maps object types to their shared appearance backend
	extractors map[ObjectType]*EmbeddingsExtractor

	prevFrame gocv.Mat
}

// NewTracker builds a tracker from the given settings.  Embedding backends
// that fail to initialize are reported once here and disabled; their object
// types fall back to empty embeddings and the cosine term is skipped.
func NewTracker(settings *Settings) (*Tracker, error) {

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker settings: %w", err)
	}

	solver, err := NewAssignmentSolver(settings)

	if err != nil {
		return nil, fmt.Errorf("can't create assignment solver: %w", err)
	}

	t := &Tracker{
		settings:   settings,
		solver:     solver,
		extractors: make(map[ObjectType]*EmbeddingsExtractor),
		prevFrame:  gocv.NewMat(),
	}

	for _, param := range settings.Embeddings {

		extractor, err := NewEmbeddingsExtractor(param)

		if err != nil {
			logrus.WithFields(logrus.Fields{
				"config":  param.ConfigPath,
				"weights": param.WeightsPath,
			}).WithError(err).Warn("embeddings extractor disabled")
			continue
		}

		registered := false

		for _, objType := range param.ObjectTypes {
			// the first backend registered for a type wins
			if _, ok := t.extractors[objType]; ok {
				continue
			}
			t.extractors[objType] = extractor
			registered = true
		}

		if !registered {
			extractor.Close()
		}
	}

	return t, nil
}

// Update assimilates the regions detected on currFrame: extract appearance,
// build the cost matrix, solve the assignment, gate, retire, birth and
// finally update every surviving track in parallel.  The frame is copied
// into the previous frame slot for the next call.
func (t *Tracker) Update(regions []Region, currFrame gocv.Mat, fps float64) {

	regionEmbeddings := t.calcEmbeddings(regions, currFrame)

	numTracks := len(t.tracks)
	numRegions := len(regions)

	assignment := make([]int, numTracks)

	for i := range assignment {
		assignment[i] = Unassigned
	}

	if numTracks > 0 {

		costMatrix := make([]float64, numTracks*numRegions)
		maxPossibleCost := float64(currFrame.Cols() * currFrame.Rows())
		maxCost := t.buildDistanceMatrix(regions, regionEmbeddings, costMatrix, maxPossibleCost)

		if numRegions > 0 {
			t.solver.Solve(costMatrix, numTracks, numRegions, assignment, maxCost)
		}

		// void solved pairs over the gating threshold; a voided pair counts
		// as a skipped frame like an unassigned one
		for i := range assignment {
			if assignment[i] != Unassigned {
				if costMatrix[i+assignment[i]*numTracks] > t.settings.DistThreshold {
					assignment[i] = Unassigned
					t.tracks[i].IncSkippedFrames()
				}
			} else {
				t.tracks[i].IncSkippedFrames()
			}
		}

		// retire dead tracks, erasing assignment slots in lock step so the
		// indices keep lining up
		staticTimeout := int(math.Round(fps * (t.settings.MaxStaticTime - t.settings.MinStaticTime)))

		for i := 0; i < len(t.tracks); {
			track := t.tracks[i]

			if track.skippedFrames > t.settings.MaximumAllowedSkippedFrames ||
				track.IsOutOfFrame() ||
				track.IsStaticTimeout(staticTimeout) {
				t.tracks = append(t.tracks[:i], t.tracks[i+1:]...)
				assignment = append(assignment[:i], assignment[i+1:]...)
			} else {
				i++
			}
		}
	}

	// every region no track claimed starts a new identity
	for j := range regions {

		claimed := false

		for _, a := range assignment {
			if a == j {
				claimed = true
				break
			}
		}

		if claimed {
			continue
		}

		var re *RegionEmbedding
		if j < len(regionEmbeddings) {
			re = &regionEmbeddings[j]
		}

		t.tracks = append(t.tracks, NewTrack(regions[j], re, t.settings, t.nextTrackID))
		t.nextTrackID++
	}

	abandonedWindow := 0
	if t.settings.UseAbandonedDetection {
		abandonedWindow = int(math.Round(t.settings.MinStaticTime * fps))
	}

	// parallel update over the pre-birth tracks; every goroutine writes only
	// its own track and reads the shared frame data, so no locks are needed
	var wg sync.WaitGroup

	for i := range assignment {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			track := t.tracks[i]

			if assignment[i] != Unassigned {
				var re *RegionEmbedding
				if assignment[i] < len(regionEmbeddings) {
					re = &regionEmbeddings[assignment[i]]
				}
				track.Update(regions[assignment[i]], re, true,
					t.settings.MaxTraceLength, t.prevFrame, currFrame,
					abandonedWindow, t.settings.MaxSpeedForStatic)
			} else {
				track.Update(Region{}, nil, false,
					t.settings.MaxTraceLength, t.prevFrame, currFrame,
					0, t.settings.MaxSpeedForStatic)
			}
		}(i)
	}

	wg.Wait()

	currFrame.CopyTo(&t.prevFrame)
}

// calcEmbeddings runs the appearance extractors over all regions.  Returns
// nil when both appearance terms are disabled so no descriptor work is done
// at all.
func (t *Tracker) calcEmbeddings(regions []Region, currFrame gocv.Mat) []RegionEmbedding {

	if len(regions) == 0 {
		return nil
	}

	needHist := t.settings.DistWeights[DistHist] > 0
	needEmbedding := t.settings.DistWeights[DistFeatureCos] > 0

	if !needHist && !needEmbedding {
		return nil
	}

	regionEmbeddings := make([]RegionEmbedding, len(regions))

	if needHist {
		for j := range regions {
			regionEmbeddings[j].Hist = calcRegionHist(currFrame, regions[j].BRect)
		}
	}

	if needEmbedding {
		for j := range regions {

			extractor, ok := t.extractors[regions[j].Type]
			if !ok {
				continue
			}

			embedding, dot, err := extractor.Extract(currFrame, regions[j].BRect)

			if err != nil {
				logrus.WithError(err).Debug("embedding extraction failed")
				continue
			}

			regionEmbeddings[j].Embedding = embedding
			regionEmbeddings[j].Dot = dot
		}
	}

	return regionEmbeddings
}

// Tracks returns the live tracks.  The slice is owned by the tracker and
// only valid until the next Update call.
func (t *Tracker) Tracks() []*Track {
	return t.tracks
}

// TracksJSON renders the live tracks as a JSON array of objects with their
// id, type, smoothed rect, counters and trace
func (t *Tracker) TracksJSON() string {

	out := "[]"

	for i, track := range t.tracks {

		prefix := fmt.Sprintf("%d.", i)
		rect := track.lastRegion.BRect

		out, _ = sjson.Set(out, prefix+"id", track.id)
		out, _ = sjson.Set(out, prefix+"type", int(track.lastRegion.Type))
		out, _ = sjson.Set(out, prefix+"rect", []float64{rect.X, rect.Y, rect.Width, rect.Height})
		out, _ = sjson.Set(out, prefix+"skipped_frames", track.skippedFrames)
		out, _ = sjson.Set(out, prefix+"static_frames", track.staticFrames)

		trace := make([]float64, 0, len(track.trace)*2)
		for _, pt := range track.trace {
			trace = append(trace, pt.X, pt.Y)
		}
		out, _ = sjson.Set(out, prefix+"trace", trace)
	}

	return out
}

// Close releases the appearance backends and the stored previous frame
func (t *Tracker) Close() error {

	var firstErr error

	closed := make(map[*EmbeddingsExtractor]bool)

	for _, extractor := range t.extractors {
		if closed[extractor] {
			continue
		}
		closed[extractor] = true

		if err := extractor.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := t.prevFrame.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
