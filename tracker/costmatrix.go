package tracker

// buildDistanceMatrix fills the column major cost matrix between every
// current track and candidate region, fusing the weighted distance terms in
// the fixed order {Centers, Rects, Jaccard, Hist, FeatureCos}.  Pairs the
// type predicate rejects are priced at maxPossibleCost.  Returns the
// largest entry written, which the Hungarian solver uses to price its
// padding.
//
// The Centers and Rects terms are coupled to the prediction ellipse so the
// geometric cost degrades continuously across the gate boundary instead of
// stepping, keeping the optimizer informative for tracks sitting at the
// edge of their predicted area.
func (t *Tracker) buildDistanceMatrix(regions []Region,
	regionEmbeddings []RegionEmbedding, costMatrix []float64,
	maxPossibleCost float64) float64 {

	s := t.settings
	numTracks := len(t.tracks)
	maxCost := 0.0

	for i, track := range t.tracks {

		// minimum gate radius, absolute or relative to the last region size
		var minRadius SizeF

		if s.MinAreaRadiusPix < 0 {
			minRadius = SizeF{
				Width:  s.MinAreaRadiusK * track.lastRegion.RRect.Size.Width,
				Height: s.MinAreaRadiusK * track.lastRegion.RRect.Size.Height,
			}
		} else {
			minRadius = SizeF{
				Width:  s.MinAreaRadiusPix,
				Height: s.MinAreaRadiusPix,
			}
		}

		predictedArea := track.CalcPredictionEllipse(minRadius)

		for j := range regions {

			reg := &regions[j]
			dist := maxPossibleCost

			if s.CheckType(track.lastRegion.Type, reg.Type) {

				dist = 0
				ellipseDist := track.IsInsideArea(reg.RRect.Center, predictedArea)

				if w := s.DistWeights[DistCenters]; w > 0 {
					if ellipseDist > 1 {
						dist += w
					} else {
						dist += ellipseDist * w
					}
				}

				if w := s.DistWeights[DistRects]; w > 0 {
					if ellipseDist < 1 {
						dw := track.widthDist(*reg)
						dh := track.heightDist(*reg)
						dist += w * (1 - (1-ellipseDist)*(dw+dh)*0.5)
					} else {
						dist += w
					}
				}

				if w := s.DistWeights[DistJaccard]; w > 0 {
					dist += w * track.DistJaccard(*reg)
				}

				if w := s.DistWeights[DistHist]; w > 0 && j < len(regionEmbeddings) {
					if d, ok := track.histDistance(&regionEmbeddings[j]); ok {
						dist += w * d
					}
				}

				if w := s.DistWeights[DistFeatureCos]; w > 0 &&
					reg.Type == track.lastRegion.Type && j < len(regionEmbeddings) {
					if d, ok := track.cosineTo(&regionEmbeddings[j]); ok {
						dist += w * d
					}
				}
			}

			costMatrix[i+j*numTracks] = dist

			if dist > maxCost {
				maxCost = dist
			}
		}
	}

	return maxCost
}
