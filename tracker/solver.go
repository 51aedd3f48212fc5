package tracker

import "github.com/pkg/errors"

// Unassigned marks a track row the solver left without a region
const Unassigned = -1

// AssignmentSolver solves the track to region assignment problem.  The cost
// matrix is column major: costMatrix[i + j*numTracks] is the cost of
// assigning track i to region j.  Solve fills assignment with a region
// index or Unassigned per track; any region index appears at most once.
// The solver does not apply the gating threshold to the costs it optimizes,
// the caller filters the solved pairs afterwards.
type AssignmentSolver interface {
	Solve(costMatrix []float64, numTracks, numRegions int, assignment []int, maxCost float64)
}

// NewAssignmentSolver returns the solver strategy selected by the settings
func NewAssignmentSolver(s *Settings) (AssignmentSolver, error) {

	switch s.MatchType {
	case MatchHungarian:
		return &HungarianSolver{}, nil
	case MatchBipart:
		return &BipartiteSolver{Threshold: s.DistThreshold}, nil
	}

	return nil, errors.Errorf("unknown match type %d", s.MatchType)
}
