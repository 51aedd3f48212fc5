package tracker

import (
	hungarian "github.com/arthurkushman/go-hungarian"
)

// HungarianSolver finds the globally optimal assignment with the
// Kuhn-Munkres algorithm.  Rectangular problems are padded to a square
// matrix with virtual rows and columns priced just above the largest real
// cost, so every real pairing beats a virtual one.
type HungarianSolver struct{}

// Solve implements the AssignmentSolver contract
func (hs *HungarianSolver) Solve(costMatrix []float64, numTracks, numRegions int,
	assignment []int, maxCost float64) {

	for i := range assignment {
		assignment[i] = Unassigned
	}

	if numTracks == 0 || numRegions == 0 {
		return
	}

	size := numTracks
	if numRegions > size {
		size = numRegions
	}

	padCost := maxCost + 1

	matrix := make([][]float64, size)

	for i := range matrix {
		row := make([]float64, size)
		for j := range row {
			if i < numTracks && j < numRegions {
				row[j] = costMatrix[i+j*numTracks]
			} else {
				row[j] = padCost
			}
		}
		matrix[i] = row
	}

	solved := hungarian.SolveMin(matrix)

	for i := 0; i < numTracks; i++ {
		// ugly syntax but the row map holds exactly one entry
		for j := range solved[i] {
			if j < numRegions {
				assignment[i] = j
			}
			break
		}
	}
}
