package tracker

import "sort"

// BipartiteSolver matches tracks to regions on the bipartite graph whose
// edges keep only the pairs within the gating distance.  It finds a maximum
// matching via augmenting paths, trying cheaper edges first and breaking
// ties by row index.  For sparse gated problems this is cheaper than the
// full Hungarian solve.
type BipartiteSolver struct {
	// Threshold is the gating distance edges must stay under
	Threshold float64
}

type bipartEdge struct {
	region int
	cost   float64
}

// Solve implements the AssignmentSolver contract.  maxCost is unused, the
// graph is already bounded by the gating threshold.
func (bs *BipartiteSolver) Solve(costMatrix []float64, numTracks, numRegions int,
	assignment []int, maxCost float64) {

	for i := range assignment {
		assignment[i] = Unassigned
	}

	if numTracks == 0 || numRegions == 0 {
		return
	}

	adjacency := make([][]bipartEdge, numTracks)

	for i := 0; i < numTracks; i++ {
		for j := 0; j < numRegions; j++ {
			if c := costMatrix[i+j*numTracks]; c <= bs.Threshold {
				adjacency[i] = append(adjacency[i], bipartEdge{region: j, cost: c})
			}
		}

		edges := adjacency[i]
		sort.Slice(edges, func(a, b int) bool {
			if edges[a].cost == edges[b].cost {
				return edges[a].region < edges[b].region
			}
			return edges[a].cost < edges[b].cost
		})
	}

	// rows with cheaper best edges augment first, ties resolved by row index
	order := make([]int, 0, numTracks)

	for i := 0; i < numTracks; i++ {
		if len(adjacency[i]) > 0 {
			order = append(order, i)
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return adjacency[order[a]][0].cost < adjacency[order[b]][0].cost
	})

	matchedRegion := make([]int, numRegions)

	for j := range matchedRegion {
		matchedRegion[j] = Unassigned
	}

	var augment func(track int, visited []bool) bool

	augment = func(track int, visited []bool) bool {
		for _, edge := range adjacency[track] {
			if visited[edge.region] {
				continue
			}
			visited[edge.region] = true

			if matchedRegion[edge.region] == Unassigned ||
				augment(matchedRegion[edge.region], visited) {
				matchedRegion[edge.region] = track
				return true
			}
		}
		return false
	}

	for _, i := range order {
		augment(i, make([]bool, numRegions))
	}

	for j := 0; j < numRegions; j++ {
		if matchedRegion[j] != Unassigned {
			assignment[matchedRegion[j]] = j
		}
	}
}
