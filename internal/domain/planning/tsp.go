package planning

import (
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// SequenceResult is the ordered visiting sequence with its total distance
type SequenceResult struct {
	Order              []Stop
	TotalDistanceMiles float64
}

// Sequencer orders stops by greedy nearest-neighbor construction followed by
// 2-opt improvement. Origin and destination stay pinned at the ends. Good to
// about 20 stops; typically within 10-15% of optimal.
type Sequencer struct {
	maxTwoOptIterations int
}

// NewSequencer creates a sequencer with the given 2-opt iteration cap
func NewSequencer(maxTwoOptIterations int) *Sequencer {
	return &Sequencer{maxTwoOptIterations: maxTwoOptIterations}
}

// Sequence orders the stops. Every pairwise distance must be present in the
// matrix (either direction); a missing entry fails with InsufficientData
// rather than guessing.
func (s *Sequencer) Sequence(stops []Stop, matrix DistanceMatrix) (*SequenceResult, error) {
	if len(stops) <= 1 {
		return &SequenceResult{Order: append([]Stop(nil), stops...)}, nil
	}

	dist, err := buildDistanceTable(stops, matrix)
	if err != nil {
		return nil, err
	}

	var origin, destination = -1, -1
	var waypoints []int
	for i, stop := range stops {
		switch {
		case stop.IsOrigin:
			if origin >= 0 {
				return nil, shared.NewInvalidInput("more than one origin stop")
			}
			origin = i
		case stop.IsDestination:
			if destination >= 0 {
				return nil, shared.NewInvalidInput("more than one destination stop")
			}
			destination = i
		default:
			waypoints = append(waypoints, i)
		}
	}
	if origin < 0 {
		// No explicit origin: start from the first stop.
		origin = 0
		waypoints = nil
		for i := 1; i < len(stops); i++ {
			if i != destination {
				waypoints = append(waypoints, i)
			}
		}
	}

	route := s.greedyNearestNeighbor(origin, destination, waypoints, dist)
	route = s.twoOptImprove(route, destination >= 0, dist)

	result := &SequenceResult{Order: make([]Stop, len(route))}
	for i, idx := range route {
		result.Order[i] = stops[idx]
		if i > 0 {
			result.TotalDistanceMiles += dist[route[i-1]][idx]
		}
	}
	return result, nil
}

// buildDistanceTable resolves every pairwise distance up front so the search
// itself cannot fail.
func buildDistanceTable(stops []Stop, matrix DistanceMatrix) ([][]float64, error) {
	n := len(stops)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			leg, ok := matrix.Get(stops[i].ID, stops[j].ID)
			if !ok {
				return nil, shared.NewInsufficientData(
					"no distance for %s -> %s", stops[i].ID, stops[j].ID)
			}
			dist[i][j] = leg.Miles
			dist[j][i] = leg.Miles
		}
	}
	return dist, nil
}

func (s *Sequencer) greedyNearestNeighbor(origin, destination int, waypoints []int, dist [][]float64) []int {
	route := []int{origin}
	unvisited := make(map[int]bool, len(waypoints))
	for _, w := range waypoints {
		unvisited[w] = true
	}

	current := origin
	for len(unvisited) > 0 {
		nearest := -1
		best := 0.0
		for w := range unvisited {
			if nearest < 0 || dist[current][w] < best {
				nearest = w
				best = dist[current][w]
			}
		}
		route = append(route, nearest)
		delete(unvisited, nearest)
		current = nearest
	}

	if destination >= 0 {
		route = append(route, destination)
	}
	return route
}

// twoOptImprove reverses interior sub-paths while that shortens the route.
// The first stop is always pinned; the last is pinned when a destination
// exists.
func (s *Sequencer) twoOptImprove(route []int, destinationPinned bool, dist [][]float64) []int {
	n := len(route)
	if n < 4 {
		return route
	}

	last := n - 1
	if destinationPinned {
		last = n - 2
	}

	improved := true
	for iter := 0; improved && iter < s.maxTwoOptIterations; iter++ {
		improved = false
		for i := 1; i < last; i++ {
			for j := i + 1; j <= last; j++ {
				delta := dist[route[i-1]][route[j]] - dist[route[i-1]][route[i]]
				if j < n-1 {
					delta += dist[route[i]][route[j+1]] - dist[route[j]][route[j+1]]
				}
				if delta < -1e-9 {
					reverse(route[i : j+1])
					improved = true
				}
			}
		}
	}
	return route
}

func reverse(r []int) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}
