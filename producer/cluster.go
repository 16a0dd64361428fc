package producer

import (
	"github.com/aiseeq/s2l/protocol/api"

	"github.com/LostLucidity/lucid-ai-sub002/model"
)

const (
	clusterEps    = 9
	clusterMinPts = 1
)

// dbscan groups points that lie within eps of each other. It returns
// clusters as index lists into points, in order of first member. Points that
// are not density-reachable from any core point are dropped as noise.
func dbscan(points []api.Point2D, eps float64, minPts int) [][]int {
	const (
		unvisited = 0
		noise     = -1
	)
	labels := make([]int, len(points))
	neighbours := func(i int) []int {
		var out []int
		for j := range points {
			if model.Distance(points[i], points[j]) <= eps {
				out = append(out, j)
			}
		}
		return out
	}

	var clusters [][]int
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		seeds := neighbours(i)
		if len(seeds) < minPts {
			labels[i] = noise
			continue
		}
		id := len(clusters) + 1
		labels[i] = id
		members := []int{i}
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == noise {
				labels[j] = id
				members = append(members, j)
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = id
			members = append(members, j)
			if more := neighbours(j); len(more) >= minPts {
				seeds = append(seeds, more...)
			}
		}
		clusters = append(clusters, members)
	}
	return clusters
}

func centroid(points []api.Point2D, idx []int) api.Point2D {
	var x, y float32
	for _, i := range idx {
		x += points[i].X
		y += points[i].Y
	}
	n := float32(len(idx))
	return api.Point2D{X: x / n, Y: y / n}
}
