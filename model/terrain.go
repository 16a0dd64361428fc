package model

import (
	"container/heap"
	"math"

	"github.com/aiseeq/s2l/protocol/api"
)

// PathingGrid is the host's walkability grid, one cell per map unit.
// Cells is row-major, nonzero meaning pathable.
type PathingGrid struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  []byte `json:"cells"`
}

// Pathable reports whether cell (x, y) can be walked. Out-of-bounds cells
// are not pathable.
func (g *PathingGrid) Pathable(x, y int) bool {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return false
	}
	i := y*g.Width + x
	if i >= len(g.Cells) {
		return false
	}
	return g.Cells[i] != 0
}

// cellOf converts a map position to grid coordinates.
func (g *PathingGrid) cellOf(p api.Point2D) (int, int) {
	return int(math.Floor(float64(p.X))), int(math.Floor(float64(p.Y)))
}

// nearestPathable finds the closest walkable cell within radius, since
// structures and resource fields sit on unpathable cells.
func (g *PathingGrid) nearestPathable(x, y, radius int) (int, int, bool) {
	if g.Pathable(x, y) {
		return x, y, true
	}
	for r := 1; r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				if g.Pathable(x+dx, y+dy) {
					return x + dx, y + dy, true
				}
			}
		}
	}
	return 0, 0, false
}

var neighbours = [8][3]float64{
	{1, 0, 1}, {-1, 0, 1}, {0, 1, 1}, {0, -1, 1},
	{1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {-1, -1, math.Sqrt2},
}

// Distance returns the ground path length between two points, or false when
// either end is off the grid or the points are not connected.
func (g *PathingGrid) Distance(from, to api.Point2D) (float64, bool) {
	fx, fy := g.cellOf(from)
	tx, ty := g.cellOf(to)
	fx, fy, ok := g.nearestPathable(fx, fy, 3)
	if !ok {
		return 0, false
	}
	tx, ty, ok = g.nearestPathable(tx, ty, 3)
	if !ok {
		return 0, false
	}
	if fx == tx && fy == ty {
		return Distance(from, to), true
	}

	target := ty*g.Width + tx
	dist := map[int]float64{fy*g.Width + fx: 0}
	pq := &cellQueue{{idx: fy*g.Width + fx}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(cellItem)
		if cur.idx == target {
			return cur.cost, true
		}
		if d, seen := dist[cur.idx]; seen && cur.cost > d {
			continue
		}
		cx, cy := cur.idx%g.Width, cur.idx/g.Width
		for _, n := range neighbours {
			nx, ny := cx+int(n[0]), cy+int(n[1])
			if !g.Pathable(nx, ny) {
				continue
			}
			// No corner cutting.
			if n[2] != 1 && (!g.Pathable(cx+int(n[0]), cy) || !g.Pathable(cx, cy+int(n[1]))) {
				continue
			}
			ni := ny*g.Width + nx
			nc := cur.cost + n[2]
			if d, seen := dist[ni]; seen && d <= nc {
				continue
			}
			dist[ni] = nc
			heap.Push(pq, cellItem{idx: ni, cost: nc})
		}
	}
	return 0, false
}

type cellItem struct {
	idx  int
	cost float64
}

type cellQueue []cellItem

func (q cellQueue) Len() int           { return len(q) }
func (q cellQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q cellQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(x any)        { *q = append(*q, x.(cellItem)) }
func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
