package solver

import (
	"container/heap"
	"math"
)

// costEps absorbs float rounding in reduced costs.
const costEps = 1e-9

type flowEdge struct {
	to       int
	rev      int
	capacity int
	cost     float64
	tag      int // caller-defined label, -1 for none
}

// flowNetwork is a residual graph for successive-shortest-path min-cost flow.
// Forward edge costs must be non-negative; reverse edges carry the negated
// cost and start at zero capacity.
type flowNetwork struct {
	g [][]flowEdge
}

func newFlowNetwork(n int) *flowNetwork {
	return &flowNetwork{g: make([][]flowEdge, n)}
}

// addEdge adds from->to and its residual twin. It returns the index of the
// forward edge within g[from].
func (n *flowNetwork) addEdge(from, to, capacity int, cost float64, tag int) int {
	idx := len(n.g[from])
	n.g[from] = append(n.g[from], flowEdge{to: to, rev: len(n.g[to]), capacity: capacity, cost: cost, tag: tag})
	n.g[to] = append(n.g[to], flowEdge{to: from, rev: idx, capacity: 0, cost: -cost, tag: -1})
	return idx
}

// distItem is a min-heap entry ordered by distance, then by push order so
// equal-cost paths resolve in discovery order.
type distItem struct {
	dist float64
	node int
	seq  int
}

type distHeap []distItem

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].seq < h[j].seq
}
func (h distHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x any)   { *h = append(*h, x.(distItem)) }
func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// minCostFlow pushes up to want units from s to t along successive shortest
// paths, using Dijkstra over potential-reduced costs. It returns the flow
// routed, its total cost and the number of augmenting paths used.
func (n *flowNetwork) minCostFlow(s, t, want int) (flow int, cost float64, augments int) {
	size := len(n.g)
	potential := make([]float64, size)
	dist := make([]float64, size)
	prevNode := make([]int, size)
	prevEdge := make([]int, size)

	for flow < want {
		for i := range dist {
			dist[i] = math.Inf(1)
			prevNode[i] = -1
		}
		dist[s] = 0
		seq := 0
		h := &distHeap{{dist: 0, node: s, seq: seq}}
		for h.Len() > 0 {
			cur := heap.Pop(h).(distItem)
			if cur.dist > dist[cur.node]+costEps {
				continue
			}
			for ei, e := range n.g[cur.node] {
				if e.capacity <= 0 {
					continue
				}
				reduced := e.cost + potential[cur.node] - potential[e.to]
				if reduced < 0 {
					reduced = 0
				}
				nd := dist[cur.node] + reduced
				if nd < dist[e.to]-costEps {
					dist[e.to] = nd
					prevNode[e.to] = cur.node
					prevEdge[e.to] = ei
					seq++
					heap.Push(h, distItem{dist: nd, node: e.to, seq: seq})
				}
			}
		}
		if math.IsInf(dist[t], 1) {
			break
		}
		for i := range potential {
			if !math.IsInf(dist[i], 1) {
				potential[i] += dist[i]
			}
		}

		push := want - flow
		for v := t; v != s; v = prevNode[v] {
			push = min(push, n.g[prevNode[v]][prevEdge[v]].capacity)
		}
		for v := t; v != s; v = prevNode[v] {
			e := &n.g[prevNode[v]][prevEdge[v]]
			e.capacity -= push
			n.g[v][e.rev].capacity += push
			cost += float64(push) * e.cost
		}
		flow += push
		augments++
	}
	return flow, cost, augments
}
