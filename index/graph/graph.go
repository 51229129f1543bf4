// Package graph provides an approximate index over a single-layer navigable
// proximity graph.
//
// Every insertion and query runs one best-first traversal from a global
// entry point. Neighbor lists are bounded by MaxConnections and pruned by
// positional cutoff rather than diversity-aware selection; the cutoff can
// drop a bidirectional edge on one side only, trading recall for simplicity.
// Replacing the cutoff with heuristic neighbor selection is future work.
package graph

import (
	"container/heap"
	"slices"

	"github.com/vecdb/vecdb/index"
	"github.com/vecdb/vecdb/metric"
	"github.com/vecdb/vecdb/queue"
)

// Compile-time check to ensure Graph satisfies the index interface.
var _ index.Index = (*Graph)(nil)

// minEFSearch is the traversal frontier floor at query time.
const minEFSearch = 50

// node represents a vertex of the proximity graph. It owns an independent
// copy of the embedding, not a reference into the store.
type node struct {
	id        string
	vector    []float32
	neighbors []string
}

// Options represents the options for configuring the graph index.
type Options struct {
	// MaxConnections caps the neighbor list of every node.
	MaxConnections int

	// EFConstruction is the traversal frontier width used while inserting.
	// Larger values improve graph quality at the cost of insert time.
	EFConstruction int
}

// DefaultOptions contains the default configuration options for the graph index.
var DefaultOptions = Options{
	MaxConnections: 16,
	EFConstruction: 200,
}

// Graph represents the single-layer proximity-graph index.
type Graph struct {
	nodes      map[string]*node
	entryPoint string // empty iff the graph is empty
	opts       Options
}

// New creates a new graph index.
func New(optFns ...func(o *Options)) *Graph {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Graph{
		nodes: make(map[string]*node),
		opts:  opts,
	}
}

// Add inserts a vector under the given id. The first vector becomes the
// entry point; every later vector is linked to the closest nodes found by a
// best-first traversal from the entry point.
func (g *Graph) Add(id string, embedding []float32) error {
	n := &node{
		id:     id,
		vector: slices.Clone(embedding),
	}

	if g.entryPoint == "" {
		g.entryPoint = id
		g.nodes[id] = n
		return nil
	}

	candidates, err := g.searchLayer(n.vector, g.entryPoint, g.opts.EFConstruction)
	if err != nil {
		return err
	}

	// Closest-first positional selection, not the diversity heuristic.
	selected := make([]string, 0, g.opts.MaxConnections)
	for _, candidate := range candidates {
		if len(selected) == g.opts.MaxConnections {
			break
		}
		selected = append(selected, candidate.ID)
	}

	n.neighbors = selected

	// Back-edges make the new node reachable. Truncation keeps the first
	// MaxConnections entries and may drop the edge we just appended,
	// leaving it one-sided.
	for _, neighborID := range selected {
		neighbor, ok := g.nodes[neighborID]
		if !ok {
			continue
		}
		neighbor.neighbors = append(neighbor.neighbors, id)
		if len(neighbor.neighbors) > g.opts.MaxConnections {
			neighbor.neighbors = neighbor.neighbors[:g.opts.MaxConnections]
		}
	}

	g.nodes[id] = n

	return nil
}

// Remove deletes the node with the given id and strips it from its
// neighbors' lists. No edge repair is attempted, so the neighbors keep the
// remaining (possibly reduced) connectivity. If the entry point is removed,
// an arbitrary remaining node takes its place.
func (g *Graph) Remove(id string) (bool, error) {
	n, ok := g.nodes[id]
	if !ok {
		return false, nil
	}

	delete(g.nodes, id)

	for _, neighborID := range n.neighbors {
		neighbor, ok := g.nodes[neighborID]
		if !ok {
			continue
		}
		neighbor.neighbors = slices.DeleteFunc(neighbor.neighbors, func(nid string) bool {
			return nid == id
		})
	}

	if g.entryPoint == id {
		g.entryPoint = ""
		for remaining := range g.nodes {
			g.entryPoint = remaining
			break
		}
	}

	return true, nil
}

// Search runs a best-first traversal with frontier width max(k, 50) and
// returns the k most similar nodes by descending cosine similarity.
// An empty graph yields an empty result.
func (g *Graph) Search(query []float32, k int) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	if g.entryPoint == "" {
		return nil, nil
	}

	ef := k
	if ef < minEFSearch {
		ef = minEFSearch
	}

	candidates, err := g.searchLayer(query, g.entryPoint, ef)
	if err != nil {
		return nil, err
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]index.SearchResult, len(candidates))
	for i, candidate := range candidates {
		results[i] = index.SearchResult{ID: candidate.ID, Score: candidate.Score}
	}

	return results, nil
}

// Size returns the number of indexed vectors.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Clear removes all vectors from the index.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*node)
	g.entryPoint = ""
}

// searchLayer performs the best-first traversal from the given entry point.
// It keeps a max-heap of unexpanded candidates and a bounded min-heap
// frontier of width ef; traversal stops once the best remaining candidate is
// no closer than the frontier's worst member. The frontier is returned
// sorted closest first.
func (g *Graph) searchLayer(query []float32, entryPoint string, ef int) ([]*queue.PriorityQueueItem, error) {
	visited := make(map[string]struct{})

	candidates := &queue.PriorityQueue{Order: true}
	heap.Init(candidates)

	frontier := &queue.PriorityQueue{Order: false}
	heap.Init(frontier)

	if entry, ok := g.nodes[entryPoint]; ok {
		score, err := metric.CosineSimilarity(query, entry.vector)
		if err != nil {
			return nil, err
		}

		heap.Push(candidates, &queue.PriorityQueueItem{ID: entryPoint, Score: score})
		heap.Push(frontier, &queue.PriorityQueueItem{ID: entryPoint, Score: score})
		visited[entryPoint] = struct{}{}
	}

	for candidates.Len() > 0 {
		candidate, _ := heap.Pop(candidates).(*queue.PriorityQueueItem)
		if candidate.Score < frontier.Top().Score {
			break
		}

		n, ok := g.nodes[candidate.ID]
		if !ok {
			continue
		}

		for _, neighborID := range n.neighbors {
			if _, seen := visited[neighborID]; seen {
				continue
			}
			visited[neighborID] = struct{}{}

			// Stale edges to removed nodes are skipped, not repaired.
			neighbor, ok := g.nodes[neighborID]
			if !ok {
				continue
			}

			score, err := metric.CosineSimilarity(query, neighbor.vector)
			if err != nil {
				return nil, err
			}

			if frontier.Len() < ef {
				heap.Push(candidates, &queue.PriorityQueueItem{ID: neighborID, Score: score})
				heap.Push(frontier, &queue.PriorityQueueItem{ID: neighborID, Score: score})
			} else if score > frontier.Top().Score {
				heap.Pop(frontier)
				heap.Push(candidates, &queue.PriorityQueueItem{ID: neighborID, Score: score})
				heap.Push(frontier, &queue.PriorityQueueItem{ID: neighborID, Score: score})
			}
		}
	}

	// Drain the min-heap back to front for closest-first order.
	sorted := make([]*queue.PriorityQueueItem, frontier.Len())
	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i], _ = heap.Pop(frontier).(*queue.PriorityQueueItem)
	}

	return sorted, nil
}
