package graph

import (
	"context"
	"errors"
)

// ErrNodeNotFound is returned when a traversal's start node is not present
// in the graph.
var ErrNodeNotFound = errors.New("graph: start node not found")

// TraversalResult holds the outcome of a BFS or DFS traversal.
type TraversalResult struct {
	Order   []NodeID          // nodes in visitation order
	Depth   map[NodeID]int    // Depth[id] = distance (BFS) or recursion depth (DFS) from start
	Parent  map[NodeID]NodeID // Parent[id] = predecessor in the traversal tree
	Visited map[NodeID]bool
}

// BFS performs a breadth-first traversal of the graph starting at startID,
// respecting ctx cancellation between node expansions.
func (g *Graph) BFS(ctx context.Context, startID NodeID) (*TraversalResult, error) {
	if !g.HasNode(startID) {
		return nil, ErrNodeNotFound
	}

	res := &TraversalResult{
		Depth:   make(map[NodeID]int),
		Parent:  make(map[NodeID]NodeID),
		Visited: make(map[NodeID]bool),
	}

	type item struct {
		id    NodeID
		depth int
	}

	queue := []item{{startID, 0}}
	res.Visited[startID] = true
	res.Depth[startID] = 0

	for len(queue) > 0 {
		if ctxDone(ctx) {
			return res, ctx.Err()
		}

		it := queue[0]
		queue = queue[1:]
		res.Order = append(res.Order, it.id)

		for _, nbr := range g.Neighbors(it.id) {
			if res.Visited[nbr.ID] {
				continue
			}
			res.Visited[nbr.ID] = true
			res.Parent[nbr.ID] = it.id
			res.Depth[nbr.ID] = it.depth + 1
			queue = append(queue, item{nbr.ID, it.depth + 1})
		}
	}

	return res, nil
}

// DFS performs a depth-first traversal of the graph starting at startID.
func (g *Graph) DFS(ctx context.Context, startID NodeID) (*TraversalResult, error) {
	if !g.HasNode(startID) {
		return nil, ErrNodeNotFound
	}

	res := &TraversalResult{
		Depth:   make(map[NodeID]int),
		Parent:  make(map[NodeID]NodeID),
		Visited: make(map[NodeID]bool),
	}

	var err error
	g.dfsVisit(ctx, startID, 0, res, &err)
	return res, err
}

func (g *Graph) dfsVisit(ctx context.Context, id NodeID, depth int, res *TraversalResult, err *error) {
	if *err != nil || ctxDone(ctx) {
		if *err == nil {
			*err = ctx.Err()
		}
		return
	}

	res.Visited[id] = true
	res.Depth[id] = depth
	res.Order = append(res.Order, id)

	for _, nbr := range g.Neighbors(id) {
		if res.Visited[nbr.ID] {
			continue
		}
		res.Parent[nbr.ID] = id
		g.dfsVisit(ctx, nbr.ID, depth+1, res, err)
		if *err != nil {
			return
		}
	}
}

// Path is a sequence of alternating compound/reaction nodes connecting a
// source to a target, along with the reactions traversed to get there.
type Path struct {
	Nodes []NodeID
}

// ShortestPath returns the shortest node-to-node path from sourceID to
// targetID using BFS, stopping as soon as targetID is first reached. Returns
// ok=false if no path exists. This is the bounded connectivity search
// FindPathways in internal/analysis drives over a compartment- and
// cofactor-filtered view of the graph — it does not perform the original
// toolkit's atom-mapping pathway reconstruction, only reachability.
func (g *Graph) ShortestPath(ctx context.Context, sourceID, targetID NodeID) (Path, bool, error) {
	if !g.HasNode(sourceID) || !g.HasNode(targetID) {
		return Path{}, false, ErrNodeNotFound
	}
	if sourceID == targetID {
		return Path{Nodes: []NodeID{sourceID}}, true, nil
	}

	res, err := g.BFS(ctx, sourceID)
	if err != nil {
		return Path{}, false, err
	}
	if !res.Visited[targetID] {
		return Path{}, false, nil
	}

	var reversed []NodeID
	cur := targetID
	for {
		reversed = append(reversed, cur)
		if cur == sourceID {
			break
		}
		cur = res.Parent[cur]
	}

	nodes := make([]NodeID, len(reversed))
	for i, n := range reversed {
		nodes[len(reversed)-1-i] = n
	}
	return Path{Nodes: nodes}, true, nil
}
