package analysis

import (
	"context"

	"github.com/turtacn/mfa-engine/internal/domain/graph"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// PathwayStep is one hop of a discovered pathway: the reaction traversed
// and the compound it led to.
type PathwayStep struct {
	ReactionID ids.ReactionID
	CompoundID ids.CompoundID
}

// Pathway is one source-to-target route through the stoichiometric graph.
type Pathway struct {
	Steps []PathwayStep
}

// FindPathways performs a bounded breadth-first search over g's bipartite
// compound/reaction graph from source to target, returning every route no
// longer than the shortest one found, capped at maxDepth reaction hops.
// This is a connectivity search over the reaction graph, not atom-mapping
// pathway search: it reports which reactions chain a source compound to a
// target one, not which atoms travel along the way.
func (o *Orchestrator) FindPathways(ctx context.Context, g *graph.Graph, source, target graph.NodeID, maxDepth int) []Pathway {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}

	type frame struct {
		node  graph.NodeID
		steps []PathwayStep
	}

	visited := map[graph.NodeID]bool{source: true}
	queue := []frame{{node: source}}
	var found []Pathway
	shortestHops := -1

	for len(queue) > 0 {
		if ctx.Err() != nil || o.Cancelled() {
			break
		}

		cur := queue[0]
		queue = queue[1:]

		hops := len(cur.steps)
		if hops > maxDepth {
			continue
		}
		if shortestHops >= 0 && hops > shortestHops {
			continue
		}

		if cur.node == target && hops > 0 {
			if shortestHops < 0 {
				shortestHops = hops
			}
			found = append(found, Pathway{Steps: append([]PathwayStep(nil), cur.steps...)})
			continue
		}

		node, _ := g.Node(cur.node)
		if node == nil {
			continue
		}

		for _, neighbor := range g.Neighbors(cur.node) {
			if visited[neighbor.ID] {
				continue
			}

			nextSteps := cur.steps
			if node.Kind == graph.ReactionNode && neighbor.Kind == graph.CompoundNode {
				nextSteps = append(append([]PathwayStep(nil), cur.steps...), PathwayStep{
					ReactionID: node.ReactionID,
					CompoundID: neighbor.CompoundID,
				})
			}

			queue = append(queue, frame{node: neighbor.ID, steps: nextSteps})
		}
		visited[cur.node] = true
	}

	return found
}
