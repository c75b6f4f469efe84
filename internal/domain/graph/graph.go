// Package graph builds the StoichiometricGraph: a derived, never-persisted
// bipartite multigraph over a model's compounds and reactions, used for
// connectivity and pathway-search queries that the relational compound/
// reaction databases do not answer efficiently. The graph is rebuilt from
// the current compound.Database/reaction.Database contents whenever a caller
// asks for it; nothing here is a system of record.
package graph

import (
	"context"

	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// NodeKind distinguishes the two sides of the bipartite graph.
type NodeKind int

const (
	// CompoundNode is a node representing a compound, keyed by its ID
	// qualified with the compartment it participates in, so a compound
	// used in two compartments gets two distinct nodes.
	CompoundNode NodeKind = iota
	// ReactionNode is a node representing a reaction.
	ReactionNode
)

// NodeID is a node's key within the graph: for a CompoundNode, the
// compound ID qualified by compartment; for a ReactionNode, the reaction ID.
type NodeID string

// Node is one vertex of the bipartite graph.
type Node struct {
	ID            NodeID
	Kind          NodeKind
	CompoundID    ids.CompoundID
	CompartmentID ids.CompartmentID
	ReactionID    ids.ReactionID
}

// Edge connects a compound node to a reaction node with the reactant's
// signed stoichiometric coefficient — negative for a reactant, positive for
// a product. A reaction participating in the same compound twice (distinct
// compartments) produces two distinct edges, hence "multigraph".
type Edge struct {
	Compound    NodeID
	Reaction    NodeID
	Coefficient float64
	IsCofactor  bool
}

// Graph is the stoichiometric bipartite multigraph for one model snapshot.
type Graph struct {
	nodes    map[NodeID]*Node
	outEdges map[NodeID][]Edge
}

func compoundNodeID(compoundID ids.CompoundID, compartmentID ids.CompartmentID) NodeID {
	return NodeID(string(compoundID) + "@" + string(compartmentID))
}

func reactionNodeID(reactionID ids.ReactionID) NodeID {
	return NodeID(reactionID)
}

// Build derives a Graph from every reaction in reactions and the compounds
// it references; reactions carry their own participant list. When compounds
// is non-nil, every compartment state of every compound also gets a node,
// even one no reaction references. Referenced compounds are not checked
// against compounds.
func Build(compounds *compound.Database, reactions *reaction.Database) *Graph {
	g := &Graph{
		nodes:    make(map[NodeID]*Node),
		outEdges: make(map[NodeID][]Edge),
	}

	for _, r := range reactions.All() {
		rNode := reactionNodeID(r.ID())
		g.nodes[rNode] = &Node{ID: rNode, Kind: ReactionNode, ReactionID: r.ID()}

		for i, participant := range r.All() {
			cNode := compoundNodeID(participant.CompoundID, participant.CompartmentID)
			if _, ok := g.nodes[cNode]; !ok {
				g.nodes[cNode] = &Node{
					ID:            cNode,
					Kind:          CompoundNode,
					CompoundID:    participant.CompoundID,
					CompartmentID: participant.CompartmentID,
				}
			}

			edge := Edge{
				Compound:    cNode,
				Reaction:    rNode,
				Coefficient: participant.Coefficient,
				IsCofactor:  r.IsReactantCofactor(i),
			}
			g.outEdges[cNode] = append(g.outEdges[cNode], edge)
			g.outEdges[rNode] = append(g.outEdges[rNode], edge)
		}
	}

	if compounds != nil {
		for _, c := range compounds.All() {
			for _, compState := range c.Compartments() {
				cNode := compoundNodeID(c.ID(), compState)
				if _, ok := g.nodes[cNode]; !ok {
					g.nodes[cNode] = &Node{ID: cNode, Kind: CompoundNode, CompoundID: c.ID(), CompartmentID: compState}
				}
			}
		}
	}

	return g
}

// HasNode reports whether id names a node in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node named by id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Neighbors returns every node reachable from id across one edge: for a
// compound node, the reactions it participates in; for a reaction node, the
// compounds it touches.
func (g *Graph) Neighbors(id NodeID) []*Node {
	edges := g.outEdges[id]
	out := make([]*Node, 0, len(edges))
	for _, e := range edges {
		var otherID NodeID
		if e.Compound == id {
			otherID = e.Reaction
		} else {
			otherID = e.Compound
		}
		if n, ok := g.nodes[otherID]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns every edge incident to id.
func (g *Graph) Edges(id NodeID) []Edge {
	return append([]Edge(nil), g.outEdges[id]...)
}

// NumNodes returns the total node count across both sides of the bipartite
// graph.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// CompoundNodeID returns the node identifier for compoundID in
// compartmentID, for callers building BFS/DFS start/target arguments from
// domain identifiers.
func CompoundNodeID(compoundID ids.CompoundID, compartmentID ids.CompartmentID) NodeID {
	return compoundNodeID(compoundID, compartmentID)
}

// ReactionNodeID returns the node identifier for reactionID.
func ReactionNodeID(reactionID ids.ReactionID) NodeID {
	return reactionNodeID(reactionID)
}

// ctxDone is a small helper shared by BFS/DFS to keep the cancellation check
// identical between both traversals.
func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
