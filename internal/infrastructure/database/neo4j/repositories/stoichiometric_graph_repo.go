// Package repositories persists the StoichiometricGraph as a labeled property
// graph in Neo4j: Compound and Reaction nodes connected by signed-coefficient
// PARTICIPATES_IN edges, mirroring the bipartite structure built in-memory by
// internal/domain/graph for a single loaded model. Unlike that in-memory
// graph, which is rebuilt on demand and never persisted, this copy survives
// across runs and models, and answers the neighborhood/connectivity queries
// the relational compound/reaction tables do not index well.
package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	infraNeo4j "github.com/turtacn/mfa-engine/internal/infrastructure/database/neo4j"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

const (
	compoundLabel   = "Compound"
	reactionLabel   = "Reaction"
	participatesRel = "PARTICIPATES_IN"
)

// StoichiometricGraphRepository persists one model's compound/reaction graph
// and answers connectivity queries over it: neighborhoods, shortest/all
// paths between two compounds, and the reactions a compound participates in.
// FindShortestPath and FindAllPaths back
// analysis.Orchestrator.FindPathways' bounded BFS/DFS seeding.
type StoichiometricGraphRepository interface {
	// SyncModel replaces the persisted graph for modelID with the graph
	// implied by compounds and reactions: one node per compound/reaction,
	// one PARTICIPATES_IN edge per reactant/product entry with the
	// declared signed coefficient as an edge property.
	SyncModel(ctx context.Context, modelID string, compounds []compound.Declaration, reactions []reaction.Declaration) error
	DeleteModel(ctx context.Context, modelID string) error

	GetNeighborhood(ctx context.Context, modelID string, compoundID ids.CompoundID, maxNodes int) (*Subgraph, error)
	FindShortestPath(ctx context.Context, modelID string, fromID, toID ids.CompoundID) (*GraphPath, error)
	FindAllPaths(ctx context.Context, modelID string, fromID, toID ids.CompoundID, maxDepth, limit int) ([]*GraphPath, error)
	GetReactionsForCompound(ctx context.Context, modelID string, compoundID ids.CompoundID, direction string) ([]*Relation, error)
	GetConnectedCompounds(ctx context.Context, modelID string, compoundID ids.CompoundID, limit int) ([]*GraphNode, error)
	GetGraphStats(ctx context.Context, modelID string) (*GraphStats, error)
	EnsureIndexes(ctx context.Context) error
}

// graphExecutor is the narrow slice of *infraNeo4j.Driver this package
// drives transactions through; satisfied without adaptation.
type graphExecutor interface {
	ExecuteRead(ctx context.Context, work func(infraNeo4j.Transaction) (any, error)) (any, error)
	ExecuteWrite(ctx context.Context, work func(infraNeo4j.Transaction) (any, error)) (any, error)
}

type neo4jGraphRepo struct {
	driver graphExecutor
	log    logging.Logger
}

// NewStoichiometricGraphRepo returns a StoichiometricGraphRepository backed
// by driver. log may be nil, in which case a no-op logger is used.
func NewStoichiometricGraphRepo(driver *infraNeo4j.Driver, log logging.Logger) StoichiometricGraphRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &neo4jGraphRepo{driver: driver, log: log}
}

// Structs

// GraphNode is a Compound or Reaction vertex as persisted in Neo4j.
type GraphNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Relation is a PARTICIPATES_IN edge; Coefficient carries the sign (negative
// for reactant side, positive for product side).
type Relation struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	FromNodeID    string  `json:"from_node_id"`
	ToNodeID      string  `json:"to_node_id"`
	Coefficient   float64 `json:"coefficient"`
	CompartmentID string  `json:"compartment_id"`
}

type Subgraph struct {
	Nodes        []*GraphNode `json:"nodes"`
	Relations    []*Relation  `json:"relations"`
	CenterNodeID string       `json:"center_node_id"`
}

type GraphPath struct {
	Nodes     []*GraphNode `json:"nodes"`
	Relations []*Relation  `json:"relations"`
	Length    int          `json:"length"`
}

type GraphStats struct {
	CompoundCount int64 `json:"compound_count"`
	ReactionCount int64 `json:"reaction_count"`
	EdgeCount     int64 `json:"edge_count"`
}

// Implementations

func (r *neo4jGraphRepo) SyncModel(ctx context.Context, modelID string, compounds []compound.Declaration, reactions []reaction.Declaration) error {
	if modelID == "" {
		return mfaerr.New(mfaerr.CodeInvalidParam, "graph repo: model id cannot be empty")
	}

	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (c:`+compoundLabel+` {model_id: $modelId})
			DETACH DELETE c
		`, map[string]any{"modelId": modelID}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, `
			MATCH (rx:`+reactionLabel+` {model_id: $modelId})
			DETACH DELETE rx
		`, map[string]any{"modelId": modelID}); err != nil {
			return nil, err
		}

		for _, c := range compounds {
			if _, err := tx.Run(ctx, `
				CREATE (c:`+compoundLabel+` {
					id: $id, model_id: $modelId, name: $name, formula: $formula,
					charge: $charge, molecular_weight: $weight, is_cofactor: $cofactor
				})
			`, map[string]any{
				"id": string(c.ID), "modelId": modelID, "name": c.Name, "formula": c.Formula,
				"charge": c.Charge, "weight": c.MolecularWeight, "cofactor": c.IsCofactor,
			}); err != nil {
				return nil, err
			}
		}

		for _, rx := range reactions {
			if _, err := tx.Run(ctx, `
				CREATE (rx:`+reactionLabel+` {
					id: $id, model_id: $modelId, name: $name, direction: $direction
				})
			`, map[string]any{
				"id": string(rx.ID), "modelId": modelID, "name": rx.Name,
				"direction": int(rx.Direction),
			}); err != nil {
				return nil, err
			}

			sides := make([]reaction.ReactantDeclaration, 0, len(rx.Reactants)+len(rx.Products))
			sides = append(sides, rx.Reactants...)
			sides = append(sides, rx.Products...)

			for _, side := range sides {
				if _, err := tx.Run(ctx, `
					MATCH (c:`+compoundLabel+` {id: $cid, model_id: $modelId})
					MATCH (rx:`+reactionLabel+` {id: $rid, model_id: $modelId})
					CREATE (c)-[:`+participatesRel+` {
						coefficient: $coef, compartment_id: $compartment
					}]->(rx)
				`, map[string]any{
					"cid": string(side.CompoundID), "rid": string(rx.ID), "modelId": modelID,
					"coef": side.Coefficient, "compartment": string(side.CompartmentID),
				}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: sync model "+modelID)
	}
	return nil
}

func (r *neo4jGraphRepo) DeleteModel(ctx context.Context, modelID string) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (n) WHERE n.model_id = $modelId
			DETACH DELETE n
		`, map[string]any{"modelId": modelID})
		return nil, err
	})
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: delete model "+modelID)
	}
	return nil
}

func (r *neo4jGraphRepo) GetNeighborhood(ctx context.Context, modelID string, compoundID ids.CompoundID, maxNodes int) (*Subgraph, error) {
	query := `
		MATCH (c {id: $id, model_id: $modelId})-[rel:` + participatesRel + `]-(neighbor)
		RETURN c, rel, neighbor
		LIMIT $limit
	`
	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"id": string(compoundID), "modelId": modelID, "limit": maxNodes})
		if err != nil {
			return nil, err
		}

		sg := &Subgraph{CenterNodeID: string(compoundID)}
		for result.Next(ctx) {
			rec := result.Record()
			cVal, _ := rec.Get("c")
			relVal, _ := rec.Get("rel")
			neighborVal, _ := rec.Get("neighbor")

			if len(sg.Nodes) == 0 {
				sg.Nodes = append(sg.Nodes, mapNeo4jNode(cVal.(neo4j.Node)))
			}
			sg.Relations = append(sg.Relations, mapNeo4jRel(relVal.(neo4j.Relationship)))
			sg.Nodes = append(sg.Nodes, mapNeo4jNode(neighborVal.(neo4j.Node)))
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return sg, nil
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: get neighborhood")
	}
	return res.(*Subgraph), nil
}

func (r *neo4jGraphRepo) FindShortestPath(ctx context.Context, modelID string, fromID, toID ids.CompoundID) (*GraphPath, error) {
	query := `
		MATCH (a {id: $fromId, model_id: $modelId}), (b {id: $toId, model_id: $modelId})
		MATCH path = shortestPath((a)-[:` + participatesRel + `*]-(b))
		RETURN path
	`
	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"fromId": string(fromID), "toId": string(toID), "modelId": modelID,
		})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.ExtractSingleRecord(ctx, result, func(rec *neo4j.Record) (*GraphPath, error) {
			pathVal, _ := rec.Get("path")
			return mapNeo4jPathToGraphPath(pathVal.(neo4j.Path)), nil
		})
	})
	if err != nil {
		if mfaerr.IsCode(err, mfaerr.CodeNotFound) {
			return nil, nil
		}
		return nil, mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: find shortest path")
	}
	return res.(*GraphPath), nil
}

func (r *neo4jGraphRepo) FindAllPaths(ctx context.Context, modelID string, fromID, toID ids.CompoundID, maxDepth, limit int) ([]*GraphPath, error) {
	if maxDepth > 10 {
		maxDepth = 10
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	query := fmt.Sprintf(`
		MATCH (a {id: $fromId, model_id: $modelId}), (b {id: $toId, model_id: $modelId})
		MATCH path = (a)-[:%s*1..%d]-(b)
		RETURN path LIMIT $limit
	`, participatesRel, maxDepth)

	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"fromId": string(fromID), "toId": string(toID), "modelId": modelID, "limit": limit,
		})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.CollectRecords(ctx, result, func(rec *neo4j.Record) (*GraphPath, error) {
			pathVal, _ := rec.Get("path")
			return mapNeo4jPathToGraphPath(pathVal.(neo4j.Path)), nil
		})
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: find all paths")
	}
	return res.([]*GraphPath), nil
}

func (r *neo4jGraphRepo) GetReactionsForCompound(ctx context.Context, modelID string, compoundID ids.CompoundID, direction string) ([]*Relation, error) {
	dirStr := "-[rel:" + participatesRel + "]-"
	if direction == "outgoing" {
		dirStr = "-[rel:" + participatesRel + "]->"
	} else if direction == "incoming" {
		dirStr = "<-[rel:" + participatesRel + "]-"
	}

	query := fmt.Sprintf(`
		MATCH (c:%s {id: $id, model_id: $modelId})%s(rx:%s)
		RETURN rel
	`, compoundLabel, dirStr, reactionLabel)

	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"id": string(compoundID), "modelId": modelID})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.CollectRecords(ctx, result, func(rec *neo4j.Record) (*Relation, error) {
			relVal, _ := rec.Get("rel")
			return mapNeo4jRel(relVal.(neo4j.Relationship)), nil
		})
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: get reactions for compound")
	}
	return res.([]*Relation), nil
}

func (r *neo4jGraphRepo) GetConnectedCompounds(ctx context.Context, modelID string, compoundID ids.CompoundID, limit int) ([]*GraphNode, error) {
	query := `
		MATCH (c:` + compoundLabel + ` {id: $id, model_id: $modelId})-[:` + participatesRel + `]->(:` + reactionLabel + `)<-[:` + participatesRel + `]-(other:` + compoundLabel + `)
		WHERE other.id <> $id
		RETURN DISTINCT other
		LIMIT $limit
	`
	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"id": string(compoundID), "modelId": modelID, "limit": limit})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.CollectRecords(ctx, result, func(rec *neo4j.Record) (*GraphNode, error) {
			nVal, _ := rec.Get("other")
			return mapNeo4jNode(nVal.(neo4j.Node)), nil
		})
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: get connected compounds")
	}
	return res.([]*GraphNode), nil
}

func (r *neo4jGraphRepo) GetGraphStats(ctx context.Context, modelID string) (*GraphStats, error) {
	query := `
		MATCH (c:` + compoundLabel + ` {model_id: $modelId})
		OPTIONAL MATCH (rx:` + reactionLabel + ` {model_id: $modelId})
		OPTIONAL MATCH (:` + compoundLabel + ` {model_id: $modelId})-[rel:` + participatesRel + `]->(:` + reactionLabel + ` {model_id: $modelId})
		RETURN count(DISTINCT c) AS compounds, count(DISTINCT rx) AS reactions, count(rel) AS edges
	`
	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"modelId": modelID})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.ExtractSingleRecord(ctx, result, func(rec *neo4j.Record) (*GraphStats, error) {
			compounds, _ := rec.Get("compounds")
			reactions, _ := rec.Get("reactions")
			edges, _ := rec.Get("edges")
			return &GraphStats{
				CompoundCount: compounds.(int64),
				ReactionCount: reactions.(int64),
				EdgeCount:     edges.(int64),
			}, nil
		})
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: get graph stats")
	}
	return res.(*GraphStats), nil
}

func (r *neo4jGraphRepo) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		"CREATE INDEX compound_model_id IF NOT EXISTS FOR (c:" + compoundLabel + ") ON (c.model_id)",
		"CREATE INDEX reaction_model_id IF NOT EXISTS FOR (rx:" + reactionLabel + ") ON (rx.model_id)",
		"CREATE CONSTRAINT compound_id_unique IF NOT EXISTS FOR (c:" + compoundLabel + ") REQUIRE (c.id, c.model_id) IS UNIQUE",
		"CREATE CONSTRAINT reaction_id_unique IF NOT EXISTS FOR (rx:" + reactionLabel + ") REQUIRE (rx.id, rx.model_id) IS UNIQUE",
	}
	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeGraphError, "graph repo: ensure indexes")
	}
	return nil
}

// Helpers

func mapNeo4jNode(n neo4j.Node) *GraphNode {
	id := fmt.Sprintf("%d", n.Id)
	if s, ok := n.Props["id"].(string); ok {
		id = s
	}
	return &GraphNode{
		ID:         id,
		Labels:     n.Labels,
		Properties: n.Props,
	}
}

func mapNeo4jRel(rel neo4j.Relationship) *Relation {
	r := &Relation{
		ID:         fmt.Sprintf("%d", rel.Id),
		Type:       rel.Type,
		FromNodeID: fmt.Sprintf("%d", rel.StartId),
		ToNodeID:   fmt.Sprintf("%d", rel.EndId),
	}
	if coef, ok := rel.Props["coefficient"].(float64); ok {
		r.Coefficient = coef
	}
	if compartment, ok := rel.Props["compartment_id"].(string); ok {
		r.CompartmentID = compartment
	}
	return r
}

func mapNeo4jPathToGraphPath(p neo4j.Path) *GraphPath {
	gp := &GraphPath{Length: len(p.Relationships)}
	for _, n := range p.Nodes {
		gp.Nodes = append(gp.Nodes, mapNeo4jNode(n))
	}
	for _, rel := range p.Relationships {
		gp.Relations = append(gp.Relations, mapNeo4jRel(rel))
	}
	return gp
}
