// Package gene models the Gene aggregate and the GeneInterval grouping used
// by essentiality sweeps and deletion experiments: a gene's genomic
// coordinates, the reactions its logic participates in, and the decision
// variable the builder allocates to represent its knockout state.
package gene

import (
	"fmt"

	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Gene is the aggregate root for one genetic locus.
type Gene struct {
	id ids.GeneID

	Name string

	// StartCoord and EndCoord are the gene's genomic coordinates, used by
	// GeneInterval to decide which genes fall inside a deletion window.
	StartCoord int
	EndCoord   int

	// Reactions lists the reactions whose gene-logic tree references this
	// gene, kept in sync by AddReaction rather than derived by scanning
	// every reaction on demand.
	Reactions []ids.ReactionID

	// UseVariableIndex is the builder-assigned decision variable tracking
	// whether this gene is active (1) or knocked out (0) in a given
	// optimization; -1 until the builder has loaded it.
	UseVariableIndex int

	index int
}

// Declaration is the static input used to construct a Gene.
type Declaration struct {
	ID         ids.GeneID
	Name       string
	StartCoord int
	EndCoord   int
}

// New validates decl and constructs a Gene.
func New(decl Declaration) (*Gene, error) {
	if decl.ID == "" {
		return nil, mfaerr.InvalidParam("gene: id cannot be empty")
	}
	if decl.EndCoord < decl.StartCoord {
		return nil, mfaerr.InvalidParam(fmt.Sprintf("gene %s: end coord %d before start coord %d", decl.ID, decl.EndCoord, decl.StartCoord))
	}

	return &Gene{
		id:               decl.ID,
		Name:             decl.Name,
		StartCoord:       decl.StartCoord,
		EndCoord:         decl.EndCoord,
		UseVariableIndex: -1,
		index:            -1,
	}, nil
}

// ID returns the gene's identifier.
func (g *Gene) ID() ids.GeneID { return g.id }

// Index returns this gene's stable position in the arena it was added to,
// or -1 if it has not been added to one.
func (g *Gene) Index() int { return g.index }

// SetIndex assigns the gene's stable arena index. Called once by the owning
// arena on Add.
func (g *Gene) SetIndex(idx int) { g.index = idx }

// AddReaction records that reactionID's gene-logic tree references this
// gene, skipping the append if it is already recorded.
func (g *Gene) AddReaction(reactionID ids.ReactionID) {
	for _, r := range g.Reactions {
		if r == reactionID {
			return
		}
	}
	g.Reactions = append(g.Reactions, reactionID)
}

// OverlapsCoord reports whether coord falls within [StartCoord, EndCoord).
func (g *Gene) OverlapsCoord(coord int) bool {
	return g.StartCoord <= coord && coord < g.EndCoord
}

// OverlapsInterval reports whether the half-open coordinate range
// [start, end) intersects the gene's own coordinate range, the same test
// GeneInterval construction uses to decide membership.
func (g *Gene) OverlapsInterval(start, end int) bool {
	return g.StartCoord < end && start < g.EndCoord
}
