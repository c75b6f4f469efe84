package builder

import (
	"fmt"

	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// geneUseVariable returns the binary gene-active variable for geneID,
// creating it on first reference. A gene named in the knocked-out set has
// its bound pinned to {0,0}: the optimizer can never consider it active.
func (b *Builder) geneUseVariable(geneID ids.GeneID, knockedOut map[ids.GeneID]bool) *model.Variable {
	if v, ok := b.geneUseVars[geneID]; ok {
		return v
	}
	bounds := model.Bounds{Min: 0, Max: 1}
	if knockedOut[geneID] {
		bounds.Max = 0
	}
	v := newVar(model.GeneUse, "GU_"+string(geneID), bounds)
	v.Binary = true
	b.geneUseVars[geneID] = v
	b.problem.AddVariable(v)
	return v
}

// buildGeneLogicVar walks node bottom-up, allocating one COMPLEX_USE
// variable per internal node and coupling a full biconditional between it
// and its children, not just the necessary-condition direction: an AND
// node's use variable cannot exceed any required child (z <= x_i per
// child) and is forced to 1 once every child is (2*Σx_i - 2K*z <= 2K-1,
// K = child count); an OR node's cannot exceed the sum of its children
// (z <= Σx_i) and is forced to 1 once any child is (Σx_i - K*z <= 0). A
// leaf resolves directly to its GeneUse variable with no intermediate
// node.
func (b *Builder) buildGeneLogicVar(reactionID ids.ReactionID, node *reaction.GeneLogicNode, knockedOut map[ids.GeneID]bool, seq *int) *model.Variable {
	if node == nil {
		return nil
	}
	if len(node.Genes) == 1 && len(node.Children) == 0 {
		return b.geneUseVariable(node.Genes[0], knockedOut)
	}

	*seq++
	name := fmt.Sprintf("CU_%s_%d", reactionID, *seq)
	z := newVar(model.ComplexUse, name, model.Bounds{Min: 0, Max: 1})
	z.Binary = true
	b.problem.AddVariable(z)

	var children []*model.Variable
	for _, g := range node.Genes {
		children = append(children, b.geneUseVariable(g, knockedOut))
	}
	for _, c := range node.Children {
		children = append(children, b.buildGeneLogicVar(reactionID, c, knockedOut, seq))
	}

	k := float64(len(children))

	switch node.Logic {
	case reaction.LogicAnd:
		for i, child := range children {
			row := model.NewLinEquation(fmt.Sprintf("%s_AND_%d", name, i), 0, model.LessEqual)
			row.Meaning = model.GeneReactionMapping
			row.AddTerm(z, 1)
			row.AddTerm(child, -1)
			b.problem.AddConstraint(row)
		}
		force := model.NewLinEquation(name+"_AND_FORCE", 2*k-1, model.LessEqual)
		force.Meaning = model.GeneReactionMapping
		for _, child := range children {
			force.AddTerm(child, 2)
		}
		force.AddTerm(z, -2*k)
		b.problem.AddConstraint(force)
	default: // LogicOr
		row := model.NewLinEquation(name+"_OR", 0, model.LessEqual)
		row.Meaning = model.GeneReactionMapping
		row.AddTerm(z, 1)
		for _, child := range children {
			row.AddTerm(child, -1)
		}
		b.problem.AddConstraint(row)

		force := model.NewLinEquation(name+"_OR_FORCE", 0, model.LessEqual)
		force.Meaning = model.GeneReactionMapping
		for _, child := range children {
			force.AddTerm(child, 1)
		}
		force.AddTerm(z, -k)
		b.problem.AddConstraint(force)
	}

	return z
}
