package builder

import (
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// reactionBounds computes the hard [min,max] flux interval for r before
// decomposition, applying direction, then the always-active override (which
// reopens a closed direction to MaxFlux/MinFlux), then the blocked override,
// then the forced-zero KO sets, in that order — so a block wins over an
// always-active request, and a KO wins over both (a reaction killed by a
// reaction knockout cannot be forced back on).
func reactionBounds(r *reaction.Reaction, p *Parameters) model.Bounds {
	bounds := model.Bounds{Min: p.MinFlux, Max: p.MaxFlux}

	switch r.Direction {
	case reaction.ForwardOnly:
		bounds.Min = 0
	case reaction.ReverseOnly:
		bounds.Max = 0
	}

	if mask, ok := p.AlwaysActiveReactions[r.ID()]; ok {
		if mask&Forward != 0 && bounds.Max <= 0 {
			bounds.Max = p.MaxFlux
		}
		if mask&ReverseDir != 0 && bounds.Min >= 0 {
			bounds.Min = p.MinFlux
		}
	}

	if mask, ok := p.BlockedReactions[r.ID()]; ok {
		if mask&Forward != 0 {
			bounds.Max = 0
		}
		if mask&ReverseDir != 0 {
			bounds.Min = 0
		}
	}

	if isKnockedOut(r.ID(), p) {
		bounds = model.Bounds{Min: 0, Max: 0}
	}

	return bounds
}

func isKnockedOut(reactionID ids.ReactionID, p *Parameters) bool {
	for _, id := range p.KOReactions {
		if id == reactionID {
			return true
		}
	}
	for _, set := range p.KOSets {
		for _, id := range set.Reactions {
			if id == reactionID {
				return true
			}
		}
	}
	return false
}

func knockedOutGenes(p *Parameters) map[ids.GeneID]bool {
	out := make(map[ids.GeneID]bool, len(p.KOGenes))
	for _, g := range p.KOGenes {
		out[g] = true
	}
	for _, set := range p.KOSets {
		for _, g := range set.Genes {
			out[g] = true
		}
	}
	return out
}

// exchangeBounds resolves the effective [min,max] drain interval for a
// compound/compartment pair from the matching ExchangeSpecies override. It
// reports false when no override matches; the caller then applies the
// builder's MinDrainFlux/MaxDrainFlux defaults.
func exchangeBounds(key compoundVarKey, p *Parameters) (model.Bounds, bool) {
	for _, ov := range p.ExchangeSpecies {
		if ov.CompoundID == key.CompoundID && ov.CompartmentID == key.CompartmentID {
			return model.Bounds{Min: ov.Min, Max: ov.Max}, true
		}
	}
	return model.Bounds{}, false
}
