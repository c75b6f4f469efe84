package builder

// maxRectifyPasses bounds the fixed-point loop Rectify runs; the rule table
// below has no cyclic implications, so convergence always happens in at most
// len(rectifyRules) passes, but a hard cap keeps a future rule-authoring
// mistake from hanging rather than looping forever.
const maxRectifyPasses = 32

// rectifyRule is one implication "if antecedent then force consequent",
// applied repeatedly until no rule fires — the fixed-point closure spec.md
// asks for instead of a hand-ordered if/else chain.
type rectifyRule struct {
	name    string
	applies func(p *Parameters) bool
	apply   func(p *Parameters)
}

var rectifyRules = []rectifyRule{
	{
		name:    "gene-constraints-imply-all-reactions-use",
		applies: func(p *Parameters) bool { return p.GeneConstraints && !p.AllReactionsUse },
		apply:   func(p *Parameters) { p.AllReactionsUse = true },
	},
	{
		name:    "all-reactions-use-implies-reactions-use",
		applies: func(p *Parameters) bool { return p.AllReactionsUse && !p.ReactionsUse },
		apply:   func(p *Parameters) { p.ReactionsUse = true },
	},
	{
		name:    "reactions-use-implies-decompose-reversible",
		applies: func(p *Parameters) bool { return p.ReactionsUse && !p.DecomposeReversible },
		apply:   func(p *Parameters) { p.DecomposeReversible = true },
	},
	{
		name:    "all-drain-use-implies-drain-use-var",
		applies: func(p *Parameters) bool { return p.AllDrainUse && !p.DrainUseVar },
		apply:   func(p *Parameters) { p.DrainUseVar = true },
	},
	{
		name:    "simple-thermo-implies-thermo",
		applies: func(p *Parameters) bool { return p.SimpleThermoConstraints && !p.ThermoConstraints },
		apply:   func(p *Parameters) { p.ThermoConstraints = true },
	},
	{
		name:    "delta-g-error-implies-thermo",
		applies: func(p *Parameters) bool { return p.DeltaGError && !p.ThermoConstraints },
		apply:   func(p *Parameters) { p.ThermoConstraints = true },
	},
	{
		name:    "reaction-error-use-vars-imply-delta-g-error",
		applies: func(p *Parameters) bool { return p.ReactionErrorUseVariables && !p.DeltaGError },
		apply:   func(p *Parameters) { p.DeltaGError = true },
	},
	{
		name:    "thermo-implies-decompose-reversible",
		applies: func(p *Parameters) bool { return p.ThermoConstraints && !p.DecomposeReversible },
		apply:   func(p *Parameters) { p.DecomposeReversible = true },
	},
	{
		name: "interval-or-gene-or-deletion-optimization-implies-gene-constraints",
		applies: func(p *Parameters) bool {
			return (p.IntervalOptimization || p.GeneOptimization || p.DeletionOptimization) && !p.GeneConstraints
		},
		apply: func(p *Parameters) { p.GeneConstraints = true },
	},
	{
		name:    "all-reversible-implies-decompose-drain",
		applies: func(p *Parameters) bool { return p.AllReversible && !p.DecomposeDrain },
		apply:   func(p *Parameters) { p.DecomposeDrain = true },
	},
}

// Rectify applies rectifyRules to a fixed point, mutating p in place, and
// returns the names of every rule that fired at least once (for logging).
// Idempotent: calling Rectify again on an already-rectified Parameters
// returns an empty slice.
func Rectify(p *Parameters) []string {
	var fired []string
	for pass := 0; pass < maxRectifyPasses; pass++ {
		changed := false
		for _, rule := range rectifyRules {
			if rule.applies(p) {
				rule.apply(p)
				fired = append(fired, rule.name)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return fired
}
