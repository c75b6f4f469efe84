package model

import "github.com/turtacn/mfa-engine/pkg/mfaerr"

// Solve is the callback FindTightBounds drives to obtain a solution for the
// current ProblemState; internal/analysis supplies one backed by the
// solver facade. Keeping this a function type instead of importing the
// solver package directly avoids a model → solver → model import cycle —
// solver consumes model.Variable/LinEquation, model must not consume
// solver.
type Solve func(p *ProblemState) (OptSolutionData, error)

// RelaxationFactor is how much ObjectiveFraction is reduced by each retry
// when the objective-pin constraint renders the problem infeasible.
const RelaxationFactor = 0.5

// MinObjectiveFraction is the floor FindTightBounds stops relaxing at; below
// this the objective pin is dropped entirely rather than weakened further.
const MinObjectiveFraction = 1e-6

// FindTightBounds runs the flux-variability algorithm over variables:
// solve once for the unconstrained optimum, then for each variable push a
// snapshot, pin the objective to at least objectiveFraction·optimum (or at
// most, when the original objective is being minimized), minimize then
// maximize the variable itself, record (min,max) on it, and pop. If pinning
// the objective makes the problem infeasible, the pin is relaxed by
// RelaxationFactor repeatedly down to MinObjectiveFraction before being
// dropped altogether, so a single numerically fragile pin never aborts the
// whole sweep.
func FindTightBounds(p *ProblemState, variables []*Variable, objectiveFraction float64, solve Solve) error {
	baseline, err := solve(p)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSolveFailed, "tight bounds: baseline solve")
	}
	if !baseline.IsUsable() {
		return mfaerr.New(mfaerr.CodeSolveInfeasible, "tight bounds: baseline objective is not optimal")
	}

	for _, v := range variables {
		minVal, err := tightBoundOnePass(p, v, baseline.ObjectiveValue, objectiveFraction, false, solve)
		if err != nil {
			return err
		}
		maxVal, err := tightBoundOnePass(p, v, baseline.ObjectiveValue, objectiveFraction, true, solve)
		if err != nil {
			return err
		}
		v.Tight = Bounds{Min: minVal, Max: maxVal}
		v.TightSet = true
	}
	return nil
}

// tightBoundOnePass pins the objective, replaces it with v itself
// (minimize or maximize per maximizeTarget), solves, and returns v's
// solution value; it pops back to the pre-pin ProblemState before
// returning, successful or not.
func tightBoundOnePass(p *ProblemState, v *Variable, baselineObjective float64, objectiveFraction float64, maximizeTarget bool, solve Solve) (float64, error) {
	p.Push()
	defer p.Pop()

	original := Objective{
		Terms:     append([]Term(nil), p.Objective.Terms...),
		Quadratic: append([]QuadraticTerm(nil), p.Objective.Quadratic...),
		Maximize:  p.Objective.Maximize,
	}

	fraction := objectiveFraction
	var sol OptSolutionData
	var err error

	for {
		pin := pinObjectiveConstraint(original, baselineObjective, fraction)
		if pin != nil {
			p.AddConstraint(pin)
		}

		p.Objective = Objective{Maximize: maximizeTarget}
		p.Objective.AddTerm(v, 1)

		sol, err = solve(p)
		if err != nil {
			return 0, mfaerr.Wrap(err, mfaerr.CodeSolveFailed, "tight bounds: pass solve for "+v.Name)
		}
		if sol.IsUsable() {
			break
		}
		if pin == nil {
			return 0, mfaerr.New(mfaerr.CodeSolveInfeasible, "tight bounds: "+v.Name+" infeasible even without objective pin")
		}

		p.RemoveConstraint(pin.Name)
		fraction *= RelaxationFactor
		if fraction < MinObjectiveFraction {
			fraction = 0
		}
	}

	val, _ := sol.ValueOf(v)
	return val, nil
}

// pinObjectiveConstraint builds the "fix objective to at least
// fraction·baseline" row. Returns nil when fraction has been relaxed to
// zero, signaling the pin should be dropped entirely for this retry.
func pinObjectiveConstraint(original Objective, baselineObjective float64, fraction float64) *LinEquation {
	if fraction <= 0 {
		return nil
	}

	equality := GreaterEqual
	if !original.Maximize {
		equality = LessEqual
	}
	eq := NewLinEquation("_objective_pin", fraction*baselineObjective, equality)
	eq.Meaning = ObjectivePin
	eq.Terms = append(eq.Terms, original.Terms...)
	return eq
}
