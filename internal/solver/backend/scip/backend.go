// Package scip implements the open-source mixed-integer fallback backend:
// branch-and-bound over the simplex package's LP relaxation engine, the same
// structure the real SCIP solver uses (an LP relaxation core plus a
// branching search), grounded on SolverInterface.cpp's SOLVER_SCIP dispatch
// entry.
package scip

import (
	"io"
	"math"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/internal/solver/backend/simplex"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// maxNodes bounds the branch-and-bound search so a pathological integer
// program cannot run forever; if the budget is exhausted the best
// incumbent found so far (if any) is returned rather than blocking
// indefinitely.
const maxNodes = 20000

// Backend is the open-source MILP solver, named "s-mip" per the facade's
// backend vocabulary. It reuses simplex.Backend for all bookkeeping and LP
// relaxations, adding an integer branch-and-bound search on top for MILP
// runs.
type Backend struct {
	lp *simplex.Backend
}

// New returns an initialized scip Backend.
func New() *Backend { return &Backend{lp: simplex.New()} }

func (b *Backend) Name() string { return "s-mip" }

func (b *Backend) Capabilities() solver.Capability { return solver.CapLP | solver.CapMILP }

func (b *Backend) Available() bool { return true }

func (b *Backend) Init() error { return b.lp.Init() }

func (b *Backend) Reset() error { return b.lp.Reset() }

func (b *Backend) LoadVariable(v *model.Variable, relaxIntegrality, useTightBounds bool) (int, error) {
	return b.lp.LoadVariable(v, relaxIntegrality, useTightBounds)
}

func (b *Backend) LoadObjective(obj model.Objective) error { return b.lp.LoadObjective(obj) }

func (b *Backend) AddConstraint(eq *model.LinEquation) (int, error) { return b.lp.AddConstraint(eq) }

func (b *Backend) RemoveConstraint(name string) error { return b.lp.RemoveConstraint(name) }

func (b *Backend) WriteLP(w io.Writer) error { return b.lp.WriteLP(w) }

// Variables exposes the underlying simplex backend's loaded variables.
func (b *Backend) Variables() []*model.Variable { return b.lp.Variables() }

// Rows exposes the underlying simplex backend's loaded constraint rows.
func (b *Backend) Rows() []*model.LinEquation { return b.lp.Rows() }

// Objective exposes the underlying simplex backend's loaded objective.
func (b *Backend) Objective() model.Objective { return b.lp.Objective() }

func (b *Backend) Run(class solver.ProblemClass, opts solver.RunOptions) (model.OptSolutionData, error) {
	if class == solver.LP {
		return b.lp.Run(solver.LP, opts)
	}
	if class != solver.MILP {
		return model.OptSolutionData{Status: model.StatusFailed},
			mfaerr.New(mfaerr.CodeSolverUnavailable, "s-mip: only LP and MILP are supported")
	}

	vars := b.lp.Variables()
	var intCols []int
	for i, v := range vars {
		if !v.IsLoaded() {
			continue
		}
		if v.Integer || v.Binary {
			intCols = append(intCols, i)
		}
	}

	tableau := b.lp.BuildTableau()
	if len(intCols) == 0 {
		return b.lp.Run(solver.LP, opts)
	}

	tol := opts.IntegerTolerance
	if tol <= 0 {
		tol = 1e-6
	}
	zeroTol := opts.ZeroTolerance
	if zeroTol <= 0 {
		zeroTol = 1e-9
	}

	incumbent, found, err := branchAndBound(tableau, intCols, tol, zeroTol)
	if err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.Wrap(err, mfaerr.CodeSolveFailed, "s-mip: branch and bound")
	}
	if !found {
		return model.OptSolutionData{Status: model.StatusInfeasible}, nil
	}
	return model.OptSolutionData{Status: model.StatusOptimal, ObjectiveValue: incumbent.ObjectiveValue, Values: incumbent.Values}, nil
}

type bnbNode struct {
	bounds []simplex.Bound
}

// branchAndBound performs a depth-first search, branching on the most
// fractional integer column at each node and pruning any node whose LP
// relaxation is no better than the current incumbent.
func branchAndBound(t simplex.Tableau, intCols []int, intTol, zeroTol float64) (simplex.Solution, bool, error) {
	root := bnbNode{bounds: append([]simplex.Bound(nil), t.Bounds...)}
	stack := []bnbNode{root}

	var best simplex.Solution
	haveBest := false
	nodes := 0

	better := func(candidate float64) bool {
		if !haveBest {
			return true
		}
		if t.Maximize {
			return candidate > best.ObjectiveValue+zeroTol
		}
		return candidate < best.ObjectiveValue-zeroTol
	}

	for len(stack) > 0 && nodes < maxNodes {
		nodes++
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		relaxed := t
		relaxed.Bounds = node.bounds
		sol, err := simplex.Solve(relaxed, zeroTol)
		if err != nil {
			return simplex.Solution{}, false, err
		}
		if sol.Status != simplex.Optimal {
			continue
		}
		if haveBest && !better(sol.ObjectiveValue) {
			continue
		}

		fracCol := -1
		mostFractional := intTol
		for _, c := range intCols {
			val := sol.Values[c]
			frac := math.Abs(val - math.Round(val))
			if frac > mostFractional {
				mostFractional = frac
				fracCol = c
			}
		}

		if fracCol == -1 {
			for _, c := range intCols {
				sol.Values[c] = math.Round(sol.Values[c])
			}
			if !haveBest || better(sol.ObjectiveValue) {
				best = sol
				haveBest = true
			}
			continue
		}

		floorVal := math.Floor(sol.Values[fracCol])
		ceilVal := floorVal + 1

		if floorVal >= node.bounds[fracCol].Lower {
			leftBounds := append([]simplex.Bound(nil), node.bounds...)
			leftBounds[fracCol].Upper = floorVal
			stack = append(stack, bnbNode{bounds: leftBounds})
		}
		if ceilVal <= node.bounds[fracCol].Upper {
			rightBounds := append([]simplex.Bound(nil), node.bounds...)
			rightBounds[fracCol].Lower = ceilVal
			stack = append(stack, bnbNode{bounds: rightBounds})
		}
	}

	return best, haveBest, nil
}
