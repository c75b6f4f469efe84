package model

// SignEnvelope classifies a variable's tight-bound interval by which side
// of zero it can reach, per the orchestrator's FVA reporting contract.
type SignEnvelope int

const (
	// Blocked: min and max are both within tolerance of zero — the
	// variable can never carry meaningful flux.
	Blocked SignEnvelope = iota
	// Positive: min is strictly greater than zero.
	Positive
	// Negative: max is strictly less than zero.
	Negative
	// Variable: the interval spans both strictly positive and strictly
	// negative values.
	Variable
	// PositiveVariable: min is within tolerance of zero, max is strictly
	// positive — the variable can be zero or positive, never negative.
	PositiveVariable
	// NegativeVariable: max is within tolerance of zero, min is strictly
	// negative — the variable can be zero or negative, never positive.
	NegativeVariable
)

// String renders a SignEnvelope using the orchestrator's {P,N,V,PV,NV,B}
// tags.
func (e SignEnvelope) String() string {
	switch e {
	case Positive:
		return "P"
	case Negative:
		return "N"
	case Variable:
		return "V"
	case PositiveVariable:
		return "PV"
	case NegativeVariable:
		return "NV"
	default:
		return "B"
	}
}

// Classify derives a SignEnvelope from a tight-bound interval, within tol of
// zero.
func Classify(bounds Bounds, tol float64) SignEnvelope {
	minIsZero := bounds.Min >= -tol && bounds.Min <= tol
	maxIsZero := bounds.Max >= -tol && bounds.Max <= tol

	switch {
	case minIsZero && maxIsZero:
		return Blocked
	case bounds.Min > tol:
		return Positive
	case bounds.Max < -tol:
		return Negative
	case bounds.Min < -tol && bounds.Max > tol:
		return Variable
	case minIsZero && bounds.Max > tol:
		return PositiveVariable
	case maxIsZero && bounds.Min < -tol:
		return NegativeVariable
	default:
		return Variable
	}
}

// Classify returns the SignEnvelope of v's tight bounds, within tol of
// zero. Callers should only trust this once v.TightSet is true; an unset
// Tight interval is the zero value and would otherwise misreport as
// Blocked.
func (v *Variable) Classify(tol float64) SignEnvelope {
	return Classify(v.Tight, tol)
}
