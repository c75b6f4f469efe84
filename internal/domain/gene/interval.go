package gene

import (
	"fmt"

	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Interval groups every gene whose coordinates fall within
// [StartCoord, EndCoord) into a single deletion unit, paired with the
// experimentally observed growth rate when that window is knocked out as a
// whole. TotalGenes records the size of the genomic annotation's own gene
// count for the interval, which can exceed len(Genes) when not every
// annotated gene in the window was loaded into the active model.
type Interval struct {
	id ids.IntervalID

	StartCoord int
	EndCoord   int
	TotalGenes int

	ExperimentalGrowth float64

	Genes []ids.GeneID

	// UseVariableIndex is the builder-assigned binary decision variable
	// gating every gene in the interval at once; -1 until loaded. Its upper
	// bound is fixed to 0 (forcing the interval inactive, i.e. knocked out)
	// when ExperimentalGrowth is 0 — an interval observed not to grow when
	// deleted is not a candidate for any optimization that would have it
	// contribute flux.
	UseVariableIndex int

	index int
}

// IntervalDeclaration is the static input used to construct an Interval.
type IntervalDeclaration struct {
	ID                 ids.IntervalID
	StartCoord         int
	EndCoord           int
	TotalGenes         int
	ExperimentalGrowth float64
}

// NewInterval validates decl and constructs an Interval with no genes yet
// assigned; call Collect to populate Genes from a gene database.
func NewInterval(decl IntervalDeclaration) (*Interval, error) {
	if decl.ID == "" {
		return nil, mfaerr.InvalidParam("gene interval: id cannot be empty")
	}
	if decl.EndCoord < decl.StartCoord {
		return nil, mfaerr.InvalidParam(fmt.Sprintf("gene interval %s: end coord %d before start coord %d", decl.ID, decl.EndCoord, decl.StartCoord))
	}

	return &Interval{
		id:                 decl.ID,
		StartCoord:         decl.StartCoord,
		EndCoord:           decl.EndCoord,
		TotalGenes:         decl.TotalGenes,
		ExperimentalGrowth: decl.ExperimentalGrowth,
		UseVariableIndex:   -1,
		index:              -1,
	}, nil
}

// ID returns the interval's identifier.
func (iv *Interval) ID() ids.IntervalID { return iv.id }

// Index returns this interval's stable position in the arena it was added
// to, or -1 if it has not been added to one.
func (iv *Interval) Index() int { return iv.index }

// SetIndex assigns the interval's stable arena index. Called once by the
// owning arena on Add.
func (iv *Interval) SetIndex(idx int) { iv.index = idx }

// Collect scans every gene in the database and assigns to the interval
// every gene whose coordinates overlap [StartCoord, EndCoord). The genes
// themselves are not modified. Replaces any previously collected gene list.
func (iv *Interval) Collect(genes []*Gene) {
	iv.Genes = iv.Genes[:0]
	for _, g := range genes {
		if g.OverlapsInterval(iv.StartCoord, iv.EndCoord) {
			iv.Genes = append(iv.Genes, g.ID())
		}
	}
}

// NumLoadedGenes returns how many genes from the active model fall within
// the interval, which may be fewer than TotalGenes.
func (iv *Interval) NumLoadedGenes() int { return len(iv.Genes) }

// IsForcedInactive reports whether the interval's observed knockout growth
// rules out activating it at all — ExperimentalGrowth of exactly 0 means the
// deletion was lethal, so the interval's use variable must stay at 0.
func (iv *Interval) IsForcedInactive() bool { return iv.ExperimentalGrowth == 0 }
