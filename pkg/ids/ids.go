// Package ids provides platform-wide identifier types shared across domain,
// builder, solver, and analysis layers. Using named string types instead of
// bare strings prevents accidental mixing of different id domains at compile
// time (a CompoundID can never be passed where a ReactionID is expected).
package ids

import "github.com/google/uuid"

// CompoundID identifies a Compound within its owning arena.
type CompoundID string

// ReactionID identifies a Reaction within its owning arena.
type ReactionID string

// GeneID identifies a Gene within its owning arena.
type GeneID string

// IntervalID identifies a GeneInterval.
type IntervalID string

// CompartmentID identifies a Compartment.
type CompartmentID string

// RunID identifies a single orchestrator analysis run, used to correlate log
// entries, metrics, cached tight bounds, and persisted OptSolutionData rows.
type RunID string

// NewRunID generates a new random UUID v4 run identifier.
func NewRunID() RunID { return RunID(uuid.New().String()) }
