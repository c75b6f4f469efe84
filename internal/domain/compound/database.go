package compound

import (
	"github.com/turtacn/mfa-engine/internal/domain/arena"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Database is the arena-backed compound store for one model. Compounds are
// looked up by ids.CompoundID or by the stable integer index assigned on
// Add, never by pointer chase through a reaction's reactant list.
type Database struct {
	arena *arena.Arena[*Compound]
}

// NewDatabase returns an empty compound Database.
func NewDatabase() *Database {
	return &Database{arena: arena.New[*Compound]()}
}

// Add assigns c the next stable index and stores it. Returns
// mfaerr.CodeConflict if c.ID() is already present.
func (db *Database) Add(c *Compound) (int, error) {
	idx, err := db.arena.Add(string(c.ID()), c)
	if err != nil {
		return 0, mfaerr.Conflict("compound database: " + err.Error())
	}
	c.SetIndex(idx)
	return idx, nil
}

// Get returns the compound with the given id.
func (db *Database) Get(id ids.CompoundID) (*Compound, error) {
	c, _, ok := db.arena.Get(string(id))
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeCompoundNotFound, "compound database: no compound "+string(id))
	}
	return c, nil
}

// ByIndex returns the compound at the given stable arena index.
func (db *Database) ByIndex(idx int) (*Compound, error) {
	c, ok := db.arena.ByIndex(idx)
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeCompoundNotFound, "compound database: no compound at index")
	}
	return c, nil
}

// Remove deletes the compound with the given id from the database. Its
// arena slot is cleared but not reused, so any index previously handed out
// for it becomes invalid rather than silently referring to a different
// compound.
func (db *Database) Remove(id ids.CompoundID) bool {
	return db.arena.Remove(string(id))
}

// Len returns the number of compounds currently in the database.
func (db *Database) Len() int { return db.arena.Len() }

// All returns every compound currently in the database.
func (db *Database) All() []*Compound { return db.arena.All() }

// Lookup adapts the database to the CueLookup signature ComposeGroupEnergy
// and ComposeGroupCharge expect.
func (db *Database) Lookup(id ids.CompoundID) (*Compound, error) { return db.Get(id) }
