package gene

import (
	"github.com/turtacn/mfa-engine/internal/domain/arena"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Database is the arena-backed gene store for one model.
type Database struct {
	arena *arena.Arena[*Gene]
}

// NewDatabase returns an empty gene Database.
func NewDatabase() *Database {
	return &Database{arena: arena.New[*Gene]()}
}

// Add assigns g the next stable index and stores it. Returns
// mfaerr.CodeConflict if g.ID() is already present.
func (db *Database) Add(g *Gene) (int, error) {
	idx, err := db.arena.Add(string(g.ID()), g)
	if err != nil {
		return 0, mfaerr.Conflict("gene database: " + err.Error())
	}
	g.SetIndex(idx)
	return idx, nil
}

// Get returns the gene with the given id.
func (db *Database) Get(id ids.GeneID) (*Gene, error) {
	g, _, ok := db.arena.Get(string(id))
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeGeneNotFound, "gene database: no gene "+string(id))
	}
	return g, nil
}

// ByIndex returns the gene at the given stable arena index.
func (db *Database) ByIndex(idx int) (*Gene, error) {
	g, ok := db.arena.ByIndex(idx)
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeGeneNotFound, "gene database: no gene at index")
	}
	return g, nil
}

// Remove deletes the gene with the given id from the database.
func (db *Database) Remove(id ids.GeneID) bool {
	return db.arena.Remove(string(id))
}

// Len returns the number of genes currently in the database.
func (db *Database) Len() int { return db.arena.Len() }

// All returns every gene currently in the database.
func (db *Database) All() []*Gene { return db.arena.All() }

// IntervalDatabase is the arena-backed interval store for one model.
type IntervalDatabase struct {
	arena *arena.Arena[*Interval]
}

// NewIntervalDatabase returns an empty interval Database.
func NewIntervalDatabase() *IntervalDatabase {
	return &IntervalDatabase{arena: arena.New[*Interval]()}
}

// Add assigns iv the next stable index and stores it.
func (db *IntervalDatabase) Add(iv *Interval) (int, error) {
	idx, err := db.arena.Add(string(iv.ID()), iv)
	if err != nil {
		return 0, mfaerr.Conflict("gene interval database: " + err.Error())
	}
	iv.SetIndex(idx)
	return idx, nil
}

// Get returns the interval with the given id.
func (db *IntervalDatabase) Get(id ids.IntervalID) (*Interval, error) {
	iv, _, ok := db.arena.Get(string(id))
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeNotFound, "gene interval database: no interval "+string(id))
	}
	return iv, nil
}

// All returns every interval currently in the database.
func (db *IntervalDatabase) All() []*Interval { return db.arena.All() }

// Len returns the number of intervals currently in the database.
func (db *IntervalDatabase) Len() int { return db.arena.Len() }
