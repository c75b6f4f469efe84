package reaction

import (
	"github.com/turtacn/mfa-engine/internal/domain/arena"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Database is the arena-backed reaction store for one model.
type Database struct {
	arena *arena.Arena[*Reaction]
}

// NewDatabase returns an empty reaction Database.
func NewDatabase() *Database {
	return &Database{arena: arena.New[*Reaction]()}
}

// Add assigns r the next stable index and stores it. Returns
// mfaerr.CodeConflict if r.ID() is already present.
func (db *Database) Add(r *Reaction) (int, error) {
	idx, err := db.arena.Add(string(r.ID()), r)
	if err != nil {
		return 0, mfaerr.Conflict("reaction database: " + err.Error())
	}
	r.SetIndex(idx)
	return idx, nil
}

// Get returns the reaction with the given id.
func (db *Database) Get(id ids.ReactionID) (*Reaction, error) {
	r, _, ok := db.arena.Get(string(id))
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeReactionNotFound, "reaction database: no reaction "+string(id))
	}
	return r, nil
}

// ByIndex returns the reaction at the given stable arena index.
func (db *Database) ByIndex(idx int) (*Reaction, error) {
	r, ok := db.arena.ByIndex(idx)
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeReactionNotFound, "reaction database: no reaction at index")
	}
	return r, nil
}

// Remove deletes the reaction with the given id from the database.
func (db *Database) Remove(id ids.ReactionID) bool {
	return db.arena.Remove(string(id))
}

// Len returns the number of reactions currently in the database.
func (db *Database) Len() int { return db.arena.Len() }

// All returns every reaction currently in the database.
func (db *Database) All() []*Reaction { return db.arena.All() }
