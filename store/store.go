// Package store persists the live session snapshot in a key-value database,
// so that a restarted node resumes the workflow where it stopped.
package store

import (
	"encoding/json"

	"github.com/mickablondo/voting-node/types"
	"go.vocdoni.io/dvote/db"
)

var dbKeySessionSnapshot = []byte("sessionSnapshot")

// SessionStore stores the session snapshot under a single key
type SessionStore struct {
	db db.Database
}

// New returns a SessionStore backed by the given database
func New(database db.Database) *SessionStore {
	return &SessionStore{db: database}
}

// Save stores the given snapshot, replacing the previous one
func (s *SessionStore) Save(snapshot types.SessionSnapshot) error {
	b, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	wTx := s.db.WriteTx()
	defer wTx.Discard()

	if err := wTx.Set(dbKeySessionSnapshot, b); err != nil {
		return err
	}
	return wTx.Commit()
}

// Load returns the stored snapshot, or nil when no snapshot has been stored
// yet
func (s *SessionStore) Load() (*types.SessionSnapshot, error) {
	rTx := s.db.ReadTx()
	defer rTx.Discard()

	b, err := rTx.Get(dbKeySessionSnapshot)
	if err == db.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var snapshot types.SessionSnapshot
	if err := json.Unmarshal(b, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
