// Package store persists the only mutable state of bootmatch: the profile
// budgets and the CMDB of each profile.
//
// Both live as documents: a state document listing the profiles in priority
// order with their remaining uses, and per profile a spec, a configuration
// template and an optional CMDB. The same documents can be kept as files in
// a configuration directory or as rows of a SQLite database.
//
// Stores do no locking of their own. Every read-modify-write must happen
// inside the critical section of package lock.
package store

import (
	"context"
	"errors"
	"fmt"

	"bootmatch/internal/cmdb"
	"bootmatch/internal/profile"
)

// ErrNotFound is returned for a document that does not exist.
var ErrNotFound = errors.New("document not found")

// Document kinds.
const (
	KindState     = "state"
	KindSpecs     = "specs"
	KindConfigure = "configure"
	KindCMDB      = "cmdb"
)

// Store is the state-store abstraction injected into the allocator.
type Store interface {
	// LoadProfiles returns every profile in priority order with its spec,
	// template and remaining uses.
	LoadProfiles(ctx context.Context) ([]profile.Profile, error)
	// SaveProfiles persists the remaining uses of every profile.
	SaveProfiles(ctx context.Context, profiles []profile.Profile) error
	// LoadCMDB returns the CMDB of a profile, or ErrNotFound when the
	// profile has none.
	LoadCMDB(ctx context.Context, name string) ([]cmdb.Entry, error)
	// SaveCMDB rewrites the whole CMDB of a profile.
	SaveCMDB(ctx context.Context, name string, entries []cmdb.Entry) error
}

// StoreError reports a persisted document that cannot be read or decoded.
// It is fatal: stores never repair state on their own.
type StoreError struct {
	Kind string
	Name string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s document: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s document of %s: %v", e.Kind, e.Name, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
