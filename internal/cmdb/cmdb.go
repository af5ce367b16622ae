// Package cmdb reserves configuration-management-database slots for
// machines that matched a profile.
//
// A CMDB is an ordered list of entries. An entry is identified by its
// position; its content changes as machines are assigned to it. The reserved
// key "used" marks entries that have been handed out.
package cmdb

import (
	"errors"
	"maps"

	"bootmatch/internal/matcher"
)

// UsedKey is the reserved key marking an assigned entry.
const UsedKey = "used"

// ErrPoolExhausted is returned when no entry can be reused and none is free.
var ErrPoolExhausted = errors.New("no more entry in the CMDB")

// Entry is one CMDB slot.
type Entry map[string]any

// Used reports whether the entry has been handed out.
func (e Entry) Used() bool {
	_, ok := e[UsedKey]
	return ok
}

// Clone returns a shallow copy of e.
func (e Entry) Clone() Entry {
	out := make(Entry, len(e)+1)
	maps.Copy(out, e)
	return out
}

// Allocation describes the slot given to a request.
type Allocation struct {
	Index  int
	Reused bool
	// Vars is the request bindings overlaid with the entry content. It is
	// both what is stored at Index and what is sent to the machine.
	Vars matcher.Bindings
}

// Allocate picks a slot for a request with bindings vars and preference set
// prefs, and returns the updated list. entries is never modified.
//
// An entry whose content already includes prefs is reused first, whether or
// not it is marked used, so a machine booting again gets its previous slot
// back. Otherwise the first entry without the used flag is taken. When
// neither exists the result is ErrPoolExhausted and no state changes.
func Allocate(entries []Entry, vars, prefs matcher.Bindings) ([]Entry, Allocation, error) {
	idx, reused := -1, false
	for i, entry := range entries {
		if matcher.Subset(prefs, entry) {
			idx, reused = i, true
			break
		}
	}
	if idx < 0 {
		for i, entry := range entries {
			if !entry.Used() {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, Allocation{}, ErrPoolExhausted
	}

	merged := vars.Clone()
	maps.Copy(merged, entries[idx])
	merged[UsedKey] = int64(1)

	updated := make([]Entry, len(entries))
	copy(updated, entries)
	updated[idx] = Entry(merged.Clone())

	return updated, Allocation{Index: idx, Reused: reused, Vars: merged}, nil
}

// Free counts the entries that have never been handed out.
func Free(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if !e.Used() {
			n++
		}
	}
	return n
}
