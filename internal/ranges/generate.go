package ranges

import (
	"iter"
	"maps"
	"slices"
)

// Generate expands every field of model in lockstep and returns one record
// per step. Expansion stops as soon as any ranged field is exhausted, so the
// output is as long as the shortest range.
//
// Literal fields do not bound the output: they are repeated in every record.
// A model made only of literals yields exactly one record and an empty
// model yields none.
func Generate(model map[string]any) []map[string]any {
	if len(model) == 0 {
		return nil
	}

	keys := slices.Sorted(maps.Keys(model))
	type puller struct {
		key   string
		next  func() (string, bool)
		stop  func()
		fixed any
	}
	pullers := make([]puller, 0, len(keys))
	ranged := false
	for _, key := range keys {
		value := model[key]
		if !IsRange(value) {
			pullers = append(pullers, puller{key: key, fixed: value})
			continue
		}
		next, stop := iter.Pull(Expand(value))
		pullers = append(pullers, puller{key: key, next: next, stop: stop})
		ranged = true
	}
	defer func() {
		for _, p := range pullers {
			if p.stop != nil {
				p.stop()
			}
		}
	}()

	var result []map[string]any
	for {
		entry := make(map[string]any, len(pullers))
		for _, p := range pullers {
			if p.next == nil {
				entry[p.key] = p.fixed
				continue
			}
			v, ok := p.next()
			if !ok {
				return result
			}
			entry[p.key] = v
		}
		result = append(result, entry)
		if !ranged {
			return result
		}
	}
}
