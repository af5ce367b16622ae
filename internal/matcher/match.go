package matcher

import (
	"maps"

	"bootmatch/internal/hw"
)

// Bindings maps a variable name to a captured scalar or to a []any of
// captured values.
type Bindings map[string]any

// Clone returns a shallow copy of b; a nil b yields an empty map.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	maps.Copy(out, b)
	return out
}

// MatchOne binds p against the first structurally compatible fact.
// Bind fields keep an existing value (first wins); Collect fields are only
// set when unset, as a one-element list.
func MatchOne(p Pattern, facts hw.Facts, vars Bindings) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	for _, fact := range facts {
		if !p.compatible(fact) {
			continue
		}
		for i, f := range p {
			value := fact.Field(i)
			switch f.kind {
			case KindBind:
				if _, ok := vars[f.name]; !ok {
					vars[f.name] = value
				}
			case KindCollect:
				if _, ok := vars[f.name]; !ok {
					vars[f.name] = []any{value}
				}
			}
		}
		return true, nil
	}
	return false, nil
}

// MatchCollect binds each Collect field of p to the ordered list of values
// taken from every compatible fact. Bind fields bind from the first one.
// It fails when no fact is compatible.
func MatchCollect(p Pattern, facts hw.Facts, vars Bindings) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	collected := make(map[string][]any)
	first := true
	for _, fact := range facts {
		if !p.compatible(fact) {
			continue
		}
		for i, f := range p {
			value := fact.Field(i)
			switch f.kind {
			case KindCollect:
				collected[f.name] = append(collected[f.name], value)
			case KindBind:
				if _, ok := vars[f.name]; first && !ok {
					vars[f.name] = value
				}
			}
		}
		first = false
	}
	if first {
		return false, nil
	}
	for name, values := range collected {
		vars[name] = values
	}
	return true, nil
}

// MatchAll requires every pattern of spec to match. Captures are written to
// vars, and values captured by Prefer fields are also written to prefs.
//
// vars and prefs must be non-nil. The attempt works on private copies: when
// a pattern fails or is misconfigured, vars and prefs are left as they were.
func MatchAll(facts hw.Facts, spec Spec, vars, prefs Bindings) (bool, error) {
	attempt := vars.Clone()
	attemptPrefs := prefs.Clone()

	for i, p := range spec {
		var (
			ok  bool
			err error
		)
		if p.HasCollect() {
			ok, err = MatchCollect(p, facts, attempt)
		} else {
			ok, err = MatchOne(p, facts, attempt)
		}
		if err != nil {
			if ce, isCfg := err.(*ConfigError); isCfg {
				ce.Pattern = i + 1
			}
			return false, err
		}
		if !ok {
			return false, nil
		}
		for _, f := range p {
			if !f.IsPrefer() {
				continue
			}
			if _, set := attemptPrefs[f.name]; !set {
				attemptPrefs[f.name] = attempt[f.name]
			}
		}
	}

	maps.Copy(vars, attempt)
	maps.Copy(prefs, attemptPrefs)
	return true, nil
}

// Subset reports whether every key of sub is present in super with an equal
// value. An empty sub is a subset of anything.
func Subset(sub, super map[string]any) bool {
	for key, value := range sub {
		other, ok := super[key]
		if !ok || !hw.EqualValues(value, other) {
			return false
		}
	}
	return true
}
