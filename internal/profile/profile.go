// Package profile selects the provisioning profile a machine is assigned to.
package profile

import (
	"fmt"
	"strconv"

	"bootmatch/internal/hw"
	"bootmatch/internal/matcher"

	"gopkg.in/yaml.v3"
)

// unlimitedToken is how an unlimited budget is written in the state document.
const unlimitedToken = "*"

// Uses is the remaining usage budget of a profile: unlimited or a
// non-negative count that only ever decreases.
type Uses struct {
	unlimited bool
	n         int
}

// Unlimited returns a budget that is never exhausted nor decremented.
func Unlimited() Uses { return Uses{unlimited: true} }

// Times returns a finite budget of n uses.
func Times(n int) Uses {
	if n < 0 {
		n = 0
	}
	return Uses{n: n}
}

func (u Uses) IsUnlimited() bool { return u.unlimited }

// Count returns the finite count, or -1 for an unlimited budget.
func (u Uses) Count() int {
	if u.unlimited {
		return -1
	}
	return u.n
}

// Exhausted reports a finite budget of zero.
func (u Uses) Exhausted() bool { return !u.unlimited && u.n == 0 }

// Decrement returns the budget after one use.
func (u Uses) Decrement() Uses {
	if u.unlimited || u.n == 0 {
		return u
	}
	return Uses{n: u.n - 1}
}

func (u Uses) String() string {
	if u.unlimited {
		return unlimitedToken
	}
	return strconv.Itoa(u.n)
}

func (u Uses) MarshalYAML() (interface{}, error) {
	if u.unlimited {
		return unlimitedToken, nil
	}
	return u.n, nil
}

func (u *Uses) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: remaining uses must be %q or an integer", node.Line, unlimitedToken)
	}
	if node.Value == unlimitedToken {
		*u = Unlimited()
		return nil
	}
	n, err := strconv.Atoi(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: remaining uses must be %q or an integer, got %q", node.Line, unlimitedToken, node.Value)
	}
	if n < 0 {
		return fmt.Errorf("line %d: remaining uses cannot be negative (%d)", node.Line, n)
	}
	*u = Times(n)
	return nil
}

// Profile is a named provisioning target. The order of a profile list is its
// priority order.
type Profile struct {
	Name     string
	Spec     matcher.Spec
	Uses     Uses
	Template []byte
}

// Selection is the outcome of a successful Select.
type Selection struct {
	// Index is the position of the profile in the list given to Select.
	Index   int
	Profile Profile
	// Vars holds every captured variable.
	Vars matcher.Bindings
	// Prefs is the CMDB preference set: the variables captured by Prefer
	// fields, or Vars when the spec declares none.
	Prefs matcher.Bindings
}

// NoMatchError is returned when no eligible profile matches the facts. It
// carries everything an operator needs to find out why.
type NoMatchError struct {
	// Spec is the spec of the last profile attempted, if any.
	Spec    matcher.Spec
	Tried   []string
	Skipped []string
	Facts   hw.Facts
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("unable to match requirements (tried %d profiles, %d exhausted)", len(e.Tried), len(e.Skipped))
}

// Diagnostic renders the complete attempted spec and fact dump.
func (e *NoMatchError) Diagnostic() string {
	return fmt.Sprintf("Specs: %s\nLines: %s", e.Spec, e.Facts)
}

// Select returns the first profile, in priority order, whose budget is not
// exhausted and whose whole spec matches facts. Each attempt uses fresh
// binding sets, so nothing captured by a failed attempt is visible later.
func Select(facts hw.Facts, profiles []Profile) (*Selection, error) {
	noMatch := &NoMatchError{Facts: facts}
	for i, p := range profiles {
		if p.Uses.Exhausted() {
			noMatch.Skipped = append(noMatch.Skipped, p.Name)
			continue
		}
		vars, prefs := matcher.Bindings{}, matcher.Bindings{}
		ok, err := matcher.MatchAll(facts, p.Spec, vars, prefs)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		noMatch.Tried = append(noMatch.Tried, p.Name)
		noMatch.Spec = p.Spec
		if !ok {
			continue
		}
		if len(prefs) == 0 {
			prefs = vars
		}
		return &Selection{Index: i, Profile: p, Vars: vars, Prefs: prefs}, nil
	}
	return nil, noMatch
}

// Consume records one use of profiles[idx]. Unlimited budgets are untouched.
func Consume(profiles []Profile, idx int) error {
	if idx < 0 || idx >= len(profiles) {
		return fmt.Errorf("profile index %d out of range", idx)
	}
	if profiles[idx].Uses.Exhausted() {
		return fmt.Errorf("profile %s has no remaining uses", profiles[idx].Name)
	}
	profiles[idx].Uses = profiles[idx].Uses.Decrement()
	return nil
}
