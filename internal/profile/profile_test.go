package profile

import (
	"fmt"
	"testing"

	"bootmatch/internal/hw"
	"bootmatch/internal/matcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

var serialFacts = hw.Facts{
	{Category: "system", ID: "product", Attribute: "serial", Value: "ABC123"},
	{Category: "system", ID: "product", Attribute: "vendor", Value: "HP"},
	{Category: "disk", ID: "sda", Attribute: "size", Value: "100"},
}

func serialSpec() matcher.Spec {
	return matcher.Spec{
		matcher.P(matcher.Literal("system"), matcher.Literal("product"), matcher.Literal("serial"), matcher.Bind("serial")),
	}
}

func TestSelectFirstMatchWins(t *testing.T) {
	profiles := []Profile{
		{Name: "dell", Uses: Unlimited(), Spec: matcher.Spec{
			matcher.P(matcher.Literal("system"), matcher.Literal("product"), matcher.Literal("vendor"), matcher.Literal("Dell")),
		}},
		{Name: "hp", Uses: Times(2), Spec: serialSpec()},
		{Name: "fallback", Uses: Unlimited(), Spec: matcher.Spec{}},
	}

	sel, err := Select(serialFacts, profiles)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, "hp", sel.Profile.Name)
	assert.Equal(t, matcher.Bindings{"serial": "ABC123"}, sel.Vars)
	assert.Equal(t, sel.Vars, sel.Prefs, "prefs fall back to vars")
}

func TestSelectSkipsExhausted(t *testing.T) {
	profiles := []Profile{
		{Name: "hp", Uses: Times(0), Spec: serialSpec()},
		{Name: "hp-spare", Uses: Times(1), Spec: serialSpec()},
	}
	sel, err := Select(serialFacts, profiles)
	require.NoError(t, err)
	assert.Equal(t, "hp-spare", sel.Profile.Name)
}

func TestSelectPrefs(t *testing.T) {
	profiles := []Profile{{Name: "hp", Uses: Unlimited(), Spec: matcher.Spec{
		matcher.P(matcher.Literal("system"), matcher.Literal("product"), matcher.Literal("serial"), matcher.Prefer("serial")),
		matcher.P(matcher.Literal("disk"), matcher.Bind("disk"), matcher.Literal("size"), matcher.Bind("size")),
	}}}
	sel, err := Select(serialFacts, profiles)
	require.NoError(t, err)
	assert.Equal(t, matcher.Bindings{"serial": "ABC123"}, sel.Prefs)
	assert.Equal(t, matcher.Bindings{"serial": "ABC123", "disk": "sda", "size": "100"}, sel.Vars)
}

func TestSelectNoMatch(t *testing.T) {
	spec := matcher.Spec{
		matcher.P(matcher.Literal("disk"), matcher.Any(), matcher.Literal("size"), matcher.Literal("999")),
	}
	profiles := []Profile{
		{Name: "exhausted", Uses: Times(0), Spec: serialSpec()},
		{Name: "big-disk", Uses: Unlimited(), Spec: spec},
	}
	_, err := Select(serialFacts, profiles)
	require.Error(t, err)

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, []string{"big-disk"}, noMatch.Tried)
	assert.Equal(t, []string{"exhausted"}, noMatch.Skipped)
	assert.Contains(t, noMatch.Diagnostic(), `Specs: [("disk", *, "size", "999")]`)
	assert.Contains(t, noMatch.Diagnostic(), `("system", "product", "serial", "ABC123")`)
}

func TestSelectConfigError(t *testing.T) {
	profiles := []Profile{{Name: "broken", Uses: Unlimited(), Spec: matcher.Spec{{}}}}
	_, err := Select(serialFacts, profiles)
	require.Error(t, err)

	var cfgErr *matcher.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "profile broken")
}

func TestConsume(t *testing.T) {
	profiles := []Profile{{Name: "a", Uses: Times(1)}, {Name: "b", Uses: Unlimited()}}

	require.NoError(t, Consume(profiles, 0))
	assert.Equal(t, 0, profiles[0].Uses.Count())
	assert.Error(t, Consume(profiles, 0))

	require.NoError(t, Consume(profiles, 1))
	assert.True(t, profiles[1].Uses.IsUnlimited())

	assert.Error(t, Consume(profiles, 5))
}

func TestSerialScenario(t *testing.T) {
	profiles := []Profile{{Name: "p1", Uses: Times(1), Spec: serialSpec()}}
	facts := hw.Facts{{Category: "system", ID: "product", Attribute: "serial", Value: "ABC123"}}

	sel, err := Select(facts, profiles)
	require.NoError(t, err)
	assert.Equal(t, "p1", sel.Profile.Name)
	assert.Equal(t, matcher.Bindings{"serial": "ABC123"}, sel.Vars)
	require.NoError(t, Consume(profiles, sel.Index))
	assert.Equal(t, 0, profiles[0].Uses.Count())

	_, err = Select(facts, profiles)
	var noMatch *NoMatchError
	assert.ErrorAs(t, err, &noMatch)
}

func TestUsesYAML(t *testing.T) {
	type doc struct {
		Remaining Uses `yaml:"remaining"`
	}
	tests := []struct {
		in      string
		want    Uses
		wantErr string
	}{
		{in: `remaining: "*"`, want: Unlimited()},
		{in: `remaining: 3`, want: Times(3)},
		{in: `remaining: 0`, want: Times(0)},
		{in: `remaining: -1`, wantErr: "cannot be negative"},
		{in: `remaining: lots`, wantErr: "must be"},
		{in: `remaining: [1]`, wantErr: "must be"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d doc
			err := yaml.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Remaining)

			out, err := yaml.Marshal(d)
			require.NoError(t, err)
			var back doc
			require.NoError(t, yaml.Unmarshal(out, &back))
			assert.Equal(t, tt.want, back.Remaining)
		})
	}
}

func TestProperty_NeverSelectsExhausted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "profiles")
		profiles := make([]Profile, n)
		for i := range profiles {
			uses := Times(rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("uses%d", i)))
			if rapid.Bool().Draw(t, fmt.Sprintf("unlimited%d", i)) {
				uses = Unlimited()
			}
			profiles[i] = Profile{Name: fmt.Sprintf("p%d", i), Uses: uses, Spec: serialSpec()}
		}

		for step := 0; step < 6; step++ {
			sel, err := Select(serialFacts, profiles)
			if err != nil {
				for _, p := range profiles {
					if !p.Uses.Exhausted() {
						t.Fatalf("no selection although %s has uses left", p.Name)
					}
				}
				return
			}
			before := sel.Profile.Uses
			if before.Exhausted() {
				t.Fatalf("selected exhausted profile %s", sel.Profile.Name)
			}
			if err := Consume(profiles, sel.Index); err != nil {
				t.Fatalf("consume: %v", err)
			}
			after := profiles[sel.Index].Uses
			if before.IsUnlimited() != after.IsUnlimited() {
				t.Fatalf("budget kind changed")
			}
			if !before.IsUnlimited() && after.Count() != before.Count()-1 {
				t.Fatalf("budget %d became %d", before.Count(), after.Count())
			}
		}
	})
}
