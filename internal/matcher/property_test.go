package matcher

import (
	"fmt"
	"testing"

	"bootmatch/internal/hw"

	"pgregory.net/rapid"
)

func factGen() *rapid.Generator[hw.Fact] {
	word := rapid.SampledFrom([]string{"a", "b", "c"})
	return rapid.Custom(func(t *rapid.T) hw.Fact {
		return hw.Fact{
			Category:  word.Draw(t, "category"),
			ID:        word.Draw(t, "id"),
			Attribute: word.Draw(t, "attribute"),
			Value:     word.Draw(t, "value"),
		}
	})
}

func TestProperty_LiteralMatchOneIffEqualFact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		facts := hw.Facts(rapid.SliceOfN(factGen(), 0, 12).Draw(t, "facts"))
		target := factGen().Draw(t, "target")
		p := P(Literal(target.Category), Literal(target.ID), Literal(target.Attribute), Literal(target.Value))

		want := false
		for _, f := range facts {
			if f == target {
				want = true
				break
			}
		}

		got, err := MatchOne(p, facts, Bindings{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("MatchOne = %v, want %v for %v in %v", got, want, target, facts)
		}
	})
}

func TestProperty_MatchCollectCapturesEveryCompatibleValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		facts := hw.Facts(rapid.SliceOfN(factGen(), 0, 12).Draw(t, "facts"))
		category := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "category")
		p := P(Literal(category), Any(), Any(), Collect("all"))

		var want []any
		for _, f := range facts {
			if f.Category == category {
				want = append(want, f.Value)
			}
		}

		vars := Bindings{}
		ok, err := MatchCollect(p, facts, vars)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok != (len(want) > 0) {
			t.Fatalf("MatchCollect = %v with %d compatible facts", ok, len(want))
		}
		if !ok {
			if len(vars) != 0 {
				t.Fatalf("failed collect bound %v", vars)
			}
			return
		}
		if fmt.Sprint(vars["all"]) != fmt.Sprint(want) {
			t.Fatalf("collected %v, want %v", vars["all"], want)
		}
	})
}

func TestProperty_FailedMatchAllDoesNotLeak(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		facts := hw.Facts(rapid.SliceOfN(factGen(), 1, 12).Draw(t, "facts"))
		// The trailing pattern can never match: no fact has category "z".
		spec := Spec{
			P(Bind("c"), Bind("i"), Prefer("attr"), Collect("v")),
			P(Literal("z"), Any(), Any(), Any()),
		}
		vars, prefs := Bindings{}, Bindings{}
		ok, err := MatchAll(facts, spec, vars, prefs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || len(vars) != 0 || len(prefs) != 0 {
			t.Fatalf("ok=%v vars=%v prefs=%v", ok, vars, prefs)
		}
	})
}
