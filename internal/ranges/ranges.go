// Package ranges expands the compact range syntax used to describe pools of
// hosts and addresses, such as "10.0.1-2.10-20" or "node1-32.example.com".
package ranges

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

var (
	// chained numeric ranges: 10-12 or 10-12:20-30
	rangeRE = regexp.MustCompile(`^[0-9]+-[0-9]+(:[0-9]+-[0-9]+)*$`)
	// head, range, tail split for free text
	textRE = regexp.MustCompile(`^(.*?)([0-9]+-[0-9]+(?::[0-9]+-[0-9]+)*)(.*)$`)
)

// Expand returns the sequence of values described by pattern. Iterating the
// result again restarts it from the beginning.
//
//   - A dotted quad with at least one ranged segment expands to the Cartesian
//     product of its segments, leftmost segment outermost.
//   - Other text with an embedded range expands to head+N+tail for every N.
//   - A list yields its elements.
//   - Anything else is a literal and yields itself once.
func Expand(pattern any) iter.Seq[string] {
	switch p := pattern.(type) {
	case []string:
		return values(p)
	case []any:
		out := make([]string, len(p))
		for i, e := range p {
			out[i] = fmt.Sprint(e)
		}
		return values(out)
	case string:
		if seq, ok := dottedQuad(p); ok {
			return seq
		}
		if seq, ok := freeText(p); ok {
			return seq
		}
		return values([]string{p})
	default:
		return values([]string{fmt.Sprint(p)})
	}
}

// IsRange reports whether pattern expands to something other than a single
// literal value.
func IsRange(pattern any) bool {
	switch p := pattern.(type) {
	case []string, []any:
		return true
	case string:
		if _, ok := dottedQuad(p); ok {
			return true
		}
		_, ok := freeText(p)
		return ok
	default:
		return false
	}
}

func values(vs []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range vs {
			if !yield(v) {
				return
			}
		}
	}
}

// numbers yields every integer of a chained range such as "10-12:20-30".
// It must only be called with input accepted by rangeRE.
func numbers(spec string) (iter.Seq[string], bool) {
	type bounds struct{ lo, hi int }
	var parts []bounds
	for _, piece := range strings.Split(spec, ":") {
		lo, hi, _ := strings.Cut(piece, "-")
		l, err := strconv.Atoi(lo)
		if err != nil {
			return nil, false
		}
		h, err := strconv.Atoi(hi)
		if err != nil {
			return nil, false
		}
		parts = append(parts, bounds{l, h})
	}
	return func(yield func(string) bool) {
		for _, b := range parts {
			if b.lo > b.hi {
				continue
			}
			// Stop on hi before incrementing so hi == MaxInt cannot wrap.
			for n := b.lo; ; n++ {
				if !yield(strconv.Itoa(n)) || n == b.hi {
					break
				}
			}
		}
	}, true
}

func dottedQuad(pattern string) (iter.Seq[string], bool) {
	segments := strings.Split(pattern, ".")
	if len(segments) != 4 {
		return nil, false
	}
	var gens [4]iter.Seq[string]
	ranged := false
	for i, seg := range segments {
		switch {
		case rangeRE.MatchString(seg):
			seq, ok := numbers(seg)
			if !ok {
				return nil, false
			}
			gens[i] = seq
			ranged = true
		case strings.ContainsAny(seg, "-:"):
			return nil, false
		default:
			gens[i] = values([]string{seg})
		}
	}
	if !ranged {
		return nil, false
	}
	return func(yield func(string) bool) {
		// Each inner range is restarted for every value of its outer sibling.
		for a := range gens[0] {
			for b := range gens[1] {
				for c := range gens[2] {
					for d := range gens[3] {
						if !yield(a + "." + b + "." + c + "." + d) {
							return
						}
					}
				}
			}
		}
	}, true
}

func freeText(pattern string) (iter.Seq[string], bool) {
	m := textRE.FindStringSubmatch(pattern)
	if m == nil {
		return nil, false
	}
	head, spec, tail := m[1], m[2], m[3]
	nums, ok := numbers(spec)
	if !ok {
		return nil, false
	}
	return func(yield func(string) bool) {
		for n := range nums {
			if !yield(head + n + tail) {
				return
			}
		}
	}, true
}
