// Package hw defines the hardware fact model shared by the matcher, the
// allocator and the wire format uploaded by booting machines.
package hw

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fact is one observed attribute of a machine, for example
// ("disk", "sda", "size", "100") or ("network", "eth0", "serial", "aa:bb:..").
//
// Value is a string, an int64, or a []any holding strings. Facts are
// immutable once produced by the probe.
type Fact struct {
	Category  string
	ID        string
	Attribute string
	Value     any
}

// Field returns the i-th field of the fact in wire order.
func (f Fact) Field(i int) any {
	switch i {
	case 0:
		return f.Category
	case 1:
		return f.ID
	case 2:
		return f.Attribute
	case 3:
		return f.Value
	}
	panic(fmt.Sprintf("hw: fact field index %d out of range", i))
}

func (f Fact) String() string {
	return fmt.Sprintf("(%q, %q, %q, %s)", f.Category, f.ID, f.Attribute, FormatValue(f.Value))
}

// Facts is an ordered fact list. The probe emits facts in a stable order and
// matching depends on it.
type Facts []Fact

// String renders the complete fact dump used in operator diagnostics.
func (fs Facts) String() string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NormalizeValue converts a decoded value to its canonical form: integers
// become int64, strings stay strings and lists become []any of canonical
// values. Anything else is rejected.
func NormalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case bool:
		// Booleans are stored as they come from hand written stores.
		return x, nil
	case float64:
		if x == float64(int64(x)) {
			return int64(x), nil
		}
		return x, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := NormalizeValue(e)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("null value")
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// EqualValues reports whether two values are equal once normalised, so that
// int and int64 decoded from different sources compare equal.
func EqualValues(a, b any) bool {
	na, errA := NormalizeValue(a)
	nb, errB := NormalizeValue(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return reflect.DeepEqual(na, nb)
}

// FormatValue renders a value for diagnostics.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

// ParseFacts decodes the wire form: a sequence of 4-element sequences.
// YAML and JSON payloads are both accepted.
func ParseFacts(data []byte) (Facts, error) {
	var raw [][]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode facts: %w", err)
	}
	facts := make(Facts, 0, len(raw))
	for i, tuple := range raw {
		if len(tuple) != 4 {
			return nil, fmt.Errorf("fact %d: expected 4 fields, got %d", i, len(tuple))
		}
		var keys [3]string
		for j := 0; j < 3; j++ {
			s, err := scalarString(tuple[j])
			if err != nil {
				return nil, fmt.Errorf("fact %d field %d: %w", i, j, err)
			}
			keys[j] = s
		}
		value, err := NormalizeValue(tuple[3])
		if err != nil {
			return nil, fmt.Errorf("fact %d value: %w", i, err)
		}
		facts = append(facts, Fact{Category: keys[0], ID: keys[1], Attribute: keys[2], Value: value})
	}
	return facts, nil
}

// MarshalFacts encodes facts in the wire form, preserving order and arity.
func MarshalFacts(facts Facts) ([]byte, error) {
	raw := make([][]any, len(facts))
	for i, f := range facts {
		raw[i] = []any{f.Category, f.ID, f.Attribute, f.Value}
	}
	return yaml.Marshal(raw)
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int, int64:
		return fmt.Sprint(x), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}
