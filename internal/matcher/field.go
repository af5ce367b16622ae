package matcher

import (
	"fmt"
	"strings"

	"bootmatch/internal/hw"

	"gopkg.in/yaml.v3"
)

// Kind tags the variant held by a Field.
type Kind int

const (
	kindInvalid Kind = iota
	KindLiteral
	KindBind
	KindCollect
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindBind:
		return "bind"
	case KindCollect:
		return "collect"
	case KindAny:
		return "any"
	default:
		return "invalid"
	}
}

// Field is one position of a Pattern. The zero Field is invalid and is
// reported as a configuration error by every match operation.
type Field struct {
	kind   Kind
	value  any
	name   string
	prefer bool
}

// Literal matches a fact field equal to v. A value that is not a string, an
// integer or a list of those is kept as is and rejected by Pattern.Validate.
func Literal(v any) Field {
	if n, err := hw.NormalizeValue(v); err == nil {
		v = n
	}
	return Field{kind: KindLiteral, value: v}
}

// Bind captures the first compatible value under name.
func Bind(name string) Field { return Field{kind: KindBind, name: name} }

// Prefer is a Bind whose value is also part of the CMDB preference set.
func Prefer(name string) Field { return Field{kind: KindBind, name: name, prefer: true} }

// Collect accumulates every compatible value under name.
func Collect(name string) Field { return Field{kind: KindCollect, name: name} }

// Any matches anything and binds nothing.
func Any() Field { return Field{kind: KindAny} }

// Kind returns the variant held by f.
func (f Field) Kind() Kind { return f.kind }

// Name returns the variable name of a Bind or Collect field.
func (f Field) Name() string { return f.name }

// Value returns the value a Literal field matches.
func (f Field) Value() any { return f.value }

// IsPrefer reports whether f is a Bind that also feeds the preference set.
func (f Field) IsPrefer() bool { return f.kind == KindBind && f.prefer }

func (f Field) String() string {
	switch f.kind {
	case KindLiteral:
		return hw.FormatValue(f.value)
	case KindBind:
		if f.prefer {
			return "$$" + f.name
		}
		return "$" + f.name
	case KindCollect:
		return "collect(" + f.name + ")"
	case KindAny:
		return "*"
	default:
		return "<invalid>"
	}
}

// UnmarshalYAML decodes the scalar shorthands and the single-key mapping form.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return &ConfigError{Line: node.Line, Msg: "null pattern field"}
		}
		if node.Tag == "!!str" {
			*f = parseShorthand(node.Value)
			return nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return err
		}
		*f = Literal(v)
		return nil
	case yaml.SequenceNode:
		var v []any
		if err := node.Decode(&v); err != nil {
			return err
		}
		*f = Literal(v)
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return &ConfigError{Line: node.Line, Msg: fmt.Sprintf("pattern field mapping must have exactly one key, got %d", len(node.Content)/2)}
		}
		key, val := node.Content[0].Value, node.Content[1]
		switch key {
		case "literal":
			var v any
			if err := val.Decode(&v); err != nil {
				return err
			}
			*f = Literal(v)
		case "bind", "prefer", "collect":
			var name string
			if err := val.Decode(&name); err != nil || name == "" {
				return &ConfigError{Line: val.Line, Msg: fmt.Sprintf("%s needs a variable name", key)}
			}
			switch key {
			case "bind":
				*f = Bind(name)
			case "prefer":
				*f = Prefer(name)
			default:
				*f = Collect(name)
			}
		case "any":
			*f = Any()
		default:
			return &ConfigError{Line: node.Line, Msg: fmt.Sprintf("unknown pattern field kind %q", key)}
		}
		return nil
	default:
		return &ConfigError{Line: node.Line, Msg: "unsupported pattern field"}
	}
}

// MarshalYAML writes the mapping form for variables and plain values for literals.
func (f Field) MarshalYAML() (interface{}, error) {
	switch f.kind {
	case KindLiteral:
		if s, ok := f.value.(string); ok && looksLikeShorthand(s) {
			return map[string]any{"literal": s}, nil
		}
		return f.value, nil
	case KindBind:
		if f.prefer {
			return map[string]string{"prefer": f.name}, nil
		}
		return map[string]string{"bind": f.name}, nil
	case KindCollect:
		return map[string]string{"collect": f.name}, nil
	case KindAny:
		return map[string]bool{"any": true}, nil
	default:
		return nil, &ConfigError{Msg: "cannot encode invalid pattern field"}
	}
}

func parseShorthand(s string) Field {
	switch {
	case s == "*":
		return Any()
	case strings.HasPrefix(s, "$$") && len(s) > 2:
		return Prefer(s[2:])
	case strings.HasPrefix(s, "$") && len(s) > 1:
		return Bind(s[1:])
	default:
		return Literal(s)
	}
}

func looksLikeShorthand(s string) bool {
	return s == "*" || (strings.HasPrefix(s, "$") && len(s) > 1)
}

// ConfigError reports a misconfigured pattern. It is surfaced to the
// operator and never skipped.
type ConfigError struct {
	Pattern int
	Field   int
	Line    int
	Msg     string
}

func (e *ConfigError) Error() string {
	var where []string
	if e.Line > 0 {
		where = append(where, fmt.Sprintf("line %d", e.Line))
	}
	if e.Pattern > 0 {
		where = append(where, fmt.Sprintf("pattern %d", e.Pattern))
	}
	if e.Field > 0 {
		where = append(where, fmt.Sprintf("field %d", e.Field))
	}
	if len(where) == 0 {
		return "invalid spec: " + e.Msg
	}
	return fmt.Sprintf("invalid spec (%s): %s", strings.Join(where, ", "), e.Msg)
}
