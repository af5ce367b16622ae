package matcher

import (
	"fmt"
	"strings"

	"bootmatch/internal/hw"

	"gopkg.in/yaml.v3"
)

// Pattern has the same shape as a hw.Fact: category, id, attribute, value.
type Pattern [4]Field

// P builds a Pattern from four fields.
func P(category, id, attribute, value Field) Pattern {
	return Pattern{category, id, attribute, value}
}

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, f := range p {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Validate reports the first invalid field.
func (p Pattern) Validate() error {
	for i, f := range p {
		switch f.kind {
		case KindLiteral:
			if _, err := hw.NormalizeValue(f.value); err != nil {
				return &ConfigError{Field: i + 1, Msg: fmt.Sprintf("literal %v: %v", f.value, err)}
			}
		case KindAny:
		case KindBind, KindCollect:
			if f.name == "" {
				return &ConfigError{Field: i + 1, Msg: fmt.Sprintf("%s field without a variable name", f.kind)}
			}
		default:
			return &ConfigError{Field: i + 1, Msg: "unknown pattern field kind"}
		}
	}
	return nil
}

// HasCollect reports whether the pattern accumulates values.
func (p Pattern) HasCollect() bool {
	for _, f := range p {
		if f.kind == KindCollect {
			return true
		}
	}
	return false
}

// compatible reports whether every Literal field equals the fact field.
func (p Pattern) compatible(fact hw.Fact) bool {
	for i, f := range p {
		if f.kind == KindLiteral && !hw.EqualValues(f.value, fact.Field(i)) {
			return false
		}
	}
	return true
}

// Spec is an ordered list of patterns that must all match.
type Spec []Pattern

func (s Spec) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Validate checks every pattern and reports the first error with its position.
func (s Spec) Validate() error {
	for i, p := range s {
		if err := p.Validate(); err != nil {
			if ce, ok := err.(*ConfigError); ok {
				ce.Pattern = i + 1
			}
			return err
		}
	}
	return nil
}

// ParseSpec decodes a YAML spec document and validates it.
func ParseSpec(data []byte) (Spec, error) {
	var raw []yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}
	spec := make(Spec, 0, len(raw))
	for i := range raw {
		node := &raw[i]
		if node.Kind != yaml.SequenceNode || len(node.Content) != 4 {
			return nil, &ConfigError{Pattern: i + 1, Line: node.Line, Msg: "a pattern must be a list of 4 fields"}
		}
		var p Pattern
		for j, fieldNode := range node.Content {
			if err := p[j].UnmarshalYAML(fieldNode); err != nil {
				if ce, ok := err.(*ConfigError); ok {
					ce.Pattern, ce.Field = i+1, j+1
				}
				return nil, err
			}
			// Category, id and attribute are always strings in facts.
			if j < 3 && p[j].kind == KindLiteral && fieldNode.Kind == yaml.ScalarNode {
				p[j] = Literal(fieldNode.Value)
			}
		}
		spec = append(spec, p)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// MarshalSpec encodes a spec in the form accepted by ParseSpec.
func MarshalSpec(spec Spec) ([]byte, error) {
	raw := make([][]Field, len(spec))
	for i, p := range spec {
		raw[i] = p[:]
	}
	return yaml.Marshal(raw)
}
