package allocator

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteResponse writes the response for the machine: the merged bindings as
// a YAML document, a document separator, then the template verbatim.
func WriteResponse(w io.Writer, res *Result) error {
	vars, err := yaml.Marshal(map[string]any(res.Vars))
	if err != nil {
		return fmt.Errorf("encode bindings: %w", err)
	}
	if _, err := w.Write(vars); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	if _, err := w.Write(res.Template); err != nil {
		return err
	}
	if res.Trailer != "" {
		if _, err := io.WriteString(w, res.Trailer); err != nil {
			return err
		}
	}
	return nil
}
