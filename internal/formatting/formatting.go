package formatting

import (
	"fmt"
	"io"
	"slices"
	"sort"

	"bootmatch/internal/cmdb"
	"bootmatch/internal/hw"
	"bootmatch/internal/profile"
	bmstrings "bootmatch/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

// Options controls rendering.
type Options struct {
	Format  string
	NoColor bool
	// Wide disables the truncation of long CMDB values.
	Wide bool
}

func (o Options) cellWidth() int {
	if o.Wide {
		return 0
	}
	return bmstrings.DefaultCellMaxLen
}

// Validate rejects unknown formats.
func (o Options) Validate() error {
	switch o.Format {
	case "", FormatTable, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use %s or %s)", o.Format, FormatTable, FormatYAML)
	}
}

// ProfileRow is one line of the profile listing.
type ProfileRow struct {
	Name      string `yaml:"name"`
	Remaining string `yaml:"remaining"`
	Patterns  int    `yaml:"patterns"`
	CMDBSize  int    `yaml:"cmdbSize"`
	CMDBFree  int    `yaml:"cmdbFree"`
	HasCMDB   bool   `yaml:"hasCmdb"`
}

// NewProfileRow summarises a profile and its CMDB, entries being nil when
// the profile has no CMDB.
func NewProfileRow(p profile.Profile, entries []cmdb.Entry) ProfileRow {
	return ProfileRow{
		Name:      p.Name,
		Remaining: p.Uses.String(),
		Patterns:  len(p.Spec),
		CMDBSize:  len(entries),
		CMDBFree:  cmdb.Free(entries),
		HasCMDB:   entries != nil,
	}
}

// Profiles renders the profile listing in priority order.
func Profiles(w io.Writer, rows []ProfileRow, opts Options) error {
	if opts.Format == FormatYAML {
		return writeYAML(w, rows)
	}
	t := newTable(w, opts)
	t.AppendHeader(table.Row{"#", "PROFILE", "REMAINING", "PATTERNS", "CMDB"})
	for i, r := range rows {
		remaining := r.Remaining
		if r.Remaining == "0" && !opts.NoColor {
			remaining = text.FgRed.Sprint(remaining)
		}
		cmdbCol := "-"
		if r.HasCMDB {
			cmdbCol = fmt.Sprintf("%d/%d free", r.CMDBFree, r.CMDBSize)
		}
		t.AppendRow(table.Row{i + 1, r.Name, remaining, r.Patterns, cmdbCol})
	}
	t.Render()
	return nil
}

// CMDB renders the entries of a CMDB. Columns are the union of the entry
// keys, sorted, with the used flag first.
func CMDB(w io.Writer, entries []cmdb.Entry, opts Options) error {
	if opts.Format == FormatYAML {
		return writeYAML(w, entries)
	}
	keys := columns(entries)
	header := table.Row{"#"}
	for _, k := range keys {
		header = append(header, k)
	}
	t := newTable(w, opts)
	t.AppendHeader(header)
	for i, e := range entries {
		row := table.Row{i}
		for _, k := range keys {
			v, ok := e[k]
			if !ok {
				row = append(row, "")
				continue
			}
			cell := fmt.Sprint(v)
			if _, isList := v.([]any); isList {
				cell = hw.FormatValue(v)
			}
			row = append(row, bmstrings.Cell(cell, opts.cellWidth()))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

func columns(entries []cmdb.Entry) []string {
	seen := map[string]bool{}
	var keys []string
	for _, e := range entries {
		for k := range e {
			if !seen[k] && k != cmdb.UsedKey {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return slices.Insert(keys, 0, cmdb.UsedKey)
}

func newTable(w io.Writer, opts Options) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if opts.NoColor {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleRounded)
	}
	return t
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
