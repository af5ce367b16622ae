package store

import (
	"context"
	"errors"
	"fmt"

	"bootmatch/internal/cmdb"
	"bootmatch/internal/hw"
	"bootmatch/internal/matcher"
	"bootmatch/internal/profile"
	"bootmatch/internal/ranges"
	"bootmatch/pkg/logging"

	"gopkg.in/yaml.v3"
)

// backend reads and writes raw documents by kind and name. The state
// document has an empty name.
type backend interface {
	read(ctx context.Context, kind, name string) ([]byte, error)
	write(ctx context.Context, kind, name string, data []byte) error
	describe() string
}

// stateEntry is one line of the state document.
type stateEntry struct {
	Name      string       `yaml:"name"`
	Remaining profile.Uses `yaml:"remaining"`
}

// documentStore implements Store on top of any backend.
type documentStore struct {
	b backend
}

func (s *documentStore) LoadProfiles(ctx context.Context) ([]profile.Profile, error) {
	data, err := s.b.read(ctx, KindState, "")
	if err != nil {
		return nil, &StoreError{Kind: KindState, Err: err}
	}
	states, err := decodeState(data)
	if err != nil {
		return nil, &StoreError{Kind: KindState, Err: err}
	}

	profiles := make([]profile.Profile, 0, len(states))
	for _, st := range states {
		specData, err := s.b.read(ctx, KindSpecs, st.Name)
		if err != nil {
			return nil, &StoreError{Kind: KindSpecs, Name: st.Name, Err: err}
		}
		spec, err := matcher.ParseSpec(specData)
		if err != nil {
			return nil, &StoreError{Kind: KindSpecs, Name: st.Name, Err: err}
		}
		tmpl, err := s.b.read(ctx, KindConfigure, st.Name)
		if err != nil {
			return nil, &StoreError{Kind: KindConfigure, Name: st.Name, Err: err}
		}
		profiles = append(profiles, profile.Profile{
			Name:     st.Name,
			Spec:     spec,
			Uses:     st.Remaining,
			Template: tmpl,
		})
	}

	logging.Debug("Store", "Loaded %d profiles from %s", len(profiles), s.b.describe())
	return profiles, nil
}

func (s *documentStore) SaveProfiles(ctx context.Context, profiles []profile.Profile) error {
	states := make([]stateEntry, len(profiles))
	for i, p := range profiles {
		states[i] = stateEntry{Name: p.Name, Remaining: p.Uses}
	}
	data, err := yaml.Marshal(states)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.b.write(ctx, KindState, "", data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *documentStore) LoadCMDB(ctx context.Context, name string) ([]cmdb.Entry, error) {
	data, err := s.b.read(ctx, KindCMDB, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Kind: KindCMDB, Name: name, Err: err}
	}
	entries, err := DecodeCMDB(data)
	if err != nil {
		return nil, &StoreError{Kind: KindCMDB, Name: name, Err: err}
	}
	return entries, nil
}

func (s *documentStore) SaveCMDB(ctx context.Context, name string, entries []cmdb.Entry) error {
	data, err := EncodeCMDB(entries)
	if err != nil {
		return fmt.Errorf("encode cmdb of %s: %w", name, err)
	}
	if err := s.b.write(ctx, KindCMDB, name, data); err != nil {
		return fmt.Errorf("save cmdb of %s: %w", name, err)
	}
	return nil
}

func decodeState(data []byte) ([]stateEntry, error) {
	var states []stateEntry
	if err := yaml.Unmarshal(data, &states); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(states))
	for i, st := range states {
		if st.Name == "" {
			return nil, fmt.Errorf("entry %d has no name", i)
		}
		if seen[st.Name] {
			return nil, fmt.Errorf("profile %s listed twice", st.Name)
		}
		seen[st.Name] = true
	}
	return states, nil
}

// DecodeCMDB decodes a CMDB document: a list of entries. An element of the
// form {generate: {key: range, ...}} is replaced by the entries it expands to.
func DecodeCMDB(data []byte) ([]cmdb.Entry, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make([]cmdb.Entry, 0, len(raw))
	for i, item := range raw {
		if model, ok := generateBlock(item); ok {
			for _, rec := range ranges.Generate(model) {
				entry, err := normalizeEntry(rec)
				if err != nil {
					return nil, fmt.Errorf("entry %d: %w", i, err)
				}
				entries = append(entries, entry)
			}
			continue
		}
		entry, err := normalizeEntry(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EncodeCMDB encodes entries in the form read by DecodeCMDB.
func EncodeCMDB(entries []cmdb.Entry) ([]byte, error) {
	if entries == nil {
		entries = []cmdb.Entry{}
	}
	return yaml.Marshal(entries)
}

func generateBlock(item map[string]any) (map[string]any, bool) {
	if len(item) != 1 {
		return nil, false
	}
	model, ok := item["generate"].(map[string]any)
	return model, ok
}

func normalizeEntry(item map[string]any) (cmdb.Entry, error) {
	entry := make(cmdb.Entry, len(item))
	for k, v := range item {
		n, err := hw.NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		entry[k] = n
	}
	return entry, nil
}
