package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bootmatch/pkg/logging"
)

const stateFileName = "state.yaml"

// FileStore keeps the documents in a configuration directory:
//
//	state.yaml             profiles in priority order with remaining uses
//	<name>.specs.yaml      spec patterns of a profile
//	<name>.configure       configuration template, sent verbatim
//	<name>.cmdb.yaml       optional CMDB of a profile
type FileStore struct {
	documentStore
	dir string
}

// NewFileStore returns a store over the configuration directory dir.
func NewFileStore(dir string) *FileStore {
	fs := &FileStore{dir: dir}
	fs.documentStore = documentStore{b: fileBackend{dir: dir}}
	return fs
}

// Dir returns the configuration directory.
func (fs *FileStore) Dir() string { return fs.dir }

type fileBackend struct {
	dir string
}

func (b fileBackend) describe() string { return b.dir }

// path resolves the file of a document.
func (b fileBackend) path(kind, name string) (string, error) {
	if kind == KindState {
		return filepath.Join(b.dir, stateFileName), nil
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid profile name %q", name)
	}
	switch kind {
	case KindSpecs:
		return filepath.Join(b.dir, name+".specs.yaml"), nil
	case KindConfigure:
		return filepath.Join(b.dir, name+".configure"), nil
	case KindCMDB:
		return filepath.Join(b.dir, name+".cmdb.yaml"), nil
	default:
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
}

func (b fileBackend) read(_ context.Context, kind, name string) ([]byte, error) {
	path, err := b.path(kind, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// write replaces the document atomically so that a crash never leaves a
// truncated state or CMDB behind.
func (b fileBackend) write(_ context.Context, kind, name string, data []byte) error {
	path, err := b.path(kind, name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", b.dir, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write file %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync file %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod file %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	logging.Debug("Store", "Saved %s document to %s", kind, path)
	return nil
}
