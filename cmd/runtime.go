package cmd

import (
	"fmt"
	"io"
	"os"

	"bootmatch/internal/allocator"
	"bootmatch/internal/config"
	"bootmatch/internal/hw"
	"bootmatch/internal/lock"
	"bootmatch/internal/pxe"
	"bootmatch/internal/store"
)

// openStore opens the configured backend. The returned close function is
// never nil.
func openStore(cfg config.Config) (store.Store, func() error, error) {
	switch cfg.Store.Backend {
	case "", config.StoreBackendFile:
		if err := cfg.MustExist(); err != nil {
			return nil, nil, err
		}
		return store.NewFileStore(cfg.ConfigDir), func() error { return nil }, nil
	case config.StoreBackendSQLite:
		st, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newService wires the allocation service from the configuration.
func newService(cfg config.Config, st store.Store) *allocator.Service {
	locker := lock.NewFileLocker(cfg.LockFile,
		lock.WithInterval(cfg.LockInterval),
		lock.WithWarnEvery(cfg.LockWarnEvery),
	)
	var opts []allocator.Option
	if cfg.PXE.Enabled {
		opts = append(opts, allocator.WithPXE(pxe.NewRegistrar(cfg.PXE.Command, cfg.PXE.URL)))
	}
	return allocator.New(st, locker, opts...)
}

// readFacts reads a fact dump from the named file, or from stdin when the
// name is empty or "-".
func readFacts(stdin io.Reader, name string) (hw.Facts, error) {
	var (
		data []byte
		err  error
	)
	if name == "" || name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read facts: %w", err)
	}
	return hw.ParseFacts(data)
}
