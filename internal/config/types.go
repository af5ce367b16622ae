package config

import "time"

// Store backends.
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
)

// Config is the top-level configuration structure for bootmatch.
type Config struct {
	ConfigDir     string        `yaml:"configDir"`               // Directory holding the profile and CMDB documents
	LockFile      string        `yaml:"lockFile"`                // Path of the fleet-wide lock file
	LockInterval  time.Duration `yaml:"lockInterval,omitempty"`  // Delay between lock attempts (default: 1s)
	LockWarnEvery int           `yaml:"lockWarnEvery,omitempty"` // Retries between two stall warnings (default: 30)
	LogLevel      string        `yaml:"logLevel,omitempty"`      // debug, info, warn or error
	Store         StoreConfig   `yaml:"store"`
	PXE           PXEConfig     `yaml:"pxe"`
	Server        ServerConfig  `yaml:"server"`
}

// StoreConfig selects where profile budgets and CMDBs are persisted.
type StoreConfig struct {
	Backend    string `yaml:"backend,omitempty"`    // file or sqlite (default: file)
	SQLitePath string `yaml:"sqlitePath,omitempty"` // database file for the sqlite backend
}

// PXEConfig controls registration of booting machines with pxemngr.
type PXEConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Command string `yaml:"command,omitempty"` // pxemngr executable (default: pxemngr)
	URL     string `yaml:"url,omitempty"`     // pxemngr base URL, used for the localboot trailer
}

// ServerConfig configures the HTTP upload endpoint.
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"` // Address to listen on (default: :8080)
}
