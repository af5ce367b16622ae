package config

import "time"

const (
	// DefaultConfigFile is where the CLI looks for its configuration.
	DefaultConfigFile = "/etc/bootmatch.yaml"

	DefaultConfigDir    = "/etc/bootmatch/config"
	DefaultLockFile     = "/var/lock/bootmatch.lock"
	DefaultLockInterval = time.Second
	DefaultWarnEvery    = 30
	DefaultPXECommand   = "pxemngr"
	DefaultListen       = ":8080"
	DefaultSQLitePath   = "/var/lib/bootmatch/state.db"
)

// GetDefaultConfig returns the configuration used when no file is present.
func GetDefaultConfig() Config {
	return Config{
		ConfigDir:     DefaultConfigDir,
		LockFile:      DefaultLockFile,
		LockInterval:  DefaultLockInterval,
		LockWarnEvery: DefaultWarnEvery,
		LogLevel:      "info",
		Store: StoreConfig{
			Backend:    StoreBackendFile,
			SQLitePath: DefaultSQLitePath,
		},
		PXE: PXEConfig{
			Command: DefaultPXECommand,
		},
		Server: ServerConfig{
			Listen: DefaultListen,
		},
	}
}
