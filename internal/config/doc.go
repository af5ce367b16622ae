// Package config loads the bootmatch server configuration.
//
// The configuration is a single YAML file, by default /etc/bootmatch.yaml,
// read over built-in defaults. A missing file means defaults. A file that
// exists but cannot be parsed, or that fails validation, is a fatal error:
// bootmatch never guesses a configuration.
//
// # File Format
//
//	configDir: /etc/bootmatch/config     # state.yaml, *.specs.yaml, *.configure, *.cmdb.yaml
//	lockFile: /var/lock/bootmatch.lock
//	lockInterval: 1s
//	lockWarnEvery: 30
//	logLevel: info
//	store:
//	  backend: file                       # or sqlite
//	  sqlitePath: /var/lib/bootmatch/state.db
//	pxe:
//	  enabled: false
//	  command: pxemngr
//	  url: http://pxe.example.com/
//	server:
//	  listen: ":8080"
package config
